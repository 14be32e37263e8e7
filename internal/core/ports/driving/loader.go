package driving

import (
	"context"

	"github.com/custodia-labs/marc-importer/internal/core/domain"
)

// LoadRequest names a file to load.
type LoadRequest struct {
	// Path is the MARC file location.
	Path string

	// InstitutionCode is the MARC code of the institution that created the records.
	InstitutionCode string

	// FileID reuses an existing file row. Zero registers a new one.
	FileID int64
}

// MarcLoader loads MARC files into storage.
type MarcLoader interface {
	// LoadFile processes every record of a file. An error is returned
	// only when the file could not be processed at all; per-record
	// problems are counted in the report.
	LoadFile(ctx context.Context, req LoadRequest) (*domain.LoadReport, error)
}

// Listener runs the listen-directory daemon.
type Listener interface {
	// Run blocks until ctx is done, loading files as they arrive.
	Run(ctx context.Context) error
}

// RecordInspector reads a MARC file without writing to storage.
type RecordInspector interface {
	// InspectFile classifies every record of a file as it would be
	// classified when loaded under institutionCode.
	InspectFile(ctx context.Context, path, institutionCode string) ([]domain.RecordSummary, error)
}
