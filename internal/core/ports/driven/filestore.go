package driven

import (
	"context"

	"github.com/custodia-labs/marc-importer/internal/core/domain"
)

// FileStore records which files were loaded and with what outcome.
type FileStore interface {
	// RegisterFile creates a file row and returns its id.
	RegisterFile(ctx context.Context, path, institutionCode, runID string) (int64, error)

	// FinishFile stores the final counters of a load.
	FinishFile(ctx context.Context, report *domain.LoadReport) error
}
