package driven

import (
	"context"

	"github.com/custodia-labs/marc-importer/internal/core/domain"
)

// DuplicateResolver looks up previously stored records.
// The core branches on the returned decision and never compares
// records itself.
type DuplicateResolver interface {
	// Resolve returns Skip when an equal or newer record exists,
	// Insert when none exists, and UpdateExisting with its id otherwise.
	Resolve(ctx context.Context, institutionCode, naturalKey string, modDate float64, recType domain.RecordType) (domain.DuplicateDecision, error)
}
