package driven

import (
	"context"

	"github.com/custodia-labs/marc-importer/internal/core/domain"
)

// RecordStore persists records and their normalised field rows.
// Identifiers are assigned by the store; a write succeeded only when
// err is nil and the returned id is positive.
type RecordStore interface {
	// InsertRecord creates a record row for a file.
	InsertRecord(ctx context.Context, fileID int64, recType domain.RecordType, naturalKey string, modDate float64) (int64, error)

	// ResetRecord removes all field and subfield rows of an existing
	// record and stores its new modification date.
	ResetRecord(ctx context.Context, recordID int64, modDate float64) error

	// InsertField stores one field row.
	InsertField(ctx context.Context, recordID int64, tag, data string, kind domain.FieldKind) (int64, error)

	// InsertSubfield stores one subfield row under a data field row.
	InsertSubfield(ctx context.Context, fieldID int64, code, data string) (int64, error)
}

// RecordQuerier reads stored records back. Used by inspection commands and tests.
type RecordQuerier interface {
	// GetRecord retrieves a record by ID.
	GetRecord(ctx context.Context, id int64) (*domain.StoredRecord, error)

	// GetFields retrieves the field rows of a record in insertion order.
	GetFields(ctx context.Context, recordID int64) ([]domain.FieldRow, error)

	// GetSubfields retrieves the subfield rows of a field in insertion order.
	GetSubfields(ctx context.Context, fieldID int64) ([]domain.SubfieldRow, error)
}
