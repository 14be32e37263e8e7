package driven

import "github.com/custodia-labs/marc-importer/internal/core/domain"

// RecordReader is a forward-only stream of decoded records.
type RecordReader interface {
	// HasNext reports whether another record can be read.
	HasNext() bool

	// Next returns the next record. A decode error for one record
	// does not necessarily end the stream; callers consult HasNext.
	Next() (*domain.RawRecord, error)

	// Close releases the underlying source.
	Close() error
}

// RecordSourceOpener opens a record stream for a file.
type RecordSourceOpener interface {
	// Open returns a reader positioned at the first record.
	// Errors wrap domain.ErrSourceOpen.
	Open(path string) (RecordReader, error)
}
