package domain

import "time"

// LoadReport summarises the processing of one MARC file.
type LoadReport struct {
	RunID           string
	FileID          int64
	Path            string
	InstitutionCode string

	// Records is the number of records read from the stream.
	Records int

	Inserted   int
	Updated    int
	Skipped    int
	MissingKey int
	Failed     int

	// HoldingsStored counts synthesised holding records written.
	HoldingsStored int

	// HoldingsSkipped counts synthesised holding records resolved as duplicates.
	HoldingsSkipped int

	// HoldingsFailed counts holding markers that did not produce a record.
	// These are not included in Failed, which counts input records only.
	HoldingsFailed int

	FieldRows    int
	SubfieldRows int
	FailedRows   int

	StartedAt  time.Time
	FinishedAt time.Time
}

// Duration returns how long the load took.
func (r *LoadReport) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// Stored returns the number of input records written (inserted or updated).
func (r *LoadReport) Stored() int {
	return r.Inserted + r.Updated
}
