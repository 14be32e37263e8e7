package domain

// RecordType is the logical type of a stored record.
// Values match the integers used by the storage layer.
type RecordType int

const (
	// RecordTypeUnclassified is the zero value before classification runs.
	RecordTypeUnclassified RecordType = iota

	// RecordTypeBibliographic is a catalog record carrying its own 003.
	RecordTypeBibliographic

	// RecordTypeHolding is a catalog-series record without a 003.
	RecordTypeHolding

	// RecordTypeUnmatched is a foreign record, or a synthesised holding record.
	RecordTypeUnmatched
)

// String returns the lower-case type name used in log messages.
func (t RecordType) String() string {
	switch t {
	case RecordTypeBibliographic:
		return "bibliographic"
	case RecordTypeHolding:
		return "holding"
	case RecordTypeUnmatched:
		return "unmatched"
	default:
		return "unclassified"
	}
}

// IsValid returns true for the three classified types.
func (t RecordType) IsValid() bool {
	return t == RecordTypeBibliographic || t == RecordTypeHolding || t == RecordTypeUnmatched
}

// SkipLabel is the type name used when reporting a duplicate skip.
// Everything that is not bibliographic reads as "holding".
func (t RecordType) SkipLabel() string {
	if t == RecordTypeBibliographic {
		return "bibliographic"
	}
	return "holding"
}

// RecordTypeFromInt converts a stored integer back into a RecordType.
func RecordTypeFromInt(v int) (RecordType, error) {
	t := RecordType(v)
	if !t.IsValid() {
		return RecordTypeUnclassified, ErrInvalidInput
	}
	return t, nil
}

// ClassifiedRecord is derived once from a record's control fields.
type ClassifiedRecord struct {
	// NaturalKey is the 001 value.
	NaturalKey string

	// HasOriginIdentifier is true when a 003 control field is present.
	HasOriginIdentifier bool

	// LastChangeRaw is the 005 value as found.
	LastChangeRaw string

	// ModDate is LastChangeRaw as a number, 0 when absent or blank.
	ModDate float64

	// Type is the resolved record type.
	Type RecordType
}

// HasKey reports whether the record can be resolved and stored.
func (c ClassifiedRecord) HasKey() bool {
	return c.NaturalKey != ""
}

// FieldKind distinguishes control rows from data rows.
type FieldKind int

const (
	// FieldKindControl is a 00X field stored verbatim.
	FieldKindControl FieldKind = 1

	// FieldKindData is a variable field stored in rendered form.
	FieldKindData FieldKind = 2
)

// String returns the kind name.
func (k FieldKind) String() string {
	switch k {
	case FieldKindControl:
		return "control"
	case FieldKindData:
		return "data"
	default:
		return "unknown"
	}
}

// FieldRow is one stored field of a record.
type FieldRow struct {
	ID       int64
	RecordID int64
	Tag      string
	Data     string
	Kind     FieldKind
}

// SubfieldRow is one stored subfield of a data field row.
type SubfieldRow struct {
	ID      int64
	FieldID int64
	Code    string
	Data    string
}

// StoredRecord is a record row as persisted by storage.
type StoredRecord struct {
	ID         int64
	FileID     int64
	Type       RecordType
	NaturalKey string
	ModDate    float64
}

// MarkerSource tells where a holding marker was taken from.
type MarkerSource int

const (
	// MarkerSubfield is the value of an 852 $a.
	MarkerSubfield MarkerSource = iota

	// MarkerField is the rendered 852 field.
	MarkerField
)

// HoldingMarker is a location value extracted from an 852 field.
// Its value is used as the institution code of a derived record.
type HoldingMarker struct {
	Value  string
	Source MarkerSource
}

// StoredRecordRef identifies a record written during a load.
type StoredRecordRef struct {
	RecordID        int64
	InstitutionCode string
	Type            RecordType

	// Inserted is false when an existing record was rewritten.
	Inserted bool
}

// RecordSummary describes one record of a file without storing it.
type RecordSummary struct {
	// Position is the 1-based index of the record in its file.
	Position int

	Classified ClassifiedRecord

	// Markers are the holding records the record would spawn.
	Markers []HoldingMarker

	// Err is set when the record could not be decoded or classified.
	Err error
}
