package domain

import "strings"

// Well-known MARC tags used by the importer.
const (
	// TagControlNumber holds the originating system's record identifier.
	TagControlNumber = "001"

	// TagControlNumberIdentifier names the institution that created the record.
	TagControlNumberIdentifier = "003"

	// TagLastTransaction holds the last-change timestamp (yyyymmddhhmmss.f).
	TagLastTransaction = "005"

	// TagLocation is the holdings location field.
	TagLocation = "852"
)

// SubfieldLocation is the 852 subfield code carrying the holding institution.
const SubfieldLocation byte = 'a'

// RawRecord is a MARC record as produced by a decoder.
// It is read-only to the core for the duration of processing.
type RawRecord struct {
	// Leader is the 24 character record leader.
	Leader string

	// ControlFields are the 00X fields in source order.
	ControlFields []ControlField

	// DataFields are the variable fields in source order.
	DataFields []DataField
}

// ControlField is a fixed-purpose field without subfields.
type ControlField struct {
	Tag  string
	Data string
}

// DataField is a variable field made of coded subfields.
type DataField struct {
	Tag       string
	Ind1      byte
	Ind2      byte
	Subfields []Subfield
}

// Subfield is one coded element of a data field.
type Subfield struct {
	Code byte
	Data string
}

// String renders the subfield as "$" + code + data.
func (s Subfield) String() string {
	return "$" + string(s.Code) + s.Data
}

// String renders the full field: tag, a space, both indicators, then
// every subfield. Unset indicators render as blanks.
func (f DataField) String() string {
	var b strings.Builder
	b.WriteString(f.Tag)
	b.WriteByte(' ')
	b.WriteByte(indicator(f.Ind1))
	b.WriteByte(indicator(f.Ind2))
	for _, sf := range f.Subfields {
		b.WriteString(sf.String())
	}
	return b.String()
}

// ControlValue returns the data of the first control field with tag.
func (r *RawRecord) ControlValue(tag string) (string, bool) {
	for _, cf := range r.ControlFields {
		if cf.Tag == tag {
			return cf.Data, true
		}
	}
	return "", false
}

// DataFieldsByTag returns the data fields with the given tag, in order.
func (r *RawRecord) DataFieldsByTag(tag string) []DataField {
	var out []DataField
	for _, df := range r.DataFields {
		if df.Tag == tag {
			out = append(out, df)
		}
	}
	return out
}

func indicator(b byte) byte {
	if b == 0 {
		return ' '
	}
	return b
}
