package iso2709

import (
	"bytes"
	"fmt"
	"strconv"

	"golang.org/x/text/unicode/norm"

	"github.com/custodia-labs/marc-importer/internal/core/domain"
)

// Structural bytes and sizes of the exchange format.
const (
	leaderLen         = 24
	dirEntryLen       = 12
	fieldTerminator   = 0x1E
	recordTerminator  = 0x1D
	subfieldDelimiter = 0x1F

	// leaderCodingScheme is the leader position of the character coding scheme.
	leaderCodingScheme = 9
)

// Decode parses one complete record, terminator included.
func Decode(raw []byte) (*domain.RawRecord, error) {
	if len(raw) < leaderLen+1 {
		return nil, malformed("record of %d bytes is shorter than a leader", len(raw))
	}

	leader := raw[:leaderLen]
	base, err := digits(leader[12:17])
	if err != nil || base <= leaderLen || base > len(raw) {
		return nil, malformed("invalid base address %q", leader[12:17])
	}

	dirEnd := bytes.IndexByte(raw[leaderLen:base], fieldTerminator)
	if dirEnd < 0 {
		return nil, malformed("directory is not terminated")
	}
	dir := raw[leaderLen : leaderLen+dirEnd]
	if len(dir)%dirEntryLen != 0 {
		return nil, malformed("directory length %d is not a multiple of %d", len(dir), dirEntryLen)
	}

	unicode := leader[leaderCodingScheme] == 'a'
	rec := &domain.RawRecord{Leader: string(leader)}
	data := raw[base:]

	for i := 0; i < len(dir); i += dirEntryLen {
		entry := dir[i : i+dirEntryLen]
		tag := string(entry[:3])
		length, err := digits(entry[3:7])
		if err != nil {
			return nil, malformed("field %s has invalid length %q", tag, entry[3:7])
		}
		start, err := digits(entry[7:12])
		if err != nil {
			return nil, malformed("field %s has invalid offset %q", tag, entry[7:12])
		}
		if start+length > len(data) {
			return nil, malformed("field %s runs past the end of the record", tag)
		}

		field := bytes.TrimRight(data[start:start+length], "\x1e\x1d")

		if isControlTag(tag) {
			data, err := text(field, unicode)
			if err != nil {
				return nil, malformed("field %s: %v", tag, err)
			}
			rec.ControlFields = append(rec.ControlFields, domain.ControlField{Tag: tag, Data: data})
			continue
		}
		df, err := dataField(tag, field, unicode)
		if err != nil {
			return nil, malformed("field %s: %v", tag, err)
		}
		rec.DataFields = append(rec.DataFields, df)
	}

	return rec, nil
}

// dataField splits a variable data field into indicators and subfields.
// Bytes before the first delimiter other than the indicators are dropped.
func dataField(tag string, field []byte, unicode bool) (domain.DataField, error) {
	df := domain.DataField{Tag: tag, Ind1: ' ', Ind2: ' '}
	if len(field) > 0 && field[0] != subfieldDelimiter {
		df.Ind1 = field[0]
	}
	if len(field) > 1 && field[1] != subfieldDelimiter {
		df.Ind2 = field[1]
	}

	chunks := bytes.Split(field, []byte{subfieldDelimiter})
	for _, chunk := range chunks[1:] {
		if len(chunk) == 0 {
			continue
		}
		data, err := text(chunk[1:], unicode)
		if err != nil {
			return df, fmt.Errorf("subfield %c: %w", chunk[0], err)
		}
		df.Subfields = append(df.Subfields, domain.Subfield{Code: chunk[0], Data: data})
	}
	return df, nil
}

// isControlTag reports whether a tag is in the 001-009 range.
func isControlTag(tag string) bool {
	return len(tag) == 3 && tag[0] == '0' && tag[1] == '0'
}

// text converts field bytes to NFC UTF-8. Records not flagged as
// Unicode are MARC-8.
func text(b []byte, unicode bool) (string, error) {
	if unicode {
		return norm.NFC.String(string(b)), nil
	}
	return decodeMARC8(b)
}

// digits parses an unsigned decimal field.
func digits(b []byte) (int, error) {
	n, err := strconv.Atoi(string(b))
	if err != nil || n < 0 {
		return 0, fmt.Errorf("not a number: %q", b)
	}
	return n, nil
}

func malformed(format string, args ...any) error {
	return fmt.Errorf("%w: %s", domain.ErrMalformedRecord, fmt.Sprintf(format, args...))
}
