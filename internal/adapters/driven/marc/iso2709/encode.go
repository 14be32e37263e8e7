package iso2709

import (
	"bytes"
	"fmt"

	"github.com/custodia-labs/marc-importer/internal/core/domain"
)

// defaultLeader is used when a record has no leader of its own.
// Position 09 declares UTF-8.
const defaultLeader = "00000nam a2200000   4500"

// Marshal encodes a record in ISO 2709, computing the record length, base
// address and directory. Field data is written as UTF-8.
func Marshal(rec *domain.RawRecord) ([]byte, error) {
	leader := []byte(defaultLeader)
	if len(rec.Leader) == leaderLen {
		leader = []byte(rec.Leader)
	}

	var dir, data bytes.Buffer
	add := func(tag string, body []byte) error {
		if len(tag) != 3 {
			return fmt.Errorf("encode field: invalid tag %q", tag)
		}
		body = append(body, fieldTerminator)
		if len(body) > 9999 || data.Len() > 99999 {
			return fmt.Errorf("encode field %s: field too long", tag)
		}
		fmt.Fprintf(&dir, "%s%04d%05d", tag, len(body), data.Len())
		data.Write(body)
		return nil
	}

	for _, cf := range rec.ControlFields {
		if err := add(cf.Tag, []byte(cf.Data)); err != nil {
			return nil, err
		}
	}
	for _, df := range rec.DataFields {
		body := []byte{indicator(df.Ind1), indicator(df.Ind2)}
		for _, sf := range df.Subfields {
			body = append(body, subfieldDelimiter, sf.Code)
			body = append(body, sf.Data...)
		}
		if err := add(df.Tag, body); err != nil {
			return nil, err
		}
	}
	dir.WriteByte(fieldTerminator)

	base := leaderLen + dir.Len()
	total := base + data.Len() + 1
	if total > 99999 {
		return nil, fmt.Errorf("encode record: %d bytes exceeds the format limit", total)
	}
	copy(leader[0:5], fmt.Sprintf("%05d", total))
	copy(leader[12:17], fmt.Sprintf("%05d", base))

	out := make([]byte, 0, total)
	out = append(out, leader...)
	out = append(out, dir.Bytes()...)
	out = append(out, data.Bytes()...)
	out = append(out, recordTerminator)
	return out, nil
}

func indicator(b byte) byte {
	if b == 0 {
		return ' '
	}
	return b
}
