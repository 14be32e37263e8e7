package services

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/custodia-labs/marc-importer/internal/core/domain"
)

// catalogKeyPattern matches control numbers of the originating catalog's
// numbering series: one of S, N, R, W, T followed by digits only.
var catalogKeyPattern = regexp.MustCompile(`^[SNRWT]\d+$`)

// IsCatalogKey reports whether a control number belongs to the
// originating catalog's numbering series.
func IsCatalogKey(naturalKey string) bool {
	return catalogKeyPattern.MatchString(naturalKey)
}

// Classify derives the natural key, timestamp and type of a record from
// its control fields.
//
// The returned record always carries NaturalKey and Type. An error
// wrapping domain.ErrInvalidTimestamp is returned when a non-blank 005
// is not numeric; ModDate is then 0.
func Classify(controls []domain.ControlField) (domain.ClassifiedRecord, error) {
	c := scanControls(controls)

	switch {
	case !IsCatalogKey(c.NaturalKey):
		c.Type = domain.RecordTypeUnmatched
	case c.HasOriginIdentifier:
		c.Type = domain.RecordTypeBibliographic
	default:
		c.Type = domain.RecordTypeHolding
	}

	modDate, err := ParseModDate(c.LastChangeRaw)
	if err != nil {
		return c, err
	}
	c.ModDate = modDate
	return c, nil
}

// classifySynthetic derives key and timestamp the same way as Classify
// but fixes the type to Unmatched, the type of derived holding records.
func classifySynthetic(controls []domain.ControlField) (domain.ClassifiedRecord, error) {
	c := scanControls(controls)
	c.Type = domain.RecordTypeUnmatched

	modDate, err := ParseModDate(c.LastChangeRaw)
	if err != nil {
		return c, err
	}
	c.ModDate = modDate
	return c, nil
}

// ParseModDate parses a 005 value. Blank values are 0. Only finite
// decimal numbers are accepted.
func ParseModDate(raw string) (float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	if strings.ContainsAny(raw, "xX_") {
		return 0, fmt.Errorf("%w: %q", domain.ErrInvalidTimestamp, raw)
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%w: %q", domain.ErrInvalidTimestamp, raw)
	}
	return v, nil
}

// scanControls captures 001, 003 and 005 in one pass.
// The last occurrence of a repeated tag wins. Surrounding blanks are
// stripped from the key so a blank 001 counts as missing.
func scanControls(controls []domain.ControlField) domain.ClassifiedRecord {
	var c domain.ClassifiedRecord
	for _, cf := range controls {
		switch cf.Tag {
		case domain.TagControlNumber:
			c.NaturalKey = strings.TrimSpace(cf.Data)
		case domain.TagControlNumberIdentifier:
			c.HasOriginIdentifier = true
		case domain.TagLastTransaction:
			c.LastChangeRaw = cf.Data
		}
	}
	return c
}
