package iso2709

import (
	"fmt"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// ansel maps the MARC-8 extended Latin (ANSEL) graphic set to Unicode.
var ansel = map[byte]rune{
	0xA1: 'Ł', 0xA2: 'Ø', 0xA3: 'Đ', 0xA4: 'Þ', 0xA5: 'Æ', 0xA6: 'Œ',
	0xA7: 'ʹ', 0xA8: '·', 0xA9: '♭', 0xAA: '®', 0xAB: '±', 0xAC: 'Ơ',
	0xAD: 'Ư', 0xAE: 'ʼ', 0xB0: 'ʻ', 0xB1: 'ł', 0xB2: 'ø', 0xB3: 'đ',
	0xB4: 'þ', 0xB5: 'æ', 0xB6: 'œ', 0xB7: 'ʺ', 0xB8: 'ı', 0xB9: '£',
	0xBA: 'ð', 0xBC: 'ơ', 0xBD: 'ư', 0xC0: '°', 0xC1: 'ℓ', 0xC2: '℗',
	0xC3: '©', 0xC4: '♯', 0xC5: '¿', 0xC6: '¡', 0xC7: 'ß', 0xC8: '€',

	// Joiners.
	0x8D: '\u200D', 0x8E: '\u200C',
}

// anselCombining maps ANSEL diacritics, which precede their base
// character, to Unicode combining marks, which follow it.
var anselCombining = map[byte]rune{
	0xE0: '\u0309', 0xE1: '\u0300', 0xE2: '\u0301', 0xE3: '\u0302',
	0xE4: '\u0303', 0xE5: '\u0304', 0xE6: '\u0306', 0xE7: '\u0307',
	0xE8: '\u0308', 0xE9: '\u030C', 0xEA: '\u030A', 0xEB: '\uFE20',
	0xEC: '\uFE21', 0xED: '\u0315', 0xEE: '\u030B', 0xEF: '\u0310',
	0xF0: '\u0327', 0xF1: '\u0328', 0xF2: '\u0323', 0xF3: '\u0324',
	0xF4: '\u0325', 0xF5: '\u0333', 0xF6: '\u0332', 0xF7: '\u0326',
	0xF8: '\u031C', 0xF9: '\u032E', 0xFA: '\uFE22', 0xFB: '\uFE23',
	0xFE: '\u0313',
}

// defaultSetEscapes are the escape sequences that (re)select the basic
// and extended Latin sets. Other character sets are not supported.
var defaultSetEscapes = []string{
	"\x1bs",   // ASCII as G0
	"\x1b(B",  // ASCII as G0
	"\x1b,B",  // ASCII as G0
	"\x1b)!E", // ANSEL as G1
	"\x1b-!E", // ANSEL as G1
	"\x1b)E",  // ANSEL as G1
}

const (
	escape            = 0x1B
	nonSortBegin byte = 0x88
	nonSortEnd   byte = 0x89
)

// decodeMARC8 converts MARC-8 text limited to the basic and extended
// Latin sets to NFC UTF-8.
func decodeMARC8(b []byte) (string, error) {
	var (
		out     strings.Builder
		pending []rune
	)
	out.Grow(len(b))

	for i := 0; i < len(b); i++ {
		c := b[i]

		if c == escape {
			n := escapeLen(b[i:])
			if n == 0 {
				return "", fmt.Errorf("unsupported MARC-8 escape sequence at byte %d", i)
			}
			i += n - 1
			continue
		}
		if mark, ok := anselCombining[c]; ok {
			pending = append(pending, mark)
			continue
		}
		if c == nonSortBegin || c == nonSortEnd {
			continue
		}

		var r rune
		switch {
		case c < 0x80:
			r = rune(c)
		default:
			mapped, ok := ansel[c]
			if !ok {
				return "", fmt.Errorf("byte 0x%02X at %d has no MARC-8 mapping", c, i)
			}
			r = mapped
		}

		out.WriteRune(r)
		for _, mark := range pending {
			out.WriteRune(mark)
		}
		pending = pending[:0]
	}

	// Diacritics without a base character are kept.
	for _, mark := range pending {
		out.WriteRune(mark)
	}
	return norm.NFC.String(out.String()), nil
}

// escapeLen returns the length of a supported escape sequence at the
// start of b, or 0.
func escapeLen(b []byte) int {
	for _, seq := range defaultSetEscapes {
		if strings.HasPrefix(string(b), seq) {
			return len(seq)
		}
	}
	return 0
}
