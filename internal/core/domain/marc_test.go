package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDataField_String(t *testing.T) {
	tests := []struct {
		name     string
		field    DataField
		expected string
	}{
		{
			name: "single subfield with indicators",
			field: DataField{
				Tag: "852", Ind1: '0', Ind2: '1',
				Subfields: []Subfield{{Code: 'a', Data: "LIBRARY-X"}},
			},
			expected: "852 01$aLIBRARY-X",
		},
		{
			name: "blank indicators",
			field: DataField{
				Tag: "245", Ind1: ' ', Ind2: ' ',
				Subfields: []Subfield{{Code: 'a', Data: "Title"}, {Code: 'c', Data: "Author."}},
			},
			expected: "245   $aTitle$cAuthor.",
		},
		{
			name:     "unset indicators render as blanks",
			field:    DataField{Tag: "500", Subfields: []Subfield{{Code: 'a', Data: "Note"}}},
			expected: "500   $aNote",
		},
		{
			name:     "no subfields",
			field:    DataField{Tag: "999", Ind1: '1', Ind2: '2'},
			expected: "999 12",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.field.String())
		})
	}
}

func TestSubfield_String(t *testing.T) {
	assert.Equal(t, "$bShelf 3", Subfield{Code: 'b', Data: "Shelf 3"}.String())
}

func TestRawRecord_ControlValue(t *testing.T) {
	rec := &RawRecord{
		ControlFields: []ControlField{
			{Tag: "001", Data: "S1000"},
			{Tag: "005", Data: "20200101"},
			{Tag: "001", Data: "ignored"},
		},
	}

	v, ok := rec.ControlValue("001")
	assert.True(t, ok)
	assert.Equal(t, "S1000", v)

	_, ok = rec.ControlValue("003")
	assert.False(t, ok)
}

func TestRawRecord_DataFieldsByTag(t *testing.T) {
	rec := &RawRecord{
		DataFields: []DataField{
			{Tag: "245"},
			{Tag: "852", Subfields: []Subfield{{Code: 'a', Data: "L1"}}},
			{Tag: "852", Subfields: []Subfield{{Code: 'a', Data: "L2"}}},
		},
	}

	got := rec.DataFieldsByTag("852")
	assert.Len(t, got, 2)
	assert.Equal(t, "L1", got[0].Subfields[0].Data)
	assert.Empty(t, rec.DataFieldsByTag("100"))
}
