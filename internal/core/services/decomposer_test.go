package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/marc-importer/internal/core/domain"
)

func TestNewFieldDecomposer_Defaults(t *testing.T) {
	d := NewFieldDecomposer(newMockRecordStore(), "", "bogus")

	assert.Equal(t, domain.HoldingStrategySubfield, d.Strategy())
	assert.Equal(t, domain.DefaultInstitutionCode, d.holdingsInstitution)
}

func TestFieldDecomposer_RowOrder(t *testing.T) {
	store := newMockRecordStore()
	d := NewFieldDecomposer(store, "estc", domain.HoldingStrategySubfield)
	record := &domain.RawRecord{
		ControlFields: controls("001", "N1", "005", "20200101"),
		DataFields:    []domain.DataField{titleField("A sermon")},
	}

	res := d.Decompose(context.Background(), record, 7, DecomposeOptions{
		InstitutionCode:  "estc",
		SynthesizeOrigin: true,
	})

	assert.Equal(t, 4, res.FieldRows)
	assert.Equal(t, 2, res.SubfieldRows)
	assert.Zero(t, res.FailedRows)

	rows := store.fieldsFor(7)
	require.Len(t, rows, 4)
	assert.Equal(t, []string{"001", "005", "003", "245"}, []string{rows[0].Tag, rows[1].Tag, rows[2].Tag, rows[3].Tag})
	assert.Equal(t, "estc", rows[2].Data)
	for _, r := range rows[:3] {
		assert.Equal(t, domain.FieldKindControl, r.Kind)
	}
	assert.Equal(t, domain.FieldKindData, rows[3].Kind)
	assert.Equal(t, "245 10$aA sermon$cAnon.", rows[3].Data)

	require.Len(t, store.subfields, 2)
	assert.Equal(t, rows[3].ID, store.subfields[0].FieldID)
	assert.Equal(t, "a", store.subfields[0].Code)
	assert.Equal(t, "A sermon", store.subfields[0].Data)
	assert.Equal(t, "c", store.subfields[1].Code)
}

func TestFieldDecomposer_NoOriginRow(t *testing.T) {
	store := newMockRecordStore()
	d := NewFieldDecomposer(store, "estc", domain.HoldingStrategySubfield)
	record := &domain.RawRecord{ControlFields: controls("001", "S1", "003", "CU-RivES")}

	res := d.Decompose(context.Background(), record, 1, DecomposeOptions{InstitutionCode: "estc"})

	assert.Equal(t, 2, res.FieldRows)
	rows := store.fieldsFor(1)
	require.Len(t, rows, 2)
	assert.Equal(t, "CU-RivES", rows[1].Data)
}

func TestFieldDecomposer_Markers(t *testing.T) {
	field := holdingField("LIBRARY-X", "LIBRARY-Y")
	rendered := field.String()

	tests := []struct {
		name        string
		strategy    domain.HoldingStrategy
		institution string
		collect     bool
		want        []domain.HoldingMarker
	}{
		{
			name:        "subfield",
			strategy:    domain.HoldingStrategySubfield,
			institution: "estc",
			collect:     true,
			want: []domain.HoldingMarker{
				{Value: "LIBRARY-X", Source: domain.MarkerSubfield},
				{Value: "LIBRARY-Y", Source: domain.MarkerSubfield},
			},
		},
		{
			name:        "field",
			strategy:    domain.HoldingStrategyField,
			institution: "estc",
			collect:     true,
			want:        []domain.HoldingMarker{{Value: rendered, Source: domain.MarkerField}},
		},
		{
			name:        "both",
			strategy:    domain.HoldingStrategyBoth,
			institution: "estc",
			collect:     true,
			want: []domain.HoldingMarker{
				{Value: "LIBRARY-X", Source: domain.MarkerSubfield},
				{Value: "LIBRARY-Y", Source: domain.MarkerSubfield},
				{Value: rendered, Source: domain.MarkerField},
			},
		},
		{
			name:        "other institution",
			strategy:    domain.HoldingStrategyBoth,
			institution: "dlc",
			collect:     true,
		},
		{
			name:        "collection disabled",
			strategy:    domain.HoldingStrategyBoth,
			institution: "estc",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewFieldDecomposer(newMockRecordStore(), "estc", tt.strategy)
			record := &domain.RawRecord{
				ControlFields: controls("001", "S1"),
				DataFields:    []domain.DataField{titleField("x"), field},
			}

			res := d.Decompose(context.Background(), record, 1, DecomposeOptions{
				InstitutionCode: tt.institution,
				CollectHoldings: tt.collect,
			})

			assert.Equal(t, tt.want, res.Markers)
		})
	}
}

func TestFieldDecomposer_OtherSubfieldsAreNotMarkers(t *testing.T) {
	d := NewFieldDecomposer(newMockRecordStore(), "estc", domain.HoldingStrategySubfield)
	field := domain.DataField{
		Tag: "852",
		Subfields: []domain.Subfield{
			{Code: 'b', Data: "Rare books"},
			{Code: 'a', Data: "L"},
		},
	}
	record := &domain.RawRecord{DataFields: []domain.DataField{field}}

	res := d.Decompose(context.Background(), record, 1, DecomposeOptions{InstitutionCode: "estc", CollectHoldings: true})

	require.Len(t, res.Markers, 1)
	assert.Equal(t, "L", res.Markers[0].Value)
}

func TestFieldDecomposer_RowFailuresContinue(t *testing.T) {
	store := newMockRecordStore()
	store.failField = func(tag, _ string) bool { return tag == "245" }
	store.failSubfield = func(code, _ string) bool { return code == "b" }
	d := NewFieldDecomposer(store, "estc", domain.HoldingStrategySubfield)

	record := &domain.RawRecord{
		ControlFields: controls("001", "S1"),
		DataFields: []domain.DataField{
			titleField("lost"),
			{Tag: "260", Subfields: []domain.Subfield{{Code: 'a', Data: "London"}, {Code: 'b', Data: "x"}}},
			holdingField("L"),
		},
	}

	res := d.Decompose(context.Background(), record, 3, DecomposeOptions{
		InstitutionCode: "estc",
		CollectHoldings: true,
	})

	// 245 row and its two subfields, plus 260 $b.
	assert.Equal(t, 4, res.FailedRows)
	assert.Equal(t, 3, res.FieldRows)
	assert.Equal(t, 2, res.SubfieldRows)
	assert.Len(t, res.Markers, 1)

	tags := make([]string, 0)
	for _, r := range store.fieldsFor(3) {
		tags = append(tags, r.Tag)
	}
	assert.Equal(t, []string{"001", "260", "852"}, tags)
}

func TestFieldDecomposer_OriginRowFailure(t *testing.T) {
	store := newMockRecordStore()
	store.failField = func(tag, _ string) bool { return tag == "003" }
	d := NewFieldDecomposer(store, "estc", domain.HoldingStrategySubfield)
	record := &domain.RawRecord{ControlFields: controls("001", "S1")}

	res := d.Decompose(context.Background(), record, 1, DecomposeOptions{InstitutionCode: "estc", SynthesizeOrigin: true})

	assert.Equal(t, 1, res.FieldRows)
	assert.Equal(t, 1, res.FailedRows)
}
