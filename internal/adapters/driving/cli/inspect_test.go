package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/marc-importer/internal/core/domain"
)

func TestInspectCmd_Use(t *testing.T) {
	assert.Equal(t, "inspect <file>", inspectCmd.Use)
}

func TestInspectCmd_PrintsSummaries(t *testing.T) {
	a := newMockApp()
	a.inspector.summaries = []domain.RecordSummary{
		{
			Position: 1,
			Classified: domain.ClassifiedRecord{
				NaturalKey:    "S1000",
				LastChangeRaw: "20200101",
				Type:          domain.RecordTypeBibliographic,
			},
			Markers: []domain.HoldingMarker{{Value: "L"}, {Value: "O"}},
		},
		{
			Position:   2,
			Classified: domain.ClassifiedRecord{NaturalKey: "X1", Type: domain.RecordTypeUnmatched},
		},
		{Position: 3, Err: domain.ErrMissingControlKey},
	}
	buf := setupCLITest(t, a)

	require.NoError(t, execute("inspect", "estc.mrc"))

	out := buf.String()
	assert.Contains(t, out, "S1000")
	assert.Contains(t, out, "bibliographic")
	assert.Contains(t, out, "holdings: L, O")
	assert.Contains(t, out, "unmatched")
	assert.Contains(t, out, "missing or blank control field")
	assert.Contains(t, out, "3 records: 1 bibliographic, 0 holding, 1 unmatched, 1 with errors; 2 holding records")
}

func TestInspectCmd_Error(t *testing.T) {
	a := newMockApp()
	a.inspector.err = domain.ErrSourceOpen
	setupCLITest(t, a)

	err := execute("inspect", "missing.mrc")
	assert.ErrorIs(t, err, domain.ErrSourceOpen)
}

func TestModDate(t *testing.T) {
	assert.Equal(t, "-", modDate(domain.ClassifiedRecord{}))
	assert.Equal(t, "20200101", modDate(domain.ClassifiedRecord{LastChangeRaw: "20200101"}))
}
