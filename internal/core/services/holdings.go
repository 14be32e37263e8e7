package services

import (
	"context"
	"strings"

	"github.com/custodia-labs/marc-importer/internal/core/domain"
	"github.com/custodia-labs/marc-importer/internal/core/ports/driven"
	"github.com/custodia-labs/marc-importer/internal/logger"
)

// SynthesisStats counts the outcome of one Synthesize call.
type SynthesisStats struct {
	Stored  int
	Skipped int
	Failed  int

	FieldRows    int
	SubfieldRows int
	FailedRows   int
}

// HoldingSynthesizer derives holding records from the 852 markers of a
// bibliographic record. It holds no state between calls.
type HoldingSynthesizer struct {
	gate       *recordGate
	decomposer *FieldDecomposer
}

// NewHoldingSynthesizer creates a synthesizer writing through store.
func NewHoldingSynthesizer(
	resolver driven.DuplicateResolver,
	store driven.RecordStore,
	decomposer *FieldDecomposer,
) *HoldingSynthesizer {
	return &HoldingSynthesizer{
		gate:       &recordGate{resolver: resolver, store: store},
		decomposer: decomposer,
	}
}

// Synthesize stores one derived record per marker. Each derived record
// reuses the parent's fields verbatim, shares its natural key and
// timestamp, is typed Unmatched, and is resolved and stamped (003) with
// the marker value as its institution code.
//
// The returned refs list the records that were inserted or rewritten.
func (h *HoldingSynthesizer) Synthesize(
	ctx context.Context,
	parent *domain.RawRecord,
	markers []domain.HoldingMarker,
	fileID int64,
) ([]domain.StoredRecordRef, SynthesisStats) {
	var (
		refs  []domain.StoredRecordRef
		stats SynthesisStats
	)

	for _, marker := range markers {
		code := marker.Value
		if strings.TrimSpace(code) == "" {
			logger.Warn("Ignoring blank holding location")
			stats.Failed++
			continue
		}

		logger.Info("Constructing Holding Record for %s", code)

		c, err := classifySynthetic(parent.ControlFields)
		if !c.HasKey() {
			logger.Error("Unable to process holding record due to %v", domain.ErrMissingControlKey)
			stats.Failed++
			continue
		}
		if err != nil {
			logger.Error("Unable to process holding record %s for %s: %v", c.NaturalKey, code, err)
			stats.Failed++
			continue
		}

		ref, outcome, err := h.gate.open(ctx, c, code, fileID)
		if err != nil {
			logger.Error("Unable to store holding record %s for %s: %v", c.NaturalKey, code, err)
			stats.Failed++
			continue
		}
		if outcome == gateSkipped {
			stats.Skipped++
			continue
		}

		res := h.decomposer.Decompose(ctx, parent, ref.RecordID, DecomposeOptions{
			InstitutionCode:  code,
			SynthesizeOrigin: true,
		})
		stats.Stored++
		stats.FieldRows += res.FieldRows
		stats.SubfieldRows += res.SubfieldRows
		stats.FailedRows += res.FailedRows
		refs = append(refs, ref)
	}

	return refs, stats
}
