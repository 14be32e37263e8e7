package services

import (
	"context"
	"fmt"
	"strconv"

	"github.com/custodia-labs/marc-importer/internal/core/domain"
	"github.com/custodia-labs/marc-importer/internal/core/ports/driven"
	"github.com/custodia-labs/marc-importer/internal/logger"
)

// gateOutcome is what happened to a record at the duplicate gate.
type gateOutcome int

const (
	gateInserted gateOutcome = iota
	gateUpdated
	gateSkipped
)

// recordGate resolves duplicates and prepares the record row that
// field rows are written under.
type recordGate struct {
	resolver driven.DuplicateResolver
	store    driven.RecordStore
}

// open runs the duplicate check for a classified record. On Insert a new
// record row is created; on UpdateExisting the existing rows are cleared.
// The returned ref is only meaningful when the outcome is not gateSkipped.
func (g *recordGate) open(
	ctx context.Context,
	c domain.ClassifiedRecord,
	institutionCode string,
	fileID int64,
) (domain.StoredRecordRef, gateOutcome, error) {
	ref := domain.StoredRecordRef{InstitutionCode: institutionCode, Type: c.Type}

	if !c.HasKey() {
		return ref, gateSkipped, domain.ErrMissingControlKey
	}

	decision, err := g.resolver.Resolve(ctx, institutionCode, c.NaturalKey, c.ModDate, c.Type)
	if err != nil {
		return ref, gateSkipped, fmt.Errorf("resolve duplicate %s: %w", c.NaturalKey, err)
	}

	switch decision.Kind {
	case domain.DecisionSkip:
		logger.Info("Skipping duplicate %s record with control %s and modification datetimestamp %s",
			c.Type.SkipLabel(), c.NaturalKey, formatModDate(c.ModDate))
		return ref, gateSkipped, nil

	case domain.DecisionUpdate:
		ref.RecordID = decision.RecordID
		logger.Info("Modifying existing record with system ID %d", ref.RecordID)
		if err := g.store.ResetRecord(ctx, ref.RecordID, c.ModDate); err != nil {
			logger.Error("Failed to clear existing data for record %d: %v", ref.RecordID, err)
		}
		logger.Debug("Writing new data for record %d", ref.RecordID)
		return ref, gateUpdated, nil

	default:
		id, err := g.store.InsertRecord(ctx, fileID, c.Type, c.NaturalKey, c.ModDate)
		if err = writeErr(id, err); err != nil {
			return ref, gateSkipped, fmt.Errorf("insert record %s: %w", c.NaturalKey, err)
		}
		ref.RecordID = id
		ref.Inserted = true
		logger.Info("Inserted New Record With Control Number %s and System ID %d", c.NaturalKey, id)
		logger.Debug("Writing new data for record %d", id)
		return ref, gateInserted, nil
	}
}

// writeErr folds the "non-positive id means failure" storage contract
// into a single error.
func writeErr(id int64, err error) error {
	if err != nil {
		return err
	}
	if id <= 0 {
		return fmt.Errorf("store returned id %d", id)
	}
	return nil
}

// formatModDate prints a 005 timestamp without exponent notation.
func formatModDate(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
