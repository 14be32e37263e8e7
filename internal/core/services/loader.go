package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/marc-importer/internal/core/domain"
	"github.com/custodia-labs/marc-importer/internal/core/ports/driven"
	"github.com/custodia-labs/marc-importer/internal/core/ports/driving"
	"github.com/custodia-labs/marc-importer/internal/logger"
)

// Ensure MarcLoader implements the interface.
var _ driving.MarcLoader = (*MarcLoader)(nil)

// MarcLoader drives the record pipeline over a MARC file: classification,
// duplicate resolution, decomposition and holding synthesis, one record
// at a time.
type MarcLoader struct {
	opener     driven.RecordSourceOpener
	files      driven.FileStore
	gate       *recordGate
	decomposer *FieldDecomposer
	holdings   *HoldingSynthesizer

	defaultInstitution string
	now                func() time.Time
	newRunID           func() string
}

// NewMarcLoader creates a loader. The files store is optional; without
// it file ids must be supplied by the caller.
func NewMarcLoader(
	opener driven.RecordSourceOpener,
	store driven.RecordStore,
	resolver driven.DuplicateResolver,
	files driven.FileStore,
	settings domain.ImportSettings,
) *MarcLoader {
	decomposer := NewFieldDecomposer(store, settings.HoldingsInstitution, settings.HoldingStrategy)
	institution := settings.InstitutionCode
	if institution == "" {
		institution = domain.DefaultInstitutionCode
	}
	return &MarcLoader{
		opener:             opener,
		files:              files,
		gate:               &recordGate{resolver: resolver, store: store},
		decomposer:         decomposer,
		holdings:           NewHoldingSynthesizer(resolver, store, decomposer),
		defaultInstitution: institution,
		now:                time.Now,
		newRunID:           uuid.NewString,
	}
}

// LoadFile processes every record of a file in order. A failure to open
// the file aborts the load; everything else is counted in the report.
//
// The file is always processed to completion once opened.
func (l *MarcLoader) LoadFile(ctx context.Context, req driving.LoadRequest) (*domain.LoadReport, error) {
	if req.Path == "" {
		return nil, fmt.Errorf("load file: %w: empty path", domain.ErrInvalidInput)
	}
	code := req.InstitutionCode
	if code == "" {
		code = l.defaultInstitution
	}

	reader, err := l.opener.Open(req.Path)
	if err != nil {
		logger.Error("Failed to load MARC file %s: %v", req.Path, err)
		if !errors.Is(err, domain.ErrSourceOpen) {
			err = fmt.Errorf("%w: %w", domain.ErrSourceOpen, err)
		}
		return nil, err
	}
	defer reader.Close()

	report := &domain.LoadReport{
		RunID:           l.newRunID(),
		FileID:          req.FileID,
		Path:            req.Path,
		InstitutionCode: code,
		StartedAt:       l.now(),
	}

	if report.FileID == 0 && l.files != nil {
		fileID, err := l.files.RegisterFile(ctx, req.Path, code, report.RunID)
		if err != nil {
			return nil, fmt.Errorf("register file: %w", err)
		}
		report.FileID = fileID
	}

	logger.Section("Loading " + req.Path)
	logger.Info("Loading MARC file %s for %s (file %d)", req.Path, code, report.FileID)

	for reader.HasNext() {
		record, err := reader.Next()
		report.Records++
		if err != nil {
			logger.Error("Unable to decode record %d of %s: %v", report.Records, req.Path, err)
			report.Failed++
			continue
		}
		l.processRecord(ctx, record, code, report)
	}

	report.FinishedAt = l.now()

	if l.files != nil {
		if err := l.files.FinishFile(ctx, report); err != nil {
			logger.Error("Failed to record results for %s: %v", req.Path, err)
		}
	}

	logger.Info("Finished %s: %d records, %d inserted, %d updated, %d skipped, %d holdings, %d failed",
		req.Path, report.Records, report.Inserted, report.Updated, report.Skipped,
		report.HoldingsStored, report.Failed+report.MissingKey)

	return report, nil
}

// processRecord runs one record through the pipeline, including the
// synthesis of its holding records.
func (l *MarcLoader) processRecord(
	ctx context.Context,
	record *domain.RawRecord,
	code string,
	report *domain.LoadReport,
) {
	c, err := Classify(record.ControlFields)
	if !c.HasKey() {
		logger.Error("Unable to process record due to %v", domain.ErrMissingControlKey)
		report.MissingKey++
		return
	}
	if err != nil {
		logger.Error("Unable to process record %s: %v", c.NaturalKey, err)
		report.Failed++
		return
	}
	logger.Debug("Processing %s record %s", c.Type, c.NaturalKey)

	ref, outcome, err := l.gate.open(ctx, c, code, report.FileID)
	if err != nil {
		logger.Error("Unable to store record %s: %v", c.NaturalKey, err)
		report.Failed++
		return
	}

	switch outcome {
	case gateSkipped:
		report.Skipped++
		return
	case gateUpdated:
		report.Updated++
	default:
		report.Inserted++
	}

	res := l.decomposer.Decompose(ctx, record, ref.RecordID, DecomposeOptions{
		InstitutionCode:  code,
		SynthesizeOrigin: !c.HasOriginIdentifier,
		CollectHoldings:  true,
	})
	report.FieldRows += res.FieldRows
	report.SubfieldRows += res.SubfieldRows
	report.FailedRows += res.FailedRows

	if len(res.Markers) == 0 {
		return
	}

	_, stats := l.holdings.Synthesize(ctx, record, res.Markers, report.FileID)
	report.HoldingsStored += stats.Stored
	report.HoldingsSkipped += stats.Skipped
	report.HoldingsFailed += stats.Failed
	report.FieldRows += stats.FieldRows
	report.SubfieldRows += stats.SubfieldRows
	report.FailedRows += stats.FailedRows
}
