package services

import (
	"context"

	"github.com/custodia-labs/marc-importer/internal/core/domain"
	"github.com/custodia-labs/marc-importer/internal/core/ports/driven"
	"github.com/custodia-labs/marc-importer/internal/logger"
)

// DecomposeOptions controls a single decomposition pass.
type DecomposeOptions struct {
	// InstitutionCode is written as the synthesised 003 and decides
	// whether holding markers are collected.
	InstitutionCode string

	// SynthesizeOrigin adds a 003 control row carrying InstitutionCode.
	SynthesizeOrigin bool

	// CollectHoldings enables 852 marker collection.
	CollectHoldings bool
}

// DecomposeResult is the outcome of a decomposition pass.
type DecomposeResult struct {
	// Markers are the holding markers in collection order.
	Markers []domain.HoldingMarker

	FieldRows    int
	SubfieldRows int
	FailedRows   int
}

// FieldDecomposer writes a record as field and subfield rows.
type FieldDecomposer struct {
	store               driven.RecordStore
	holdingsInstitution string
	strategy            domain.HoldingStrategy
}

// NewFieldDecomposer creates a decomposer. Markers are only collected for
// records loaded under holdingsInstitution, using strategy.
func NewFieldDecomposer(
	store driven.RecordStore,
	holdingsInstitution string,
	strategy domain.HoldingStrategy,
) *FieldDecomposer {
	if holdingsInstitution == "" {
		holdingsInstitution = domain.DefaultInstitutionCode
	}
	if !strategy.IsValid() {
		strategy = domain.HoldingStrategySubfield
	}
	return &FieldDecomposer{
		store:               store,
		holdingsInstitution: holdingsInstitution,
		strategy:            strategy,
	}
}

// Strategy returns the holding marker strategy in use.
func (d *FieldDecomposer) Strategy() domain.HoldingStrategy {
	return d.strategy
}

// Decompose writes every control field, an optional synthesised 003,
// then every data field with its subfields, in source order.
// Row failures are logged and counted; they never stop the pass.
func (d *FieldDecomposer) Decompose(
	ctx context.Context,
	record *domain.RawRecord,
	recordID int64,
	opts DecomposeOptions,
) DecomposeResult {
	var res DecomposeResult

	for _, cf := range record.ControlFields {
		fieldID, err := d.store.InsertField(ctx, recordID, cf.Tag, cf.Data, domain.FieldKindControl)
		if err = writeErr(fieldID, err); err != nil {
			logger.Error("Error saving field %s for record %d: %v", cf.Tag, recordID, err)
			res.FailedRows++
			continue
		}
		logger.Debug("Successfully saved field with id %d", fieldID)
		res.FieldRows++
	}

	if opts.SynthesizeOrigin {
		fieldID, err := d.store.InsertField(ctx, recordID,
			domain.TagControlNumberIdentifier, opts.InstitutionCode, domain.FieldKindControl)
		if err = writeErr(fieldID, err); err != nil {
			logger.Error("Error setting missing institutional code in 003 field for record %d: %v", recordID, err)
			res.FailedRows++
		} else {
			logger.Debug("Successfully set missing institutional code in 003 field")
			res.FieldRows++
		}
	}

	collect := opts.CollectHoldings && opts.InstitutionCode == d.holdingsInstitution

	for _, df := range record.DataFields {
		rendered := df.String()
		fieldID, err := d.store.InsertField(ctx, recordID, df.Tag, rendered, domain.FieldKindData)
		if err = writeErr(fieldID, err); err != nil {
			logger.Error("Failed to insert Field %s into database: %v", df.Tag, err)
			res.FailedRows++
			// Without a parent row the subfields cannot be stored.
			res.FailedRows += len(df.Subfields)
		} else {
			logger.Debug("Successfully inserted Field %s into database with ID %d", df.Tag, fieldID)
			res.FieldRows++
			d.writeSubfields(ctx, fieldID, df.Subfields, &res)
		}

		if collect && df.Tag == domain.TagLocation {
			res.Markers = append(res.Markers, d.markers(df, rendered)...)
		}
	}

	return res
}

func (d *FieldDecomposer) writeSubfields(
	ctx context.Context,
	fieldID int64,
	subfields []domain.Subfield,
	res *DecomposeResult,
) {
	for _, sf := range subfields {
		subID, err := d.store.InsertSubfield(ctx, fieldID, string(sf.Code), sf.Data)
		if err = writeErr(subID, err); err != nil {
			logger.Error("Failed to save subfield %c of field %d: %v", sf.Code, fieldID, err)
			res.FailedRows++
			continue
		}
		logger.Debug("Successfully saved subfield with id %d", subID)
		res.SubfieldRows++
	}
}

// markers extracts holding markers from one 852 field.
func (d *FieldDecomposer) markers(df domain.DataField, rendered string) []domain.HoldingMarker {
	var out []domain.HoldingMarker
	if d.strategy.CollectsSubfields() {
		for _, sf := range df.Subfields {
			if sf.Code == domain.SubfieldLocation {
				out = append(out, domain.HoldingMarker{Value: sf.Data, Source: domain.MarkerSubfield})
			}
		}
	}
	if d.strategy.CollectsField() {
		out = append(out, domain.HoldingMarker{Value: rendered, Source: domain.MarkerField})
	}
	return out
}

// HoldingMarkers returns the markers Decompose would collect for record
// when loaded under code, without writing anything.
func (d *FieldDecomposer) HoldingMarkers(record *domain.RawRecord, code string) []domain.HoldingMarker {
	if code != d.holdingsInstitution {
		return nil
	}
	var out []domain.HoldingMarker
	for _, df := range record.DataFieldsByTag(domain.TagLocation) {
		out = append(out, d.markers(df, df.String())...)
	}
	return out
}
