package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/custodia-labs/marc-importer/internal/core/domain"
	"github.com/custodia-labs/marc-importer/internal/core/ports/driven"
	"github.com/custodia-labs/marc-importer/internal/core/ports/driving"
)

// Ensure Inspector implements the interface.
var _ driving.RecordInspector = (*Inspector)(nil)

// Inspector classifies the records of a file without storing them.
type Inspector struct {
	opener             driven.RecordSourceOpener
	decomposer         *FieldDecomposer
	defaultInstitution string
}

// NewInspector creates an inspector using the same marker rules as the loader.
func NewInspector(opener driven.RecordSourceOpener, settings domain.ImportSettings) *Inspector {
	institution := settings.InstitutionCode
	if institution == "" {
		institution = domain.DefaultInstitutionCode
	}
	return &Inspector{
		opener:             opener,
		decomposer:         NewFieldDecomposer(nil, settings.HoldingsInstitution, settings.HoldingStrategy),
		defaultInstitution: institution,
	}
}

// InspectFile returns one summary per record in file order.
func (i *Inspector) InspectFile(ctx context.Context, path, institutionCode string) ([]domain.RecordSummary, error) {
	if path == "" {
		return nil, fmt.Errorf("inspect file: %w: empty path", domain.ErrInvalidInput)
	}
	code := institutionCode
	if code == "" {
		code = i.defaultInstitution
	}

	reader, err := i.opener.Open(path)
	if err != nil {
		if !errors.Is(err, domain.ErrSourceOpen) {
			err = fmt.Errorf("%w: %w", domain.ErrSourceOpen, err)
		}
		return nil, err
	}
	defer reader.Close()

	var out []domain.RecordSummary
	for reader.HasNext() {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		summary := domain.RecordSummary{Position: len(out) + 1}
		record, err := reader.Next()
		if err != nil {
			summary.Err = err
			out = append(out, summary)
			continue
		}

		summary.Classified, err = Classify(record.ControlFields)
		switch {
		case !summary.Classified.HasKey():
			summary.Err = domain.ErrMissingControlKey
		case err != nil:
			summary.Err = err
		default:
			summary.Markers = i.decomposer.HoldingMarkers(record, code)
		}
		out = append(out, summary)
	}
	return out, nil
}
