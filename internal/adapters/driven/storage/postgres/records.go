package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/custodia-labs/marc-importer/internal/core/domain"
	"github.com/custodia-labs/marc-importer/internal/core/ports/driven"
)

// ==================== Record Store ====================

// recordStore implements driven.RecordStore and driven.RecordQuerier.
type recordStore struct {
	pool *pgxpool.Pool
}

var (
	_ driven.RecordStore   = (*recordStore)(nil)
	_ driven.RecordQuerier = (*recordStore)(nil)
)

// InsertRecord creates a record row.
func (s *recordStore) InsertRecord(
	ctx context.Context,
	fileID int64,
	recType domain.RecordType,
	naturalKey string,
	modDate float64,
) (int64, error) {
	var id int64
	err := s.pool.QueryRow(ctx, `
		INSERT INTO records (file_id, type, natural_key, mod_date)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`, nullID(fileID), int16(recType), naturalKey, modDate).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("inserting record: %w", err)
	}
	return id, nil
}

// ResetRecord removes all rows of a record and stores its new date.
func (s *recordStore) ResetRecord(ctx context.Context, recordID int64, modDate float64) error {
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			UPDATE records SET mod_date = $1, updated_at = $2 WHERE id = $3
		`, modDate, time.Now().UTC(), recordID)
		if err != nil {
			return fmt.Errorf("updating record: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return domain.ErrNotFound
		}

		// Subfields go with their fields through the cascade.
		if _, err := tx.Exec(ctx, "DELETE FROM fields WHERE record_id = $1", recordID); err != nil {
			return fmt.Errorf("deleting fields: %w", err)
		}
		return nil
	})
}

// InsertField stores a field row.
func (s *recordStore) InsertField(
	ctx context.Context,
	recordID int64,
	tag, data string,
	kind domain.FieldKind,
) (int64, error) {
	var id int64
	err := s.pool.QueryRow(ctx, `
		INSERT INTO fields (record_id, tag, data, kind) VALUES ($1, $2, $3, $4) RETURNING id
	`, recordID, tag, data, int16(kind)).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("inserting field: %w", err)
	}
	return id, nil
}

// InsertSubfield stores a subfield row.
func (s *recordStore) InsertSubfield(ctx context.Context, fieldID int64, code, data string) (int64, error) {
	var id int64
	err := s.pool.QueryRow(ctx, `
		INSERT INTO subfields (field_id, code, data) VALUES ($1, $2, $3) RETURNING id
	`, fieldID, code, data).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("inserting subfield: %w", err)
	}
	return id, nil
}

// GetRecord retrieves a record by ID.
func (s *recordStore) GetRecord(ctx context.Context, id int64) (*domain.StoredRecord, error) {
	var (
		rec     domain.StoredRecord
		fileID  *int64
		recType int16
	)
	err := s.pool.QueryRow(ctx, `
		SELECT id, file_id, type, natural_key, mod_date FROM records WHERE id = $1
	`, id).Scan(&rec.ID, &fileID, &recType, &rec.NaturalKey, &rec.ModDate)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning record: %w", err)
	}

	t, err := domain.RecordTypeFromInt(int(recType))
	if err != nil {
		return nil, err
	}
	rec.Type = t
	if fileID != nil {
		rec.FileID = *fileID
	}
	return &rec, nil
}

// GetFields retrieves the field rows of a record in insertion order.
func (s *recordStore) GetFields(ctx context.Context, recordID int64) ([]domain.FieldRow, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, record_id, tag, data, kind FROM fields WHERE record_id = $1 ORDER BY id
	`, recordID)
	if err != nil {
		return nil, fmt.Errorf("querying fields: %w", err)
	}

	fields, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.FieldRow, error) {
		var (
			f    domain.FieldRow
			kind int16
		)
		err := row.Scan(&f.ID, &f.RecordID, &f.Tag, &f.Data, &kind)
		f.Kind = domain.FieldKind(kind)
		return f, err
	})
	if err != nil {
		return nil, fmt.Errorf("scanning fields: %w", err)
	}
	return fields, nil
}

// GetSubfields retrieves the subfield rows of a field in insertion order.
func (s *recordStore) GetSubfields(ctx context.Context, fieldID int64) ([]domain.SubfieldRow, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, field_id, code, data FROM subfields WHERE field_id = $1 ORDER BY id
	`, fieldID)
	if err != nil {
		return nil, fmt.Errorf("querying subfields: %w", err)
	}

	subfields, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.SubfieldRow, error) {
		var sf domain.SubfieldRow
		err := row.Scan(&sf.ID, &sf.FieldID, &sf.Code, &sf.Data)
		return sf, err
	})
	if err != nil {
		return nil, fmt.Errorf("scanning subfields: %w", err)
	}
	return subfields, nil
}

// ==================== Duplicate Resolver ====================

// duplicateResolver implements driven.DuplicateResolver.
type duplicateResolver struct {
	pool *pgxpool.Pool
}

var _ driven.DuplicateResolver = (*duplicateResolver)(nil)

// Resolve finds the newest record with the same key and type that was
// loaded under the institution code or carries it in 003.
func (r *duplicateResolver) Resolve(
	ctx context.Context,
	institutionCode, naturalKey string,
	modDate float64,
	recType domain.RecordType,
) (domain.DuplicateDecision, error) {
	var (
		id     int64
		stored float64
	)
	err := r.pool.QueryRow(ctx, `
		SELECT r.id, r.mod_date
		FROM records r
		LEFT JOIN files f ON f.id = r.file_id
		WHERE r.natural_key = $1 AND r.type = $2
		  AND (f.institution_code = $3 OR EXISTS (
			SELECT 1 FROM fields fd
			WHERE fd.record_id = r.id AND fd.kind = $4 AND fd.tag = $5 AND fd.data = $3
		  ))
		ORDER BY r.mod_date DESC, r.id DESC
		LIMIT 1
	`, naturalKey, int16(recType), institutionCode,
		int16(domain.FieldKindControl), domain.TagControlNumberIdentifier).Scan(&id, &stored)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.InsertDecision(), nil
		}
		return domain.DuplicateDecision{}, fmt.Errorf("resolving duplicate: %w", err)
	}

	if stored >= modDate {
		return domain.SkipDecision(), nil
	}
	return domain.UpdateDecision(id), nil
}

// ==================== File Store ====================

// fileStore implements driven.FileStore.
type fileStore struct {
	pool *pgxpool.Pool
}

var _ driven.FileStore = (*fileStore)(nil)

// RegisterFile creates a file row.
func (s *fileStore) RegisterFile(ctx context.Context, path, institutionCode, runID string) (int64, error) {
	var id int64
	err := s.pool.QueryRow(ctx, `
		INSERT INTO files (path, institution_code, run_id, started_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`, path, institutionCode, runID, time.Now().UTC()).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("registering file: %w", err)
	}
	return id, nil
}

// FinishFile stores the final counters of a load.
func (s *fileStore) FinishFile(ctx context.Context, report *domain.LoadReport) error {
	finished := report.FinishedAt
	if finished.IsZero() {
		finished = time.Now()
	}

	tag, err := s.pool.Exec(ctx, `
		UPDATE files SET
			finished_at = $1, records = $2, inserted = $3, updated = $4, skipped = $5,
			missing_key = $6, failed = $7, holdings_stored = $8, holdings_skipped = $9,
			holdings_failed = $10, field_rows = $11, subfield_rows = $12, failed_rows = $13
		WHERE id = $14
	`, finished.UTC(), report.Records, report.Inserted, report.Updated, report.Skipped,
		report.MissingKey, report.Failed, report.HoldingsStored, report.HoldingsSkipped,
		report.HoldingsFailed, report.FieldRows, report.SubfieldRows, report.FailedRows, report.FileID)
	if err != nil {
		return fmt.Errorf("finishing file: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// nullID maps the zero id to NULL.
func nullID(id int64) *int64 {
	if id <= 0 {
		return nil
	}
	return &id
}
