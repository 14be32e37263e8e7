package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/custodia-labs/marc-importer/internal/core/domain"
	"github.com/custodia-labs/marc-importer/internal/core/ports/driven"
)

// ==================== Record Store ====================

// recordStore implements driven.RecordStore and driven.RecordQuerier.
type recordStore struct {
	store *Store
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
	now := time.Now().UTC()
	res, err := s.store.db.ExecContext(ctx, `
		INSERT INTO records (file_id, type, natural_key, mod_date, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, nullID(fileID), int(recType), naturalKey, modDate, now, now)
	if err != nil {
		return 0, fmt.Errorf("inserting record: %w", err)
	}
	return res.LastInsertId()
}

// ResetRecord removes all rows of a record and stores its new date.
func (s *recordStore) ResetRecord(ctx context.Context, recordID int64, modDate float64) error {
	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning reset: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	res, err := tx.ExecContext(ctx, `
		UPDATE records SET mod_date = ?, updated_at = ? WHERE id = ?
	`, modDate, time.Now().UTC(), recordID)
	if err != nil {
		return fmt.Errorf("updating record: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}

	if _, err := tx.ExecContext(ctx, `
		DELETE FROM subfields WHERE field_id IN (SELECT id FROM fields WHERE record_id = ?)
	`, recordID); err != nil {
		return fmt.Errorf("deleting subfields: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM fields WHERE record_id = ?", recordID); err != nil {
		return fmt.Errorf("deleting fields: %w", err)
	}

	return tx.Commit()
}

// InsertField stores a field row.
func (s *recordStore) InsertField(
	ctx context.Context,
	recordID int64,
	tag, data string,
	kind domain.FieldKind,
) (int64, error) {
	res, err := s.store.db.ExecContext(ctx, `
		INSERT INTO fields (record_id, tag, data, kind) VALUES (?, ?, ?, ?)
	`, recordID, tag, data, int(kind))
	if err != nil {
		return 0, fmt.Errorf("inserting field: %w", err)
	}
	return res.LastInsertId()
}

// InsertSubfield stores a subfield row.
func (s *recordStore) InsertSubfield(ctx context.Context, fieldID int64, code, data string) (int64, error) {
	res, err := s.store.db.ExecContext(ctx, `
		INSERT INTO subfields (field_id, code, data) VALUES (?, ?, ?)
	`, fieldID, code, data)
	if err != nil {
		return 0, fmt.Errorf("inserting subfield: %w", err)
	}
	return res.LastInsertId()
}

// GetRecord retrieves a record by ID.
func (s *recordStore) GetRecord(ctx context.Context, id int64) (*domain.StoredRecord, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT id, file_id, type, natural_key, mod_date FROM records WHERE id = ?
	`, id)

	var (
		rec     domain.StoredRecord
		fileID  sql.NullInt64
		recType int
	)
	if err := row.Scan(&rec.ID, &fileID, &recType, &rec.NaturalKey, &rec.ModDate); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning record: %w", err)
	}

	t, err := domain.RecordTypeFromInt(recType)
	if err != nil {
		return nil, err
	}
	rec.Type = t
	rec.FileID = fileID.Int64
	return &rec, nil
}

// GetFields retrieves the field rows of a record in insertion order.
func (s *recordStore) GetFields(ctx context.Context, recordID int64) ([]domain.FieldRow, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, record_id, tag, data, kind FROM fields WHERE record_id = ? ORDER BY id
	`, recordID)
	if err != nil {
		return nil, fmt.Errorf("querying fields: %w", err)
	}
	defer rows.Close()

	var fields []domain.FieldRow //nolint:prealloc // size unknown from query
	for rows.Next() {
		var (
			f    domain.FieldRow
			kind int
		)
		if err := rows.Scan(&f.ID, &f.RecordID, &f.Tag, &f.Data, &kind); err != nil {
			return nil, fmt.Errorf("scanning field: %w", err)
		}
		f.Kind = domain.FieldKind(kind)
		fields = append(fields, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating fields: %w", err)
	}
	return fields, nil
}

// GetSubfields retrieves the subfield rows of a field in insertion order.
func (s *recordStore) GetSubfields(ctx context.Context, fieldID int64) ([]domain.SubfieldRow, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, field_id, code, data FROM subfields WHERE field_id = ? ORDER BY id
	`, fieldID)
	if err != nil {
		return nil, fmt.Errorf("querying subfields: %w", err)
	}
	defer rows.Close()

	var subfields []domain.SubfieldRow //nolint:prealloc // size unknown from query
	for rows.Next() {
		var sf domain.SubfieldRow
		if err := rows.Scan(&sf.ID, &sf.FieldID, &sf.Code, &sf.Data); err != nil {
			return nil, fmt.Errorf("scanning subfield: %w", err)
		}
		subfields = append(subfields, sf)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating subfields: %w", err)
	}
	return subfields, nil
}

// ==================== Duplicate Resolver ====================

// duplicateResolver implements driven.DuplicateResolver.
type duplicateResolver struct {
	store *Store
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
	row := r.store.db.QueryRowContext(ctx, `
		SELECT r.id, r.mod_date
		FROM records r
		LEFT JOIN files f ON f.id = r.file_id
		WHERE r.natural_key = ? AND r.type = ?
		  AND (f.institution_code = ? OR EXISTS (
			SELECT 1 FROM fields fd
			WHERE fd.record_id = r.id AND fd.kind = ? AND fd.tag = ? AND fd.data = ?
		  ))
		ORDER BY r.mod_date DESC, r.id DESC
		LIMIT 1
	`, naturalKey, int(recType), institutionCode,
		int(domain.FieldKindControl), domain.TagControlNumberIdentifier, institutionCode)

	var (
		id     int64
		stored float64
	)
	if err := row.Scan(&id, &stored); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
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
	store *Store
}

var _ driven.FileStore = (*fileStore)(nil)

// RegisterFile creates a file row.
func (s *fileStore) RegisterFile(ctx context.Context, path, institutionCode, runID string) (int64, error) {
	res, err := s.store.db.ExecContext(ctx, `
		INSERT INTO files (path, institution_code, run_id, started_at) VALUES (?, ?, ?, ?)
	`, path, institutionCode, runID, time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("registering file: %w", err)
	}
	return res.LastInsertId()
}

// FinishFile stores the final counters of a load.
func (s *fileStore) FinishFile(ctx context.Context, report *domain.LoadReport) error {
	finished := report.FinishedAt
	if finished.IsZero() {
		finished = time.Now()
	}

	res, err := s.store.db.ExecContext(ctx, `
		UPDATE files SET
			finished_at = ?, records = ?, inserted = ?, updated = ?, skipped = ?,
			missing_key = ?, failed = ?, holdings_stored = ?, holdings_skipped = ?,
			holdings_failed = ?, field_rows = ?, subfield_rows = ?, failed_rows = ?
		WHERE id = ?
	`, finished.UTC(), report.Records, report.Inserted, report.Updated, report.Skipped,
		report.MissingKey, report.Failed, report.HoldingsStored, report.HoldingsSkipped,
		report.HoldingsFailed, report.FieldRows, report.SubfieldRows, report.FailedRows, report.FileID)
	if err != nil {
		return fmt.Errorf("finishing file: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// nullID maps the zero id to NULL.
func nullID(id int64) sql.NullInt64 {
	return sql.NullInt64{Int64: id, Valid: id > 0}
}
