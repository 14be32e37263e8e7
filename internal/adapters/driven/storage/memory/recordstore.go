package memory

import (
	"context"
	"sync"

	"github.com/custodia-labs/marc-importer/internal/core/domain"
	"github.com/custodia-labs/marc-importer/internal/core/ports/driven"
)

// Ensure RecordStore implements the interfaces.
var (
	_ driven.RecordStore       = (*RecordStore)(nil)
	_ driven.RecordQuerier     = (*RecordStore)(nil)
	_ driven.DuplicateResolver = (*RecordStore)(nil)
	_ driven.FileStore         = (*RecordStore)(nil)
)

// RecordStore is an in-memory implementation of the record storage ports.
// It backs dry runs, so it resolves duplicates the same way the SQL stores do.
type RecordStore struct {
	mu        sync.RWMutex
	nextID    int64
	files     map[int64]fileEntry
	records   map[int64]domain.StoredRecord
	fields    map[int64][]domain.FieldRow
	subfields map[int64][]domain.SubfieldRow
}

type fileEntry struct {
	path            string
	institutionCode string
	runID           string
	report          *domain.LoadReport
}

// NewRecordStore creates a new in-memory record store.
func NewRecordStore() *RecordStore {
	return &RecordStore{
		files:     make(map[int64]fileEntry),
		records:   make(map[int64]domain.StoredRecord),
		fields:    make(map[int64][]domain.FieldRow),
		subfields: make(map[int64][]domain.SubfieldRow),
	}
}

// id hands out the next identifier (caller must hold lock).
func (s *RecordStore) id() int64 {
	s.nextID++
	return s.nextID
}

// RegisterFile creates a file entry.
func (s *RecordStore) RegisterFile(_ context.Context, path, institutionCode, runID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.id()
	s.files[id] = fileEntry{path: path, institutionCode: institutionCode, runID: runID}
	return id, nil
}

// FinishFile stores the final counters of a load.
func (s *RecordStore) FinishFile(_ context.Context, report *domain.LoadReport) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.files[report.FileID]
	if !ok {
		return domain.ErrNotFound
	}
	r := *report
	entry.report = &r
	s.files[report.FileID] = entry
	return nil
}

// InsertRecord creates a record.
func (s *RecordStore) InsertRecord(
	_ context.Context,
	fileID int64,
	recType domain.RecordType,
	naturalKey string,
	modDate float64,
) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.id()
	s.records[id] = domain.StoredRecord{
		ID:         id,
		FileID:     fileID,
		Type:       recType,
		NaturalKey: naturalKey,
		ModDate:    modDate,
	}
	return id, nil
}

// ResetRecord drops the rows of a record and stores its new date.
func (s *RecordStore) ResetRecord(_ context.Context, recordID int64, modDate float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[recordID]
	if !ok {
		return domain.ErrNotFound
	}
	rec.ModDate = modDate
	s.records[recordID] = rec

	for _, f := range s.fields[recordID] {
		delete(s.subfields, f.ID)
	}
	delete(s.fields, recordID)
	return nil
}

// InsertField stores a field row.
func (s *RecordStore) InsertField(
	_ context.Context,
	recordID int64,
	tag, data string,
	kind domain.FieldKind,
) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[recordID]; !ok {
		return 0, domain.ErrNotFound
	}
	id := s.id()
	s.fields[recordID] = append(s.fields[recordID], domain.FieldRow{
		ID:       id,
		RecordID: recordID,
		Tag:      tag,
		Data:     data,
		Kind:     kind,
	})
	return id, nil
}

// InsertSubfield stores a subfield row.
func (s *RecordStore) InsertSubfield(_ context.Context, fieldID int64, code, data string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.id()
	s.subfields[fieldID] = append(s.subfields[fieldID], domain.SubfieldRow{
		ID:      id,
		FieldID: fieldID,
		Code:    code,
		Data:    data,
	})
	return id, nil
}

// Resolve finds the newest record with the same key and type that was
// loaded under the institution code or carries it in 003.
func (s *RecordStore) Resolve(
	_ context.Context,
	institutionCode, naturalKey string,
	modDate float64,
	recType domain.RecordType,
) (domain.DuplicateDecision, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		best  domain.StoredRecord
		found bool
	)
	for _, rec := range s.records {
		if rec.NaturalKey != naturalKey || rec.Type != recType {
			continue
		}
		if !s.belongsTo(rec, institutionCode) {
			continue
		}
		if !found || rec.ModDate > best.ModDate || (rec.ModDate == best.ModDate && rec.ID > best.ID) {
			best = rec
			found = true
		}
	}

	switch {
	case !found:
		return domain.InsertDecision(), nil
	case best.ModDate >= modDate:
		return domain.SkipDecision(), nil
	default:
		return domain.UpdateDecision(best.ID), nil
	}
}

// belongsTo reports whether a record was loaded under, or is stamped
// with, the institution code (caller must hold lock).
func (s *RecordStore) belongsTo(rec domain.StoredRecord, institutionCode string) bool {
	if f, ok := s.files[rec.FileID]; ok && f.institutionCode == institutionCode {
		return true
	}
	for _, f := range s.fields[rec.ID] {
		if f.Kind == domain.FieldKindControl && f.Tag == domain.TagControlNumberIdentifier && f.Data == institutionCode {
			return true
		}
	}
	return false
}

// GetRecord retrieves a record by ID.
func (s *RecordStore) GetRecord(_ context.Context, id int64) (*domain.StoredRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &rec, nil
}

// GetFields retrieves the field rows of a record.
func (s *RecordStore) GetFields(_ context.Context, recordID int64) ([]domain.FieldRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows := s.fields[recordID]
	out := make([]domain.FieldRow, len(rows))
	copy(out, rows)
	return out, nil
}

// GetSubfields retrieves the subfield rows of a field.
func (s *RecordStore) GetSubfields(_ context.Context, fieldID int64) ([]domain.SubfieldRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows := s.subfields[fieldID]
	out := make([]domain.SubfieldRow, len(rows))
	copy(out, rows)
	return out, nil
}

// Count returns the number of stored records.
func (s *RecordStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Report returns the finished report of a file, if any.
func (s *RecordStore) Report(fileID int64) (*domain.LoadReport, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.files[fileID]
	if !ok || entry.report == nil {
		return nil, false
	}
	return entry.report, true
}
