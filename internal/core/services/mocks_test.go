package services

import (
	"context"
	"errors"
	"sync"

	"github.com/custodia-labs/marc-importer/internal/core/domain"
	"github.com/custodia-labs/marc-importer/internal/core/ports/driven"
	"github.com/custodia-labs/marc-importer/internal/core/ports/driving"
)

// --- Mock implementations for pipeline testing ---

// mockRecordStore implements driven.RecordStore and driven.DuplicateResolver.
// Resolution follows the stored rows: same key and type, loaded under the
// institution or stamped with it in 003, newest wins.
type mockRecordStore struct {
	mu        sync.Mutex
	nextID    int64
	records   map[int64]*mockRecord
	fields    []domain.FieldRow
	subfields []domain.SubfieldRow

	insertRecordErr error
	resetCalls      []int64
	resolveCalls    int
	resolveErr      error
	forced          *domain.DuplicateDecision
	lastCode        string

	// failField fails the field write when it returns true.
	failField func(tag, data string) bool
	// failSubfield fails the subfield write when it returns true.
	failSubfield func(code, data string) bool
}

type mockRecord struct {
	stored domain.StoredRecord
	codes  map[string]bool
}

// Ensure mocks implement the interfaces.
var (
	_ driven.RecordStore       = (*mockRecordStore)(nil)
	_ driven.DuplicateResolver = (*mockRecordStore)(nil)
	_ driven.FileStore         = (*mockFileStore)(nil)
	_ driven.RecordReader      = (*mockReader)(nil)
	_ driven.ListenDirectory   = (*mockListenDir)(nil)
	_ driving.MarcLoader       = (*mockLoader)(nil)
)

func newMockRecordStore() *mockRecordStore {
	return &mockRecordStore{records: make(map[int64]*mockRecord)}
}

func (m *mockRecordStore) id() int64 {
	m.nextID++
	return m.nextID
}

func (m *mockRecordStore) Resolve(
	_ context.Context,
	institutionCode, naturalKey string,
	modDate float64,
	recType domain.RecordType,
) (domain.DuplicateDecision, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resolveCalls++
	m.lastCode = institutionCode
	if m.resolveErr != nil {
		return domain.DuplicateDecision{}, m.resolveErr
	}
	if m.forced != nil {
		return *m.forced, nil
	}

	var best *mockRecord
	for _, r := range m.records {
		if r.stored.NaturalKey != naturalKey || r.stored.Type != recType || !r.codes[institutionCode] {
			continue
		}
		if best == nil || r.stored.ModDate > best.stored.ModDate {
			best = r
		}
	}
	switch {
	case best == nil:
		return domain.InsertDecision(), nil
	case best.stored.ModDate >= modDate:
		return domain.SkipDecision(), nil
	default:
		return domain.UpdateDecision(best.stored.ID), nil
	}
}

func (m *mockRecordStore) InsertRecord(
	_ context.Context,
	fileID int64,
	recType domain.RecordType,
	naturalKey string,
	modDate float64,
) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.insertRecordErr != nil {
		return 0, m.insertRecordErr
	}
	id := m.id()
	m.records[id] = &mockRecord{stored: domain.StoredRecord{
		ID:         id,
		FileID:     fileID,
		Type:       recType,
		NaturalKey: naturalKey,
		ModDate:    modDate,
	}, codes: map[string]bool{m.lastCode: true}}
	return id, nil
}

func (m *mockRecordStore) ResetRecord(_ context.Context, recordID int64, modDate float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resetCalls = append(m.resetCalls, recordID)
	r, ok := m.records[recordID]
	if !ok {
		return domain.ErrNotFound
	}
	r.stored.ModDate = modDate

	dropped := make(map[int64]bool)
	kept := m.fields[:0]
	for _, f := range m.fields {
		if f.RecordID == recordID {
			dropped[f.ID] = true
			continue
		}
		kept = append(kept, f)
	}
	m.fields = kept

	keptSubs := m.subfields[:0]
	for _, s := range m.subfields {
		if !dropped[s.FieldID] {
			keptSubs = append(keptSubs, s)
		}
	}
	m.subfields = keptSubs
	return nil
}

func (m *mockRecordStore) InsertField(
	_ context.Context,
	recordID int64,
	tag, data string,
	kind domain.FieldKind,
) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failField != nil && m.failField(tag, data) {
		return 0, errors.New("field write failed")
	}
	id := m.id()
	m.fields = append(m.fields, domain.FieldRow{ID: id, RecordID: recordID, Tag: tag, Data: data, Kind: kind})
	if r, ok := m.records[recordID]; ok && tag == domain.TagControlNumberIdentifier {
		r.codes[data] = true
	}
	return id, nil
}

func (m *mockRecordStore) InsertSubfield(_ context.Context, fieldID int64, code, data string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failSubfield != nil && m.failSubfield(code, data) {
		return -1, nil
	}
	id := m.id()
	m.subfields = append(m.subfields, domain.SubfieldRow{ID: id, FieldID: fieldID, Code: code, Data: data})
	return id, nil
}

// fieldsFor returns the field rows of one record in write order.
func (m *mockRecordStore) fieldsFor(recordID int64) []domain.FieldRow {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.FieldRow
	for _, f := range m.fields {
		if f.RecordID == recordID {
			out = append(out, f)
		}
	}
	return out
}

// recordsOfType returns stored records of the given type.
func (m *mockRecordStore) recordsOfType(t domain.RecordType) []domain.StoredRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.StoredRecord
	for _, r := range m.records {
		if r.stored.Type == t {
			out = append(out, r.stored)
		}
	}
	return out
}

// mockFileStore implements driven.FileStore for testing.
type mockFileStore struct {
	registered  []string
	finished    []domain.LoadReport
	registerErr error
}

func (m *mockFileStore) RegisterFile(_ context.Context, path, _, _ string) (int64, error) {
	if m.registerErr != nil {
		return 0, m.registerErr
	}
	m.registered = append(m.registered, path)
	return int64(len(m.registered)), nil
}

func (m *mockFileStore) FinishFile(_ context.Context, report *domain.LoadReport) error {
	m.finished = append(m.finished, *report)
	return nil
}

// mockReader implements driven.RecordReader over a fixed record list.
// A nil record in the list is returned as a decode error.
type mockReader struct {
	records []*domain.RawRecord
	pos     int
	closed  bool
}

func (r *mockReader) HasNext() bool { return r.pos < len(r.records) }

func (r *mockReader) Next() (*domain.RawRecord, error) {
	rec := r.records[r.pos]
	r.pos++
	if rec == nil {
		return nil, domain.ErrMalformedRecord
	}
	return rec, nil
}

func (r *mockReader) Close() error {
	r.closed = true
	return nil
}

// mockOpener implements driven.RecordSourceOpener for testing.
type mockOpener struct {
	files   map[string][]*domain.RawRecord
	readers []*mockReader
}

func (o *mockOpener) Open(path string) (driven.RecordReader, error) {
	records, ok := o.files[path]
	if !ok {
		return nil, errors.New("no such file")
	}
	r := &mockReader{records: records}
	o.readers = append(o.readers, r)
	return r, nil
}

// mockListenDir implements driven.ListenDirectory for testing.
type mockListenDir struct {
	mu       sync.Mutex
	events   chan string
	archived []string
	eventErr error
}

func (d *mockListenDir) Events(_ context.Context) (<-chan string, error) {
	if d.eventErr != nil {
		return nil, d.eventErr
	}
	return d.events, nil
}

func (d *mockListenDir) Archive(path string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.archived = append(d.archived, path)
	return nil
}

func (d *mockListenDir) Close() error { return nil }

func (d *mockListenDir) archivedPaths() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.archived...)
}

// mockLoader implements driving.MarcLoader for testing.
type mockLoader struct {
	mu       sync.Mutex
	requests []driving.LoadRequest
	errs     map[string]error
}

func (l *mockLoader) LoadFile(_ context.Context, req driving.LoadRequest) (*domain.LoadReport, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.requests = append(l.requests, req)
	if err := l.errs[req.Path]; err != nil {
		return nil, err
	}
	return &domain.LoadReport{Path: req.Path, InstitutionCode: req.InstitutionCode, Records: 1}, nil
}

// --- Record builders ---

func controls(kv ...string) []domain.ControlField {
	out := make([]domain.ControlField, 0, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		out = append(out, domain.ControlField{Tag: kv[i], Data: kv[i+1]})
	}
	return out
}

func holdingField(locations ...string) domain.DataField {
	df := domain.DataField{Tag: domain.TagLocation, Ind1: '0', Ind2: ' '}
	for _, loc := range locations {
		df.Subfields = append(df.Subfields, domain.Subfield{Code: 'a', Data: loc})
	}
	return df
}

func titleField(title string) domain.DataField {
	return domain.DataField{
		Tag:  "245",
		Ind1: '1',
		Ind2: '0',
		Subfields: []domain.Subfield{
			{Code: 'a', Data: title},
			{Code: 'c', Data: "Anon."},
		},
	}
}
