package cli

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/custodia-labs/marc-importer/internal/core/domain"
	"github.com/custodia-labs/marc-importer/internal/core/ports/driving"
)

// mockApp implements App for testing.
type mockApp struct {
	settings  *mockSettingsService
	loader    *mockLoader
	inspector *mockInspector
	listener  *mockListener

	loaderErr error
	dryRun    bool
	closed    bool
}

func newMockApp() *mockApp {
	defaults := domain.DefaultAppSettings()
	defaults.Storage.DataDir = "/srv/marc/data"
	defaults.Watch.ListenDir = "/srv/marc/listen"
	defaults.Watch.ArchiveDir = "/srv/marc/listen/processed"
	return &mockApp{
		settings:  &mockSettingsService{settings: defaults, values: make(map[string]string)},
		loader:    &mockLoader{errs: make(map[string]error)},
		inspector: &mockInspector{},
		listener:  &mockListener{},
	}
}

func (a *mockApp) Settings() driving.SettingsService { return a.settings }

func (a *mockApp) Loader(_ context.Context, dryRun bool) (driving.MarcLoader, error) {
	a.dryRun = dryRun
	if a.loaderErr != nil {
		return nil, a.loaderErr
	}
	return a.loader, nil
}

func (a *mockApp) Inspector() driving.RecordInspector { return a.inspector }

func (a *mockApp) Listener(_ context.Context) (driving.Listener, error) { return a.listener, nil }

func (a *mockApp) Close() error {
	a.closed = true
	return nil
}

// mockSettingsService implements driving.SettingsService for testing.
type mockSettingsService struct {
	settings domain.AppSettings
	values   map[string]string
}

func (s *mockSettingsService) Get() (*domain.AppSettings, error) {
	settings := s.settings
	return &settings, nil
}

func (s *mockSettingsService) Set(key, value string) error {
	if key == "storage.driver" && value != "sqlite" && value != "postgres" {
		return domain.ErrUnsupportedDriver
	}
	s.values[key] = value
	return nil
}

func (s *mockSettingsService) Keys() []string {
	return []string{"import.institution_code", "storage.driver"}
}

func (s *mockSettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

// mockLoader implements driving.MarcLoader for testing.
type mockLoader struct {
	requests []driving.LoadRequest
	errs     map[string]error
}

func (l *mockLoader) LoadFile(_ context.Context, req driving.LoadRequest) (*domain.LoadReport, error) {
	l.requests = append(l.requests, req)
	if err := l.errs[req.Path]; err != nil {
		return nil, err
	}
	code := req.InstitutionCode
	if code == "" {
		code = "estc"
	}
	return &domain.LoadReport{
		RunID:           "run-1",
		Path:            req.Path,
		InstitutionCode: code,
		Records:         3,
		Inserted:        2,
		Skipped:         1,
		HoldingsStored:  4,
		FieldRows:       12,
		SubfieldRows:    20,
	}, nil
}

// mockInspector implements driving.RecordInspector for testing.
type mockInspector struct {
	summaries []domain.RecordSummary
	err       error
}

func (i *mockInspector) InspectFile(_ context.Context, _, _ string) ([]domain.RecordSummary, error) {
	return i.summaries, i.err
}

// mockListener implements driving.Listener for testing.
type mockListener struct {
	err error
	ran bool
}

func (l *mockListener) Run(_ context.Context) error {
	l.ran = true
	return l.err
}

// setupCLITest installs app as the application and resets command flags.
func setupCLITest(t *testing.T, a App) *bytes.Buffer {
	t.Helper()
	oldFactory, oldApp := newApp, app
	newApp = func(string) (App, error) { return a, nil }
	app = nil
	loadInstitution, loadDryRun, inspectInstitution = "", false, ""
	configDir, verbose = "", false

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	t.Cleanup(func() {
		newApp, app = oldFactory, oldApp
		rootCmd.SetArgs(nil)
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
	})
	return buf
}

func execute(args ...string) error {
	rootCmd.SetArgs(args)
	return rootCmd.ExecuteContext(context.Background())
}

var errBoom = errors.New("boom")
