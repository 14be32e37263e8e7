package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/custodia-labs/marc-importer/internal/adapters/driven/config/file"
	"github.com/custodia-labs/marc-importer/internal/adapters/driven/listendir"
	"github.com/custodia-labs/marc-importer/internal/adapters/driven/marc/iso2709"
	"github.com/custodia-labs/marc-importer/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/marc-importer/internal/adapters/driven/storage/postgres"
	"github.com/custodia-labs/marc-importer/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/marc-importer/internal/adapters/driving/cli"
	"github.com/custodia-labs/marc-importer/internal/core/domain"
	"github.com/custodia-labs/marc-importer/internal/core/ports/driven"
	"github.com/custodia-labs/marc-importer/internal/core/ports/driving"
	"github.com/custodia-labs/marc-importer/internal/core/services"
	"github.com/custodia-labs/marc-importer/internal/logger"
)

// Ensure app implements the interface.
var _ cli.App = (*app)(nil)

// backend is what the sqlite and postgres stores have in common.
type backend interface {
	RecordStore() driven.RecordStore
	DuplicateResolver() driven.DuplicateResolver
	FileStore() driven.FileStore
	Close() error
}

// app wires adapters to services for the command line.
type app struct {
	settingsService *services.SettingsService
	settings        *domain.AppSettings
	opener          *iso2709.Opener

	mu      sync.Mutex
	store   backend
	watcher *listendir.Watcher
	logFile *os.File
}

// newApp reads the configuration in configDir and sets up logging.
// Storage is opened on first use.
func newApp(configDir string) (cli.App, error) {
	configStore, err := file.NewConfigStore(configDir)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	settingsService := services.NewSettingsService(configStore, filepath.Dir(configStore.Path()))
	settings, err := settingsService.Get()
	if err != nil {
		return nil, fmt.Errorf("read settings: %w", err)
	}

	a := &app{
		settingsService: settingsService,
		settings:        settings,
		opener:          iso2709.NewOpener(),
	}
	if err := a.configureLogging(); err != nil {
		return nil, err
	}
	return a, nil
}

func (a *app) configureLogging() error {
	level, err := logger.ParseLevel(a.settings.Logging.Level)
	if err != nil {
		return err
	}
	logger.SetLevel(level)

	if a.settings.Logging.File == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(a.settings.Logging.File), 0o755); err != nil {
		return fmt.Errorf("create log directory: %w", err)
	}
	f, err := os.OpenFile(a.settings.Logging.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	a.logFile = f
	logger.SetOutput(f)
	return nil
}

// Settings returns the settings service.
func (a *app) Settings() driving.SettingsService {
	return a.settingsService
}

// Loader returns a loader over the configured store, or over a fresh
// in-memory store for dry runs.
func (a *app) Loader(ctx context.Context, dryRun bool) (driving.MarcLoader, error) {
	if dryRun {
		mem := memory.NewRecordStore()
		return services.NewMarcLoader(a.opener, mem, mem, mem, a.settings.Import), nil
	}

	store, err := a.openStore(ctx)
	if err != nil {
		return nil, err
	}
	return services.NewMarcLoader(
		a.opener,
		store.RecordStore(),
		store.DuplicateResolver(),
		store.FileStore(),
		a.settings.Import,
	), nil
}

// Inspector returns a record inspector. It never touches storage.
func (a *app) Inspector() driving.RecordInspector {
	return services.NewInspector(a.opener, a.settings.Import)
}

// Listener returns the listen-directory daemon over the configured store.
func (a *app) Listener(ctx context.Context) (driving.Listener, error) {
	loader, err := a.Loader(ctx, false)
	if err != nil {
		return nil, err
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.watcher == nil {
		w := a.settings.Watch
		a.watcher = listendir.New(w.ListenDir, w.ArchiveDir, w.Debounce)
	}
	return services.NewListener(
		a.watcher,
		loader,
		a.settings.Import.InstitutionCode,
		a.settings.Watch.FilesPerMinute,
	), nil
}

// openStore validates the settings and opens the configured backend once.
func (a *app) openStore(ctx context.Context) (backend, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.store != nil {
		return a.store, nil
	}

	if err := a.settings.Validate(); err != nil {
		return nil, fmt.Errorf("invalid settings: %w", err)
	}

	var (
		store backend
		err   error
	)
	switch a.settings.Storage.Driver {
	case domain.StorageDriverPostgres:
		store, err = postgres.NewStore(ctx, a.settings.Storage.DSN, a.settings.Storage.MaxConns)
	default:
		store, err = sqlite.NewStore(a.settings.Storage.DataDir)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", a.settings.Storage.Driver, err)
	}
	logger.Debug("Opened %s store", a.settings.Storage.Driver)
	a.store = store
	return store, nil
}

// Close stops the watcher and closes storage and the log file.
func (a *app) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	var errs []error
	if a.watcher != nil {
		errs = append(errs, a.watcher.Close())
		a.watcher = nil
	}
	if a.store != nil {
		errs = append(errs, a.store.Close())
		a.store = nil
	}
	if a.logFile != nil {
		logger.SetOutput(os.Stderr)
		errs = append(errs, a.logFile.Close())
		a.logFile = nil
	}
	return errors.Join(errs...)
}
