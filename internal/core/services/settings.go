package services

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/marc-importer/internal/core/domain"
	"github.com/custodia-labs/marc-importer/internal/core/ports/driven"
	"github.com/custodia-labs/marc-importer/internal/core/ports/driving"
	"github.com/custodia-labs/marc-importer/internal/logger"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
const (
	keyInstitutionCode     = "import.institution_code"
	keyHoldingsInstitution = "import.holdings_institution"
	keyHoldingStrategy     = "import.holding_strategy"
	keyStorageDriver       = "storage.driver"
	keyStorageDataDir      = "storage.data_dir"
	keyStorageDSN          = "storage.dsn"
	keyStorageMaxConns     = "storage.max_conns"
	keyWatchListenDir      = "watch.listen_dir"
	keyWatchArchiveDir     = "watch.archive_dir"
	keyWatchDebounce       = "watch.debounce_seconds"
	keyWatchFilesPerMinute = "watch.files_per_minute"
	keyLoggingLevel        = "logging.level"
	keyLoggingFile         = "logging.file"
)

// envDatabaseURL is consulted when no DSN is configured.
const envDatabaseURL = "DATABASE_URL"

// settingKeys lists every recognised key in display order.
var settingKeys = []string{
	keyInstitutionCode,
	keyHoldingsInstitution,
	keyHoldingStrategy,
	keyStorageDriver,
	keyStorageDataDir,
	keyStorageDSN,
	keyStorageMaxConns,
	keyWatchListenDir,
	keyWatchArchiveDir,
	keyWatchDebounce,
	keyWatchFilesPerMinute,
	keyLoggingLevel,
	keyLoggingFile,
}

// SettingsService manages application settings.
type SettingsService struct {
	configStore driven.ConfigStore
	baseDir     string
	getenv      func(string) string
}

// NewSettingsService creates a new settings service. Relative directory
// defaults are resolved against baseDir, or ~/.marcimport when empty.
func NewSettingsService(configStore driven.ConfigStore, baseDir string) *SettingsService {
	if baseDir == "" {
		if home, err := os.UserHomeDir(); err == nil {
			baseDir = filepath.Join(home, ".marcimport")
		}
	}
	return &SettingsService{
		configStore: configStore,
		baseDir:     baseDir,
		getenv:      os.Getenv,
	}
}

// Get retrieves current application settings. Invalid stored values
// fall back to their defaults.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	defaults := domain.DefaultAppSettings()

	listenDir := s.getPath(keyWatchListenDir, filepath.Join(s.baseDir, "listen"))

	dsn := s.configStore.GetString(keyStorageDSN)
	if dsn == "" {
		dsn = s.getenv(envDatabaseURL)
	}

	settings := &domain.AppSettings{
		Import: domain.ImportSettings{
			InstitutionCode:     s.getString(keyInstitutionCode, defaults.Import.InstitutionCode),
			HoldingsInstitution: s.getString(keyHoldingsInstitution, defaults.Import.HoldingsInstitution),
			HoldingStrategy:     s.getHoldingStrategy(defaults.Import.HoldingStrategy),
		},
		Storage: domain.StorageSettings{
			Driver:   s.getDriver(defaults.Storage.Driver),
			DataDir:  s.getPath(keyStorageDataDir, filepath.Join(s.baseDir, "data")),
			DSN:      dsn,
			MaxConns: s.getInt(keyStorageMaxConns, defaults.Storage.MaxConns),
		},
		Watch: domain.WatchSettings{
			ListenDir:      listenDir,
			ArchiveDir:     s.getPath(keyWatchArchiveDir, filepath.Join(listenDir, "processed")),
			Debounce:       s.getSeconds(keyWatchDebounce, defaults.Watch.Debounce),
			FilesPerMinute: s.getInt(keyWatchFilesPerMinute, defaults.Watch.FilesPerMinute),
		},
		Logging: domain.LoggingSettings{
			Level: s.getString(keyLoggingLevel, defaults.Logging.Level),
			File:  s.getPath(keyLoggingFile, ""),
		},
	}

	return settings, nil
}

// Set validates a single value and persists it in its typed form.
// An empty value for an optional text setting removes the key.
func (s *SettingsService) Set(key, value string) error {
	value = strings.TrimSpace(value)

	switch key {
	case keyInstitutionCode, keyHoldingsInstitution:
		if value == "" {
			return fmt.Errorf("%w: %s cannot be empty", domain.ErrInvalidInput, key)
		}
		return s.store(key, value)

	case keyHoldingStrategy:
		if !domain.HoldingStrategy(value).IsValid() {
			return fmt.Errorf("%w: holding strategy %q (want subfield, field or both)",
				domain.ErrInvalidInput, value)
		}
		return s.store(key, value)

	case keyStorageDriver:
		if !domain.StorageDriver(value).IsValid() {
			return fmt.Errorf("%w: %q", domain.ErrUnsupportedDriver, value)
		}
		return s.store(key, value)

	case keyLoggingLevel:
		if _, err := logger.ParseLevel(value); err != nil {
			return fmt.Errorf("%w: %w", domain.ErrInvalidInput, err)
		}
		return s.store(key, strings.ToLower(value))

	case keyStorageMaxConns, keyWatchFilesPerMinute:
		n, err := strconv.Atoi(value)
		if err != nil || n < 1 {
			return fmt.Errorf("%w: %s must be a positive integer", domain.ErrInvalidInput, key)
		}
		return s.store(key, n)

	case keyWatchDebounce:
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 {
			return fmt.Errorf("%w: %s must be zero or more seconds", domain.ErrInvalidInput, key)
		}
		return s.store(key, n)

	case keyStorageDataDir, keyStorageDSN, keyWatchListenDir, keyWatchArchiveDir, keyLoggingFile:
		if value == "" {
			if err := s.configStore.Delete(key); err != nil {
				return fmt.Errorf("reset %s: %w", key, err)
			}
			return nil
		}
		return s.store(key, value)

	default:
		return fmt.Errorf("%w: %s", domain.ErrUnknownSetting, key)
	}
}

// Keys returns the recognised setting keys in display order.
func (s *SettingsService) Keys() []string {
	keys := make([]string, len(settingKeys))
	copy(keys, settingKeys)
	return keys
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

func (s *SettingsService) store(key string, value any) error {
	if err := s.configStore.Set(key, value); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

// Helper methods for reading config with defaults.

func (s *SettingsService) getString(key, defaultVal string) string {
	val := strings.TrimSpace(s.configStore.GetString(key))
	if val == "" {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getInt(key string, defaultVal int) int {
	val := s.configStore.GetInt(key)
	if val <= 0 {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getSeconds(key string, defaultVal time.Duration) time.Duration {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	val := s.configStore.GetInt(key)
	if val < 0 {
		return defaultVal
	}
	return time.Duration(val) * time.Second
}

// getPath expands a leading ~ in stored paths.
func (s *SettingsService) getPath(key, defaultVal string) string {
	val := s.getString(key, defaultVal)
	if val == "~" || strings.HasPrefix(val, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			val = filepath.Join(home, strings.TrimPrefix(val, "~"))
		}
	}
	return val
}

func (s *SettingsService) getHoldingStrategy(defaultVal domain.HoldingStrategy) domain.HoldingStrategy {
	strategy := domain.HoldingStrategy(s.configStore.GetString(keyHoldingStrategy))
	if !strategy.IsValid() {
		return defaultVal
	}
	return strategy
}

func (s *SettingsService) getDriver(defaultVal domain.StorageDriver) domain.StorageDriver {
	driver := domain.StorageDriver(s.configStore.GetString(keyStorageDriver))
	if !driver.IsValid() {
		return defaultVal
	}
	return driver
}
