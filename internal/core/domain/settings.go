package domain

import (
	"errors"
	"fmt"
	"time"
)

const unknownDescription = "Unknown"

// DefaultInstitutionCode is the MARC code of the originating catalog.
const DefaultInstitutionCode = "estc"

// HoldingStrategy selects which parts of an 852 field become holding markers.
type HoldingStrategy string

// Available holding strategies.
const (
	// HoldingStrategySubfield collects every 852 $a value.
	HoldingStrategySubfield HoldingStrategy = "subfield"

	// HoldingStrategyField collects the rendered 852 field once per field.
	HoldingStrategyField HoldingStrategy = "field"

	// HoldingStrategyBoth collects $a values followed by the rendered field.
	HoldingStrategyBoth HoldingStrategy = "both"
)

// IsValid returns true if the strategy is recognised.
func (s HoldingStrategy) IsValid() bool {
	switch s {
	case HoldingStrategySubfield, HoldingStrategyField, HoldingStrategyBoth:
		return true
	default:
		return false
	}
}

// CollectsSubfields reports whether 852 $a values are collected.
func (s HoldingStrategy) CollectsSubfields() bool {
	return s == HoldingStrategySubfield || s == HoldingStrategyBoth
}

// CollectsField reports whether the rendered 852 field is collected.
func (s HoldingStrategy) CollectsField() bool {
	return s == HoldingStrategyField || s == HoldingStrategyBoth
}

// String returns the string representation.
func (s HoldingStrategy) String() string {
	return string(s)
}

// Description returns a human-readable description of the strategy.
func (s HoldingStrategy) Description() string {
	switch s {
	case HoldingStrategySubfield:
		return "Subfield (one holding per 852 $a)"
	case HoldingStrategyField:
		return "Field (one holding per 852 field)"
	case HoldingStrategyBoth:
		return "Both (852 $a values and the full field)"
	default:
		return unknownDescription
	}
}

// AllHoldingStrategies returns all available holding strategies.
func AllHoldingStrategies() []HoldingStrategy {
	return []HoldingStrategy{
		HoldingStrategySubfield,
		HoldingStrategyField,
		HoldingStrategyBoth,
	}
}

// StorageDriver identifies a storage backend.
type StorageDriver string

// Available storage drivers.
const (
	// StorageDriverSQLite is the embedded default.
	StorageDriverSQLite StorageDriver = "sqlite"

	// StorageDriverPostgres is a PostgreSQL server.
	StorageDriverPostgres StorageDriver = "postgres"
)

// IsValid returns true if the driver is recognised.
func (d StorageDriver) IsValid() bool {
	return d == StorageDriverSQLite || d == StorageDriverPostgres
}

// String returns the string representation.
func (d StorageDriver) String() string {
	return string(d)
}

// ImportSettings controls how records are classified and stored.
type ImportSettings struct {
	// InstitutionCode is used when a load does not name one.
	InstitutionCode string

	// HoldingsInstitution is the code whose records spawn holding records.
	HoldingsInstitution string

	// HoldingStrategy selects the 852 marker extraction.
	HoldingStrategy HoldingStrategy
}

// StorageSettings selects and configures the storage backend.
type StorageSettings struct {
	Driver StorageDriver

	// DataDir holds the sqlite database.
	DataDir string

	// DSN is the postgres connection string.
	DSN string

	// MaxConns bounds the postgres pool.
	MaxConns int
}

// WatchSettings configures the listen-directory daemon.
type WatchSettings struct {
	ListenDir  string
	ArchiveDir string

	// Debounce suppresses repeated events for the same file.
	Debounce time.Duration

	// FilesPerMinute throttles how fast files are picked up.
	FilesPerMinute int
}

// LoggingSettings configures the package logger.
type LoggingSettings struct {
	Level string

	// File redirects log output when set.
	File string
}

// AppSettings holds all application settings.
type AppSettings struct {
	Import  ImportSettings
	Storage StorageSettings
	Watch   WatchSettings
	Logging LoggingSettings
}

// DefaultAppSettings returns settings with sensible defaults.
// Directory settings are left empty and resolved against the
// user's home directory by the settings service.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		Import: ImportSettings{
			InstitutionCode:     DefaultInstitutionCode,
			HoldingsInstitution: DefaultInstitutionCode,
			HoldingStrategy:     HoldingStrategySubfield,
		},
		Storage: StorageSettings{
			Driver:   StorageDriverSQLite,
			MaxConns: 4,
		},
		Watch: WatchSettings{
			Debounce:       2 * time.Second,
			FilesPerMinute: 60,
		},
		Logging: LoggingSettings{
			Level: "info",
		},
	}
}

// Validate checks the settings as a whole and reports every problem found.
func (s AppSettings) Validate() error {
	var errs []error
	if s.Import.InstitutionCode == "" {
		errs = append(errs, fmt.Errorf("%w: institution code is empty", ErrInvalidInput))
	}
	if !s.Import.HoldingStrategy.IsValid() {
		errs = append(errs, fmt.Errorf("%w: holding strategy %q", ErrInvalidInput, s.Import.HoldingStrategy))
	}
	if !s.Storage.Driver.IsValid() {
		errs = append(errs, fmt.Errorf("%w: %q", ErrUnsupportedDriver, s.Storage.Driver))
	}
	if s.Storage.Driver == StorageDriverPostgres && s.Storage.DSN == "" {
		errs = append(errs, fmt.Errorf("%w: postgres requires storage.dsn or DATABASE_URL", ErrInvalidInput))
	}
	if s.Storage.MaxConns < 1 {
		errs = append(errs, fmt.Errorf("%w: max connections must be positive", ErrInvalidInput))
	}
	if s.Watch.FilesPerMinute < 1 {
		errs = append(errs, fmt.Errorf("%w: files per minute must be positive", ErrInvalidInput))
	}
	return errors.Join(errs...)
}
