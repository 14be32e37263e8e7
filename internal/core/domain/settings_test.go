package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestHoldingStrategy_IsValid tests all valid and invalid holding strategies
func TestHoldingStrategy_IsValid(t *testing.T) {
	tests := []struct {
		name     string
		strategy HoldingStrategy
		expected bool
	}{
		{name: "subfield is valid", strategy: HoldingStrategySubfield, expected: true},
		{name: "field is valid", strategy: HoldingStrategyField, expected: true},
		{name: "both is valid", strategy: HoldingStrategyBoth, expected: true},
		{name: "empty string is invalid", strategy: HoldingStrategy(""), expected: false},
		{name: "unknown strategy is invalid", strategy: HoldingStrategy("all"), expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.strategy.IsValid())
		})
	}
}

// TestHoldingStrategy_Collects tests which markers each strategy collects
func TestHoldingStrategy_Collects(t *testing.T) {
	tests := []struct {
		strategy  HoldingStrategy
		subfields bool
		field     bool
	}{
		{HoldingStrategySubfield, true, false},
		{HoldingStrategyField, false, true},
		{HoldingStrategyBoth, true, true},
		{HoldingStrategy("nope"), false, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.strategy), func(t *testing.T) {
			assert.Equal(t, tt.subfields, tt.strategy.CollectsSubfields())
			assert.Equal(t, tt.field, tt.strategy.CollectsField())
		})
	}
}

// TestHoldingStrategy_Description tests human-readable descriptions
func TestHoldingStrategy_Description(t *testing.T) {
	for _, s := range AllHoldingStrategies() {
		assert.NotEqual(t, unknownDescription, s.Description(), "strategy %s", s)
	}
	assert.Equal(t, unknownDescription, HoldingStrategy("x").Description())
}

func TestStorageDriver_IsValid(t *testing.T) {
	assert.True(t, StorageDriverSQLite.IsValid())
	assert.True(t, StorageDriverPostgres.IsValid())
	assert.False(t, StorageDriver("mysql").IsValid())
	assert.Equal(t, "sqlite", StorageDriverSQLite.String())
}

// TestDefaultAppSettings tests the default configuration values
func TestDefaultAppSettings(t *testing.T) {
	settings := DefaultAppSettings()

	assert.Equal(t, "estc", settings.Import.InstitutionCode)
	assert.Equal(t, "estc", settings.Import.HoldingsInstitution)
	assert.Equal(t, HoldingStrategySubfield, settings.Import.HoldingStrategy)
	assert.Equal(t, StorageDriverSQLite, settings.Storage.Driver)
	assert.Equal(t, 4, settings.Storage.MaxConns)
	assert.Empty(t, settings.Storage.DataDir)
	assert.Equal(t, 2*time.Second, settings.Watch.Debounce)
	assert.Equal(t, 60, settings.Watch.FilesPerMinute)
	assert.Equal(t, "info", settings.Logging.Level)
}

func TestAppSettings_Validate(t *testing.T) {
	assert.NoError(t, DefaultAppSettings().Validate())

	settings := DefaultAppSettings()
	settings.Import.InstitutionCode = ""
	settings.Import.HoldingStrategy = "all"
	settings.Storage.Driver = "mysql"
	settings.Watch.FilesPerMinute = 0

	err := settings.Validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.ErrorIs(t, err, ErrUnsupportedDriver)
	assert.Contains(t, err.Error(), "holding strategy")
	assert.Contains(t, err.Error(), "files per minute")
}

func TestAppSettings_Validate_PostgresNeedsDSN(t *testing.T) {
	settings := DefaultAppSettings()
	settings.Storage.Driver = StorageDriverPostgres

	err := settings.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_URL")

	settings.Storage.DSN = "postgres://localhost/marc"
	assert.NoError(t, settings.Validate())
}
