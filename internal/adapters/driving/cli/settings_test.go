package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/marc-importer/internal/core/domain"
)

func TestSettingsCmd_Show(t *testing.T) {
	a := newMockApp()
	buf := setupCLITest(t, a)

	require.NoError(t, execute("settings"))

	out := buf.String()
	assert.Contains(t, out, "[Import]")
	assert.Contains(t, out, "Institution: estc")
	assert.Contains(t, out, "Driver: sqlite")
	assert.Contains(t, out, "Data dir: /srv/marc/data")
	assert.Contains(t, out, "DSN: (not set)")
	assert.Contains(t, out, "Listen dir: /srv/marc/listen")
	assert.Contains(t, out, "File: (stderr)")
	assert.NotContains(t, out, "Warning")
}

func TestSettingsCmd_ShowWarnsOnInvalid(t *testing.T) {
	a := newMockApp()
	a.settings.settings.Storage.Driver = domain.StorageDriverPostgres
	buf := setupCLITest(t, a)

	require.NoError(t, execute("settings", "show"))
	assert.Contains(t, buf.String(), "Warning:")
	assert.Contains(t, buf.String(), "DATABASE_URL")
}

func TestSettingsCmd_Set(t *testing.T) {
	a := newMockApp()
	buf := setupCLITest(t, a)

	require.NoError(t, execute("settings", "set", "storage.driver", "postgres"))
	assert.Equal(t, "postgres", a.settings.values["storage.driver"])
	assert.Contains(t, buf.String(), `storage.driver set to "postgres"`)
}

func TestSettingsCmd_SetInvalid(t *testing.T) {
	a := newMockApp()
	setupCLITest(t, a)

	err := execute("settings", "set", "storage.driver", "oracle")
	assert.ErrorIs(t, err, domain.ErrUnsupportedDriver)
}

func TestSettingsCmd_SetNeedsTwoArgs(t *testing.T) {
	setupCLITest(t, newMockApp())
	assert.Error(t, execute("settings", "set", "storage.driver"))
}

func TestMaskDSN(t *testing.T) {
	tests := []struct {
		name string
		dsn  string
		want string
	}{
		{"empty", "", "(not set)"},
		{"url with password", "postgres://marc:secret@db:5432/marc", "postgres://marc:****@db:5432/marc"},
		{"url without password", "postgres://marc@db/marc", "postgres://marc@db/marc"},
		{"url without user", "postgres://db/marc", "postgres://db/marc"},
		{"keyword form", "host=db password=secret", "****"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, maskDSN(tt.dsn))
		})
	}
}
