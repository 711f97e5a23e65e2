package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg := Load()
	require.NotNil(t, cfg)

	assert.Equal(t, "08358400", cfg.SiteID)
	assert.Equal(t, "00060", cfg.ParameterCode)
	assert.Equal(t, 30, cfg.WindowDays)
	assert.Equal(t, "rio_grande_data.csv", cfg.CSVOutputPath)
	assert.Equal(t, "water_summary.json", cfg.JSONOutputPath)
	assert.Equal(t, ArchiveNone, cfg.ArchiveBackend)
	assert.NoError(t, cfg.Validate())
}

func TestLoadWithEnvOverride(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("USGS_SITE_ID", "09380000")
	t.Setenv("USGS_PARAMETER_CODE", "00065")
	t.Setenv("USGS_WINDOW_DAYS", "7")
	t.Setenv("ARCHIVE_BACKEND", "SQLite")
	t.Setenv("HTTP_TIMEOUT_SEC", "not-a-number")

	cfg := Load()

	assert.Equal(t, "09380000", cfg.SiteID)
	assert.Equal(t, "00065", cfg.ParameterCode)
	assert.Equal(t, 7, cfg.WindowDays)
	assert.Equal(t, ArchiveSQLite, cfg.ArchiveBackend)
	assert.Equal(t, 0, cfg.HTTPTimeout, "unparseable ints fall back to the default")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"defaults", func(c *Config) {}, ""},
		{"empty site", func(c *Config) { c.SiteID = " " }, "config: site id is empty"},
		{"empty parameter", func(c *Config) { c.ParameterCode = "" }, "config: parameter code is empty"},
		{"zero window", func(c *Config) { c.WindowDays = 0 }, "config: window days must be positive, got 0"},
		{"negative timeout", func(c *Config) { c.HTTPTimeout = -1 }, "config: http timeout must not be negative, got -1"},
		{"unknown archive", func(c *Config) { c.ArchiveBackend = "mongo" }, `config: unknown archive backend "mongo"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.EqualError(t, err, tt.wantErr)
		})
	}
}

func TestDSN(t *testing.T) {
	cfg := Default()
	cfg.PostgresPassword = "secret"
	assert.Equal(t,
		"host=localhost port=5432 user=water password=secret dbname=streamflow sslmode=disable",
		cfg.DSN())
}

// chdir mirrors testing.T.Chdir (Go 1.24+) for older toolchains: it changes
// the working directory and restores it when the test finishes.
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(old) })
}
