package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "./wftracker.db", cfg.DBPath)
	assert.Equal(t, SourceRemote, cfg.CatalogSource)
	assert.Zero(t, cfg.CatalogTimeout)
	assert.Equal(t, "wf-inventory-fixed", cfg.InventoryKey)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Contains(t, cfg.CatalogURL, "warframe-items")
	assert.Equal(t, []string{"http://localhost:*", "http://127.0.0.1:*"}, cfg.CORSOrigins)
}

func TestLoadFromEnv(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("PORT", "9000")
	t.Setenv("CATALOG_SOURCE", "cache")
	t.Setenv("CATALOG_TIMEOUT", "30s")
	t.Setenv("CORS_ORIGINS", "http://a.test,http://b.test")
	t.Setenv("LOG_DEVELOPMENT", "true")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, SourceCache, cfg.CatalogSource)
	assert.Equal(t, 30*time.Second, cfg.CatalogTimeout)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORSOrigins)
	assert.True(t, cfg.LogDevelopment)
}

func TestLoadRejectsBadValues(t *testing.T) {
	chdir(t, t.TempDir())

	t.Run("source", func(t *testing.T) {
		t.Setenv("CATALOG_SOURCE", "ftp")
		_, err := Load()
		assert.ErrorContains(t, err, "CATALOG_SOURCE")
	})

	t.Run("timeout", func(t *testing.T) {
		t.Setenv("CATALOG_TIMEOUT", "-1s")
		_, err := Load()
		assert.ErrorContains(t, err, "CATALOG_TIMEOUT")
	})

	t.Run("unparsable timeout", func(t *testing.T) {
		t.Setenv("CATALOG_TIMEOUT", "soon")
		_, err := Load()
		assert.Error(t, err)
	})
}

func TestLoadLogAndRefreshSettings(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("LOG_FILE", "/var/log/wftracker.log")
	t.Setenv("LOG_MAX_BACKUPS", "5")
	t.Setenv("CATALOG_REFRESH", "@every 6h")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "/var/log/wftracker.log", cfg.LogFile)
	assert.Equal(t, 10, cfg.LogMaxSizeMB)
	assert.Equal(t, 5, cfg.LogMaxBackups)
	assert.Equal(t, "@every 6h", cfg.CatalogRefresh)
}

// chdir changes the working directory for the duration of the test
// (stand-in for testing.T.Chdir, which requires Go 1.24)
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(prev) })
}
