package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ddmr2811/Facturas/internal/models"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "tables.yaml", cfg.TablesPath)
	assert.Equal(t, 24*time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, "facturas", cfg.Storage.Bucket)
	assert.False(t, cfg.Storage.Enabled())
	assert.Equal(t, models.DefaultExtractionConfig(), cfg.Extraction)
}

func TestLoadFileAndEnv(t *testing.T) {
	path := writeFile(t, "config.yaml", `
port: 9000
host: 127.0.0.1
log_level: debug
auth:
  token_ttl: 2h
  users:
    - username: ana
      password_hash: "$2a$10$abc"
extraction:
  min_year: 2018
  cities: []
  keywords:
    water: [canal]
`)
	t.Setenv("PORT", "9100")
	t.Setenv("MINIO_ENDPOINT", "minio:9000")
	t.Setenv("MINIO_ACCESS_KEY", "key")
	t.Setenv("MINIO_SECRET_KEY", "secret")
	t.Setenv("MINIO_USE_SSL", "true")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9100, cfg.Port)
	assert.Equal(t, "127.0.0.1", cfg.Host)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 2*time.Hour, cfg.Auth.TokenTTL)
	require.Len(t, cfg.Auth.Users, 1)
	assert.True(t, cfg.Auth.Users[0].IsActive())
	assert.True(t, cfg.Storage.Enabled())
	assert.True(t, cfg.Storage.UseSSL)

	assert.Equal(t, 2018, cfg.Extraction.MinYear)
	assert.Equal(t, 2030, cfg.Extraction.MaxYear)
	assert.Equal(t, []string{"canal"}, cfg.Extraction.Keywords.Water)
	assert.Empty(t, cfg.Extraction.Cities)
	assert.Equal(t, []string{"RECONQUISTA"}, cfg.Extraction.PrimaryStreets)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = Load(writeFile(t, "bad.yaml", "port: [1"))
	assert.Error(t, err)

	_, err = Load(writeFile(t, "years.yaml", "extraction:\n  min_year: 2031\n"))
	assert.ErrorIs(t, err, ErrInvalidConfig)

	t.Setenv("PORT", "http")
	_, err = Load("")
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestLoadEnvFile(t *testing.T) {
	path := writeFile(t, ".env", "FACTURAS_TEST_VALUE=from-file\n")
	t.Setenv("FACTURAS_TEST_VALUE", "")
	os.Unsetenv("FACTURAS_TEST_VALUE")

	LoadEnv(path, filepath.Join(t.TempDir(), "absent.env"))
	assert.Equal(t, "from-file", os.Getenv("FACTURAS_TEST_VALUE"))
}
