package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/UnknownOlympus/usermap/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func TestMustLoad(t *testing.T) {
	path := writeConfig(t, `
env: local
bot_token: test-token
map_url: https://example.com/map
export_file: /var/lib/usermap/locations.csv
lang: de
geocoder:
  provider: dstk
  base_url: http://dstk.example.com
  rate_limit: 10
postgres:
  host: testHost
  port: "12345"
  user: admin
  password: adminpass
  db_name: testName
`)
	t.Setenv("USERMAP_CONFIG", path)

	cfg := config.MustLoad()

	assert.Equal(t, "local", cfg.Env)
	assert.Equal(t, "test-token", cfg.BotToken)
	assert.Equal(t, "https://example.com/map", cfg.MapURL)
	assert.Equal(t, "/var/lib/usermap/locations.csv", cfg.ExportFile)
	assert.Equal(t, "de", cfg.Lang)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "dstk", cfg.Geocoder.Provider)
	assert.Equal(t, "http://dstk.example.com", cfg.Geocoder.BaseURL)
	assert.Equal(t, 10, cfg.Geocoder.RateLimit)
	assert.Equal(t, "testHost", cfg.Database.Host)
	assert.Equal(t, "12345", cfg.Database.Port)
	assert.Equal(t, "admin", cfg.Database.User)
	assert.Equal(t, "adminpass", cfg.Database.Password)
	assert.Equal(t, "testName", cfg.Database.Name)
}

func TestMustLoad_MissingArtifact(t *testing.T) {
	t.Setenv("USERMAP_CONFIG", filepath.Join(t.TempDir(), "does-not-exist.yaml"))

	assert.Panics(t, func() {
		config.MustLoad()
	})
}

func TestMustLoad_MissingBotToken(t *testing.T) {
	path := writeConfig(t, `
export_file: locations.csv
`)
	t.Setenv("USERMAP_CONFIG", path)

	assert.Panics(t, func() {
		config.MustLoad()
	})
}

func TestMustLoad_UnsupportedExportSuffix(t *testing.T) {
	path := writeConfig(t, `
bot_token: test-token
export_file: locations.xml
`)
	t.Setenv("USERMAP_CONFIG", path)

	assert.Panics(t, func() {
		config.MustLoad()
	})
}
