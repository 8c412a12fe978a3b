package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"STOCKDASH_API_URL", "STOCKDASH_CACHE_DIR", "STOCKDASH_LOGIN", "STOCKDASH_PASSWORD",
		"STOCKDASH_DB_DRIVER", "STOCKDASH_DB", "PORT", "STOCKDASH_LOG_LEVEL",
	} {
		t.Setenv(k, "")
	}
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	require.NoError(t, err)

	assert.Equal(t, 60*time.Second, cfg.Client.SyncIntervalDuration())
	assert.Equal(t, 220*time.Millisecond, cfg.Client.AnimationDuration())
	assert.Equal(t, ":8000", cfg.Server.Addr())
	assert.Equal(t, "sqlite3", cfg.Server.DBDriver)
	assert.Equal(t, "1.0.0", cfg.LMS.Version)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[client]
api_url = "http://backend:9000"
sync_interval = 15

[server]
port = 9100
db_driver = "postgres"
db_dsn = "postgres://u:p@db/stockdash?sslmode=disable"

[lms.dashboard_screen]
sort_by = "volume"
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "http://backend:9000", cfg.Client.APIURL)
	assert.Equal(t, 15*time.Second, cfg.Client.SyncIntervalDuration())
	assert.Equal(t, 220, cfg.Client.AnimationMS, "unset keys keep defaults")
	assert.Equal(t, 9100, cfg.Server.Port)
	assert.Equal(t, "postgres", cfg.Server.DBDriver)
	assert.Equal(t, "volume", cfg.LMS.DashboardScreen.SortBy)
	assert.Equal(t, "compact", cfg.LMS.DashboardScreen.CardLayout)
}

func TestLoad_EnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("STOCKDASH_API_URL", "http://env:1")
	t.Setenv("STOCKDASH_CACHE_DIR", "/tmp/sd-cache")
	t.Setenv("STOCKDASH_DB", "/tmp/sd.db")
	t.Setenv("PORT", "8181")
	t.Setenv("STOCKDASH_LOG_LEVEL", "debug")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	require.NoError(t, err)
	assert.Equal(t, "http://env:1", cfg.Client.APIURL)
	assert.Equal(t, "/tmp/sd-cache", cfg.Client.CacheDir)
	assert.Equal(t, "/tmp/sd.db", cfg.Server.DBDSN)
	assert.Equal(t, 8181, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoad_Invalid(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()

	bad := filepath.Join(dir, "bad.toml")
	require.NoError(t, os.WriteFile(bad, []byte("[client\n"), 0o644))
	_, err := Load(bad)
	assert.Error(t, err)

	driver := filepath.Join(dir, "driver.toml")
	require.NoError(t, os.WriteFile(driver, []byte("[server]\ndb_driver = \"mysql\"\n"), 0o644))
	_, err = Load(driver)
	assert.ErrorContains(t, err, "db_driver")

	interval := filepath.Join(dir, "interval.toml")
	require.NoError(t, os.WriteFile(interval, []byte("[client]\nsync_interval = 0\n"), 0o644))
	_, err = Load(interval)
	assert.ErrorContains(t, err, "sync_interval")
}

func TestDefaultPath_Env(t *testing.T) {
	t.Setenv(PathEnv, "/etc/stockdash.toml")
	assert.Equal(t, "/etc/stockdash.toml", DefaultPath())
}
