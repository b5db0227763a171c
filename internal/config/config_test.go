package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testConfig = `
[development]
host = "localhost"
port = 9090
environment = "development"
log_level = "debug"
log_to_stdout = true
local_store_path = "/tmp/rerack-dev.db"
remote_enabled = true
postgres_host = "localhost"
postgres_port = "5432"
postgres_db_name = "rerack"
remote_timeout = "5s"
sync_max_attempts = 10
reference_cache_ttl = "48h"

[production]
host = "0.0.0.0"
port = 8080
environment = "production"
log_level = "info"
`

func writeTestConfig(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(testConfig), 0o600))
	return path
}

func TestLoad_Development(t *testing.T) {
	cfg, err := Load("dev", writeTestConfig(t))
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, "localhost", cfg.Host)
	assert.Equal(t, 9090, cfg.Port)
	assert.True(t, cfg.RemoteEnabled)
	assert.Equal(t, "/tmp/rerack-dev.db", cfg.LocalStorePath)
	assert.Equal(t, 5*time.Second, cfg.RemoteTimeout)
	assert.Equal(t, 10, cfg.SyncMaxAttempts)
	assert.Equal(t, 48*time.Hour, cfg.ReferenceCacheTTL)
	// defaults
	assert.Equal(t, DefaultProbeInterval, cfg.ProbeInterval)
	assert.Equal(t, DefaultCatalogBaseURL, cfg.CatalogBaseURL)
	assert.Equal(t, DefaultAIMaxRetries, cfg.AIMaxRetries)
}

func TestLoad_ProductionDefaults(t *testing.T) {
	cfg, err := Load("production", writeTestConfig(t))
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.False(t, cfg.RemoteEnabled)
	assert.Equal(t, DefaultLocalStorePath, cfg.LocalStorePath)
	assert.Equal(t, DefaultRemoteTimeout, cfg.RemoteTimeout)
	assert.Equal(t, DefaultReferenceCacheTTL, cfg.ReferenceCacheTTL)
	assert.Equal(t, 0, cfg.SyncMaxAttempts)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load("staging", writeTestConfig(t))
	assert.EqualError(t, err, "unknown env: staging")

	_, err = Load("dev", filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)

	var empty Toml
	_, err = empty.Get("dev")
	assert.EqualError(t, err, "no config for env: dev")
}

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.False(t, cfg.RemoteEnabled)
	assert.Equal(t, DefaultSessionTTL, cfg.SessionTTL)
	assert.Equal(t, DefaultHotCacheSizeBytes, cfg.HotCacheSizeBytes)
}
