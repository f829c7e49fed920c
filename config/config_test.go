package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alejandrodnm/cbctracker/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load(writeConfig(t, "{}\n"))
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.ListenAddr)
	assert.Equal(t, config.BackendSQLite, cfg.Storage.Backend)
	assert.Equal(t, "cbc_positions", cfg.Storage.Namespace)
	assert.Equal(t, "1.0", cfg.Storage.Version)
	assert.Equal(t, "ethereum", cfg.Oracle.Asset)
	assert.Equal(t, 10*time.Second, cfg.OracleTimeout())
	assert.Equal(t, time.Hour, cfg.HistoricalAfter())
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
}

func TestLoad_YAML(t *testing.T) {
	path := writeConfig(t, `
server:
  listen_addr: ":9000"
  cors_origins: ["https://warpcast.com"]
storage:
  backend: Redis
  redis:
    addr: redis:6379
    db: 2
oracle:
  historical_after_hours: 0.5
prediction:
  delay_ms: 250
`)
	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.Server.ListenAddr)
	assert.Equal(t, []string{"https://warpcast.com"}, cfg.Server.CORSOrigins)
	assert.Equal(t, config.BackendRedis, cfg.Storage.Backend)
	assert.Equal(t, "redis:6379", cfg.Storage.Redis.Addr)
	assert.Equal(t, 2, cfg.Storage.Redis.DB)
	assert.Equal(t, 30*time.Minute, cfg.HistoricalAfter())
	assert.Equal(t, 250*time.Millisecond, cfg.PredictionDelay())
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("TRACKER_STORAGE_BACKEND", "memory")
	t.Setenv("TRACKER_LISTEN_ADDR", "127.0.0.1:7000")
	t.Setenv("COINGECKO_API_KEY", "cg-demo")
	t.Setenv("REDIS_ADDR", "cache:6379")

	cfg, err := config.Load(writeConfig(t, "log:\n  level: warn\n"))
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, config.BackendMemory, cfg.Storage.Backend)
	assert.Equal(t, "127.0.0.1:7000", cfg.Server.ListenAddr)
	assert.Equal(t, "cg-demo", cfg.Oracle.APIKey)
	assert.Equal(t, "cache:6379", cfg.Storage.Redis.Addr)
}

func TestLoad_EmptyPath(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, config.BackendSQLite, cfg.Storage.Backend)
}

func TestLoad_Errors(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = config.Load(writeConfig(t, "server: [\n"))
	assert.Error(t, err)

	_, err = config.Load(writeConfig(t, "storage:\n  backend: postgres\n"))
	assert.ErrorContains(t, err, "unknown storage backend")
}
