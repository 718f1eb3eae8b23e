package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"transfer-status-backend/internal/utils"
)

func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(prev) })
}

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 6*time.Second, cfg.Poller.Interval)
	assert.Equal(t, 5, cfg.Poller.FailureThreshold)
	assert.Equal(t, "memory", cfg.Cache.Backend)
}

func TestLoadWithoutFile(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)

	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  addr: ":9090"
api:
  base_url: "https://api.example.test/v1"
  max_retries: 4
poller:
  interval: 3s
cache:
  backend: redis
  redis_addr: "redis:6379"
`), 0o600))

	t.Setenv("TRANSFERSTATUS_POLLER_FAILURE_THRESHOLD", "9")
	t.Setenv("TRANSFERSTATUS_LOG_LEVEL", "DEBUG")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, "https://api.example.test/v1", cfg.API.BaseURL)
	assert.Equal(t, 4, cfg.API.MaxRetries)
	assert.Equal(t, 3*time.Second, cfg.Poller.Interval)
	assert.Equal(t, 9, cfg.Poller.FailureThreshold)
	assert.Equal(t, "redis", cfg.Cache.Backend)
	assert.Equal(t, "redis:6379", cfg.Cache.RedisAddr)
	assert.Equal(t, "DEBUG", cfg.Log.Level)
	assert.Equal(t, DefaultConfig().API.Timeout, cfg.API.Timeout)
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("TRANSFERSTATUS_SERVER_ADDR=:7070\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("TRANSFERSTATUS_SERVER_ADDR") })

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, ":7070", cfg.Server.Addr)
}

func TestLoadRejectsInvalid(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("TRANSFERSTATUS_CACHE_BACKEND", "memcached")

	_, err := Load("")
	require.Error(t, err)
	assert.Equal(t, utils.ErrorTypeConfig, utils.GetErrorType(err))
}

func TestLoadMissingFile(t *testing.T) {
	chdir(t, t.TempDir())
	_, err := Load("does-not-exist.yaml")
	assert.Equal(t, utils.ErrorTypeConfig, utils.GetErrorType(err))
}
