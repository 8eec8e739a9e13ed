package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("CONFIG_ENV", "dev")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "release", cfg.Mode)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, int64(32768), cfg.ReadLimit)
	assert.Equal(t, 54*time.Second, cfg.PingPeriod)
	assert.Equal(t, 5*time.Second, cfg.WriteTimeout)
	assert.Equal(t, 32, cfg.SendBuffer)
	assert.Equal(t, 8, cfg.MaxProtocolErrors)
	assert.Equal(t, 60, cfg.RateLimitPerMin)
	assert.True(t, cfg.MetricsEnabled)
	assert.Empty(t, cfg.HookToken)
	assert.Equal(t, 60*time.Second, cfg.Auth.Leeway)
	assert.Equal(t, "memory", cfg.Meetings.Backend)
	assert.Equal(t, "huddle:", cfg.Meetings.KeyPrefix)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("CONFIG_ENV", "test")

	require.NoError(t, os.MkdirAll(filepath.Join(dir, "config"), 0o755))
	yaml := []byte(`
mode: debug
port: 9090
send_buffer: 8
hook_token: sekrit
auth:
  secret: test-secret
  leeway: 10s
meetings:
  backend: redis
  redis_addr: redis.internal:6379
`)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config", "config.test.yaml"), yaml, 0o600))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Mode)
	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, 8, cfg.SendBuffer)
	assert.Equal(t, "sekrit", cfg.HookToken)
	assert.Equal(t, "test-secret", cfg.Auth.Secret)
	assert.Equal(t, 10*time.Second, cfg.Auth.Leeway)
	assert.Equal(t, "redis", cfg.Meetings.Backend)
	assert.Equal(t, "redis.internal:6379", cfg.Meetings.RedisAddr)

	// Keys the file does not mention keep their defaults.
	assert.Equal(t, 54*time.Second, cfg.PingPeriod)
	assert.Equal(t, 60, cfg.RateLimitPerMin)
}
