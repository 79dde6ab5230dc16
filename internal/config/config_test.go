package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ethpandaops/status-stream/internal/headers"
	"github.com/ethpandaops/status-stream/internal/leader"
	"github.com/ethpandaops/status-stream/internal/redis"
	"github.com/ethpandaops/status-stream/internal/sink"
	"github.com/ethpandaops/status-stream/internal/timeline"
)

const fullConfig = `
server:
  port: 9090
  host: "127.0.0.1"
  read_timeout: 15s
  write_timeout: 20s
  shutdown_timeout: 5s
  log_level: "warn"

remote:
  endpoint: "https://remote.example.com/2/statuses/public_timeline.json"
  count: 20
  credentials:
    - "${TEST_TOKEN_A}"
    - "token-b"

stream:
  backoff_start: 5
  cooldown: 30m

collector:
  enabled: true
  interval: 15s
  start_paused: true

sink:
  type: mongo
  mongo:
    uri: "mongodb://localhost:27017"

redis:
  address: "localhost:6379"

leader:
  lock_ttl: 30s
  renew_interval: 10s

rate_limiting:
  enabled: true
  rules:
    - name: "streams"
      path_pattern: "public_timeline$"
      limit: 5
      window: 1m

headers:
  policies:
    - name: "stream"
      path_pattern: "public_timeline$"
      headers:
        Cache-Control: "no-cache"
`

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()

	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func TestLoad(t *testing.T) {
	t.Setenv("TEST_TOKEN_A", "token-a")
	t.Chdir(t.TempDir())

	cfg, err := Load(writeConfig(t, ".", fullConfig))
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "127.0.0.1:9090", cfg.Server.Address())
	assert.Equal(t, 20*time.Second, cfg.Server.WriteTimeout)
	assert.Equal(t, "warn", cfg.LogLevel())

	assert.Equal(t, []string{"token-a", "token-b"}, cfg.Remote.Credentials)
	assert.Equal(t, 20, cfg.Remote.Count)
	assert.Equal(t, timeline.DefaultBlockedErrorCode, cfg.Remote.BlockedErrorCode)

	assert.Equal(t, 30*time.Minute, cfg.Stream.Cooldown)

	assert.True(t, cfg.Collector.Enabled)
	assert.True(t, cfg.Collector.StartPaused)
	assert.Equal(t, 15*time.Second, cfg.Collector.Interval)

	assert.Equal(t, sink.TypeMongo, cfg.Sink.Type)
	assert.Equal(t, "weibo", cfg.Sink.Mongo.Database)
	assert.Equal(t, "statuses", cfg.Sink.Mongo.Collection)

	assert.Equal(t, 10, cfg.Redis.PoolSize)
	assert.Equal(t, leader.DefaultLockKey, cfg.Leader.LockKey)

	require.Len(t, cfg.RateLimiting.Rules, 1)
	assert.Equal(t, "fail_open", cfg.RateLimiting.FailureMode)

	require.Len(t, cfg.Headers.Policies, 1)
	assert.Equal(t, "no-cache", cfg.Headers.Policies[0].Headers["Cache-Control"])
}

func TestLoad_DotEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	// godotenv never overrides variables that are already set.
	t.Setenv("TEST_TOKEN_A", "")
	require.NoError(t, os.Unsetenv("TEST_TOKEN_A"))
	t.Cleanup(func() { _ = os.Unsetenv("TEST_TOKEN_A") })

	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("TEST_TOKEN_A=from-dotenv\n"), 0o600))

	cfg, err := Load(writeConfig(t, dir, fullConfig))
	require.NoError(t, err)

	assert.Equal(t, "from-dotenv", cfg.Remote.Credentials[0])
}

func TestLoad_Errors(t *testing.T) {
	t.Chdir(t.TempDir())

	_, err := Load("does-not-exist.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")

	_, err = Load(writeConfig(t, ".", "server: [not, a, map"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse config")
}

func validConfig() *Config {
	return &Config{
		Remote: timeline.Config{Credentials: []string{"a"}},
		Redis:  redis.Config{Address: "localhost:6379"},
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(c *Config)
		errorMsg string
	}{
		{
			name:   "minimal config gets defaults",
			mutate: func(*Config) {},
		},
		{
			name:     "invalid port too high",
			mutate:   func(c *Config) { c.Server.Port = 99999 },
			errorMsg: "invalid server port",
		},
		{
			name:     "invalid port negative",
			mutate:   func(c *Config) { c.Server.Port = -1 },
			errorMsg: "invalid server port",
		},
		{
			name:     "invalid log level",
			mutate:   func(c *Config) { c.Server.LogLevel = "loud" },
			errorMsg: "invalid log level",
		},
		{
			name:     "negative shutdown timeout",
			mutate:   func(c *Config) { c.Server.ShutdownTimeout = -time.Second },
			errorMsg: "shutdown_timeout must be positive",
		},
		{
			name:     "no credentials",
			mutate:   func(c *Config) { c.Remote.Credentials = nil },
			errorMsg: "remote: at least one credential is required",
		},
		{
			name:     "stream backoff out of range",
			mutate:   func(c *Config) { c.Stream.BackoffStart = 50 },
			errorMsg: "stream: backoff_start",
		},
		{
			name:     "collector interval too short",
			mutate:   func(c *Config) { c.Collector.Interval = time.Millisecond },
			errorMsg: "collector: interval",
		},
		{
			name: "sink ignored while collector disabled",
			mutate: func(c *Config) {
				c.Sink.Type = sink.TypeMongo
			},
		},
		{
			name: "sink checked when collector enabled",
			mutate: func(c *Config) {
				c.Collector.Enabled = true
				c.Sink.Type = sink.TypeMongo
			},
			errorMsg: "sink: mongo.uri is required",
		},
		{
			name:     "missing redis address",
			mutate:   func(c *Config) { c.Redis.Address = "" },
			errorMsg: "redis:",
		},
		{
			name: "renew interval longer than ttl",
			mutate: func(c *Config) {
				c.Leader.LockTTL = 5 * time.Second
				c.Leader.RenewInterval = 10 * time.Second
			},
			errorMsg: "leader: renew_interval",
		},
		{
			name:     "rate limiting enabled without rules",
			mutate:   func(c *Config) { c.RateLimiting.Enabled = true },
			errorMsg: "rate_limiting: rules must have at least one rule",
		},
		{
			name: "invalid header pattern",
			mutate: func(c *Config) {
				c.Headers.Policies = []headers.Policy{{Name: "bad", PathPattern: "[unclosed"}}
			},
			errorMsg: "headers: policies[0].path_pattern invalid regex",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.Validate()

			if tt.errorMsg != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errorMsg)

				return
			}

			require.NoError(t, err)
		})
	}
}

func TestConfig_ValidateDefaults(t *testing.T) {
	cfg := validConfig()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "0.0.0.0:8080", cfg.Server.Address())
	assert.Equal(t, 30*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 10*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, "info", cfg.LogLevel())
	assert.Equal(t, timeline.DefaultEndpoint, cfg.Remote.Endpoint)
	assert.Equal(t, 5, cfg.Stream.BackoffStart)
	assert.False(t, cfg.Collector.Enabled)
	assert.Len(t, cfg.Headers.Policies, len(headers.DefaultPolicies()))
}

func TestConfig_DebugForcesLogLevel(t *testing.T) {
	cfg := validConfig()
	cfg.Server.LogLevel = "error"
	cfg.Server.Debug = true

	require.NoError(t, cfg.Validate())
	assert.Equal(t, "debug", cfg.LogLevel())
}
