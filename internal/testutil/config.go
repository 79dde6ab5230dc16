package testutil

import (
	"time"

	"github.com/ethpandaops/status-stream/internal/config"
	"github.com/ethpandaops/status-stream/internal/redis"
	"github.com/ethpandaops/status-stream/internal/timeline"
)

// NewTestConfig returns a validated config pointing at the given Redis
// address and remote endpoint.
func NewTestConfig(redisAddr, remoteEndpoint string) *config.Config {
	cfg := &config.Config{
		Server: config.ServerConfig{
			Host:            "127.0.0.1",
			Port:            8080,
			ShutdownTimeout: 2 * time.Second,
		},
		Remote: timeline.Config{
			Endpoint:    remoteEndpoint,
			Credentials: []string{"token-a", "token-b"},
		},
		Redis: redis.Config{Address: redisAddr},
	}

	if err := cfg.Validate(); err != nil {
		panic(err)
	}

	return cfg
}
