//nolint:tagliatelle // superior snake-case yo.
package collector

import (
	"fmt"
	"time"

	"github.com/ethpandaops/status-stream/internal/recovery"
)

// Config holds background collector configuration.
type Config struct {
	Enabled     bool          `yaml:"enabled"`
	Interval    time.Duration `yaml:"interval"`
	Cooldown    time.Duration `yaml:"cooldown"`
	StartPaused bool          `yaml:"start_paused"`
	KeyPrefix   string        `yaml:"key_prefix"`
}

// Validate sets defaults and checks ranges.
func (c *Config) Validate() error {
	if c.Interval == 0 {
		c.Interval = 10 * time.Second
	}

	if c.Cooldown == 0 {
		c.Cooldown = recovery.DefaultCooldown
	}

	if c.KeyPrefix == "" {
		c.KeyPrefix = "status-stream"
	}

	if c.Interval < time.Second {
		return fmt.Errorf("interval must be at least 1s, got %v", c.Interval)
	}

	if c.Cooldown < time.Second {
		return fmt.Errorf("cooldown must be at least 1s, got %v", c.Cooldown)
	}

	return nil
}

// GateKey is the Redis key holding the running/paused flag.
func (c *Config) GateKey() string {
	return c.KeyPrefix + ":collector:gate"
}

// WatermarkKey is the Redis key holding the last stored status id.
func (c *Config) WatermarkKey() string {
	return c.KeyPrefix + ":collector:last_id"
}
