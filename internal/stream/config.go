//nolint:tagliatelle // superior snake-case yo.
package stream

import (
	"fmt"
	"time"

	"github.com/ethpandaops/status-stream/internal/recovery"
)

// Config holds streaming session settings.
type Config struct {
	BackoffStart int           `yaml:"backoff_start"` // Fibonacci term used as the first idle wait
	Cooldown     time.Duration `yaml:"cooldown"`      // Wait after a credential is rejected
}

// Validate validates and sets defaults for Config.
func (c *Config) Validate() error {
	if c.BackoffStart == 0 {
		c.BackoffStart = 5
	}

	if c.Cooldown == 0 {
		c.Cooldown = recovery.DefaultCooldown
	}

	if c.BackoffStart < 1 || c.BackoffStart > 20 {
		return fmt.Errorf("backoff_start must be between 1 and 20, got %d", c.BackoffStart)
	}

	if c.Cooldown < time.Second {
		return fmt.Errorf("cooldown must be at least 1 second, got %v", c.Cooldown)
	}

	return nil
}
