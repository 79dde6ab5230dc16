//nolint:tagliatelle // superior snake-case yo.
package leader

import (
	"fmt"
	"time"
)

// DefaultLockKey is the Redis key replicas compete for.
const DefaultLockKey = "status-stream:leader"

// Config holds leader election configuration.
type Config struct {
	LockKey       string        `yaml:"lock_key"`
	LockTTL       time.Duration `yaml:"lock_ttl"`
	RenewInterval time.Duration `yaml:"renew_interval"`
	RetryInterval time.Duration `yaml:"retry_interval"`
}

// Validate sets defaults and checks the lock is renewed before it expires.
func (c *Config) Validate() error {
	if c.LockKey == "" {
		c.LockKey = DefaultLockKey
	}

	if c.LockTTL == 0 {
		c.LockTTL = 10 * time.Second
	}

	if c.RenewInterval == 0 {
		c.RenewInterval = 3 * time.Second
	}

	if c.RetryInterval == 0 {
		c.RetryInterval = 2 * time.Second
	}

	if c.LockTTL < time.Second {
		return fmt.Errorf("lock_ttl must be at least 1s, got %v", c.LockTTL)
	}

	if c.RenewInterval <= 0 || c.RenewInterval >= c.LockTTL {
		return fmt.Errorf(
			"renew_interval must be positive and shorter than lock_ttl (%v), got %v",
			c.LockTTL, c.RenewInterval,
		)
	}

	if c.RetryInterval <= 0 {
		return fmt.Errorf("retry_interval must be positive")
	}

	return nil
}
