//nolint:tagliatelle // superior snake-case yo.
package redis

import (
	"fmt"
	"time"
)

// Config holds Redis client configuration.
type Config struct {
	Address      string        `yaml:"address"`
	Password     string        `yaml:"password"` //nolint:gosec // Config field, not a hardcoded secret.
	DB           int           `yaml:"db"`
	DialTimeout  time.Duration `yaml:"dial_timeout"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	PoolSize     int           `yaml:"pool_size"`
}

// Validate sets defaults and checks the configuration.
func (c *Config) Validate() error {
	if c.DialTimeout == 0 {
		c.DialTimeout = 5 * time.Second
	}

	if c.ReadTimeout == 0 {
		c.ReadTimeout = 3 * time.Second
	}

	if c.WriteTimeout == 0 {
		c.WriteTimeout = 3 * time.Second
	}

	if c.PoolSize == 0 {
		c.PoolSize = 10
	}

	if c.Address == "" {
		return fmt.Errorf("address is required")
	}

	if c.DialTimeout < 0 {
		return fmt.Errorf("dial_timeout must be positive")
	}

	if c.PoolSize < 0 {
		return fmt.Errorf("pool_size must be positive")
	}

	return nil
}
