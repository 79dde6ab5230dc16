//nolint:tagliatelle // superior snake-case yo.
package ratelimit

import (
	"fmt"
	"net"
	"regexp"
	"time"
)

// Failure modes applied when Redis is unavailable.
const (
	FailOpen   = "fail_open"
	FailClosed = "fail_closed"
)

// Config holds rate limiting configuration.
type Config struct {
	Enabled     bool     `yaml:"enabled"`
	FailureMode string   `yaml:"failure_mode"`
	ExemptIPs   []string `yaml:"exempt_ips"` // IPs or CIDR ranges
	Rules       []Rule   `yaml:"rules"`
}

// Rule limits requests whose path matches PathPattern. Streams count once
// per connection.
type Rule struct {
	Name        string        `yaml:"name"`
	PathPattern string        `yaml:"path_pattern"`
	Limit       int           `yaml:"limit"`
	Window      time.Duration `yaml:"window"`
}

// Validate checks the configuration. Disabled rate limiting is not checked.
func (c *Config) Validate() error {
	if !c.Enabled {
		return nil
	}

	if c.FailureMode == "" {
		c.FailureMode = FailOpen
	}

	if c.FailureMode != FailOpen && c.FailureMode != FailClosed {
		return fmt.Errorf("failure_mode must be '%s' or '%s'", FailOpen, FailClosed)
	}

	if len(c.Rules) == 0 {
		return fmt.Errorf("rules must have at least one rule")
	}

	for i, rule := range c.Rules {
		if rule.Name == "" {
			return fmt.Errorf("rules[%d].name is required", i)
		}

		if rule.Limit <= 0 {
			return fmt.Errorf("rules[%d].limit must be positive", i)
		}

		if rule.Window <= 0 {
			return fmt.Errorf("rules[%d].window must be positive", i)
		}

		if _, err := regexp.Compile(rule.PathPattern); err != nil {
			return fmt.Errorf("rules[%d].path_pattern invalid regex: %w", i, err)
		}
	}

	for i, cidr := range c.ExemptIPs {
		if _, _, err := net.ParseCIDR(cidr); err != nil && net.ParseIP(cidr) == nil {
			return fmt.Errorf("exempt_ips[%d] invalid IP or CIDR: %s", i, cidr)
		}
	}

	return nil
}
