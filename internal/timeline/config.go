//nolint:tagliatelle // superior snake-case yo.
package timeline

import (
	"fmt"
	"net/http"
	"net/url"
	"time"
)

const (
	// DefaultEndpoint is the public timeline endpoint of the remote status API.
	DefaultEndpoint = "https://api.weibo.com/2/statuses/public_timeline.json"

	// DefaultBlockedErrorCode is the error_code sent with a 403 when a token is blocked.
	DefaultBlockedErrorCode = 10023
)

// Config holds remote status API settings.
type Config struct {
	Endpoint         string        `yaml:"endpoint"`           // Public timeline URL
	Count            int           `yaml:"count"`              // Items requested per poll
	RequestTimeout   time.Duration `yaml:"request_timeout"`    // HTTP request timeout
	BlockedErrorCode int           `yaml:"blocked_error_code"` // error_code marking a rejected credential
	Credentials      []string      `yaml:"credentials"`        // Pre-issued access tokens
}

// Validate validates and sets defaults for Config.
func (c *Config) Validate() error {
	if c.Endpoint == "" {
		c.Endpoint = DefaultEndpoint
	}

	if c.Count == 0 {
		c.Count = 50
	}

	if c.RequestTimeout == 0 {
		c.RequestTimeout = 30 * time.Second
	}

	if c.BlockedErrorCode == 0 {
		c.BlockedErrorCode = DefaultBlockedErrorCode
	}

	u, err := url.Parse(c.Endpoint)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid endpoint: %q", c.Endpoint)
	}

	if c.Count < 1 || c.Count > 200 {
		return fmt.Errorf("count must be between 1 and 200, got %d", c.Count)
	}

	if c.RequestTimeout < time.Second {
		return fmt.Errorf("request_timeout must be at least 1 second, got %v", c.RequestTimeout)
	}

	if len(c.Credentials) == 0 {
		return fmt.Errorf("at least one credential is required")
	}

	for i, cred := range c.Credentials {
		if cred == "" {
			return fmt.Errorf("credentials[%d] is empty", i)
		}
	}

	return nil
}

// HTTPClient creates an HTTP client with the configured timeout.
func (c *Config) HTTPClient() *http.Client {
	return &http.Client{
		Timeout: c.RequestTimeout,
	}
}
