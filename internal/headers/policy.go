//nolint:tagliatelle // superior snake-case yo.
package headers

import (
	"fmt"
	"regexp"
)

// Policy sets Headers on responses whose path matches PathPattern.
type Policy struct {
	Name        string            `yaml:"name"`
	PathPattern string            `yaml:"path_pattern"`
	Headers     map[string]string `yaml:"headers"`
}

// Config holds the ordered header policies.
type Config struct {
	Policies []Policy `yaml:"policies"`
}

// DefaultPolicies keep proxies from buffering or caching streams and job
// pages. They apply when no policies are configured.
func DefaultPolicies() []Policy {
	return []Policy{
		{
			Name:        "stream",
			PathPattern: `public_timeline$`,
			Headers: map[string]string{
				"Cache-Control":     "no-cache",
				"X-Accel-Buffering": "no",
			},
		},
		{
			Name:        "job",
			PathPattern: `^/job/`,
			Headers:     map[string]string{"Cache-Control": "no-store"},
		},
	}
}

// Manager matches request paths to header policies.
type Manager struct {
	policies []compiledPolicy
}

type compiledPolicy struct {
	name    string
	pattern *regexp.Regexp
	headers map[string]string
}

// NewManager compiles policies in order. It fails on an invalid pattern.
func NewManager(policies []Policy) (*Manager, error) {
	compiled := make([]compiledPolicy, 0, len(policies))

	for _, p := range policies {
		pattern, err := regexp.Compile(p.PathPattern)
		if err != nil {
			return nil, fmt.Errorf("invalid path_pattern in policy %q: %w", p.Name, err)
		}

		compiled = append(compiled, compiledPolicy{
			name:    p.Name,
			pattern: pattern,
			headers: p.Headers,
		})
	}

	return &Manager{policies: compiled}, nil
}

// Match returns the headers of the first policy matching path, or nil.
func (m *Manager) Match(path string) map[string]string {
	for _, p := range m.policies {
		if p.pattern.MatchString(path) {
			return p.headers
		}
	}

	return nil
}

// Validate fills in the default policies and checks every pattern compiles.
func (c *Config) Validate() error {
	if len(c.Policies) == 0 {
		c.Policies = DefaultPolicies()
	}

	for i, p := range c.Policies {
		if p.Name == "" {
			return fmt.Errorf("policies[%d].name is required", i)
		}

		if _, err := regexp.Compile(p.PathPattern); err != nil {
			return fmt.Errorf("policies[%d].path_pattern invalid regex: %w", i, err)
		}
	}

	return nil
}
