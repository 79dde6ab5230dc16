//nolint:tagliatelle // superior snake-case yo.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/ethpandaops/status-stream/internal/collector"
	"github.com/ethpandaops/status-stream/internal/headers"
	"github.com/ethpandaops/status-stream/internal/leader"
	"github.com/ethpandaops/status-stream/internal/ratelimit"
	"github.com/ethpandaops/status-stream/internal/redis"
	"github.com/ethpandaops/status-stream/internal/sink"
	"github.com/ethpandaops/status-stream/internal/stream"
	"github.com/ethpandaops/status-stream/internal/timeline"
)

// Config represents the complete application configuration.
type Config struct {
	Server       ServerConfig     `yaml:"server"`
	Remote       timeline.Config  `yaml:"remote"`
	Stream       stream.Config    `yaml:"stream"`
	Collector    collector.Config `yaml:"collector"`
	Sink         sink.Config      `yaml:"sink"`
	Redis        redis.Config     `yaml:"redis"`
	Leader       leader.Config    `yaml:"leader"`
	RateLimiting ratelimit.Config `yaml:"rate_limiting"`
	Headers      headers.Config   `yaml:"headers"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Port            int           `yaml:"port"`
	Host            string        `yaml:"host"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"` // Streams clear their own deadline
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	LogLevel        string        `yaml:"log_level"`
	Debug           bool          `yaml:"debug"` // Forces the debug log level
}

// Load reads a YAML config file. Variables from a .env file in the working
// directory are loaded first, and ${VAR} references in the file are
// expanded before parsing.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return &cfg, nil
}

// LogLevel returns the effective log level.
func (c *Config) LogLevel() string {
	if c.Server.Debug {
		return "debug"
	}

	return c.Server.LogLevel
}

// Validate sets defaults and validates every section.
func (c *Config) Validate() error {
	if err := c.Server.Validate(); err != nil {
		return fmt.Errorf("server: %w", err)
	}

	if err := c.Remote.Validate(); err != nil {
		return fmt.Errorf("remote: %w", err)
	}

	if err := c.Stream.Validate(); err != nil {
		return fmt.Errorf("stream: %w", err)
	}

	if err := c.Collector.Validate(); err != nil {
		return fmt.Errorf("collector: %w", err)
	}

	// The sink is only opened by the collector.
	if c.Collector.Enabled {
		if err := c.Sink.Validate(); err != nil {
			return fmt.Errorf("sink: %w", err)
		}
	}

	// Redis is mandatory infrastructure
	if err := c.Redis.Validate(); err != nil {
		return fmt.Errorf("redis: %w", err)
	}

	if err := c.Leader.Validate(); err != nil {
		return fmt.Errorf("leader: %w", err)
	}

	if err := c.RateLimiting.Validate(); err != nil {
		return fmt.Errorf("rate_limiting: %w", err)
	}

	if err := c.Headers.Validate(); err != nil {
		return fmt.Errorf("headers: %w", err)
	}

	return nil
}

// Validate sets defaults and validates server settings.
func (s *ServerConfig) Validate() error {
	if s.Host == "" {
		s.Host = "0.0.0.0"
	}

	if s.Port == 0 {
		s.Port = 8080
	}

	if s.ReadTimeout == 0 {
		s.ReadTimeout = 30 * time.Second
	}

	if s.WriteTimeout == 0 {
		s.WriteTimeout = 30 * time.Second
	}

	if s.ShutdownTimeout == 0 {
		s.ShutdownTimeout = 10 * time.Second
	}

	if s.LogLevel == "" {
		s.LogLevel = "info"
	}

	if s.Port < 1 || s.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", s.Port)
	}

	if s.ReadTimeout < 0 {
		return fmt.Errorf("read_timeout must be positive")
	}

	if s.WriteTimeout < 0 {
		return fmt.Errorf("write_timeout must be positive")
	}

	if s.ShutdownTimeout < 0 {
		return fmt.Errorf("shutdown_timeout must be positive")
	}

	validLogLevels := map[string]bool{
		"trace": true, "debug": true, "info": true,
		"warn": true, "error": true, "fatal": true, "panic": true,
	}
	if !validLogLevels[s.LogLevel] {
		return fmt.Errorf("invalid log level: %s", s.LogLevel)
	}

	return nil
}

// Address returns the listen address.
func (s *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}
