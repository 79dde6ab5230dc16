//nolint:tagliatelle // superior snake-case yo.
package sink

import (
	"fmt"
	"time"
)

// Sink types.
const (
	TypeMongo = "mongo"
	TypeRedis = "redis"
)

// Config selects and configures the collector's persistence sink.
type Config struct {
	Type  string      `yaml:"type"`
	Mongo MongoConfig `yaml:"mongo"`
	Redis RedisConfig `yaml:"redis"`
}

// MongoConfig configures the MongoDB sink.
type MongoConfig struct {
	URI            string        `yaml:"uri"`
	Database       string        `yaml:"database"`
	Collection     string        `yaml:"collection"`
	ConnectTimeout time.Duration `yaml:"connect_timeout"`
}

// RedisConfig configures the Redis stream sink.
type RedisConfig struct {
	Stream string `yaml:"stream"`
	MaxLen int64  `yaml:"max_len"` // 0 keeps every entry
}

// Validate sets defaults and checks the selected sink's settings.
func (c *Config) Validate() error {
	if c.Type == "" {
		c.Type = TypeRedis
	}

	switch c.Type {
	case TypeMongo:
		return c.Mongo.validate()
	case TypeRedis:
		return c.Redis.validate()
	default:
		return fmt.Errorf("unknown sink type %q (want %q or %q)", c.Type, TypeMongo, TypeRedis)
	}
}

func (c *MongoConfig) validate() error {
	if c.Database == "" {
		c.Database = "weibo"
	}

	if c.Collection == "" {
		c.Collection = "statuses"
	}

	if c.ConnectTimeout == 0 {
		c.ConnectTimeout = 10 * time.Second
	}

	if c.URI == "" {
		return fmt.Errorf("mongo.uri is required")
	}

	if c.ConnectTimeout < time.Second {
		return fmt.Errorf("mongo.connect_timeout must be at least 1s, got %v", c.ConnectTimeout)
	}

	return nil
}

func (c *RedisConfig) validate() error {
	if c.Stream == "" {
		c.Stream = "status-stream:statuses"
	}

	if c.MaxLen < 0 {
		return fmt.Errorf("redis.max_len must not be negative")
	}

	return nil
}
