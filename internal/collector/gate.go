package collector

//go:generate mockgen -package mocks -destination mocks/mock_gate.go github.com/ethpandaops/status-stream/internal/collector Gate

import (
	"context"
	"errors"
	"fmt"

	"github.com/ethpandaops/status-stream/internal/redis"
)

// Compile-time interface compliance check.
var _ Gate = (*RedisGate)(nil)

const (
	gateRunning = "running"
	gatePaused  = "paused"
)

// Gate is the collector's pause/resume switch.
type Gate interface {
	IsOpen(ctx context.Context) (bool, error)
	Open(ctx context.Context) error
	Close(ctx context.Context) error
}

// RedisGate keeps the switch in Redis so every replica sees the same state;
// /job/start on any instance resumes the leader's collector.
type RedisGate struct {
	redis       redis.Client
	key         string
	defaultOpen bool
}

// NewRedisGate creates a gate stored at key. Until the key is first written
// the gate reports defaultOpen.
func NewRedisGate(redisClient redis.Client, key string, defaultOpen bool) *RedisGate {
	return &RedisGate{
		redis:       redisClient,
		key:         key,
		defaultOpen: defaultOpen,
	}
}

func (g *RedisGate) IsOpen(ctx context.Context) (bool, error) {
	val, err := g.redis.Get(ctx, g.key)
	if errors.Is(err, redis.ErrNotFound) {
		return g.defaultOpen, nil
	}

	if err != nil {
		return false, fmt.Errorf("read gate: %w", err)
	}

	switch val {
	case gateRunning:
		return true, nil
	case gatePaused:
		return false, nil
	default:
		return false, fmt.Errorf("unexpected gate value %q", val)
	}
}

func (g *RedisGate) Open(ctx context.Context) error {
	if err := g.redis.Set(ctx, g.key, gateRunning, 0); err != nil {
		return fmt.Errorf("open gate: %w", err)
	}

	return nil
}

func (g *RedisGate) Close(ctx context.Context) error {
	if err := g.redis.Set(ctx, g.key, gatePaused, 0); err != nil {
		return fmt.Errorf("close gate: %w", err)
	}

	return nil
}
