package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// Compile-time interface compliance check.
var _ Service = (*service)(nil)

const keyPrefix = "status-stream:rate_limit"

// Service counts requests per client IP and rule in fixed windows.
type Service interface {
	Start(ctx context.Context) error
	Stop() error
	Allow(
		ctx context.Context,
		ip, key string,
		limit int,
		window time.Duration,
	) (allowed bool, remaining int, resetAt time.Time, err error)
}

type service struct {
	redis       *redis.Client
	log         logrus.FieldLogger
	failureMode string
}

// NewService creates a limiter backed by redisClient.
func NewService(
	log logrus.FieldLogger,
	redisClient *redis.Client,
	failureMode string,
) Service {
	return &service{
		redis:       redisClient,
		failureMode: failureMode,
		log:         log.WithField("component", "ratelimit"),
	}
}

func (s *service) Start(_ context.Context) error {
	s.log.WithField("failure_mode", s.failureMode).Info("Rate limiter started")

	return nil
}

func (s *service) Stop() error {
	s.log.Info("Rate limiter stopped")

	return nil
}

// Allow counts one request with INCR, starting the window's EXPIRE on the
// first hit. When Redis fails the failure mode decides the outcome.
func (s *service) Allow(
	ctx context.Context,
	ip, key string,
	limit int,
	window time.Duration,
) (bool, int, time.Time, error) {
	redisKey := fmt.Sprintf("%s:%s:%s", keyPrefix, key, ip)

	count, err := s.redis.Incr(ctx, redisKey).Result()
	if err != nil {
		s.log.WithError(err).Error("Failed to increment rate limit counter")

		if s.failureMode == FailClosed {
			return false, 0, time.Time{}, fmt.Errorf("rate limiter unavailable: %w", err)
		}

		return true, 0, time.Time{}, nil
	}

	if count == 1 {
		if err := s.redis.Expire(ctx, redisKey, window).Err(); err != nil {
			s.log.WithError(err).Warn("Failed to set rate limit TTL")
		}
	}

	ttl, err := s.redis.TTL(ctx, redisKey).Result()
	if err != nil || ttl < 0 {
		ttl = window
	}

	resetAt := time.Now().Add(ttl)

	if count > int64(limit) {
		return false, 0, resetAt, nil
	}

	return true, limit - int(count), resetAt, nil
}
