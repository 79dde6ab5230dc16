package sink

import (
	"context"
	"fmt"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/ethpandaops/status-stream/internal/redis"
	"github.com/ethpandaops/status-stream/internal/timeline"
)

// Compile-time interface compliance check.
var _ Sink = (*RedisStreamSink)(nil)

// RedisStreamSink appends statuses to a Redis stream, one entry per status
// with fields "id" and "status".
type RedisStreamSink struct {
	log   logrus.FieldLogger
	cfg   RedisConfig
	redis redis.Client
}

// NewRedisStreamSink creates a sink on the shared Redis client.
func NewRedisStreamSink(log logrus.FieldLogger, cfg RedisConfig, redisClient redis.Client) *RedisStreamSink {
	return &RedisStreamSink{
		log:   log.WithField("component", "sink_redis"),
		cfg:   cfg,
		redis: redisClient,
	}
}

// Start is a no-op; the Redis client is started by the server.
func (r *RedisStreamSink) Start(_ context.Context) error {
	r.log.WithField("stream", r.cfg.Stream).Info("Using Redis stream sink")

	return nil
}

// Stop is a no-op.
func (r *RedisStreamSink) Stop() error {
	return nil
}

// InsertBatch appends statuses in one pipeline.
func (r *RedisStreamSink) InsertBatch(ctx context.Context, statuses []timeline.Status) (int, error) {
	if len(statuses) == 0 {
		return 0, nil
	}

	entries := make([]redis.StreamEntry, 0, len(statuses))

	for _, status := range statuses {
		entries = append(entries, redis.StreamEntry{
			Values: map[string]any{
				"id":     strconv.FormatUint(status.ID, 10),
				"status": string(status.Raw),
			},
		})
	}

	timer := prometheus.NewTimer(insertDuration.WithLabelValues(TypeRedis))
	defer timer.ObserveDuration()

	added, err := r.redis.XAddBatch(ctx, r.cfg.Stream, r.cfg.MaxLen, entries)
	if err != nil {
		return added, fmt.Errorf("append statuses: %w", err)
	}

	return added, nil
}
