package sink

//go:generate mockgen -package mocks -destination mocks/mock_sink.go github.com/ethpandaops/status-stream/internal/sink Sink

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/ethpandaops/status-stream/internal/redis"
	"github.com/ethpandaops/status-stream/internal/timeline"
)

var insertDuration = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "status_stream_sink_insert_duration_seconds",
		Help:    "Duration of sink batch inserts",
		Buckets: prometheus.DefBuckets,
	},
	[]string{"sink"},
)

func init() {
	prometheus.MustRegister(insertDuration)
}

// Sink stores batches of statuses collected in the background.
type Sink interface {
	Start(ctx context.Context) error
	Stop() error
	// InsertBatch stores statuses and returns how many were stored, also
	// when it fails part way through.
	InsertBatch(ctx context.Context, statuses []timeline.Status) (int, error)
}

// New creates the sink selected by cfg.Type.
func New(log logrus.FieldLogger, cfg Config, redisClient redis.Client) (Sink, error) {
	switch cfg.Type {
	case TypeMongo:
		return NewMongoSink(log, cfg.Mongo), nil
	case TypeRedis:
		return NewRedisStreamSink(log, cfg.Redis, redisClient), nil
	default:
		return nil, fmt.Errorf("unknown sink type: %s", cfg.Type)
	}
}
