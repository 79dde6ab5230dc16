package sink

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/ethpandaops/status-stream/internal/timeline"
)

// Compile-time interface compliance check.
var _ Sink = (*MongoSink)(nil)

// inserter is the part of *mongo.Collection the sink uses.
type inserter interface {
	InsertMany(
		ctx context.Context,
		documents []interface{},
		opts ...*options.InsertManyOptions,
	) (*mongo.InsertManyResult, error)
}

// MongoSink inserts each status as one document, keeping the remote's
// fields as they were received.
type MongoSink struct {
	log        logrus.FieldLogger
	cfg        MongoConfig
	client     *mongo.Client
	collection inserter
}

// NewMongoSink creates a MongoDB sink. Start connects.
func NewMongoSink(log logrus.FieldLogger, cfg MongoConfig) *MongoSink {
	return &MongoSink{
		log: log.WithField("component", "sink_mongo"),
		cfg: cfg,
	}
}

// Start connects to MongoDB and verifies the primary is reachable.
func (m *MongoSink) Start(ctx context.Context) error {
	connectCtx, cancel := context.WithTimeout(ctx, m.cfg.ConnectTimeout)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(m.cfg.URI))
	if err != nil {
		return fmt.Errorf("failed to create MongoDB client: %w", err)
	}

	if err := client.Ping(connectCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())

		return fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	m.client = client
	m.collection = client.Database(m.cfg.Database).Collection(m.cfg.Collection)

	m.log.WithFields(logrus.Fields{
		"database":   m.cfg.Database,
		"collection": m.cfg.Collection,
	}).Info("Connected to MongoDB")

	return nil
}

// Stop disconnects from MongoDB.
func (m *MongoSink) Stop() error {
	if m.client == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return m.client.Disconnect(ctx)
}

// InsertBatch inserts statuses with a single unordered InsertMany. When some
// documents fail the rest are still written and counted.
func (m *MongoSink) InsertBatch(ctx context.Context, statuses []timeline.Status) (int, error) {
	if len(statuses) == 0 {
		return 0, nil
	}

	if m.collection == nil {
		return 0, fmt.Errorf("mongo sink not started")
	}

	docs, err := toDocuments(statuses)
	if err != nil {
		return 0, err
	}

	timer := prometheus.NewTimer(insertDuration.WithLabelValues(TypeMongo))
	defer timer.ObserveDuration()

	result, err := m.collection.InsertMany(ctx, docs, options.InsertMany().SetOrdered(false))
	if err != nil {
		inserted := 0

		var bulkErr mongo.BulkWriteException
		if errors.As(err, &bulkErr) {
			inserted = len(docs) - len(bulkErr.WriteErrors)
		}

		return inserted, fmt.Errorf("insert statuses: %w", err)
	}

	m.log.WithField("count", len(result.InsertedIDs)).Debug("Inserted statuses")

	return len(result.InsertedIDs), nil
}

// toDocuments converts raw status JSON into BSON documents. Numbers keep
// their integer type where they fit.
func toDocuments(statuses []timeline.Status) ([]interface{}, error) {
	docs := make([]interface{}, 0, len(statuses))

	for _, status := range statuses {
		var doc bson.D
		if err := bson.UnmarshalExtJSON(status.Raw, false, &doc); err != nil {
			return nil, fmt.Errorf("convert status %d: %w", status.ID, err)
		}

		docs = append(docs, doc)
	}

	return docs, nil
}
