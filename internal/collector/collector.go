package collector

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ethpandaops/status-stream/internal/leader"
	"github.com/ethpandaops/status-stream/internal/recovery"
	"github.com/ethpandaops/status-stream/internal/redis"
	"github.com/ethpandaops/status-stream/internal/sink"
	"github.com/ethpandaops/status-stream/internal/timeline"
)

// Status is a snapshot of the collector for the job page.
type Status struct {
	Running       bool
	Leader        bool
	LastTick      time.Time
	LastResult    string
	LastInserted  int
	TotalInserted int
	LastID        uint64
}

// Collector polls the remote on a fixed interval and stores new statuses in
// the sink. Only the leader collects, and only while the gate is open.
type Collector struct {
	log     logrus.FieldLogger
	cfg     Config
	poller  timeline.Poller
	policy  *recovery.Policy
	sink    sink.Sink
	gate    Gate
	elector leader.Elector
	redis   redis.Client

	cancel context.CancelFunc
	wg     sync.WaitGroup

	// Owned by the loop goroutine.
	wasLeader bool

	mu            sync.RWMutex
	lastTick      time.Time
	lastResult    string
	lastInserted  int
	totalInserted int
	lastID        uint64
}

// New creates a collector. Start launches it.
func New(
	log logrus.FieldLogger,
	cfg Config,
	poller timeline.Poller,
	policy *recovery.Policy,
	s sink.Sink,
	gate Gate,
	elector leader.Elector,
	redisClient redis.Client,
) *Collector {
	return &Collector{
		log:     log.WithField("component", "collector"),
		cfg:     cfg,
		poller:  poller,
		policy:  policy,
		sink:    s,
		gate:    gate,
		elector: elector,
		redis:   redisClient,
	}
}

// Start restores the watermark and starts the tick loop.
func (c *Collector) Start(ctx context.Context) error {
	c.log.WithField("interval", c.cfg.Interval.String()).Info("Starting collector")

	if err := c.restoreWatermark(ctx); err != nil {
		// Followers only show it; the first leader tick reads it again.
		c.log.WithError(err).Warn("Failed to restore watermark")
	}

	loopCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel

	c.wg.Add(1)

	go c.loop(loopCtx)

	return nil
}

// Stop ends the tick loop, interrupting a cooldown in progress.
func (c *Collector) Stop() error {
	c.log.Info("Stopping collector")

	if c.cancel != nil {
		c.cancel()
	}

	c.wg.Wait()

	return nil
}

// Resume opens the gate.
func (c *Collector) Resume(ctx context.Context) error {
	c.log.Info("Collector resumed")

	return c.gate.Open(ctx)
}

// Pause closes the gate. A tick in progress finishes.
func (c *Collector) Pause(ctx context.Context) error {
	c.log.Info("Collector paused")

	return c.gate.Close(ctx)
}

// Status reports the collector's state.
func (c *Collector) Status(ctx context.Context) Status {
	running, err := c.gate.IsOpen(ctx)
	if err != nil {
		c.log.WithError(err).Warn("Failed to read gate")
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	return Status{
		Running:       running,
		Leader:        c.elector.IsLeader(),
		LastTick:      c.lastTick,
		LastResult:    c.lastResult,
		LastInserted:  c.lastInserted,
		TotalInserted: c.totalInserted,
		LastID:        c.lastID,
	}
}

func (c *Collector) loop(ctx context.Context) {
	defer c.wg.Done()

	// A tick that runs long (cooldown) makes the ticker drop ticks, so the
	// sink never sees overlapping batches.
	ticker := time.NewTicker(c.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.tick(ctx)
		}
	}
}

func (c *Collector) tick(ctx context.Context) {
	result, inserted := c.collect(ctx)
	lastID := c.poller.LastID()

	ticksTotal.WithLabelValues(result).Inc()

	c.mu.Lock()
	defer c.mu.Unlock()

	c.lastTick = time.Now()
	c.lastResult = result
	c.lastID = lastID

	if result == resultOK || inserted > 0 {
		c.lastInserted = inserted
		c.totalInserted += inserted
	}
}

func (c *Collector) collect(ctx context.Context) (string, int) {
	open, err := c.gate.IsOpen(ctx)
	if err != nil {
		c.log.WithError(err).Warn("Failed to read gate, skipping tick")

		return resultGateError, 0
	}

	if !open {
		return resultPaused, 0
	}

	if !c.elector.IsLeader() {
		c.wasLeader = false

		return resultFollower, 0
	}

	// A new leader picks up where the previous one stopped.
	if !c.wasLeader {
		if err := c.restoreWatermark(ctx); err != nil {
			c.log.WithError(err).Warn("Failed to restore watermark, skipping tick")

			return resultWatermarkError, 0
		}

		c.wasLeader = true
	}

	statuses, err := c.poller.Poll(ctx)

	switch {
	case errors.Is(err, timeline.ErrCredentialRejected):
		if err := c.policy.Recover(ctx, c.poller); err != nil {
			c.log.WithError(err).Debug("Cooldown interrupted")
		}

		return resultRejected, 0
	case err != nil:
		c.log.WithError(err).Error("Failed to poll remote")

		return resultError, 0
	case len(statuses) == 0:
		c.log.Warn("No new statuses")

		return resultEmpty, 0
	}

	inserted, err := c.sink.InsertBatch(ctx, statuses)
	insertedTotal.Add(float64(inserted))

	if err != nil {
		c.log.WithError(err).WithFields(logrus.Fields{
			"count":    len(statuses),
			"inserted": inserted,
		}).Error("Failed to store statuses")

		return resultSinkError, inserted
	}

	if err := c.saveWatermark(ctx); err != nil {
		c.log.WithError(err).Warn("Failed to persist watermark")
	}

	c.log.WithField("count", inserted).Debug("Stored statuses")

	return resultOK, inserted
}

func (c *Collector) restoreWatermark(ctx context.Context) error {
	val, err := c.redis.Get(ctx, c.cfg.WatermarkKey())
	if errors.Is(err, redis.ErrNotFound) {
		return nil
	}

	if err != nil {
		return err
	}

	id, err := strconv.ParseUint(val, 10, 64)
	if err != nil {
		return fmt.Errorf("parse watermark %q: %w", val, err)
	}

	c.poller.SetLastID(id)

	c.mu.Lock()
	c.lastID = id
	c.mu.Unlock()

	c.log.WithField("last_id", id).Info("Restored watermark")

	return nil
}

func (c *Collector) saveWatermark(ctx context.Context) error {
	return c.redis.Set(ctx, c.cfg.WatermarkKey(), strconv.FormatUint(c.poller.LastID(), 10), 0)
}
