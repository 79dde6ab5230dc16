package leader

//go:generate mockgen -package mocks -destination mocks/mock_elector.go github.com/ethpandaops/status-stream/internal/leader Elector

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/ethpandaops/status-stream/internal/redis"
)

// Compile-time interface compliance check.
var _ Elector = (*elector)(nil)

var isLeaderGauge = prometheus.NewGauge(
	prometheus.GaugeOpts{
		Name: "status_stream_leader",
		Help: "1 when this instance holds the collector lock",
	},
)

func init() {
	prometheus.MustRegister(isLeaderGauge)
}

// Elector decides which replica runs the background collector. The lock is
// a Redis key set with SETNX and renewed while held.
type Elector interface {
	Start(ctx context.Context) error
	Stop() error
	IsLeader() bool
}

type elector struct {
	log            logrus.FieldLogger
	cfg            Config
	redis          redis.Client
	id             string
	isLeader       bool
	loggedFollower bool
	mu             sync.RWMutex
	done           chan struct{}
	wg             sync.WaitGroup
}

// NewElector creates a new leader elector with a random instance id.
func NewElector(log logrus.FieldLogger, cfg Config, redisClient redis.Client) Elector {
	return &elector{
		log:   log.WithField("component", "leader"),
		cfg:   cfg,
		redis: redisClient,
		id:    uuid.New().String(),
		done:  make(chan struct{}),
	}
}

// Start begins the election loop.
func (e *elector) Start(ctx context.Context) error {
	e.log.WithField("instance_id", e.id).Info("Starting leader election")

	e.wg.Add(1)

	go e.run(ctx)

	return nil
}

// Stop ends the election loop and releases the lock if held.
func (e *elector) Stop() error {
	e.log.Info("Stopping leader election")
	close(e.done)
	e.wg.Wait()

	if e.IsLeader() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := e.redis.Del(ctx, e.cfg.LockKey); err != nil {
			e.log.WithError(err).Warn("Failed to release leadership lock")
		}

		e.setLeader(false)
	}

	return nil
}

// IsLeader reports whether this instance currently holds the lock.
func (e *elector) IsLeader() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()

	return e.isLeader
}

func (e *elector) setLeader(leader bool) {
	e.mu.Lock()
	e.isLeader = leader
	e.mu.Unlock()

	if leader {
		isLeaderGauge.Set(1)
	} else {
		isLeaderGauge.Set(0)
	}
}

func (e *elector) run(ctx context.Context) {
	defer e.wg.Done()

	// Collect as early as possible on a fresh deployment.
	e.acquire(ctx)

	renew := time.NewTicker(e.cfg.RenewInterval)
	defer renew.Stop()

	retry := time.NewTicker(e.cfg.RetryInterval)
	defer retry.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-e.done:
			return
		case <-renew.C:
			if e.IsLeader() {
				e.renew(ctx)
			}
		case <-retry.C:
			if !e.IsLeader() {
				e.acquire(ctx)
			}
		}
	}
}

func (e *elector) acquire(ctx context.Context) {
	acquired, err := e.redis.SetNX(ctx, e.cfg.LockKey, e.id, e.cfg.LockTTL)
	if err != nil {
		e.log.WithError(err).Warn("Failed to acquire leadership lock")

		return
	}

	if acquired {
		e.mu.Lock()
		e.loggedFollower = false
		e.mu.Unlock()

		e.setLeader(true)
		e.log.WithField("instance_id", e.id).Info("Acquired leadership, collector enabled here")

		return
	}

	e.mu.Lock()
	shouldLog := !e.loggedFollower
	e.loggedFollower = true
	e.mu.Unlock()

	if shouldLog {
		holder, _ := e.redis.Get(ctx, e.cfg.LockKey)
		e.log.WithFields(logrus.Fields{
			"instance_id": e.id,
			"leader_id":   holder,
		}).Info("Running as follower")
	}
}

func (e *elector) renew(ctx context.Context) {
	holder, err := e.redis.Get(ctx, e.cfg.LockKey)
	if err != nil {
		e.log.WithError(err).Warn("Failed to check lock holder, losing leadership")
		e.setLeader(false)

		return
	}

	if holder != e.id {
		e.log.WithField("leader_id", holder).Warn("Lost leadership to another instance")
		e.setLeader(false)

		return
	}

	if err := e.redis.Set(ctx, e.cfg.LockKey, e.id, e.cfg.LockTTL); err != nil {
		e.log.WithError(err).Warn("Failed to renew leadership lock")
		e.setLeader(false)

		return
	}

	e.log.Debug("Renewed leadership lock")
}
