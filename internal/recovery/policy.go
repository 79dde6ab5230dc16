package recovery

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/ethpandaops/status-stream/internal/backoff"
	"github.com/ethpandaops/status-stream/internal/credentials"
	"github.com/ethpandaops/status-stream/internal/timeline"
)

// DefaultCooldown is how long a rejected credential is left alone before
// polling resumes with the next one.
const DefaultCooldown = 30 * time.Minute

var rotationsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "status_stream_credential_rotations_total",
		Help: "Total number of credential rotations after a rejection",
	},
	[]string{"consumer"},
)

func init() {
	prometheus.MustRegister(rotationsTotal)
}

// Policy recovers a poller whose credential was rejected: it waits out the
// cooldown, then moves the poller to the next credential in the rotation.
// Streaming sessions and the collector share this behaviour.
type Policy struct {
	log      logrus.FieldLogger
	consumer string
	rotator  *credentials.Rotator
	cooldown time.Duration
	sleep    backoff.SleepFunc
}

// NewPolicy creates a policy for consumer. A nil sleep uses backoff.Sleep.
func NewPolicy(
	log logrus.FieldLogger,
	consumer string,
	rotator *credentials.Rotator,
	cooldown time.Duration,
	sleep backoff.SleepFunc,
) *Policy {
	if sleep == nil {
		sleep = backoff.Sleep
	}

	return &Policy{
		log:      log.WithField("component", "recovery"),
		consumer: consumer,
		rotator:  rotator,
		cooldown: cooldown,
		sleep:    sleep,
	}
}

// Cooldown returns the configured cooldown.
func (p *Policy) Cooldown() time.Duration {
	return p.cooldown
}

// Recover sleeps for the cooldown and rotates the poller's credential. If ctx
// ends during the cooldown the credential is left unchanged and ctx's error
// is returned.
func (p *Policy) Recover(ctx context.Context, poller timeline.Poller) error {
	p.log.WithFields(logrus.Fields{
		"consumer": p.consumer,
		"cooldown": p.cooldown.String(),
	}).Warn("Access token is blocked, cooling down")

	if err := p.sleep(ctx, p.cooldown); err != nil {
		return fmt.Errorf("cooldown interrupted: %w", err)
	}

	poller.SetCredential(p.rotator.Next())
	rotationsTotal.WithLabelValues(p.consumer).Inc()

	p.log.WithField("consumer", p.consumer).Info("Rotated to next access token")

	return nil
}
