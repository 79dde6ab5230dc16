package stream

import (
	"fmt"
	"net"
	"net/http"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ethpandaops/status-stream/internal/backoff"
	"github.com/ethpandaops/status-stream/internal/credentials"
	"github.com/ethpandaops/status-stream/internal/recovery"
	"github.com/ethpandaops/status-stream/internal/timeline"
)

// Verify interface compliance at compile time.
var _ http.Handler = (*Handler)(nil)

// PollerFactory builds the remote client for a new session.
type PollerFactory func(credential string) timeline.Poller

// Handler serves GET /v1/public_timeline as a chunked stream of statuses.
// Sessions share one credential rotator, so consecutive connections start
// on different tokens.
type Handler struct {
	log       logrus.FieldLogger
	cfg       Config
	rotator   *credentials.Rotator
	policy    *recovery.Policy
	newPoller PollerFactory
	sleep     backoff.SleepFunc
}

// Option configures a Handler.
type Option func(*Handler)

// WithSleep replaces the function used for backoff and cooldown waits.
func WithSleep(sleep backoff.SleepFunc) Option {
	return func(h *Handler) {
		h.sleep = sleep
	}
}

// WithPollerFactory replaces how sessions build their remote client.
func WithPollerFactory(factory PollerFactory) Option {
	return func(h *Handler) {
		h.newPoller = factory
	}
}

// NewHandler creates a stream handler for the configured remote.
func NewHandler(
	log logrus.FieldLogger,
	cfg Config,
	remote timeline.Config,
	opts ...Option,
) (*Handler, error) {
	rotator, err := credentials.NewRotator(remote.Credentials)
	if err != nil {
		return nil, fmt.Errorf("create rotator: %w", err)
	}

	h := &Handler{
		log:     log.WithField("component", "stream"),
		cfg:     cfg,
		rotator: rotator,
		sleep:   backoff.Sleep,
	}

	h.newPoller = func(credential string) timeline.Poller {
		return timeline.NewClient(log, remote, credential)
	}

	for _, opt := range opts {
		opt(h)
	}

	h.policy = recovery.NewPolicy(log, "stream", rotator, cfg.Cooldown, h.sleep)

	h.log.WithField("credentials", rotator.Len()).Info("Stream handler ready")

	return h, nil
}

// ServeHTTP runs one streaming session for the lifetime of the request.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	log := h.log.WithFields(logrus.Fields{
		"session_id": uuid.NewString(),
		"remote_ip":  remoteIP(r),
	})

	fib := backoff.NewFibonacci(h.cfg.BackoffStart)

	log.WithFields(logrus.Fields{
		"backoff_start": fib.Start(),
		"cooldown":      h.policy.Cooldown().String(),
	}).Info("Start streaming")

	sessionsActive.Inc()
	sessionsTotal.Inc()

	defer sessionsActive.Dec()

	s := newSession(
		log,
		h.newPoller(h.rotator.Next()),
		h.policy,
		fib,
		newHTTPEmitter(w),
		h.sleep,
	)

	reason := s.run(r.Context())
	sessionCloseTotal.WithLabelValues(reason).Inc()

	log.WithField("reason", reason).Info("Stopped streaming")
}

// remoteIP prefers X-Real-IP set by a fronting proxy.
func remoteIP(r *http.Request) string {
	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return ip
	}

	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}

	return ip
}
