package stream

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"

	"github.com/ethpandaops/status-stream/internal/backoff"
	"github.com/ethpandaops/status-stream/internal/recovery"
	"github.com/ethpandaops/status-stream/internal/timeline"
)

// State is a streaming session state.
type State string

const (
	StateInitializing       State = "initializing"
	StatePolling            State = "polling"
	StateDelivering         State = "delivering"
	StateIdleBackoff        State = "idle_backoff"
	StateCredentialCooldown State = "credential_cooldown"
	StateClosed             State = "closed"
)

// Close reasons reported in logs and metrics.
const (
	reasonDisconnected = "disconnected"
	reasonRemoteError  = "remote_error"
	reasonWriteFailed  = "write_failed"
)

// session drives one client connection: poll, deliver or back off, repeat.
// Everything it holds is owned by the serving goroutine.
type session struct {
	log     logrus.FieldLogger
	poller  timeline.Poller
	policy  *recovery.Policy
	fib     *backoff.Fibonacci
	emitter Emitter
	sleep   backoff.SleepFunc
	state   State
}

func newSession(
	log logrus.FieldLogger,
	poller timeline.Poller,
	policy *recovery.Policy,
	fib *backoff.Fibonacci,
	emitter Emitter,
	sleep backoff.SleepFunc,
) *session {
	return &session{
		log:     log,
		poller:  poller,
		policy:  policy,
		fib:     fib,
		emitter: emitter,
		sleep:   sleep,
		state:   StateInitializing,
	}
}

// run streams until the client goes away or the remote fails. ctx is the
// inbound request context. It returns the close reason.
func (s *session) run(ctx context.Context) string {
	if err := s.emitter.Open(); err != nil {
		s.log.WithError(err).Warn("Failed to open stream")

		return s.close(reasonWriteFailed)
	}

	// An in-flight poll completes even if the client leaves meanwhile.
	pollCtx := context.WithoutCancel(ctx)

	for {
		s.enter(StatePolling)

		statuses, err := s.poller.Poll(pollCtx)

		if ctx.Err() != nil {
			return s.close(reasonDisconnected)
		}

		var wait int

		switch {
		case err == nil && len(statuses) > 0:
			s.enter(StateDelivering)

			if err := s.deliver(statuses); err != nil {
				s.log.WithError(err).Warn("Failed to write to client")

				return s.close(reasonWriteFailed)
			}

			s.fib.Reset()
			wait = s.fib.Next()
		case err == nil:
			s.enter(StateIdleBackoff)
			s.log.Warn("No new statuses")

			wait = s.fib.Next()
		case errors.Is(err, timeline.ErrCredentialRejected):
			s.enter(StateCredentialCooldown)

			if err := s.policy.Recover(ctx, s.poller); err != nil {
				return s.close(reasonDisconnected)
			}

			if ctx.Err() != nil {
				return s.close(reasonDisconnected)
			}

			continue
		default:
			s.log.WithError(err).Error("Remote API poll failed, closing stream")

			if err := s.emitter.Terminate(); err != nil {
				s.log.WithError(err).Debug("Failed to terminate stream")
			}

			return s.close(reasonRemoteError)
		}

		s.log.WithField("seconds", wait).Debug("Sleeping before next poll")

		if err := s.sleep(ctx, backoff.Seconds(wait)); err != nil {
			return s.close(reasonDisconnected)
		}
	}
}

func (s *session) deliver(statuses []timeline.Status) error {
	for _, st := range statuses {
		if err := s.emitter.Emit(st.Raw); err != nil {
			return err
		}
	}

	s.log.WithField("count", len(statuses)).Debug("Delivered statuses")

	return nil
}

func (s *session) enter(state State) {
	if state == s.state {
		return
	}

	s.log.WithFields(logrus.Fields{
		"from":  s.state,
		"state": state,
	}).Debug("Session state changed")

	s.state = state
}

func (s *session) close(reason string) string {
	s.enter(StateClosed)

	return reason
}
