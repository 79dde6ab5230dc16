package collector

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	collectormocks "github.com/ethpandaops/status-stream/internal/collector/mocks"
	"github.com/ethpandaops/status-stream/internal/credentials"
	leadermocks "github.com/ethpandaops/status-stream/internal/leader/mocks"
	"github.com/ethpandaops/status-stream/internal/recovery"
	"github.com/ethpandaops/status-stream/internal/redis"
	redismocks "github.com/ethpandaops/status-stream/internal/redis/mocks"
	sinkmocks "github.com/ethpandaops/status-stream/internal/sink/mocks"
	"github.com/ethpandaops/status-stream/internal/timeline"
	timelinemocks "github.com/ethpandaops/status-stream/internal/timeline/mocks"
)

type fixture struct {
	poller  *timelinemocks.MockPoller
	sink    *sinkmocks.MockSink
	gate    *collectormocks.MockGate
	elector *leadermocks.MockElector
	redis   *redismocks.MockClient
	slept   []time.Duration
	c       *Collector
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	ctrl := gomock.NewController(t)

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	f := &fixture{
		poller:  timelinemocks.NewMockPoller(ctrl),
		sink:    sinkmocks.NewMockSink(ctrl),
		gate:    collectormocks.NewMockGate(ctrl),
		elector: leadermocks.NewMockElector(ctrl),
		redis:   redismocks.NewMockClient(ctrl),
	}

	rotator, err := credentials.NewRotator([]string{"a", "b"})
	require.NoError(t, err)

	rotator.Next()

	sleep := func(_ context.Context, d time.Duration) error {
		f.slept = append(f.slept, d)

		return nil
	}

	cfg := Config{KeyPrefix: "test"}
	require.NoError(t, cfg.Validate())

	policy := recovery.NewPolicy(logger, "collector", rotator, cfg.Cooldown, sleep)

	f.c = New(logger, cfg, f.poller, policy, f.sink, f.gate, f.elector, f.redis)

	// Most cases tick as an established leader.
	f.c.wasLeader = true

	return f
}

func batch(ids ...uint64) []timeline.Status {
	out := make([]timeline.Status, 0, len(ids))
	for _, id := range ids {
		out = append(out, timeline.Status{ID: id, Raw: []byte(fmt.Sprintf(`{"id":%d}`, id))})
	}

	return out
}

func TestCollector_Collect(t *testing.T) {
	tests := []struct {
		name             string
		setup            func(f *fixture)
		expectedResult   string
		expectedInserted int
		expectedSlept    []time.Duration
	}{
		{
			name: "paused gate skips tick",
			setup: func(f *fixture) {
				f.gate.EXPECT().IsOpen(gomock.Any()).Return(false, nil)
			},
			expectedResult: resultPaused,
		},
		{
			name: "gate error skips tick",
			setup: func(f *fixture) {
				f.gate.EXPECT().IsOpen(gomock.Any()).Return(false, assert.AnError)
			},
			expectedResult: resultGateError,
		},
		{
			name: "follower skips tick",
			setup: func(f *fixture) {
				f.gate.EXPECT().IsOpen(gomock.Any()).Return(true, nil)
				f.elector.EXPECT().IsLeader().Return(false)
			},
			expectedResult: resultFollower,
		},
		{
			name: "new statuses stored and watermark saved",
			setup: func(f *fixture) {
				f.gate.EXPECT().IsOpen(gomock.Any()).Return(true, nil)
				f.elector.EXPECT().IsLeader().Return(true)
				f.poller.EXPECT().Poll(gomock.Any()).Return(batch(30, 20), nil)
				f.sink.EXPECT().InsertBatch(gomock.Any(), batch(30, 20)).Return(2, nil)
				f.poller.EXPECT().LastID().Return(uint64(30))
				f.redis.EXPECT().Set(gomock.Any(), "test:collector:last_id", "30", time.Duration(0)).Return(nil)
			},
			expectedResult:   resultOK,
			expectedInserted: 2,
		},
		{
			name: "nothing new",
			setup: func(f *fixture) {
				f.gate.EXPECT().IsOpen(gomock.Any()).Return(true, nil)
				f.elector.EXPECT().IsLeader().Return(true)
				f.poller.EXPECT().Poll(gomock.Any()).Return([]timeline.Status{}, nil)
			},
			expectedResult: resultEmpty,
		},
		{
			name: "rejected credential rotates after cooldown",
			setup: func(f *fixture) {
				f.gate.EXPECT().IsOpen(gomock.Any()).Return(true, nil)
				f.elector.EXPECT().IsLeader().Return(true)
				f.poller.EXPECT().Poll(gomock.Any()).Return(nil, &timeline.PollError{
					StatusCode: http.StatusForbidden,
					Err:        timeline.ErrCredentialRejected,
				})
				f.poller.EXPECT().SetCredential("b")
			},
			expectedResult: resultRejected,
			expectedSlept:  []time.Duration{30 * time.Minute},
		},
		{
			name: "remote failure",
			setup: func(f *fixture) {
				f.gate.EXPECT().IsOpen(gomock.Any()).Return(true, nil)
				f.elector.EXPECT().IsLeader().Return(true)
				f.poller.EXPECT().Poll(gomock.Any()).Return(nil, &timeline.PollError{StatusCode: http.StatusBadGateway})
			},
			expectedResult: resultError,
		},
		{
			name: "sink failure keeps watermark",
			setup: func(f *fixture) {
				f.gate.EXPECT().IsOpen(gomock.Any()).Return(true, nil)
				f.elector.EXPECT().IsLeader().Return(true)
				f.poller.EXPECT().Poll(gomock.Any()).Return(batch(5), nil)
				f.sink.EXPECT().InsertBatch(gomock.Any(), gomock.Any()).Return(0, assert.AnError)
			},
			expectedResult: resultSinkError,
		},
		{
			name: "partial sink failure reports what was stored",
			setup: func(f *fixture) {
				f.gate.EXPECT().IsOpen(gomock.Any()).Return(true, nil)
				f.elector.EXPECT().IsLeader().Return(true)
				f.poller.EXPECT().Poll(gomock.Any()).Return(batch(7, 6, 5), nil)
				f.sink.EXPECT().InsertBatch(gomock.Any(), gomock.Any()).Return(2, assert.AnError)
			},
			expectedResult:   resultSinkError,
			expectedInserted: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			tt.setup(f)

			result, inserted := f.c.collect(context.Background())

			assert.Equal(t, tt.expectedResult, result)
			assert.Equal(t, tt.expectedInserted, inserted)
			assert.Equal(t, tt.expectedSlept, f.slept)
		})
	}
}

func TestCollector_TickTracksTotals(t *testing.T) {
	f := newFixture(t)

	f.gate.EXPECT().IsOpen(gomock.Any()).Return(true, nil).AnyTimes()
	f.elector.EXPECT().IsLeader().Return(true).AnyTimes()
	f.poller.EXPECT().LastID().Return(uint64(3)).AnyTimes()
	f.redis.EXPECT().Set(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil).AnyTimes()

	gomock.InOrder(
		f.poller.EXPECT().Poll(gomock.Any()).Return(batch(2, 1), nil),
		f.poller.EXPECT().Poll(gomock.Any()).Return(batch(3), nil),
		f.poller.EXPECT().Poll(gomock.Any()).Return([]timeline.Status{}, nil),
	)

	f.sink.EXPECT().InsertBatch(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, statuses []timeline.Status) (int, error) {
			return len(statuses), nil
		},
	).Times(2)

	for range 3 {
		f.c.tick(context.Background())
	}

	status := f.c.Status(context.Background())

	assert.True(t, status.Running)
	assert.True(t, status.Leader)
	assert.Equal(t, resultEmpty, status.LastResult)
	assert.Equal(t, 1, status.LastInserted)
	assert.Equal(t, 3, status.TotalInserted)
	assert.Equal(t, uint64(3), status.LastID)
	assert.False(t, status.LastTick.IsZero())
}

func TestCollector_RestoreWatermark(t *testing.T) {
	tests := []struct {
		name      string
		value     string
		getErr    error
		expectSet bool
		wantErr   bool
	}{
		{name: "stored watermark", value: "42", expectSet: true},
		{name: "no watermark yet", getErr: fmt.Errorf("%w: k", redis.ErrNotFound)},
		{name: "redis failure", getErr: assert.AnError, wantErr: true},
		{name: "corrupt value", value: "abc", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)

			f.redis.EXPECT().Get(gomock.Any(), "test:collector:last_id").Return(tt.value, tt.getErr)

			if tt.expectSet {
				f.poller.EXPECT().SetLastID(uint64(42))
			}

			err := f.c.restoreWatermark(context.Background())
			if tt.wantErr {
				require.Error(t, err)

				return
			}

			require.NoError(t, err)
		})
	}
}

func TestCollector_StartStop(t *testing.T) {
	f := newFixture(t)
	f.c.cfg.Interval = 20 * time.Millisecond

	f.redis.EXPECT().Get(gomock.Any(), "test:collector:last_id").Return("7", nil)
	f.poller.EXPECT().SetLastID(uint64(7))
	f.poller.EXPECT().LastID().Return(uint64(7)).AnyTimes()
	f.gate.EXPECT().IsOpen(gomock.Any()).Return(false, nil).AnyTimes()
	f.elector.EXPECT().IsLeader().Return(false).AnyTimes()

	require.NoError(t, f.c.Start(context.Background()))

	require.Eventually(t, func() bool {
		return f.c.Status(context.Background()).LastResult == resultPaused
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, f.c.Stop())
}

func TestCollector_PauseResume(t *testing.T) {
	f := newFixture(t)

	gomock.InOrder(
		f.gate.EXPECT().Close(gomock.Any()).Return(nil),
		f.gate.EXPECT().Open(gomock.Any()).Return(nil),
	)

	require.NoError(t, f.c.Pause(context.Background()))
	require.NoError(t, f.c.Resume(context.Background()))
}

func TestConfig_Validate(t *testing.T) {
	cfg := Config{}
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 10*time.Second, cfg.Interval)
	assert.Equal(t, 30*time.Minute, cfg.Cooldown)
	assert.Equal(t, "status-stream:collector:gate", cfg.GateKey())

	bad := Config{Interval: time.Millisecond}
	require.Error(t, bad.Validate())
}
