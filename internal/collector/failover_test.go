package collector

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/ethpandaops/status-stream/internal/credentials"
	leadermocks "github.com/ethpandaops/status-stream/internal/leader/mocks"
	"github.com/ethpandaops/status-stream/internal/recovery"
	sinkmocks "github.com/ethpandaops/status-stream/internal/sink/mocks"
	"github.com/ethpandaops/status-stream/internal/timeline"
)

func statusIDs(statuses []timeline.Status) []uint64 {
	ids := make([]uint64, 0, len(statuses))
	for _, s := range statuses {
		ids = append(ids, s.ID)
	}

	return ids
}

func TestCollector_FailoverResumesFromStoredWatermark(t *testing.T) {
	remote := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"statuses":[{"id":110},{"id":100},{"id":90}]}`)
	}))
	t.Cleanup(remote.Close)

	redisClient, mr := startRedis(t)
	ctrl := gomock.NewController(t)

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	remoteCfg := timeline.Config{Endpoint: remote.URL, Credentials: []string{"a"}}
	require.NoError(t, remoteCfg.Validate())

	cfg := Config{KeyPrefix: "test"}
	require.NoError(t, cfg.Validate())

	rotator, err := credentials.NewRotator(remoteCfg.Credentials)
	require.NoError(t, err)

	elector := leadermocks.NewMockElector(ctrl)
	store := sinkmocks.NewMockSink(ctrl)

	var stored [][]uint64

	store.EXPECT().InsertBatch(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, statuses []timeline.Status) (int, error) {
			stored = append(stored, statusIDs(statuses))

			return len(statuses), nil
		},
	).AnyTimes()

	c := New(
		logger,
		cfg,
		timeline.NewClient(logger, remoteCfg, rotator.Next()),
		recovery.NewPolicy(logger, "collector", rotator, cfg.Cooldown, nil),
		store,
		NewRedisGate(redisClient, cfg.GateKey(), true),
		elector,
		redisClient,
	)

	ctx := context.Background()

	// Boots as a follower before any leader stored a watermark.
	require.NoError(t, c.restoreWatermark(ctx))

	elector.EXPECT().IsLeader().Return(false)
	result, _ := c.collect(ctx)
	assert.Equal(t, resultFollower, result)

	// Meanwhile the previous leader stored up to 100, then lost the lock.
	require.NoError(t, mr.Set(cfg.WatermarkKey(), "100"))

	elector.EXPECT().IsLeader().Return(true).Times(2)

	result, inserted := c.collect(ctx)
	assert.Equal(t, resultOK, result)
	assert.Equal(t, 1, inserted)

	result, _ = c.collect(ctx)
	assert.Equal(t, resultEmpty, result)

	assert.Equal(t, [][]uint64{{110}}, stored)

	val, err := mr.Get(cfg.WatermarkKey())
	require.NoError(t, err)
	assert.Equal(t, "110", val)
}

func TestCollector_NewLeaderRestoresBeforePolling(t *testing.T) {
	f := newFixture(t)
	f.c.wasLeader = false

	gomock.InOrder(
		f.redis.EXPECT().Get(gomock.Any(), "test:collector:last_id").Return("", assert.AnError),
		f.redis.EXPECT().Get(gomock.Any(), "test:collector:last_id").Return("100", nil),
		f.poller.EXPECT().SetLastID(uint64(100)),
		f.poller.EXPECT().Poll(gomock.Any()).Return([]timeline.Status{}, nil),
		f.poller.EXPECT().Poll(gomock.Any()).Return([]timeline.Status{}, nil),
	)

	f.gate.EXPECT().IsOpen(gomock.Any()).Return(true, nil).Times(3)
	f.elector.EXPECT().IsLeader().Return(true).Times(3)

	// An unreadable watermark skips the tick instead of polling from a stale one.
	result, _ := f.c.collect(context.Background())
	assert.Equal(t, resultWatermarkError, result)

	result, _ = f.c.collect(context.Background())
	assert.Equal(t, resultEmpty, result)

	// Still leader: no second restore.
	result, _ = f.c.collect(context.Background())
	assert.Equal(t, resultEmpty, result)
}
