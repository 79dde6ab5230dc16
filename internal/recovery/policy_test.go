package recovery

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/ethpandaops/status-stream/internal/credentials"
	timelinemocks "github.com/ethpandaops/status-stream/internal/timeline/mocks"
)

func TestPolicy_Recover(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	rotator, err := credentials.NewRotator([]string{"a", "b"})
	require.NoError(t, err)

	// Session took "a" at startup.
	assert.Equal(t, "a", rotator.Next())

	var slept []time.Duration

	sleep := func(_ context.Context, d time.Duration) error {
		slept = append(slept, d)

		return nil
	}

	poller := timelinemocks.NewMockPoller(ctrl)
	gomock.InOrder(
		poller.EXPECT().SetCredential("b").Times(1),
		poller.EXPECT().SetCredential("a").Times(1),
	)

	policy := NewPolicy(logger, "test", rotator, DefaultCooldown, sleep)

	require.NoError(t, policy.Recover(context.Background(), poller))
	require.NoError(t, policy.Recover(context.Background(), poller))

	assert.Equal(t, []time.Duration{30 * time.Minute, 30 * time.Minute}, slept)
	assert.Equal(t, DefaultCooldown, policy.Cooldown())
}

func TestPolicy_RecoverInterrupted(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	rotator, err := credentials.NewRotator([]string{"a", "b"})
	require.NoError(t, err)

	// No SetCredential expected.
	poller := timelinemocks.NewMockPoller(ctrl)

	policy := NewPolicy(logger, "test", rotator, time.Hour, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err = policy.Recover(ctx, poller)
	require.ErrorIs(t, err, context.Canceled)

	// Rotation position is untouched.
	assert.Equal(t, "a", rotator.Next())
}
