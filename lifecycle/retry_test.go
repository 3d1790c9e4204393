package lifecycle

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/tracelay/workspaced/errors"
)

func TestBackoffFor_Bounds(t *testing.T) {
	// attempt 0: 1s +-20% jitter
	b := backoffFor(0)
	assert.GreaterOrEqual(t, b, 800*time.Millisecond)
	assert.LessOrEqual(t, b, 1200*time.Millisecond)

	// deep attempts cap at 30s +-20%
	b = backoffFor(20)
	assert.GreaterOrEqual(t, b, 24*time.Second)
	assert.LessOrEqual(t, b, 36*time.Second)
}

func TestRetryUntilSuccess_FirstTry(t *testing.T) {
	log := zaptest.NewLogger(t).Sugar()
	calls := 0
	v, err := retryUntilSuccess(context.Background(), log, "op", func(ctx context.Context) (int, error) {
		calls++
		return 7, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 7, v)
	assert.Equal(t, 1, calls)
}

func TestRetryUntilSuccess_CancelledDuringBackoff(t *testing.T) {
	log := zaptest.NewLogger(t).Sugar()
	ctx, cancel := context.WithCancel(context.Background())

	calls := 0
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()
	_, err := retryUntilSuccess(ctx, log, "op", func(ctx context.Context) (int, error) {
		calls++
		return 0, errors.New("transient")
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestRetryUntilSuccess_CancellationNotSwallowed(t *testing.T) {
	log := zaptest.NewLogger(t).Sugar()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := retryUntilSuccess(ctx, log, "op", func(ctx context.Context) (int, error) {
		return 0, ctx.Err()
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRetryUntilTimeout_BudgetExceeded(t *testing.T) {
	log := zaptest.NewLogger(t).Sugar()

	calls := 0
	_, err := retryUntilTimeout(context.Background(), log, "op", 10*time.Millisecond, func(ctx context.Context) (int, error) {
		calls++
		return 0, errors.New("transient")
	})
	require.Error(t, err)
	assert.True(t, errors.IsRetryBudgetExceeded(err))
	// the first backoff already exceeds the tiny budget
	assert.Equal(t, 1, calls)
}

func TestRetryUntilTimeout_Success(t *testing.T) {
	log := zaptest.NewLogger(t).Sugar()
	v, err := retryUntilTimeout(context.Background(), log, "op", time.Second, func(ctx context.Context) (string, error) {
		return "ok", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", v)
}
