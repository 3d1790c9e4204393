package lifecycle

import (
	"context"
	"math/rand"
	"time"

	"go.uber.org/zap"

	"github.com/tracelay/workspaced/errors"
)

const (
	retryInitialBackoff = 1 * time.Second
	retryMaxBackoff     = 30 * time.Second
	retryJitter         = 0.2
)

// backoffFor returns the backoff before retry attempt n (0-based): exponential
// from 1s capped at 30s, with ±20% jitter.
func backoffFor(attempt int) time.Duration {
	backoff := retryInitialBackoff
	for i := 0; i < attempt && backoff < retryMaxBackoff; i++ {
		backoff *= 2
	}
	if backoff > retryMaxBackoff {
		backoff = retryMaxBackoff
	}
	jitter := 1 + retryJitter*(2*rand.Float64()-1)
	return time.Duration(float64(backoff) * jitter)
}

// retryUntilSuccess invokes f until it succeeds, backing off between attempts.
// Transient failures are logged and retried indefinitely; cancellation is
// never swallowed and returns the context error.
func retryUntilSuccess[T any](ctx context.Context, log *zap.SugaredLogger, op string, f func(context.Context) (T, error)) (T, error) {
	var zero T
	for attempt := 0; ; attempt++ {
		v, err := f(ctx)
		if err == nil {
			return v, nil
		}
		if ctx.Err() != nil {
			return zero, ctx.Err()
		}
		backoff := backoffFor(attempt)
		log.Warnw("Operation failed, retrying",
			"operation", op,
			"attempt", attempt+1,
			"backoff", backoff,
			"error", err)
		if !sleepCtx(ctx, backoff) {
			return zero, ctx.Err()
		}
	}
}

// retryUntilTimeout invokes f with backoff until the cumulative elapsed time
// exceeds budget, then fails with the last error wrapped in
// errors.ErrRetryBudgetExceeded. Cancellation is never swallowed.
func retryUntilTimeout[T any](ctx context.Context, log *zap.SugaredLogger, op string, budget time.Duration, f func(context.Context) (T, error)) (T, error) {
	var zero T
	deadline := time.Now().Add(budget)
	for attempt := 0; ; attempt++ {
		v, err := f(ctx)
		if err == nil {
			return v, nil
		}
		if ctx.Err() != nil {
			return zero, ctx.Err()
		}
		backoff := backoffFor(attempt)
		if time.Now().Add(backoff).After(deadline) {
			return zero, errors.Wrapf(errors.ErrRetryBudgetExceeded, "%s: %v", op, err)
		}
		log.Debugw("Operation failed, retrying within budget",
			"operation", op,
			"attempt", attempt+1,
			"backoff", backoff,
			"error", err)
		if !sleepCtx(ctx, backoff) {
			return zero, ctx.Err()
		}
	}
}

// sleepCtx sleeps for d, returning false if the context was cancelled first.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}
