package payment

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"
)

const (
	// DefaultMaxAttempts bounds the whole invocation at three physical
	// attempts.
	DefaultMaxAttempts = 3

	maxJitter = 250 * time.Millisecond
)

// Retrying wraps an Authorizer with bounded retries. Attempt n (1-indexed)
// waits 2^n seconds plus a random jitter in [0, 250ms) before the next
// attempt. Only classified-retryable failures are retried; a business
// decline returned by the remote side is a successful call and is never
// retried. Exhaustion yields ErrUnavailable.
type Retrying struct {
	inner       Authorizer
	maxAttempts int
	logger      *slog.Logger

	// Injected for tests.
	sleepFn  func(ctx context.Context, d time.Duration) error
	jitterFn func() time.Duration
}

func NewRetrying(inner Authorizer, maxAttempts int, logger *slog.Logger) *Retrying {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	return &Retrying{
		inner:       inner,
		maxAttempts: maxAttempts,
		logger:      logger.With("component", "[Payment]"),
		sleepFn:     sleepContext,
		jitterFn: func() time.Duration {
			return time.Duration(rand.Int64N(int64(maxJitter)))
		},
	}
}

func (r *Retrying) Authorize(ctx context.Context, req AuthorizationRequest) (AuthorizationResult, error) {
	var lastErr error

	for attempt := 1; attempt <= r.maxAttempts; attempt++ {
		result, err := r.inner.Authorize(ctx, req)
		if err == nil {
			return result, nil
		}
		if !IsRetryable(err) {
			return AuthorizationResult{}, err
		}
		lastErr = err

		r.logger.Warn("Authorization attempt failed",
			"attempt", attempt,
			"max_attempts", r.maxAttempts,
			"user_id", req.UserID,
			"game_id", req.GameID,
			"error", err)

		if attempt == r.maxAttempts {
			break
		}

		backoff := (1 << uint(attempt)) * time.Second
		if err := r.sleepFn(ctx, backoff+r.jitterFn()); err != nil {
			return AuthorizationResult{}, err
		}
	}

	return AuthorizationResult{}, fmt.Errorf("%w after %d attempts: %v", ErrUnavailable, r.maxAttempts, lastErr)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
