package payment

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type scriptedAuthorizer struct {
	responses []func() (AuthorizationResult, error)
	calls     int
}

func (a *scriptedAuthorizer) Authorize(_ context.Context, _ AuthorizationRequest) (AuthorizationResult, error) {
	if a.calls >= len(a.responses) {
		panic("no scripted response left")
	}
	resp := a.responses[a.calls]
	a.calls++
	return resp()
}

func retryable() (AuthorizationResult, error) {
	return AuthorizationResult{}, markRetryable(errors.New("connection refused"))
}

func approved() (AuthorizationResult, error) {
	return AuthorizationResult{Approved: true, PaymentID: "pay-1"}, nil
}

func newTestRetrying(inner Authorizer, attempts int) (*Retrying, *[]time.Duration) {
	r := NewRetrying(inner, attempts, testLogger())
	var sleeps []time.Duration
	r.sleepFn = func(_ context.Context, d time.Duration) error {
		sleeps = append(sleeps, d)
		return nil
	}
	r.jitterFn = func() time.Duration { return 0 }
	return r, &sleeps
}

func TestRetrying_SucceedsAfterTransientFailures(t *testing.T) {
	inner := &scriptedAuthorizer{responses: []func() (AuthorizationResult, error){
		retryable, retryable, approved,
	}}
	r, sleeps := newTestRetrying(inner, 3)

	result, err := r.Authorize(context.Background(), AuthorizationRequest{UserID: "u", GameID: "g"})
	require.NoError(t, err)
	require.True(t, result.Approved)
	require.Equal(t, 3, inner.calls)

	// Exponential backoff: 2s after the first failure, 4s after the second.
	require.Equal(t, []time.Duration{2 * time.Second, 4 * time.Second}, *sleeps)
}

func TestRetrying_ExhaustionYieldsErrUnavailable(t *testing.T) {
	inner := &scriptedAuthorizer{responses: []func() (AuthorizationResult, error){
		retryable, retryable, retryable,
	}}
	r, sleeps := newTestRetrying(inner, 3)

	_, err := r.Authorize(context.Background(), AuthorizationRequest{})
	require.ErrorIs(t, err, ErrUnavailable)
	require.Equal(t, 3, inner.calls)
	// No sleep after the final attempt.
	require.Len(t, *sleeps, 2)
}

func TestRetrying_TerminalErrorIsNotRetried(t *testing.T) {
	terminal := errors.New("invalid payment method")
	inner := &scriptedAuthorizer{responses: []func() (AuthorizationResult, error){
		func() (AuthorizationResult, error) { return AuthorizationResult{}, terminal },
	}}
	r, sleeps := newTestRetrying(inner, 3)

	_, err := r.Authorize(context.Background(), AuthorizationRequest{})
	require.ErrorIs(t, err, terminal)
	require.Equal(t, 1, inner.calls)
	require.Empty(t, *sleeps)
}

func TestRetrying_BusinessDeclineIsNotRetried(t *testing.T) {
	inner := &scriptedAuthorizer{responses: []func() (AuthorizationResult, error){
		func() (AuthorizationResult, error) {
			return AuthorizationResult{Approved: false, Reason: "insufficient funds"}, nil
		},
	}}
	r, _ := newTestRetrying(inner, 3)

	result, err := r.Authorize(context.Background(), AuthorizationRequest{})
	require.NoError(t, err)
	require.False(t, result.Approved)
	require.Equal(t, "insufficient funds", result.Reason)
	require.Equal(t, 1, inner.calls)
}

func TestRetrying_CancelledWhileBackingOff(t *testing.T) {
	inner := &scriptedAuthorizer{responses: []func() (AuthorizationResult, error){
		retryable,
	}}
	r := NewRetrying(inner, 3, testLogger())
	r.jitterFn = func() time.Duration { return 0 }
	r.sleepFn = func(ctx context.Context, _ time.Duration) error {
		return context.Canceled
	}

	_, err := r.Authorize(context.Background(), AuthorizationRequest{})
	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, 1, inner.calls)
}

func TestIsRetryable(t *testing.T) {
	require.True(t, IsRetryable(markRetryable(errors.New("boom"))))
	require.False(t, IsRetryable(errors.New("boom")))
	require.False(t, IsRetryable(nil))
}
