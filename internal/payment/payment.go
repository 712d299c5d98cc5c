// Package payment wraps the synchronous payment-authorization call made by
// the purchase flow. The remote service is authoritative: no library entry
// is created without an approved authorization.
package payment

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

// ErrUnavailable is returned once every retry attempt has been exhausted.
// Callers surface it as a distinct "service unavailable" validation-shaped
// error so it is never confused with a business decline.
var ErrUnavailable = errors.New("payment service unavailable")

// AuthorizationRequest is the cross-service contract of the purchase flow.
type AuthorizationRequest struct {
	UserID        string          `json:"user_id"`
	GameID        string          `json:"game_id"`
	Amount        decimal.Decimal `json:"amount"`
	PaymentMethod string          `json:"payment_method"`
}

// AuthorizationResult is the remote side's answer. A declined authorization
// (Approved false, Reason set) is a successful call carrying a business
// rejection; it is terminal, never retried.
type AuthorizationResult struct {
	Approved  bool   `json:"approved"`
	PaymentID string `json:"payment_id,omitempty"`
	Reason    string `json:"reason,omitempty"`
}

// Authorizer performs one authorization. Implementations return an error
// only for call-level failures; business declines come back in the result.
type Authorizer interface {
	Authorize(ctx context.Context, req AuthorizationRequest) (AuthorizationResult, error)
}

// retryableError marks call-level failures worth another attempt: request
// timeout, no route to the remote side, or an explicit unavailable signal.
type retryableError struct {
	err error
}

func (e *retryableError) Error() string { return e.err.Error() }
func (e *retryableError) Unwrap() error { return e.err }

func markRetryable(err error) error {
	return &retryableError{err: err}
}

// IsRetryable reports whether the failure is a classified-retryable
// condition. Anything else is terminal.
func IsRetryable(err error) bool {
	var r *retryableError
	return errors.As(err, &r)
}
