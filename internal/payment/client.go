package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"
)

const authorizePath = "/v1/authorizations"

// Client calls the payment service over HTTP. Each Authorize call is one
// physical attempt with its own timeout; retrying lives in the Retrying
// wrapper so the policy stays in one place.
type Client struct {
	baseURL        string
	httpClient     *http.Client
	attemptTimeout time.Duration
}

func NewClient(baseURL string, attemptTimeout time.Duration) *Client {
	if attemptTimeout <= 0 {
		attemptTimeout = 5 * time.Second
	}
	return &Client{
		baseURL:        baseURL,
		httpClient:     &http.Client{},
		attemptTimeout: attemptTimeout,
	}
}

func (c *Client) Authorize(ctx context.Context, req AuthorizationRequest) (AuthorizationResult, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return AuthorizationResult{}, fmt.Errorf("marshal authorization request: %w", err)
	}

	attemptCtx, cancel := context.WithTimeout(ctx, c.attemptTimeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(attemptCtx, http.MethodPost, c.baseURL+authorizePath, bytes.NewReader(body))
	if err != nil {
		return AuthorizationResult{}, fmt.Errorf("build authorization request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return AuthorizationResult{}, classifyTransportError(ctx, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		var result AuthorizationResult
		if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
			return AuthorizationResult{}, fmt.Errorf("decode authorization response: %w", err)
		}
		return result, nil

	case resp.StatusCode == http.StatusBadGateway,
		resp.StatusCode == http.StatusServiceUnavailable,
		resp.StatusCode == http.StatusGatewayTimeout:
		// Explicit remote-unavailable signal.
		io.Copy(io.Discard, resp.Body)
		return AuthorizationResult{}, markRetryable(fmt.Errorf("payment service returned %d", resp.StatusCode))

	default:
		io.Copy(io.Discard, resp.Body)
		return AuthorizationResult{}, fmt.Errorf("payment service returned unexpected status %d", resp.StatusCode)
	}
}

// classifyTransportError separates attempt-level timeouts and no-route
// conditions (retryable) from caller cancellation and everything else
// (terminal).
func classifyTransportError(parent context.Context, err error) error {
	// The caller gave up; never retry past that.
	if parent.Err() != nil {
		return parent.Err()
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return markRetryable(fmt.Errorf("authorization attempt timed out: %w", err))
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return markRetryable(fmt.Errorf("authorization attempt timed out: %w", err))
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		// Connection refused, no route to host, DNS failure.
		return markRetryable(fmt.Errorf("payment service unreachable: %w", err))
	}

	return fmt.Errorf("authorization call failed: %w", err)
}
