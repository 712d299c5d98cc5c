package payment

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestClient_Authorize_Approved(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, authorizePath, r.URL.Path)

		var req AuthorizationRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, "user-1", req.UserID)
		require.True(t, req.Amount.Equal(decimal.NewFromFloat(59.99)))

		json.NewEncoder(w).Encode(AuthorizationResult{Approved: true, PaymentID: "pay-1"})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, time.Second)
	result, err := client.Authorize(context.Background(), AuthorizationRequest{
		UserID: "user-1",
		GameID: "game-1",
		Amount: decimal.NewFromFloat(59.99),
	})
	require.NoError(t, err)
	require.True(t, result.Approved)
	require.Equal(t, "pay-1", result.PaymentID)
}

func TestClient_Authorize_Declined(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode(AuthorizationResult{Approved: false, Reason: "insufficient funds"})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, time.Second)
	result, err := client.Authorize(context.Background(), AuthorizationRequest{})
	// A decline is a successful call carrying a business rejection.
	require.NoError(t, err)
	require.False(t, result.Approved)
	require.Equal(t, "insufficient funds", result.Reason)
}

func TestClient_Authorize_UnavailableStatusesAreRetryable(t *testing.T) {
	for _, status := range []int{http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout} {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(status)
		}))

		client := NewClient(srv.URL, time.Second)
		_, err := client.Authorize(context.Background(), AuthorizationRequest{})
		require.Error(t, err, status)
		require.True(t, IsRetryable(err), "status %d must be retryable", status)
		srv.Close()
	}
}

func TestClient_Authorize_ClientErrorIsTerminal(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, time.Second)
	_, err := client.Authorize(context.Background(), AuthorizationRequest{})
	require.Error(t, err)
	require.False(t, IsRetryable(err))
}

func TestClient_Authorize_AttemptTimeoutIsRetryable(t *testing.T) {
	started := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Drain the body so the server arms close detection; otherwise the
		// request context is never cancelled and srv.Close deadlocks.
		io.Copy(io.Discard, r.Body)
		close(started)
		<-r.Context().Done()
	}))
	defer srv.Close()

	client := NewClient(srv.URL, 50*time.Millisecond)
	_, err := client.Authorize(context.Background(), AuthorizationRequest{})
	<-started
	require.Error(t, err)
	require.True(t, IsRetryable(err))
}

func TestClient_Authorize_ConnectionRefusedIsRetryable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	srv.Close() // nothing listens on this address now

	client := NewClient(srv.URL, time.Second)
	_, err := client.Authorize(context.Background(), AuthorizationRequest{})
	require.Error(t, err)
	require.True(t, IsRetryable(err))
}

func TestClient_Authorize_CallerCancellationIsTerminal(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.Copy(io.Discard, r.Body)
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	client := NewClient(srv.URL, time.Second)
	_, err := client.Authorize(ctx, AuthorizationRequest{})
	require.ErrorIs(t, err, context.Canceled)
	require.False(t, IsRetryable(err))
}
