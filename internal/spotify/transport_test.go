package spotify_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/donaldgifford/podcast-mirror/internal/spotify"
)

// staticTokens is a TokenProvider that serves a fixed token and records
// invalidations.
type staticTokens struct {
	token         string
	invalidations atomic.Int32
}

func (s *staticTokens) Token(_ context.Context) (string, error) {
	return s.token, nil
}

func (s *staticTokens) Invalidate() {
	s.invalidations.Add(1)
}

// recordingSleep collects backoff durations instead of sleeping.
func recordingSleep(sleeps *[]time.Duration) func(context.Context, time.Duration) error {
	return func(_ context.Context, d time.Duration) error {
		*sleeps = append(*sleeps, d)
		return nil
	}
}

func TestRetryingClient_Success(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	c := spotify.NewRetryingClient(&staticTokens{token: "tok"})

	body, err := c.Do(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.JSONEq(t, `{"ok":true}`, string(body))
}

func TestRetryingClient_RetriesAuthFailure(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	tokens := &staticTokens{token: "tok"}
	c := spotify.NewRetryingClient(tokens)

	body, err := c.Do(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.JSONEq(t, `{"ok":true}`, string(body))
	assert.Equal(t, int32(1), tokens.invalidations.Load(), "401 invalidates the token")
	assert.Equal(t, int32(2), calls.Load())
}

func TestRetryingClient_AuthRetriesExhausted(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	tokens := &staticTokens{token: "tok"}
	c := spotify.NewRetryingClient(tokens)

	_, err := c.Do(context.Background(), srv.URL)
	require.ErrorIs(t, err, spotify.ErrAuth)
	assert.Equal(t, int32(3), calls.Load(), "exactly the attempt budget")
	assert.Equal(t, int32(3), tokens.invalidations.Load())
}

func TestRetryingClient_RateLimitRetryAfterHeader(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) == 1 {
			w.Header().Set("Retry-After", "5")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	var sleeps []time.Duration
	c := spotify.NewRetryingClient(
		&staticTokens{token: "tok"},
		spotify.WithSleepFunc(recordingSleep(&sleeps)),
	)

	_, err := c.Do(context.Background(), srv.URL)
	require.NoError(t, err)
	require.Len(t, sleeps, 1)
	assert.Equal(t, 5*time.Second, sleeps[0], "Retry-After takes precedence")
}

func TestRetryingClient_RateLimitExponentialBackoff(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	var sleeps []time.Duration
	c := spotify.NewRetryingClient(
		&staticTokens{token: "tok"},
		spotify.WithSleepFunc(recordingSleep(&sleeps)),
	)

	_, err := c.Do(context.Background(), srv.URL)
	require.ErrorIs(t, err, spotify.ErrRateLimited)
	assert.Equal(t, int32(3), calls.Load(), "no further requests after the budget")

	// 2^(attempt+1) seconds, and no sleep after the final attempt.
	require.Len(t, sleeps, 2)
	assert.Equal(t, 2*time.Second, sleeps[0])
	assert.Equal(t, 4*time.Second, sleeps[1])
}

func TestRetryingClient_NotFound(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := spotify.NewRetryingClient(&staticTokens{token: "tok"})

	_, err := c.Do(context.Background(), srv.URL)
	require.ErrorIs(t, err, spotify.ErrNotFound)
}

func TestRetryingClient_OtherStatusFailsImmediately(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("upstream exploded"))
	}))
	defer srv.Close()

	c := spotify.NewRetryingClient(&staticTokens{token: "tok"})

	_, err := c.Do(context.Background(), srv.URL)
	require.Error(t, err)

	var upErr *spotify.UpstreamError
	require.ErrorAs(t, err, &upErr)
	assert.Equal(t, http.StatusBadGateway, upErr.Status)
	assert.Contains(t, upErr.Body, "upstream exploded")
	assert.Equal(t, int32(1), calls.Load(), "non-retryable status is not retried")
}

func TestRetryingClient_SleepCanceledByContext(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := spotify.NewRetryingClient(&staticTokens{token: "tok"})

	_, err := c.Do(ctx, srv.URL)
	require.ErrorIs(t, err, context.Canceled)
}
