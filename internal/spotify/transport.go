package spotify

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/donaldgifford/podcast-mirror/internal/metrics"
)

// maxAttempts is the total attempt budget per upstream call, shared by
// auth-expiry and rate-limit retries.
const maxAttempts = 3

// RetryingClient issues authorized requests against the upstream catalog
// API with a bounded retry loop. 401 invalidates the cached token and
// retries with a fresh one; 429 honors Retry-After (or exponential
// backoff) and retries; any other non-2xx fails immediately. Every
// upstream call site goes through Do.
type RetryingClient struct {
	tokens TokenProvider
	client *http.Client
	sleep  func(ctx context.Context, d time.Duration) error
}

// RetryOption configures the RetryingClient.
type RetryOption func(*RetryingClient)

// WithRetryHTTPClient overrides the default HTTP client.
func WithRetryHTTPClient(hc *http.Client) RetryOption {
	return func(c *RetryingClient) {
		c.client = hc
	}
}

// WithSleepFunc overrides the backoff sleep for testing.
func WithSleepFunc(f func(ctx context.Context, d time.Duration) error) RetryOption {
	return func(c *RetryingClient) {
		c.sleep = f
	}
}

// NewRetryingClient creates a RetryingClient using the given token
// provider for bearer credentials.
func NewRetryingClient(tokens TokenProvider, opts ...RetryOption) *RetryingClient {
	c := &RetryingClient{
		tokens: tokens,
		client: &http.Client{Timeout: 30 * time.Second},
		sleep:  sleepCtx,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Do issues an authorized GET against url and returns the response body.
func (c *RetryingClient) Do(ctx context.Context, url string) ([]byte, error) {
	var lastErr error

	for attempt := range maxAttempts {
		token, err := c.tokens.Token(ctx)
		if err != nil {
			return nil, fmt.Errorf("getting auth token: %w", err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
		if err != nil {
			return nil, fmt.Errorf("creating HTTP request: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("executing upstream request: %w", err)
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("reading response body: %w", err)
		}

		switch {
		case resp.StatusCode >= 200 && resp.StatusCode < 300:
			return body, nil

		case resp.StatusCode == http.StatusUnauthorized:
			// Token expired or was revoked upstream. The next attempt
			// fetches a fresh one transparently.
			c.tokens.Invalidate()
			metrics.UpstreamRetriesTotal.WithLabelValues("auth").Inc()
			lastErr = fmt.Errorf("attempt %d got 401: %w", attempt+1, ErrAuth)

		case resp.StatusCode == http.StatusTooManyRequests:
			metrics.UpstreamRetriesTotal.WithLabelValues("rate_limit").Inc()
			lastErr = fmt.Errorf("attempt %d got 429: %w", attempt+1, ErrRateLimited)

			if attempt < maxAttempts-1 {
				delay := retryDelay(resp.Header.Get("Retry-After"), attempt)
				if err := c.sleep(ctx, delay); err != nil {
					return nil, err
				}
			}

		case resp.StatusCode == http.StatusNotFound:
			return nil, fmt.Errorf("GET %s: %w", url, ErrNotFound)

		default:
			return nil, &UpstreamError{Status: resp.StatusCode, Body: string(body)}
		}
	}

	return nil, fmt.Errorf("upstream retries exhausted after %d attempts: %w", maxAttempts, lastErr)
}

// retryDelay computes the backoff before the next attempt after a 429:
// the Retry-After header in seconds when present and numeric, otherwise
// 2^(attempt+1) seconds.
func retryDelay(retryAfter string, attempt int) time.Duration {
	if retryAfter != "" {
		if secs, err := strconv.Atoi(retryAfter); err == nil && secs >= 0 {
			return time.Duration(secs) * time.Second
		}
	}
	return time.Duration(1<<(attempt+1)) * time.Second
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
