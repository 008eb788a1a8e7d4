package spotify

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"
)

// ErrDailyLimitReached is returned when the daily upstream call budget
// has been exhausted.
var ErrDailyLimitReached = errors.New("daily upstream call budget reached")

// Throttle controls outbound call rate against the upstream catalog API.
// It uses a token bucket for per-second pacing and a rolling 24-hour
// window for the daily budget. This is a process-local guard that keeps
// sync passes and proxy traffic within the upstream quota; the
// per-caller fixed-window limiter lives in internal/ratelimit.
type Throttle struct {
	limiter     *rate.Limiter
	daily       atomic.Int64
	maxDaily    int64
	windowStart time.Time
	resetAt     time.Time
	mu          sync.Mutex
	nowFunc     func() time.Time
}

// ThrottleOption configures the Throttle.
type ThrottleOption func(*Throttle)

// WithThrottleNowFunc overrides the time function for testing.
func WithThrottleNowFunc(f func() time.Time) ThrottleOption {
	return func(t *Throttle) {
		t.nowFunc = f
	}
}

// NewThrottle creates a throttle with the given per-second rate, burst
// size, and daily budget. The daily budget uses a rolling 24-hour window
// that resets 24 hours after the first call in each window.
func NewThrottle(
	perSecond float64,
	burst int,
	maxDaily int64,
	opts ...ThrottleOption,
) *Throttle {
	t := &Throttle{
		limiter:  rate.NewLimiter(rate.Limit(perSecond), burst),
		maxDaily: maxDaily,
		nowFunc:  time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	now := t.nowFunc()
	t.windowStart = now
	t.resetAt = now.Add(24 * time.Hour)
	return t
}

// Wait blocks until the throttle allows the call, or the context is
// canceled. Returns ErrDailyLimitReached if the daily budget is spent.
func (t *Throttle) Wait(ctx context.Context) error {
	t.checkDailyReset()

	if t.daily.Load() >= t.maxDaily {
		return fmt.Errorf("%w (%d/%d)", ErrDailyLimitReached, t.daily.Load(), t.maxDaily)
	}

	if err := t.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("throttle wait: %w", err)
	}

	t.daily.Add(1)
	return nil
}

// DailyCount returns the current daily call count.
func (t *Throttle) DailyCount() int64 {
	return t.daily.Load()
}

// MaxDaily returns the configured daily budget.
func (t *Throttle) MaxDaily() int64 {
	return t.maxDaily
}

// Remaining returns the number of calls left in the current 24-hour
// window.
func (t *Throttle) Remaining() int64 {
	remaining := t.maxDaily - t.daily.Load()
	if remaining < 0 {
		return 0
	}
	return remaining
}

// ResetAt returns the time when the current 24-hour window expires and
// the daily counter resets.
func (t *Throttle) ResetAt() time.Time {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.resetAt
}

func (t *Throttle) checkDailyReset() {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.nowFunc()
	if now.After(t.resetAt) {
		t.daily.Store(0)
		t.windowStart = now
		t.resetAt = now.Add(24 * time.Hour)
	}
}
