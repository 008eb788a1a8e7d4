package spotify_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/donaldgifford/podcast-mirror/internal/spotify"
)

func TestThrottle_Wait(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		rate    float64
		burst   int
		daily   int64
		calls   int
		wantErr bool
	}{
		{
			name:  "allows calls within rate",
			rate:  100,
			burst: 10,
			daily: 5000,
			calls: 3,
		},
		{
			name:  "allows burst",
			rate:  100,
			burst: 5,
			daily: 5000,
			calls: 5,
		},
		{
			name:    "rejects when daily budget spent",
			rate:    100,
			burst:   10,
			daily:   2,
			calls:   3,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			th := spotify.NewThrottle(tt.rate, tt.burst, tt.daily)

			var lastErr error
			for range tt.calls {
				lastErr = th.Wait(context.Background())
				if lastErr != nil {
					break
				}
			}

			if tt.wantErr {
				require.ErrorIs(t, lastErr, spotify.ErrDailyLimitReached)
			} else {
				require.NoError(t, lastErr)
			}
		})
	}
}

func TestThrottle_Remaining(t *testing.T) {
	t.Parallel()

	th := spotify.NewThrottle(100, 10, 3)

	assert.Equal(t, int64(3), th.Remaining())
	require.NoError(t, th.Wait(context.Background()))
	require.NoError(t, th.Wait(context.Background()))
	assert.Equal(t, int64(1), th.Remaining())
	assert.Equal(t, int64(2), th.DailyCount())
}

func TestThrottle_DailyReset(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 1, 15, 23, 59, 0, 0, time.UTC)
	var mu sync.Mutex
	currentTime := now

	th := spotify.NewThrottle(
		100, 10, 2,
		spotify.WithThrottleNowFunc(func() time.Time {
			mu.Lock()
			defer mu.Unlock()
			return currentTime
		}),
	)

	require.NoError(t, th.Wait(context.Background()))
	require.NoError(t, th.Wait(context.Background()))
	require.ErrorIs(t, th.Wait(context.Background()), spotify.ErrDailyLimitReached)

	// Rolling 24-hour window expires; the budget refills.
	mu.Lock()
	currentTime = now.Add(24*time.Hour + time.Minute)
	mu.Unlock()

	require.NoError(t, th.Wait(context.Background()))
	assert.Equal(t, int64(1), th.DailyCount())
}
