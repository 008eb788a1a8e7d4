package cache_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/donaldgifford/podcast-mirror/internal/cache"
	"github.com/donaldgifford/podcast-mirror/internal/store"
)

type searchArgs struct {
	Term   string `json:"term"`
	Limit  int    `json:"limit"`
	Offset int    `json:"offset"`
}

func TestReadThrough_MissThenHit(t *testing.T) {
	t.Parallel()

	c := cache.New(store.NewMemoryStore())
	args := searchArgs{Term: "history", Limit: 20}

	calls := 0
	fetch := func(context.Context) (string, error) {
		calls++
		return "result-1", nil
	}

	got, err := cache.GetOrFetch(context.Background(), c, "search", args, time.Minute, fetch)
	require.NoError(t, err)
	assert.Equal(t, "result-1", got)
	assert.Equal(t, 1, calls)

	got, err = cache.GetOrFetch(context.Background(), c, "search", args, time.Minute, fetch)
	require.NoError(t, err)
	assert.Equal(t, "result-1", got)
	assert.Equal(t, 1, calls, "second call served from cache")
}

func TestReadThrough_ExpiredEntryRefetches(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	c := cache.New(store.NewMemoryStore(), cache.WithNowFunc(func() time.Time { return now }))

	calls := 0
	fetch := func(context.Context) (int, error) {
		calls++
		return calls, nil
	}

	got, err := cache.GetOrFetch(context.Background(), c, "getShow", "show-1", time.Minute, fetch)
	require.NoError(t, err)
	assert.Equal(t, 1, got)

	// One second before expiry: still a hit.
	now = now.Add(59 * time.Second)
	got, err = cache.GetOrFetch(context.Background(), c, "getShow", "show-1", time.Minute, fetch)
	require.NoError(t, err)
	assert.Equal(t, 1, got)

	// At expiry: refetched.
	now = now.Add(time.Second)
	got, err = cache.GetOrFetch(context.Background(), c, "getShow", "show-1", time.Minute, fetch)
	require.NoError(t, err)
	assert.Equal(t, 2, got)
	assert.Equal(t, 2, calls)
}

func TestReadThrough_DistinctArgsDistinctEntries(t *testing.T) {
	t.Parallel()

	c := cache.New(store.NewMemoryStore())

	fetchA := func(context.Context) (string, error) { return "a", nil }
	fetchB := func(context.Context) (string, error) { return "b", nil }

	got, err := cache.GetOrFetch(context.Background(), c, "getShow", "show-a", time.Minute, fetchA)
	require.NoError(t, err)
	assert.Equal(t, "a", got)

	got, err = cache.GetOrFetch(context.Background(), c, "getShow", "show-b", time.Minute, fetchB)
	require.NoError(t, err)
	assert.Equal(t, "b", got)
}

func TestReadThrough_SameArgsDifferentOpDistinctEntries(t *testing.T) {
	t.Parallel()

	c := cache.New(store.NewMemoryStore())

	got, err := cache.GetOrFetch(context.Background(), c, "getShow", "id-1", time.Minute,
		func(context.Context) (string, error) { return "show", nil })
	require.NoError(t, err)
	assert.Equal(t, "show", got)

	got, err = cache.GetOrFetch(context.Background(), c, "getEpisode", "id-1", time.Minute,
		func(context.Context) (string, error) { return "episode", nil })
	require.NoError(t, err)
	assert.Equal(t, "episode", got)
}

func TestReadThrough_FetchErrorNotCached(t *testing.T) {
	t.Parallel()

	c := cache.New(store.NewMemoryStore())
	boom := errors.New("upstream down")

	_, err := cache.GetOrFetch(context.Background(), c, "search", "x", time.Minute,
		func(context.Context) (string, error) { return "", boom })
	require.ErrorIs(t, err, boom)

	got, err := cache.GetOrFetch(context.Background(), c, "search", "x", time.Minute,
		func(context.Context) (string, error) { return "recovered", nil })
	require.NoError(t, err)
	assert.Equal(t, "recovered", got, "failed fetches leave no entry behind")
}

func TestEntryKey_Stable(t *testing.T) {
	t.Parallel()

	k1, err := cache.EntryKey("search", map[string]any{"term": "news", "limit": 20})
	require.NoError(t, err)
	k2, err := cache.EntryKey("search", map[string]any{"limit": 20, "term": "news"})
	require.NoError(t, err)
	assert.Equal(t, k1, k2, "map key order does not affect the entry key")

	k3, err := cache.EntryKey("search", map[string]any{"term": "news", "limit": 21})
	require.NoError(t, err)
	assert.NotEqual(t, k1, k3)
}

func TestReadThrough_StructResults(t *testing.T) {
	t.Parallel()

	type show struct {
		ID    string `json:"id"`
		Title string `json:"title"`
	}

	c := cache.New(store.NewMemoryStore())

	first, err := cache.GetOrFetch(context.Background(), c, "getShow", "s1", time.Minute,
		func(context.Context) (show, error) { return show{ID: "s1", Title: "Up First"}, nil })
	require.NoError(t, err)

	second, err := cache.GetOrFetch(context.Background(), c, "getShow", "s1", time.Minute,
		func(context.Context) (show, error) {
			t.Fatal("fetch must not run on a hit")
			return show{}, nil
		})
	require.NoError(t, err)
	assert.Equal(t, first, second)
}
