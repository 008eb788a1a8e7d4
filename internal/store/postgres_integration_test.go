//go:build integration

package store_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/donaldgifford/podcast-mirror/internal/store"
)

func setupPostgres(t *testing.T) *store.PostgresStore {
	t.Helper()
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("podcast_mirror_test"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)

	t.Cleanup(func() {
		require.NoError(t, pgContainer.Terminate(ctx))
	})

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	s, err := store.NewPostgresStore(ctx, connStr)
	require.NoError(t, err)

	t.Cleanup(func() {
		s.Close()
	})

	require.NoError(t, s.Migrate(ctx))

	return s
}

func TestPostgresStore_Ping(t *testing.T) {
	s := setupPostgres(t)
	require.NoError(t, s.Ping(context.Background()))
}

func TestPostgresStore_GetPutRoundTrip(t *testing.T) {
	s := setupPostgres(t)
	ctx := context.Background()

	exp := time.Now().Add(time.Hour).Truncate(time.Microsecond).UTC()
	require.NoError(t, s.Put(ctx, store.Item{
		PK: "SHOW#abc", SK: "META",
		Attributes: map[string]any{"title": "Radiolab", "episode_count": float64(42)},
		ExpiresAt:  &exp,
	}))

	it, err := s.Get(ctx, store.Key{PK: "SHOW#abc", SK: "META"})
	require.NoError(t, err)
	assert.Equal(t, "Radiolab", it.Attributes["title"])
	assert.Equal(t, float64(42), it.Attributes["episode_count"])
	require.NotNil(t, it.ExpiresAt)
	assert.WithinDuration(t, exp, *it.ExpiresAt, time.Millisecond)

	_, err = s.Get(ctx, store.Key{PK: "SHOW#abc", SK: "missing"})
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestPostgresStore_ConditionalUpdate(t *testing.T) {
	s := setupPostgres(t)
	ctx := context.Background()

	err := s.ConditionalUpdate(ctx, store.Key{PK: "USER#u1", SK: "PROG#e1"},
		func(it *store.Item) error { return nil })
	require.ErrorIs(t, err, store.ErrConditionFailed)

	require.NoError(t, s.Put(ctx, store.Item{
		PK: "USER#u1", SK: "PROG#e1",
		Attributes: map[string]any{"position_sec": float64(10)},
	}))

	require.NoError(t, s.ConditionalUpdate(ctx, store.Key{PK: "USER#u1", SK: "PROG#e1"},
		func(it *store.Item) error {
			it.Attributes["position_sec"] = float64(99)
			return nil
		}))

	it, err := s.Get(ctx, store.Key{PK: "USER#u1", SK: "PROG#e1"})
	require.NoError(t, err)
	assert.Equal(t, float64(99), it.Attributes["position_sec"])
}

func TestPostgresStore_QueryByPrefix(t *testing.T) {
	s := setupPostgres(t)
	ctx := context.Background()

	for i := range 7 {
		require.NoError(t, s.Put(ctx, store.Item{
			PK: "SHOW#q", SK: fmt.Sprintf("EP#ep-%02d", i),
		}))
	}
	require.NoError(t, s.Put(ctx, store.Item{PK: "SHOW#q", SK: "META"}))

	var got []string
	cursor := ""
	for {
		page, err := s.QueryByPrefix(ctx, "SHOW#q", "EP#", 3, cursor)
		require.NoError(t, err)
		for _, it := range page.Items {
			got = append(got, it.SK)
		}
		if page.NextCursor == "" {
			break
		}
		cursor = page.NextCursor
	}
	assert.Len(t, got, 7)
	assert.Equal(t, "EP#ep-00", got[0])
	assert.Equal(t, "EP#ep-06", got[6])
}

func TestPostgresStore_BatchWrite(t *testing.T) {
	s := setupPostgres(t)
	ctx := context.Background()

	items := make([]store.Item, 0, store.MaxBatchSize)
	for i := range store.MaxBatchSize {
		items = append(items, store.Item{
			PK: "SHOW#b", SK: fmt.Sprintf("EP#ep-%02d", i),
			Attributes: map[string]any{"n": float64(i)},
		})
	}

	unprocessed, err := s.BatchWrite(ctx, items)
	require.NoError(t, err)
	assert.Empty(t, unprocessed)

	page, err := s.QueryByPrefix(ctx, "SHOW#b", "EP#", 50, "")
	require.NoError(t, err)
	assert.Len(t, page.Items, store.MaxBatchSize)

	_, err = s.BatchWrite(ctx, make([]store.Item, store.MaxBatchSize+1))
	require.ErrorIs(t, err, store.ErrBatchTooLarge)
}

func TestPostgresStore_AtomicIncrement(t *testing.T) {
	s := setupPostgres(t)
	ctx := context.Background()
	key := store.Key{PK: "RL#anon", SK: "search#100"}

	n, err := s.AtomicIncrement(ctx, key, "count", 1, time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = s.AtomicIncrement(ctx, key, "count", 2, time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	it, err := s.Get(ctx, key)
	require.NoError(t, err)
	require.NotNil(t, it.ExpiresAt)
}
