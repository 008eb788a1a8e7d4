package handlers_test

import (
	"context"
	"time"

	"github.com/donaldgifford/podcast-mirror/internal/cache"
	"github.com/donaldgifford/podcast-mirror/internal/catalog"
	"github.com/donaldgifford/podcast-mirror/internal/proxy"
	"github.com/donaldgifford/podcast-mirror/internal/ratelimit"
	"github.com/donaldgifford/podcast-mirror/internal/spotify"
	"github.com/donaldgifford/podcast-mirror/internal/store"
	domain "github.com/donaldgifford/podcast-mirror/pkg/types"
)

// fakeCatalog is a scriptable upstream catalog for handler tests.
type fakeCatalog struct {
	searchResult *spotify.SearchResult
	searchErr    error
	shows        map[string]domain.Show
	showErr      error
	episodePage  *spotify.EpisodePage
	episodes     map[string]domain.Episode

	searchCalls int
	showCalls   int
}

func (f *fakeCatalog) SearchShows(_ context.Context, _ string, _, _ int) (*spotify.SearchResult, error) {
	f.searchCalls++
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	if f.searchResult == nil {
		return &spotify.SearchResult{}, nil
	}
	return f.searchResult, nil
}

func (f *fakeCatalog) GetShow(_ context.Context, id string) (*domain.Show, error) {
	f.showCalls++
	if f.showErr != nil {
		return nil, f.showErr
	}
	show, ok := f.shows[id]
	if !ok {
		return nil, spotify.ErrNotFound
	}
	return &show, nil
}

func (f *fakeCatalog) GetShowEpisodes(_ context.Context, _ string, _ int, _ string) (*spotify.EpisodePage, error) {
	if f.episodePage == nil {
		return &spotify.EpisodePage{}, nil
	}
	return f.episodePage, nil
}

func (f *fakeCatalog) GetEpisode(_ context.Context, id string) (*domain.Episode, error) {
	ep, ok := f.episodes[id]
	if !ok {
		return nil, spotify.ErrNotFound
	}
	return &ep, nil
}

// testEnv wires a proxy service and repository over the in-memory
// store, backed by the given fake catalog.
type testEnv struct {
	store *store.MemoryStore
	repo  *catalog.Repository
	svc   *proxy.Service
}

func newTestEnv(fc *fakeCatalog) *testEnv {
	ms := store.NewMemoryStore()
	repo := catalog.New(ms)
	svc := proxy.New(
		ratelimit.New(ms, ratelimit.DefaultPolicies()),
		cache.New(ms),
		fc,
		repo,
	)
	return &testEnv{store: ms, repo: repo, svc: svc}
}

func timePtr(t time.Time) *time.Time { return &t }
