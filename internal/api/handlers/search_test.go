package handlers_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/donaldgifford/podcast-mirror/internal/api/handlers"
	"github.com/donaldgifford/podcast-mirror/internal/cache"
	"github.com/donaldgifford/podcast-mirror/internal/catalog"
	"github.com/donaldgifford/podcast-mirror/internal/proxy"
	"github.com/donaldgifford/podcast-mirror/internal/ratelimit"
	"github.com/donaldgifford/podcast-mirror/internal/spotify"
	"github.com/donaldgifford/podcast-mirror/internal/store"
	domain "github.com/donaldgifford/podcast-mirror/pkg/types"
)

func TestSearch_Anonymous(t *testing.T) {
	t.Parallel()

	fc := &fakeCatalog{
		searchResult: &spotify.SearchResult{
			Shows: []domain.Show{
				{ID: "show-1", Title: "Crime Weekly", Publisher: "CW Media"},
			},
			Total:   1,
			HasMore: false,
		},
	}
	env := newTestEnv(fc)

	_, api := humatest.New(t)
	handlers.RegisterSearchRoutes(api, handlers.NewSearchHandler(env.svc))

	resp := api.Get("/api/v1/search?q=crime")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), "Crime Weekly")
	assert.Contains(t, resp.Body.String(), `"subscribed":false`)
}

func TestSearch_WithUserAnnotatesSubscriptions(t *testing.T) {
	t.Parallel()

	fc := &fakeCatalog{
		searchResult: &spotify.SearchResult{
			Shows: []domain.Show{
				{ID: "show-1", Title: "Followed"},
				{ID: "show-2", Title: "Not Followed"},
			},
			Total: 2,
		},
	}
	env := newTestEnv(fc)
	require.NoError(t, env.repo.Subscribe(context.Background(), "u1", "show-1"))

	_, api := humatest.New(t)
	handlers.RegisterSearchRoutes(api, handlers.NewSearchHandler(env.svc))

	resp := api.Get("/api/v1/search?q=followed", "X-User-ID: u1")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), `"subscribed":true`)
	assert.Contains(t, resp.Body.String(), `"subscribed":false`)
}

func TestSearch_SecondAnonymousCallServedFromCache(t *testing.T) {
	t.Parallel()

	fc := &fakeCatalog{
		searchResult: &spotify.SearchResult{
			Shows: []domain.Show{{ID: "show-1", Title: "Cached"}},
			Total: 1,
		},
	}
	env := newTestEnv(fc)

	_, api := humatest.New(t)
	handlers.RegisterSearchRoutes(api, handlers.NewSearchHandler(env.svc))

	require.Equal(t, http.StatusOK, api.Get("/api/v1/search?q=cached").Code)
	require.Equal(t, http.StatusOK, api.Get("/api/v1/search?q=cached").Code)
	assert.Equal(t, 1, fc.searchCalls)
}

func TestSearch_RateLimited(t *testing.T) {
	t.Parallel()

	fc := &fakeCatalog{searchResult: &spotify.SearchResult{}}

	ms := store.NewMemoryStore()
	svc := proxy.New(
		ratelimit.New(ms, ratelimit.Policies{
			ratelimit.ClassAnonymous: {"*": {MaxRequests: 1, Window: time.Minute}},
		}),
		cache.New(ms),
		fc,
		catalog.New(ms),
	)

	_, api := humatest.New(t)
	handlers.RegisterSearchRoutes(api, handlers.NewSearchHandler(svc))

	require.Equal(t, http.StatusOK, api.Get("/api/v1/search?q=x").Code)
	assert.Equal(t, http.StatusTooManyRequests, api.Get("/api/v1/search?q=y").Code)
}

func TestSearch_UpstreamErrorMapsToBadGateway(t *testing.T) {
	t.Parallel()

	fc := &fakeCatalog{
		searchErr: &spotify.UpstreamError{Status: http.StatusInternalServerError, Body: "boom"},
	}
	env := newTestEnv(fc)

	_, api := humatest.New(t)
	handlers.RegisterSearchRoutes(api, handlers.NewSearchHandler(env.svc))

	resp := api.Get("/api/v1/search?q=crime")
	assert.Equal(t, http.StatusBadGateway, resp.Code)
}

func TestSearch_MissingQueryRejected(t *testing.T) {
	t.Parallel()

	env := newTestEnv(&fakeCatalog{})

	_, api := humatest.New(t)
	handlers.RegisterSearchRoutes(api, handlers.NewSearchHandler(env.svc))

	resp := api.Get("/api/v1/search")
	assert.Equal(t, http.StatusUnprocessableEntity, resp.Code)
}
