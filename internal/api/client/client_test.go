package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/donaldgifford/podcast-mirror/pkg/types"
)

func TestClient_ConnectionRefused(t *testing.T) {
	t.Parallel()

	c := New("http://127.0.0.1:1") // nothing listening
	_, err := c.ListTracked(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "API server not running")
}

func TestClient_HTTPError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"internal"}`))
	}))
	defer srv.Close()

	c := New(srv.URL)
	_, err := c.ListTracked(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "API error (HTTP 500)")
}

func TestClient_Search(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/search", r.URL.Path)
		assert.Equal(t, "true crime", r.URL.Query().Get("q"))
		assert.Equal(t, "5", r.URL.Query().Get("limit"))

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(SearchResponse{
			Shows: []domain.AnnotatedShow{
				{Show: domain.Show{ID: "show-1", Title: "Crime Weekly"}},
			},
			Total: 1,
		})
	}))
	defer srv.Close()

	c := New(srv.URL)
	resp, err := c.Search(context.Background(), "true crime", 5, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, resp.Total)
	require.Len(t, resp.Shows, 1)
	assert.Equal(t, "show-1", resp.Shows[0].ID)
}

func TestClient_SearchSendsUserHeader(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "u1", r.Header.Get("X-User-ID"))
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(SearchResponse{})
	}))
	defer srv.Close()

	c := New(srv.URL, WithUserID("u1"))
	_, err := c.Search(context.Background(), "x", 0, 0)
	require.NoError(t, err)
}

func TestClient_TrackShow(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/shows/show-1/track", r.URL.Path)

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(domain.Show{ID: "show-1", Title: "Tracked"})
	}))
	defer srv.Close()

	c := New(srv.URL)
	show, err := c.TrackShow(context.Background(), "show-1")
	require.NoError(t, err)
	assert.Equal(t, "Tracked", show.Title)
}

func TestClient_SubscribeAndUnsubscribe(t *testing.T) {
	t.Parallel()

	var methods []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		methods = append(methods, r.Method)
		assert.Equal(t, "/api/v1/users/u1/subscriptions/show-1", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(StatusResponse{Status: "ok"})
	}))
	defer srv.Close()

	c := New(srv.URL)
	require.NoError(t, c.Subscribe(context.Background(), "u1", "show-1"))
	require.NoError(t, c.Unsubscribe(context.Background(), "u1", "show-1"))
	assert.Equal(t, []string{http.MethodPut, http.MethodDelete}, methods)
}

func TestClient_SaveProgress(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/api/v1/users/u1/progress/ep-1", r.URL.Path)

		var body saveProgressRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "show-1", body.ShowID)
		assert.Equal(t, 90, body.PositionSec)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(StatusResponse{Status: "saved"})
	}))
	defer srv.Close()

	c := New(srv.URL)
	status, err := c.SaveProgress(context.Background(), "u1", "show-1", "ep-1", 90)
	require.NoError(t, err)
	assert.Equal(t, "saved", status)
}

func TestClient_TriggerSync(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/sync", r.URL.Path)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(domain.SyncSummary{
			CollectionsProcessed: 2,
			ItemsUpserted:        17,
		})
	}))
	defer srv.Close()

	c := New(srv.URL)
	summary, err := c.TriggerSync(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, summary.CollectionsProcessed)
	assert.Equal(t, 17, summary.ItemsUpserted)
}

func TestClient_Quota(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/quota", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(QuotaResponse{MaxDaily: 1000, Used: 40, Remaining: 960})
	}))
	defer srv.Close()

	c := New(srv.URL)
	quota, err := c.Quota(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(960), quota.Remaining)
}

func TestWithHTTPClient(t *testing.T) {
	t.Parallel()

	custom := &http.Client{}
	c := New("http://example.com", WithHTTPClient(custom))
	assert.Same(t, custom, c.httpClient)
}
