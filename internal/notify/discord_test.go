package notify_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/donaldgifford/podcast-mirror/internal/notify"
	domain "github.com/donaldgifford/podcast-mirror/pkg/types"
)

func TestDiscordNotifier_CleanPass(t *testing.T) {
	t.Parallel()

	var body []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		var err error
		body, err = io.ReadAll(r.Body)
		require.NoError(t, err)
		w.WriteHeader(http.StatusNoContent)
	}))
	t.Cleanup(srv.Close)

	n := notify.NewDiscordNotifier(srv.URL)
	err := n.SendSyncReport(context.Background(), domain.SyncSummary{
		CollectionsProcessed: 4,
		ItemsUpserted:        12,
		DurationMs:           1500,
	})
	require.NoError(t, err)

	var payload struct {
		Embeds []struct {
			Title  string `json:"title"`
			Color  int    `json:"color"`
			Fields []struct {
				Name  string `json:"name"`
				Value string `json:"value"`
			} `json:"fields"`
		} `json:"embeds"`
	}
	require.NoError(t, json.Unmarshal(body, &payload))
	require.Len(t, payload.Embeds, 1)

	embed := payload.Embeds[0]
	assert.Equal(t, "Catalog sync complete", embed.Title)
	assert.Equal(t, 0x2ECC71, embed.Color)
	require.Len(t, embed.Fields, 3)
	assert.Equal(t, "4", embed.Fields[0].Value)
	assert.Equal(t, "12", embed.Fields[1].Value)
	assert.Equal(t, "1.5s", embed.Fields[2].Value)
}

func TestDiscordNotifier_FailuresListed(t *testing.T) {
	t.Parallel()

	var body []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var err error
		body, err = io.ReadAll(r.Body)
		require.NoError(t, err)
		w.WriteHeader(http.StatusNoContent)
	}))
	t.Cleanup(srv.Close)

	n := notify.NewDiscordNotifier(srv.URL)
	err := n.SendSyncReport(context.Background(), domain.SyncSummary{
		CollectionsProcessed: 3,
		ItemsUpserted:        5,
		Failures: []domain.SyncFailure{
			{ShowID: "show-2", Error: "upstream returned 503"},
		},
	})
	require.NoError(t, err)

	var payload struct {
		Embeds []struct {
			Title  string `json:"title"`
			Color  int    `json:"color"`
			Fields []struct {
				Name  string `json:"name"`
				Value string `json:"value"`
			} `json:"fields"`
		} `json:"embeds"`
	}
	require.NoError(t, json.Unmarshal(body, &payload))
	require.Len(t, payload.Embeds, 1)

	embed := payload.Embeds[0]
	assert.Equal(t, "Catalog sync completed with failures", embed.Title)
	assert.Equal(t, 0xE74C3C, embed.Color)
	require.Len(t, embed.Fields, 4)
	assert.Equal(t, "show-2", embed.Fields[3].Name)
	assert.Equal(t, "upstream returned 503", embed.Fields[3].Value)
}

func TestDiscordNotifier_ErrorStatuses(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		status  int
		wantErr string
	}{
		{name: "rate limited", status: http.StatusTooManyRequests, wantErr: "rate limited"},
		{name: "server error", status: http.StatusInternalServerError, wantErr: "discord returned 500"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
			}))
			t.Cleanup(srv.Close)

			n := notify.NewDiscordNotifier(srv.URL)
			err := n.SendSyncReport(context.Background(), domain.SyncSummary{})
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
