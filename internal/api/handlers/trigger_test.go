package handlers_test

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/donaldgifford/podcast-mirror/internal/api/handlers"
	domain "github.com/donaldgifford/podcast-mirror/pkg/types"
)

type fakeSyncer struct {
	summary *domain.SyncSummary
	err     error
	runs    int
}

func (f *fakeSyncer) Run(_ context.Context) (*domain.SyncSummary, error) {
	f.runs++
	return f.summary, f.err
}

func TestTriggerSync_ReturnsSummary(t *testing.T) {
	t.Parallel()

	fs := &fakeSyncer{summary: &domain.SyncSummary{
		CollectionsProcessed: 3,
		ItemsUpserted:        42,
		DurationMs:           1250,
	}}

	_, api := humatest.New(t)
	handlers.RegisterSyncRoutes(api, handlers.NewSyncHandler(fs))

	resp := api.Post("/api/v1/sync")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), `"collections_processed":3`)
	assert.Contains(t, resp.Body.String(), `"items_upserted":42`)
	assert.Equal(t, 1, fs.runs)
}

func TestTriggerSync_PartialFailuresStillSucceed(t *testing.T) {
	t.Parallel()

	fs := &fakeSyncer{summary: &domain.SyncSummary{
		CollectionsProcessed: 2,
		ItemsUpserted:        10,
		Failures: []domain.SyncFailure{
			{ShowID: "show-2", Error: "upstream error: status 500"},
		},
	}}

	_, api := humatest.New(t)
	handlers.RegisterSyncRoutes(api, handlers.NewSyncHandler(fs))

	resp := api.Post("/api/v1/sync")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), "show-2")
}

func TestTriggerSync_RunError(t *testing.T) {
	t.Parallel()

	fs := &fakeSyncer{err: errors.New("store unreachable")}

	_, api := humatest.New(t)
	handlers.RegisterSyncRoutes(api, handlers.NewSyncHandler(fs))

	resp := api.Post("/api/v1/sync")
	assert.Equal(t, http.StatusInternalServerError, resp.Code)
}
