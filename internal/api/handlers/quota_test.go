package handlers_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/donaldgifford/podcast-mirror/internal/api/handlers"
	"github.com/donaldgifford/podcast-mirror/internal/spotify"
)

func TestQuota_ReportsUsage(t *testing.T) {
	t.Parallel()

	throttle := spotify.NewThrottle(100, 10, 50)
	ctx := context.Background()
	require.NoError(t, throttle.Wait(ctx))
	require.NoError(t, throttle.Wait(ctx))

	_, api := humatest.New(t)
	handlers.RegisterQuotaRoutes(api, handlers.NewQuotaHandler(throttle))

	resp := api.Get("/api/v1/quota")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), `"max_daily":50`)
	assert.Contains(t, resp.Body.String(), `"used":2`)
	assert.Contains(t, resp.Body.String(), `"remaining":48`)
}

func TestQuota_FreshThrottle(t *testing.T) {
	t.Parallel()

	throttle := spotify.NewThrottle(100, 10, 1000)

	_, api := humatest.New(t)
	handlers.RegisterQuotaRoutes(api, handlers.NewQuotaHandler(throttle))

	resp := api.Get("/api/v1/quota")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), `"used":0`)
	assert.Contains(t, resp.Body.String(), `"remaining":1000`)
}
