package handlers

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	domain "github.com/donaldgifford/podcast-mirror/pkg/types"
)

// Syncer runs one full sync pass over the tracked catalog.
type Syncer interface {
	Run(ctx context.Context) (*domain.SyncSummary, error)
}

// SyncHandler exposes the manual sync trigger.
type SyncHandler struct {
	syncer Syncer
}

// NewSyncHandler creates a new SyncHandler.
func NewSyncHandler(s Syncer) *SyncHandler {
	return &SyncHandler{syncer: s}
}

// TriggerSyncInput is the request for a manual sync.
type TriggerSyncInput struct{}

// TriggerSyncOutput is the response for a manual sync.
type TriggerSyncOutput struct {
	Body domain.SyncSummary
}

// TriggerSync runs a sync pass inline and returns its summary.
// Per-show failures are reported in the summary, not as a request
// error; only a pass that cannot run at all fails the request.
func (h *SyncHandler) TriggerSync(ctx context.Context, _ *TriggerSyncInput) (*TriggerSyncOutput, error) {
	summary, err := h.syncer.Run(ctx)
	if err != nil {
		return nil, huma.Error500InternalServerError("sync failed", err)
	}
	return &TriggerSyncOutput{Body: *summary}, nil
}

// RegisterSyncRoutes registers the sync trigger with the Huma API.
func RegisterSyncRoutes(api huma.API, h *SyncHandler) {
	huma.Register(api, huma.Operation{
		OperationID: "trigger-sync",
		Method:      http.MethodPost,
		Path:        "/api/v1/sync",
		Summary:     "Trigger a sync pass",
		Description: "Runs one full sync pass over the tracked shows and returns its summary.",
		Tags:        []string{"sync"},
	}, h.TriggerSync)
}
