package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/donaldgifford/podcast-mirror/internal/spotify"
)

// QuotaHandler reports the upstream daily call budget.
type QuotaHandler struct {
	throttle *spotify.Throttle
}

// NewQuotaHandler creates a new QuotaHandler.
func NewQuotaHandler(t *spotify.Throttle) *QuotaHandler {
	return &QuotaHandler{throttle: t}
}

// QuotaInput is the request for the quota endpoint.
type QuotaInput struct{}

// QuotaOutput is the response for the quota endpoint.
type QuotaOutput struct {
	Body struct {
		MaxDaily  int64     `json:"max_daily" doc:"Daily upstream call budget"`
		Used      int64     `json:"used" doc:"Calls made since the last reset"`
		Remaining int64     `json:"remaining" doc:"Calls left before the budget is exhausted"`
		ResetAt   time.Time `json:"reset_at" doc:"When the daily counter resets"`
	}
}

// Quota returns the upstream call budget and how much of it is spent.
func (h *QuotaHandler) Quota(_ context.Context, _ *QuotaInput) (*QuotaOutput, error) {
	out := &QuotaOutput{}
	out.Body.MaxDaily = h.throttle.MaxDaily()
	out.Body.Used = h.throttle.DailyCount()
	out.Body.Remaining = h.throttle.Remaining()
	out.Body.ResetAt = h.throttle.ResetAt()
	return out, nil
}

// RegisterQuotaRoutes registers the quota endpoint with the Huma API.
func RegisterQuotaRoutes(api huma.API, h *QuotaHandler) {
	huma.Register(api, huma.Operation{
		OperationID: "get-quota",
		Method:      http.MethodGet,
		Path:        "/api/v1/quota",
		Summary:     "Get upstream quota",
		Description: "Returns the daily upstream call budget and current usage.",
		Tags:        []string{"sync"},
	}, h.Quota)
}
