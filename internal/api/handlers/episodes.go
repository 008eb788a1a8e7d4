package handlers

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/donaldgifford/podcast-mirror/internal/proxy"
	domain "github.com/donaldgifford/podcast-mirror/pkg/types"
)

// EpisodeHandler handles single-episode lookups.
type EpisodeHandler struct {
	svc *proxy.Service
}

// NewEpisodeHandler creates a new EpisodeHandler.
func NewEpisodeHandler(svc *proxy.Service) *EpisodeHandler {
	return &EpisodeHandler{svc: svc}
}

// GetEpisodeInput is the request for a single episode lookup.
type GetEpisodeInput struct {
	ID     string `path:"id" doc:"Episode id" example:"2kN4sE9q7p31M42Leo6o7r"`
	UserID string `header:"X-User-ID" required:"false" doc:"Caller user id"`
}

// GetEpisodeOutput is the response for a single episode lookup.
type GetEpisodeOutput struct {
	Body domain.Episode
}

// GetEpisode returns one episode, served from the cache when warm.
func (h *EpisodeHandler) GetEpisode(ctx context.Context, input *GetEpisodeInput) (*GetEpisodeOutput, error) {
	ep, err := h.svc.GetEpisode(ctx, callerIdentity(input.UserID), input.ID)
	if err != nil {
		return nil, mapProxyError(err)
	}
	return &GetEpisodeOutput{Body: *ep}, nil
}

// RegisterEpisodeRoutes registers episode endpoints with the Huma API.
func RegisterEpisodeRoutes(api huma.API, h *EpisodeHandler) {
	huma.Register(api, huma.Operation{
		OperationID: "get-episode",
		Method:      http.MethodGet,
		Path:        "/api/v1/episodes/{id}",
		Summary:     "Get an episode",
		Description: "Returns one episode from the cache or upstream.",
		Tags:        []string{"catalog"},
		Errors:      []int{http.StatusNotFound, http.StatusTooManyRequests, http.StatusBadGateway},
	}, h.GetEpisode)
}
