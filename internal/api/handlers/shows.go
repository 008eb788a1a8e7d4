package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/donaldgifford/podcast-mirror/internal/catalog"
	"github.com/donaldgifford/podcast-mirror/internal/proxy"
	"github.com/donaldgifford/podcast-mirror/internal/store"
	domain "github.com/donaldgifford/podcast-mirror/pkg/types"
)

// ShowHandler handles show lookup and tracking requests.
type ShowHandler struct {
	svc  *proxy.Service
	repo *catalog.Repository
}

// NewShowHandler creates a new ShowHandler.
func NewShowHandler(svc *proxy.Service, repo *catalog.Repository) *ShowHandler {
	return &ShowHandler{svc: svc, repo: repo}
}

// GetShowInput is the request for a single show lookup.
type GetShowInput struct {
	ID     string `path:"id" doc:"Show id" example:"5as3aKmN2k11L32Kdo5n6q"`
	UserID string `header:"X-User-ID" required:"false" doc:"Caller user id"`
}

// GetShowOutput is the response for a single show lookup.
type GetShowOutput struct {
	Body domain.Show
}

// GetShow returns one show's metadata, served from the cache when warm.
func (h *ShowHandler) GetShow(ctx context.Context, input *GetShowInput) (*GetShowOutput, error) {
	show, err := h.svc.GetShow(ctx, callerIdentity(input.UserID), input.ID)
	if err != nil {
		return nil, mapProxyError(err)
	}
	return &GetShowOutput{Body: *show}, nil
}

// GetShowEpisodesInput is the request for a show's episode page.
type GetShowEpisodesInput struct {
	ID     string `path:"id" doc:"Show id"`
	Limit  int    `query:"limit" minimum:"1" maximum:"50" required:"false" doc:"Episodes per page (default 20)"`
	Cursor string `query:"cursor" required:"false" doc:"Opaque cursor from a previous page"`
	UserID string `header:"X-User-ID" required:"false" doc:"Caller user id"`
}

// GetShowEpisodesOutput is the response for a show's episode page.
type GetShowEpisodesOutput struct {
	Body struct {
		Episodes   []domain.Episode `json:"episodes" doc:"Episodes in this page"`
		NextCursor string           `json:"next_cursor,omitempty" doc:"Cursor for the next page; empty when exhausted"`
		Total      int              `json:"total" doc:"Total episodes upstream"`
	}
}

// GetShowEpisodes returns one page of a show's episodes.
func (h *ShowHandler) GetShowEpisodes(ctx context.Context, input *GetShowEpisodesInput) (*GetShowEpisodesOutput, error) {
	limit := input.Limit
	if limit <= 0 {
		limit = 20
	}

	page, err := h.svc.GetShowEpisodes(ctx, callerIdentity(input.UserID), input.ID, limit, input.Cursor)
	if err != nil {
		return nil, mapProxyError(err)
	}

	out := &GetShowEpisodesOutput{}
	out.Body.Episodes = page.Episodes
	out.Body.NextCursor = page.NextCursor
	out.Body.Total = page.Total
	return out, nil
}

// ListTrackedInput is the request for the tracked show list.
type ListTrackedInput struct{}

// ListTrackedOutput is the response for the tracked show list.
type ListTrackedOutput struct {
	Body struct {
		Shows []domain.Show `json:"shows" doc:"Shows mirrored by the sync engine"`
		Count int           `json:"count" doc:"Number of tracked shows"`
	}
}

// ListTracked returns every show the mirror keeps in sync.
func (h *ShowHandler) ListTracked(ctx context.Context, _ *ListTrackedInput) (*ListTrackedOutput, error) {
	shows, err := h.repo.TrackedShows(ctx)
	if err != nil {
		return nil, huma.Error500InternalServerError("listing tracked shows", err)
	}

	out := &ListTrackedOutput{}
	out.Body.Shows = shows
	out.Body.Count = len(shows)
	return out, nil
}

// TrackShowInput is the request to start mirroring a show.
type TrackShowInput struct {
	ID     string `path:"id" doc:"Show id"`
	UserID string `header:"X-User-ID" required:"false" doc:"Caller user id"`
}

// TrackShowOutput is the response to a track request.
type TrackShowOutput struct {
	Body domain.Show
}

// TrackShow fetches a show from upstream and stores it so the sync
// engine picks it up on the next pass.
func (h *ShowHandler) TrackShow(ctx context.Context, input *TrackShowInput) (*TrackShowOutput, error) {
	show, err := h.svc.GetShow(ctx, callerIdentity(input.UserID), input.ID)
	if err != nil {
		return nil, mapProxyError(err)
	}
	if err := h.repo.PutShow(ctx, *show); err != nil {
		return nil, huma.Error500InternalServerError("storing show", err)
	}
	return &TrackShowOutput{Body: *show}, nil
}

// LocalEpisodesInput is the request for the mirrored episode list.
type LocalEpisodesInput struct {
	ID     string `path:"id" doc:"Show id"`
	Limit  int    `query:"limit" minimum:"1" maximum:"100" required:"false" doc:"Episodes per page (default 50)"`
	Cursor string `query:"cursor" required:"false" doc:"Opaque cursor from a previous page"`
}

// LocalEpisodesOutput is the response for the mirrored episode list.
type LocalEpisodesOutput struct {
	Body struct {
		Episodes   []domain.Episode `json:"episodes" doc:"Mirrored episodes in this page"`
		NextCursor string           `json:"next_cursor,omitempty" doc:"Cursor for the next page; empty when exhausted"`
	}
}

// LocalEpisodes lists the episodes the mirror has stored for a show,
// without touching upstream.
func (h *ShowHandler) LocalEpisodes(ctx context.Context, input *LocalEpisodesInput) (*LocalEpisodesOutput, error) {
	limit := input.Limit
	if limit <= 0 {
		limit = 50
	}

	eps, next, err := h.repo.ListEpisodes(ctx, input.ID, limit, input.Cursor)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, huma.Error404NotFound("show not found")
		}
		return nil, huma.Error500InternalServerError("listing episodes", err)
	}

	out := &LocalEpisodesOutput{}
	out.Body.Episodes = eps
	out.Body.NextCursor = next
	return out, nil
}

// RegisterShowRoutes registers show endpoints with the Huma API.
func RegisterShowRoutes(api huma.API, h *ShowHandler) {
	huma.Register(api, huma.Operation{
		OperationID: "list-tracked-shows",
		Method:      http.MethodGet,
		Path:        "/api/v1/shows",
		Summary:     "List tracked shows",
		Description: "Returns every show the mirror keeps in sync.",
		Tags:        []string{"catalog"},
	}, h.ListTracked)

	huma.Register(api, huma.Operation{
		OperationID: "get-show",
		Method:      http.MethodGet,
		Path:        "/api/v1/shows/{id}",
		Summary:     "Get a show",
		Description: "Returns one show's metadata from the cache or upstream.",
		Tags:        []string{"catalog"},
		Errors:      []int{http.StatusNotFound, http.StatusTooManyRequests, http.StatusBadGateway},
	}, h.GetShow)

	huma.Register(api, huma.Operation{
		OperationID: "get-show-episodes",
		Method:      http.MethodGet,
		Path:        "/api/v1/shows/{id}/episodes",
		Summary:     "Get a show's episodes",
		Description: "Returns one page of a show's episodes from the cache or upstream.",
		Tags:        []string{"catalog"},
		Errors:      []int{http.StatusNotFound, http.StatusTooManyRequests, http.StatusBadGateway},
	}, h.GetShowEpisodes)

	huma.Register(api, huma.Operation{
		OperationID: "get-show-local-episodes",
		Method:      http.MethodGet,
		Path:        "/api/v1/shows/{id}/episodes/local",
		Summary:     "List mirrored episodes",
		Description: "Returns the episodes already stored for a show without calling upstream.",
		Tags:        []string{"catalog"},
		Errors:      []int{http.StatusNotFound},
	}, h.LocalEpisodes)

	huma.Register(api, huma.Operation{
		OperationID:   "track-show",
		Method:        http.MethodPost,
		Path:          "/api/v1/shows/{id}/track",
		Summary:       "Track a show",
		Description:   "Fetches a show from upstream and adds it to the mirror's sync set.",
		Tags:          []string{"catalog"},
		DefaultStatus: http.StatusCreated,
		Errors:        []int{http.StatusNotFound, http.StatusTooManyRequests, http.StatusBadGateway},
	}, h.TrackShow)
}
