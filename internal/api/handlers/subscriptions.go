package handlers

import (
	"context"
	"errors"
	"net/http"
	"sort"

	"github.com/danielgtaylor/huma/v2"

	"github.com/donaldgifford/podcast-mirror/internal/catalog"
	"github.com/donaldgifford/podcast-mirror/internal/store"
	domain "github.com/donaldgifford/podcast-mirror/pkg/types"
)

// SubscriptionHandler handles per-user subscription and playback
// progress requests.
type SubscriptionHandler struct {
	repo *catalog.Repository
}

// NewSubscriptionHandler creates a new SubscriptionHandler.
func NewSubscriptionHandler(repo *catalog.Repository) *SubscriptionHandler {
	return &SubscriptionHandler{repo: repo}
}

// SubscribeInput is the request to follow a show.
type SubscribeInput struct {
	UserID string `path:"userID" doc:"User id"`
	ShowID string `path:"showID" doc:"Show id"`
}

// Subscribe records the user following a show. Subscribing twice is
// idempotent.
func (h *SubscriptionHandler) Subscribe(ctx context.Context, input *SubscribeInput) (*StatusOutput, error) {
	if err := h.repo.Subscribe(ctx, input.UserID, input.ShowID); err != nil {
		return nil, huma.Error500InternalServerError("saving subscription", err)
	}

	out := &StatusOutput{}
	out.Body.Status = "subscribed"
	return out, nil
}

// Unsubscribe stops the user following a show. Unsubscribing a show
// the user never followed is a no-op.
func (h *SubscriptionHandler) Unsubscribe(ctx context.Context, input *SubscribeInput) (*StatusOutput, error) {
	if err := h.repo.Unsubscribe(ctx, input.UserID, input.ShowID); err != nil {
		return nil, huma.Error500InternalServerError("removing subscription", err)
	}

	out := &StatusOutput{}
	out.Body.Status = "unsubscribed"
	return out, nil
}

// ListSubscriptionsInput is the request for a user's subscription list.
type ListSubscriptionsInput struct {
	UserID string `path:"userID" doc:"User id"`
}

// ListSubscriptionsOutput is the response for a user's subscription
// list.
type ListSubscriptionsOutput struct {
	Body struct {
		ShowIDs []string `json:"show_ids" doc:"Ids of actively followed shows"`
		Count   int      `json:"count" doc:"Number of active subscriptions"`
	}
}

// ListSubscriptions returns the ids of every show the user actively
// follows.
func (h *SubscriptionHandler) ListSubscriptions(ctx context.Context, input *ListSubscriptionsInput) (*ListSubscriptionsOutput, error) {
	ids, err := h.repo.SubscribedShowIDs(ctx, input.UserID)
	if err != nil {
		return nil, huma.Error500InternalServerError("listing subscriptions", err)
	}

	out := &ListSubscriptionsOutput{}
	out.Body.ShowIDs = make([]string, 0, len(ids))
	for id := range ids {
		out.Body.ShowIDs = append(out.Body.ShowIDs, id)
	}
	sort.Strings(out.Body.ShowIDs)
	out.Body.Count = len(out.Body.ShowIDs)
	return out, nil
}

// SaveProgressInput is the request to record a playback position.
type SaveProgressInput struct {
	UserID    string `path:"userID" doc:"User id"`
	EpisodeID string `path:"episodeID" doc:"Episode id"`
	Body      struct {
		ShowID      string `json:"show_id" minLength:"1" doc:"Show the episode belongs to"`
		PositionSec int    `json:"position_sec" minimum:"0" doc:"Playback position in seconds"`
	}
}

// SaveProgress records the user's playback position. The write is
// conditional on an active subscription; for a show the user does not
// follow it reports "skipped" instead of failing the request.
func (h *SubscriptionHandler) SaveProgress(ctx context.Context, input *SaveProgressInput) (*StatusOutput, error) {
	err := h.repo.SaveProgress(ctx, input.Body.ShowID, domain.Progress{
		UserID:      input.UserID,
		EpisodeID:   input.EpisodeID,
		PositionSec: input.Body.PositionSec,
	})

	out := &StatusOutput{}
	switch {
	case errors.Is(err, catalog.ErrNotSubscribed):
		out.Body.Status = "skipped"
	case err != nil:
		return nil, huma.Error500InternalServerError("saving progress", err)
	default:
		out.Body.Status = "saved"
	}
	return out, nil
}

// GetProgressInput is the request for a stored playback position.
type GetProgressInput struct {
	UserID    string `path:"userID" doc:"User id"`
	EpisodeID string `path:"episodeID" doc:"Episode id"`
}

// GetProgressOutput is the response for a stored playback position.
type GetProgressOutput struct {
	Body domain.Progress
}

// GetProgress returns the user's stored position in an episode.
func (h *SubscriptionHandler) GetProgress(ctx context.Context, input *GetProgressInput) (*GetProgressOutput, error) {
	p, err := h.repo.GetProgress(ctx, input.UserID, input.EpisodeID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, huma.Error404NotFound("no progress recorded")
		}
		return nil, huma.Error500InternalServerError("loading progress", err)
	}
	return &GetProgressOutput{Body: *p}, nil
}

// RegisterSubscriptionRoutes registers subscription and progress
// endpoints with the Huma API.
func RegisterSubscriptionRoutes(api huma.API, h *SubscriptionHandler) {
	huma.Register(api, huma.Operation{
		OperationID: "list-subscriptions",
		Method:      http.MethodGet,
		Path:        "/api/v1/users/{userID}/subscriptions",
		Summary:     "List subscriptions",
		Description: "Returns the ids of every show the user actively follows.",
		Tags:        []string{"users"},
	}, h.ListSubscriptions)

	huma.Register(api, huma.Operation{
		OperationID:   "subscribe",
		Method:        http.MethodPut,
		Path:          "/api/v1/users/{userID}/subscriptions/{showID}",
		Summary:       "Subscribe to a show",
		Description:   "Records the user following a show. Idempotent.",
		Tags:          []string{"users"},
		DefaultStatus: http.StatusCreated,
	}, h.Subscribe)

	huma.Register(api, huma.Operation{
		OperationID: "unsubscribe",
		Method:      http.MethodDelete,
		Path:        "/api/v1/users/{userID}/subscriptions/{showID}",
		Summary:     "Unsubscribe from a show",
		Description: "Stops the user following a show. A no-op for shows never followed.",
		Tags:        []string{"users"},
	}, h.Unsubscribe)

	huma.Register(api, huma.Operation{
		OperationID: "save-progress",
		Method:      http.MethodPut,
		Path:        "/api/v1/users/{userID}/progress/{episodeID}",
		Summary:     "Save playback progress",
		Description: "Records the user's playback position. Skipped when the user does not follow the show.",
		Tags:        []string{"users"},
	}, h.SaveProgress)

	huma.Register(api, huma.Operation{
		OperationID: "get-progress",
		Method:      http.MethodGet,
		Path:        "/api/v1/users/{userID}/progress/{episodeID}",
		Summary:     "Get playback progress",
		Description: "Returns the user's stored position in an episode.",
		Tags:        []string{"users"},
		Errors:      []int{http.StatusNotFound},
	}, h.GetProgress)
}
