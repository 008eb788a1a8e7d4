package client

import (
	"context"
	"net/url"

	domain "github.com/donaldgifford/podcast-mirror/pkg/types"
)

// StatusResponse reports a single outcome word.
type StatusResponse struct {
	Status string `json:"status"`
}

// SubscriptionsResponse is the body of a subscription list request.
type SubscriptionsResponse struct {
	ShowIDs []string `json:"show_ids"`
	Count   int      `json:"count"`
}

func subscriptionPath(userID, showID string) string {
	return "/api/v1/users/" + url.PathEscape(userID) + "/subscriptions/" + url.PathEscape(showID)
}

func progressPath(userID, episodeID string) string {
	return "/api/v1/users/" + url.PathEscape(userID) + "/progress/" + url.PathEscape(episodeID)
}

// Subscribe records the user following a show.
func (c *Client) Subscribe(ctx context.Context, userID, showID string) error {
	return c.put(ctx, subscriptionPath(userID, showID), nil, nil)
}

// Unsubscribe stops the user following a show.
func (c *Client) Unsubscribe(ctx context.Context, userID, showID string) error {
	return c.del(ctx, subscriptionPath(userID, showID), nil)
}

// ListSubscriptions returns the ids of every show the user follows.
func (c *Client) ListSubscriptions(ctx context.Context, userID string) (*SubscriptionsResponse, error) {
	var resp SubscriptionsResponse
	if err := c.get(ctx, "/api/v1/users/"+url.PathEscape(userID)+"/subscriptions", &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

type saveProgressRequest struct {
	ShowID      string `json:"show_id"`
	PositionSec int    `json:"position_sec"`
}

// SaveProgress records a playback position. The returned status is
// "saved", or "skipped" when the user does not follow the show.
func (c *Client) SaveProgress(ctx context.Context, userID, showID, episodeID string, positionSec int) (string, error) {
	var resp StatusResponse
	err := c.put(ctx, progressPath(userID, episodeID), saveProgressRequest{
		ShowID:      showID,
		PositionSec: positionSec,
	}, &resp)
	if err != nil {
		return "", err
	}
	return resp.Status, nil
}

// GetProgress returns the user's stored position in an episode.
func (c *Client) GetProgress(ctx context.Context, userID, episodeID string) (*domain.Progress, error) {
	var p domain.Progress
	if err := c.get(ctx, progressPath(userID, episodeID), &p); err != nil {
		return nil, err
	}
	return &p, nil
}
