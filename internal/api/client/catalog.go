package client

import (
	"context"
	"fmt"
	"net/url"

	domain "github.com/donaldgifford/podcast-mirror/pkg/types"
)

// SearchResponse is the body of a search request.
type SearchResponse struct {
	Shows   []domain.AnnotatedShow `json:"shows"`
	Total   int                    `json:"total"`
	HasMore bool                   `json:"has_more"`
}

// Search searches the catalog for shows.
func (c *Client) Search(ctx context.Context, query string, limit, offset int) (*SearchResponse, error) {
	q := url.Values{}
	q.Set("q", query)
	if limit > 0 {
		q.Set("limit", fmt.Sprint(limit))
	}
	if offset > 0 {
		q.Set("offset", fmt.Sprint(offset))
	}

	var resp SearchResponse
	if err := c.get(ctx, "/api/v1/search?"+q.Encode(), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetShow returns one show by id.
func (c *Client) GetShow(ctx context.Context, id string) (*domain.Show, error) {
	var show domain.Show
	if err := c.get(ctx, "/api/v1/shows/"+url.PathEscape(id), &show); err != nil {
		return nil, err
	}
	return &show, nil
}

// EpisodesResponse is the body of an episode page request.
type EpisodesResponse struct {
	Episodes   []domain.Episode `json:"episodes"`
	NextCursor string           `json:"next_cursor"`
	Total      int              `json:"total"`
}

// GetShowEpisodes returns one page of a show's episodes.
func (c *Client) GetShowEpisodes(ctx context.Context, showID string, limit int, cursor string) (*EpisodesResponse, error) {
	q := url.Values{}
	if limit > 0 {
		q.Set("limit", fmt.Sprint(limit))
	}
	if cursor != "" {
		q.Set("cursor", cursor)
	}

	path := "/api/v1/shows/" + url.PathEscape(showID) + "/episodes"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var resp EpisodesResponse
	if err := c.get(ctx, path, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetEpisode returns one episode by id.
func (c *Client) GetEpisode(ctx context.Context, id string) (*domain.Episode, error) {
	var ep domain.Episode
	if err := c.get(ctx, "/api/v1/episodes/"+url.PathEscape(id), &ep); err != nil {
		return nil, err
	}
	return &ep, nil
}

// TrackedShowsResponse is the body of a tracked show list request.
type TrackedShowsResponse struct {
	Shows []domain.Show `json:"shows"`
	Count int           `json:"count"`
}

// ListTracked returns every show the mirror keeps in sync.
func (c *Client) ListTracked(ctx context.Context) (*TrackedShowsResponse, error) {
	var resp TrackedShowsResponse
	if err := c.get(ctx, "/api/v1/shows", &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// TrackShow adds a show to the mirror's sync set.
func (c *Client) TrackShow(ctx context.Context, id string) (*domain.Show, error) {
	var show domain.Show
	if err := c.post(ctx, "/api/v1/shows/"+url.PathEscape(id)+"/track", nil, &show); err != nil {
		return nil, err
	}
	return &show, nil
}
