// Package spotify provides a client for the upstream podcast catalog API
// abstracted behind interfaces for testability. Token lifecycle,
// retry/backoff, and outbound throttling all live here; callers see only
// normalized domain types.
package spotify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"

	"github.com/donaldgifford/podcast-mirror/internal/metrics"
	domain "github.com/donaldgifford/podcast-mirror/pkg/types"
)

const (
	defaultAPIURL = "https://api.spotify.com/v1"
	defaultMarket = "US"
)

// SearchResult holds one page of show search results.
type SearchResult struct {
	Shows   []domain.Show
	Total   int
	HasMore bool
}

// EpisodePage holds one page of a show's episodes. NextCursor is the
// opaque pagination cursor for the following page; empty means the
// listing is exhausted.
type EpisodePage struct {
	Episodes   []domain.Episode
	NextCursor string
	Total      int
}

// CatalogClient defines the operations the rest of the system needs from
// the upstream catalog.
type CatalogClient interface {
	SearchShows(ctx context.Context, term string, limit, offset int) (*SearchResult, error)
	GetShow(ctx context.Context, id string) (*domain.Show, error)
	GetShowEpisodes(ctx context.Context, showID string, limit int, cursor string) (*EpisodePage, error)
	GetEpisode(ctx context.Context, id string) (*domain.Episode, error)
}

// Client implements CatalogClient against the upstream HTTP API.
type Client struct {
	http     *RetryingClient
	apiURL   string
	market   string
	throttle *Throttle
}

// ClientOption configures the Client.
type ClientOption func(*Client)

// WithAPIURL overrides the default API base URL.
func WithAPIURL(u string) ClientOption {
	return func(c *Client) {
		c.apiURL = u
	}
}

// WithMarket overrides the default market.
func WithMarket(m string) ClientOption {
	return func(c *Client) {
		c.market = m
	}
}

// WithThrottle injects an outbound throttle. When set, every upstream
// call goes through Wait() first.
func WithThrottle(t *Throttle) ClientOption {
	return func(c *Client) {
		c.throttle = t
	}
}

// NewClient creates a catalog client that issues calls through the given
// retrying transport.
func NewClient(transport *RetryingClient, opts ...ClientOption) *Client {
	c := &Client{
		http:   transport,
		apiURL: defaultAPIURL,
		market: defaultMarket,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SearchShows queries the catalog for shows matching term.
func (c *Client) SearchShows(
	ctx context.Context,
	term string,
	limit, offset int,
) (*SearchResult, error) {
	if limit <= 0 {
		limit = 20
	}

	params := url.Values{}
	params.Set("q", term)
	params.Set("type", "show")
	params.Set("market", c.market)
	params.Set("limit", strconv.Itoa(limit))
	if offset > 0 {
		params.Set("offset", strconv.Itoa(offset))
	}

	body, err := c.get(ctx, c.apiURL+"/search?"+params.Encode())
	if err != nil {
		return nil, fmt.Errorf("searching shows: %w", err)
	}

	var resp searchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("parsing search response: %w", err)
	}

	return &SearchResult{
		Shows:   toShows(resp.Shows.Items),
		Total:   resp.Shows.Total,
		HasMore: resp.Shows.Next != "",
	}, nil
}

// GetShow retrieves a single show's metadata.
func (c *Client) GetShow(ctx context.Context, id string) (*domain.Show, error) {
	params := url.Values{}
	params.Set("market", c.market)

	body, err := c.get(ctx, c.apiURL+"/shows/"+url.PathEscape(id)+"?"+params.Encode())
	if err != nil {
		return nil, fmt.Errorf("getting show %s: %w", id, err)
	}

	var obj showObject
	if err := json.Unmarshal(body, &obj); err != nil {
		return nil, fmt.Errorf("parsing show response: %w", err)
	}

	show := toShow(&obj)
	return &show, nil
}

// GetShowEpisodes retrieves one page of a show's episodes, most recent
// first. The cursor is the offset extracted from the previous page's
// next link; empty requests the first page.
func (c *Client) GetShowEpisodes(
	ctx context.Context,
	showID string,
	limit int,
	cursor string,
) (*EpisodePage, error) {
	if limit <= 0 {
		limit = 50
	}

	params := url.Values{}
	params.Set("market", c.market)
	params.Set("limit", strconv.Itoa(limit))
	if cursor != "" {
		params.Set("offset", cursor)
	}

	body, err := c.get(ctx, c.apiURL+"/shows/"+url.PathEscape(showID)+"/episodes?"+params.Encode())
	if err != nil {
		return nil, fmt.Errorf("listing episodes of show %s: %w", showID, err)
	}

	var resp episodePaging
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("parsing episode listing: %w", err)
	}

	return &EpisodePage{
		Episodes:   toEpisodes(showID, resp.Items),
		NextCursor: nextOffsetCursor(resp.Next),
		Total:      resp.Total,
	}, nil
}

// GetEpisode retrieves a single episode. The show it belongs to is not
// part of the upstream response shape, so ShowID is left empty.
func (c *Client) GetEpisode(ctx context.Context, id string) (*domain.Episode, error) {
	params := url.Values{}
	params.Set("market", c.market)

	body, err := c.get(ctx, c.apiURL+"/episodes/"+url.PathEscape(id)+"?"+params.Encode())
	if err != nil {
		return nil, fmt.Errorf("getting episode %s: %w", id, err)
	}

	var obj episodeObject
	if err := json.Unmarshal(body, &obj); err != nil {
		return nil, fmt.Errorf("parsing episode response: %w", err)
	}

	ep := toEpisode("", &obj)
	return &ep, nil
}

func (c *Client) get(ctx context.Context, u string) ([]byte, error) {
	if c.throttle != nil {
		if err := c.throttle.Wait(ctx); err != nil {
			if errors.Is(err, ErrDailyLimitReached) {
				metrics.UpstreamDailyLimitHits.Inc()
			}
			return nil, fmt.Errorf("throttle: %w", err)
		}
		metrics.UpstreamCallsTotal.Inc()
		metrics.UpstreamDailyUsage.Set(float64(c.throttle.DailyCount()))
	}

	return c.http.Do(ctx, u)
}
