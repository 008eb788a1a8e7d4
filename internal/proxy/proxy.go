// Package proxy is the request-side front door to the upstream catalog:
// admission control first, then the read-through cache, then the
// retrying upstream client. Personalized operations skip the cache so
// one caller's annotations never leak into another's results.
package proxy

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/donaldgifford/podcast-mirror/internal/cache"
	"github.com/donaldgifford/podcast-mirror/internal/catalog"
	"github.com/donaldgifford/podcast-mirror/internal/ratelimit"
	"github.com/donaldgifford/podcast-mirror/internal/spotify"
	domain "github.com/donaldgifford/podcast-mirror/pkg/types"
)

// Operation names. These are the limiter and cache keys, so renaming one
// invalidates its cache entries and resets its counters.
const (
	OpSearch                  = "search"
	OpGetShow                 = "getShow"
	OpGetShowEpisodes         = "getShowEpisodes"
	OpGetEpisode              = "getEpisode"
	OpSearchWithSubscriptions = "searchWithSubscriptions"
)

// TTLs holds per-operation cache lifetimes.
type TTLs struct {
	Search   time.Duration
	Show     time.Duration
	Episodes time.Duration
	Episode  time.Duration
}

// DefaultTTLs returns the shipped cache lifetimes. Search results go
// stale fastest; single-entity lookups can live longer.
func DefaultTTLs() TTLs {
	return TTLs{
		Search:   5 * time.Minute,
		Show:     15 * time.Minute,
		Episodes: 5 * time.Minute,
		Episode:  15 * time.Minute,
	}
}

// Service routes catalog operations through the limiter and cache.
type Service struct {
	limiter *ratelimit.Limiter
	cache   *cache.ReadThrough
	client  spotify.CatalogClient
	repo    *catalog.Repository
	ttls    TTLs
}

// Option configures a Service.
type Option func(*Service)

// WithTTLs overrides the cache lifetimes.
func WithTTLs(t TTLs) Option {
	return func(s *Service) {
		s.ttls = t
	}
}

// New creates a Service.
func New(
	limiter *ratelimit.Limiter,
	c *cache.ReadThrough,
	client spotify.CatalogClient,
	repo *catalog.Repository,
	opts ...Option,
) *Service {
	s := &Service{
		limiter: limiter,
		cache:   c,
		client:  client,
		repo:    repo,
		ttls:    DefaultTTLs(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type searchArgs struct {
	Term   string `json:"term"`
	Limit  int    `json:"limit"`
	Offset int    `json:"offset"`
}

type episodesArgs struct {
	ShowID string `json:"show_id"`
	Limit  int    `json:"limit"`
	Cursor string `json:"cursor"`
}

// Search runs a cached catalog search.
func (s *Service) Search(
	ctx context.Context,
	id ratelimit.Identity,
	term string,
	limit, offset int,
) (*spotify.SearchResult, error) {
	if err := s.limiter.Check(ctx, id, OpSearch); err != nil {
		return nil, err
	}
	return cache.GetOrFetch(ctx, s.cache, OpSearch,
		searchArgs{Term: term, Limit: limit, Offset: offset}, s.ttls.Search,
		func(ctx context.Context) (*spotify.SearchResult, error) {
			return s.client.SearchShows(ctx, term, limit, offset)
		})
}

// GetShow returns one show's metadata, cached.
func (s *Service) GetShow(
	ctx context.Context,
	id ratelimit.Identity,
	showID string,
) (*domain.Show, error) {
	if err := s.limiter.Check(ctx, id, OpGetShow); err != nil {
		return nil, err
	}
	return cache.GetOrFetch(ctx, s.cache, OpGetShow, showID, s.ttls.Show,
		func(ctx context.Context) (*domain.Show, error) {
			return s.client.GetShow(ctx, showID)
		})
}

// GetShowEpisodes returns one page of a show's episodes, cached.
func (s *Service) GetShowEpisodes(
	ctx context.Context,
	id ratelimit.Identity,
	showID string,
	limit int,
	cursor string,
) (*spotify.EpisodePage, error) {
	if err := s.limiter.Check(ctx, id, OpGetShowEpisodes); err != nil {
		return nil, err
	}
	return cache.GetOrFetch(ctx, s.cache, OpGetShowEpisodes,
		episodesArgs{ShowID: showID, Limit: limit, Cursor: cursor}, s.ttls.Episodes,
		func(ctx context.Context) (*spotify.EpisodePage, error) {
			return s.client.GetShowEpisodes(ctx, showID, limit, cursor)
		})
}

// GetEpisode returns one episode, cached.
func (s *Service) GetEpisode(
	ctx context.Context,
	id ratelimit.Identity,
	episodeID string,
) (*domain.Episode, error) {
	if err := s.limiter.Check(ctx, id, OpGetEpisode); err != nil {
		return nil, err
	}
	return cache.GetOrFetch(ctx, s.cache, OpGetEpisode, episodeID, s.ttls.Episode,
		func(ctx context.Context) (*domain.Episode, error) {
			return s.client.GetEpisode(ctx, episodeID)
		})
}

// SearchWithSubscriptions searches the catalog and annotates each result
// with whether the user follows it. The search hits upstream directly;
// a shared cache entry could carry one user's annotations to another.
func (s *Service) SearchWithSubscriptions(
	ctx context.Context,
	userID string,
	term string,
	limit, offset int,
) ([]domain.AnnotatedShow, error) {
	if err := s.limiter.Check(ctx, ratelimit.User(userID), OpSearchWithSubscriptions); err != nil {
		return nil, err
	}

	res, err := s.client.SearchShows(ctx, term, limit, offset)
	if err != nil {
		return nil, err
	}
	return s.repo.Annotate(ctx, userID, res.Shows)
}

// ExecuteArgs carries the union of operation arguments for Execute.
type ExecuteArgs struct {
	Term   string `json:"term,omitempty"`
	ID     string `json:"id,omitempty"`
	UserID string `json:"user_id,omitempty"`
	Limit  int    `json:"limit,omitempty"`
	Offset int    `json:"offset,omitempty"`
	Cursor string `json:"cursor,omitempty"`
}

// Execute routes a named operation. The result is the typed method's
// return value; callers at this boundary serialize it as JSON anyway.
func (s *Service) Execute(
	ctx context.Context,
	operation string,
	args ExecuteArgs,
	id ratelimit.Identity,
) (any, error) {
	switch operation {
	case OpSearch:
		return s.Search(ctx, id, args.Term, args.Limit, args.Offset)
	case OpGetShow:
		return s.GetShow(ctx, id, args.ID)
	case OpGetShowEpisodes:
		return s.GetShowEpisodes(ctx, id, args.ID, args.Limit, args.Cursor)
	case OpGetEpisode:
		return s.GetEpisode(ctx, id, args.ID)
	case OpSearchWithSubscriptions:
		userID := args.UserID
		if userID == "" {
			userID = id.ID
		}
		if userID == "" {
			return nil, fmt.Errorf("operation %s requires a user identity", operation)
		}
		return s.SearchWithSubscriptions(ctx, userID, args.Term, args.Limit, args.Offset)
	default:
		return nil, fmt.Errorf("unknown operation %q", operation)
	}
}

// DecodeArgs parses a JSON argument document for Execute.
func DecodeArgs(raw []byte) (ExecuteArgs, error) {
	var args ExecuteArgs
	if len(raw) == 0 {
		return args, nil
	}
	if err := json.Unmarshal(raw, &args); err != nil {
		return args, fmt.Errorf("decoding operation args: %w", err)
	}
	return args, nil
}
