package spotify

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"

	domain "github.com/donaldgifford/podcast-mirror/pkg/types"
)

const (
	defaultPageSize = 50
	defaultMaxPages = 2
)

// Fetcher retrieves a bounded window of a show's most recent episodes by
// paginating the upstream listing endpoint. Only maxPages pages are
// scanned per call; the full back catalog is deliberately out of reach
// to bound latency and upstream load.
type Fetcher struct {
	client   CatalogClient
	logger   *log.Logger
	pageSize int
	maxPages int
}

// FetcherOption configures the Fetcher.
type FetcherOption func(*Fetcher)

// WithPageSize overrides the default page size.
func WithPageSize(size int) FetcherOption {
	return func(f *Fetcher) {
		f.pageSize = size
	}
}

// WithMaxPages overrides the default page budget.
func WithMaxPages(n int) FetcherOption {
	return func(f *Fetcher) {
		f.maxPages = n
	}
}

// WithFetcherLogger sets the logger.
func WithFetcherLogger(l *log.Logger) FetcherOption {
	return func(f *Fetcher) {
		f.logger = l
	}
}

// NewFetcher creates a new Fetcher.
func NewFetcher(client CatalogClient, opts ...FetcherOption) *Fetcher {
	f := &Fetcher{
		client:   client,
		pageSize: defaultPageSize,
		maxPages: defaultMaxPages,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// FetchResult holds the episodes collected from one bounded window scan.
type FetchResult struct {
	Episodes  []domain.Episode
	PagesUsed int
	StoppedAt string // "no_more_results", "max_pages"
}

// RecentEpisodes fetches up to maxPages pages of the show's most recent
// episodes, stopping early when a page returns no items or carries no
// next cursor.
func (f *Fetcher) RecentEpisodes(ctx context.Context, showID string) (*FetchResult, error) {
	result := &FetchResult{}
	cursor := ""

	for page := range f.maxPages {
		resp, err := f.client.GetShowEpisodes(ctx, showID, f.pageSize, cursor)
		if err != nil {
			return nil, fmt.Errorf("fetching episode page %d: %w", page, err)
		}

		result.PagesUsed++

		if len(resp.Episodes) == 0 {
			result.StoppedAt = "no_more_results"
			return result, nil
		}

		result.Episodes = append(result.Episodes, resp.Episodes...)

		if resp.NextCursor == "" {
			result.StoppedAt = "no_more_results"
			return result, nil
		}
		cursor = resp.NextCursor

		if f.logger != nil {
			f.logger.Debug(
				"fetched episode page",
				"show_id", showID,
				"page", page,
				"episodes", len(resp.Episodes),
				"next_cursor", cursor,
			)
		}
	}

	result.StoppedAt = "max_pages"
	return result, nil
}
