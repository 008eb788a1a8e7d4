package spotify_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/donaldgifford/podcast-mirror/internal/spotify"
	domain "github.com/donaldgifford/podcast-mirror/pkg/types"
)

// scriptedCatalog serves a fixed sequence of episode pages and records
// the cursors it was asked for.
type scriptedCatalog struct {
	pages   []*spotify.EpisodePage
	err     error
	cursors []string
}

func (s *scriptedCatalog) SearchShows(context.Context, string, int, int) (*spotify.SearchResult, error) {
	panic("not used")
}

func (s *scriptedCatalog) GetShow(context.Context, string) (*domain.Show, error) {
	panic("not used")
}

func (s *scriptedCatalog) GetEpisode(context.Context, string) (*domain.Episode, error) {
	panic("not used")
}

func (s *scriptedCatalog) GetShowEpisodes(_ context.Context, _ string, _ int, cursor string) (*spotify.EpisodePage, error) {
	s.cursors = append(s.cursors, cursor)
	if s.err != nil {
		return nil, s.err
	}
	page := s.pages[0]
	s.pages = s.pages[1:]
	return page, nil
}

func episodes(ids ...string) []domain.Episode {
	eps := make([]domain.Episode, 0, len(ids))
	for _, id := range ids {
		eps = append(eps, domain.Episode{ID: id, ShowID: "show-1", Title: "Episode " + id})
	}
	return eps
}

func TestFetcher_RecentEpisodes_StopsAtMaxPages(t *testing.T) {
	t.Parallel()

	catalog := &scriptedCatalog{pages: []*spotify.EpisodePage{
		{Episodes: episodes("ep-1", "ep-2"), NextCursor: "50", Total: 120},
		{Episodes: episodes("ep-3"), NextCursor: "100", Total: 120},
	}}
	f := spotify.NewFetcher(catalog)

	res, err := f.RecentEpisodes(context.Background(), "show-1")
	require.NoError(t, err)

	assert.Len(t, res.Episodes, 3)
	assert.Equal(t, 2, res.PagesUsed)
	assert.Equal(t, "max_pages", res.StoppedAt)
	assert.Equal(t, []string{"", "50"}, catalog.cursors, "second page requested with the first page's cursor")
}

func TestFetcher_RecentEpisodes_StopsWhenCursorExhausted(t *testing.T) {
	t.Parallel()

	catalog := &scriptedCatalog{pages: []*spotify.EpisodePage{
		{Episodes: episodes("ep-1", "ep-2"), NextCursor: "", Total: 2},
	}}
	f := spotify.NewFetcher(catalog)

	res, err := f.RecentEpisodes(context.Background(), "show-1")
	require.NoError(t, err)

	assert.Len(t, res.Episodes, 2)
	assert.Equal(t, 1, res.PagesUsed)
	assert.Equal(t, "no_more_results", res.StoppedAt)
}

func TestFetcher_RecentEpisodes_StopsOnEmptyPage(t *testing.T) {
	t.Parallel()

	catalog := &scriptedCatalog{pages: []*spotify.EpisodePage{
		{Episodes: nil, NextCursor: "50", Total: 0},
	}}
	f := spotify.NewFetcher(catalog)

	res, err := f.RecentEpisodes(context.Background(), "show-1")
	require.NoError(t, err)

	assert.Empty(t, res.Episodes)
	assert.Equal(t, 1, res.PagesUsed)
	assert.Equal(t, "no_more_results", res.StoppedAt)
}

func TestFetcher_RecentEpisodes_ExpandedPageBudget(t *testing.T) {
	t.Parallel()

	catalog := &scriptedCatalog{pages: []*spotify.EpisodePage{
		{Episodes: episodes("ep-1"), NextCursor: "10", Total: 40},
		{Episodes: episodes("ep-2"), NextCursor: "20", Total: 40},
		{Episodes: episodes("ep-3"), NextCursor: "30", Total: 40},
		{Episodes: episodes("ep-4"), NextCursor: "40", Total: 40},
	}}
	f := spotify.NewFetcher(catalog, spotify.WithMaxPages(4), spotify.WithPageSize(10))

	res, err := f.RecentEpisodes(context.Background(), "show-1")
	require.NoError(t, err)

	assert.Len(t, res.Episodes, 4)
	assert.Equal(t, 4, res.PagesUsed)
	assert.Equal(t, "max_pages", res.StoppedAt)
}

func TestFetcher_RecentEpisodes_PropagatesError(t *testing.T) {
	t.Parallel()

	catalog := &scriptedCatalog{err: spotify.ErrRateLimited}
	f := spotify.NewFetcher(catalog)

	_, err := f.RecentEpisodes(context.Background(), "show-1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, spotify.ErrRateLimited))
}
