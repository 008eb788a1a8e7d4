package spotify

import (
	"net/url"
	"time"

	domain "github.com/donaldgifford/podcast-mirror/pkg/types"
)

// toShows converts upstream show objects into domain shows.
func toShows(objs []showObject) []domain.Show {
	shows := make([]domain.Show, 0, len(objs))
	for i := range objs {
		shows = append(shows, toShow(&objs[i]))
	}
	return shows
}

func toShow(obj *showObject) domain.Show {
	return domain.Show{
		ID:           obj.ID,
		Title:        obj.Name,
		Publisher:    obj.Publisher,
		Description:  obj.Description,
		ImageURL:     largestImage(obj.Images),
		EpisodeCount: obj.TotalEpisodes,
	}
}

// toEpisodes converts upstream episode objects into domain episodes
// belonging to showID.
func toEpisodes(showID string, objs []episodeObject) []domain.Episode {
	episodes := make([]domain.Episode, 0, len(objs))
	for i := range objs {
		episodes = append(episodes, toEpisode(showID, &objs[i]))
	}
	return episodes
}

func toEpisode(showID string, obj *episodeObject) domain.Episode {
	ep := domain.Episode{
		ID:          obj.ID,
		ShowID:      showID,
		Title:       obj.Name,
		Description: obj.Description,
		AudioURL:    obj.AudioPreviewURL,
		ImageURL:    largestImage(obj.Images),
		ExternalURL: obj.ExternalURLs.Spotify,
		DurationSec: obj.DurationMs / 1000,
		Explicit:    obj.Explicit,
		Language:    obj.Language,
	}

	if t, ok := parseReleaseDate(obj.ReleaseDate); ok {
		ep.PublishedAt = &t
	}

	return ep
}

// parseReleaseDate handles the upstream's variable release-date
// precision (year, month, or day) plus full timestamps.
func parseReleaseDate(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02", "2006-01", "2006"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// largestImage picks the first (largest, per upstream ordering) artwork
// URL, or empty when none is present.
func largestImage(images []imageObject) string {
	if len(images) == 0 {
		return ""
	}
	return images[0].URL
}

// nextOffsetCursor extracts the offset query parameter from an upstream
// next link, which callers treat as an opaque pagination cursor. An
// absent or malformed link yields the empty cursor (no further pages).
func nextOffsetCursor(next string) string {
	if next == "" {
		return ""
	}
	u, err := url.Parse(next)
	if err != nil {
		return ""
	}
	return u.Query().Get("offset")
}
