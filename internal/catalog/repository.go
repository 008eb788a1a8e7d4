// Package catalog is the typed repository over the store's key/value
// model. It owns the key scheme:
//
//	SHOW#<id>  / META           show metadata
//	SHOW#<id>  / EP#<epID>      one episode
//	USER#<uid> / SUB#<showID>   subscription
//	USER#<uid> / PROG#<epID>    playback progress
//
// Unsubscribing flips the subscription inactive rather than removing the
// row; there is no delete in the store contract.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	domain "github.com/donaldgifford/podcast-mirror/pkg/types"

	"github.com/donaldgifford/podcast-mirror/internal/store"
)

// ErrNotSubscribed is returned when an operation requires an active
// subscription the user does not hold.
var ErrNotSubscribed = errors.New("not subscribed to show")

// listPageSize is the page size for internal full-listing loops.
const listPageSize = 100

const (
	skMeta       = "META"
	skEpisodeP   = "EP#"
	skSubP       = "SUB#"
	skProgressP  = "PROG#"
	attrActive   = "active"
	attrShowID   = "show_id"
	attrCreated  = "created_at"
	attrLastPlay = "last_played_episode"
)

func showPK(id string) string { return "SHOW#" + id }
func userPK(id string) string { return "USER#" + id }

func showKey(id string) store.Key {
	return store.Key{PK: showPK(id), SK: skMeta}
}

func episodeKey(showID, epID string) store.Key {
	return store.Key{PK: showPK(showID), SK: skEpisodeP + epID}
}

func subKey(userID, showID string) store.Key {
	return store.Key{PK: userPK(userID), SK: skSubP + showID}
}

func progressKey(userID, epID string) store.Key {
	return store.Key{PK: userPK(userID), SK: skProgressP + epID}
}

// Repository provides typed access to shows, episodes, subscriptions,
// and playback progress.
type Repository struct {
	store   store.Store
	nowFunc func() time.Time
}

// Option configures a Repository.
type Option func(*Repository)

// WithNowFunc overrides the clock. Tests only.
func WithNowFunc(now func() time.Time) Option {
	return func(r *Repository) {
		r.nowFunc = now
	}
}

// New creates a Repository backed by the given store.
func New(s store.Store, opts ...Option) *Repository {
	r := &Repository{
		store:   s,
		nowFunc: time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// encodeAttrs round-trips a typed value through JSON into the store's
// attribute document.
func encodeAttrs(v any) (map[string]any, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encoding attributes: %w", err)
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("decoding attributes: %w", err)
	}
	return m, nil
}

func decodeAttrs(m map[string]any, v any) error {
	b, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("encoding attributes: %w", err)
	}
	if err := json.Unmarshal(b, v); err != nil {
		return fmt.Errorf("decoding attributes: %w", err)
	}
	return nil
}

// ShowItem builds the store row for a show.
func ShowItem(show domain.Show) (store.Item, error) {
	attrs, err := encodeAttrs(show)
	if err != nil {
		return store.Item{}, err
	}
	key := showKey(show.ID)
	return store.Item{PK: key.PK, SK: key.SK, Attributes: attrs}, nil
}

// EpisodeItem builds the store row for an episode.
func EpisodeItem(ep domain.Episode) (store.Item, error) {
	attrs, err := encodeAttrs(ep)
	if err != nil {
		return store.Item{}, err
	}
	key := episodeKey(ep.ShowID, ep.ID)
	return store.Item{PK: key.PK, SK: key.SK, Attributes: attrs}, nil
}

// PutShow upserts a show's metadata row.
func (r *Repository) PutShow(ctx context.Context, show domain.Show) error {
	item, err := ShowItem(show)
	if err != nil {
		return err
	}
	return r.store.Put(ctx, item)
}

// GetShow loads a show by id. Returns store.ErrNotFound when untracked.
func (r *Repository) GetShow(ctx context.Context, id string) (*domain.Show, error) {
	item, err := r.store.Get(ctx, showKey(id))
	if err != nil {
		return nil, err
	}
	var show domain.Show
	if err := decodeAttrs(item.Attributes, &show); err != nil {
		return nil, err
	}
	return &show, nil
}

// TrackedShows lists every show with a metadata row. This scans the
// whole table; tracked-show cardinality is expected to stay small.
func (r *Repository) TrackedShows(ctx context.Context) ([]domain.Show, error) {
	var shows []domain.Show
	cursor := ""
	for {
		page, err := r.store.ScanWithFilter(ctx, func(it *store.Item) bool {
			return it.SK == skMeta
		}, listPageSize, cursor)
		if err != nil {
			return nil, fmt.Errorf("scanning tracked shows: %w", err)
		}
		for _, it := range page.Items {
			var show domain.Show
			if err := decodeAttrs(it.Attributes, &show); err != nil {
				return nil, err
			}
			shows = append(shows, show)
		}
		if page.NextCursor == "" {
			return shows, nil
		}
		cursor = page.NextCursor
	}
}

// PutEpisode upserts a single episode row.
func (r *Repository) PutEpisode(ctx context.Context, ep domain.Episode) error {
	item, err := EpisodeItem(ep)
	if err != nil {
		return err
	}
	return r.store.Put(ctx, item)
}

// GetEpisode loads one episode of a show.
func (r *Repository) GetEpisode(ctx context.Context, showID, epID string) (*domain.Episode, error) {
	item, err := r.store.Get(ctx, episodeKey(showID, epID))
	if err != nil {
		return nil, err
	}
	var ep domain.Episode
	if err := decodeAttrs(item.Attributes, &ep); err != nil {
		return nil, err
	}
	return &ep, nil
}

// ListEpisodes returns one page of a show's episodes, ordered by
// episode id.
func (r *Repository) ListEpisodes(
	ctx context.Context,
	showID string,
	limit int,
	cursor string,
) ([]domain.Episode, string, error) {
	page, err := r.store.QueryByPrefix(ctx, showPK(showID), skEpisodeP, limit, cursor)
	if err != nil {
		return nil, "", err
	}
	eps := make([]domain.Episode, 0, len(page.Items))
	for _, it := range page.Items {
		var ep domain.Episode
		if err := decodeAttrs(it.Attributes, &ep); err != nil {
			return nil, "", err
		}
		eps = append(eps, ep)
	}
	return eps, page.NextCursor, nil
}

// KnownEpisodeIDs returns the ids of every stored episode of a show.
// Pages through the full partition.
func (r *Repository) KnownEpisodeIDs(ctx context.Context, showID string) (map[string]struct{}, error) {
	ids := make(map[string]struct{})
	cursor := ""
	for {
		page, err := r.store.QueryByPrefix(ctx, showPK(showID), skEpisodeP, listPageSize, cursor)
		if err != nil {
			return nil, fmt.Errorf("listing known episodes for %s: %w", showID, err)
		}
		for _, it := range page.Items {
			ids[it.SK[len(skEpisodeP):]] = struct{}{}
		}
		if page.NextCursor == "" {
			return ids, nil
		}
		cursor = page.NextCursor
	}
}

// Subscribe records the user following a show. Re-subscribing an
// inactive subscription reactivates it and keeps the original
// creation time.
func (r *Repository) Subscribe(ctx context.Context, userID, showID string) error {
	key := subKey(userID, showID)

	err := r.store.ConditionalUpdate(ctx, key, func(it *store.Item) error {
		it.Attributes[attrActive] = true
		return nil
	})
	if errors.Is(err, store.ErrConditionFailed) {
		return r.store.Put(ctx, store.Item{
			PK: key.PK,
			SK: key.SK,
			Attributes: map[string]any{
				attrActive:  true,
				attrShowID:  showID,
				attrCreated: r.nowFunc().UTC().Format(time.RFC3339),
			},
		})
	}
	return err
}

// Unsubscribe flips the subscription inactive. Unsubscribing a show the
// user never followed is a no-op.
func (r *Repository) Unsubscribe(ctx context.Context, userID, showID string) error {
	err := r.store.ConditionalUpdate(ctx, subKey(userID, showID), func(it *store.Item) error {
		it.Attributes[attrActive] = false
		return nil
	})
	if errors.Is(err, store.ErrConditionFailed) {
		return nil
	}
	return err
}

// SubscribedShowIDs returns the ids of every show the user actively
// follows.
func (r *Repository) SubscribedShowIDs(ctx context.Context, userID string) (map[string]struct{}, error) {
	ids := make(map[string]struct{})
	cursor := ""
	for {
		page, err := r.store.QueryByPrefix(ctx, userPK(userID), skSubP, listPageSize, cursor)
		if err != nil {
			return nil, fmt.Errorf("listing subscriptions for %s: %w", userID, err)
		}
		for _, it := range page.Items {
			if active, ok := it.Attributes[attrActive].(bool); ok && active {
				ids[it.SK[len(skSubP):]] = struct{}{}
			}
		}
		if page.NextCursor == "" {
			return ids, nil
		}
		cursor = page.NextCursor
	}
}

// SaveProgress stores the user's playback position in an episode. The
// subscription row is updated first with a condition, so a progress
// write racing an unsubscribe loses cleanly and reports
// ErrNotSubscribed instead of resurrecting state.
func (r *Repository) SaveProgress(ctx context.Context, showID string, p domain.Progress) error {
	err := r.store.ConditionalUpdate(ctx, subKey(p.UserID, showID), func(it *store.Item) error {
		if active, ok := it.Attributes[attrActive].(bool); !ok || !active {
			return ErrNotSubscribed
		}
		it.Attributes[attrLastPlay] = p.EpisodeID
		return nil
	})
	if errors.Is(err, store.ErrConditionFailed) {
		return ErrNotSubscribed
	}
	if err != nil {
		return err
	}

	p.UpdatedAt = r.nowFunc()
	attrs, err := encodeAttrs(p)
	if err != nil {
		return err
	}
	key := progressKey(p.UserID, p.EpisodeID)
	return r.store.Put(ctx, store.Item{PK: key.PK, SK: key.SK, Attributes: attrs})
}

// GetProgress loads the user's position in an episode.
func (r *Repository) GetProgress(ctx context.Context, userID, epID string) (*domain.Progress, error) {
	item, err := r.store.Get(ctx, progressKey(userID, epID))
	if err != nil {
		return nil, err
	}
	var p domain.Progress
	if err := decodeAttrs(item.Attributes, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Annotate marks each show with whether the user actively follows it.
func (r *Repository) Annotate(
	ctx context.Context,
	userID string,
	shows []domain.Show,
) ([]domain.AnnotatedShow, error) {
	subs, err := r.SubscribedShowIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]domain.AnnotatedShow, 0, len(shows))
	for _, show := range shows {
		_, subscribed := subs[show.ID]
		out = append(out, domain.AnnotatedShow{Show: show, Subscribed: subscribed})
	}
	return out, nil
}
