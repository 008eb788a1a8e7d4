// Package sync implements the catalog sync engine: for every tracked
// show it pulls a bounded window of recent upstream episodes, diffs them
// against the stored catalog, and batch-upserts what is new. Show
// metadata is refreshed on every pass even when no episodes changed, so
// lastRefreshedAt always reflects the last successful pass.
package sync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/donaldgifford/podcast-mirror/internal/catalog"
	"github.com/donaldgifford/podcast-mirror/internal/metrics"
	"github.com/donaldgifford/podcast-mirror/internal/notify"
	"github.com/donaldgifford/podcast-mirror/internal/spotify"
	"github.com/donaldgifford/podcast-mirror/internal/store"
	domain "github.com/donaldgifford/podcast-mirror/pkg/types"
)

const (
	// defaultMaxBatchAttempts bounds the requeue loop for unprocessed
	// batch items. With the exponential delay below, eight retries take
	// about 13 seconds worst case.
	defaultMaxBatchAttempts = 8

	// Requeue backoff: min(baseRequeueDelay * 2^attempt, maxRequeueDelay).
	baseRequeueDelay = 50 * time.Millisecond
	maxRequeueDelay  = 2000 * time.Millisecond
)

// Engine orchestrates the per-show sync passes.
type Engine struct {
	store    store.Store
	repo     *catalog.Repository
	client   spotify.CatalogClient
	fetcher  *spotify.Fetcher
	notifier notify.Notifier
	log      *slog.Logger

	maxBatchAttempts int
	sleep            func(ctx context.Context, d time.Duration) error
	nowFunc          func() time.Time
}

// NewEngine creates a new Engine with injected dependencies.
func NewEngine(
	s store.Store,
	client spotify.CatalogClient,
	n notify.Notifier,
	opts ...EngineOption,
) *Engine {
	eng := &Engine{
		store:            s,
		repo:             catalog.New(s),
		client:           client,
		fetcher:          spotify.NewFetcher(client),
		notifier:         n,
		log:              slog.Default(),
		maxBatchAttempts: defaultMaxBatchAttempts,
		sleep:            sleepCtx,
		nowFunc:          time.Now,
	}
	for _, opt := range opts {
		opt(eng)
	}
	return eng
}

// EngineOption configures the Engine.
type EngineOption func(*Engine)

// WithLogger sets a custom logger.
func WithLogger(l *slog.Logger) EngineOption {
	return func(e *Engine) {
		e.log = l
	}
}

// WithFetcher replaces the default episode fetcher.
func WithFetcher(f *spotify.Fetcher) EngineOption {
	return func(e *Engine) {
		e.fetcher = f
	}
}

// WithMaxBatchAttempts bounds the unprocessed-item requeue loop.
func WithMaxBatchAttempts(n int) EngineOption {
	return func(e *Engine) {
		e.maxBatchAttempts = n
	}
}

// WithSleepFunc replaces the requeue delay. Tests only.
func WithSleepFunc(f func(ctx context.Context, d time.Duration) error) EngineOption {
	return func(e *Engine) {
		e.sleep = f
	}
}

// WithNowFunc overrides the clock. Tests only.
func WithNowFunc(now func() time.Time) EngineOption {
	return func(e *Engine) {
		e.nowFunc = now
	}
}

// Run executes one full sync pass over every tracked show. A failing
// show is recorded in the summary and the pass moves on; only a spent
// daily upstream budget or a canceled context stops the pass early.
func (eng *Engine) Run(ctx context.Context) (*domain.SyncSummary, error) {
	start := eng.nowFunc()
	summary := &domain.SyncSummary{}
	defer func() {
		elapsed := eng.nowFunc().Sub(start)
		summary.DurationMs = elapsed.Milliseconds()
		metrics.SyncDuration.Observe(elapsed.Seconds())
	}()

	shows, err := eng.repo.TrackedShows(ctx)
	if err != nil {
		return summary, fmt.Errorf("listing tracked shows: %w", err)
	}

	for i := range shows {
		if ctx.Err() != nil {
			return summary, ctx.Err()
		}

		show := &shows[i]
		eng.log.Info("syncing show", "show_id", show.ID, "title", show.Title)

		upserted, syncErr := eng.syncShow(ctx, show)
		summary.CollectionsProcessed++
		summary.ItemsUpserted += upserted

		if syncErr != nil {
			summary.Failures = append(summary.Failures, domain.SyncFailure{
				ShowID: show.ID,
				Error:  syncErr.Error(),
			})
			metrics.SyncErrorsTotal.Inc()

			if errors.Is(syncErr, spotify.ErrDailyLimitReached) {
				eng.log.Warn("daily upstream budget spent, stopping pass",
					"show_id", show.ID,
					"shows_processed", summary.CollectionsProcessed,
				)
				break
			}
			eng.log.Error("show sync failed", "show_id", show.ID, "error", syncErr)
		}
	}

	eng.report(ctx, summary)
	return summary, nil
}

// syncShow diffs one show's recent upstream episodes against the stored
// catalog, upserts the new ones, and refreshes the show's metadata.
func (eng *Engine) syncShow(ctx context.Context, show *domain.Show) (int, error) {
	known, err := eng.repo.KnownEpisodeIDs(ctx, show.ID)
	if err != nil {
		return 0, fmt.Errorf("loading known episodes: %w", err)
	}

	res, err := eng.fetcher.RecentEpisodes(ctx, show.ID)
	if err != nil {
		return 0, fmt.Errorf("fetching recent episodes: %w", err)
	}

	fresh := dedupe(res.Episodes)

	newEps := make([]domain.Episode, 0, len(fresh))
	for _, ep := range fresh {
		if _, ok := known[ep.ID]; !ok {
			newEps = append(newEps, ep)
		}
	}

	if err := eng.upsertEpisodes(ctx, newEps); err != nil {
		return 0, err
	}
	metrics.SyncEpisodesUpsertedTotal.Add(float64(len(newEps)))

	eng.log.Info("show synced",
		"show_id", show.ID,
		"pages_used", res.PagesUsed,
		"fetched", len(fresh),
		"new", len(newEps),
		"stopped_at", res.StoppedAt,
	)

	if err := eng.refreshShowMetadata(ctx, show, fresh); err != nil {
		return len(newEps), err
	}
	return len(newEps), nil
}

// upsertEpisodes writes episodes in store-sized chunks. Unprocessed
// items from a chunk are requeued with exponential delay; if the budget
// runs out with items still pending, store.ErrWriteFailure surfaces.
func (eng *Engine) upsertEpisodes(ctx context.Context, eps []domain.Episode) error {
	items := make([]store.Item, 0, len(eps))
	for _, ep := range eps {
		item, err := catalog.EpisodeItem(ep)
		if err != nil {
			return err
		}
		items = append(items, item)
	}

	for start := 0; start < len(items); start += store.MaxBatchSize {
		chunk := items[start:min(start+store.MaxBatchSize, len(items))]
		if err := eng.writeChunk(ctx, chunk); err != nil {
			return err
		}
	}
	return nil
}

func (eng *Engine) writeChunk(ctx context.Context, chunk []store.Item) error {
	for attempt := 0; ; attempt++ {
		unprocessed, err := eng.store.BatchWrite(ctx, chunk)
		if err != nil {
			return fmt.Errorf("batch write: %w", err)
		}
		if len(unprocessed) == 0 {
			return nil
		}

		if attempt >= eng.maxBatchAttempts {
			return fmt.Errorf("%d items still unprocessed after %d retries: %w",
				len(unprocessed), attempt, store.ErrWriteFailure)
		}

		metrics.SyncBatchRetriesTotal.Inc()
		delay := min(baseRequeueDelay<<attempt, maxRequeueDelay)
		eng.log.Warn("requeueing unprocessed batch items",
			"count", len(unprocessed),
			"attempt", attempt,
			"delay", delay,
		)
		if err := eng.sleep(ctx, delay); err != nil {
			return err
		}
		chunk = unprocessed
	}
}

// refreshShowMetadata rewrites the show row from fresh upstream
// metadata. The info hash and lastRefreshedAt are written every pass,
// changed or not: an unconditional write is idempotent and cheaper than
// read-compare-write against this store.
func (eng *Engine) refreshShowMetadata(
	ctx context.Context,
	show *domain.Show,
	fetched []domain.Episode,
) error {
	upstream, err := eng.client.GetShow(ctx, show.ID)
	if err != nil {
		return fmt.Errorf("refreshing show metadata: %w", err)
	}

	refreshed := *upstream
	refreshed.ID = show.ID
	refreshed.InfoHash = refreshed.Hash()

	now := eng.nowFunc().UTC()
	refreshed.LastRefreshedAt = &now

	refreshed.LastEpisodePublishedAt = show.LastEpisodePublishedAt
	if newest := newestPublished(fetched); newest != nil {
		if refreshed.LastEpisodePublishedAt == nil || newest.After(*refreshed.LastEpisodePublishedAt) {
			refreshed.LastEpisodePublishedAt = newest
		}
	}

	if err := eng.repo.PutShow(ctx, refreshed); err != nil {
		return fmt.Errorf("writing show metadata: %w", err)
	}
	return nil
}

func (eng *Engine) report(ctx context.Context, summary *domain.SyncSummary) {
	if eng.notifier == nil {
		return
	}
	if err := eng.notifier.SendSyncReport(ctx, *summary); err != nil {
		eng.log.Error("sending sync report failed", "error", err)
	}
}

// dedupe drops repeated episode ids, keeping the first occurrence.
// Overlapping pages can hand back the same episode twice.
func dedupe(eps []domain.Episode) []domain.Episode {
	seen := make(map[string]struct{}, len(eps))
	out := make([]domain.Episode, 0, len(eps))
	for _, ep := range eps {
		if _, ok := seen[ep.ID]; ok {
			continue
		}
		seen[ep.ID] = struct{}{}
		out = append(out, ep)
	}
	return out
}

func newestPublished(eps []domain.Episode) *time.Time {
	var newest *time.Time
	for i := range eps {
		p := eps[i].PublishedAt
		if p != nil && (newest == nil || p.After(*newest)) {
			newest = p
		}
	}
	return newest
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
