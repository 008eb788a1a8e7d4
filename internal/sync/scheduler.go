package sync

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Scheduler runs periodic catalog sync passes.
type Scheduler struct {
	cron   *cron.Cron
	engine *Engine
	log    *slog.Logger
}

// NewScheduler creates a Scheduler that runs the engine on a fixed interval.
func NewScheduler(
	eng *Engine,
	interval time.Duration,
	log *slog.Logger,
) (*Scheduler, error) {
	c := cron.New()

	s := &Scheduler{
		cron:   c,
		engine: eng,
		log:    log,
	}

	if _, err := c.AddFunc("@every "+interval.String(), s.runSync); err != nil {
		return nil, err
	}

	return s, nil
}

// Start begins running scheduled passes.
func (s *Scheduler) Start() {
	s.log.Info("scheduler started")
	s.cron.Start()
}

// Stop gracefully stops the scheduler, waiting for a running pass to finish.
func (s *Scheduler) Stop() context.Context {
	s.log.Info("scheduler stopping")
	return s.cron.Stop()
}

// Entries returns the registered cron entries for inspection.
func (s *Scheduler) Entries() []cron.Entry {
	return s.cron.Entries()
}

func (s *Scheduler) runSync() {
	ctx := context.Background()
	s.log.Info("scheduled sync starting")

	summary, err := s.engine.Run(ctx)
	if err != nil {
		s.log.Error("scheduled sync failed", "error", err)
		return
	}
	s.log.Info("scheduled sync complete",
		"shows", summary.CollectionsProcessed,
		"episodes_upserted", summary.ItemsUpserted,
		"failures", len(summary.Failures),
		"duration_ms", summary.DurationMs,
	)
}
