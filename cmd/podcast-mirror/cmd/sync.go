package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/donaldgifford/podcast-mirror/internal/config"
	"github.com/donaldgifford/podcast-mirror/internal/notify"
	"github.com/donaldgifford/podcast-mirror/internal/spotify"
	"github.com/donaldgifford/podcast-mirror/internal/store"
	catalogsync "github.com/donaldgifford/podcast-mirror/internal/sync"
	"github.com/donaldgifford/podcast-mirror/pkg/logger"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Run one catalog sync pass and exit",
	RunE:  runSyncOnce,
}

func init() {
	rootCmd.AddCommand(syncCmd)
}

func runSyncOnce(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	cliLog := log.NewWithOptions(os.Stderr, log.Options{
		Level: parseLogLevel(cfg.Logging.Level),
	})
	slogger := logger.New(cfg.Logging.Level, cfg.Logging.Format)

	ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	st, err := store.NewPostgresStore(ctx, cfg.Database.DSN())
	cancel()
	if err != nil {
		return fmt.Errorf("connecting to store: %w", err)
	}
	defer st.Close()

	upstream, _ := buildUpstream(cfg)

	var notifier notify.Notifier = notify.NewNoOpNotifier(slogger)
	if cfg.Notifications.Discord.Enabled {
		notifier = notify.NewDiscordNotifier(cfg.Notifications.Discord.WebhookURL)
	}

	engine := catalogsync.NewEngine(st, upstream, notifier,
		catalogsync.WithLogger(slogger),
		catalogsync.WithFetcher(spotify.NewFetcher(upstream,
			spotify.WithPageSize(cfg.Sync.PageSize),
			spotify.WithMaxPages(cfg.Sync.MaxPagesPerShow),
		)),
	)

	summary, err := engine.Run(cmd.Context())
	if err != nil {
		return fmt.Errorf("running sync: %w", err)
	}

	cliLog.Info("sync complete",
		"shows", summary.CollectionsProcessed,
		"episodes_upserted", summary.ItemsUpserted,
		"duration_ms", summary.DurationMs,
		"failures", len(summary.Failures),
	)
	for _, f := range summary.Failures {
		cliLog.Warn("show failed to sync", "show_id", f.ShowID, "err", f.Error)
	}
	return nil
}
