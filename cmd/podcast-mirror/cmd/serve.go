package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humaecho"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/donaldgifford/podcast-mirror/internal/api/handlers"
	"github.com/donaldgifford/podcast-mirror/internal/api/middleware"
	"github.com/donaldgifford/podcast-mirror/internal/cache"
	"github.com/donaldgifford/podcast-mirror/internal/catalog"
	"github.com/donaldgifford/podcast-mirror/internal/config"
	"github.com/donaldgifford/podcast-mirror/internal/notify"
	"github.com/donaldgifford/podcast-mirror/internal/proxy"
	"github.com/donaldgifford/podcast-mirror/internal/ratelimit"
	"github.com/donaldgifford/podcast-mirror/internal/secrets"
	"github.com/donaldgifford/podcast-mirror/internal/spotify"
	"github.com/donaldgifford/podcast-mirror/internal/store"
	catalogsync "github.com/donaldgifford/podcast-mirror/internal/sync"
	"github.com/donaldgifford/podcast-mirror/pkg/logger"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the API server and sync scheduler",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	cliLog := log.NewWithOptions(os.Stderr, log.Options{
		Level: parseLogLevel(cfg.Logging.Level),
	})
	slogger := logger.New(cfg.Logging.Level, cfg.Logging.Format)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	st, err := store.NewPostgresStore(ctx, cfg.Database.DSN())
	cancel()
	if err != nil {
		return fmt.Errorf("connecting to store: %w", err)
	}
	defer st.Close()

	upstream, throttle := buildUpstream(cfg)

	repo := catalog.New(st)
	svc := proxy.New(
		ratelimit.New(st, cfg.RateLimit.Policies(),
			ratelimit.WithLogger(cliLog.With("component", "ratelimit"))),
		cache.New(st, cache.WithLogger(cliLog.With("component", "cache"))),
		upstream,
		repo,
		proxy.WithTTLs(proxy.TTLs{
			Search:   cfg.Cache.SearchTTL,
			Show:     cfg.Cache.ShowTTL,
			Episodes: cfg.Cache.EpisodesTTL,
			Episode:  cfg.Cache.EpisodeTTL,
		}),
	)

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

	sched, err := catalogsync.NewScheduler(engine, cfg.Sync.Interval, slogger)
	if err != nil {
		return fmt.Errorf("creating sync scheduler: %w", err)
	}
	sched.Start()

	e := buildServer(cfg, slogger, st, svc, repo, engine, throttle)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	cliLog.Info("starting server", "addr", addr, "sync_interval", cfg.Sync.Interval)

	go func() {
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			cliLog.Error("server error", "err", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	cliLog.Info("shutting down server")

	<-sched.Stop().Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down server: %w", err)
	}

	cliLog.Info("server stopped")
	return nil
}

// buildUpstream assembles the authenticated, throttled upstream client.
func buildUpstream(cfg *config.Config) (*spotify.Client, *spotify.Throttle) {
	var params secrets.Provider
	if cfg.Spotify.ClientID != "" && cfg.Spotify.ClientSecret != "" {
		params = secrets.Static{
			spotify.ParamClientID:     cfg.Spotify.ClientID,
			spotify.ParamClientSecret: cfg.Spotify.ClientSecret,
		}
	} else {
		params = &secrets.Env{Prefix: "PM"}
	}

	tokens := spotify.NewOAuthTokenProvider(
		secrets.NewCached(params),
		spotify.WithTokenURL(cfg.Spotify.TokenURL),
	)

	throttle := spotify.NewThrottle(
		cfg.Spotify.Throttle.PerSecond,
		cfg.Spotify.Throttle.Burst,
		cfg.Spotify.Throttle.DailyLimit,
	)

	client := spotify.NewClient(
		spotify.NewRetryingClient(tokens),
		spotify.WithAPIURL(cfg.Spotify.APIURL),
		spotify.WithMarket(cfg.Spotify.Market),
		spotify.WithThrottle(throttle),
	)
	return client, throttle
}

// buildServer assembles the Echo server and mounts the Huma API on it.
func buildServer(
	cfg *config.Config,
	slogger *slog.Logger,
	st store.Store,
	svc *proxy.Service,
	repo *catalog.Repository,
	engine *catalogsync.Engine,
	throttle *spotify.Throttle,
) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Server.ReadTimeout = cfg.Server.ReadTimeout
	e.Server.WriteTimeout = cfg.Server.WriteTimeout

	e.Use(middleware.RequestLog(slogger))
	e.Use(middleware.Recovery(slogger))
	e.Use(middleware.Metrics())

	health := handlers.NewHealthHandler(st)
	e.GET("/healthz", health.Healthz)
	e.GET("/readyz", health.Readyz)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	humaCfg := huma.DefaultConfig("Podcast Mirror API", Version)
	api := humaecho.New(e, humaCfg)

	handlers.RegisterSearchRoutes(api, handlers.NewSearchHandler(svc))
	handlers.RegisterShowRoutes(api, handlers.NewShowHandler(svc, repo))
	handlers.RegisterEpisodeRoutes(api, handlers.NewEpisodeHandler(svc))
	handlers.RegisterSubscriptionRoutes(api, handlers.NewSubscriptionHandler(repo))
	handlers.RegisterSyncRoutes(api, handlers.NewSyncHandler(engine))
	handlers.RegisterQuotaRoutes(api, handlers.NewQuotaHandler(throttle))

	return e
}

func parseLogLevel(level string) log.Level {
	switch level {
	case "debug":
		return log.DebugLevel
	case "warn":
		return log.WarnLevel
	case "error":
		return log.ErrorLevel
	default:
		return log.InfoLevel
	}
}
