package main

import "errors"

// KnownMetrics is the set of metric names exported by podcast-mirror
// plus recording rule names referenced in dashboards and alerts.
var KnownMetrics = map[string]bool{
	// HTTP metrics.
	"podcast_mirror_http_request_duration_seconds": true,
	"podcast_mirror_http_requests_total":           true,

	// Health metrics.
	"podcast_mirror_healthz_up": true,
	"podcast_mirror_readyz_up":  true,

	// Sync metrics.
	"podcast_mirror_sync_episodes_upserted_total": true,
	"podcast_mirror_sync_errors_total":            true,
	"podcast_mirror_sync_duration_seconds":        true,
	"podcast_mirror_sync_batch_retries_total":     true,

	// Cache metrics.
	"podcast_mirror_cache_hits_total":   true,
	"podcast_mirror_cache_misses_total": true,

	// Local rate limiter metrics.
	"podcast_mirror_rate_limit_rejections_total": true,

	// Upstream catalog API metrics.
	"podcast_mirror_upstream_calls_total":            true,
	"podcast_mirror_upstream_retries_total":          true,
	"podcast_mirror_upstream_daily_usage":            true,
	"podcast_mirror_upstream_daily_limit_hits_total": true,

	// Recording rules.
	"pm:http_requests:rate5m":  true,
	"pm:http_errors:rate5m":    true,
	"pm:sync_upserts:rate5m":   true,
	"pm:sync_errors:rate5m":    true,
	"pm:upstream_calls:rate5m": true,
	"pm:cache_hit_ratio:5m":    true,

	// Standard Prometheus metrics referenced in dashboards.
	"up":                         true,
	"process_start_time_seconds": true,
}

// Config controls which artifacts the generator produces and where they go.
type Config struct {
	OutputDir        string
	DashboardEnabled bool
	RulesEnabled     bool
}

// DefaultConfig returns a Config that generates all artifacts into ../../deploy
// (relative to tools/dashgen/).
func DefaultConfig() Config {
	return Config{
		OutputDir:        "../../deploy",
		DashboardEnabled: true,
		RulesEnabled:     true,
	}
}

// Validate checks that the config is usable.
func (c Config) Validate() error {
	if c.OutputDir == "" {
		return errors.New("output directory must be set")
	}
	if !c.DashboardEnabled && !c.RulesEnabled {
		return errors.New("at least one of dashboard or rules must be enabled")
	}
	return nil
}
