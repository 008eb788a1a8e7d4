package panels

import (
	"github.com/grafana/grafana-foundation-sdk/go/common"
	"github.com/grafana/grafana-foundation-sdk/go/stat"
	"github.com/grafana/grafana-foundation-sdk/go/timeseries"
)

// EpisodesUpserted returns a timeseries panel showing episodes upserted
// per minute by sync passes.
func EpisodesUpserted() *timeseries.PanelBuilder {
	return timeseries.NewPanelBuilder().
		Title("Episodes / min").
		Description("Rate of episodes upserted per minute").
		Datasource(DSRef()).
		Height(TSHeight).
		Span(6).
		WithTarget(PromQuery(`pm:sync_upserts:rate5m * 60`, "episodes/min", "A")).
		FillOpacity(10).
		LineWidth(2).
		Thresholds(ThresholdsGreenOnly()).
		ColorScheme(ColorSchemePaletteClassic()).
		DrawStyle(common.GraphDrawStyleLine)
}

// SyncErrors returns a timeseries panel showing per-show sync failures
// per minute.
func SyncErrors() *timeseries.PanelBuilder {
	return timeseries.NewPanelBuilder().
		Title("Errors / min").
		Description("Rate of per-show sync failures per minute").
		Datasource(DSRef()).
		Height(TSHeight).
		Span(6).
		WithTarget(PromQuery(`pm:sync_errors:rate5m * 60`, "errors/min", "A")).
		FillOpacity(10).
		LineWidth(2).
		Thresholds(ThresholdsGreenYellowRed(0.1, 1)).
		ColorScheme(ColorSchemeThresholds()).
		DrawStyle(common.GraphDrawStyleLine)
}

// SyncDuration returns a timeseries panel showing the p95 sync pass
// duration.
func SyncDuration() *timeseries.PanelBuilder {
	return timeseries.NewPanelBuilder().
		Title("Pass Duration (p95)").
		Description("95th percentile sync pass duration").
		Datasource(DSRef()).
		Height(TSHeight).
		Span(6).
		WithTarget(PromQuery(
			`histogram_quantile(0.95, sum(rate(podcast_mirror_sync_duration_seconds_bucket{job="podcast-mirror"}[5m])) by (le))`,
			"p95",
			"A",
		)).
		Unit("s").
		FillOpacity(10).
		LineWidth(2).
		Thresholds(ThresholdsGreenOnly()).
		ColorScheme(ColorSchemePaletteClassic()).
		DrawStyle(common.GraphDrawStyleLine)
}

// BatchRetries returns a stat panel showing batch-write retries in the
// past 24 hours.
func BatchRetries() *stat.PanelBuilder {
	return stat.NewPanelBuilder().
		Title("Batch Retries (24h)").
		Description("Batch-write retries for unprocessed items in the last 24 hours").
		Datasource(DSRef()).
		Height(TSHeight).
		Span(6).
		WithTarget(PromQuery(`increase(podcast_mirror_sync_batch_retries_total{job="podcast-mirror"}[24h])`, "", "A")).
		Thresholds(ThresholdsGreenYellowRed(5, 25)).
		ColorScheme(ColorSchemeThresholds()).
		ColorMode(common.BigValueColorModeBackground).
		GraphMode(common.BigValueGraphModeArea)
}
