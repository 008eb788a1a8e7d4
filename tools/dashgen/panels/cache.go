package panels

import (
	"github.com/grafana/grafana-foundation-sdk/go/common"
	"github.com/grafana/grafana-foundation-sdk/go/timeseries"
)

// CacheHitRatio returns a timeseries panel showing the read-through cache
// hit ratio per proxy operation.
func CacheHitRatio() *timeseries.PanelBuilder {
	expr := `sum(rate(podcast_mirror_cache_hits_total{job="podcast-mirror"}[5m])) by (operation) / (sum(rate(podcast_mirror_cache_hits_total{job="podcast-mirror"}[5m])) by (operation) + sum(rate(podcast_mirror_cache_misses_total{job="podcast-mirror"}[5m])) by (operation)) * 100`
	return timeseries.NewPanelBuilder().
		Title("Hit Ratio by Operation").
		Description("Read-through cache hit ratio per proxy operation").
		Datasource(DSRef()).
		Height(TSHeight).
		Span(TSWidth).
		WithTarget(PromQuery(expr, "{{operation}}", "A")).
		Unit("percent").
		FillOpacity(10).
		LineWidth(2).
		Legend(TableLegend("mean", "min")).
		Tooltip(MultiTooltip()).
		Thresholds(ThresholdsGreenOnly()).
		ColorScheme(ColorSchemePaletteClassic()).
		DrawStyle(common.GraphDrawStyleLine)
}

// CacheLookupRate returns a timeseries panel showing total cache lookups
// per second split into hits and misses.
func CacheLookupRate() *timeseries.PanelBuilder {
	return timeseries.NewPanelBuilder().
		Title("Lookup Rate").
		Description("Cache hits and misses per second").
		Datasource(DSRef()).
		Height(TSHeight).
		Span(TSWidth).
		WithTarget(PromQuery(
			`sum(rate(podcast_mirror_cache_hits_total{job="podcast-mirror"}[5m]))`,
			"hits/s", "A",
		)).
		WithTarget(PromQuery(
			`sum(rate(podcast_mirror_cache_misses_total{job="podcast-mirror"}[5m]))`,
			"misses/s", "B",
		)).
		Unit("reqps").
		FillOpacity(10).
		LineWidth(2).
		Legend(TableLegend("mean", "max")).
		Tooltip(MultiTooltip()).
		Thresholds(ThresholdsGreenOnly()).
		ColorScheme(ColorSchemePaletteClassic()).
		DrawStyle(common.GraphDrawStyleLine)
}
