package panels

import (
	"github.com/grafana/grafana-foundation-sdk/go/bargauge"
	"github.com/grafana/grafana-foundation-sdk/go/common"
	"github.com/grafana/grafana-foundation-sdk/go/timeseries"
)

// RejectionsRate returns a timeseries panel showing rate limiter
// rejections per second by caller class.
func RejectionsRate() *timeseries.PanelBuilder {
	return timeseries.NewPanelBuilder().
		Title("Rejections by Class").
		Description("Requests rejected by the local rate limiter per second, by caller class").
		Datasource(DSRef()).
		Height(TSHeight).
		Span(TSWidth).
		WithTarget(PromQuery(
			`sum(rate(podcast_mirror_rate_limit_rejections_total{job="podcast-mirror"}[5m])) by (class)`,
			"{{class}}", "A",
		)).
		FillOpacity(10).
		LineWidth(2).
		Legend(TableLegend("mean", "max")).
		Tooltip(MultiTooltip()).
		Thresholds(ThresholdsGreenOnly()).
		ColorScheme(ColorSchemePaletteClassic()).
		DrawStyle(common.GraphDrawStyleLine)
}

// RejectionsByOperation returns a bar gauge panel showing rejections over
// the past hour broken down by proxy operation.
func RejectionsByOperation() *bargauge.PanelBuilder {
	return bargauge.NewPanelBuilder().
		Title("Rejections by Operation (1h)").
		Description("Rate limiter rejections in the last hour, by proxy operation").
		Datasource(DSRef()).
		Height(TSHeight).
		Span(TSWidth).
		WithTarget(PromQuery(
			`sum(increase(podcast_mirror_rate_limit_rejections_total{job="podcast-mirror"}[1h])) by (operation)`,
			"{{operation}}", "A",
		)).
		Orientation(common.VizOrientationHorizontal).
		Min(0).
		Thresholds(ThresholdsGreenOnly()).
		ColorScheme(ColorSchemePaletteClassic())
}
