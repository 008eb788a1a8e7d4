// Package dashboards assembles Grafana dashboard definitions from panel builders.
package dashboards

import (
	"github.com/grafana/grafana-foundation-sdk/go/dashboard"

	"github.com/donaldgifford/podcast-mirror/tools/dashgen/panels"
)

// BuildOverview constructs the Podcast Mirror Overview dashboard with all
// metric rows.
func BuildOverview() *dashboard.DashboardBuilder {
	b := dashboard.NewDashboardBuilder("Podcast Mirror Overview").
		Uid("podcast-mirror-overview").
		Tags([]string{"pm", "podcast-mirror"}).
		Refresh("30s").
		Time("now-6h", "now").
		Timezone("browser").
		Editable().
		Tooltip(dashboard.DashboardCursorSyncCrosshair).
		WithVariable(datasourceVar())

	// Row 1: Overview.
	b.WithRow(dashboard.NewRowBuilder("Overview").
		WithPanel(panels.HealthzStat()).
		WithPanel(panels.ReadyzStat()).
		WithPanel(panels.QuotaGauge()).
		WithPanel(panels.UptimeStat()))

	// Row 2: HTTP.
	b.WithRow(dashboard.NewRowBuilder("HTTP").
		WithPanel(panels.RequestRate()).
		WithPanel(panels.LatencyPercentiles()).
		WithPanel(panels.ErrorRate()))

	// Row 3: Upstream API.
	b.WithRow(dashboard.NewRowBuilder("Upstream API").
		WithPanel(panels.APICallsRate()).
		WithPanel(panels.DailyUsage()).
		WithPanel(panels.RetriesRate()).
		WithPanel(panels.LimitHits()))

	// Row 4: Sync.
	b.WithRow(dashboard.NewRowBuilder("Sync").
		WithPanel(panels.EpisodesUpserted()).
		WithPanel(panels.SyncErrors()).
		WithPanel(panels.SyncDuration()).
		WithPanel(panels.BatchRetries()))

	// Row 5: Cache.
	b.WithRow(dashboard.NewRowBuilder("Cache").
		WithPanel(panels.CacheHitRatio()).
		WithPanel(panels.CacheLookupRate()))

	// Row 6: Rate Limiting.
	b.WithRow(dashboard.NewRowBuilder("Rate Limiting").
		WithPanel(panels.RejectionsRate()).
		WithPanel(panels.RejectionsByOperation()))

	return b
}

func datasourceVar() *dashboard.DatasourceVariableBuilder {
	return dashboard.NewDatasourceVariableBuilder("datasource").
		Label("Datasource").
		Type("prometheus")
}
