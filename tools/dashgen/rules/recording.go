package rules

// RecordingRules returns a PrometheusRule CR containing pre-computed rate
// expressions used by dashboards and alert rules.
func RecordingRules() PrometheusRule {
	return PrometheusRule{
		APIVersion: "monitoring.coreos.com/v1",
		Kind:       "PrometheusRule",
		Metadata: PrometheusRuleMetadata{
			Name: "pm-recording-rules",
			Labels: map[string]string{
				"prometheus": "system-rules-prometheus",
			},
		},
		Spec: PrometheusRuleSpec{
			Groups: []RuleGroup{
				{
					Name: "pm-recording",
					Rules: []Rule{
						{
							Record: "pm:http_requests:rate5m",
							Expr:   `sum(rate(podcast_mirror_http_requests_total[5m]))`,
						},
						{
							Record: "pm:http_errors:rate5m",
							Expr:   `sum(rate(podcast_mirror_http_requests_total{status=~"5.."}[5m]))`,
						},
						{
							Record: "pm:sync_upserts:rate5m",
							Expr:   `rate(podcast_mirror_sync_episodes_upserted_total[5m])`,
						},
						{
							Record: "pm:sync_errors:rate5m",
							Expr:   `rate(podcast_mirror_sync_errors_total[5m])`,
						},
						{
							Record: "pm:upstream_calls:rate5m",
							Expr:   `rate(podcast_mirror_upstream_calls_total[5m])`,
						},
						{
							Record: "pm:cache_hit_ratio:5m",
							Expr:   `sum(rate(podcast_mirror_cache_hits_total[5m])) / clamp_min(sum(rate(podcast_mirror_cache_hits_total[5m])) + sum(rate(podcast_mirror_cache_misses_total[5m])), 1)`,
						},
					},
				},
			},
		},
	}
}
