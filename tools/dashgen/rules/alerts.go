package rules

// AlertRules returns a PrometheusRule CR containing alert rules for
// podcast-mirror operational monitoring.
func AlertRules() PrometheusRule {
	return PrometheusRule{
		APIVersion: "monitoring.coreos.com/v1",
		Kind:       "PrometheusRule",
		Metadata: PrometheusRuleMetadata{
			Name: "pm-alerts",
			Labels: map[string]string{
				"prometheus": "system-rules-prometheus",
			},
		},
		Spec: PrometheusRuleSpec{
			Groups: []RuleGroup{
				{
					Name: "pm-alerts",
					Rules: []Rule{
						{
							Alert: "PmDown",
							Expr:  `absent(up{job="podcast-mirror"})`,
							For:   "2m",
							Labels: map[string]string{
								"severity": "critical",
							},
							Annotations: map[string]string{
								"summary":     "Podcast Mirror is down",
								"description": "The podcast-mirror job has been absent for more than 2 minutes.",
							},
						},
						{
							Alert: "PmReadinessDown",
							Expr:  `podcast_mirror_readyz_up == 0`,
							For:   "2m",
							Labels: map[string]string{
								"severity": "critical",
							},
							Annotations: map[string]string{
								"summary":     "Podcast Mirror readiness check is failing",
								"description": "The readiness probe has been reporting not-ready for more than 2 minutes.",
							},
						},
						{
							Alert: "PmHighErrorRate",
							Expr:  `pm:http_errors:rate5m / pm:http_requests:rate5m > 0.05`,
							For:   "5m",
							Labels: map[string]string{
								"severity": "warning",
							},
							Annotations: map[string]string{
								"summary":     "High HTTP error rate on Podcast Mirror",
								"description": "More than 5% of HTTP requests are returning 5xx errors over the last 5 minutes.",
							},
						},
						{
							Alert: "PmSyncErrors",
							Expr:  `pm:sync_errors:rate5m > 0`,
							For:   "5m",
							Labels: map[string]string{
								"severity": "warning",
							},
							Annotations: map[string]string{
								"summary":     "Sync failures detected",
								"description": "Sync passes have been failing for individual shows for more than 5 minutes.",
							},
						},
						{
							Alert: "PmBatchRetrySpike",
							Expr:  `increase(podcast_mirror_sync_batch_retries_total[15m]) > 25`,
							For:   "5m",
							Labels: map[string]string{
								"severity": "warning",
							},
							Annotations: map[string]string{
								"summary":     "Batch-write retries are elevated",
								"description": "The store is returning unprocessed items at an unusual rate, which slows sync passes.",
							},
						},
						{
							Alert: "PmUpstreamQuotaHigh",
							Expr:  `podcast_mirror_upstream_daily_usage > 4000`,
							For:   "5m",
							Labels: map[string]string{
								"severity": "warning",
							},
							Annotations: map[string]string{
								"summary":     "Upstream API daily usage is above 80% of the budget",
								"description": "Daily upstream API usage has exceeded 4000 calls (budget is 5000).",
							},
						},
						{
							Alert: "PmUpstreamLimitReached",
							Expr:  `increase(podcast_mirror_upstream_daily_limit_hits_total[5m]) > 0`,
							For:   "0m",
							Labels: map[string]string{
								"severity": "critical",
							},
							Annotations: map[string]string{
								"summary":     "Upstream API daily budget has been reached",
								"description": "The upstream catalog API daily call budget has been exhausted. Sync and proxy fetches are paused until reset.",
							},
						},
						{
							Alert: "PmLowCacheHitRatio",
							Expr:  `pm:cache_hit_ratio:5m < 0.5`,
							For:   "30m",
							Labels: map[string]string{
								"severity": "warning",
							},
							Annotations: map[string]string{
								"summary":     "Read-through cache hit ratio is low",
								"description": "Less than half of proxy reads are being served from the cache, increasing upstream quota consumption.",
							},
						},
					},
				},
			},
		},
	}
}
