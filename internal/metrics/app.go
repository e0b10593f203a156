package metrics

import (
	"strconv"

	"github.com/webrecon/webrecon/internal/observability"
)

// Application metric names following Prometheus conventions.
const (
	QuotaDecisionsTotal    = "app_quota_decisions_total"
	CacheLookupsTotal      = "app_cache_lookups_total"
	FailoverTransitions    = "app_backend_failover_total"
	ScrapeTargetsTotal     = "app_scrape_targets_total"
	SearchRequestsTotal    = "app_search_requests_total"
	ActiveScrapeBatches    = "app_active_scrape_batches"
	HealthCheckTotal       = "app_health_check_total"
	HealthCheckDurationMS  = "app_health_check_duration_ms"
	ServerStartTimeSeconds = "app_server_start_time_seconds"
)

// RecordQuotaDecision counts one quota check per scope and outcome.
func RecordQuotaDecision(scope string, allowed bool) {
	status := "allowed"
	if !allowed {
		status = "denied"
	}

	if observability.TelemetrySystem != nil {
		_ = observability.TelemetrySystem.Counter(
			QuotaDecisionsTotal,
			1,
			map[string]string{
				"scope":  scope,
				"status": status,
			},
		)
	}
}

// RecordCacheLookup counts one result-cache read.
func RecordCacheLookup(hit bool) {
	status := "miss"
	if hit {
		status = "hit"
	}

	if observability.TelemetrySystem != nil {
		_ = observability.TelemetrySystem.Counter(
			CacheLookupsTotal,
			1,
			map[string]string{"status": status},
		)
	}
}

// RecordFailover counts a backend demotion or promotion for a concern.
func RecordFailover(concern string, transition string) {
	if observability.TelemetrySystem != nil {
		_ = observability.TelemetrySystem.Counter(
			FailoverTransitions,
			1,
			map[string]string{
				"concern":    concern,
				"transition": transition,
			},
		)
	}
}

// RecordScrapeOutcome counts one scrape target's terminal state.
func RecordScrapeOutcome(status string, fromCache bool) {
	if observability.TelemetrySystem != nil {
		_ = observability.TelemetrySystem.Counter(
			ScrapeTargetsTotal,
			1,
			map[string]string{
				"status":     status,
				"from_cache": strconv.FormatBool(fromCache),
			},
		)
	}
}

// RecordSearch counts one search request by effective timeframe.
func RecordSearch(timeframe string, success bool) {
	status := "success"
	if !success {
		status = "failure"
	}

	if observability.TelemetrySystem != nil {
		_ = observability.TelemetrySystem.Counter(
			SearchRequestsTotal,
			1,
			map[string]string{
				"timeframe": timeframe,
				"status":    status,
			},
		)
	}
}

// SetActiveScrapeBatches tracks in-flight scrape batches.
func SetActiveScrapeBatches(count int64) {
	if observability.TelemetrySystem != nil {
		_ = observability.TelemetrySystem.Gauge(
			ActiveScrapeBatches,
			float64(count),
			nil,
		)
	}
}
