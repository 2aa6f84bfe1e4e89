// Package metrics registers the Prometheus metrics for the matching core.
// All services take an optional *Metrics and must tolerate nil.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	MatchesScored        prometheus.Counter
	MatchesPersisted     prometheus.Counter
	MatchesExpired       prometheus.Counter
	ConnectionsCreated   prometheus.Counter
	ConnectionsRevoked   prometheus.Counter
	SharedProfileReads   prometheus.Counter
	AuditAppendFailures  prometheus.Counter
	AuditEntriesPurged   prometheus.Counter
	ClassifierFallbacks  prometheus.Counter
	ClassifierCacheHits  prometheus.Counter
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		MatchesScored: promauto.NewCounter(prometheus.CounterOpts{
			Name: "workbridge_matches_scored_total",
			Help: "Total candidate/job pairs run through the scoring engine",
		}),
		MatchesPersisted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "workbridge_matches_persisted_total",
			Help: "Total matches that cleared the score threshold and were stored",
		}),
		MatchesExpired: promauto.NewCounter(prometheus.CounterOpts{
			Name: "workbridge_matches_expired_total",
			Help: "Total pending matches expired by sweeps and cascades",
		}),
		ConnectionsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "workbridge_connections_created_total",
			Help: "Total consent grants created from accepted matches",
		}),
		ConnectionsRevoked: promauto.NewCounter(prometheus.CounterOpts{
			Name: "workbridge_connections_revoked_total",
			Help: "Total consent grants revoked by candidates",
		}),
		SharedProfileReads: promauto.NewCounter(prometheus.CounterOpts{
			Name: "workbridge_shared_profile_reads_total",
			Help: "Total disclosure-resolver profile reads",
		}),
		AuditAppendFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "workbridge_audit_append_failures_total",
			Help: "Total audit appends that failed and were swallowed",
		}),
		AuditEntriesPurged: promauto.NewCounter(prometheus.CounterOpts{
			Name: "workbridge_audit_entries_purged_total",
			Help: "Total audit entries removed by retention sweeps",
		}),
		ClassifierFallbacks: promauto.NewCounter(prometheus.CounterOpts{
			Name: "workbridge_classifier_fallbacks_total",
			Help: "Total job postings scored by the rule-based fallback",
		}),
		ClassifierCacheHits: promauto.NewCounter(prometheus.CounterOpts{
			Name: "workbridge_classifier_cache_hits_total",
			Help: "Total classifier verdicts served from cache",
		}),
	}
}
