package metrics

import "github.com/prometheus/client_golang/prometheus"

// Repository metrics.
var (
	// SearchFallbacksTotal counts list queries answered by substring matching
	// after the full-text index found nothing.
	SearchFallbacksTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "eblog",
			Name:      "search_fallbacks_total",
			Help:      "List queries that fell back to substring matching",
		},
	)

	// SearchesTotal counts list queries by the strategy that produced the page.
	SearchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "eblog",
			Name:      "searches_total",
			Help:      "List queries by result strategy",
		},
		[]string{"sort"},
	)

	// WriteConflictsTotal counts create attempts retried after a uniqueness conflict.
	WriteConflictsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "eblog",
			Name:      "write_conflicts_total",
			Help:      "Create attempts retried after a unique constraint conflict",
		},
	)
)

func init() {
	prometheus.MustRegister(SearchFallbacksTotal)
	prometheus.MustRegister(SearchesTotal)
	prometheus.MustRegister(WriteConflictsTotal)
}
