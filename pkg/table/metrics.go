package table

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Fetch outcomes.
const (
	outcomeApplied   = "applied"
	outcomeFailed    = "failed"
	outcomeStale     = "stale"
	outcomeUnmounted = "unmounted"
)

var (
	tableFetchesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "admin_table_fetches_total",
		Help: "Total table fetches by trigger and outcome",
	}, []string{"trigger", "outcome"})

	tableFetchDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "admin_table_fetch_duration_seconds",
		Help:    "Table fetch duration in seconds by trigger",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
	}, []string{"trigger"})

	tableURLReplacesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "admin_table_url_replaces_total",
		Help: "Total URL replacements after user-driven fetches",
	})
)
