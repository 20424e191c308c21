package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// OperationsTotal counts engine operations by name and outcome code.
	OperationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vibefeed_operations_total",
		Help: "Total number of feed operations by operation and outcome",
	}, []string{"operation", "outcome"})

	// ProjectionLatency records how long a view projection took.
	ProjectionLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "vibefeed_projection_seconds",
		Help:    "View projection latency in seconds",
		Buckets: prometheus.ExponentialBuckets(0.00005, 2, 12),
	}, []string{"view"})

	// CompletionsSuperseded counts simulated-latency completions dropped because a newer action replaced them.
	CompletionsSuperseded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "vibefeed_completions_superseded_total",
		Help: "Total number of pending completions superseded by a newer action",
	})

	// PendingCompletions is the gauge of completions waiting on simulated latency.
	PendingCompletions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "vibefeed_pending_completions",
		Help: "Number of completions waiting on simulated latency",
	})

	// SearchDebounced counts search queries dropped by the debouncer.
	SearchDebounced = promauto.NewCounter(prometheus.CounterOpts{
		Name: "vibefeed_search_debounced_total",
		Help: "Total number of search queries superseded inside the debounce window",
	})

	// ReportsTotal counts post reports.
	ReportsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "vibefeed_reports_total",
		Help: "Total number of reported posts",
	})

	// WebSocketConnections is the gauge of connected shells.
	WebSocketConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "vibefeed_ws_connections",
		Help: "Number of active WebSocket connections",
	})

	// ViewCacheResults counts view cache lookups by result.
	ViewCacheResults = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vibefeed_view_cache_total",
		Help: "View cache lookups by result",
	}, []string{"result"})
)

// RecordOperation increments the operation counter with the given outcome.
func RecordOperation(operation, outcome string) {
	OperationsTotal.WithLabelValues(operation, outcome).Inc()
}

// TrackProjection returns a function that records projection latency when called (e.g. defer).
func TrackProjection(view string) func() {
	start := time.Now()
	return func() {
		ProjectionLatency.WithLabelValues(view).Observe(time.Since(start).Seconds())
	}
}
