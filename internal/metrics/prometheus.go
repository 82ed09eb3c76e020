package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Upstream fetch metrics
	FetchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "remora_fetches_total",
			Help: "Total number of risk context fetch attempts",
		},
		[]string{"status"}, // status: success|timeout|unreachable|http_error|malformed|rate_limited
	)

	FetchLatency = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "remora_fetch_latency_seconds",
			Help:    "Risk API fetch latency in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		},
	)

	// Cache metrics
	CacheLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "remora_cache_lookups_total",
			Help: "Total number of context cache lookups by freshness state",
		},
		[]string{"state"}, // state: fresh|stale|expired|miss
	)

	Fallbacks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "remora_fallbacks_total",
			Help: "Total number of fail-open fallbacks by served origin",
		},
		[]string{"origin", "reason"}, // origin: stale_cache|default
	)

	// Rate budget metrics
	RateBudgetTokens = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "remora_rate_budget_tokens",
			Help: "Tokens currently available in the local request budget",
		},
		[]string{"tier"},
	)

	// Decision metrics
	DecisionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "remora_decisions_total",
			Help: "Total number of trading decisions produced",
		},
		[]string{"band", "allowed"},
	)

	// Worker metrics
	WorkerExecutions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "remora_worker_executions_total",
			Help: "Total number of worker executions",
		},
		[]string{"worker", "status"}, // status: success|error
	)

	WorkerDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "remora_worker_duration_seconds",
			Help:    "Worker execution duration in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
		},
		[]string{"worker"},
	)

	WorkerLastRun = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "remora_worker_last_run_timestamp",
			Help: "Unix timestamp of last worker execution",
		},
		[]string{"worker"},
	)
)

// Init registers all metrics with the default Prometheus registry
func Init() {
	prometheus.MustRegister(FetchesTotal)
	prometheus.MustRegister(FetchLatency)

	prometheus.MustRegister(CacheLookups)
	prometheus.MustRegister(Fallbacks)

	prometheus.MustRegister(RateBudgetTokens)

	prometheus.MustRegister(DecisionsTotal)

	prometheus.MustRegister(WorkerExecutions)
	prometheus.MustRegister(WorkerDuration)
	prometheus.MustRegister(WorkerLastRun)
}

// Handler returns the HTTP handler for the /metrics endpoint
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordFetch records one upstream fetch attempt
func RecordFetch(status string, latency time.Duration) {
	FetchesTotal.WithLabelValues(status).Inc()
	FetchLatency.Observe(latency.Seconds())
}

// RecordCacheLookup records a cache lookup by freshness state
func RecordCacheLookup(state string) {
	CacheLookups.WithLabelValues(state).Inc()
}

// RecordFallback records a fail-open fallback
func RecordFallback(origin string, reason string) {
	Fallbacks.WithLabelValues(origin, reason).Inc()
}

// RecordDecision records a produced trading decision
func RecordDecision(band string, allowed bool) {
	allowedLabel := "true"
	if !allowed {
		allowedLabel = "false"
	}
	DecisionsTotal.WithLabelValues(band, allowedLabel).Inc()
}

// RecordWorkerExecution records a worker execution
func RecordWorkerExecution(worker string, duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}

	WorkerExecutions.WithLabelValues(worker, status).Inc()
	WorkerDuration.WithLabelValues(worker).Observe(duration.Seconds())
	WorkerLastRun.WithLabelValues(worker).SetToCurrentTime()
}
