package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	UpstreamCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "krishi_upstream_calls_total",
			Help: "Total calls to external services by outcome",
		},
		[]string{"service", "status"},
	)

	UpstreamLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "krishi_upstream_latency_seconds",
			Help:    "External service call latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"service"},
	)

	FlowOutcomesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "krishi_flow_outcomes_total",
			Help: "Flow stage completions by flow, stage and outcome",
		},
		[]string{"flow", "stage", "outcome"},
	)

	StaleCompletionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "krishi_flow_stale_completions_total",
			Help: "Completions discarded because a newer submission had started",
		},
		[]string{"flow"},
	)

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "krishi_http_requests_total",
			Help: "HTTP requests by route and status",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "krishi_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	ActiveSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "krishi_active_sessions",
			Help: "Sessions currently held in memory",
		},
	)
)

// ObserveUpstream records the outcome and latency of a call to an external service.
func ObserveUpstream(service string, started time.Time, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	UpstreamCallsTotal.WithLabelValues(service, status).Inc()
	UpstreamLatency.WithLabelValues(service).Observe(time.Since(started).Seconds())
}
