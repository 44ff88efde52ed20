package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
)

// Webhook bridge metrics - using explicit registration
var (
	// Request counters
	RequestsTotal *prometheus.CounterVec

	// Webhook flow outcomes
	WebhooksTotal *prometheus.CounterVec

	// Per-step results across all flows
	StepResultsTotal *prometheus.CounterVec

	// External collaborator latency
	ExternalLatency *prometheus.HistogramVec
)

// init creates and registers all metrics with the default registry
func init() {
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "bridge",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of inbound webhook requests",
		},
		[]string{"method", "status"},
	)

	WebhooksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "bridge",
			Subsystem: "webhook",
			Name:      "flows_total",
			Help:      "Total processed webhook flows",
		},
		[]string{"flow", "outcome"},
	)

	StepResultsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "bridge",
			Subsystem: "webhook",
			Name:      "step_results_total",
			Help:      "Per-step results of webhook side-effect branches",
		},
		[]string{"flow", "step", "status"},
	)

	ExternalLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "bridge",
			Subsystem: "external",
			Name:      "request_duration_seconds",
			Help:      "Latency of calls to external collaborators",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service"},
	)

	collectors := []prometheus.Collector{
		RequestsTotal,
		WebhooksTotal,
		StepResultsTotal,
		ExternalLatency,
	}
	for _, c := range collectors {
		if err := prometheus.Register(c); err != nil {
			log.Warn().Err(err).Msg("failed to register metric")
		}
	}
}

// RecordRequest increments the request counter
func RecordRequest(method, status string) {
	RequestsTotal.WithLabelValues(method, status).Inc()
}

// RecordFlow increments the webhook flow counter
func RecordFlow(flow, outcome string) {
	WebhooksTotal.WithLabelValues(flow, outcome).Inc()
}

// RecordStep increments the per-step result counter
func RecordStep(flow, step, status string) {
	StepResultsTotal.WithLabelValues(flow, step, status).Inc()
}

// ObserveExternal records the latency of one external call
func ObserveExternal(service string, seconds float64) {
	ExternalLatency.WithLabelValues(service).Observe(seconds)
}
