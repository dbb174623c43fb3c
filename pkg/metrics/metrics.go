package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// AuthAttempts records authentication attempts by result (success|failure).
	AuthAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nutriconsultas_auth_attempts_total",
			Help: "Total number of authentication attempts",
		},
		[]string{"result"},
	)

	// NotificationsDispatched counts push notifications handed to the gateway by outcome (sent|failed).
	NotificationsDispatched = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nutriconsultas_notifications_dispatched_total",
			Help: "Total number of scheduled notifications dispatched to the push gateway",
		},
		[]string{"result"},
	)

	// PushChunkFailures counts push gateway chunk submissions that failed outright.
	PushChunkFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "nutriconsultas_push_chunk_failures_total",
			Help: "Number of push message chunks rejected by the gateway",
		},
	)

	// APILatency measures HTTP request latencies.
	APILatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "nutriconsultas_api_latency_seconds",
			Help:    "API endpoint latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)
