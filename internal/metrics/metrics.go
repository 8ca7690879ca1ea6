// Package metrics holds the Prometheus collectors of the dashboard.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// GatewayRequests counts backend calls by operation and outcome.
	GatewayRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "vine",
		Subsystem: "gateway",
		Name:      "requests_total",
		Help:      "Total backend requests issued by the gateway",
	}, []string{"operation", "status"})

	// GatewayDuration observes backend latency by operation.
	GatewayDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "vine",
		Subsystem: "gateway",
		Name:      "request_duration_seconds",
		Help:      "Backend request latency in seconds",
		Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
	}, []string{"operation"})

	// StaleResponses counts list responses dropped because a newer request
	// was issued after them.
	StaleResponses = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "vine",
		Subsystem: "session",
		Name:      "stale_responses_total",
		Help:      "Backend responses discarded as superseded",
	}, []string{"kind"})

	// ActiveSessions is the number of live dashboard sessions.
	ActiveSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "vine",
		Subsystem: "session",
		Name:      "active",
		Help:      "Current number of dashboard sessions",
	})

	// ActiveStreams is the number of open SSE streams.
	ActiveStreams = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "vine",
		Subsystem: "sse",
		Name:      "active_streams",
		Help:      "Current number of open dashboard SSE streams",
	})
)

// Handler serves the Prometheus /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
