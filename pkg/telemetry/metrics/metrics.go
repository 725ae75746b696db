// Package metrics contains the Prometheus collectors for the connection
// layer and the sidecar HTTP endpoint that exposes them.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains the Prometheus collectors for Coracle.
type Metrics struct {
	// Connection lifecycle
	connectionsAccepted prometheus.Counter
	connectionsActive   prometheus.Gauge
	acceptRetries       prometheus.Counter

	// Request cycle
	requestsTotal   *prometheus.CounterVec
	requestFailures *prometheus.CounterVec
	requestDuration prometheus.Histogram
}

// New creates a Metrics instance registered with the given registerer. A nil
// registerer falls back to the Prometheus default.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		connectionsAccepted: factory.NewCounter(prometheus.CounterOpts{
			Name: "coracle_connections_accepted_total",
			Help: "Total number of connections accepted by the listener",
		}),
		connectionsActive: factory.NewGauge(prometheus.GaugeOpts{
			Name: "coracle_connections_active",
			Help: "Number of connections currently holding an admission slot",
		}),
		acceptRetries: factory.NewCounter(prometheus.CounterOpts{
			Name: "coracle_accept_retries_total",
			Help: "Total number of accept attempts retried with backoff",
		}),
		requestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "coracle_requests_total",
			Help: "Total number of requests served, by method and status",
		}, []string{"method", "status"}),
		requestFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "coracle_request_failures_total",
			Help: "Total number of requests rejected before dispatch, by failed check",
		}, []string{"check"}),
		requestDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "coracle_request_duration_seconds",
			Help:    "Duration of the full read-to-write request cycle",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

// ConnectionAccepted records one accepted connection.
func (m *Metrics) ConnectionAccepted() {
	m.connectionsAccepted.Inc()
}

// SessionStarted records a session acquiring its admission slot.
func (m *Metrics) SessionStarted() {
	m.connectionsActive.Inc()
}

// SessionEnded records a session releasing its admission slot.
func (m *Metrics) SessionEnded() {
	m.connectionsActive.Dec()
}

// AcceptRetried records one backoff-delayed accept retry.
func (m *Metrics) AcceptRetried() {
	m.acceptRetries.Inc()
}

// RequestServed records a completed request cycle.
func (m *Metrics) RequestServed(method, status string, elapsed time.Duration) {
	m.requestsTotal.WithLabelValues(method, status).Inc()
	m.requestDuration.Observe(elapsed.Seconds())
}

// RequestRejected records a request that failed validation or parsing.
func (m *Metrics) RequestRejected(check string) {
	m.requestFailures.WithLabelValues(check).Inc()
}
