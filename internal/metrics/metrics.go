package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application
type Metrics struct {
	RemoteCalls        *prometheus.CounterVec
	RemoteCallDuration *prometheus.HistogramVec
	Logins             *prometheus.CounterVec

	gatherer prometheus.Gatherer
}

// New creates all metrics and registers them with a fresh registry
func New() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	factory := promauto.With(registry)

	return &Metrics{
		RemoteCalls: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "usradmin_remote_calls_total",
			Help: "Calls made to the remote user service by operation and outcome",
		}, []string{"op", "outcome"}),
		RemoteCallDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "usradmin_remote_call_duration_seconds",
			Help:    "Duration of calls made to the remote user service",
			Buckets: prometheus.DefBuckets,
		}, []string{"op"}),
		Logins: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "usradmin_logins_total",
			Help: "Operator login attempts by outcome",
		}, []string{"outcome"}),
		gatherer: registry,
	}
}

// ObserveRemoteCall records one call to the remote user service
func (m *Metrics) ObserveRemoteCall(op, outcome string, duration time.Duration) {
	m.RemoteCalls.WithLabelValues(op, outcome).Inc()
	m.RemoteCallDuration.WithLabelValues(op).Observe(duration.Seconds())
}

// IncrementLogins counts a login attempt
func (m *Metrics) IncrementLogins(outcome string) {
	m.Logins.WithLabelValues(outcome).Inc()
}

// Handler exposes the registry in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
