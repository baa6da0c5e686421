// Package metrics turns forrest events into Prometheus metrics.
package metrics

import (
	"context"
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"forrest/internal/events"
)

// Metrics holds the collectors, registered on their own registry.
type Metrics struct {
	registry *prometheus.Registry

	apiRequests     *prometheus.CounterVec
	apiDuration     *prometheus.HistogramVec
	authentications *prometheus.CounterVec
	tokenRefreshes  *prometheus.CounterVec
	tokenRevokes    prometheus.Counter
}

// New creates the collectors along with the Go and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		apiRequests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "forrest_api_requests_total",
			Help: "API responses received, by method and status code",
		}, []string{"method", "status"}),
		apiDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "forrest_api_request_duration_seconds",
			Help:    "Duration of API requests",
			Buckets: prometheus.DefBuckets,
		}, []string{"method"}),
		authentications: f.NewCounterVec(prometheus.CounterOpts{
			Name: "forrest_authentications_total",
			Help: "Completed authentications, by flow",
		}, []string{"flow", "result"}),
		tokenRefreshes: f.NewCounterVec(prometheus.CounterOpts{
			Name: "forrest_token_refreshes_total",
			Help: "Access token refreshes, by flow and result",
		}, []string{"flow", "result"}),
		tokenRevokes: f.NewCounter(prometheus.CounterOpts{
			Name: "forrest_token_revocations_total",
			Help: "Tokens revoked",
		}),
	}
}

// Observe is an events.Listener.
func (m *Metrics) Observe(_ context.Context, e events.Event) {
	switch e.Name {
	case events.Response:
		status := "error"
		if e.Data.Status > 0 {
			status = strconv.Itoa(e.Data.Status)
		}
		m.apiRequests.WithLabelValues(e.Data.Method, status).Inc()
		if e.Data.Duration > 0 {
			m.apiDuration.WithLabelValues(e.Data.Method).Observe(e.Data.Duration.Seconds())
		}
	case events.Authenticated:
		m.authentications.WithLabelValues(e.Data.Flow, result(e)).Inc()
	case events.TokenRefreshed:
		m.tokenRefreshes.WithLabelValues(e.Data.Flow, result(e)).Inc()
	case events.TokenRevoked:
		m.tokenRevokes.Inc()
	}
}

// Register subscribes the metrics to every event of d.
func (m *Metrics) Register(d *events.Dispatcher) {
	d.ListenAll(m.Observe)
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func result(e events.Event) string {
	if e.Data.Error != "" {
		return "failure"
	}
	return "success"
}
