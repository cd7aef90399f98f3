package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	OutcomeSuccess      = "success"
	OutcomeInvalid      = "invalid"
	OutcomeBackendError = "backend_error"
)

// Metrics groups the gateway collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	generateRequests *prometheus.CounterVec
	generateDuration prometheus.Histogram
	httpRequests     *prometheus.CounterVec
}

// New creates the collectors and registers them with r.
func New(r prometheus.Registerer) *Metrics {
	m := &Metrics{
		generateRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gateway_generate_requests_total",
				Help: "Relay requests by terminal outcome",
			},
			[]string{"outcome"},
		),
		generateDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "gateway_generate_duration_seconds",
				Help:    "Time spent waiting on the generation backend",
				Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 20, 30, 60},
			},
		),
		httpRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gateway_http_requests_total",
				Help: "HTTP requests by method, matched route and status",
			},
			[]string{"method", "route", "status"},
		),
	}
	r.MustRegister(m.generateRequests, m.generateDuration, m.httpRequests)
	return m
}

func (m *Metrics) GenerateOutcome(outcome string) {
	if m == nil {
		return
	}
	m.generateRequests.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveBackend(d time.Duration) {
	if m == nil {
		return
	}
	m.generateDuration.Observe(d.Seconds())
}

func (m *Metrics) HTTPRequest(method, route, status string) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, route, status).Inc()
}
