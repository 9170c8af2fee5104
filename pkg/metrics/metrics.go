// Package metrics holds the Prometheus collectors of the API process.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "foodorder"

// Metrics groups every collector. A nil *Metrics is a no-op.
type Metrics struct {
	requests        *prometheus.CounterVec
	latency         *prometheus.HistogramVec
	checkout        *prometheus.CounterVec
	breakerState    *prometheus.GaugeVec
	breakerFailures *prometheus.CounterVec
}

// New registers the collectors on reg.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		return nil
	}
	m := &Metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		checkout: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "checkout_outcomes_total",
			Help:      "Checkout attempts by outcome.",
		}, []string{"outcome"}),
		breakerState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "circuit_breaker_state",
			Help:      "Circuit breaker state per dependency (0 closed, 1 half-open, 2 open).",
		}, []string{"dependency"}),
		breakerFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "circuit_breaker_failures_total",
			Help:      "Failed calls through a circuit breaker per dependency.",
		}, []string{"dependency"}),
	}
	reg.MustRegister(m.requests, m.latency, m.checkout, m.breakerState, m.breakerFailures)
	return m
}

// ObserveRequest records one served request.
func (m *Metrics) ObserveRequest(method, route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	route = normalizeLabel(route)
	m.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.latency.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// CheckoutOutcome counts a checkout attempt.
func (m *Metrics) CheckoutOutcome(outcome string) {
	if m == nil {
		return
	}
	m.checkout.WithLabelValues(normalizeLabel(outcome)).Inc()
}

// BreakerState sets the breaker gauge of dependency.
func (m *Metrics) BreakerState(dependency string, state float64) {
	if m == nil {
		return
	}
	m.breakerState.WithLabelValues(normalizeLabel(dependency)).Set(state)
}

// BreakerFailure counts a failed call through the breaker of dependency.
func (m *Metrics) BreakerFailure(dependency string) {
	if m == nil {
		return
	}
	m.breakerFailures.WithLabelValues(normalizeLabel(dependency)).Inc()
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
