package ai

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Outcomes recorded by Metrics.
const (
	OutcomeSuccess     = "success"
	OutcomeFallback    = "fallback"
	OutcomeUnavailable = "unavailable"
	OutcomeMalformed   = "malformed"
	OutcomeInvalid     = "invalid"
	OutcomeError       = "error"
)

// Metrics counts AI client calls by operation and outcome.
type Metrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewMetrics creates the collectors and registers them on reg when it is not nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "aetherflow_ai_requests_total",
			Help: "AI client calls by operation and outcome.",
		}, []string{"operation", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "aetherflow_ai_request_duration_seconds",
			Help:    "Time spent waiting for the AI backend.",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
		}, []string{"operation"}),
	}
	if reg != nil {
		reg.MustRegister(m.requests, m.duration)
	}
	return m
}

func (m *Metrics) observe(operation, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(operation, outcome).Inc()
	if elapsed > 0 {
		m.duration.WithLabelValues(operation).Observe(elapsed.Seconds())
	}
}
