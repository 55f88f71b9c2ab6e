package goGuard

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Label values used on the goguard_* collectors.
const (
	resultSuccess     = "success"
	resultFailure     = "failure"
	resultRateLimited = "rate_limited"
	resultError       = "error"
	decisionAllow     = "allow"
	decisionDeny      = "deny"
)

// Metrics holds the engine's Prometheus collectors in a private registry.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	logins         *prometheus.CounterVec
	verifications  *prometheus.CounterVec
	decisions      *prometheus.CounterVec
	verifyDuration prometheus.Histogram

	registry *prometheus.Registry
}

// NewMetrics returns nil when cfg is disabled.
func NewMetrics(cfg MetricsConfig) *Metrics {
	if !cfg.Enabled {
		return nil
	}

	registry := prometheus.NewRegistry()
	m := &Metrics{
		logins: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "goguard_login_total",
				Help: "Login attempts by result",
			},
			[]string{"result"},
		),
		verifications: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "goguard_token_verifications_total",
				Help: "Bearer token verifications by result",
			},
			[]string{"result"},
		),
		decisions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "goguard_authorization_decisions_total",
				Help: "Authorization decisions by outcome",
			},
			[]string{"decision"},
		),
		registry: registry,
	}
	registry.MustRegister(m.logins, m.verifications, m.decisions)

	if cfg.EnableLatencyHistograms {
		m.verifyDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "goguard_verify_duration_seconds",
			Help:    "Token verification latency in seconds",
			Buckets: []float64{.00001, .000025, .00005, .0001, .00025, .0005, .001, .005},
		})
		registry.MustRegister(m.verifyDuration)
	}

	return m
}

func (m *Metrics) incLogin(result string) {
	if m == nil {
		return
	}
	m.logins.WithLabelValues(result).Inc()
}

func (m *Metrics) observeVerify(result string, d time.Duration) {
	if m == nil {
		return
	}
	m.verifications.WithLabelValues(result).Inc()
	if m.verifyDuration != nil {
		m.verifyDuration.Observe(d.Seconds())
	}
}

func (m *Metrics) incDecision(allowed bool) {
	if m == nil {
		return
	}
	if allowed {
		m.decisions.WithLabelValues(decisionAllow).Inc()
		return
	}
	m.decisions.WithLabelValues(decisionDeny).Inc()
}

// Registry exposes the private registry, e.g. for tests or to add
// application collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format. A nil
// receiver serves 404.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
