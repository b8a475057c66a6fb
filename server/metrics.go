package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ecosnap/ecosnap-server/gate"
)

// metrics owns its registry so multiple servers (tests) never collide on the
// default one.
type metrics struct {
	registry        *prometheus.Registry
	classifications *prometheus.CounterVec
	authAttempts    *prometheus.CounterVec
}

func newMetrics() *metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &metrics{
		registry: registry,
		classifications: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ecosnap_classifications_total",
			Help: "Classification requests by outcome.",
		}, []string{"outcome"}),
		authAttempts: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ecosnap_auth_attempts_total",
			Help: "Gate submissions by mode and outcome.",
		}, []string{"mode", "outcome"}),
	}
}

func (m *metrics) classification(outcome string) {
	m.classifications.WithLabelValues(outcome).Inc()
}

func (m *metrics) authAttempt(mode gate.Mode, outcome string) {
	m.authAttempts.WithLabelValues(string(mode), outcome).Inc()
}

func (m *metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
