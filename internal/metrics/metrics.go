// Package metrics holds the backend's Prometheus collectors.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics is one set of collectors registered on its own registry, so tests
// and multiple servers in one process do not collide.
type Metrics struct {
	Registry *prometheus.Registry

	httpRequests  *prometheus.CounterVec
	httpDuration  *prometheus.HistogramVec
	configSaves   *prometheus.CounterVec
	pushes        *prometheus.CounterVec
	pushedUsers   prometheus.Counter
	activeSession prometheus.Gauge
}

// New creates and registers the collectors.
func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		httpRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "stockdash",
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "Total number of HTTP requests handled.",
			},
			[]string{"method", "route", "status"},
		),
		httpDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "stockdash",
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "Duration of HTTP requests.",
				Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12),
			},
			[]string{"method", "route"},
		),
		configSaves: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "stockdash",
				Subsystem: "lms",
				Name:      "user_config_saves_total",
				Help:      "User UI config saves by outcome.",
			},
			[]string{"outcome"},
		),
		pushes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "stockdash",
				Subsystem: "lms",
				Name:      "config_pushes_total",
				Help:      "Broadcast pushes by outcome.",
			},
			[]string{"outcome"},
		),
		pushedUsers: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "stockdash",
				Subsystem: "lms",
				Name:      "pushed_users_total",
				Help:      "Users whose UI config was replaced by a broadcast.",
			},
		),
		activeSession: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "stockdash",
				Subsystem: "auth",
				Name:      "active_sessions",
				Help:      "Number of live bearer tokens.",
			},
		),
	}
	m.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequests,
		m.httpDuration,
		m.configSaves,
		m.pushes,
		m.pushedUsers,
		m.activeSession,
	)
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}

// ObserveRequest records one handled request.
func (m *Metrics) ObserveRequest(method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// ConfigSaved records a user-config save.
func (m *Metrics) ConfigSaved(ok bool) {
	if m == nil {
		return
	}
	m.configSaves.WithLabelValues(outcome(ok)).Inc()
}

// Pushed records a broadcast and the number of users it reached.
func (m *Metrics) Pushed(ok bool, users int) {
	if m == nil {
		return
	}
	m.pushes.WithLabelValues(outcome(ok)).Inc()
	if ok {
		m.pushedUsers.Add(float64(users))
	}
}

// SetSessions sets the live session gauge.
func (m *Metrics) SetSessions(n int) {
	if m == nil {
		return
	}
	m.activeSession.Set(float64(n))
}

func outcome(ok bool) string {
	if ok {
		return "success"
	}
	return "error"
}
