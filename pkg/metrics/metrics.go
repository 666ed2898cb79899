// Package metrics holds the prometheus collectors of the service.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "mentorship"

// APIBuckets are histogram buckets for API response times
var APIBuckets = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10}

// Metrics owns a registry and the collectors registered on it.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	HTTPRequestDuration *prometheus.HistogramVec
	HTTPRequestTotal    *prometheus.CounterVec
	ActiveRequests      *prometheus.GaugeVec

	AuthAttempts       *prometheus.CounterVec
	MentorshipRequests *prometheus.CounterVec
	Sessions           *prometheus.CounterVec

	NotificationConnections prometheus.Gauge
	NotificationsDropped    prometheus.Counter
}

// New creates the collectors on a fresh registry, together with the Go
// runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		registry: reg,
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_server_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: APIBuckets,
			},
			[]string{"http_request_method", "http_route", "http_response_status_code"},
		),
		HTTPRequestTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_server_request_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"http_request_method", "http_route", "http_response_status_code"},
		),
		ActiveRequests: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "http_server_active_requests",
				Help: "Number of active HTTP requests",
			},
			[]string{"http_request_method"},
		),
		AuthAttempts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "auth_attempts_total",
				Help:      "Registration and login attempts by outcome",
			},
			[]string{"operation", "result"},
		),
		MentorshipRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "requests_total",
				Help:      "Mentorship requests by resulting status",
			},
			[]string{"status"},
		),
		Sessions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "sessions_total",
				Help:      "Session lifecycle events by resulting status",
			},
			[]string{"status"},
		),
		NotificationConnections: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "notification_connections",
			Help:      "Open notification websocket connections",
		}),
		NotificationsDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_dropped_total",
			Help:      "Events dropped because a client was too slow",
		}),
	}

	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.HTTPRequestDuration,
		m.HTTPRequestTotal,
		m.ActiveRequests,
		m.AuthAttempts,
		m.MentorshipRequests,
		m.Sessions,
		m.NotificationConnections,
		m.NotificationsDropped,
	)

	return m
}

// Handler serves the registry in the prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// RequestStarted tracks an in-flight request and returns the matching done func
func (m *Metrics) RequestStarted(method string) func() {
	if m == nil {
		return func() {}
	}
	g := m.ActiveRequests.WithLabelValues(method)
	g.Inc()
	return g.Dec
}

// ObserveHTTP records a finished request. route is the matched route template.
func (m *Metrics) ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	code := strconv.Itoa(status)
	m.HTTPRequestDuration.WithLabelValues(method, route, code).Observe(elapsed.Seconds())
	m.HTTPRequestTotal.WithLabelValues(method, route, code).Inc()
}

// AuthAttempt counts a register or login outcome
func (m *Metrics) AuthAttempt(operation, result string) {
	if m == nil {
		return
	}
	m.AuthAttempts.WithLabelValues(operation, result).Inc()
}

// RequestTransition counts a mentorship request entering status
func (m *Metrics) RequestTransition(status string) {
	if m == nil {
		return
	}
	m.MentorshipRequests.WithLabelValues(status).Inc()
}

// SessionTransition counts a session entering status
func (m *Metrics) SessionTransition(status string) {
	if m == nil {
		return
	}
	m.Sessions.WithLabelValues(status).Inc()
}

// ConnectionOpened increments the open websocket gauge
func (m *Metrics) ConnectionOpened() {
	if m == nil {
		return
	}
	m.NotificationConnections.Inc()
}

// ConnectionClosed decrements the open websocket gauge
func (m *Metrics) ConnectionClosed() {
	if m == nil {
		return
	}
	m.NotificationConnections.Dec()
}

// NotificationDropped counts an event that could not be queued
func (m *Metrics) NotificationDropped() {
	if m == nil {
		return
	}
	m.NotificationsDropped.Inc()
}
