package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus collectors for the lint service. The service
// uses a dedicated registry so tests and embedders never fight over the
// global one.
type Metrics struct {
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	messagesTotal   *prometheus.CounterVec
	violationsTotal *prometheus.CounterVec
	lintDuration    prometheus.Histogram

	configReloads *prometheus.CounterVec

	registry *prometheus.Registry
}

// NewMetrics creates the collectors and registers them.
func NewMetrics() *Metrics {
	m := &Metrics{
		httpRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "commitcheck_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"path", "status"},
		),
		httpRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "commitcheck_http_request_duration_seconds",
				Help:    "HTTP request latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"path"},
		),
		messagesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "commitcheck_messages_total",
				Help: "Total number of commit messages linted, by outcome",
			},
			[]string{"outcome"},
		),
		violationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "commitcheck_violations_total",
				Help: "Total number of rule violations, by rule",
			},
			[]string{"rule"},
		),
		lintDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "commitcheck_lint_duration_seconds",
				Help:    "Time spent linting one request batch",
				Buckets: prometheus.DefBuckets,
			},
		),
		configReloads: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "commitcheck_config_reloads_total",
				Help: "Configuration reload attempts, by result",
			},
			[]string{"result"},
		),
		registry: prometheus.NewRegistry(),
	}

	m.registry.MustRegister(
		m.httpRequestsTotal,
		m.httpRequestDuration,
		m.messagesTotal,
		m.violationsTotal,
		m.lintDuration,
		m.configReloads,
	)
	return m
}

// Handler serves the /metrics endpoint for this registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordHTTPRequest records one request's status and latency.
func (m *Metrics) RecordHTTPRequest(path string, status int, duration time.Duration) {
	m.httpRequestsTotal.WithLabelValues(path, strconv.Itoa(status)).Inc()
	m.httpRequestDuration.WithLabelValues(path).Observe(duration.Seconds())
}

// RecordMessage records one linted message.
func (m *Metrics) RecordMessage(passed bool) {
	outcome := "pass"
	if !passed {
		outcome = "fail"
	}
	m.messagesTotal.WithLabelValues(outcome).Inc()
}

// RecordViolation records one rule violation.
func (m *Metrics) RecordViolation(rule string) {
	m.violationsTotal.WithLabelValues(rule).Inc()
}

// RecordLintDuration records how long one batch took.
func (m *Metrics) RecordLintDuration(duration time.Duration) {
	m.lintDuration.Observe(duration.Seconds())
}

// RecordConfigReload records a reload attempt.
func (m *Metrics) RecordConfigReload(ok bool) {
	result := "success"
	if !ok {
		result = "failure"
	}
	m.configReloads.WithLabelValues(result).Inc()
}
