// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcomes of an upstream call.
const (
	OutcomeOK       = "ok"
	OutcomeTimeout  = "timeout"
	OutcomeCanceled = "canceled"
	OutcomeStatus   = "upstream_status"
	OutcomeError    = "error"
)

// MetricsCollector is implemented by anything that records service metrics.
type MetricsCollector interface {
	RecordUpstreamCall(endpoint, outcome string, d time.Duration)
	RecordQuote(kind string, chainID int64)
	RecordAllowanceCheck(source string, approvalNeeded bool)
	RecordTradeStatus(status string)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordUpstreamCall(string, string, time.Duration) {}
func (NoopMetricsCollector) RecordQuote(string, int64)                        {}
func (NoopMetricsCollector) RecordAllowanceCheck(string, bool)                {}
func (NoopMetricsCollector) RecordTradeStatus(string)                         {}

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	registry *prometheus.Registry

	// Upstream metrics
	UpstreamLatency  *prometheus.HistogramVec
	UpstreamRequests *prometheus.CounterVec

	// Trading metrics
	QuotesServed    *prometheus.CounterVec
	AllowanceChecks *prometheus.CounterVec
	TradeStatuses   *prometheus.CounterVec
}

// NewMetrics creates a Metrics instance registered on its own registry,
// together with the Go runtime and process collectors.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "swapdesk"
	}
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		UpstreamLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "aggregator",
			Name:      "request_duration_seconds",
			Help:      "Aggregator request latency in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 3, 5, 10},
		}, []string{"endpoint"}),
		UpstreamRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "aggregator",
			Name:      "requests_total",
			Help:      "Total number of aggregator requests by outcome",
		}, []string{"endpoint", "outcome"}),

		QuotesServed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "trade",
			Name:      "quotes_total",
			Help:      "Total number of enriched quotes served by kind and chain",
		}, []string{"kind", "chain_id"}),
		AllowanceChecks: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "trade",
			Name:      "allowance_checks_total",
			Help:      "Total number of allowance checks by source",
		}, []string{"source", "approval_needed"}),
		TradeStatuses: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "trade",
			Name:      "status_transitions_total",
			Help:      "Total number of trade records entering a status",
		}, []string{"status"}),
	}
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler returns an HTTP handler for the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) RecordUpstreamCall(endpoint, outcome string, d time.Duration) {
	m.UpstreamLatency.WithLabelValues(endpoint).Observe(d.Seconds())
	m.UpstreamRequests.WithLabelValues(endpoint, outcome).Inc()
}

func (m *Metrics) RecordQuote(kind string, chainID int64) {
	m.QuotesServed.WithLabelValues(kind, strconv.FormatInt(chainID, 10)).Inc()
}

func (m *Metrics) RecordAllowanceCheck(source string, approvalNeeded bool) {
	m.AllowanceChecks.WithLabelValues(source, strconv.FormatBool(approvalNeeded)).Inc()
}

func (m *Metrics) RecordTradeStatus(status string) {
	m.TradeStatuses.WithLabelValues(status).Inc()
}

var (
	_ MetricsCollector = (*Metrics)(nil)
	_ MetricsCollector = NoopMetricsCollector{}
)
