package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the gateway's Prometheus collectors.
type Metrics struct {
	registry *prometheus.Registry

	httpRequests   *prometheus.CounterVec
	httpDuration   *prometheus.HistogramVec
	upstreamErrors *prometheus.CounterVec
	healingActions *prometheus.CounterVec
	strippedRounds prometheus.Counter
	streamedEvents prometheus.Counter
	upstreamTokens *prometheus.CounterVec
}

// NewMetrics registers the gateway collectors on a fresh registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	m := &Metrics{
		registry: registry,
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ollamabridge_http_requests_total",
			Help: "HTTP requests served, by path and status code.",
		}, []string{"path", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "ollamabridge_http_request_duration_seconds",
			Help:    "HTTP request latency, by path.",
			Buckets: prometheus.DefBuckets,
		}, []string{"path"}),
		upstreamErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ollamabridge_upstream_errors_total",
			Help: "Upstream failures, by error kind.",
		}, []string{"kind"}),
		healingActions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ollamabridge_healing_actions_total",
			Help: "Tool-call repairs applied, by kind.",
		}, []string{"kind"}),
		strippedRounds: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ollamabridge_history_rounds_stripped_total",
			Help: "Failed tool rounds removed from forwarded history.",
		}),
		streamedEvents: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ollamabridge_stream_events_total",
			Help: "SSE events emitted to clients.",
		}),
		upstreamTokens: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ollamabridge_upstream_tokens_total",
			Help: "Token counts reported by the upstream, by direction.",
		}, []string{"direction"}),
	}
	registry.MustRegister(
		m.httpRequests,
		m.httpDuration,
		m.upstreamErrors,
		m.healingActions,
		m.strippedRounds,
		m.streamedEvents,
		m.upstreamTokens,
	)
	return m
}

// Handler serves the /metrics endpoint for this registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordHTTPRequest records one served request.
func (m *Metrics) RecordHTTPRequest(path string, status int, duration time.Duration) {
	m.httpRequests.WithLabelValues(path, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(path).Observe(duration.Seconds())
}

// RecordUpstreamError records an upstream failure by error kind.
func (m *Metrics) RecordUpstreamError(kind string) {
	m.upstreamErrors.WithLabelValues(kind).Inc()
}

// RecordHealingAction records one tool-call repair.
func (m *Metrics) RecordHealingAction(kind string) {
	m.healingActions.WithLabelValues(kind).Inc()
}

// RecordStrippedRound records one failed round removed from history.
func (m *Metrics) RecordStrippedRound() {
	m.strippedRounds.Inc()
}

// RecordStreamEvent records one SSE event sent to a client.
func (m *Metrics) RecordStreamEvent() {
	m.streamedEvents.Inc()
}

// RecordUpstreamTokens records the token usage the upstream reported.
func (m *Metrics) RecordUpstreamTokens(input, output int) {
	if input > 0 {
		m.upstreamTokens.WithLabelValues("input").Add(float64(input))
	}
	if output > 0 {
		m.upstreamTokens.WithLabelValues("output").Add(float64(output))
	}
}
