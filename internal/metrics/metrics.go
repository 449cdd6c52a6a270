// ABOUTME: Prometheus counters for MCP channel activity
// ABOUTME: Nil-safe from the client's perspective; a nil *Metrics records nothing

package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Request failure reasons reported on the requests_failed_total counter.
const (
	ReasonTimeout          = "timeout"
	ReasonRPCError         = "rpc_error"
	ReasonConnectionClosed = "connection_closed"
)

// Tool call outcomes reported on the tool_calls_total counter.
const (
	OutcomeSuccess  = "success"
	OutcomeError    = "error"
	OutcomeNotFound = "not_found"
)

// Metrics holds the Prometheus collectors for a single client instance.
// All record methods are safe to call on a nil receiver.
type Metrics struct {
	registry *prometheus.Registry

	requestsSent      prometheus.Counter
	requestsFailed    *prometheus.CounterVec
	reconnectAttempts prometheus.Counter
	toolCalls         *prometheus.CounterVec
	streamChunks      prometheus.Counter
	framesDropped     prometheus.Counter
}

// New creates a Metrics instance backed by its own registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		requestsSent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "coven_mcp",
			Name:      "requests_sent_total",
			Help:      "Outbound requests written to the channel.",
		}),
		requestsFailed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "coven_mcp",
			Name:      "requests_failed_total",
			Help:      "Requests completed without a successful response, by reason.",
		}, []string{"reason"}),
		reconnectAttempts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "coven_mcp",
			Name:      "reconnect_attempts_total",
			Help:      "Reconnection attempts scheduled after unclean closes.",
		}),
		toolCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "coven_mcp",
			Name:      "tool_calls_total",
			Help:      "Server-initiated tool calls dispatched locally, by outcome.",
		}, []string{"outcome"}),
		streamChunks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "coven_mcp",
			Name:      "stream_chunks_total",
			Help:      "stream/chunk notifications delivered to an active bridge.",
		}),
		framesDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "coven_mcp",
			Name:      "frames_dropped_total",
			Help:      "Inbound frames dropped as malformed.",
		}),
	}

	registry.MustRegister(
		m.requestsSent,
		m.requestsFailed,
		m.reconnectAttempts,
		m.toolCalls,
		m.streamChunks,
		m.framesDropped,
	)

	return m
}

// Handler returns an HTTP handler serving the registry in Prometheus format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RequestSent records an outbound request.
func (m *Metrics) RequestSent() {
	if m != nil {
		m.requestsSent.Inc()
	}
}

// RequestFailed records a request that completed without a success response.
func (m *Metrics) RequestFailed(reason string) {
	if m != nil {
		m.requestsFailed.WithLabelValues(reason).Inc()
	}
}

// ReconnectAttempt records a scheduled reconnection attempt.
func (m *Metrics) ReconnectAttempt() {
	if m != nil {
		m.reconnectAttempts.Inc()
	}
}

// ToolCall records a dispatched tool call by outcome.
func (m *Metrics) ToolCall(outcome string) {
	if m != nil {
		m.toolCalls.WithLabelValues(outcome).Inc()
	}
}

// StreamChunk records a chunk delivered to a streaming bridge.
func (m *Metrics) StreamChunk() {
	if m != nil {
		m.streamChunks.Inc()
	}
}

// FrameDropped records a malformed inbound frame.
func (m *Metrics) FrameDropped() {
	if m != nil {
		m.framesDropped.Inc()
	}
}
