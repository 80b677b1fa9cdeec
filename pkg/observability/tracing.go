package observability

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// Span names and attribute keys used across the gateway. The tracer
// provider is whatever the host process installed globally; without one,
// spans are no-ops.
const (
	AttrUpstreamModel  = "upstream.model"
	AttrTokensInput    = "upstream.tokens.input"
	AttrTokensOutput   = "upstream.tokens.output"
	AttrErrorType      = "error.type"
	AttrHTTPMethod     = "http.method"
	AttrHTTPPath       = "http.path"
	AttrHTTPStatusCode = "http.status_code"

	SpanChat       = "ollamabridge.chat"
	SpanChatStream = "ollamabridge.chat_stream"
	SpanListModels = "ollamabridge.list_models"
)

// GetTracer returns a named tracer from the global provider.
func GetTracer(name string) trace.Tracer {
	return otel.Tracer(name)
}
