package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/kadirpekel/ollamabridge/pkg/adapter"
	"github.com/kadirpekel/ollamabridge/pkg/anthropic"
	"github.com/kadirpekel/ollamabridge/pkg/httpclient"
)

// writeError sends an Anthropic-shaped error envelope.
func writeError(w http.ResponseWriter, status int, kind, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(anthropic.NewErrorResponse(kind, message))
}

// classifyError maps an error to the envelope it should produce.
func classifyError(err error) (status int, kind, message string) {
	var policyErr *adapter.ThinkingNotSupportedError
	if errors.As(err, &policyErr) {
		return http.StatusBadRequest, anthropic.ErrorTypeThinkingNotSupported, policyErr.Error()
	}

	var connErr *httpclient.ConnectionError
	if errors.As(err, &connErr) {
		return http.StatusBadGateway, anthropic.ErrorTypeAPIConnection, connErr.Error()
	}

	var upstreamErr *httpclient.UpstreamError
	if errors.As(err, &upstreamErr) {
		return upstreamErr.ClientStatus(), anthropic.ErrorTypeAPI, upstreamErr.Error()
	}

	return http.StatusInternalServerError, anthropic.ErrorTypeAPI, "internal server error"
}

// writeClassifiedError classifies err, records it, and sends the envelope.
func (s *Server) writeClassifiedError(w http.ResponseWriter, err error) {
	status, kind, message := classifyError(err)
	s.metrics.RecordUpstreamError(kind)
	writeError(w, status, kind, message)
}
