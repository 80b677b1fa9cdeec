package server

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/kadirpekel/ollamabridge/pkg/observability"
)

// sseWriter emits Messages API events on an SSE connection. Each event is
// exactly "event: <name>\n" then "data: <compact JSON>\n\n", flushed
// immediately so the client sees tokens as they arrive.
type sseWriter struct {
	w       http.ResponseWriter
	flusher http.Flusher
	metrics *observability.Metrics
}

// newSSEWriter sets the streaming headers and flushes them before any
// event is written.
func newSSEWriter(w http.ResponseWriter, metrics *observability.Metrics) (*sseWriter, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, fmt.Errorf("response writer does not support streaming")
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()
	return &sseWriter{w: w, flusher: flusher, metrics: metrics}, nil
}

// Send writes one event. A write error means the client went away; the
// caller stops the stream on it.
func (s *sseWriter) Send(event string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encoding %s event: %w", event, err)
	}
	if _, err := fmt.Fprintf(s.w, "event: %s\ndata: %s\n\n", event, data); err != nil {
		return err
	}
	s.flusher.Flush()
	if s.metrics != nil {
		s.metrics.RecordStreamEvent()
	}
	return nil
}
