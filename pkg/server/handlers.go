package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/kadirpekel/ollamabridge"
	"github.com/kadirpekel/ollamabridge/pkg/adapter"
	"github.com/kadirpekel/ollamabridge/pkg/anthropic"
	"github.com/kadirpekel/ollamabridge/pkg/healing"
	"github.com/kadirpekel/ollamabridge/pkg/ollama"
)

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// handleHealth reports liveness, the configured upstream and the build
// version.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"ollama":  s.upstream.BaseURL(),
		"version": ollamabridge.Version,
	})
}

// modelEntry is one element of the /v1/models listing.
type modelEntry struct {
	ID      string `json:"id"`
	Object  string `json:"object"`
	Created int64  `json:"created"`
	OwnedBy string `json:"owned_by"`
}

// handleModels lists the upstream's installed models.
func (s *Server) handleModels(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.RequestTimeout)
	defer cancel()

	models, err := s.upstream.ListModels(ctx)
	if err != nil {
		s.writeClassifiedError(w, err)
		return
	}

	data := make([]modelEntry, 0, len(models))
	for _, m := range models {
		created := time.Now().Unix()
		if t, err := time.Parse(time.RFC3339, m.ModifiedAt); err == nil {
			created = t.Unix()
		}
		data = append(data, modelEntry{
			ID:      m.Name,
			Object:  "model",
			Created: created,
			OwnedBy: "ollama",
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"object": "list",
		"data":   data,
	})
}

// handleCountTokens approximates the request's input tokens locally.
func (s *Server) handleCountTokens(w http.ResponseWriter, r *http.Request) {
	var req anthropic.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, anthropic.ErrorTypeAPI, "invalid request body: "+err.Error())
		return
	}
	writeJSON(w, http.StatusOK, anthropic.CountTokensResponse{
		InputTokens: adapter.ApproximateTokens(&req),
	})
}

// handleMessages is the main endpoint: validate, resolve the model, heal
// history, forward to Ollama, and adapt the result back, streaming or not.
func (s *Server) handleMessages(w http.ResponseWriter, r *http.Request) {
	var req anthropic.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, anthropic.ErrorTypeAPI, "invalid request body: "+err.Error())
		return
	}
	if req.Model == "" {
		writeError(w, http.StatusBadRequest, anthropic.ErrorTypeAPI, "model is required")
		return
	}
	if len(req.Messages) == 0 {
		writeError(w, http.StatusBadRequest, anthropic.ErrorTypeAPI, "messages must not be empty")
		return
	}

	resolved := s.resolver.Resolve(req.Model)
	think, err := s.resolver.ApplyThinkingPolicy(&req, resolved)
	if err != nil {
		s.writeClassifiedError(w, err)
		return
	}

	idx := healing.NewSchemaIndex(req.Tools)
	healer := healing.NewHealer(idx, s.log)
	healer.OnAction = func(a healing.Action) {
		s.metrics.RecordHealingAction(a.Kind)
	}

	var stripped int
	req.Messages, stripped = healing.HealHistory(req.Messages, idx, s.log)
	for range stripped {
		s.metrics.RecordStrippedRound()
	}
	if s.cfg.SequentialEnabled() {
		req.Messages = healing.RewriteSequential(req.Messages)
	}

	chatReq := adapter.BuildChatRequest(&req, resolved, think)

	if req.Stream {
		s.streamMessages(w, r, &req, chatReq, healer)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.RequestTimeout)
	defer cancel()

	chatResp, err := s.upstream.Chat(ctx, chatReq)
	if err != nil {
		s.writeClassifiedError(w, err)
		return
	}
	s.metrics.RecordUpstreamTokens(chatResp.PromptEvalCount, chatResp.EvalCount)

	writeJSON(w, http.StatusOK, adapter.BuildResponse(req.Model, healer, chatResp))
}

// streamMessages runs the SSE pipeline: open the upstream NDJSON stream,
// parse it chunk by chunk, and feed the transformer. Once headers are out,
// errors can only be logged; the stream just ends.
func (s *Server) streamMessages(w http.ResponseWriter, r *http.Request, req *anthropic.Request, chatReq ollama.ChatRequest, healer *healing.Healer) {
	body, err := s.upstream.ChatStream(r.Context(), chatReq)
	if err != nil {
		s.writeClassifiedError(w, err)
		return
	}
	defer body.Close()

	sink, err := newSSEWriter(w, s.metrics)
	if err != nil {
		s.writeClassifiedError(w, err)
		return
	}

	transformer := adapter.NewTransformer(sink, healer, req.Model, adapter.ApproximateTokens(req))
	parser := &adapter.ChunkParser{}

	buf := make([]byte, 4096)
	for {
		n, readErr := body.Read(buf)
		if n > 0 {
			for _, chunk := range parser.Push(buf[:n]) {
				if chunk.Done {
					s.metrics.RecordUpstreamTokens(chunk.PromptEvalCount, chunk.EvalCount)
				}
				if err := transformer.Feed(chunk); err != nil {
					// client went away or the write failed; release the
					// upstream connection and stop
					s.log.Error("stream aborted",
						"request_id", RequestID(r.Context()),
						"error", err)
					return
				}
			}
		}
		if readErr != nil {
			return
		}
	}
}
