// Package server is the HTTP surface of the gateway: the Messages API
// endpoints, model listing, health, and metrics, plus the streaming
// pipeline that bridges Ollama's NDJSON to Anthropic SSE.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/kadirpekel/ollamabridge/pkg/adapter"
	"github.com/kadirpekel/ollamabridge/pkg/config"
	"github.com/kadirpekel/ollamabridge/pkg/observability"
	"github.com/kadirpekel/ollamabridge/pkg/ollama"
)

// Server serves the gateway's HTTP API.
type Server struct {
	cfg      *config.Config
	upstream *ollama.Client
	resolver *adapter.Resolver
	metrics  *observability.Metrics
	log      *slog.Logger

	httpServer *http.Server
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the server's logger.
func WithLogger(log *slog.Logger) Option {
	return func(s *Server) {
		s.log = log
	}
}

// WithUpstream overrides the Ollama client, for tests.
func WithUpstream(client *ollama.Client) Option {
	return func(s *Server) {
		s.upstream = client
	}
}

// New builds the server from a configuration snapshot.
func New(cfg *config.Config, opts ...Option) *Server {
	s := &Server{
		cfg:     cfg,
		metrics: observability.NewMetrics(),
		log:     slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.upstream == nil {
		s.upstream = ollama.NewClient(cfg.OllamaURL,
			ollama.WithLogger(s.log),
			ollama.WithRequestTimeout(cfg.RequestTimeout),
		)
	}
	s.resolver = &adapter.Resolver{
		ModelMap:       cfg.ModelMap,
		DefaultModel:   cfg.DefaultModel,
		StrictThinking: cfg.StrictThinking,
		Log:            s.log,
	}
	return s
}

// Handler builds the routed handler. Exposed for tests.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(observability.HTTPMiddleware(s.metrics))

	r.Get("/health", s.handleHealth)
	r.Get("/v1/models", s.handleModels)
	r.Post("/v1/messages", s.handleMessages)
	r.Post("/v1/messages/count_tokens", s.handleCountTokens)
	r.Get("/metrics", s.metrics.Handler().ServeHTTP)

	return r
}

// Start runs the server until ctx is cancelled, then shuts down
// gracefully, draining in-flight requests.
func (s *Server) Start(ctx context.Context) error {
	s.httpServer = &http.Server{
		Addr:    fmt.Sprintf(":%d", s.cfg.Port),
		Handler: s.Handler(),
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("server listening",
			"port", s.cfg.Port,
			"ollama", s.upstream.BaseURL())
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		s.log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.httpServer.Shutdown(shutdownCtx)
	}
}
