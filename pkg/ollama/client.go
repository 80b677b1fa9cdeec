package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/kadirpekel/ollamabridge/pkg/httpclient"
	"github.com/kadirpekel/ollamabridge/pkg/observability"
)

// Client dispatches requests to an Ollama server. It is safe for
// concurrent use; the underlying connection pool is shared process-wide.
type Client struct {
	baseURL string
	http    *httpclient.Client
	// streaming uses a client without an overall timeout; responses can
	// outlive any sane deadline once headers have arrived.
	streamHTTP *httpclient.Client
	log        *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the client's logger.
func WithLogger(log *slog.Logger) Option {
	return func(c *Client) {
		c.log = log
	}
}

// WithRequestTimeout bounds non-streaming calls end to end. Streaming
// calls keep the bound only until response headers arrive.
func WithRequestTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.http = httpclient.New(httpclient.WithTimeout(d))
		c.streamHTTP = httpclient.New(
			httpclient.WithTimeout(0),
			httpclient.WithResponseHeaderTimeout(d),
		)
	}
}

// WithHTTPClients overrides both underlying HTTP clients, for tests.
func WithHTTPClients(chat, stream *httpclient.Client) Option {
	return func(c *Client) {
		c.http = chat
		c.streamHTTP = stream
	}
}

// NewClient builds a dispatcher for the given base URL.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		http:       httpclient.New(),
		streamHTTP: httpclient.New(httpclient.WithTimeout(0)),
		log:        slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the configured upstream base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Chat performs a non-streaming chat call.
func (c *Client) Chat(ctx context.Context, req ChatRequest) (ChatResponse, error) {
	tracer := observability.GetTracer("ollamabridge.upstream")
	ctx, span := tracer.Start(ctx, observability.SpanChat,
		trace.WithAttributes(
			attribute.String(observability.AttrUpstreamModel, req.Model),
		),
	)
	defer span.End()

	req.Stream = false
	resp, err := c.post(ctx, c.http, "/api/chat", req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return ChatResponse{}, err
	}
	defer httpclient.DrainAndClose(resp.Body, 4096)

	var out ChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		err = fmt.Errorf("decoding chat response: %w", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return ChatResponse{}, err
	}
	if out.Error != "" {
		apiErr := &httpclient.UpstreamError{StatusCode: resp.StatusCode, Body: out.Error}
		span.RecordError(apiErr)
		span.SetStatus(codes.Error, out.Error)
		return ChatResponse{}, apiErr
	}

	span.SetAttributes(
		attribute.Int(observability.AttrTokensInput, out.PromptEvalCount),
		attribute.Int(observability.AttrTokensOutput, out.EvalCount),
	)
	span.SetStatus(codes.Ok, "success")
	return out, nil
}

// ChatStream performs a streaming chat call and returns the raw NDJSON
// body. The caller owns the reader and must close it; closing it also
// releases the pooled connection when the client disconnects mid-stream.
func (c *Client) ChatStream(ctx context.Context, req ChatRequest) (io.ReadCloser, error) {
	tracer := observability.GetTracer("ollamabridge.upstream")
	ctx, span := tracer.Start(ctx, observability.SpanChatStream,
		trace.WithAttributes(
			attribute.String(observability.AttrUpstreamModel, req.Model),
		),
	)
	defer span.End()

	req.Stream = true
	resp, err := c.post(ctx, c.streamHTTP, "/api/chat", req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetStatus(codes.Ok, "success")
	return resp.Body, nil
}

// ListModels fetches the installed models.
func (c *Client) ListModels(ctx context.Context) ([]ModelInfo, error) {
	tracer := observability.GetTracer("ollamabridge.upstream")
	ctx, span := tracer.Start(ctx, observability.SpanListModels)
	defer span.End()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/tags", nil)
	if err != nil {
		return nil, fmt.Errorf("building tags request: %w", err)
	}
	resp, err := c.http.Do(httpReq)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		apiErr := &httpclient.UpstreamError{
			StatusCode: resp.StatusCode,
			Body:       httpclient.ReadErrorBody(resp.Body, 2048),
		}
		span.RecordError(apiErr)
		span.SetStatus(codes.Error, apiErr.Error())
		return nil, apiErr
	}
	defer httpclient.DrainAndClose(resp.Body, 4096)

	var tags TagsResponse
	if err := json.NewDecoder(resp.Body).Decode(&tags); err != nil {
		return nil, fmt.Errorf("decoding tags response: %w", err)
	}
	span.SetStatus(codes.Ok, "success")
	return tags.Models, nil
}

// post sends a JSON body and classifies the response. A non-2xx status is
// returned as *httpclient.UpstreamError carrying the upstream error text.
func (c *Client) post(ctx context.Context, hc *httpclient.Client, path string, body any) (*http.Response, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encoding request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := hc.Do(httpReq)
	if err != nil {
		c.log.Error("upstream request failed", "path", path, "error", err)
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &httpclient.UpstreamError{
			StatusCode: resp.StatusCode,
			Body:       upstreamErrorText(httpclient.ReadErrorBody(resp.Body, 2048)),
		}
		c.log.Error("upstream returned error status", "path", path, "status", resp.StatusCode)
		return nil, apiErr
	}
	return resp, nil
}

// upstreamErrorText extracts Ollama's {"error": "..."} message when the
// body carries one, falling back to the raw body.
func upstreamErrorText(body string) string {
	var wrapper struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal([]byte(body), &wrapper); err == nil && wrapper.Error != "" {
		return wrapper.Error
	}
	return body
}
