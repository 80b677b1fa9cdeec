// Package httpclient provides the shared HTTP client used for all outbound
// calls to the upstream inference server. It owns the process-wide
// connection pool and turns transport-level failures into typed errors the
// HTTP surface can translate.
package httpclient

import (
	"io"
	"net"
	"net/http"
	"time"
)

// Connection pool defaults for the shared transport.
const (
	DefaultDialTimeout         = 10 * time.Second
	DefaultKeepAlive           = 30 * time.Second
	DefaultIdleConnTimeout     = 90 * time.Second
	DefaultMaxIdleConns        = 20
	DefaultMaxIdleConnsPerHost = 5
)

// Client wraps *http.Client with error classification.
type Client struct {
	client *http.Client
}

// Option configures a Client built by New.
type Option func(*Client)

// WithTimeout sets the overall request timeout. Zero disables it, which is
// what streaming calls want; they rely on context deadlines instead.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.client.Timeout = d
	}
}

// WithResponseHeaderTimeout bounds the wait for upstream response headers.
// Streaming calls combine this with a zero overall timeout: the deadline is
// relaxed once headers arrive.
func WithResponseHeaderTimeout(d time.Duration) Option {
	return func(c *Client) {
		if t, ok := c.client.Transport.(*http.Transport); ok {
			t.ResponseHeaderTimeout = d
		}
	}
}

// WithHTTPClient replaces the underlying *http.Client entirely.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.client = hc
	}
}

// NewTransport creates an http.Transport with pooled-connection defaults.
func NewTransport() *http.Transport {
	return &http.Transport{
		DialContext: (&net.Dialer{
			Timeout:   DefaultDialTimeout,
			KeepAlive: DefaultKeepAlive,
		}).DialContext,
		IdleConnTimeout:     DefaultIdleConnTimeout,
		MaxIdleConns:        DefaultMaxIdleConns,
		MaxIdleConnsPerHost: DefaultMaxIdleConnsPerHost,
		ForceAttemptHTTP2:   true,
	}
}

// New builds a Client over the shared transport.
func New(opts ...Option) *Client {
	c := &Client{
		client: &http.Client{
			Timeout:   2 * time.Minute,
			Transport: NewTransport(),
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Do performs the request. Transport-level failures (DNS, refused,
// unreachable, timeouts before headers) come back as *ConnectionError;
// responses, including non-2xx ones, are returned as-is for the caller to
// interpret.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &ConnectionError{URL: req.URL.String(), Err: err}
	}
	return resp, nil
}

// ReadErrorBody reads up to limit bytes from rc for an error message, then
// drains and closes the remainder so the connection returns to the pool.
func ReadErrorBody(rc io.ReadCloser, limit int64) string {
	if rc == nil {
		return ""
	}
	body, _ := io.ReadAll(io.LimitReader(rc, limit))
	DrainAndClose(rc, 1024)
	return string(body)
}

// DrainAndClose reads up to limit bytes from rc and closes it.
func DrainAndClose(rc io.ReadCloser, limit int64) {
	if rc == nil {
		return
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(rc, limit))
	_ = rc.Close()
}
