package httpclient

import (
	"errors"
	"fmt"
	"net/http"
)

// ConnectionError marks a transport-level failure: the upstream could not
// be reached at all (DNS, connection refused, network unreachable).
type ConnectionError struct {
	URL string
	Err error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("connection to %s failed: %v", e.URL, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// UpstreamError marks a non-2xx response from the upstream server.
type UpstreamError struct {
	StatusCode int
	Body       string
}

func (e *UpstreamError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("upstream returned HTTP %d: %s", e.StatusCode, e.Body)
	}
	return fmt.Sprintf("upstream returned HTTP %d", e.StatusCode)
}

// ClientStatus maps the upstream status to the status the gateway should
// answer with: 4xx passes through, everything else becomes 502.
func (e *UpstreamError) ClientStatus() int {
	if e.StatusCode >= 400 && e.StatusCode < 500 {
		return e.StatusCode
	}
	return http.StatusBadGateway
}

// IsConnectionError reports whether err wraps a *ConnectionError.
func IsConnectionError(err error) bool {
	var ce *ConnectionError
	return errors.As(err, &ce)
}
