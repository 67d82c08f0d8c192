package client

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
)

// maxErrBodySize caps the amount of response body kept when
// building an error for an unexpected status code. This prevents
// unbounded memory usage when a large response arrives with a
// wrong status.
const maxErrBodySize = 4 << 10 // 4KB

// DefaultChunkSize is the size of the buffers response bodies are read into.
const DefaultChunkSize = 8 << 10 // 8KB

var (
	// ErrUnexpectedStatusCode is the sentinel error wrapped by [UnexpectedStatusError].
	ErrUnexpectedStatusCode = errors.New("unexpected status code")
	// ErrTooManyConnections is returned when MaxTotalConnections exchanges are already open.
	ErrTooManyConnections = errors.New("too many connections")
	// ErrMaxRedirects is returned when a response redirects more than MaxRedirects times.
	ErrMaxRedirects = errors.New("maximum redirects reached")
	// ErrRequestTimeout is the cause of exchanges cut by RequestTimeout.
	ErrRequestTimeout = errors.New("request timeout")
	// ErrIdleTimeout is the cause of exchanges cut by IdleConnectionTimeout.
	ErrIdleTimeout = errors.New("idle connection timeout")
	// ErrBodyNotReplayable is returned when a replay was requested for a
	// request whose body cannot be read twice.
	ErrBodyNotReplayable = errors.New("request body cannot be replayed")
	// ErrClosed is returned by Execute once the Client was closed.
	ErrClosed = errors.New("client closed")
	// ErrIncomplete is returned by Collector.Response before the exchange finished.
	ErrIncomplete = errors.New("response incomplete")
)

// UnexpectedStatusError is returned when the HTTP response status code
// does not match the expected value.
type UnexpectedStatusError struct {
	StatusCode int
	Body       string
	Err        error
}

func (e *UnexpectedStatusError) Error() string {
	return fmt.Sprintf("%v: %d, body: %s", e.Err, e.StatusCode, e.Body)
}

func (e *UnexpectedStatusError) Unwrap() error {
	return e.Err
}

// Response is a fully received response, as assembled by a [Collector].
type Response struct {
	StatusCode int
	Status     string
	Header     http.Header
	URL        *url.URL
	Body       []byte
}
