package filter

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// ErrFilter is the sentinel wrapped by every Error.
var ErrFilter = errors.New("filter failed")

// Error reports which filter of a chain failed.
type Error struct {
	Chain string
	Index int
	Err   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%v: %s filter %d: %v", ErrFilter, e.Chain, e.Index, e.Err)
}

func (e *Error) Unwrap() []error {
	return []error{ErrFilter, e.Err}
}

// Context carries the state of one exchange through a chain.
type Context struct {
	Request  *http.Request
	Response *http.Response
	Err      error
	Replay   bool
}

// RequestFilter runs before the request is sent.
type RequestFilter interface {
	FilterRequest(ctx context.Context, fc Context) (Context, error)
}

// ResponseFilter runs once the response status and headers arrived.
type ResponseFilter interface {
	FilterResponse(ctx context.Context, fc Context) (Context, error)
}

// IOExceptionFilter runs when sending the request fails, before any
// part of the response reached the handler.
type IOExceptionFilter interface {
	FilterIOException(ctx context.Context, fc Context) (Context, error)
}

// RequestFunc adapts a function into a RequestFilter.
type RequestFunc func(ctx context.Context, fc Context) (Context, error)

func (f RequestFunc) FilterRequest(ctx context.Context, fc Context) (Context, error) {
	return f(ctx, fc)
}

// ResponseFunc adapts a function into a ResponseFilter.
type ResponseFunc func(ctx context.Context, fc Context) (Context, error)

func (f ResponseFunc) FilterResponse(ctx context.Context, fc Context) (Context, error) {
	return f(ctx, fc)
}

// IOExceptionFunc adapts a function into an IOExceptionFilter.
type IOExceptionFunc func(ctx context.Context, fc Context) (Context, error)

func (f IOExceptionFunc) FilterIOException(ctx context.Context, fc Context) (Context, error) {
	return f(ctx, fc)
}

// RunRequest applies filters to fc in order.
func RunRequest(ctx context.Context, filters []RequestFilter, fc Context) (Context, error) {
	for i, f := range filters {
		var err error
		if fc, err = f.FilterRequest(ctx, fc); err != nil {
			return fc, &Error{Chain: "request", Index: i, Err: err}
		}
	}
	return fc, nil
}

// RunResponse applies filters to fc in order.
func RunResponse(ctx context.Context, filters []ResponseFilter, fc Context) (Context, error) {
	for i, f := range filters {
		var err error
		if fc, err = f.FilterResponse(ctx, fc); err != nil {
			return fc, &Error{Chain: "response", Index: i, Err: err}
		}
	}
	return fc, nil
}

// RunIOException applies filters to fc in order.
func RunIOException(ctx context.Context, filters []IOExceptionFilter, fc Context) (Context, error) {
	for i, f := range filters {
		var err error
		if fc, err = f.FilterIOException(ctx, fc); err != nil {
			return fc, &Error{Chain: "io exception", Index: i, Err: err}
		}
	}
	return fc, nil
}
