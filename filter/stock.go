package filter

import (
	"context"

	"github.com/google/uuid"
)

// DefaultRequestIDHeader is the header NewRequestID fills when given "".
const DefaultRequestIDHeader = "X-Request-ID"

// NewRequestID returns a RequestFilter that sets header to a random UUID
// when the request does not carry one yet.
func NewRequestID(header string) RequestFilter {
	if header == "" {
		header = DefaultRequestIDHeader
	}

	return RequestFunc(func(_ context.Context, fc Context) (Context, error) {
		if fc.Request == nil || fc.Request.Header.Get(header) != "" {
			return fc, nil
		}

		req := fc.Request.Clone(fc.Request.Context())
		req.Header.Set(header, uuid.NewString())
		fc.Request = req

		return fc, nil
	})
}

// NewReplayOnError returns an IOExceptionFilter asking for a replay
// whenever match reports true for the failure. A nil match replays on
// every failure. The number of replays is capped by the client.
func NewReplayOnError(match func(err error) bool) IOExceptionFilter {
	return IOExceptionFunc(func(_ context.Context, fc Context) (Context, error) {
		if fc.Err != nil && (match == nil || match(fc.Err)) {
			fc.Replay = true
		}
		return fc, nil
	})
}

// NewReplayOnStatus returns a ResponseFilter asking for a replay when the
// response status is one of codes.
func NewReplayOnStatus(codes ...int) ResponseFilter {
	set := make(map[int]struct{}, len(codes))
	for _, c := range codes {
		set[c] = struct{}{}
	}

	return ResponseFunc(func(_ context.Context, fc Context) (Context, error) {
		if fc.Response == nil {
			return fc, nil
		}
		if _, ok := set[fc.Response.StatusCode]; ok {
			fc.Replay = true
		}
		return fc, nil
	})
}

// HeaderSetter returns a RequestFilter that sets a fixed header on every request.
func HeaderSetter(key, value string) RequestFilter {
	return RequestFunc(func(_ context.Context, fc Context) (Context, error) {
		if fc.Request == nil {
			return fc, nil
		}

		req := fc.Request.Clone(fc.Request.Context())
		req.Header.Set(key, value)
		fc.Request = req

		return fc, nil
	})
}
