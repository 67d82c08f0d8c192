package filter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/time/rate"
)

var (
	ErrMustNotBeZero = errors.New("must be greater than zero")
	ErrWaitingFailed = errors.New("limiter waiting failed")
	ErrContextEnded  = errors.New("throttle context ended")
)

// Throttle is a RequestFilter, using the time/rate token
// bucket limiter to restrict outbound calls.
type Throttle struct {
	limiter *rate.Limiter
	rps     int
	burst   int
	logFn   func() *slog.Logger
}

// NewThrottle returns a RequestFilter that delays requests using a token
// bucket rate limiter. logFn lazily resolves the logger at request time.
// A nil-returning logFn skips the exhaustion log lines.
func NewThrottle(rps, burst int, logFn func() *slog.Logger) (*Throttle, error) {
	if rps <= 0 || burst <= 0 {
		return nil, fmt.Errorf("rps[%d] and burst[%d] %w", rps, burst, ErrMustNotBeZero)
	}
	if logFn == nil {
		logFn = func() *slog.Logger { return nil }
	}

	t := &Throttle{
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
		rps:     rps,
		burst:   burst,
		logFn:   logFn,
	}

	return t, nil
}

func (t *Throttle) FilterRequest(ctx context.Context, fc Context) (Context, error) {
	if err := ctx.Err(); err != nil {
		return fc, fmt.Errorf("%w early: %w", ErrContextEnded, err)
	}

	var waited time.Duration
	logger := t.logFn()
	if logger != nil && t.limiter.Tokens() < 1 {
		path := ""
		if fc.Request != nil {
			path = fc.Request.URL.Path
		}
		logger.Info("throttle tokens exhausted", "rate", t.rps, "burst", t.burst, "path", path)

		defer func() {
			logger.Info("throttle wait complete", "waited", waited.String(), "rate", t.rps, "burst", t.burst)
		}()
	}

	start := time.Now()

	err := t.limiter.Wait(ctx)
	waited = time.Since(start)
	if err != nil {
		return fc, fmt.Errorf("%w: %w", ErrWaitingFailed, err)
	}

	if err := ctx.Err(); err != nil { // Check context hasn't expired again.
		return fc, fmt.Errorf("%w post-wait: %w", ErrContextEnded, err)
	}

	return fc, nil
}
