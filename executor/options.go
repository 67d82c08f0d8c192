package executor

import "log/slog"

// DefaultName names pools created without WithName.
const DefaultName = "asynchttp-callback"

// Option configures a Pool created with New.
type Option func(*options)

type options struct {
	name          string
	maxConcurrent int
	logger        *slog.Logger
	collectErrors bool
}

// WithName sets the name used in the pool's log lines.
func WithName(name string) Option {
	return func(o *options) {
		if name != "" {
			o.name = name
		}
	}
}

// WithMaxConcurrent caps the number of tasks running at once.
// If n <= 0, concurrency is unlimited.
func WithMaxConcurrent(n int) Option {
	return func(o *options) {
		o.maxConcurrent = n
	}
}

// WithLogger injects a custom logger into the pool.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithCollectErrors keeps every task error for [Pool.Wait] to return.
// Without it the pool retains nothing and errors are only reported
// through [Task.Err]. Use it for bounded batches, not long-lived pools.
func WithCollectErrors() Option {
	return func(o *options) {
		o.collectErrors = true
	}
}
