package client

import (
	"context"

	"github.com/adamwoolhether/asynchttp/executor"
)

// Future tracks an exchange started with [Client.Execute].
type Future struct {
	task *executor.Task
}

// Done returns a channel that is closed when the exchange completes.
func (f *Future) Done() <-chan struct{} { return f.task.Done() }

// Err blocks until the exchange completes and returns its error.
func (f *Future) Err() error { return f.task.Err() }

// Get blocks until the exchange completes or ctx ends.
func (f *Future) Get(ctx context.Context) error {
	select {
	case <-f.task.Done():
		return f.task.Err()
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Cancel cancels the exchange. The handler's OnError receives the
// cancellation unless the exchange already finished.
func (f *Future) Cancel() { f.task.Cancel() }
