package executor

import "context"

// Task represents an in-flight or completed unit of work.
type Task struct {
	done   chan struct{}
	err    error
	cancel context.CancelFunc
}

// Done returns a channel that is closed when the task completes.
func (t *Task) Done() <-chan struct{} { return t.done }

// Err blocks until the task completes and returns its error.
func (t *Task) Err() error {
	<-t.done
	return t.err
}

// Cancel cancels the task's context.
func (t *Task) Cancel() {
	t.cancel()
}
