// Package executor runs user-visible callbacks on an owned pool of goroutines.
//
// A [Pool] is unbounded by default: every submitted task gets its own
// goroutine. Goroutines never keep the process alive, so the pool needs
// no daemon setting. [WithMaxConcurrent] bounds how many tasks run at once.
//
//	p := executor.New(executor.WithName("callbacks"))
//	task, err := p.Go(func(ctx context.Context) error {
//		return handle(ctx)
//	})
//	// ...
//	_ = p.Shutdown() // stop accepting work, cancel in-flight tasks
//
// Shutdown does not wait. Use [Pool.Wait] when the caller needs every
// task to finish.
package executor
