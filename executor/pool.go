package executor

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
)

// ErrShutdown is returned when work is submitted to a pool that was shut down.
var ErrShutdown = errors.New("executor shut down")

// Func is the signature for work run by an Executor.
type Func func(ctx context.Context) error

// Executor runs callbacks and can be shut down.
type Executor interface {
	Go(fn Func) (*Task, error)
	Shutdown() error
	IsShutdown() bool
}

// Pool is the default Executor.
type Pool struct {
	name   string
	logger *slog.Logger

	wg       sync.WaitGroup
	mu       sync.Mutex
	sem      chan struct{}
	shutdown atomic.Bool
	ctx      context.Context
	cancel   context.CancelFunc
	collect  bool
	errs     []error
}

// New creates a Pool. Without options the pool is unbounded.
func New(optFns ...Option) *Pool {
	opts := options{name: DefaultName}
	for _, opt := range optFns {
		opt(&opts)
	}

	p := &Pool{
		name:    opts.name,
		logger:  opts.logger,
		collect: opts.collectErrors,
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	if opts.maxConcurrent > 0 {
		p.sem = make(chan struct{}, opts.maxConcurrent)
	}
	p.ctx, p.cancel = context.WithCancel(context.Background())

	return p
}

// Name returns the pool's name.
func (p *Pool) Name() string { return p.name }

// Go launches fn in a new goroutine managed by the pool and returns
// a Task tracking it. fn's context is cancelled when the task is
// cancelled or the pool is shut down.
func (p *Pool) Go(fn Func) (*Task, error) {
	if p.shutdown.Load() {
		return nil, ErrShutdown
	}

	ctx, cancel := context.WithCancel(p.ctx)
	t := &Task{
		done:   make(chan struct{}),
		cancel: cancel,
	}

	p.wg.Add(1)
	go func() {
		defer func() {
			cancel()
			close(t.done)
			p.wg.Done()
		}()

		if p.sem != nil {
			select {
			case p.sem <- struct{}{}:
				defer func() {
					<-p.sem
				}()
			case <-ctx.Done():
				t.err = ctx.Err()
				p.recordErr(t.err)
				return
			}
		}

		if p.shutdown.Load() {
			t.err = ErrShutdown
			p.recordErr(t.err)
			return
		}

		t.err = fn(ctx)
		if t.err != nil {
			p.recordErr(t.err)
		}
	}()

	return t, nil
}

// Shutdown stops the pool from accepting new work and cancels the
// context of every running task. It does not wait for them to return.
// Calling Shutdown more than once is a no-op.
func (p *Pool) Shutdown() error {
	if !p.shutdown.CompareAndSwap(false, true) {
		return nil
	}

	p.cancel()
	p.logger.Debug("executor shut down", "name", p.name)

	return nil
}

// IsShutdown reports whether Shutdown was called.
func (p *Pool) IsShutdown() bool {
	return p.shutdown.Load()
}

// Wait blocks until every task started on the pool has returned.
// With WithCollectErrors it returns all task errors joined via
// errors.Join and clears them; otherwise it returns nil.
func (p *Pool) Wait() error {
	p.wg.Wait()

	p.mu.Lock()
	defer p.mu.Unlock()

	err := errors.Join(p.errs...)
	p.errs = nil

	return err
}

// recordErr appends err to the pool's error slice under the mutex,
// when the pool collects errors.
func (p *Pool) recordErr(err error) {
	if !p.collect {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.errs = append(p.errs, err)
}
