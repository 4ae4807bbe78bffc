package backend

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/semaphore"
)

// Defaults for NewPool arguments that are not positive.
const (
	DefaultWorkers     = 4
	DefaultCallTimeout = 5 * time.Second
)

// Pool runs blocking backend calls off the caller's goroutine.
//
// At most workers calls run at once. Each call gets an execution window of
// timeout, measured from submission and covering the wait for a worker; a call that overruns resolves its future with a StoreError while
// the stalled driver call keeps its worker slot until it returns, so a hung
// driver cannot pile up unbounded goroutines inside the driver.
type Pool struct {
	sem     *semaphore.Weighted
	workers int
	timeout time.Duration
}

// NewPool creates a pool. Non-positive arguments take the defaults.
func NewPool(workers int, timeout time.Duration) *Pool {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	if timeout <= 0 {
		timeout = DefaultCallTimeout
	}
	return &Pool{
		sem:     semaphore.NewWeighted(int64(workers)),
		workers: workers,
		timeout: timeout,
	}
}

// Workers returns the maximum number of concurrent calls.
func (p *Pool) Workers() int {
	return p.workers
}

// Timeout returns the execution window of a single call.
func (p *Pool) Timeout() time.Duration {
	return p.timeout
}

// Submit runs fn on the pool and returns its future immediately.
func Submit[T any](ctx context.Context, p *Pool, op string, fn func(context.Context) (T, error)) *Future[T] {
	f := newFuture[T]()
	go execute(ctx, p, op, f, fn)
	return f
}

func execute[T any](ctx context.Context, p *Pool, op string, f *Future[T], fn func(context.Context) (T, error)) {
	// The window starts at submission, so time spent queued behind stalled
	// calls counts against it.
	callCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	if err := p.sem.Acquire(callCtx, 1); err != nil {
		f.resolve(Fail[T](Store(op, "waiting for a worker", err)))
		return
	}

	done := make(chan Result[T], 1)
	go func() {
		defer p.sem.Release(1)
		done <- call(callCtx, op, fn)
	}()

	select {
	case r := <-done:
		f.resolve(r)
	case <-callCtx.Done():
		// A result that landed together with the deadline still wins.
		select {
		case r := <-done:
			f.resolve(r)
		default:
			f.resolve(Fail[T](Store(op, "execution window exceeded", callCtx.Err())))
		}
	}
}

// call invokes fn, converting panics and foreign errors into *Error.
func call[T any](ctx context.Context, op string, fn func(context.Context) (T, error)) (r Result[T]) {
	defer func() {
		if rec := recover(); rec != nil {
			r = Fail[T](Store(op, fmt.Sprintf("panic: %v", rec), nil))
		}
	}()

	v, err := fn(ctx)
	if err != nil {
		return Fail[T](classify(op, err))
	}
	return Ok(v)
}

func classify(op string, err error) error {
	var be *Error
	if errors.As(err, &be) {
		return err
	}
	return Store(op, "", err)
}
