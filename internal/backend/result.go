package backend

import (
	"context"
	"sync"
)

// Result is the two-valued outcome of a backend call: Value when Err is
// nil, the zero value otherwise.
type Result[T any] struct {
	Value T
	Err   error
}

// Ok returns a successful result.
func Ok[T any](v T) Result[T] {
	return Result[T]{Value: v}
}

// Fail returns a failed result carrying the zero value.
func Fail[T any](err error) Result[T] {
	return Result[T]{Err: err}
}

// OK reports whether the call succeeded.
func (r Result[T]) OK() bool {
	return r.Err == nil
}

// Unwrap returns the result in Go's usual (value, error) form.
func (r Result[T]) Unwrap() (T, error) {
	return r.Value, r.Err
}

// Future is a Result that resolves exactly once.
//
// Thread-safety: all methods are safe for concurrent use.
type Future[T any] struct {
	done chan struct{}
	once sync.Once
	res  Result[T]
}

func newFuture[T any]() *Future[T] {
	return &Future[T]{done: make(chan struct{})}
}

// Resolved returns a future that already holds (v, err).
func Resolved[T any](v T, err error) *Future[T] {
	f := newFuture[T]()
	if err != nil {
		f.resolve(Fail[T](err))
	} else {
		f.resolve(Ok(v))
	}
	return f
}

// resolve stores r unless the future was already resolved.
func (f *Future[T]) resolve(r Result[T]) {
	f.once.Do(func() {
		f.res = r
		close(f.done)
	})
}

// Done is closed once the result is available.
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// Await blocks until the future resolves or ctx is done. Giving up on ctx
// does not cancel the call; it only stops waiting for it.
func (f *Future[T]) Await(ctx context.Context) Result[T] {
	select {
	case <-f.done:
		return f.res
	case <-ctx.Done():
		return Fail[T](Store("await", "caller stopped waiting", ctx.Err()))
	}
}
