package engine

import (
	"context"
	"sync"
)

// Future is a single-assignment promise. It is resolved at most once, by
// whoever holds the resolve function returned alongside it; everyone else
// only ever reads.
type Future[T any] struct {
	done chan struct{}
	once sync.Once
	val  T
	err  error
}

// newFuture returns an unresolved Future and the function that resolves it.
// Calling resolve more than once is a no-op after the first call.
func newFuture[T any]() (*Future[T], func(T, error)) {
	f := &Future[T]{done: make(chan struct{})}
	resolve := func(v T, err error) {
		f.once.Do(func() {
			f.val, f.err = v, err
			close(f.done)
		})
	}
	return f, resolve
}

// NewPromise returns an unresolved Future and its resolve function, for
// callers outside this package that need to resolve a Future from
// asynchronous work that isn't a Shard task — the Remote dispatch path in
// package actorref needs this, since its work completes on a goroutine of
// its own rather than inside a shard's run-queue.
func NewPromise[T any]() (*Future[T], func(T, error)) {
	return newFuture[T]()
}

// Ready returns a Future that is already resolved with v.
func Ready[T any](v T) *Future[T] {
	f := &Future[T]{done: make(chan struct{}), val: v}
	close(f.done)
	return f
}

// Failed returns a Future that is already resolved with err.
func Failed[T any](err error) *Future[T] {
	f := &Future[T]{done: make(chan struct{}), err: err}
	close(f.done)
	return f
}

// Get blocks until the future resolves or ctx is done, whichever comes
// first. A context cancellation never cancels the underlying work; it only
// stops this particular caller from waiting on it.
func (f *Future[T]) Get(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.val, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Wait blocks unconditionally until the future resolves. Useful in tests
// and in code that has already established there is no meaningful
// cancellation scope (e.g. inside a shard's own run loop).
func (f *Future[T]) Wait() (T, error) {
	<-f.done
	return f.val, f.err
}

// Done reports whether the future has already resolved, without blocking.
func (f *Future[T]) Done() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}
