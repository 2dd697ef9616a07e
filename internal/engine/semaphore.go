package engine

import (
	"context"
	"time"

	"golang.org/x/sync/semaphore"
)

// NewReentrancySemaphore returns a 1-permit weighted semaphore, the
// primitive directory uses to serialize handler dispatch for
// non-reentrant actors.
func NewReentrancySemaphore() *semaphore.Weighted {
	return semaphore.NewWeighted(1)
}

// WithSemaphore acquires a single permit on sem, runs fn, and releases the
// permit before returning. If the permit cannot be acquired within
// timeout, fn never runs and ErrReentrancyTimeout is returned — the Go
// equivalent of seastar's with_semaphore(sem, 1, 1s, ...) used by the
// original ultramarine directory::dispatch_message.
func WithSemaphore[T any](ctx context.Context, sem *semaphore.Weighted, timeout time.Duration, fn func() (T, error)) (T, error) {
	var zero T
	acquireCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := sem.Acquire(acquireCtx, 1); err != nil {
		return zero, ErrReentrancyTimeout
	}
	defer sem.Release(1)

	return fn()
}
