package engine

import "context"

// Then chains a continuation onto a Future, running it in a new goroutine
// once the parent resolves. It mirrors seastar's future::then — the
// continuation only runs if the parent succeeded; a parent failure
// propagates untouched, matching G4 (failed futures surface unmodified).
func Then[T, R any](ctx context.Context, f *Future[T], fn func(T) (R, error)) *Future[R] {
	out, resolve := newFuture[R]()
	go func() {
		v, err := f.Get(ctx)
		if err != nil {
			var zero R
			resolve(zero, err)
			return
		}
		r, err := fn(v)
		resolve(r, err)
	}()
	return out
}

// WhenAll waits for every future to resolve (success or failure) and
// collects their results positionally. It never itself fails: a per-item
// error is carried in Result.Err, not returned from WhenAll.
type Result[T any] struct {
	Value T
	Err   error
}

func WhenAll[T any](ctx context.Context, futures []*Future[T]) *Future[[]Result[T]] {
	out, resolve := newFuture[[]Result[T]]()
	go func() {
		results := make([]Result[T], len(futures))
		for i, f := range futures {
			v, err := f.Get(ctx)
			results[i] = Result[T]{Value: v, Err: err}
		}
		resolve(results, nil)
	}()
	return out
}

// WhenAllSucceed waits for every future to resolve and fails fast: the
// first error encountered (in index order) becomes the overall error and
// the remaining results are discarded, matching the "collected results are
// discarded on any failure" rule used by coalesce.Deduplicate.
func WhenAllSucceed[T any](ctx context.Context, futures []*Future[T]) *Future[[]T] {
	out, resolve := newFuture[[]T]()
	go func() {
		values := make([]T, len(futures))
		for i, f := range futures {
			v, err := f.Get(ctx)
			if err != nil {
				var zero []T
				resolve(zero, err)
				return
			}
			values[i] = v
		}
		resolve(values, nil)
	}()
	return out
}

// ParallelForEach runs fn for every item concurrently and resolves once
// all of them have, failing with the first error observed (in completion
// order, not index order — ParallelForEach does not promise ordering the
// way WhenAllSucceed does).
func ParallelForEach[T any](ctx context.Context, items []T, fn func(T) error) *Future[struct{}] {
	out, resolve := newFuture[struct{}]()
	go func() {
		errCh := make(chan error, len(items))
		for _, item := range items {
			item := item
			go func() { errCh <- fn(item) }()
		}
		var firstErr error
		for range items {
			if err := <-errCh; err != nil && firstErr == nil {
				firstErr = err
			}
		}
		resolve(struct{}{}, firstErr)
	}()
	return out
}

// DoUntil repeatedly invokes body until cond reports true, sequentially
// (body's next invocation only starts after the previous one's future
// resolves), mirroring seastar's do_until combinator.
func DoUntil(ctx context.Context, cond func() bool, body func() *Future[struct{}]) *Future[struct{}] {
	out, resolve := newFuture[struct{}]()
	go func() {
		for !cond() {
			if _, err := body().Get(ctx); err != nil {
				resolve(struct{}{}, err)
				return
			}
		}
		resolve(struct{}{}, nil)
	}()
	return out
}

// DoWith runs body with a value captured for its whole lifetime, the Go
// equivalent of seastar's do_with lifetime-extension helper — in Go terms
// it is just a named call, but kept as a combinator so callers reading
// code ported from the original actor benchmarks see the same shape.
func DoWith[T, R any](val T, body func(T) (R, error)) (R, error) {
	return body(val)
}
