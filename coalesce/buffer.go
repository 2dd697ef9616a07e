package coalesce

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// WithBuffer runs body once, handing it a submit function that admits at
// most capacity concurrently in-flight tasks; a (capacity+1)th submit
// blocks until an earlier task completes. WithBuffer itself blocks until
// every submitted task finishes (or one returns an error, in which case
// the context passed to still-running tasks is canceled and the first
// error is returned).
func WithBuffer(ctx context.Context, capacity int, body func(submit func(func(context.Context) error))) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(capacity)

	body(func(task func(context.Context) error) {
		g.Go(func() error {
			return task(gctx)
		})
	})

	return g.Wait()
}
