package engine

import (
	"context"
	"fmt"
)

// Shard is one logical processor: a single goroutine draining a run-queue.
// Two tasks on the same shard never execute concurrently, which is the
// only synchronization primitive the rest of vactor relies on — no
// per-activation mutex is ever needed because of it.
type Shard struct {
	id    int
	queue chan func()
	quit  chan struct{}
}

func newShard(id int, queueDepth int) *Shard {
	return &Shard{
		id:    id,
		queue: make(chan func(), queueDepth),
		quit:  make(chan struct{}),
	}
}

// ID returns this shard's index in its Pool, stable for the process
// lifetime.
func (s *Shard) ID() int { return s.id }

func (s *Shard) run() {
	for {
		select {
		case fn := <-s.queue:
			fn()
		case <-s.quit:
			// Drain whatever is already queued before exiting so a Stop
			// racing with in-flight Submit calls doesn't silently drop work.
			for {
				select {
				case fn := <-s.queue:
					fn()
				default:
					return
				}
			}
		}
	}
}

// Pool owns a fixed set of shards and is the sole way code enqueues a
// closure onto another shard's run-queue.
type Pool struct {
	shards []*Shard
}

// NewPool starts count shards, each with the given run-queue depth.
func NewPool(count, queueDepth int) *Pool {
	if count < 1 {
		count = 1
	}
	if queueDepth < 1 {
		queueDepth = 1024
	}
	p := &Pool{shards: make([]*Shard, count)}
	for i := range p.shards {
		p.shards[i] = newShard(i, queueDepth)
		go p.shards[i].run()
	}
	return p
}

// ShardCount returns the number of shards in the pool.
func (p *Pool) ShardCount() int { return len(p.shards) }

// Shard returns the shard at the given index, panicking if it is out of
// range — an out-of-range shard index is always a placement bug, never a
// runtime condition a caller should recover from.
func (p *Pool) Shard(id int) *Shard {
	if id < 0 || id >= len(p.shards) {
		panic(fmt.Sprintf("engine: shard index %d out of range [0,%d)", id, len(p.shards)))
	}
	return p.shards[id]
}

// Stop signals every shard to drain its queue and exit. It does not wait
// for the goroutines to finish, and Pool offers no way to wait for them.
func (p *Pool) Stop() {
	for _, s := range p.shards {
		close(s.quit)
	}
}

// Submit enqueues fn onto the target shard and returns a Future resolved
// with fn's result once it runs. Because target.queue is a single ordered
// channel, two Submit calls issued in program order from the same caller
// shard to the same target shard are guaranteed to execute on the target
// in that order (G1, FIFO-per-pair) — ordering falls out of the channel's
// own FIFO delivery, nothing extra is required.
func Submit[T any](target *Shard, fn func() (T, error)) *Future[T] {
	f, resolve := newFuture[T]()
	target.queue <- func() {
		v, err := safeCall(fn)
		resolve(v, err)
	}
	return f
}

// SubmitCtx is Submit with a context guarding enqueue itself (not
// execution — once accepted onto the shard's queue, the closure always
// runs to completion; a tell is not cancellable once dispatched.
func SubmitCtx[T any](ctx context.Context, target *Shard, fn func() (T, error)) *Future[T] {
	f, resolve := newFuture[T]()
	select {
	case target.queue <- func() {
		v, err := safeCall(fn)
		resolve(v, err)
	}:
	case <-ctx.Done():
		var zero T
		resolve(zero, ctx.Err())
	}
	return f
}

// safeCall recovers a panicking handler and turns it into an error
// wrapping ErrHandlerPanic rather than crashing the shard goroutine — every other activation
// pinned to this shard depends on that goroutine staying alive.
func safeCall[T any](fn func() (T, error)) (v T, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrHandlerPanic, r)
		}
	}()
	return fn()
}
