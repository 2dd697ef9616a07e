package engine

import (
	"context"
	"fmt"
	"sync"
)

// Sharded owns one instance of T per shard, created lazily and torn down
// explicitly — the Go counterpart of seastar's sharded<T> container, which
// §4.1 lists as a primitive the core depends on (per-type directories and
// per-type round-robin counters are both modeled as a Sharded instance).
type Sharded[T any] struct {
	mu        sync.RWMutex
	instances map[int]*T
	factory   func(shardID int) *T
}

// NewSharded returns a container whose per-shard instance is built by
// factory on first use on that shard.
func NewSharded[T any](factory func(shardID int) *T) *Sharded[T] {
	return &Sharded[T]{
		instances: make(map[int]*T),
		factory:   factory,
	}
}

// Local returns this shard's instance, creating it if this is the first
// call for that shard. Must only be called from code already running on
// shardID — Sharded itself does no shard-affinity checking, the same way
// a per-type directory trusts its caller.
func (s *Sharded[T]) Local(shardID int) *T {
	s.mu.RLock()
	v, ok := s.instances[shardID]
	s.mu.RUnlock()
	if ok {
		return v
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if v, ok := s.instances[shardID]; ok {
		return v
	}
	v = s.factory(shardID)
	s.instances[shardID] = v
	return v
}

// Start eagerly materializes an instance on every shard in the pool,
// running the factory call itself on its owning shard via Submit so
// construction happens under the same single-goroutine-per-shard
// discipline as everything else.
func (s *Sharded[T]) Start(ctx context.Context, pool *Pool) error {
	futures := make([]*Future[struct{}], pool.ShardCount())
	for i := 0; i < pool.ShardCount(); i++ {
		shardID := i
		futures[i] = Submit(pool.Shard(shardID), func() (struct{}, error) {
			s.Local(shardID)
			return struct{}{}, nil
		})
	}
	results, err := WhenAllSucceed(ctx, futures)
	_ = results
	return err
}

// InvokeOnAll calls fn with each shard's instance, running each call on
// its owning shard, and waits for every call to finish before returning —
// the pattern cluster membership updates and directory.Clear both use to
// fan out a mutation to every shard's copy of otherwise shard-local state.
func (s *Sharded[T]) InvokeOnAll(ctx context.Context, pool *Pool, fn func(*T) error) error {
	futures := make([]*Future[struct{}], pool.ShardCount())
	for i := 0; i < pool.ShardCount(); i++ {
		shardID := i
		futures[i] = Submit(pool.Shard(shardID), func() (struct{}, error) {
			return struct{}{}, fn(s.Local(shardID))
		})
	}
	_, err := WhenAllSucceed(ctx, futures)
	return err
}

// Stop clears every per-shard instance. If T implements a Close() error
// method it is invoked first, on the owning shard, so teardown observes
// the same no-concurrent-access guarantee construction did.
func (s *Sharded[T]) Stop(ctx context.Context, pool *Pool) error {
	type closer interface{ Close() error }

	err := s.InvokeOnAll(ctx, pool, func(v *T) error {
		if c, ok := any(v).(closer); ok {
			if err := c.Close(); err != nil {
				return fmt.Errorf("engine: sharded instance close: %w", err)
			}
		}
		return nil
	})

	s.mu.Lock()
	s.instances = make(map[int]*T)
	s.mu.Unlock()

	return err
}
