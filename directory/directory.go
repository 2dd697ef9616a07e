package directory

import (
	"context"
	"sync"
	"time"

	"github.com/dreamware/vactor/actor"
	"github.com/dreamware/vactor/internal/engine"

	"golang.org/x/sync/semaphore"
)

// DefaultReentrancyTimeout is the acquisition deadline for a non-reentrant
// activation's semaphore, matching the source's hard-coded
// seastar::with_semaphore(sem, 1, std::chrono::seconds(1), ...). Kept as
// a package-level constant rather than per-actor configuration — see
// DESIGN.md.
const DefaultReentrancyTimeout = time.Second

// activation is a live instance of A plus its reentrancy guard. The guard
// is nil for reentrant actor types, in which case Dispatch never
// serializes concurrent calls against it.
type activation[A any] struct {
	value *A
	sem   *semaphore.Weighted
}

// Directory is the per-shard, per-type activation table: activation_id
// (hash(key)) to Activation. One Directory instance exists per (actor
// type, shard) pair; callers obtain it through
// an engine.Sharded[Directory[A,K]] owned by the actor type's
// registration, never by constructing it directly outside this package's
// shard discipline.
type Directory[A any, K comparable] struct {
	ty   *actor.Type[A, K]
	mu   sync.Mutex
	acts map[uint64]*activation[A]
}

// New returns an empty directory for actor type ty. ty.New must be
// non-nil; it is invoked at most once per distinct activation ID.
func New[A any, K comparable](ty *actor.Type[A, K]) *Directory[A, K] {
	return &Directory[A, K]{
		ty:   ty,
		acts: make(map[uint64]*activation[A]),
	}
}

// Hold returns the activation for activationID, creating it via
// ty.New(key) if this is the first reference to that ID on this shard.
// Must run on the shard that owns d. key must hash to activationID; every
// caller already has both in hand (Get computed activationID from key),
// so Hold never rehashes it itself.
func (d *Directory[A, K]) Hold(activationID uint64, key K) *activation[A] {
	d.mu.Lock()
	defer d.mu.Unlock()

	if a, ok := d.acts[activationID]; ok {
		return a
	}

	a := &activation[A]{value: d.ty.New(key)}
	if !d.ty.Reentrant {
		a.sem = engine.NewReentrancySemaphore()
	}
	d.acts[activationID] = a
	return a
}

// Clear drops every activation in this directory. It does not wait for
// in-flight dispatches against those activations to finish — callers that
// need that guarantee fan Clear out through engine.Sharded.InvokeOnAll,
// which already serializes with any dispatch queued ahead of it on the
// same shard (clear must not race with an in-flight
// handler... reduces to ordering on that shard").
func (d *Directory[A, K]) Clear() {
	d.mu.Lock()
	d.acts = make(map[uint64]*activation[A])
	d.mu.Unlock()
}

// Len reports the number of live activations, for tests and metrics.
func (d *Directory[A, K]) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.acts)
}

// Dispatch runs handler h with req against the activation identified by
// activationID (holding it first, via key, if necessary). For a
// non-reentrant actor type this acquires the activation's 1-permit
// semaphore before calling h, returning engine.ErrReentrancyTimeout if it
// cannot do so within timeout; for a reentrant type h runs immediately
// with no serialization, exactly as
// original_source/include/ultramarine/impl/directory.hpp's
// dispatch_message constexpr-branches on is_reentrant_v.
//
// Dispatch assumes it is already running on the shard that owns d and
// does not recover a handler panic itself. Package actorref calls it
// either inside an engine.Submit closure, whose safeCall turns a panic
// into ErrHandlerPanic, or in-line for a Local reference, where a panic
// propagates to the calling code.
func Dispatch[A any, K comparable, Req any, Res any](ctx context.Context, d *Directory[A, K], activationID uint64, key K, h actor.Handler[A, Req, Res], req Req, timeout time.Duration) (Res, error) {
	act := d.Hold(activationID, key)

	if act.sem == nil {
		return h.Call(act.value, req)
	}

	return engine.WithSemaphore(ctx, act.sem, timeout, func() (Res, error) {
		return h.Call(act.value, req)
	})
}

// DispatchBatch runs handler h once per element of reqs, in order,
// against the single activation identified by activationID — the target
// shard's side of a coalesced Tell (spec.md §4.6: "it is unpacked and the
// handler is invoked once per element"). The activation is held (and its
// non-reentrant semaphore, if any, acquired) once for the whole batch,
// not once per element, since the batch already arrived as a single
// cross-shard task and every element runs synchronously within it — no
// other dispatch can interleave regardless. If any call fails, DispatchBatch
// stops at that element and returns the error, discarding any results
// already collected, matching spec.md §4.6's "results collected so far
// are discarded."
func DispatchBatch[A any, K comparable, Req any, Res any](ctx context.Context, d *Directory[A, K], activationID uint64, key K, h actor.Handler[A, Req, Res], reqs []Req, timeout time.Duration) ([]Res, error) {
	act := d.Hold(activationID, key)

	run := func() ([]Res, error) {
		results := make([]Res, 0, len(reqs))
		for _, req := range reqs {
			res, err := h.Call(act.value, req)
			if err != nil {
				return nil, err
			}
			results = append(results, res)
		}
		return results, nil
	}

	if act.sem == nil {
		return run()
	}
	return engine.WithSemaphore(ctx, act.sem, timeout, run)
}
