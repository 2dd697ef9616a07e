package actorref

import (
	"context"
	"sync"

	"github.com/dreamware/vactor/actor"
	"github.com/dreamware/vactor/directory"
	"github.com/dreamware/vactor/internal/engine"
	"github.com/dreamware/vactor/placement"
)

// RemoteResolver is the narrow view actorref needs of cluster membership:
// given an activation ID, which node owns it, and is that node the local
// one. Package cluster implements this over its Ring; actorref depends on
// the interface instead of importing cluster directly, so it needs no
// knowledge of cluster membership beyond this one lookup.
type RemoteResolver interface {
	NodeFor(activationID uint64) (node placement.NodeDescriptor, isLocal bool, ok bool)
}

// RemoteCaller invokes a registered handler on a remote node by
// MessageID, the wire counterpart of directory.Dispatch. Package
// rpcendpoint implements this; actorref depends on the interface for the
// same reason it depends on RemoteResolver rather than rpcendpoint
// directly.
type RemoteCaller interface {
	CallRemote(ctx context.Context, node placement.NodeDescriptor, messageID actor.MessageID, rawKey, rawArgs []byte) (rawResult []byte, err error)
}

// System owns one actor type's per-shard directories and the round-robin
// state Local-kind actors need for reference construction. It is the Go
// counterpart of the per-type static directory and round-robin counter,
// modeled here as per-shard singletons owned by the shard runtime rather
// than as global mutable state.
type System[A any, K comparable] struct {
	ty   *actor.Type[A, K]
	pool *engine.Pool
	dirs *engine.Sharded[directory.Directory[A, K]]

	rrMu sync.Mutex
	rr   map[int]*placement.RoundRobin // callerShard -> counter, Local-kind only

	resolver RemoteResolver
	caller   RemoteCaller
}

// NewSystem returns a System for actor type ty running on pool. Call
// Start before issuing any Get/Tell calls.
func NewSystem[A any, K comparable](ty *actor.Type[A, K], pool *engine.Pool) *System[A, K] {
	return &System[A, K]{
		ty:   ty,
		pool: pool,
		dirs: engine.NewSharded(func(int) *directory.Directory[A, K] {
			return directory.New(ty)
		}),
		rr: make(map[int]*placement.RoundRobin),
	}
}

// Start materializes a Directory on every shard.
func (s *System[A, K]) Start(ctx context.Context) error {
	return s.dirs.Start(ctx, s.pool)
}

// WithCluster wires a RemoteResolver and RemoteCaller into the system,
// enabling the Remote reference variant. Without this call, Get only ever
// returns Local or Collocated references — the single-process mode every
// unit test in this module runs in.
func (s *System[A, K]) WithCluster(resolver RemoteResolver, caller RemoteCaller) {
	s.resolver = resolver
	s.caller = caller
}

// ClearDirectory drops every activation of this actor type on every
// shard.
func (s *System[A, K]) ClearDirectory(ctx context.Context) error {
	return s.dirs.InvokeOnAll(ctx, s.pool, func(d *directory.Directory[A, K]) error {
		d.Clear()
		return nil
	})
}

func (s *System[A, K]) roundRobin(callerShard, modulus int) int {
	s.rrMu.Lock()
	rr, ok := s.rr[callerShard]
	if !ok {
		rr = placement.NewRoundRobin(callerShard)
		s.rr[callerShard] = rr
	}
	s.rrMu.Unlock()
	return rr.Next(modulus)
}

// Get constructs a reference to the activation identified by key, from
// the perspective of callerShard, following a get<A>(key) algorithm:
// hash the key, consult the cluster ring if one is wired in,
// and otherwise apply the actor type's placement strategy (with
// round-robin among eligible shards for Local-kind actors). The
// returned Ref always retains key itself, not just its hash, so that
// whichever dispatch path Tell takes later can pass it on to
// directory.Hold/Dispatch for a freshly-constructed activation.
func Get[A any, K comparable](s *System[A, K], callerShard int, key K) Ref[A, K] {
	id := placement.HashKey(key)

	if s.resolver != nil {
		if node, isLocal, ok := s.resolver.NodeFor(id); ok && !isLocal {
			return Ref[A, K]{kind: Remote, activationID: id, key: key, node: node, keyRaw: placement.KeyBytes(key)}
		}
	}

	shardCount := s.pool.ShardCount()
	var target int
	if s.ty.Kind == actor.LocalKind {
		target = s.roundRobin(callerShard, s.ty.EffectiveMaxActivations(shardCount))
	} else {
		target = s.ty.EffectivePlacement()(id, shardCount)
	}

	if target == callerShard {
		return Ref[A, K]{kind: Local, activationID: id, key: key, shard: target}
	}
	return Ref[A, K]{kind: Collocated, activationID: id, key: key, shard: target}
}

func (s *System[A, K]) directoryOn(shard int) *directory.Directory[A, K] {
	return s.dirs.Local(shard)
}
