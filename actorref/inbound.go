package actorref

import (
	"context"

	"github.com/dreamware/vactor/actor"
	"github.com/dreamware/vactor/directory"
	"github.com/dreamware/vactor/internal/engine"
)

// DispatchInbound resolves the shard owning activationID using the actor
// type's own placement function and submits h against it, ignoring any
// notion of a caller shard. It exists for package rpcendpoint's
// server-side trampolines: an inbound RPC arrives on an HTTP handler
// goroutine that is not any shard's own goroutine and has no shard
// affinity of its own, unlike a Tell issued from inside the engine, so
// the dispatch must always cross the shard boundary through
// engine.SubmitCtx rather than ever taking Tell's in-line Local path.
//
// key is the already-decoded activation key the inbound call carried on
// the wire; it is threaded through to directory.Dispatch so a first
// reference to the activation calls ty.New(key), not just ty.New of a
// zero value, matching the same key every local Get/Tell path retains.
func DispatchInbound[A any, K comparable, Req any, Res any](ctx context.Context, s *System[A, K], activationID uint64, key K, h actor.Handler[A, Req, Res], req Req) *engine.Future[Res] {
	shardCount := s.pool.ShardCount()
	target := s.ty.EffectivePlacement()(activationID, shardCount)
	return engine.SubmitCtx(ctx, s.pool.Shard(target), func() (Res, error) {
		return directory.Dispatch(ctx, s.directoryOn(target), activationID, key, h, req, directory.DefaultReentrancyTimeout)
	})
}

// DispatchInboundBatch is DispatchInbound's counterpart for the batch
// companion trampoline rpcendpoint.RegisterHandler installs alongside
// every handler: it runs h once per element of reqs against the single
// inbound activation, via directory.DispatchBatch.
func DispatchInboundBatch[A any, K comparable, Req any, Res any](ctx context.Context, s *System[A, K], activationID uint64, key K, h actor.Handler[A, Req, Res], reqs []Req) *engine.Future[[]Res] {
	shardCount := s.pool.ShardCount()
	target := s.ty.EffectivePlacement()(activationID, shardCount)
	return engine.SubmitCtx(ctx, s.pool.Shard(target), func() ([]Res, error) {
		return directory.DispatchBatch(ctx, s.directoryOn(target), activationID, key, h, reqs, directory.DefaultReentrancyTimeout)
	})
}
