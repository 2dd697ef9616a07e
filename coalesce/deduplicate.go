package coalesce

import (
	"context"

	"github.com/dreamware/vactor/actor"
	"github.com/dreamware/vactor/actorref"
	"github.com/dreamware/vactor/internal/engine"
)

// Deduplicate calls build once with an add function; every call to add
// appends one Req to a batch. Once build returns, the whole batch is sent
// to ref's activation as a single cross-shard (or cross-node) hop via
// actorref.TellBatch, which invokes handler once per element server-side
// — the same handler a non-coalesced Tell(ctx, sys, ref, handler, req,
// codec) would use, not a second, independently-typed batch handler
// (spec.md §4.6: "it is unpacked and the handler is invoked once per
// element"; see original_source/include/ultramarine/impl/
// message_deduplicate.hpp's deduplicator::execute, which calls
// tell_packed with the very handler tag it was constructed with). If
// build never calls add, no message is sent at all and an
// already-resolved empty-slice Future is returned — the zero-call case
// message_deduplicate.hpp's deduplicator also special-cases, there by
// never invoking tell_packed.
func Deduplicate[A any, K comparable, Req any, Res any](
	ctx context.Context,
	sys *actorref.System[A, K],
	ref actorref.Ref[A, K],
	handler actor.Handler[A, Req, Res],
	build func(add func(Req)),
	codec *actorref.WireCodec[Req, Res],
) *engine.Future[[]Res] {
	var packed []Req
	build(func(req Req) { packed = append(packed, req) })

	if len(packed) == 0 {
		return engine.Ready[[]Res](nil)
	}
	return actorref.TellBatch(ctx, sys, ref, handler, packed, actorref.BatchCodec(codec))
}

// DeduplicateCount is the no-argument-handler counterpart: build calls
// add once per logical invocation, with no payload, and the coalesced
// batch invokes handler exactly that many times against the target
// activation — the n-argument-less Tells spec.md §4.6 describes
// ("the target shard invokes the handler n times") collapsed into the
// one TellBatch hop Deduplicate already uses, with Req fixed to
// struct{}{}.
func DeduplicateCount[A any, K comparable, Res any](
	ctx context.Context,
	sys *actorref.System[A, K],
	ref actorref.Ref[A, K],
	handler actor.Handler[A, struct{}, Res],
	build func(add func()),
) *engine.Future[[]Res] {
	count := 0
	build(func() { count++ })

	if count == 0 {
		return engine.Ready[[]Res](nil)
	}
	reqs := make([]struct{}, count)
	return actorref.TellBatch(ctx, sys, ref, handler, reqs, nil)
}
