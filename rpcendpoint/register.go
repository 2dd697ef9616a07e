package rpcendpoint

import (
	"context"
	"fmt"

	"github.com/dreamware/vactor/actor"
	"github.com/dreamware/vactor/actorref"
	"github.com/dreamware/vactor/placement"
)

// KeyCodec decodes a raw wire key back into the actor's key type K, the
// server-side counterpart of placement.KeyBytes, which already covers the
// client-side encode direction for every key type this module supports.
type KeyCodec[K comparable] struct {
	Decode func([]byte) (K, error)
}

// HandlerCodec supplies the marshal/unmarshal functions the server side
// of a handler needs: decoding an inbound request and encoding its
// response, the mirror image of actorref.WireCodec's client-side
// EncodeReq/DecodeRes pair.
type HandlerCodec[Req any, Res any] struct {
	DecodeReq func([]byte) (Req, error)
	EncodeRes func(Res) ([]byte, error)
}

// RegisterHandler installs the server-side trampoline for h: given a raw
// key and raw args, it decodes both, resolves the owning activation via
// actorref.DispatchInbound (bypassing any caller-shard perspective, since
// an inbound RPC has none), invokes h, and re-encodes the result: the Go
// rendition of "(key, args…) → get<A>(key).tell(tag, args…)".
//
// It also registers, under the same call, h's packed-batch companion at
// message_id | 0x1 (BatchMessageID): a trampoline that decodes a []Req
// and dispatches it through actorref.DispatchInboundBatch, which invokes
// h itself once per element (spec.md §4.6/§4.8). There is deliberately no
// separate batch Handler type to register — the batch companion always
// reuses h, the way
// original_source/include/ultramarine/impl/message_deduplicate.hpp's
// deduplicator::execute calls tell_packed with the very handler tag the
// deduplicator was constructed with.
func RegisterHandler[A any, K comparable, Req any, Res any](
	sys *actorref.System[A, K],
	h actor.Handler[A, Req, Res],
	key KeyCodec[K],
	codec HandlerCodec[Req, Res],
) error {
	trampoline := func(ctx context.Context, rawKey, rawArgs []byte) ([]byte, error) {
		k, err := key.Decode(rawKey)
		if err != nil {
			return nil, fmt.Errorf("rpcendpoint: decode key for %q: %w", h.Name, err)
		}
		reqVal, err := codec.DecodeReq(rawArgs)
		if err != nil {
			return nil, fmt.Errorf("rpcendpoint: decode request for %q: %w", h.Name, err)
		}

		activationID := placement.HashKey(k)
		res, err := actorref.DispatchInbound(ctx, sys, activationID, k, h, reqVal).Get(ctx)
		if err != nil {
			return nil, err
		}
		return codec.EncodeRes(res)
	}
	if err := actor.RegisterRemote(h.ID, h.Name, trampoline); err != nil {
		return err
	}

	batchTrampoline := func(ctx context.Context, rawKey, rawArgs []byte) ([]byte, error) {
		k, err := key.Decode(rawKey)
		if err != nil {
			return nil, fmt.Errorf("rpcendpoint: decode key for %q batch: %w", h.Name, err)
		}
		reqs, err := actorref.DecodeSlice(rawArgs, codec.DecodeReq)
		if err != nil {
			return nil, fmt.Errorf("rpcendpoint: decode batch request for %q: %w", h.Name, err)
		}

		activationID := placement.HashKey(k)
		results, err := actorref.DispatchInboundBatch(ctx, sys, activationID, k, h, reqs).Get(ctx)
		if err != nil {
			return nil, err
		}
		return actorref.EncodeSlice(results, codec.EncodeRes)
	}
	return actor.RegisterRemote(BatchMessageID(h.ID), h.Name+".batch", batchTrampoline)
}
