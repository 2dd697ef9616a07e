package main

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/dreamware/vactor/actor"
	"github.com/dreamware/vactor/actorref"
	"github.com/dreamware/vactor/cluster"
	"github.com/dreamware/vactor/placement"
	"github.com/dreamware/vactor/rpcendpoint"

	"go.uber.org/zap"
)

// handleCounterRequest serves /actor/counter/{key}/{increment,count},
// the demo HTTP surface standing in for a real user-facing API: it routes
// each request to the owning node exactly the way a real Remote tell
// would, following cluster membership's ring view, then dispatches
// in-process via actorref.DispatchInbound once the request has reached
// the node that actually owns the activation. This mirrors
// cmd/node/main.go's handleShardRequest path-parsing idiom, retargeted
// from shard storage operations to actor tells.
func handleCounterRequest(ctx context.Context, sys *actorref.System[Counter, string], membership *cluster.Membership, client *rpcendpoint.Client, log *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		parts := strings.Split(strings.Trim(strings.TrimPrefix(r.URL.Path, "/actor/counter/"), "/"), "/")
		if len(parts) != 2 || parts[0] == "" {
			http.Error(w, "expected /actor/counter/{key}/{increment|count}", http.StatusBadRequest)
			return
		}
		key, op := parts[0], parts[1]
		activationID := placement.HashKey(key)

		node, isLocal, ok := membership.NodeFor(activationID)
		remote := ok && !isLocal

		var result uint64
		var err error

		switch op {
		case "increment":
			delta := uint64(1)
			if raw := r.URL.Query().Get("delta"); raw != "" {
				delta, err = strconv.ParseUint(raw, 10, 64)
				if err != nil {
					http.Error(w, "invalid delta", http.StatusBadRequest)
					return
				}
			}
			if remote {
				result, err = callRemoteUint64(r.Context(), client, node, incrementHandler.ID, key, delta)
			} else {
				result, err = actorref.DispatchInbound(ctx, sys, activationID, key, incrementHandler, delta).Get(r.Context())
			}
		case "count":
			if remote {
				result, err = callRemoteUint64(r.Context(), client, node, countHandler.ID, key, 0)
			} else {
				result, err = actorref.DispatchInbound(ctx, sys, activationID, key, countHandler, struct{}{}).Get(r.Context())
			}
		default:
			http.Error(w, "unknown operation "+op, http.StatusNotFound)
			return
		}

		if err != nil {
			log.Debugw("counter request failed", "key", key, "op", op, "error", err)
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"key": key, "total": result})
	}
}

// callRemoteUint64 forwards a counter call to the node that actually owns
// the activation, over rpcendpoint's HTTP transport, the same Remote path
// actorref.Tell would take if this handler were itself running on a
// shard goroutine instead of an HTTP handler's.
func callRemoteUint64(ctx context.Context, client *rpcendpoint.Client, node placement.NodeDescriptor, messageID actor.MessageID, key string, arg uint64) (uint64, error) {
	rawArgs, err := encodeUint64(arg)
	if err != nil {
		return 0, err
	}
	rawResult, err := client.CallRemote(ctx, node, messageID, placement.KeyBytes(key), rawArgs)
	if err != nil {
		return 0, err
	}
	return decodeUint64(rawResult)
}
