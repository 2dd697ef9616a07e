package actor

import (
	"context"
	"fmt"
	"sync"
)

// Trampoline is the type-erased, wire-side entry point for a handler:
// given the activation's raw key bytes and raw encoded arguments, it
// resolves the target activation, invokes the real handler against it,
// and returns raw encoded results. rpcendpoint builds one of these per
// registered Handler and calls RegisterRemote so an inbound RPC carrying
// only a MessageID and a key can find its way back to a concrete handler
// and activation without either side needing reflection. ctx carries the
// inbound RPC's request context so a client disconnect can unblock a
// dispatch waiting on a busy shard.
type Trampoline func(ctx context.Context, rawKey, rawArgs []byte) (rawResult []byte, err error)

var (
	remoteMu    sync.RWMutex
	remoteTable = make(map[MessageID]registeredTrampoline)
)

type registeredTrampoline struct {
	name string
	fn   Trampoline
}

// RegisterRemote installs the wire trampoline for a handler under id,
// standing in for the macro-generated entry the source's actor_directory
// consults when a dispatch_message arrives for a given message index
// (_examples/original_source/include/ultramarine/impl/directory.hpp).
// Registration is idempotent: registering the same id with the same name
// twice (package init running more than once, e.g. under test) is a
// no-op, but two different handler names colliding on one id is an error
// since it means DeriveMessageID collided or a handler was renamed
// without updating callers.
func RegisterRemote(id MessageID, name string, fn Trampoline) error {
	remoteMu.Lock()
	defer remoteMu.Unlock()

	if existing, ok := remoteTable[id]; ok {
		if existing.name == name {
			return nil
		}
		return fmt.Errorf("actor: message id %d already registered to %q, cannot register %q", id, existing.name, name)
	}
	remoteTable[id] = registeredTrampoline{name: name, fn: fn}
	return nil
}

// LookupRemote returns the trampoline registered for id, if any. Called by
// the RPC server once for every inbound message; the lookup itself never
// blocks on cluster or directory state.
func LookupRemote(id MessageID) (Trampoline, bool) {
	remoteMu.RLock()
	defer remoteMu.RUnlock()
	r, ok := remoteTable[id]
	if !ok {
		return nil, false
	}
	return r.fn, true
}
