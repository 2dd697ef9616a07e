// Package directory implements the per-shard, per-actor-type activation
// table: on-demand materialization of an actor instance keyed by a hashed
// activation ID, and reentrancy-aware dispatch of a single handler call
// against it.
//
// It plays the role of
// _examples/original_source/include/ultramarine/impl/directory.hpp's
// actor_directory<Actor>: hold_activation is Hold, and dispatch_message's
// reentrant/non-reentrant split is Dispatch. The per-shard map itself
// follows the mutex-guarded map idiom of a coordinator-style shard
// registry, here with a plain sync.Mutex.
//
// A Directory is shard-local: callers must only invoke Hold or Dispatch
// from the goroutine of the shard that owns the directory, the same
// single-writer discipline a shard owner assumes for its store. Nothing
// in this package enforces that by itself — ownership is a
// calling-convention guarantee upheld by package actorref.
package directory
