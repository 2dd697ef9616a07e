// Package actorref implements typed references to virtual actors and the
// tell dispatch path that routes a message Local (same shard), Collocated
// (another shard, same process), or Remote (another node), grounded on
// _examples/original_source/include/ultramarine/impl/actor_ref_impl.hpp's
// collocated_actor_ref / actor_ref_variant split and
// do_with_actor_ref_impl's placement logic.
//
// Ref[A] is a small tagged struct rather than an interface{} or a Go
// variant library, matching the Design Notes' preference for an
// allocation-free Local path: the common case (Local, Collocated) never
// leaves the stack.
//
// Calling convention: Get and Tell both take an explicit callerShard
// parameter standing in for the source's implicit current_shard() (see
// SPEC_FULL.md §4.1). A Ref whose Kind is Local must only be passed to
// Tell from code already executing on the goroutine of that shard —
// exactly the same single-writer trust Directory.Hold/Dispatch already
// places in its caller. System arranges this automatically as long as
// handlers call Tell from within their own dispatch, never from an
// unrelated goroutine holding a stale Ref.
package actorref
