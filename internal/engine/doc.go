// Package engine implements the shard runtime that the rest of vactor is
// built on: one goroutine per shard, a channel run-queue per shard, and a
// small set of future combinators in place of the cooperative-scheduler
// primitives that the original ultramarine runtime borrowed from seastar.
//
// There is no external reactor library to depend on in Go, so unlike the
// other packages in this module engine is not a thin layer over a
// third-party dependency — it is the thing spec §4.1 describes as an
// "external collaborator" for the C++ original, reimplemented directly.
//
// A shard never shares mutable state with another shard. Everything that
// crosses a shard boundary — an argument tuple, a result — travels as a
// value captured by a closure pushed onto the target shard's queue.
package engine
