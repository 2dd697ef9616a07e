// Package coalesce implements batch submission of many messages destined
// for one activation as a single cross-shard task (Deduplicate), and a
// bounded in-flight admission control primitive (WithBuffer).
//
// Deduplicate is grounded on
// _examples/original_source/include/ultramarine/impl/message_deduplicate.hpp's
// deduplicator<Actor,Message,Signature>: a builder-closure populates a
// batch by repeated calls to an add function, and exactly one Tell
// carries the whole batch. This is a different axis from
// IvanBrykalov-shardcache/internal/singleflight, which collapses
// concurrent *identical* calls into one — Deduplicate batches *distinct*
// calls bound for the same activation into one round trip.
//
// WithBuffer is grounded on the same header's admission-control intent,
// implemented with golang.org/x/sync/errgroup's SetLimit rather than a
// hand-rolled semaphore, since errgroup is already in this module's
// dependency set for exactly this kind of bounded-concurrency fan-out.
package coalesce
