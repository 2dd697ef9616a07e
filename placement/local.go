package placement

import "sync/atomic"

// RoundRobin hands out successive shard indices in
// {0, 1, ..., min(shardCount, maxActivations)-1}, the Local-actor
// reference-construction rule: round-robin within
// {0..min(shard_count, MaxActivations)}, seeded by a per-shard counter
// plus the calling shard's own index.
//
// One RoundRobin exists per (actor type, caller shard) pair; Next is only
// ever called from that owning shard's goroutine, so the counter does not
// need its own lock — atomic.Uint64 is used anyway so a RoundRobin can be
// shared safely if a future caller relaxes that discipline.
type RoundRobin struct {
	callerShard int
	counter     atomic.Uint64
}

// NewRoundRobin returns a round-robin selector seeded by the calling
// shard's index, so distinct caller shards fan Local-actor references out
// to different starting points rather than all favoring shard 0.
func NewRoundRobin(callerShard int) *RoundRobin {
	return &RoundRobin{callerShard: callerShard}
}

// Next returns the next shard index to place a Local activation on, within
// {0, ..., modulus-1}.
func (rr *RoundRobin) Next(modulus int) int {
	if modulus <= 0 {
		modulus = 1
	}
	n := rr.counter.Add(1)
	return (rr.callerShard + int(n)) % modulus
}
