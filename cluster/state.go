package cluster

import "sync/atomic"

// State is the local node's membership state, one of the
// Bootstrap → Joining → Member → Stopping progression. Represented as an
// atomic.Int32 rather than bare strings so reads from any shard's
// goroutine never race with a concurrent Start/Join/Stop transition.
type State int32

const (
	Bootstrap State = iota
	Joining
	Member
	Stopping
)

func (s State) String() string {
	switch s {
	case Bootstrap:
		return "bootstrap"
	case Joining:
		return "joining"
	case Member:
		return "member"
	case Stopping:
		return "stopping"
	default:
		return "unknown"
	}
}

type stateBox struct {
	v atomic.Int32
}

func (b *stateBox) load() State {
	return State(b.v.Load())
}

func (b *stateBox) store(s State) {
	b.v.Store(int32(s))
}
