// Package cluster implements peer discovery, the handshake protocol, and
// membership state for a vactor cluster: Start/Join/Stop, a hash ring of
// peers (via package placement), gossip-only candidate discovery, and a
// health monitor retargeted from node-storage health to cluster-peer
// health.
//
// It is grounded on three sources at once:
//   - internal/cluster (types.go's NodeInfo/PostJSON/GetJSON idiom) and
//     internal/coordinator/health_monitor.go for the ambient Go shape
//     (sync.RWMutex-guarded maps, context-based Start/Stop, a ticker
//     loop).
//   - original_source/src/membership.cpp and src/handshake.cpp for the
//     actual protocol: candidate queue gossip, a connection gate closed
//     on Stop, and the handshake request/response exchange that seeds
//     the ring.
//
// This package's cluster failure detector is adapted from a
// storage-node health monitor: it keeps that same monitor but points it
// at cluster peers and feeds a generalized event bus instead of a single
// RedistributeShards callback — a small channel/broadcast primitive
// where listener errors are logged and swallowed.
package cluster
