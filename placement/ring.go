package placement

import (
	"encoding/binary"
	"sort"
	"sync"

	"github.com/cespare/xxhash/v2"
)

// VirtualPoints is the number of positions each node occupies on the
// ring, matching the vnode-count convention the vendored Redis ring
// client in the example pack uses.
const VirtualPoints = 160

// NodeDescriptor identifies a cluster peer by its (IPv4, port) tuple.
type NodeDescriptor struct {
	IPv4 [4]byte
	Port uint16
}

func (n NodeDescriptor) point(i int) uint64 {
	var buf [6 + 4]byte
	copy(buf[0:4], n.IPv4[:])
	binary.LittleEndian.PutUint16(buf[4:6], n.Port)
	binary.LittleEndian.PutUint32(buf[6:10], uint32(i))
	return xxhash.Sum64(buf[:])
}

type ringPoint struct {
	hash uint64
	node NodeDescriptor
}

// Ring is a consistent hash ring of node descriptors, used by cluster
// membership to decide which node a given activation belongs to. Lookup
// is O(log N) via binary search over a sorted slice, avoiding the
// overhead of a tree-based ring for memberships the size a single
// vactor cluster is expected to reach.
type Ring struct {
	mu     sync.RWMutex
	points []ringPoint
	nodes  map[NodeDescriptor]struct{}
}

// NewRing returns an empty ring.
func NewRing() *Ring {
	return &Ring{nodes: make(map[NodeDescriptor]struct{})}
}

// Add inserts node's virtual points into the ring. Adding a node already
// present is a no-op (M1: a peer enters the ring only after a successful
// handshake, and a handshake is not re-run for an already-known peer).
func (r *Ring) Add(node NodeDescriptor) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.nodes[node]; ok {
		return
	}
	r.nodes[node] = struct{}{}

	for i := 0; i < VirtualPoints; i++ {
		r.points = append(r.points, ringPoint{hash: node.point(i), node: node})
	}
	sort.Slice(r.points, func(i, j int) bool { return r.points[i].hash < r.points[j].hash })
}

// Remove deletes node's virtual points from the ring (M2: package cluster
// removes a peer on explicit stop or when its health monitor marks the
// peer unhealthy).
// Removing an absent node is a no-op. Add followed by Remove of the
// same node restores the ring to its prior lookup table for every key.
func (r *Ring) Remove(node NodeDescriptor) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.nodes[node]; !ok {
		return
	}
	delete(r.nodes, node)

	filtered := r.points[:0]
	for _, p := range r.points {
		if p.node != node {
			filtered = append(filtered, p)
		}
	}
	r.points = filtered
}

// Lookup returns the node owning activationID, and false if the ring is
// empty.
func (r *Ring) Lookup(activationID uint64) (NodeDescriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if len(r.points) == 0 {
		return NodeDescriptor{}, false
	}

	i := sort.Search(len(r.points), func(i int) bool { return r.points[i].hash >= activationID })
	if i == len(r.points) {
		i = 0
	}
	return r.points[i].node, true
}

// Members returns every distinct node currently on the ring.
func (r *Ring) Members() []NodeDescriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]NodeDescriptor, 0, len(r.nodes))
	for n := range r.nodes {
		out = append(out, n)
	}
	return out
}

// Size returns the number of distinct nodes on the ring.
func (r *Ring) Size() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.nodes)
}
