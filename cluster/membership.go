package cluster

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/dreamware/vactor/placement"

	"github.com/cenkalti/backoff"
	"go.uber.org/zap"
)

// candidateQueueDepth bounds the gossip candidate channel, per
// original_source/src/membership.cpp's candidates(100) bounded queue.
const candidateQueueDepth = 100

// joinMaxAttempts and the backoff base interval implement
// join(seeds, min_peers)'s exponential backoff (1, 2, 4, 8, 16 s, up to
// 5 attempts), replacing a fixed time.Sleep(400*time.Millisecond) retry
// loop with github.com/cenkalti/backoff.
const joinMaxAttempts = 5

// Membership tracks the local node's membership state machine
// (Bootstrap → Joining → Member → Stopping), its view of the cluster hash
// ring, and the gossip-only peer discovery loop described in
// original_source/src/membership.cpp.
type Membership struct {
	local      placement.NodeDescriptor
	shardCount uint32
	transport  Transport
	codec      Codec
	log        *zap.SugaredLogger

	state32 stateBox

	ring *placement.Ring

	mu         sync.Mutex
	connecting map[string]struct{}

	candidates chan placement.NodeDescriptor
	gateClosed chan struct{}
	gateOnce   sync.Once
	wg         sync.WaitGroup

	events *eventBus
}

// New returns a Membership for the local node, seeding the ring with
// local.
func New(local placement.NodeDescriptor, shardCount uint32, transport Transport, log *zap.SugaredLogger) *Membership {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	m := &Membership{
		local:      local,
		shardCount: shardCount,
		transport:  transport,
		codec:      BinaryCodec{},
		log:        log,
		ring:       placement.NewRing(),
		connecting: make(map[string]struct{}),
		candidates: make(chan placement.NodeDescriptor, candidateQueueDepth),
		gateClosed: make(chan struct{}),
		events:     newEventBus(log),
	}
	m.ring.Add(local)
	m.state32.store(Bootstrap)
	return m
}

// State returns the local node's current membership state.
func (m *Membership) State() State { return m.state32.load() }

// Ring exposes the live hash ring, e.g. for rpcendpoint and actorref's
// RemoteResolver adapter.
func (m *Membership) Ring() *placement.Ring { return m.ring }

// Subscribe registers a listener for membership events (M1/M2 peer
// up/down notifications).
func (m *Membership) Subscribe(l Listener) { m.events.Subscribe(l) }

// NodeFor implements actorref.RemoteResolver: it reports the node
// currently responsible for activationID and whether that's the local
// node.
func (m *Membership) NodeFor(activationID uint64) (placement.NodeDescriptor, bool, bool) {
	node, ok := m.ring.Lookup(activationID)
	if !ok {
		return placement.NodeDescriptor{}, false, false
	}
	return node, node == m.local, true
}

// Start transitions the node to Joining and launches the candidate-gossip
// worker (original_source's contact_candidates). Per M3, the caller must
// have already mounted HandshakeHandler on its HTTP server before calling
// Start, so an inbound handshake is never missed.
func (m *Membership) Start(ctx context.Context) {
	m.state32.store(Joining)
	m.wg.Add(1)
	go m.contactCandidates(ctx)
}

// Join attempts a handshake with every seed, retrying each with
// exponential backoff up to joinMaxAttempts times. Once the ring (minus
// the local node) holds at least minPeers members, the node transitions
// to Member; min_peers of 0 means standalone operation is acceptable.
// Otherwise Join returns an error and the node stays in Joining.
func (m *Membership) Join(ctx context.Context, seeds []placement.NodeDescriptor, minPeers int) error {
	for _, seed := range seeds {
		if seed == m.local {
			continue
		}
		if err := m.joinWithBackoff(ctx, seed); err != nil {
			m.log.Warnw("cluster: seed unreachable after retries", "seed", formatAddr(seed), "error", err)
		}
	}

	if peers := m.ring.Size() - 1; peers < minPeers {
		return fmt.Errorf("cluster: joined %d peers, need at least %d", peers, minPeers)
	}
	m.state32.store(Member)
	return nil
}

func (m *Membership) joinWithBackoff(ctx context.Context, seed placement.NodeDescriptor) error {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = time.Second
	bo.Multiplier = 2
	bo.RandomizationFactor = 0
	bo.MaxElapsedTime = 0

	var lastErr error
	for attempt := 0; attempt < joinMaxAttempts; attempt++ {
		err := m.tryAddPeer(ctx, seed)
		if err == nil {
			return nil
		}
		lastErr = err

		wait := bo.NextBackOff()
		if wait == backoff.Stop {
			break
		}
		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return lastErr
}

// tryAddPeer performs a handshake with addr if it isn't already known or
// already being contacted, adds it to the ring on success, emits a PeerUp
// event, and enqueues any peers it learns about as gossip candidates.
func (m *Membership) tryAddPeer(ctx context.Context, addr placement.NodeDescriptor) error {
	if addr == m.local {
		return nil
	}

	key := formatAddr(addr)
	m.mu.Lock()
	if _, ok := m.connecting[key]; ok {
		m.mu.Unlock()
		return nil
	}
	for _, known := range m.ring.Members() {
		if known == addr {
			m.mu.Unlock()
			return nil
		}
	}
	m.connecting[key] = struct{}{}
	m.mu.Unlock()
	defer func() {
		m.mu.Lock()
		delete(m.connecting, key)
		m.mu.Unlock()
	}()

	resp, err := m.transport.Handshake(ctx, key, HandshakeRequest{
		Origin:     m.local,
		KnownNodes: m.ring.Members(),
	})
	if err != nil {
		return fmt.Errorf("cluster: handshake with %s: %w", key, err)
	}

	m.ring.Add(addr)
	m.events.Emit(Event{Kind: PeerUp, Node: addr})
	m.enqueueCandidates(resp.KnownNodes)
	return nil
}

func (m *Membership) enqueueCandidates(nodes []placement.NodeDescriptor) {
	for _, n := range nodes {
		select {
		case m.candidates <- n:
		default:
			m.log.Debugw("cluster: candidate queue full, dropping", "node", formatAddr(n))
		}
	}
}

// contactCandidates is the single cooperative worker draining the
// candidate queue, per original_source/src/membership.cpp's
// contact_candidates: gossip discovery happens only as a side effect of
// handshakes, never via a periodic sweep.
func (m *Membership) contactCandidates(ctx context.Context) {
	defer m.wg.Done()
	for {
		select {
		case <-m.gateClosed:
			return
		case <-ctx.Done():
			return
		case addr := <-m.candidates:
			if err := m.tryAddPeer(ctx, addr); err != nil {
				m.log.Debugw("cluster: candidate unreachable", "node", formatAddr(addr), "error", err)
			}
		}
	}
}

// HandshakeHandler implements the server side of the protocol: decode the
// inbound request, reply with the current ring view and shard count, and
// enqueue the origin and every known node the caller reported as gossip
// candidates.
func (m *Membership) HandshakeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		req, err := m.codec.DecodeRequest(body)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		raw, err := m.codec.EncodeResponse(HandshakeResponse{
			KnownNodes: m.ring.Members(),
			ShardCount: m.shardCount,
		})
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		m.enqueueCandidates(append([]placement.NodeDescriptor{req.Origin}, req.KnownNodes...))

		w.Header().Set("Content-Type", "application/octet-stream")
		_, _ = w.Write(raw)
	}
}

// Stop closes the candidate-connection gate, waits for the gossip worker
// to exit, and removes every remote peer from the ring, emitting PeerDown
// for each, per M2 and original_source's membership::stop.
func (m *Membership) Stop() {
	m.state32.store(Stopping)
	m.gateOnce.Do(func() { close(m.gateClosed) })
	m.wg.Wait()

	for _, n := range m.ring.Members() {
		if n == m.local {
			continue
		}
		m.ring.Remove(n)
		m.events.Emit(Event{Kind: PeerDown, Node: n})
	}
}

func formatAddr(n placement.NodeDescriptor) string {
	return fmt.Sprintf("%d.%d.%d.%d:%d", n.IPv4[0], n.IPv4[1], n.IPv4[2], n.IPv4[3], n.Port)
}
