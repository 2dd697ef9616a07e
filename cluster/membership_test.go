package cluster

import (
	"bytes"
	"context"
	"errors"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/dreamware/vactor/placement"

	"github.com/stretchr/testify/require"
)

func node(port uint16) placement.NodeDescriptor {
	return placement.NodeDescriptor{IPv4: [4]byte{127, 0, 0, 1}, Port: port}
}

// fakeTransport routes a Handshake call straight into the target
// Membership's own HandshakeHandler via httptest, so the gossip and ring
// logic under test runs unmodified while avoiding a real listening
// socket.
type fakeTransport struct {
	mu    sync.Mutex
	peers map[string]*Membership
	fail  map[string]bool
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{
		peers: make(map[string]*Membership),
		fail:  make(map[string]bool),
	}
}

func (t *fakeTransport) register(addr string, m *Membership) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.peers[addr] = m
}

func (t *fakeTransport) Handshake(ctx context.Context, addr string, req HandshakeRequest) (HandshakeResponse, error) {
	t.mu.Lock()
	shouldFail := t.fail[addr]
	peer, ok := t.peers[addr]
	t.mu.Unlock()

	if shouldFail {
		return HandshakeResponse{}, errors.New("simulated unreachable peer")
	}
	if !ok {
		return HandshakeResponse{}, errors.New("no such peer")
	}

	raw, err := peer.codec.EncodeRequest(req)
	if err != nil {
		return HandshakeResponse{}, err
	}

	httpReq := httptest.NewRequest("POST", "http://"+addr+"/cluster/handshake", bytes.NewReader(raw))
	rr := httptest.NewRecorder()
	peer.HandshakeHandler().ServeHTTP(rr, httpReq)

	if rr.Code >= 300 {
		return HandshakeResponse{}, errors.New(rr.Body.String())
	}
	return peer.codec.DecodeResponse(rr.Body.Bytes())
}

func TestMembershipJoinAddsSeedToRing(t *testing.T) {
	transport := newFakeTransport()

	a := New(node(1), 4, transport, nil)
	b := New(node(2), 4, transport, nil)
	transport.register(formatAddr(node(1)), a)
	transport.register(formatAddr(node(2)), b)

	err := b.Join(context.Background(), []placement.NodeDescriptor{node(1)}, 1)
	require.NoError(t, err)

	require.Equal(t, Member, b.State())
	require.Equal(t, 2, b.Ring().Size())
}

func TestMembershipJoinStandaloneAllowedWithZeroMinPeers(t *testing.T) {
	transport := newFakeTransport()
	a := New(node(1), 4, transport, nil)

	err := a.Join(context.Background(), nil, 0)
	require.NoError(t, err)
	require.Equal(t, Member, a.State())
}

func TestMembershipTryAddPeerUnreachableLeavesRingUnchanged(t *testing.T) {
	transport := newFakeTransport()
	transport.fail[formatAddr(node(2))] = true

	a := New(node(1), 4, transport, nil)
	err := a.tryAddPeer(context.Background(), node(2))
	require.Error(t, err)
	require.Equal(t, 1, a.Ring().Size())
}

func TestMembershipGossipDiscoversTransitively(t *testing.T) {
	transport := newFakeTransport()

	a := New(node(1), 4, transport, nil)
	b := New(node(2), 4, transport, nil)
	c := New(node(3), 4, transport, nil)
	transport.register(formatAddr(node(1)), a)
	transport.register(formatAddr(node(2)), b)
	transport.register(formatAddr(node(3)), c)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	a.Start(ctx)
	b.Start(ctx)
	c.Start(ctx)
	defer a.Stop()
	defer b.Stop()
	defer c.Stop()

	require.NoError(t, b.Join(ctx, []placement.NodeDescriptor{node(1)}, 1))
	require.NoError(t, c.Join(ctx, []placement.NodeDescriptor{node(2)}, 1))

	require.Eventually(t, func() bool {
		return a.Ring().Size() == 3 && b.Ring().Size() == 3 && c.Ring().Size() == 3
	}, time.Second, 5*time.Millisecond)
}

func TestMembershipStopRemovesPeersAndEmitsPeerDown(t *testing.T) {
	transport := newFakeTransport()
	a := New(node(1), 4, transport, nil)
	b := New(node(2), 4, transport, nil)
	transport.register(formatAddr(node(1)), a)
	transport.register(formatAddr(node(2)), b)

	require.NoError(t, b.Join(context.Background(), []placement.NodeDescriptor{node(1)}, 1))

	var got []Event
	b.Subscribe(func(ev Event) error {
		got = append(got, ev)
		return nil
	})

	b.Stop()
	require.Equal(t, Stopping, b.State())
	require.Equal(t, 1, b.Ring().Size())
	require.Len(t, got, 1)
	require.Equal(t, PeerDown, got[0].Kind)
}

func TestMembershipNodeForReportsLocal(t *testing.T) {
	transport := newFakeTransport()
	a := New(node(1), 4, transport, nil)

	n, isLocal, ok := a.NodeFor(12345)
	require.True(t, ok)
	require.True(t, isLocal)
	require.Equal(t, node(1), n)
}
