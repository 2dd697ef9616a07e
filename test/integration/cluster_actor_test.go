// Package integration exercises vactor end to end across real network
// sockets: in-process nodes (three in the ring test, two in the call
// test), each with its own shard pool, actor system, and cluster
// membership, joined over real HTTP listeners and exchanging an actual
// Remote tell — a cluster handshake scenario,
// adapted from an integration test that drove a built coordinator/node
// pair over HTTP the same way. This module has no coordinator process,
// so the two "node" roles here stand directly for what that test
// called nodes.
package integration

import (
	"context"
	"encoding/binary"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dreamware/vactor/actor"
	"github.com/dreamware/vactor/actorref"
	"github.com/dreamware/vactor/cluster"
	"github.com/dreamware/vactor/internal/engine"
	"github.com/dreamware/vactor/placement"
	"github.com/dreamware/vactor/rpcendpoint"

	"github.com/stretchr/testify/require"
)

// counter is a minimal stand-in for a user actor: Singleton, reentrant,
// Increment accumulates a running total per key.
type counter struct {
	key   string
	total uint64
}

var incHandler = actor.NewHandler[counter, uint64, uint64]("integration.counter.Increment",
	func(c *counter, delta uint64) (uint64, error) {
		c.total += delta
		return c.total, nil
	})

func encodeU64(v uint64) ([]byte, error) {
	b := make([]byte, 8)
	binary.LittleEndian.PutUint64(b, v)
	return b, nil
}

func decodeU64(raw []byte) (uint64, error) {
	if len(raw) != 8 {
		return 0, fmt.Errorf("want 8 bytes, have %d", len(raw))
	}
	return binary.LittleEndian.Uint64(raw), nil
}

// newFixedPortListener binds 127.0.0.1:port so a testNode's
// placement.NodeDescriptor (which carries a concrete port, not an
// OS-assigned one) matches the socket its httptest.Server actually
// listens on.
func newFixedPortListener(port uint16) (net.Listener, error) {
	return net.Listen("tcp", fmt.Sprintf("127.0.0.1:%d", port))
}

// testNode bundles one node's worth of vactor wiring behind a real
// httptest.Server, the in-process equivalent of one exec'd node binary.
type testNode struct {
	srv        *httptest.Server
	sys        *actorref.System[counter, string]
	membership *cluster.Membership
	client     *rpcendpoint.Client
	addr       placement.NodeDescriptor
}

func newTestNode(t *testing.T, port uint16) *testNode {
	t.Helper()

	pool := engine.NewPool(2, 32)
	t.Cleanup(pool.Stop)

	ty := &actor.Type[counter, string]{Kind: actor.Singleton, Reentrant: true, New: func(key string) *counter { return &counter{key: key} }}
	sys := actorref.NewSystem(ty, pool)
	require.NoError(t, sys.Start(context.Background()))

	local := placement.NodeDescriptor{IPv4: [4]byte{127, 0, 0, 1}, Port: port}
	metrics := rpcendpoint.NewMetrics(nil)
	client := rpcendpoint.NewClient(metrics)
	membership := cluster.New(local, 2, cluster.NewHTTPTransport(nil), nil)
	sys.WithCluster(membership, client)

	keyCodec := rpcendpoint.KeyCodec[string]{Decode: func(b []byte) (string, error) { return string(b), nil }}
	require.NoError(t, rpcendpoint.RegisterHandler(sys, incHandler, keyCodec,
		rpcendpoint.HandlerCodec[uint64, uint64]{DecodeReq: decodeU64, EncodeRes: encodeU64}))

	mux := http.NewServeMux()
	mux.HandleFunc("/cluster/handshake", membership.HandshakeHandler())
	mux.HandleFunc(rpcendpoint.CallPath, rpcendpoint.NewServer(metrics, nil).Handler())

	listener, err := newFixedPortListener(port)
	require.NoError(t, err)
	srv := httptest.NewUnstartedServer(mux)
	srv.Listener = listener
	srv.Start()
	t.Cleanup(srv.Close)
	t.Cleanup(membership.Stop)

	return &testNode{srv: srv, sys: sys, membership: membership, client: client, addr: local}
}

// callRemote drives a Remote tell against target's activation from the
// perspective of caller, over the real HTTP listener target.srv is
// bound to.
func (n *testNode) callRemote(t *testing.T, target *testNode, key string, delta uint64) uint64 {
	t.Helper()
	rawArgs, err := encodeU64(delta)
	require.NoError(t, err)

	raw, err := n.client.CallRemote(context.Background(), target.addr, incHandler.ID, placement.KeyBytes(key), rawArgs)
	require.NoError(t, err)

	got, err := decodeU64(raw)
	require.NoError(t, err)
	return got
}

func TestClusterHandshakeFormsSharedRingView(t *testing.T) {
	a := newTestNode(t, 19101)
	b := newTestNode(t, 19102)
	c := newTestNode(t, 19103)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a.membership.Start(ctx)
	b.membership.Start(ctx)
	c.membership.Start(ctx)

	require.NoError(t, a.membership.Join(ctx, nil, 0))
	require.NoError(t, b.membership.Join(ctx, []placement.NodeDescriptor{a.addr}, 1))
	require.NoError(t, c.membership.Join(ctx, []placement.NodeDescriptor{b.addr}, 1))

	require.Eventually(t, func() bool {
		return a.membership.Ring().Size() == 3 &&
			b.membership.Ring().Size() == 3 &&
			c.membership.Ring().Size() == 3
	}, 2*time.Second, 10*time.Millisecond, "every node's ring should converge to {A, B, C}")
}

func TestRemoteTellCrossesRealSocket(t *testing.T) {
	a := newTestNode(t, 19111)
	b := newTestNode(t, 19112)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	a.membership.Start(ctx)
	b.membership.Start(ctx)
	require.NoError(t, a.membership.Join(ctx, nil, 0))
	require.NoError(t, b.membership.Join(ctx, []placement.NodeDescriptor{a.addr}, 1))

	total := a.callRemote(t, b, "shared-key", 7)
	require.Equal(t, uint64(7), total)

	total = a.callRemote(t, b, "shared-key", 3)
	require.Equal(t, uint64(10), total, "both calls must land on the same activation, not re-create it")
}
