package actorref

import (
	"context"
	"errors"
	"testing"

	"github.com/dreamware/vactor/actor"
	"github.com/dreamware/vactor/internal/engine"
	"github.com/dreamware/vactor/placement"

	"github.com/stretchr/testify/require"
)

type counter struct {
	key string
	n   int
}

var incHandler = actor.NewHandler[counter, int, int]("actorref_test.counter.Increment",
	func(a *counter, delta int) (int, error) {
		a.n += delta
		return a.n, nil
	})

var getKeyHandler = actor.NewHandler[counter, struct{}, string]("actorref_test.counter.GetKey",
	func(a *counter, _ struct{}) (string, error) {
		return a.key, nil
	})

func newSystem(t *testing.T, shardCount int, kind actor.Kind) (*System[counter, string], *engine.Pool) {
	t.Helper()
	pool := engine.NewPool(shardCount, 32)
	t.Cleanup(pool.Stop)

	ty := &actor.Type[counter, string]{
		Kind: kind,
		New:  func(key string) *counter { return &counter{key: key} },
	}
	sys := NewSystem(ty, pool)
	require.NoError(t, sys.Start(context.Background()))
	return sys, pool
}

// TestGetThenTellRoundTripsKey is the Go rendition of
// original_source/tests/actor_keys.cpp: whichever reference kind Get
// returns, tell(get_key) must answer with the exact key Get was called
// with.
func TestGetThenTellRoundTripsKey(t *testing.T) {
	sys, _ := newSystem(t, 4, actor.Singleton)
	ref := Get(sys, 0, "kindred-key")

	got, err := Tell(context.Background(), sys, ref, getKeyHandler, struct{}{}, nil).Get(context.Background())
	require.NoError(t, err)
	require.Equal(t, "kindred-key", got)
}

func TestGetSingletonSameKeySameShard(t *testing.T) {
	sys, _ := newSystem(t, 8, actor.Singleton)

	r1 := Get(sys, 0, "alice")
	r2 := Get(sys, 3, "alice")
	require.Equal(t, r1.ActivationID(), r2.ActivationID())
	require.Equal(t, r1.Shard(), r2.Shard())
}

func TestGetSingletonThenTellResolvesLocalOrCollocated(t *testing.T) {
	sys, _ := newSystem(t, 4, actor.Singleton)

	ref := Get(sys, 0, "bob")
	// Shard 0 is the caller: if placement lands there the ref is Local,
	// otherwise Collocated. Either way Tell must resolve successfully.
	require.Contains(t, []Kind{Local, Collocated}, ref.Kind())

	f := Tell(context.Background(), sys, ref, incHandler, 5, nil)
	v, err := f.Get(context.Background())
	require.NoError(t, err)
	require.Equal(t, 5, v)
}

func TestTellAccumulatesAcrossCalls(t *testing.T) {
	sys, _ := newSystem(t, 4, actor.Singleton)
	ref := Get(sys, 0, "carl")

	_, err := Tell(context.Background(), sys, ref, incHandler, 2, nil).Get(context.Background())
	require.NoError(t, err)
	v, err := Tell(context.Background(), sys, ref, incHandler, 3, nil).Get(context.Background())
	require.NoError(t, err)
	require.Equal(t, 5, v)
}

func TestGetLocalActorRoundRobinsWithinMaxActivations(t *testing.T) {
	pool := engine.NewPool(8, 32)
	defer pool.Stop()

	ty := &actor.Type[counter, string]{
		Kind:           actor.LocalKind,
		MaxActivations: 3,
		New:            func(string) *counter { return &counter{} },
	}
	sys := NewSystem(ty, pool)
	require.NoError(t, sys.Start(context.Background()))

	seen := make(map[int]bool)
	for i := 0; i < 30; i++ {
		ref := Get(sys, 0, "x")
		seen[ref.Shard()] = true
	}
	require.Len(t, seen, 3)
	for shard := range seen {
		require.Less(t, shard, 3)
	}
}

func TestClearDirectoryResetsActivationState(t *testing.T) {
	sys, _ := newSystem(t, 2, actor.Singleton)
	ref := Get(sys, 0, "dana")

	_, err := Tell(context.Background(), sys, ref, incHandler, 10, nil).Get(context.Background())
	require.NoError(t, err)

	require.NoError(t, sys.ClearDirectory(context.Background()))

	v, err := Tell(context.Background(), sys, ref, incHandler, 1, nil).Get(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, v)
}

type fakeResolver struct {
	node    placement.NodeDescriptor
	isLocal bool
}

func (f fakeResolver) NodeFor(uint64) (placement.NodeDescriptor, bool, bool) {
	return f.node, f.isLocal, true
}

type fakeCaller struct {
	rawResult []byte
	err       error
}

func (f fakeCaller) CallRemote(context.Context, placement.NodeDescriptor, actor.MessageID, []byte, []byte) ([]byte, error) {
	return f.rawResult, f.err
}

func TestTellRemoteRoutesThroughCaller(t *testing.T) {
	sys, _ := newSystem(t, 2, actor.Singleton)
	node := placement.NodeDescriptor{IPv4: [4]byte{10, 0, 0, 9}, Port: 7000}
	sys.WithCluster(fakeResolver{node: node, isLocal: false}, fakeCaller{rawResult: []byte("42")})

	ref := Get(sys, 0, "remote-key")
	require.Equal(t, Remote, ref.Kind())
	require.Equal(t, node, ref.Node())

	codec := &WireCodec[int, int]{
		EncodeReq: func(v int) ([]byte, error) { return []byte{byte(v)}, nil },
		DecodeRes: func(raw []byte) (int, error) { return len(raw), nil },
	}
	v, err := Tell(context.Background(), sys, ref, incHandler, 1, codec).Get(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, v)
}

func TestTellRemoteWithoutCodecErrors(t *testing.T) {
	sys, _ := newSystem(t, 2, actor.Singleton)
	node := placement.NodeDescriptor{IPv4: [4]byte{10, 0, 0, 9}, Port: 7000}
	sys.WithCluster(fakeResolver{node: node, isLocal: false}, fakeCaller{})

	ref := Get(sys, 0, "remote-key-2")
	_, err := Tell(context.Background(), sys, ref, incHandler, 1, nil).Get(context.Background())
	require.Error(t, err)
}

func TestTellBatchInvokesHandlerOncePerElement(t *testing.T) {
	sys, _ := newSystem(t, 4, actor.Singleton)
	ref := Get(sys, 0, "batch-key")

	results, err := TellBatch(context.Background(), sys, ref, incHandler, []int{1, 2, 3}, nil).Get(context.Background())
	require.NoError(t, err)
	require.Equal(t, []int{1, 3, 6}, results)
}

func TestDispatchInboundBatchMatchesTellBatch(t *testing.T) {
	sys, _ := newSystem(t, 4, actor.Singleton)
	ref := Get(sys, 0, "inbound-batch-key")

	results, err := DispatchInboundBatch(context.Background(), sys, ref.ActivationID(), ref.Key(), incHandler, []int{5, 5}).Get(context.Background())
	require.NoError(t, err)
	require.Equal(t, []int{5, 10}, results)
}

func TestTellRemoteCallerErrorPropagates(t *testing.T) {
	sys, _ := newSystem(t, 2, actor.Singleton)
	node := placement.NodeDescriptor{IPv4: [4]byte{10, 0, 0, 9}, Port: 7000}
	sentinel := errors.New("connection refused")
	sys.WithCluster(fakeResolver{node: node, isLocal: false}, fakeCaller{err: sentinel})

	ref := Get(sys, 0, "remote-key-3")
	codec := &WireCodec[int, int]{
		EncodeReq: func(v int) ([]byte, error) { return []byte{byte(v)}, nil },
		DecodeRes: func(raw []byte) (int, error) { return len(raw), nil },
	}
	_, err := Tell(context.Background(), sys, ref, incHandler, 1, codec).Get(context.Background())
	require.ErrorIs(t, err, sentinel)
}
