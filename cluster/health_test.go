package cluster

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dreamware/vactor/placement"

	"github.com/stretchr/testify/require"
)

func newTestMembershipWithPeer(t *testing.T) (*Membership, placement.NodeDescriptor) {
	t.Helper()
	transport := newFakeTransport()
	local := node(1)
	peer := node(2)

	m := New(local, 4, transport, nil)
	peerM := New(peer, 4, transport, nil)
	transport.register(formatAddr(local), m)
	transport.register(formatAddr(peer), peerM)

	require.NoError(t, m.Join(context.Background(), []placement.NodeDescriptor{peer}, 1))
	return m, peer
}

func TestHealthMonitorMarksUnhealthyAfterThreshold(t *testing.T) {
	m, peer := newTestMembershipWithPeer(t)
	hm := NewHealthMonitor(m, time.Hour, nil)
	hm.Start(context.Background())
	defer hm.Stop()

	var calls atomic.Int32
	hm.SetCheckFunction(func(ctx context.Context, addr string) error {
		calls.Add(1)
		return errors.New("unreachable")
	})

	var events []Event
	m.Subscribe(func(ev Event) error {
		events = append(events, ev)
		return nil
	})

	for i := 0; i < peerMaxFailures-1; i++ {
		hm.checkAll()
		require.True(t, hm.IsHealthy(peer))
	}
	require.Empty(t, events)

	hm.checkAll()
	require.False(t, hm.IsHealthy(peer))
	require.Len(t, events, 1)
	require.Equal(t, PeerDown, events[0].Kind)
	require.Equal(t, peer, events[0].Node)

	require.Equal(t, 1, m.Ring().Size())
	require.NotContains(t, m.Ring().Members(), peer)
}

func TestHealthMonitorRecoversConsecutiveFailCount(t *testing.T) {
	m, peer := newTestMembershipWithPeer(t)
	hm := NewHealthMonitor(m, time.Hour, nil)
	hm.Start(context.Background())
	defer hm.Stop()

	fail := true
	hm.SetCheckFunction(func(ctx context.Context, addr string) error {
		if fail {
			return errors.New("unreachable")
		}
		return nil
	})

	hm.checkAll()
	hm.checkAll()
	require.True(t, hm.IsHealthy(peer))

	fail = false
	hm.checkAll()
	require.True(t, hm.IsHealthy(peer))

	fail = true
	for i := 0; i < peerMaxFailures; i++ {
		hm.checkAll()
	}
	require.False(t, hm.IsHealthy(peer))
}

func TestHealthMonitorIsHealthyUnknownNodeDefaultsTrue(t *testing.T) {
	m, _ := newTestMembershipWithPeer(t)
	hm := NewHealthMonitor(m, time.Hour, nil)

	require.True(t, hm.IsHealthy(node(99)))
}

func TestHealthMonitorStartStopRunsLoop(t *testing.T) {
	m, peer := newTestMembershipWithPeer(t)
	hm := NewHealthMonitor(m, 5*time.Millisecond, nil)

	var calls atomic.Int32
	hm.SetCheckFunction(func(ctx context.Context, addr string) error {
		calls.Add(1)
		return nil
	})

	hm.Start(context.Background())
	require.Eventually(t, func() bool {
		return calls.Load() > 0
	}, time.Second, 5*time.Millisecond)
	hm.Stop()

	require.True(t, hm.IsHealthy(peer))
}
