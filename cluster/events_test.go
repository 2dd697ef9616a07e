package cluster

import (
	"errors"
	"testing"

	"github.com/dreamware/vactor/placement"

	"github.com/stretchr/testify/require"
)

func TestEventBusDeliversInOrder(t *testing.T) {
	b := newEventBus(nil)
	var got []EventKind

	b.Subscribe(func(ev Event) error {
		got = append(got, ev.Kind)
		return nil
	})
	b.Subscribe(func(ev Event) error {
		got = append(got, ev.Kind)
		return nil
	})

	b.Emit(Event{Kind: PeerUp, Node: placement.NodeDescriptor{Port: 1}})

	require.Equal(t, []EventKind{PeerUp, PeerUp}, got)
}

func TestEventBusSwallowsListenerError(t *testing.T) {
	b := newEventBus(nil)
	calledSecond := false

	b.Subscribe(func(Event) error { return errors.New("boom") })
	b.Subscribe(func(Event) error { calledSecond = true; return nil })

	require.NotPanics(t, func() {
		b.Emit(Event{Kind: PeerDown})
	})
	require.True(t, calledSecond)
}
