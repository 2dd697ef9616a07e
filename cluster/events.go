package cluster

import (
	"sync"

	"github.com/dreamware/vactor/placement"

	"go.uber.org/zap"
)

// EventKind distinguishes membership events an eventBus fans out.
type EventKind int

const (
	PeerUp EventKind = iota
	PeerDown
)

func (k EventKind) String() string {
	switch k {
	case PeerUp:
		return "peer_up"
	case PeerDown:
		return "peer_down"
	default:
		return "unknown"
	}
}

// Event is a single membership change, e.g. "node up", delivered through
// the observer primitive below.
type Event struct {
	Kind EventKind
	Node placement.NodeDescriptor
}

// Listener is called sequentially, in registration order, for every
// emitted Event. A listener must not block for long; it runs on the
// emitting goroutine.
type Listener func(Event) error

// eventBus is the generalization of
// internal/coordinator/health_monitor.go's single onUnhealthy callback
// into a listener list, per the Design Notes' guidance for the observer
// primitive: "listener errors are logged and swallowed (not propagated to
// the emitter)".
type eventBus struct {
	mu        sync.RWMutex
	listeners []Listener
	log       *zap.SugaredLogger
}

func newEventBus(log *zap.SugaredLogger) *eventBus {
	return &eventBus{log: log}
}

// Subscribe registers l to be called for every future Emit.
func (b *eventBus) Subscribe(l Listener) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.listeners = append(b.listeners, l)
}

// Emit calls every registered listener in order with ev. A listener
// error is logged and otherwise ignored; it never stops later listeners
// from running nor propagates to the caller.
func (b *eventBus) Emit(ev Event) {
	b.mu.RLock()
	listeners := make([]Listener, len(b.listeners))
	copy(listeners, b.listeners)
	b.mu.RUnlock()

	for _, l := range listeners {
		if err := l(ev); err != nil && b.log != nil {
			b.log.Warnw("cluster event listener failed", "kind", ev.Kind.String(), "error", err)
		}
	}
}
