package cluster

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/dreamware/vactor/placement"

	"go.uber.org/zap"
)

// peerMaxFailures is the consecutive-failure threshold before a peer is
// considered unhealthy, matching
// internal/coordinator/health_monitor.go's maxFailures = 3.
const peerMaxFailures = 3

// PeerHealth mirrors
// internal/coordinator/health_monitor.go's NodeHealth, retargeted at a
// cluster peer instead of a storage node.
type PeerHealth struct {
	LastCheck        time.Time
	LastHealthy      time.Time
	ConsecutiveFails int
	Healthy          bool
}

// CheckFunc probes a peer's liveness, given its dial address
// ("ip:port"). The default implementation issues a GET /health, exactly
// like internal/coordinator/health_monitor.go's defaultHealthCheck.
type CheckFunc func(ctx context.Context, addr string) error

// HealthMonitor periodically probes every peer currently on the ring and
// emits PeerDown through the Membership's event bus once a peer's
// consecutive-failure count crosses peerMaxFailures — adapted
// near-verbatim from internal/coordinator/health_monitor.go, but sourcing
// its node list from a Membership's Ring instead of a ShardRegistry, and
// an eventBus instead of a single onUnhealthy callback.
type HealthMonitor struct {
	membership *Membership
	check      CheckFunc
	interval   time.Duration
	timeout    time.Duration
	log        *zap.SugaredLogger

	mu     sync.RWMutex
	health map[placement.NodeDescriptor]*PeerHealth

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewHealthMonitor returns a monitor that checks every peer in membership
// at the given interval, using a 2-second per-check timeout, matching the
// teacher's HealthMonitor defaults.
func NewHealthMonitor(membership *Membership, interval time.Duration, log *zap.SugaredLogger) *HealthMonitor {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	hm := &HealthMonitor{
		membership: membership,
		interval:   interval,
		timeout:    2 * time.Second,
		log:        log,
		health:     make(map[placement.NodeDescriptor]*PeerHealth),
	}
	hm.check = hm.defaultCheck
	return hm
}

// SetCheckFunction overrides the liveness probe, for tests.
func (h *HealthMonitor) SetCheckFunction(fn CheckFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.check = fn
}

// Start launches the periodic check loop.
func (h *HealthMonitor) Start(ctx context.Context) {
	h.ctx, h.cancel = context.WithCancel(ctx)
	h.wg.Add(1)
	go h.loop()
}

// Stop cancels the check loop and waits for it to exit, matching the
// teacher's HealthMonitor.Stop: cancel then wg.Wait.
func (h *HealthMonitor) Stop() {
	if h.cancel != nil {
		h.cancel()
	}
	h.wg.Wait()
}

func (h *HealthMonitor) loop() {
	defer h.wg.Done()
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	for {
		select {
		case <-h.ctx.Done():
			return
		case <-ticker.C:
			h.checkAll()
		}
	}
}

func (h *HealthMonitor) checkAll() {
	for _, node := range h.membership.Ring().Members() {
		if node == h.membership.local {
			continue
		}
		h.checkOne(node)
	}
}

func (h *HealthMonitor) checkOne(node placement.NodeDescriptor) {
	ctx, cancel := context.WithTimeout(h.ctx, h.timeout)
	defer cancel()

	h.mu.RLock()
	checkFn := h.check
	h.mu.RUnlock()

	err := checkFn(ctx, formatAddr(node))

	h.mu.Lock()
	ph, ok := h.health[node]
	if !ok {
		ph = &PeerHealth{Healthy: true}
		h.health[node] = ph
	}
	ph.LastCheck = time.Now()
	if err == nil {
		ph.ConsecutiveFails = 0
		ph.LastHealthy = ph.LastCheck
		ph.Healthy = true
		h.mu.Unlock()
		return
	}

	ph.ConsecutiveFails++
	wasHealthy := ph.Healthy
	if ph.ConsecutiveFails >= peerMaxFailures {
		ph.Healthy = false
	}
	becameUnhealthy := wasHealthy && !ph.Healthy
	h.mu.Unlock()

	if becameUnhealthy {
		h.log.Warnw("cluster: peer marked unhealthy", "peer", formatAddr(node), "fails", ph.ConsecutiveFails)
		h.membership.ring.Remove(node)
		h.membership.events.Emit(Event{Kind: PeerDown, Node: node})
	}
}

// IsHealthy reports whether node's last-known status is healthy. Unknown
// nodes are reported healthy, a conservative "no data yet" stance.
func (h *HealthMonitor) IsHealthy(node placement.NodeDescriptor) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	ph, ok := h.health[node]
	if !ok {
		return true
	}
	return ph.Healthy
}

func (h *HealthMonitor) defaultCheck(ctx context.Context, addr string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("http://%s/health", addr), http.NoBody)
	if err != nil {
		return err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("cluster: health check %s: http %d", addr, resp.StatusCode)
	}
	return nil
}
