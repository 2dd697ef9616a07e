package rpcendpoint

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics records call volume, outcomes, and latency for both the server
// and client sides of the endpoint, the Prometheus counterpart of
// IvanBrykalov-shardcache/metrics/prom.Adapter, retargeted from cache
// hit/miss/eviction counters to RPC call/error/latency ones.
type Metrics struct {
	calls   *prometheus.CounterVec
	errors  *prometheus.CounterVec
	latency *prometheus.HistogramVec
}

// NewMetrics registers a Metrics set with reg (prometheus.DefaultRegisterer
// if nil), namespaced under "vactor"/"rpc".
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		calls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "vactor",
			Subsystem: "rpc",
			Name:      "calls_total",
			Help:      "RPC calls handled, by side and message id.",
		}, []string{"side", "message_id"}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "vactor",
			Subsystem: "rpc",
			Name:      "errors_total",
			Help:      "RPC calls that failed, by side and message id.",
		}, []string{"side", "message_id"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "vactor",
			Subsystem: "rpc",
			Name:      "latency_seconds",
			Help:      "RPC call latency in seconds, by side and message id.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"side", "message_id"}),
	}
	reg.MustRegister(m.calls, m.errors, m.latency)
	return m
}

func (m *Metrics) observe(side, messageID string, start time.Time, err error) {
	if m == nil {
		return
	}
	m.calls.WithLabelValues(side, messageID).Inc()
	m.latency.WithLabelValues(side, messageID).Observe(time.Since(start).Seconds())
	if err != nil {
		m.errors.WithLabelValues(side, messageID).Inc()
	}
}
