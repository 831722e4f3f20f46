// Package metrics exposes the exchange's Prometheus instrumentation:
// inbound queue depth, messages processed, trades executed, rejects, and
// broadcast fan-out size.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Metrics bundles every collector the exchange core registers. Callers
// typically construct one with New and register it against a
// *prometheus.Registry (or the default one) exactly once per process.
type Metrics struct {
	QueueDepth        prometheus.Gauge
	MessagesProcessed *prometheus.CounterVec
	TradesExecuted    *prometheus.CounterVec
	Rejects           *prometheus.CounterVec
	BroadcastFanout   prometheus.Histogram
}

// New builds a Metrics bundle with the exchange's collectors, labeled with
// namespace "dsxe".
func New() *Metrics {
	return &Metrics{
		QueueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "dsxe",
			Subsystem: "engine",
			Name:      "queue_depth",
			Help:      "Current number of messages waiting in the matching engine's inbound queue.",
		}),
		MessagesProcessed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dsxe",
			Subsystem: "engine",
			Name:      "messages_processed_total",
			Help:      "Messages drained from the inbound queue, by message type.",
		}, []string{"type"}),
		TradesExecuted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dsxe",
			Subsystem: "engine",
			Name:      "trades_executed_total",
			Help:      "Trades executed, by ticker.",
		}, []string{"ticker"}),
		Rejects: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dsxe",
			Subsystem: "engine",
			Name:      "rejects_total",
			Help:      "Rejected messages, by reason.",
		}, []string{"reason"}),
		BroadcastFanout: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "dsxe",
			Subsystem: "fabric",
			Name:      "broadcast_fanout",
			Help:      "Number of subscribers a single broadcast was delivered to.",
			Buckets:   prometheus.LinearBuckets(0, 5, 10),
		}),
	}
}

// MustRegister registers every collector against reg, panicking on
// duplicate registration (a programmer error, not a runtime condition).
func (m *Metrics) MustRegister(reg *prometheus.Registry) {
	reg.MustRegister(m.QueueDepth, m.MessagesProcessed, m.TradesExecuted, m.Rejects, m.BroadcastFanout)
}
