package events

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Delivery outcomes recorded by Metrics.
const (
	ResultPublished = "published"
	ResultFailed    = "failed"
	ResultDropped   = "dropped"
)

// Metrics records dispatcher outcomes. A nil *Metrics is a no-op.
type Metrics struct {
	events *prometheus.CounterVec
	depth  prometheus.Gauge
}

// NewMetrics registers the dispatcher collectors on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		return &Metrics{}
	}
	events := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "product_events_total",
		Help: "Product audit events by action and delivery result.",
	}, []string{"action", "result"})
	depth := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "product_events_queue_depth",
		Help: "Product audit events waiting for delivery.",
	})
	reg.MustRegister(events, depth)
	return &Metrics{events: events, depth: depth}
}

func (m *Metrics) inc(action, result string) {
	if m == nil || m.events == nil {
		return
	}
	if action == "" {
		action = "unknown"
	}
	m.events.WithLabelValues(action, result).Inc()
}

func (m *Metrics) setDepth(n int) {
	if m == nil || m.depth == nil {
		return
	}
	m.depth.Set(float64(n))
}
