// Package metrics exposes Prometheus counters for the pass store.
//
// A nil *Metrics is valid and records nothing, so stores built in tests or
// one-shot CLI commands need not register collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "presspass"

// Sources an operation can be served from.
const (
	SourcePrimary  = "primary"
	SourceFallback = "fallback"
)

// Metrics holds the store collectors.
type Metrics struct {
	ops       *prometheus.CounterVec
	failovers *prometheus.CounterVec
}

// New registers the store collectors on reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		ops: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "operations_total",
			Help:      "Store operations by operation, serving source and outcome.",
		}, []string{"op", "source", "outcome"}),
		failovers: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "failovers_total",
			Help:      "Primary store errors absorbed by falling back to the local store.",
		}, []string{"op"}),
	}
}

// ObserveOp counts one finished operation.
func (m *Metrics) ObserveOp(op, source, outcome string) {
	if m == nil {
		return
	}
	m.ops.WithLabelValues(op, source, outcome).Inc()
}

// ObserveFailover counts one absorbed primary failure.
func (m *Metrics) ObserveFailover(op string) {
	if m == nil {
		return
	}
	m.failovers.WithLabelValues(op).Inc()
}
