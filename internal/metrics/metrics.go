package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	inspectedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "msx_requests_inspected_total",
		Help: "Total number of requests evaluated by the inspection pipeline",
	})
	blockedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "msx_requests_blocked_total",
		Help: "Total number of requests blocked, by pipeline stage",
	}, []string{"stage"})
	semanticUnreachableTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "msx_semantic_unreachable_total",
		Help: "Total number of inspections where the semantic service was unreachable",
	})
)

// Register registers Prometheus collectors. Call once at startup.
func Register(registry *prometheus.Registry) {
	registry.MustRegister(inspectedTotal, blockedTotal, semanticUnreachableTotal)
}

// IncInspected increments the evaluated requests counter.
func IncInspected() { inspectedTotal.Inc() }

// IncBlocked increments the blocked counter for a pipeline stage.
func IncBlocked(stage string) { blockedTotal.WithLabelValues(stage).Inc() }

// IncSemanticUnreachable increments the unreachable-service counter.
func IncSemanticUnreachable() { semanticUnreachableTotal.Inc() }
