package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "eventmanager"

// Registry is the Prometheus registry served on /metrics.
var Registry = prometheus.NewRegistry()

func init() {
	Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
}

// Registration outcomes.
const (
	OutcomeRegistered       = "registered"
	OutcomeCapacityExceeded = "capacity_exceeded"
	OutcomeDuplicate        = "duplicate"
	OutcomeCancelled        = "cancelled"
	OutcomeError            = "error"
)

// RegistrationsTotal counts registration attempts by outcome.
var RegistrationsTotal = promauto.With(Registry).NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "registrations_total",
		Help:      "Registration and cancellation attempts by outcome",
	},
	[]string{"outcome"},
)

// ImageCacheLookups counts image cache lookups by result (hit, miss, error).
var ImageCacheLookups = promauto.With(Registry).NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "image_cache_lookups_total",
		Help:      "Image cache lookups by result",
	},
	[]string{"result"},
)

// WorkflowRollbacks counts rolled back workflows by operation.
var WorkflowRollbacks = promauto.With(Registry).NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "workflow_rollbacks_total",
		Help:      "Resource transaction workflows that ended in a rollback",
	},
	[]string{"operation"},
)
