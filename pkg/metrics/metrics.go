package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all application metrics
type Metrics struct {
	// Compliance metrics. AuditEventsLost is the operator alarm for audit
	// writes that failed after the primary effect was already committed.
	AuditEventsWritten *prometheus.CounterVec
	AuditEventsLost    *prometheus.CounterVec

	// Identifier allocation metrics
	PatientIDsAllocated prometheus.Counter
	PatientIDRetries    prometheus.Counter

	// Database metrics
	DatabaseOperations *prometheus.CounterVec
	DatabaseLatency    *prometheus.HistogramVec
}

// NewMetrics creates and registers all application metrics
func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		AuditEventsWritten: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "audit_events_written_total",
			Help:      "Total number of audit log entries durably written",
		}, []string{"action"}),
		AuditEventsLost: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "audit_events_lost_total",
			Help:      "Total number of audit log entries that could not be written",
		}, []string{"action"}),
		PatientIDsAllocated: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "patient_ids_allocated_total",
			Help:      "Total number of patient identifiers allocated",
		}),
		PatientIDRetries: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "patient_id_retry_attempts_total",
			Help:      "Total number of retried patient identifier insertions after a uniqueness collision",
		}),
		DatabaseOperations: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "database_operations_total",
			Help:      "Total number of database operations",
		}, []string{"operation", "status"}),
		DatabaseLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "database_operation_duration_seconds",
			Help:      "Duration of database operations",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		}, []string{"operation"}),
	}
}

// NewTestMetrics creates metrics on a private registry so tests can
// instantiate services without double-registration panics.
func NewTestMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Metrics{
		AuditEventsWritten: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "audit_events_written_total", Help: "test",
		}, []string{"action"}),
		AuditEventsLost: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "audit_events_lost_total", Help: "test",
		}, []string{"action"}),
		PatientIDsAllocated: factory.NewCounter(prometheus.CounterOpts{
			Name: "patient_ids_allocated_total", Help: "test",
		}),
		PatientIDRetries: factory.NewCounter(prometheus.CounterOpts{
			Name: "patient_id_retry_attempts_total", Help: "test",
		}),
		DatabaseOperations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "database_operations_total", Help: "test",
		}, []string{"operation", "status"}),
		DatabaseLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name: "database_operation_duration_seconds", Help: "test",
		}, []string{"operation"}),
	}
}
