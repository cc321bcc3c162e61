package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics covers the procedure workflow.
type Metrics struct {
	ProceduresStarted   *prometheus.CounterVec
	ProceduresIssued    *prometheus.CounterVec
	GateRejections      *prometheus.CounterVec
	ProceduresCancelled prometheus.Counter
	StartRefusals       *prometheus.CounterVec
	OperationDuration   *prometheus.HistogramVec
}

func New() *Metrics {
	return &Metrics{
		ProceduresStarted: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "dlms_procedures_started_total",
			Help: "Procedures started by type",
		}, []string{"type"}),
		ProceduresIssued: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "dlms_procedures_issued_total",
			Help: "Procedures that ended with an issued license, by type",
		}, []string{"type"}),
		GateRejections: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "dlms_procedure_gate_rejections_total",
			Help: "Failed gate registrations by gate",
		}, []string{"gate"}),
		ProceduresCancelled: promauto.NewCounter(prometheus.CounterOpts{
			Name: "dlms_procedures_cancelled_total",
			Help: "Procedures cancelled before completion",
		}),
		StartRefusals: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "dlms_procedure_start_refusals_total",
			Help: "Refused procedure starts by error code",
		}, []string{"code"}),
		OperationDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "dlms_procedure_operation_duration_seconds",
			Help:    "Duration of procedure operations",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"operation"}),
	}
}

func (m *Metrics) IncrementStarted(typ string) {
	m.ProceduresStarted.WithLabelValues(typ).Inc()
}

func (m *Metrics) IncrementIssued(typ string) {
	m.ProceduresIssued.WithLabelValues(typ).Inc()
}

func (m *Metrics) IncrementRejection(gate string) {
	m.GateRejections.WithLabelValues(gate).Inc()
}

func (m *Metrics) IncrementCancelled() {
	m.ProceduresCancelled.Inc()
}

func (m *Metrics) IncrementStartRefusal(code string) {
	m.StartRefusals.WithLabelValues(code).Inc()
}

func (m *Metrics) ObserveOperation(operation string, start time.Time) {
	m.OperationDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}
