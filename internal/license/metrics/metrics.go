package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics covers license issuance and the expiry sweep.
type Metrics struct {
	LicensesIssued      *prometheus.CounterVec
	LicensesExpired     prometheus.Counter
	NumberCollisions    prometheus.Counter
	GenerationExhausted prometheus.Counter
	IssueDuration       prometheus.Histogram
}

func New() *Metrics {
	return &Metrics{
		LicensesIssued: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "dlms_licenses_issued_total",
			Help: "Licenses issued by procedure type and class",
		}, []string{"procedure_type", "class"}),
		LicensesExpired: promauto.NewCounter(prometheus.CounterOpts{
			Name: "dlms_licenses_expired_total",
			Help: "Licenses flipped to expired by the sweep",
		}),
		NumberCollisions: promauto.NewCounter(prometheus.CounterOpts{
			Name: "dlms_license_number_collisions_total",
			Help: "Generated license numbers that were already taken",
		}),
		GenerationExhausted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "dlms_license_number_exhausted_total",
			Help: "Issuances aborted because no free license number was found",
		}),
		IssueDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "dlms_license_issue_duration_seconds",
			Help:    "Duration of license issuance inside the procedure unit of work",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
	}
}

func (m *Metrics) IncrementIssued(procedureType, class string) {
	m.LicensesIssued.WithLabelValues(procedureType, class).Inc()
}

func (m *Metrics) AddExpired(n int) {
	m.LicensesExpired.Add(float64(n))
}

func (m *Metrics) IncrementCollision() {
	m.NumberCollisions.Inc()
}

func (m *Metrics) IncrementExhausted() {
	m.GenerationExhausted.Inc()
}

// ObserveIssue records the duration of an Issue call started at start.
func (m *Metrics) ObserveIssue(start time.Time) {
	m.IssueDuration.Observe(time.Since(start).Seconds())
}
