package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics covers booking and the appointment lifecycle.
type Metrics struct {
	Bookings         *prometheus.CounterVec
	BookingConflicts *prometheus.CounterVec
	Transitions      *prometheus.CounterVec
	BookDuration     prometheus.Histogram
}

func New() *Metrics {
	return &Metrics{
		Bookings: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "dlms_appointments_booked_total",
			Help: "Appointments booked by type",
		}, []string{"type"}),
		BookingConflicts: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "dlms_appointment_booking_conflicts_total",
			Help: "Refused bookings by reason",
		}, []string{"reason"}),
		Transitions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "dlms_appointment_transitions_total",
			Help: "Appointment status transitions by target status",
		}, []string{"status"}),
		BookDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "dlms_appointment_book_duration_seconds",
			Help:    "Duration of booking including conflict checks",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
	}
}

func (m *Metrics) IncrementBooked(typ string) {
	m.Bookings.WithLabelValues(typ).Inc()
}

func (m *Metrics) IncrementConflict(reason string) {
	m.BookingConflicts.WithLabelValues(reason).Inc()
}

func (m *Metrics) IncrementTransition(status string) {
	m.Transitions.WithLabelValues(status).Inc()
}

func (m *Metrics) ObserveBook(start time.Time) {
	m.BookDuration.Observe(time.Since(start).Seconds())
}
