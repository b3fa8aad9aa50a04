package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the service collectors. A nil *Metrics is valid and records
// nothing.
type Metrics struct {
	bookingsCreated *prometheus.CounterVec
	slotConflicts   *prometheus.CounterVec
	cancellations   prometheus.Counter
	reconciliations *prometheus.CounterVec
	httpDuration    *prometheus.HistogramVec
}

func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		bookingsCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "lessons",
			Name:      "bookings_created_total",
			Help:      "Bookings persisted, by payment method.",
		}, []string{"payment_method"}),
		slotConflicts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "lessons",
			Name:      "slot_conflicts_total",
			Help:      "Booking attempts refused because the slot was not bookable.",
		}, []string{"stage"}),
		cancellations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "lessons",
			Name:      "bookings_cancelled_total",
			Help:      "Bookings cancelled by their owner.",
		}),
		reconciliations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "lessons",
			Name:      "payment_reconciliations_total",
			Help:      "Payment reconciliation outcomes.",
		}, []string{"outcome"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "lessons",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route and status.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}

	reg.MustRegister(
		m.bookingsCreated,
		m.slotConflicts,
		m.cancellations,
		m.reconciliations,
		m.httpDuration,
	)
	return m
}

func (m *Metrics) BookingCreated(method string) {
	if m == nil {
		return
	}
	m.bookingsCreated.WithLabelValues(method).Inc()
}

// SlotConflict stage is "guard", "insert" or "reconcile".
func (m *Metrics) SlotConflict(stage string) {
	if m == nil {
		return
	}
	m.slotConflicts.WithLabelValues(stage).Inc()
}

func (m *Metrics) BookingCancelled() {
	if m == nil {
		return
	}
	m.cancellations.Inc()
}

// Reconciled outcome is "confirmed", "processing" or "conflict".
func (m *Metrics) Reconciled(outcome string) {
	if m == nil {
		return
	}
	m.reconciliations.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveHTTP(method, route, status string, seconds float64) {
	if m == nil {
		return
	}
	m.httpDuration.WithLabelValues(method, route, status).Observe(seconds)
}
