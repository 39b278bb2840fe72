package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "airinventory"

// Metrics holds all prometheus collectors of the engine.
type Metrics struct {
	BookingsCreated      prometheus.Counter
	BookingsCancelled    *prometheus.CounterVec
	BookingsConfirmed    prometheus.Counter
	ReservationsRejected *prometheus.CounterVec
	Compensations        *prometheus.CounterVec
	PaymentOutcomes      *prometheus.CounterVec
	TicketsIssued        prometheus.Counter
	TicketsVoided        prometheus.Counter
	InvariantViolations  *prometheus.CounterVec
	OperationDuration    *prometheus.HistogramVec
}

// NewMetrics registers the collectors on reg. Pass prometheus.DefaultRegisterer in
// binaries and a fresh prometheus.NewRegistry() in tests.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		BookingsCreated: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bookings_created_total",
			Help:      "The total number of bookings created in PENDING state",
		}),
		BookingsCancelled: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bookings_cancelled_total",
			Help:      "The total number of bookings cancelled, by reason",
		}, []string{"reason"}),
		BookingsConfirmed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bookings_confirmed_total",
			Help:      "The total number of bookings confirmed",
		}),
		ReservationsRejected: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reservations_rejected_total",
			Help:      "The total number of seat reservations rejected, by reason",
		}, []string{"reason"}),
		Compensations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "compensations_total",
			Help:      "The total number of compensating seat releases, by result",
		}, []string{"result"}),
		PaymentOutcomes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payment_outcomes_total",
			Help:      "The total number of payment outcomes, by outcome and disposition",
		}, []string{"outcome", "disposition"}),
		TicketsIssued: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tickets_issued_total",
			Help:      "The total number of tickets issued",
		}),
		TicketsVoided: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tickets_voided_total",
			Help:      "The total number of tickets voided",
		}),
		InvariantViolations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "invariant_violations_total",
			Help:      "The total number of detected inventory invariant violations",
		}, []string{"kind"}),
		OperationDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "operation_duration_seconds",
			Help:      "Time taken by engine operations",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
	}
}
