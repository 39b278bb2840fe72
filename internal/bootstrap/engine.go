package bootstrap

import (
	"time"

	"github.com/Domenick1991/airinventory/config"
	"github.com/Domenick1991/airinventory/internal/flightlock"
	"github.com/Domenick1991/airinventory/internal/ledger"
	"github.com/Domenick1991/airinventory/internal/repository"
	"github.com/Domenick1991/airinventory/internal/repository/memory"
	"github.com/Domenick1991/airinventory/internal/service/booking"
	"github.com/Domenick1991/airinventory/internal/service/flights"
	"github.com/Domenick1991/airinventory/internal/service/luggage"
	"github.com/Domenick1991/airinventory/internal/service/payments"
	"github.com/Domenick1991/airinventory/internal/service/tickets"
	"github.com/Domenick1991/airinventory/pkg/logger"
	"github.com/Domenick1991/airinventory/pkg/metrics"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repositories is one storage backend for every table.
type Repositories struct {
	Flights  repository.FlightRepository
	Bookings repository.BookingRepository
	Tickets  repository.TicketRepository
	Payments repository.PaymentRepository
	Luggage  repository.LuggageRepository
}

func MemoryRepositories(seed bool) (Repositories, error) {
	stores := memory.New()
	if seed {
		if err := memory.Seed(stores.Flights); err != nil {
			return Repositories{}, err
		}
	}
	return Repositories{
		Flights:  stores.Flights,
		Bookings: stores.Bookings,
		Tickets:  stores.Tickets,
		Payments: stores.Payments,
		Luggage:  stores.Luggage,
	}, nil
}

func PostgresRepositories(pool *pgxpool.Pool) Repositories {
	return Repositories{
		Flights:  repository.NewFlightRepository(pool),
		Bookings: repository.NewBookingRepository(pool),
		Tickets:  repository.NewTicketRepository(pool),
		Payments: repository.NewPaymentRepository(pool),
		Luggage:  repository.NewLuggageRepository(pool),
	}
}

// Engine is the wired set of services sharing one per-flight lock table.
type Engine struct {
	Repos    Repositories
	Ledger   *ledger.Ledger
	Flights  *flights.FlightService
	Bookings *booking.BookingService
	Tickets  *tickets.Issuer
	Payments *payments.Reconciler
	Luggage  *luggage.LuggageService
}

// Deps are the optional infrastructure pieces. Leave a field nil to run without it.
type Deps struct {
	Cache    flights.FlightCache
	Producer booking.Producer
}

func NewEngine(cfg *config.Config, repos Repositories, deps Deps, log logger.Logger, m *metrics.Metrics) *Engine {
	locks := flightlock.New()
	l := ledger.New(repos.Flights, locks, log, m)
	issuer := tickets.NewIssuer(repos.Bookings, repos.Flights, repos.Tickets, log, m)

	opts := []booking.BookingServiceOption{
		booking.WithHoldTTL(cfg.Booking.HoldTTL()),
		booking.WithOrphanGrace(cfg.Worker.OrphanGrace()),
		booking.WithSweepBatch(cfg.Worker.SweepBatch),
		booking.WithCompensationRetry(50*time.Millisecond, 2*time.Second, cfg.Booking.CompensationTimeout()),
	}
	if deps.Producer != nil {
		opts = append(opts, booking.WithEvents(deps.Producer, cfg.Kafka.BookingEventsTopic))
	}
	bookings := booking.NewBookingService(repos.Bookings, l, issuer, log, m, opts...)

	return &Engine{
		Repos:    repos,
		Ledger:   l,
		Flights:  flights.NewFlightService(repos.Flights, deps.Cache, log),
		Bookings: bookings,
		Tickets:  issuer,
		Payments: payments.NewReconciler(repos.Payments, bookings, log, m),
		Luggage:  luggage.NewLuggageService(repos.Luggage, issuer, log),
	}
}

// Services exposes the engine to the transports.
func (e *Engine) Services() Services {
	return Services{
		Flights:  e.Flights,
		Bookings: e.Bookings,
		Tickets:  e.Tickets,
		Payments: e.Payments,
		Luggage:  e.Luggage,
		Auditor:  e.Ledger,
		Health:   map[string]HealthCheck{},
	}
}
