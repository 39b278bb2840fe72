package repository

import (
	"context"
	"time"

	"github.com/Domenick1991/airinventory/internal/domain"
)

// FlightRepository owns flights, their seat counters and seat tokens. The seat
// methods are the ledger's store and must not be called from anywhere else.
type FlightRepository interface {
	GetFlight(ctx context.Context, flightID string) (*domain.Flight, error)
	GetSummary(ctx context.Context, flightID string) (*domain.FlightSummary, error)
	ListSummaries(ctx context.Context) ([]domain.FlightSummary, error)

	ReserveSeat(ctx context.Context, token domain.SeatToken) (int, error)
	ReleaseSeat(ctx context.Context, flightID, tokenID string) (int, error)
	// Snapshot reads the counter, outstanding tokens and active bookings of a flight
	// as of one instant.
	Snapshot(ctx context.Context, flightID string) (domain.SeatAccount, error)
	ListOutstandingTokens(ctx context.Context, createdBefore time.Time, limit int) ([]domain.SeatToken, error)
	SetQuarantine(ctx context.Context, flightID, reason string) error
}

type BookingRepository interface {
	// Create fails with domain.ErrConflict when the idempotency key is taken.
	Create(ctx context.Context, booking *domain.Booking) error
	GetByID(ctx context.Context, id string) (*domain.Booking, error)
	GetByIdempotencyKey(ctx context.Context, key string) (*domain.Booking, error)
	// Transition is a compare-and-set on status. It fails with
	// domain.ErrInvalidStateTransition when the stored status is not from.
	Transition(ctx context.Context, id string, from, to domain.BookingStatus, reason string) (*domain.Booking, error)
	ListPendingBefore(ctx context.Context, createdBefore time.Time, limit int) ([]domain.Booking, error)
	ListByCustomer(ctx context.Context, customerID string) ([]domain.Booking, error)
	CountActive(ctx context.Context, flightID string) (int, error)
}

type TicketRepository interface {
	// Issue stores ticket on the lowest free seat of its flight below capacity and
	// fills in SeatIndex and SeatNumber. Seat choice, the booking status check and the
	// insert are one atomic step: it fails with domain.ErrInvalidBookingState unless
	// the booking is CONFIRMED, with domain.ErrAlreadyIssued when the booking already
	// has an issued ticket and with domain.ErrSeatPoolExhausted when no seat is free.
	Issue(ctx context.Context, ticket *domain.Ticket, capacity int) error
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	GetIssuedByBooking(ctx context.Context, bookingID string) (*domain.Ticket, error)
	GetLatestByBooking(ctx context.Context, bookingID string) (*domain.Ticket, error)
	// Void reports whether the ticket changed; voiding a voided ticket is a no-op.
	Void(ctx context.Context, id string, at time.Time) (*domain.Ticket, bool, error)
}

type PaymentRepository interface {
	// Create fails with domain.ErrConflict on a taken idempotency key or when the
	// booking already has a non-failed transaction.
	Create(ctx context.Context, payment *domain.PaymentTransaction) error
	GetByID(ctx context.Context, id string) (*domain.PaymentTransaction, error)
	GetByIdempotencyKey(ctx context.Context, key string) (*domain.PaymentTransaction, error)
	// SetOutcome moves a PENDING transaction to status, failing with
	// domain.ErrInvalidStateTransition otherwise.
	SetOutcome(ctx context.Context, id string, status domain.PaymentStatus) (*domain.PaymentTransaction, error)
}

type LuggageRepository interface {
	Create(ctx context.Context, luggage *domain.Luggage) error
	GetByID(ctx context.Context, id string) (*domain.Luggage, error)
	ListByTicket(ctx context.Context, ticketID string) ([]domain.Luggage, error)
	Advance(ctx context.Context, id string, from, to domain.LuggageStatus) (*domain.Luggage, error)
}
