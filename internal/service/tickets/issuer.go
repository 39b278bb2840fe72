// Package tickets issues and voids tickets. Seat numbers are drawn from the flight's
// pool by the ticket store in one atomic step, lowest free index first.
package tickets

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Domenick1991/airinventory/internal/domain"
	"github.com/Domenick1991/airinventory/internal/repository"
	"github.com/Domenick1991/airinventory/pkg/logger"
	"github.com/Domenick1991/airinventory/pkg/metrics"
	"github.com/google/uuid"
)

type TicketUseCase interface {
	Issue(ctx context.Context, bookingID string) (*domain.Ticket, error)
	Void(ctx context.Context, ticketID string) (*domain.Ticket, error)
	VoidForBooking(ctx context.Context, bookingID string) error
	GetByBooking(ctx context.Context, bookingID string) (*domain.Ticket, error)
	Get(ctx context.Context, ticketID string) (*domain.Ticket, error)
}

type BookingReader interface {
	GetByID(ctx context.Context, id string) (*domain.Booking, error)
}

type FlightReader interface {
	GetFlight(ctx context.Context, flightID string) (*domain.Flight, error)
}

type Issuer struct {
	bookings BookingReader
	flights  FlightReader
	tickets  repository.TicketRepository
	log      logger.Logger
	metrics  *metrics.Metrics
	now      func() time.Time
}

func NewIssuer(
	bookings BookingReader,
	flights FlightReader,
	tickets repository.TicketRepository,
	log logger.Logger,
	m *metrics.Metrics,
) *Issuer {
	return &Issuer{
		bookings: bookings,
		flights:  flights,
		tickets:  tickets,
		log:      log.With("component", "ticket_issuer"),
		metrics:  m,
		now:      time.Now,
	}
}

// Issue creates the ticket of a CONFIRMED booking. When the booking already holds an
// issued ticket, that ticket is returned together with domain.ErrAlreadyIssued.
func (s *Issuer) Issue(ctx context.Context, bookingID string) (*domain.Ticket, error) {
	booking, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if existing, err := s.tickets.GetIssuedByBooking(ctx, bookingID); err == nil {
		return existing, fmt.Errorf("booking %s: %w", bookingID, domain.ErrAlreadyIssued)
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}
	if booking.Status != domain.BookingStatusConfirmed {
		return nil, fmt.Errorf("booking %s is %s: %w", bookingID, booking.Status, domain.ErrInvalidBookingState)
	}

	flight, err := s.flights.GetFlight(ctx, booking.FlightID)
	if err != nil {
		return nil, err
	}

	ticket := &domain.Ticket{
		ID:         uuid.NewString(),
		BookingID:  booking.ID,
		FlightID:   booking.FlightID,
		CustomerID: booking.CustomerID,
		Status:     domain.TicketStatusIssued,
		IssuedAt:   s.now().UTC(),
	}
	// The store re-checks the booking status atomically with the insert; a cancel that
	// lands after the check above is caught there.
	if err := s.tickets.Issue(ctx, ticket, flight.Capacity); err != nil {
		if errors.Is(err, domain.ErrAlreadyIssued) {
			existing, getErr := s.tickets.GetIssuedByBooking(ctx, bookingID)
			if getErr != nil {
				return nil, getErr
			}
			return existing, err
		}
		return nil, err
	}

	s.metrics.TicketsIssued.Inc()
	s.log.Info("ticket issued", "ticket_id", ticket.ID, "booking_id", booking.ID, "flight_id", booking.FlightID, "seat", ticket.SeatNumber)
	return ticket, nil
}

// Void is idempotent: voiding a voided ticket returns it unchanged.
func (s *Issuer) Void(ctx context.Context, ticketID string) (*domain.Ticket, error) {
	ticket, changed, err := s.tickets.Void(ctx, ticketID, s.now().UTC())
	if err != nil {
		return nil, err
	}
	if changed {
		s.metrics.TicketsVoided.Inc()
		s.log.Info("ticket voided", "ticket_id", ticket.ID, "booking_id", ticket.BookingID, "seat", ticket.SeatNumber)
	}
	return ticket, nil
}

// VoidForBooking voids the booking's issued ticket, if any.
func (s *Issuer) VoidForBooking(ctx context.Context, bookingID string) error {
	ticket, err := s.tickets.GetIssuedByBooking(ctx, bookingID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	_, err = s.Void(ctx, ticket.ID)
	return err
}

// GetByBooking returns the booking's most recent ticket, issued or voided.
func (s *Issuer) GetByBooking(ctx context.Context, bookingID string) (*domain.Ticket, error) {
	return s.tickets.GetLatestByBooking(ctx, bookingID)
}

func (s *Issuer) Get(ctx context.Context, ticketID string) (*domain.Ticket, error) {
	return s.tickets.GetByID(ctx, ticketID)
}

var _ TicketUseCase = (*Issuer)(nil)
