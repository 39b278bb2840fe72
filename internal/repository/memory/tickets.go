package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/Domenick1991/airinventory/internal/domain"
	"github.com/Domenick1991/airinventory/internal/repository"
)

type seatKey struct {
	flightID string
	index    int
}

type TicketStore struct {
	mu            sync.RWMutex
	byID          map[string]*domain.Ticket
	issuedSeats   map[seatKey]string
	issuedBooking map[string]string
	byBooking     map[string][]string

	// bookings, when set, is consulted under mu so a cancel cannot slip between the
	// status check and the insert. Lock order is tickets then bookings.
	bookings *BookingStore
}

func NewTicketStore() *TicketStore {
	return &TicketStore{
		byID:          make(map[string]*domain.Ticket),
		issuedSeats:   make(map[seatKey]string),
		issuedBooking: make(map[string]string),
		byBooking:     make(map[string][]string),
	}
}

func (s *TicketStore) Issue(ctx context.Context, ticket *domain.Ticket, capacity int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.bookings != nil {
		booking, err := s.bookings.GetByID(ctx, ticket.BookingID)
		if err != nil {
			return err
		}
		if booking.Status != domain.BookingStatusConfirmed {
			return fmt.Errorf("booking %s is %s: %w", ticket.BookingID, booking.Status, domain.ErrInvalidBookingState)
		}
	}
	if _, issued := s.issuedBooking[ticket.BookingID]; issued {
		return fmt.Errorf("booking %s: %w", ticket.BookingID, domain.ErrAlreadyIssued)
	}

	taken := make([]int, 0)
	for key := range s.issuedSeats {
		if key.flightID == ticket.FlightID {
			taken = append(taken, key.index)
		}
	}
	sort.Ints(taken)
	index, ok := domain.LowestFreeSeat(taken, capacity)
	if !ok {
		return fmt.Errorf("flight %s has %d issued tickets for %d seats: %w",
			ticket.FlightID, len(taken), capacity, domain.ErrSeatPoolExhausted)
	}
	ticket.SeatIndex = index
	ticket.SeatNumber = domain.SeatLabel(index)
	if ticket.IssuedAt.IsZero() {
		ticket.IssuedAt = time.Now().UTC()
	}

	t := *ticket
	s.byID[t.ID] = &t
	s.issuedSeats[seatKey{flightID: t.FlightID, index: t.SeatIndex}] = t.ID
	s.issuedBooking[t.BookingID] = t.ID
	s.byBooking[t.BookingID] = append(s.byBooking[t.BookingID], t.ID)
	return nil
}

func (s *TicketStore) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.byID[id]
	if !ok {
		return nil, fmt.Errorf("ticket %s: %w", id, domain.ErrNotFound)
	}
	out := *t
	return &out, nil
}

func (s *TicketStore) GetIssuedByBooking(ctx context.Context, bookingID string) (*domain.Ticket, error) {
	s.mu.RLock()
	id, ok := s.issuedBooking[bookingID]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("issued ticket for booking %s: %w", bookingID, domain.ErrNotFound)
	}
	return s.GetByID(ctx, id)
}

func (s *TicketStore) GetLatestByBooking(ctx context.Context, bookingID string) (*domain.Ticket, error) {
	s.mu.RLock()
	ids := s.byBooking[bookingID]
	s.mu.RUnlock()
	if len(ids) == 0 {
		return nil, fmt.Errorf("ticket for booking %s: %w", bookingID, domain.ErrNotFound)
	}
	return s.GetByID(ctx, ids[len(ids)-1])
}

func (s *TicketStore) Void(ctx context.Context, id string, at time.Time) (*domain.Ticket, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.byID[id]
	if !ok {
		return nil, false, fmt.Errorf("ticket %s: %w", id, domain.ErrNotFound)
	}
	if t.Status == domain.TicketStatusVoided {
		out := *t
		return &out, false, nil
	}
	t.Status = domain.TicketStatusVoided
	t.VoidedAt = &at
	delete(s.issuedSeats, seatKey{flightID: t.FlightID, index: t.SeatIndex})
	delete(s.issuedBooking, t.BookingID)
	out := *t
	return &out, true, nil
}

var _ repository.TicketRepository = (*TicketStore)(nil)
