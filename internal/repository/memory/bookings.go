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

type BookingStore struct {
	mu    sync.RWMutex
	byID  map[string]*domain.Booking
	byKey map[string]string
}

func NewBookingStore() *BookingStore {
	return &BookingStore{
		byID:  make(map[string]*domain.Booking),
		byKey: make(map[string]string),
	}
}

func (s *BookingStore) Create(ctx context.Context, booking *domain.Booking) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byKey[booking.IdempotencyKey]; ok {
		return fmt.Errorf("idempotency key %q: %w", booking.IdempotencyKey, domain.ErrConflict)
	}
	if _, ok := s.byID[booking.ID]; ok {
		return fmt.Errorf("booking %s: %w", booking.ID, domain.ErrConflict)
	}
	now := time.Now().UTC()
	if booking.CreatedAt.IsZero() {
		booking.CreatedAt = now
	}
	booking.UpdatedAt = now
	b := *booking
	s.byID[b.ID] = &b
	s.byKey[b.IdempotencyKey] = b.ID
	return nil
}

func (s *BookingStore) GetByID(ctx context.Context, id string) (*domain.Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.byID[id]
	if !ok {
		return nil, fmt.Errorf("booking %s: %w", id, domain.ErrNotFound)
	}
	out := *b
	return &out, nil
}

func (s *BookingStore) GetByIdempotencyKey(ctx context.Context, key string) (*domain.Booking, error) {
	s.mu.RLock()
	id, ok := s.byKey[key]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("booking with key %q: %w", key, domain.ErrNotFound)
	}
	return s.GetByID(ctx, id)
}

func (s *BookingStore) Transition(ctx context.Context, id string, from, to domain.BookingStatus, reason string) (*domain.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.byID[id]
	if !ok {
		return nil, fmt.Errorf("booking %s: %w", id, domain.ErrNotFound)
	}
	if b.Status != from || !domain.CanTransition(from, to) {
		return nil, fmt.Errorf("booking %s is %s: %w", id, b.Status, domain.TransitionError(from, to))
	}
	b.Status = to
	if to == domain.BookingStatusCancelled {
		b.CancelReason = reason
	}
	b.UpdatedAt = time.Now().UTC()
	out := *b
	return &out, nil
}

func (s *BookingStore) ListPendingBefore(ctx context.Context, createdBefore time.Time, limit int) ([]domain.Booking, error) {
	return s.list(limit, func(b *domain.Booking) bool {
		return b.Status == domain.BookingStatusPending && b.CreatedAt.Before(createdBefore)
	}), nil
}

func (s *BookingStore) ListByCustomer(ctx context.Context, customerID string) ([]domain.Booking, error) {
	return s.list(0, func(b *domain.Booking) bool { return b.CustomerID == customerID }), nil
}

func (s *BookingStore) CountActive(ctx context.Context, flightID string) (int, error) {
	return len(s.list(0, func(b *domain.Booking) bool {
		return b.FlightID == flightID && b.Status.Active()
	})), nil
}

func (s *BookingStore) list(limit int, match func(*domain.Booking) bool) []domain.Booking {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Booking, 0)
	for _, b := range s.byID {
		if match(b) {
			out = append(out, *b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// Backdate shifts a booking's creation time; used to simulate an expired hold.
func (s *BookingStore) Backdate(id string, createdAt time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if b, ok := s.byID[id]; ok {
		b.CreatedAt = createdAt
	}
}

var _ repository.BookingRepository = (*BookingStore)(nil)
