// Package memory is an in-process implementation of the repositories. Each flight
// record carries its own mutex so seat operations on different flights never share a
// lock; it backs the test suites and single-process development runs.
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

type flightRecord struct {
	mu     sync.Mutex
	flight domain.Flight
	tokens map[string]*domain.SeatToken
}

type FlightStore struct {
	mu        sync.RWMutex
	flights   map[string]*flightRecord
	locations map[string]domain.Location
	aircraft  map[string]domain.Aircraft

	// bookings is counted under the flight record's lock by Snapshot. Lock order is
	// flight record then bookings.
	bookings *BookingStore
}

func NewFlightStore() *FlightStore {
	return &FlightStore{
		flights:   make(map[string]*flightRecord),
		locations: make(map[string]domain.Location),
		aircraft:  make(map[string]domain.Aircraft),
	}
}

func (s *FlightStore) AddLocation(loc domain.Location) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.locations[loc.ID] = loc
}

func (s *FlightStore) AddAircraft(ac domain.Aircraft) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.aircraft[ac.ID] = ac
}

// AddFlight schedules a flight with every seat available. Capacity comes from the
// aircraft when the flight does not set one.
func (s *FlightStore) AddFlight(f domain.Flight) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if f.Capacity == 0 {
		ac, ok := s.aircraft[f.AircraftID]
		if !ok {
			return fmt.Errorf("aircraft %s: %w", f.AircraftID, domain.ErrNotFound)
		}
		f.Capacity = ac.SeatCapacity
	}
	if f.Capacity <= 0 {
		return domain.ValidationError("flight %s capacity must be positive", f.ID)
	}
	f.AvailableSeats = f.Capacity
	now := time.Now().UTC()
	f.CreatedAt, f.UpdatedAt = now, now
	s.flights[f.ID] = &flightRecord{flight: f, tokens: make(map[string]*domain.SeatToken)}
	return nil
}

func (s *FlightStore) record(flightID string) (*flightRecord, error) {
	s.mu.RLock()
	rec, ok := s.flights[flightID]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("flight %s: %w", flightID, domain.ErrNotFound)
	}
	return rec, nil
}

func (s *FlightStore) records() []*flightRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*flightRecord, 0, len(s.flights))
	for _, rec := range s.flights {
		out = append(out, rec)
	}
	return out
}

func (s *FlightStore) GetFlight(ctx context.Context, flightID string) (*domain.Flight, error) {
	rec, err := s.record(flightID)
	if err != nil {
		return nil, err
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()
	f := rec.flight
	return &f, nil
}

func (s *FlightStore) GetSummary(ctx context.Context, flightID string) (*domain.FlightSummary, error) {
	f, err := s.GetFlight(ctx, flightID)
	if err != nil {
		return nil, err
	}
	summary := s.summarize(*f)
	return &summary, nil
}

func (s *FlightStore) ListSummaries(ctx context.Context) ([]domain.FlightSummary, error) {
	recs := s.records()
	out := make([]domain.FlightSummary, 0, len(recs))
	for _, rec := range recs {
		rec.mu.Lock()
		f := rec.flight
		rec.mu.Unlock()
		out = append(out, s.summarize(f))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DepartureTime.Before(out[j].DepartureTime) })
	return out, nil
}

func (s *FlightStore) summarize(f domain.Flight) domain.FlightSummary {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return domain.FlightSummary{
		Flight:    f,
		Departure: s.locations[f.DepartureLocation],
		Arrival:   s.locations[f.ArrivalLocation],
		Aircraft:  s.aircraft[f.AircraftID],
	}
}

func (s *FlightStore) ReserveSeat(ctx context.Context, token domain.SeatToken) (int, error) {
	rec, err := s.record(token.FlightID)
	if err != nil {
		return 0, err
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()

	if rec.flight.Quarantined() {
		return 0, domain.ErrFlightQuarantined
	}
	if rec.flight.AvailableSeats <= 0 {
		return 0, domain.ErrNoCapacity
	}
	if _, exists := rec.tokens[token.ID]; exists {
		return 0, fmt.Errorf("token %s: %w", token.ID, domain.ErrConflict)
	}
	rec.flight.AvailableSeats--
	rec.flight.UpdatedAt = time.Now().UTC()
	t := token
	rec.tokens[token.ID] = &t
	return rec.flight.AvailableSeats, nil
}

func (s *FlightStore) ReleaseSeat(ctx context.Context, flightID, tokenID string) (int, error) {
	rec, err := s.record(flightID)
	if err != nil {
		return 0, err
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()

	token, ok := rec.tokens[tokenID]
	if !ok {
		return 0, fmt.Errorf("token %s: %w", tokenID, domain.ErrNotFound)
	}
	if !token.Outstanding() {
		return rec.flight.AvailableSeats, domain.ErrTokenSpent
	}
	if rec.flight.AvailableSeats >= rec.flight.Capacity {
		return rec.flight.AvailableSeats, fmt.Errorf("flight %s already at capacity %d: %w", flightID, rec.flight.Capacity, domain.ErrInvariantViolation)
	}
	now := time.Now().UTC()
	token.ReleasedAt = &now
	rec.flight.AvailableSeats++
	rec.flight.UpdatedAt = now
	return rec.flight.AvailableSeats, nil
}

// Snapshot holds the record lock while counting bookings, so no seat can move between
// the reads. Bookings are created after their seat is reserved and cancelled before it
// is released, which keeps the active count consistent with the frozen tokens.
func (s *FlightStore) Snapshot(ctx context.Context, flightID string) (domain.SeatAccount, error) {
	rec, err := s.record(flightID)
	if err != nil {
		return domain.SeatAccount{}, err
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()

	account := domain.SeatAccount{Flight: rec.flight}
	for _, t := range rec.tokens {
		if t.Outstanding() {
			account.OutstandingTokens++
		}
	}
	if s.bookings != nil {
		if account.ActiveBookings, err = s.bookings.CountActive(ctx, flightID); err != nil {
			return domain.SeatAccount{}, err
		}
	}
	return account, nil
}

func (s *FlightStore) ListOutstandingTokens(ctx context.Context, createdBefore time.Time, limit int) ([]domain.SeatToken, error) {
	var out []domain.SeatToken
	for _, rec := range s.records() {
		rec.mu.Lock()
		for _, t := range rec.tokens {
			if t.Outstanding() && t.CreatedAt.Before(createdBefore) {
				out = append(out, *t)
			}
		}
		rec.mu.Unlock()
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *FlightStore) SetQuarantine(ctx context.Context, flightID, reason string) error {
	rec, err := s.record(flightID)
	if err != nil {
		return err
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()
	rec.flight.QuarantineReason = reason
	rec.flight.UpdatedAt = time.Now().UTC()
	return nil
}

// Corrupt overwrites a flight's available seat count. It exists for exercising the
// audit path and is never called by the engine.
func (s *FlightStore) Corrupt(flightID string, available int) error {
	rec, err := s.record(flightID)
	if err != nil {
		return err
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()
	rec.flight.AvailableSeats = available
	return nil
}

var _ repository.FlightRepository = (*FlightStore)(nil)
