// Package ledger is the inventory ledger: the only component allowed to change a
// flight's available seat count. Every reservation yields a single-use SeatToken and
// every release consumes one.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Domenick1991/airinventory/internal/domain"
	"github.com/Domenick1991/airinventory/internal/flightlock"
	"github.com/Domenick1991/airinventory/pkg/logger"
	"github.com/Domenick1991/airinventory/pkg/metrics"
	"github.com/google/uuid"
)

// Store persists seat counters and tokens. ReserveSeat and ReleaseSeat must each be
// atomic: the counter change and the token write commit together or not at all.
type Store interface {
	GetFlight(ctx context.Context, flightID string) (*domain.Flight, error)
	ReserveSeat(ctx context.Context, token domain.SeatToken) (remaining int, err error)
	ReleaseSeat(ctx context.Context, flightID, tokenID string) (remaining int, err error)
	// Snapshot must be consistent: no reservation, release or booking transition may
	// land between its reads.
	Snapshot(ctx context.Context, flightID string) (domain.SeatAccount, error)
	ListOutstandingTokens(ctx context.Context, createdBefore time.Time, limit int) ([]domain.SeatToken, error)
	SetQuarantine(ctx context.Context, flightID, reason string) error
}

type Ledger struct {
	store   Store
	locks   *flightlock.Locker
	log     logger.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

func New(store Store, locks *flightlock.Locker, log logger.Logger, m *metrics.Metrics) *Ledger {
	return &Ledger{
		store:   store,
		locks:   locks,
		log:     log.With("component", "ledger"),
		metrics: m,
		now:     time.Now,
	}
}

// Reserve takes one seat of the flight for bookingID. It never queues: a sold-out
// flight fails immediately with domain.ErrNoCapacity.
func (l *Ledger) Reserve(ctx context.Context, flightID, bookingID string) (domain.SeatToken, error) {
	unlock, err := l.locks.Lock(ctx, flightID)
	if err != nil {
		return domain.SeatToken{}, err
	}
	defer unlock()

	token := domain.SeatToken{
		ID:        uuid.NewString(),
		FlightID:  flightID,
		BookingID: bookingID,
		CreatedAt: l.now().UTC(),
	}
	remaining, err := l.store.ReserveSeat(ctx, token)
	if err != nil {
		l.metrics.ReservationsRejected.WithLabelValues(rejectReason(err)).Inc()
		return domain.SeatToken{}, fmt.Errorf("reserve seat on flight %s: %w", flightID, err)
	}

	l.log.Debug("seat reserved", "flight_id", flightID, "token_id", token.ID, "booking_id", bookingID, "remaining", remaining)
	return token, nil
}

// Release returns the seat held by tokenID. A token is single-use: a second release
// fails with domain.ErrTokenSpent and leaves the counter untouched.
func (l *Ledger) Release(ctx context.Context, flightID, tokenID string) error {
	unlock, err := l.locks.Lock(ctx, flightID)
	if err != nil {
		return err
	}
	defer unlock()

	remaining, err := l.store.ReleaseSeat(ctx, flightID, tokenID)
	if err != nil {
		if errors.Is(err, domain.ErrInvariantViolation) {
			l.quarantineLocked(ctx, flightID, "release would exceed capacity", "over_release")
		}
		return fmt.Errorf("release token %s on flight %s: %w", tokenID, flightID, err)
	}

	l.log.Debug("seat released", "flight_id", flightID, "token_id", tokenID, "remaining", remaining)
	return nil
}

// Availability reads the authoritative available seat count.
func (l *Ledger) Availability(ctx context.Context, flightID string) (int, error) {
	flight, err := l.store.GetFlight(ctx, flightID)
	if err != nil {
		return 0, err
	}
	return flight.AvailableSeats, nil
}

// OutstandingTokens lists unreleased tokens created before the cutoff.
func (l *Ledger) OutstandingTokens(ctx context.Context, createdBefore time.Time, limit int) ([]domain.SeatToken, error) {
	return l.store.ListOutstandingTokens(ctx, createdBefore, limit)
}

func rejectReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrNoCapacity):
		return "no_capacity"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrInvariantViolation):
		return "quarantined"
	default:
		return "error"
	}
}
