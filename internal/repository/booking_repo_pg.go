package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/Domenick1991/airinventory/internal/domain"
	"github.com/jackc/pgx/v5/pgxpool"
)

const bookingColumns = `id, customer_id, flight_id, status, agent_id, seat_token_id, idempotency_key, cancel_reason, created_at, updated_at`

type PGBookingRepository struct {
	db *pgxpool.Pool
}

func NewBookingRepository(db *pgxpool.Pool) BookingRepository {
	return &PGBookingRepository{db: db}
}

func scanBooking(row scanner) (domain.Booking, error) {
	var b domain.Booking
	err := row.Scan(&b.ID, &b.CustomerID, &b.FlightID, &b.Status, &b.AgentID, &b.SeatTokenID,
		&b.IdempotencyKey, &b.CancelReason, &b.CreatedAt, &b.UpdatedAt)
	return b, err
}

func (r *PGBookingRepository) Create(ctx context.Context, booking *domain.Booking) error {
	err := r.db.QueryRow(ctx, `INSERT INTO bookings (id, customer_id, flight_id, status, agent_id, seat_token_id, idempotency_key, cancel_reason)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at, updated_at`,
		booking.ID, booking.CustomerID, booking.FlightID, booking.Status, booking.AgentID, booking.SeatTokenID,
		booking.IdempotencyKey, booking.CancelReason).
		Scan(&booking.CreatedAt, &booking.UpdatedAt)
	if _, dup := uniqueConstraint(err); dup {
		return fmt.Errorf("booking %s: %w", booking.ID, domain.ErrConflict)
	}
	return err
}

func (r *PGBookingRepository) get(ctx context.Context, where string, arg any) (*domain.Booking, error) {
	b, err := scanBooking(r.db.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE `+where, arg))
	if isNoRows(err) {
		return nil, fmt.Errorf("booking %v: %w", arg, domain.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *PGBookingRepository) GetByID(ctx context.Context, id string) (*domain.Booking, error) {
	return r.get(ctx, `id = $1`, id)
}

func (r *PGBookingRepository) GetByIdempotencyKey(ctx context.Context, key string) (*domain.Booking, error) {
	return r.get(ctx, `idempotency_key = $1`, key)
}

func (r *PGBookingRepository) Transition(ctx context.Context, id string, from, to domain.BookingStatus, reason string) (*domain.Booking, error) {
	if !domain.CanTransition(from, to) {
		return nil, domain.TransitionError(from, to)
	}
	if to != domain.BookingStatusCancelled {
		reason = ""
	}
	b, err := scanBooking(r.db.QueryRow(ctx, `UPDATE bookings
		SET status = $3, cancel_reason = COALESCE(NULLIF($4, ''), cancel_reason), updated_at = now()
		WHERE id = $1 AND status = $2
		RETURNING `+bookingColumns, id, from, to, reason))
	if isNoRows(err) {
		current, getErr := r.GetByID(ctx, id)
		if getErr != nil {
			return nil, getErr
		}
		return nil, fmt.Errorf("booking %s is %s: %w", id, current.Status, domain.TransitionError(from, to))
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *PGBookingRepository) list(ctx context.Context, query string, args ...any) ([]domain.Booking, error) {
	rows, err := r.db.Query(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE `+query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	bookings := make([]domain.Booking, 0)
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, b)
	}
	return bookings, rows.Err()
}

func (r *PGBookingRepository) ListPendingBefore(ctx context.Context, createdBefore time.Time, limit int) ([]domain.Booking, error) {
	return r.list(ctx, `status = $1 AND created_at < $2 ORDER BY created_at LIMIT $3`,
		domain.BookingStatusPending, createdBefore, limit)
}

func (r *PGBookingRepository) ListByCustomer(ctx context.Context, customerID string) ([]domain.Booking, error) {
	return r.list(ctx, `customer_id = $1 ORDER BY created_at`, customerID)
}

func (r *PGBookingRepository) CountActive(ctx context.Context, flightID string) (int, error) {
	var n int
	err := r.db.QueryRow(ctx, `SELECT count(*) FROM bookings WHERE flight_id = $1 AND status <> $2`,
		flightID, domain.BookingStatusCancelled).Scan(&n)
	return n, err
}

var _ BookingRepository = (*PGBookingRepository)(nil)
