package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/Domenick1991/airinventory/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const flightColumns = `f.id, f.aircraft_id, f.departure_location, f.arrival_location, f.departure_time, f.arrival_time, f.capacity, f.available_seats, f.quarantine_reason, f.created_at, f.updated_at`

const summaryQuery = `SELECT ` + flightColumns + `,
	d.id, d.location_type, d.iata_code, d.name, d.country,
	a.id, a.location_type, a.iata_code, a.name, a.country,
	ac.id, ac.model, ac.manufacturer, ac.seat_capacity
FROM flights f
JOIN locations d ON d.id = f.departure_location
JOIN locations a ON a.id = f.arrival_location
JOIN aircraft ac ON ac.id = f.aircraft_id`

type PGFlightRepository struct {
	db *pgxpool.Pool
}

func NewFlightRepository(db *pgxpool.Pool) FlightRepository {
	return &PGFlightRepository{db: db}
}

func scanFlight(row scanner, f *domain.Flight, extra ...any) error {
	dest := []any{&f.ID, &f.AircraftID, &f.DepartureLocation, &f.ArrivalLocation, &f.DepartureTime, &f.ArrivalTime,
		&f.Capacity, &f.AvailableSeats, &f.QuarantineReason, &f.CreatedAt, &f.UpdatedAt}
	return row.Scan(append(dest, extra...)...)
}

func scanSummary(row scanner) (domain.FlightSummary, error) {
	var s domain.FlightSummary
	err := scanFlight(row, &s.Flight,
		&s.Departure.ID, &s.Departure.Type, &s.Departure.IATACode, &s.Departure.Name, &s.Departure.Country,
		&s.Arrival.ID, &s.Arrival.Type, &s.Arrival.IATACode, &s.Arrival.Name, &s.Arrival.Country,
		&s.Aircraft.ID, &s.Aircraft.Model, &s.Aircraft.Manufacturer, &s.Aircraft.SeatCapacity)
	return s, err
}

func (r *PGFlightRepository) GetFlight(ctx context.Context, flightID string) (*domain.Flight, error) {
	var f domain.Flight
	err := scanFlight(r.db.QueryRow(ctx, `SELECT `+flightColumns+` FROM flights f WHERE f.id = $1`, flightID), &f)
	if isNoRows(err) {
		return nil, fmt.Errorf("flight %s: %w", flightID, domain.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func (r *PGFlightRepository) GetSummary(ctx context.Context, flightID string) (*domain.FlightSummary, error) {
	s, err := scanSummary(r.db.QueryRow(ctx, summaryQuery+` WHERE f.id = $1`, flightID))
	if isNoRows(err) {
		return nil, fmt.Errorf("flight %s: %w", flightID, domain.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *PGFlightRepository) ListSummaries(ctx context.Context) ([]domain.FlightSummary, error) {
	rows, err := r.db.Query(ctx, summaryQuery+` ORDER BY f.departure_time`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	summaries := make([]domain.FlightSummary, 0)
	for rows.Next() {
		s, err := scanSummary(rows)
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, s)
	}
	return summaries, rows.Err()
}

// ReserveSeat decrements the counter and records the token in one transaction. The
// conditional UPDATE keeps available_seats from going negative even without the
// in-process flight lock.
func (r *PGFlightRepository) ReserveSeat(ctx context.Context, token domain.SeatToken) (int, error) {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)

	var available int
	err = tx.QueryRow(ctx, `UPDATE flights SET available_seats = available_seats - 1, updated_at = now()
		WHERE id = $1 AND available_seats > 0 AND quarantine_reason = ''
		RETURNING available_seats`, token.FlightID).Scan(&available)
	if isNoRows(err) {
		return 0, r.reserveRejection(ctx, tx, token.FlightID)
	}
	if err != nil {
		return 0, err
	}

	if _, err := tx.Exec(ctx, `INSERT INTO seat_tokens (id, flight_id, booking_id, created_at) VALUES ($1, $2, $3, $4)`,
		token.ID, token.FlightID, token.BookingID, token.CreatedAt); err != nil {
		if _, dup := uniqueConstraint(err); dup {
			return 0, fmt.Errorf("token %s: %w", token.ID, domain.ErrConflict)
		}
		return 0, err
	}
	return available, tx.Commit(ctx)
}

func (r *PGFlightRepository) reserveRejection(ctx context.Context, tx pgx.Tx, flightID string) error {
	var (
		available  int
		quarantine string
	)
	err := tx.QueryRow(ctx, `SELECT available_seats, quarantine_reason FROM flights WHERE id = $1`, flightID).Scan(&available, &quarantine)
	switch {
	case isNoRows(err):
		return fmt.Errorf("flight %s: %w", flightID, domain.ErrNotFound)
	case err != nil:
		return err
	case quarantine != "":
		return domain.ErrFlightQuarantined
	default:
		return domain.ErrNoCapacity
	}
}

func (r *PGFlightRepository) ReleaseSeat(ctx context.Context, flightID, tokenID string) (int, error) {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)

	var id string
	err = tx.QueryRow(ctx, `UPDATE seat_tokens SET released_at = now()
		WHERE id = $1 AND flight_id = $2 AND released_at IS NULL
		RETURNING id`, tokenID, flightID).Scan(&id)
	if isNoRows(err) {
		var releasedAt *time.Time
		err := tx.QueryRow(ctx, `SELECT released_at FROM seat_tokens WHERE id = $1 AND flight_id = $2`, tokenID, flightID).Scan(&releasedAt)
		if isNoRows(err) {
			return 0, fmt.Errorf("token %s: %w", tokenID, domain.ErrNotFound)
		}
		if err != nil {
			return 0, err
		}
		return 0, domain.ErrTokenSpent
	}
	if err != nil {
		return 0, err
	}

	var available int
	err = tx.QueryRow(ctx, `UPDATE flights SET available_seats = available_seats + 1, updated_at = now()
		WHERE id = $1 AND available_seats < capacity
		RETURNING available_seats`, flightID).Scan(&available)
	if isNoRows(err) {
		return 0, fmt.Errorf("flight %s already at capacity: %w", flightID, domain.ErrInvariantViolation)
	}
	if err != nil {
		return 0, err
	}
	return available, tx.Commit(ctx)
}

// Snapshot runs its reads in one REPEATABLE READ transaction, so a reservation or
// release committed by another process between them is either wholly visible or not
// at all.
func (r *PGFlightRepository) Snapshot(ctx context.Context, flightID string) (domain.SeatAccount, error) {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly})
	if err != nil {
		return domain.SeatAccount{}, err
	}
	defer tx.Rollback(ctx)

	var account domain.SeatAccount
	err = scanFlight(tx.QueryRow(ctx, `SELECT `+flightColumns+` FROM flights f WHERE f.id = $1`, flightID), &account.Flight)
	if isNoRows(err) {
		return domain.SeatAccount{}, fmt.Errorf("flight %s: %w", flightID, domain.ErrNotFound)
	}
	if err != nil {
		return domain.SeatAccount{}, err
	}
	err = tx.QueryRow(ctx, `SELECT
		(SELECT count(*) FROM seat_tokens WHERE flight_id = $1 AND released_at IS NULL),
		(SELECT count(*) FROM bookings WHERE flight_id = $1 AND status <> $2)`,
		flightID, domain.BookingStatusCancelled).Scan(&account.OutstandingTokens, &account.ActiveBookings)
	if err != nil {
		return domain.SeatAccount{}, err
	}
	return account, tx.Commit(ctx)
}

func (r *PGFlightRepository) ListOutstandingTokens(ctx context.Context, createdBefore time.Time, limit int) ([]domain.SeatToken, error) {
	rows, err := r.db.Query(ctx, `SELECT id, flight_id, booking_id, created_at, released_at FROM seat_tokens
		WHERE released_at IS NULL AND created_at < $1
		ORDER BY created_at
		LIMIT $2`, createdBefore, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tokens := make([]domain.SeatToken, 0)
	for rows.Next() {
		var t domain.SeatToken
		if err := rows.Scan(&t.ID, &t.FlightID, &t.BookingID, &t.CreatedAt, &t.ReleasedAt); err != nil {
			return nil, err
		}
		tokens = append(tokens, t)
	}
	return tokens, rows.Err()
}

func (r *PGFlightRepository) SetQuarantine(ctx context.Context, flightID, reason string) error {
	cmd, err := r.db.Exec(ctx, `UPDATE flights SET quarantine_reason = $2, updated_at = now() WHERE id = $1`, flightID, reason)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return fmt.Errorf("flight %s: %w", flightID, domain.ErrNotFound)
	}
	return nil
}

var _ FlightRepository = (*PGFlightRepository)(nil)
