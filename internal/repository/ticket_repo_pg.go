package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/Domenick1991/airinventory/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const ticketColumns = `id, booking_id, flight_id, customer_id, seat_number, seat_index, status, issued_at, voided_at`

type PGTicketRepository struct {
	db *pgxpool.Pool
}

func NewTicketRepository(db *pgxpool.Pool) TicketRepository {
	return &PGTicketRepository{db: db}
}

func scanTicket(row scanner) (domain.Ticket, error) {
	var t domain.Ticket
	err := row.Scan(&t.ID, &t.BookingID, &t.FlightID, &t.CustomerID, &t.SeatNumber, &t.SeatIndex, &t.Status, &t.IssuedAt, &t.VoidedAt)
	return t, err
}

// Issue holds the flight row FOR UPDATE for the whole transaction, so issuers in any
// process draw seats from the pool one at a time. The booking row is held FOR SHARE,
// which blocks a concurrent cancel until the ticket is committed.
func (r *PGTicketRepository) Issue(ctx context.Context, ticket *domain.Ticket, capacity int) error {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var locked string
	err = tx.QueryRow(ctx, `SELECT id FROM flights WHERE id = $1 FOR UPDATE`, ticket.FlightID).Scan(&locked)
	if isNoRows(err) {
		return fmt.Errorf("flight %s: %w", ticket.FlightID, domain.ErrNotFound)
	}
	if err != nil {
		return err
	}

	var status domain.BookingStatus
	err = tx.QueryRow(ctx, `SELECT status FROM bookings WHERE id = $1 FOR SHARE`, ticket.BookingID).Scan(&status)
	if isNoRows(err) {
		return fmt.Errorf("booking %s: %w", ticket.BookingID, domain.ErrNotFound)
	}
	if err != nil {
		return err
	}
	if status != domain.BookingStatusConfirmed {
		return fmt.Errorf("booking %s is %s: %w", ticket.BookingID, status, domain.ErrInvalidBookingState)
	}

	taken, err := issuedSeatIndexes(ctx, tx, ticket.FlightID)
	if err != nil {
		return err
	}
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

	_, err = tx.Exec(ctx, `INSERT INTO tickets (id, booking_id, flight_id, customer_id, seat_number, seat_index, status, issued_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		ticket.ID, ticket.BookingID, ticket.FlightID, ticket.CustomerID, ticket.SeatNumber, ticket.SeatIndex, ticket.Status, ticket.IssuedAt)
	if constraint, dup := uniqueConstraint(err); dup {
		if constraint == "tickets_booking_issued_key" {
			return fmt.Errorf("booking %s: %w", ticket.BookingID, domain.ErrAlreadyIssued)
		}
		return fmt.Errorf("seat %s on flight %s: %w", ticket.SeatNumber, ticket.FlightID, domain.ErrConflict)
	}
	if err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func issuedSeatIndexes(ctx context.Context, tx pgx.Tx, flightID string) ([]int, error) {
	rows, err := tx.Query(ctx, `SELECT seat_index FROM tickets WHERE flight_id = $1 AND status = 'ISSUED' ORDER BY seat_index`, flightID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	indexes := make([]int, 0)
	for rows.Next() {
		var i int
		if err := rows.Scan(&i); err != nil {
			return nil, err
		}
		indexes = append(indexes, i)
	}
	return indexes, rows.Err()
}

func (r *PGTicketRepository) getOne(ctx context.Context, query string, arg any) (*domain.Ticket, error) {
	t, err := scanTicket(r.db.QueryRow(ctx, `SELECT `+ticketColumns+` FROM tickets WHERE `+query, arg))
	if isNoRows(err) {
		return nil, fmt.Errorf("ticket %v: %w", arg, domain.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *PGTicketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	return r.getOne(ctx, `id = $1`, id)
}

func (r *PGTicketRepository) GetIssuedByBooking(ctx context.Context, bookingID string) (*domain.Ticket, error) {
	return r.getOne(ctx, `booking_id = $1 AND status = 'ISSUED'`, bookingID)
}

func (r *PGTicketRepository) GetLatestByBooking(ctx context.Context, bookingID string) (*domain.Ticket, error) {
	return r.getOne(ctx, `booking_id = $1 ORDER BY issued_at DESC LIMIT 1`, bookingID)
}

func (r *PGTicketRepository) Void(ctx context.Context, id string, at time.Time) (*domain.Ticket, bool, error) {
	t, err := scanTicket(r.db.QueryRow(ctx, `UPDATE tickets SET status = 'VOIDED', voided_at = $2
		WHERE id = $1 AND status = 'ISSUED'
		RETURNING `+ticketColumns, id, at))
	if isNoRows(err) {
		current, getErr := r.GetByID(ctx, id)
		if getErr != nil {
			return nil, false, getErr
		}
		return current, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return &t, true, nil
}

var _ TicketRepository = (*PGTicketRepository)(nil)
