package repository

import (
	"context"
	"fmt"

	"github.com/Domenick1991/airinventory/internal/domain"
	"github.com/jackc/pgx/v5/pgxpool"
)

const luggageColumns = `id, ticket_id, weight_grams, fee_cents, status, created_at, updated_at`

type PGLuggageRepository struct {
	db *pgxpool.Pool
}

func NewLuggageRepository(db *pgxpool.Pool) LuggageRepository {
	return &PGLuggageRepository{db: db}
}

func scanLuggage(row scanner) (domain.Luggage, error) {
	var l domain.Luggage
	err := row.Scan(&l.ID, &l.TicketID, &l.WeightGrams, &l.FeeCents, &l.Status, &l.CreatedAt, &l.UpdatedAt)
	return l, err
}

func (r *PGLuggageRepository) Create(ctx context.Context, luggage *domain.Luggage) error {
	return r.db.QueryRow(ctx, `INSERT INTO luggage (id, ticket_id, weight_grams, fee_cents, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at, updated_at`,
		luggage.ID, luggage.TicketID, luggage.WeightGrams, luggage.FeeCents, luggage.Status).
		Scan(&luggage.CreatedAt, &luggage.UpdatedAt)
}

func (r *PGLuggageRepository) GetByID(ctx context.Context, id string) (*domain.Luggage, error) {
	l, err := scanLuggage(r.db.QueryRow(ctx, `SELECT `+luggageColumns+` FROM luggage WHERE id = $1`, id))
	if isNoRows(err) {
		return nil, fmt.Errorf("luggage %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func (r *PGLuggageRepository) ListByTicket(ctx context.Context, ticketID string) ([]domain.Luggage, error) {
	rows, err := r.db.Query(ctx, `SELECT `+luggageColumns+` FROM luggage WHERE ticket_id = $1 ORDER BY created_at`, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]domain.Luggage, 0)
	for rows.Next() {
		l, err := scanLuggage(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, l)
	}
	return items, rows.Err()
}

func (r *PGLuggageRepository) Advance(ctx context.Context, id string, from, to domain.LuggageStatus) (*domain.Luggage, error) {
	if !domain.CanAdvance(from, to) {
		return nil, fmt.Errorf("luggage %s -> %s: %w", from, to, domain.ErrInvalidStateTransition)
	}
	l, err := scanLuggage(r.db.QueryRow(ctx, `UPDATE luggage SET status = $3, updated_at = now()
		WHERE id = $1 AND status = $2
		RETURNING `+luggageColumns, id, from, to))
	if isNoRows(err) {
		current, getErr := r.GetByID(ctx, id)
		if getErr != nil {
			return nil, getErr
		}
		return nil, fmt.Errorf("luggage %s is %s: %w", id, current.Status, domain.ErrInvalidStateTransition)
	}
	if err != nil {
		return nil, err
	}
	return &l, nil
}

var _ LuggageRepository = (*PGLuggageRepository)(nil)
