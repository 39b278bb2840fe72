package repository

import (
	"context"
	"fmt"

	"github.com/Domenick1991/airinventory/internal/domain"
	"github.com/jackc/pgx/v5/pgxpool"
)

const paymentColumns = `id, booking_id, method, amount_cents, status, idempotency_key, created_at, updated_at`

type PGPaymentRepository struct {
	db *pgxpool.Pool
}

func NewPaymentRepository(db *pgxpool.Pool) PaymentRepository {
	return &PGPaymentRepository{db: db}
}

func scanPayment(row scanner) (domain.PaymentTransaction, error) {
	var p domain.PaymentTransaction
	err := row.Scan(&p.ID, &p.BookingID, &p.Method, &p.AmountCents, &p.Status, &p.IdempotencyKey, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

func (r *PGPaymentRepository) Create(ctx context.Context, payment *domain.PaymentTransaction) error {
	err := r.db.QueryRow(ctx, `INSERT INTO payment_transactions (id, booking_id, method, amount_cents, status, idempotency_key)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at`,
		payment.ID, payment.BookingID, payment.Method, payment.AmountCents, payment.Status, payment.IdempotencyKey).
		Scan(&payment.CreatedAt, &payment.UpdatedAt)
	if constraint, dup := uniqueConstraint(err); dup {
		if constraint == "payment_transactions_booking_active_key" {
			return fmt.Errorf("booking %s already has an active transaction: %w", payment.BookingID, domain.ErrConflict)
		}
		return fmt.Errorf("idempotency key %q: %w", payment.IdempotencyKey, domain.ErrConflict)
	}
	return err
}

func (r *PGPaymentRepository) getOne(ctx context.Context, query string, arg any) (*domain.PaymentTransaction, error) {
	p, err := scanPayment(r.db.QueryRow(ctx, `SELECT `+paymentColumns+` FROM payment_transactions WHERE `+query, arg))
	if isNoRows(err) {
		return nil, fmt.Errorf("transaction %v: %w", arg, domain.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PGPaymentRepository) GetByID(ctx context.Context, id string) (*domain.PaymentTransaction, error) {
	return r.getOne(ctx, `id = $1`, id)
}

func (r *PGPaymentRepository) GetByIdempotencyKey(ctx context.Context, key string) (*domain.PaymentTransaction, error) {
	return r.getOne(ctx, `idempotency_key = $1`, key)
}

func (r *PGPaymentRepository) SetOutcome(ctx context.Context, id string, status domain.PaymentStatus) (*domain.PaymentTransaction, error) {
	p, err := scanPayment(r.db.QueryRow(ctx, `UPDATE payment_transactions SET status = $2, updated_at = now()
		WHERE id = $1 AND status = 'PENDING'
		RETURNING `+paymentColumns, id, status))
	if isNoRows(err) {
		current, getErr := r.GetByID(ctx, id)
		if getErr != nil {
			return nil, getErr
		}
		return nil, fmt.Errorf("transaction %s is %s: %w", id, current.Status, domain.ErrInvalidStateTransition)
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

var _ PaymentRepository = (*PGPaymentRepository)(nil)
