// Package payments records payment attempts and applies gateway outcomes to bookings.
// Outcomes are applied at most once per transaction; repeats are discarded.
package payments

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Domenick1991/airinventory/internal/domain"
	"github.com/Domenick1991/airinventory/internal/repository"
	"github.com/Domenick1991/airinventory/pkg/logger"
	"github.com/Domenick1991/airinventory/pkg/metrics"
	"github.com/google/uuid"
)

type PaymentUseCase interface {
	RecordAttempt(ctx context.Context, input RecordAttemptInput) (*domain.PaymentTransaction, error)
	ReportOutcome(ctx context.Context, transactionID string, outcome domain.PaymentStatus) (*domain.PaymentTransaction, error)
	Get(ctx context.Context, transactionID string) (*domain.PaymentTransaction, error)
}

// BookingFlow is the booking state machine as seen by the reconciler.
type BookingFlow interface {
	GetBooking(ctx context.Context, bookingID string) (*domain.Booking, error)
	Confirm(ctx context.Context, bookingID string) (*domain.Booking, *domain.Ticket, error)
	FailPayment(ctx context.Context, bookingID string) (*domain.Booking, error)
}

type RecordAttemptInput struct {
	BookingID      string               `json:"booking_id"`
	Method         domain.PaymentMethod `json:"method"`
	AmountCents    int64                `json:"amount_cents"`
	IdempotencyKey string               `json:"idempotency_key"`
}

func (in RecordAttemptInput) validate() error {
	switch {
	case strings.TrimSpace(in.BookingID) == "":
		return domain.ValidationError("booking_id is required")
	case !in.Method.Valid():
		return domain.ValidationError("unsupported payment method %q", in.Method)
	case in.AmountCents <= 0:
		return domain.ValidationError("amount_cents must be positive")
	case strings.TrimSpace(in.IdempotencyKey) == "":
		return domain.ValidationError("idempotency key is required")
	}
	return nil
}

type Reconciler struct {
	payments repository.PaymentRepository
	bookings BookingFlow
	log      logger.Logger
	metrics  *metrics.Metrics
}

func NewReconciler(payments repository.PaymentRepository, bookings BookingFlow, log logger.Logger, m *metrics.Metrics) *Reconciler {
	return &Reconciler{
		payments: payments,
		bookings: bookings,
		log:      log.With("component", "payment_reconciler"),
		metrics:  m,
	}
}

// RecordAttempt opens a PENDING transaction for a PENDING booking. A repeated
// idempotency key returns the original transaction. Paying for a booking already
// lost to a failed payment fails with domain.ErrPaymentFailure.
func (r *Reconciler) RecordAttempt(ctx context.Context, input RecordAttemptInput) (*domain.PaymentTransaction, error) {
	defer r.observe("record_payment")()

	if err := input.validate(); err != nil {
		return nil, err
	}
	if existing, err := r.payments.GetByIdempotencyKey(ctx, input.IdempotencyKey); err == nil {
		return replay(existing, input)
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	booking, err := r.bookings.GetBooking(ctx, input.BookingID)
	if err != nil {
		return nil, err
	}
	if booking.Status == domain.BookingStatusCancelled && booking.CancelReason == domain.CancelReasonPaymentFailed {
		return nil, fmt.Errorf("booking %s was cancelled after a failed payment: %w", booking.ID, domain.ErrPaymentFailure)
	}
	if booking.Status != domain.BookingStatusPending {
		return nil, fmt.Errorf("booking %s is %s: %w", booking.ID, booking.Status, domain.ErrInvalidBookingState)
	}

	payment := &domain.PaymentTransaction{
		ID:             uuid.NewString(),
		BookingID:      input.BookingID,
		Method:         input.Method,
		AmountCents:    input.AmountCents,
		Status:         domain.PaymentStatusPending,
		IdempotencyKey: input.IdempotencyKey,
	}
	if err := r.payments.Create(ctx, payment); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			if existing, getErr := r.payments.GetByIdempotencyKey(ctx, input.IdempotencyKey); getErr == nil {
				return replay(existing, input)
			}
		}
		return nil, err
	}

	r.log.Info("payment attempt recorded", "transaction_id", payment.ID, "booking_id", payment.BookingID, "method", payment.Method)
	return payment, nil
}

func replay(existing *domain.PaymentTransaction, input RecordAttemptInput) (*domain.PaymentTransaction, error) {
	if existing.BookingID != input.BookingID {
		return nil, fmt.Errorf("idempotency key %q already used for booking %s: %w", input.IdempotencyKey, existing.BookingID, domain.ErrConflict)
	}
	return existing, nil
}

// ReportOutcome applies a gateway outcome. Only the first outcome of a transaction
// reaches the booking; duplicates and late outcomes return the stored record.
func (r *Reconciler) ReportOutcome(ctx context.Context, transactionID string, outcome domain.PaymentStatus) (*domain.PaymentTransaction, error) {
	defer r.observe("report_payment_outcome")()

	if !outcome.Outcome() {
		return nil, domain.ValidationError("outcome must be COMPLETED or FAILED, got %q", outcome)
	}

	payment, err := r.payments.SetOutcome(ctx, transactionID, outcome)
	if errors.Is(err, domain.ErrInvalidStateTransition) {
		stored, getErr := r.payments.GetByID(ctx, transactionID)
		if getErr != nil {
			return nil, getErr
		}
		if stored.Status == outcome && r.bookingPending(ctx, stored.BookingID) {
			// An earlier report stored the outcome but failed before the booking moved.
			r.log.Warn("resuming unfinished payment outcome", "transaction_id", transactionID, "booking_id", stored.BookingID)
			return stored, r.apply(ctx, stored)
		}
		r.record(outcome, "duplicate")
		r.log.Info("duplicate payment outcome discarded",
			"transaction_id", transactionID, "reported", outcome, "stored", stored.Status)
		return stored, nil
	}
	if err != nil {
		return nil, err
	}

	return payment, r.apply(ctx, payment)
}

func (r *Reconciler) apply(ctx context.Context, payment *domain.PaymentTransaction) error {
	if payment.Status == domain.PaymentStatusCompleted {
		return r.applyCompleted(ctx, payment)
	}
	return r.applyFailed(ctx, payment)
}

func (r *Reconciler) bookingPending(ctx context.Context, bookingID string) bool {
	b, err := r.bookings.GetBooking(ctx, bookingID)
	return err == nil && b.Status == domain.BookingStatusPending
}

func (r *Reconciler) applyCompleted(ctx context.Context, payment *domain.PaymentTransaction) error {
	_, ticket, err := r.bookings.Confirm(ctx, payment.BookingID)
	if errors.Is(err, domain.ErrInvalidStateTransition) {
		// The booking was cancelled or confirmed by someone else first.
		r.record(payment.Status, "booking_not_pending")
		r.log.Warn("payment completed for booking that is no longer pending",
			"transaction_id", payment.ID, "booking_id", payment.BookingID)
		return nil
	}
	if err != nil {
		r.record(payment.Status, "error")
		return fmt.Errorf("confirm booking %s: %w", payment.BookingID, err)
	}
	r.record(payment.Status, "applied")
	r.log.Info("payment completed, booking confirmed",
		"transaction_id", payment.ID, "booking_id", payment.BookingID, "ticket_id", ticket.ID)
	return nil
}

func (r *Reconciler) applyFailed(ctx context.Context, payment *domain.PaymentTransaction) error {
	booking, err := r.bookings.FailPayment(ctx, payment.BookingID)
	if err != nil {
		r.record(payment.Status, "error")
		return fmt.Errorf("cancel booking %s after failed payment: %w", payment.BookingID, err)
	}
	if booking.CancelReason != domain.CancelReasonPaymentFailed {
		r.record(payment.Status, "booking_not_pending")
		return nil
	}
	r.record(payment.Status, "applied")
	return nil
}

func (r *Reconciler) Get(ctx context.Context, transactionID string) (*domain.PaymentTransaction, error) {
	return r.payments.GetByID(ctx, transactionID)
}

func (r *Reconciler) record(outcome domain.PaymentStatus, disposition string) {
	r.metrics.PaymentOutcomes.WithLabelValues(string(outcome), disposition).Inc()
}

func (r *Reconciler) observe(operation string) func() {
	start := time.Now()
	return func() {
		r.metrics.OperationDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
	}
}

var _ PaymentUseCase = (*Reconciler)(nil)
