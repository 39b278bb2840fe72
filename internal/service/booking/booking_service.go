package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Domenick1991/airinventory/internal/domain"
	"github.com/Domenick1991/airinventory/internal/kafka"
	"github.com/Domenick1991/airinventory/internal/repository"
	"github.com/Domenick1991/airinventory/pkg/logger"
	"github.com/Domenick1991/airinventory/pkg/metrics"
	"github.com/google/uuid"
)

type BookingUseCase interface {
	CreateBooking(ctx context.Context, input CreateBookingInput) (*domain.Booking, error)
	Confirm(ctx context.Context, bookingID string) (*domain.Booking, *domain.Ticket, error)
	CancelBooking(ctx context.Context, bookingID string) (*domain.Booking, error)
	FailPayment(ctx context.Context, bookingID string) (*domain.Booking, error)
	IssueTicket(ctx context.Context, bookingID string) (*domain.Ticket, error)
	GetBooking(ctx context.Context, bookingID string) (*domain.Booking, error)
	ListCustomerBookings(ctx context.Context, customerID string) ([]domain.Booking, error)
	ExpirePendingBookings(ctx context.Context) ([]domain.Booking, error)
	ReleaseOrphanTokens(ctx context.Context) (int, error)
}

// SeatLedger is the part of the inventory ledger the booking flow drives.
type SeatLedger interface {
	Reserve(ctx context.Context, flightID, bookingID string) (domain.SeatToken, error)
	Release(ctx context.Context, flightID, tokenID string) error
	Quarantine(ctx context.Context, flightID, reason, kind string) error
	OutstandingTokens(ctx context.Context, createdBefore time.Time, limit int) ([]domain.SeatToken, error)
}

type TicketIssuer interface {
	Issue(ctx context.Context, bookingID string) (*domain.Ticket, error)
	VoidForBooking(ctx context.Context, bookingID string) error
}

type Producer interface {
	Publish(ctx context.Context, topic, key string, value interface{}) error
}

type BookingService struct {
	bookings repository.BookingRepository
	ledger   SeatLedger
	tickets  TicketIssuer
	log      logger.Logger
	metrics  *metrics.Metrics

	producer     Producer
	bookingTopic string

	holdTTL         time.Duration
	orphanGrace     time.Duration
	sweepBatch      int
	retryInitial    time.Duration
	retryMax        time.Duration
	compensationTTL time.Duration
	transitionTries int
	now             func() time.Time
}

type CreateBookingInput struct {
	CustomerID     string `json:"customer_id"`
	FlightID       string `json:"flight_id"`
	IdempotencyKey string `json:"idempotency_key"`
	AgentID        string `json:"agent_id,omitempty"`
}

func (in CreateBookingInput) validate() error {
	switch {
	case strings.TrimSpace(in.CustomerID) == "":
		return domain.ValidationError("customer_id is required")
	case strings.TrimSpace(in.FlightID) == "":
		return domain.ValidationError("flight_id is required")
	case strings.TrimSpace(in.IdempotencyKey) == "":
		return domain.ValidationError("idempotency key is required")
	}
	return nil
}

type BookingServiceOption func(*BookingService)

// WithEvents publishes every booking transition to topic.
func WithEvents(producer Producer, topic string) BookingServiceOption {
	return func(s *BookingService) {
		s.producer = producer
		s.bookingTopic = topic
	}
}

// WithHoldTTL sets how long a booking may stay PENDING before the reaper cancels it.
func WithHoldTTL(ttl time.Duration) BookingServiceOption {
	return func(s *BookingService) {
		s.holdTTL = ttl
	}
}

// WithOrphanGrace sets the minimum age of a seat token before the orphan sweep may
// release it. It must exceed the longest create saga.
func WithOrphanGrace(grace time.Duration) BookingServiceOption {
	return func(s *BookingService) {
		s.orphanGrace = grace
	}
}

// WithCompensationRetry configures the backoff of compensating seat releases and
// the total time one compensation may take.
func WithCompensationRetry(initial, max, total time.Duration) BookingServiceOption {
	return func(s *BookingService) {
		s.retryInitial = initial
		s.retryMax = max
		s.compensationTTL = total
	}
}

func WithSweepBatch(n int) BookingServiceOption {
	return func(s *BookingService) {
		s.sweepBatch = n
	}
}

func withClock(now func() time.Time) BookingServiceOption {
	return func(s *BookingService) {
		s.now = now
	}
}

func NewBookingService(
	bookings repository.BookingRepository,
	ledger SeatLedger,
	tickets TicketIssuer,
	log logger.Logger,
	m *metrics.Metrics,
	opts ...BookingServiceOption,
) *BookingService {
	service := &BookingService{
		bookings:        bookings,
		ledger:          ledger,
		tickets:         tickets,
		log:             log.With("component", "booking_service"),
		metrics:         m,
		holdTTL:         15 * time.Minute,
		orphanGrace:     5 * time.Minute,
		sweepBatch:      100,
		retryInitial:    50 * time.Millisecond,
		retryMax:        2 * time.Second,
		compensationTTL: 30 * time.Second,
		transitionTries: 3,
		now:             time.Now,
	}
	for _, opt := range opts {
		opt(service)
	}
	return service
}

// CreateBooking reserves a seat and persists a PENDING booking. A repeated
// idempotency key returns the original booking without touching the ledger. If the
// booking cannot be persisted the seat is released before the error is returned.
func (s *BookingService) CreateBooking(ctx context.Context, input CreateBookingInput) (*domain.Booking, error) {
	defer s.observe("create_booking")()

	if err := input.validate(); err != nil {
		return nil, err
	}
	if existing, err := s.bookings.GetByIdempotencyKey(ctx, input.IdempotencyKey); err == nil {
		return s.replay(existing, input)
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	bookingID := uuid.NewString()
	token, err := s.ledger.Reserve(ctx, input.FlightID, bookingID)
	if err != nil {
		return nil, err
	}

	booking := &domain.Booking{
		ID:             bookingID,
		CustomerID:     input.CustomerID,
		FlightID:       input.FlightID,
		Status:         domain.BookingStatusPending,
		AgentID:        input.AgentID,
		SeatTokenID:    token.ID,
		IdempotencyKey: input.IdempotencyKey,
		CreatedAt:      s.now().UTC(),
	}
	if err := s.bookings.Create(ctx, booking); err != nil {
		s.log.Warn("persisting booking failed, releasing seat",
			"booking_id", bookingID, "flight_id", input.FlightID, "token_id", token.ID, "error", err)
		if relErr := s.compensate(ctx, input.FlightID, token.ID, bookingID); relErr != nil {
			s.log.Error("seat release after failed create did not complete",
				"booking_id", bookingID, "flight_id", input.FlightID, "token_id", token.ID, "error", relErr)
		}
		if errors.Is(err, domain.ErrConflict) {
			// Lost an idempotency race: the winner's booking is the answer.
			if winner, getErr := s.bookings.GetByIdempotencyKey(ctx, input.IdempotencyKey); getErr == nil {
				return s.replay(winner, input)
			}
		}
		return nil, fmt.Errorf("persist booking: %w", err)
	}

	s.metrics.BookingsCreated.Inc()
	s.log.Info("booking created", "booking_id", booking.ID, "flight_id", booking.FlightID, "customer_id", booking.CustomerID)
	s.publish(ctx, kafka.EventBookingCreated, booking, nil)
	return booking, nil
}

func (s *BookingService) replay(existing *domain.Booking, input CreateBookingInput) (*domain.Booking, error) {
	if existing.CustomerID != input.CustomerID || existing.FlightID != input.FlightID {
		return nil, fmt.Errorf("idempotency key %q already used for another request: %w", input.IdempotencyKey, domain.ErrConflict)
	}
	return existing, nil
}

// Confirm moves a PENDING booking to CONFIRMED and issues its ticket. A confirmed
// booking without a ticket must not survive: if issuance fails the booking is
// cancelled, its seat released and the flight quarantined.
func (s *BookingService) Confirm(ctx context.Context, bookingID string) (*domain.Booking, *domain.Ticket, error) {
	defer s.observe("confirm_booking")()

	confirmed, err := s.bookings.Transition(ctx, bookingID, domain.BookingStatusPending, domain.BookingStatusConfirmed, "")
	if err != nil {
		return nil, nil, err
	}
	s.metrics.BookingsConfirmed.Inc()
	s.log.Info("booking confirmed", "booking_id", confirmed.ID, "flight_id", confirmed.FlightID)

	ticket, err := s.tickets.Issue(ctx, bookingID)
	if errors.Is(err, domain.ErrInvalidBookingState) {
		if current, getErr := s.bookings.GetByID(ctx, bookingID); getErr == nil && current.Status == domain.BookingStatusCancelled {
			// A cancel won the race; it voids and releases on its own.
			s.log.Warn("booking cancelled during confirmation", "booking_id", bookingID, "cancel_reason", current.CancelReason)
			return nil, nil, fmt.Errorf("booking %s cancelled during confirmation: %w",
				bookingID, domain.TransitionError(domain.BookingStatusCancelled, domain.BookingStatusConfirmed))
		}
	}
	if err != nil && !errors.Is(err, domain.ErrAlreadyIssued) {
		return nil, nil, s.rollbackConfirmation(ctx, confirmed, err)
	}

	s.publish(ctx, kafka.EventBookingConfirmed, confirmed, ticket)
	return confirmed, ticket, nil
}

func (s *BookingService) rollbackConfirmation(ctx context.Context, confirmed *domain.Booking, cause error) error {
	s.log.Error("ticket issuance failed for confirmed booking, rolling back",
		"booking_id", confirmed.ID, "flight_id", confirmed.FlightID, "error", cause, "invariant_violation", true)

	reason := fmt.Sprintf("ticket issuance failed for booking %s: %v", confirmed.ID, cause)
	if qErr := s.ledger.Quarantine(ctx, confirmed.FlightID, reason, "ticket_issue"); qErr != nil {
		s.log.Error("quarantine failed", "flight_id", confirmed.FlightID, "error", qErr, "invariant_violation", true)
	}

	cancelled, err := s.bookings.Transition(ctx, confirmed.ID, domain.BookingStatusConfirmed, domain.BookingStatusCancelled, domain.CancelReasonIssueFailure)
	if err != nil {
		s.log.Error("rollback of confirmed booking failed", "booking_id", confirmed.ID, "error", err, "invariant_violation", true)
		return fmt.Errorf("confirm booking %s: %w: %w", confirmed.ID, domain.ErrInvariantViolation, cause)
	}
	s.cancelled(ctx, cancelled)
	if err := s.compensate(ctx, cancelled.FlightID, cancelled.SeatTokenID, cancelled.ID); err != nil {
		s.log.Error("seat release after rollback did not complete", "booking_id", cancelled.ID, "error", err)
	}
	if errors.Is(cause, domain.ErrInvariantViolation) {
		return fmt.Errorf("confirm booking %s: %w", confirmed.ID, cause)
	}
	return fmt.Errorf("confirm booking %s: %w: %w", confirmed.ID, domain.ErrInvariantViolation, cause)
}

// CancelBooking is idempotent: an already cancelled booking is returned unchanged. A
// confirmed booking has its ticket voided before the seat goes back to the ledger.
func (s *BookingService) CancelBooking(ctx context.Context, bookingID string) (*domain.Booking, error) {
	defer s.observe("cancel_booking")()

	var lastErr error
	for attempt := 0; attempt < s.transitionTries; attempt++ {
		current, err := s.bookings.GetByID(ctx, bookingID)
		if err != nil {
			return nil, err
		}
		if current.Status == domain.BookingStatusCancelled {
			return current, nil
		}

		cancelled, err := s.bookings.Transition(ctx, bookingID, current.Status, domain.BookingStatusCancelled, domain.CancelReasonCustomer)
		if errors.Is(err, domain.ErrInvalidStateTransition) {
			// Someone else moved the booking first; re-read and decide again.
			lastErr = err
			continue
		}
		if err != nil {
			return nil, err
		}

		if err := s.finishCancel(ctx, cancelled, current.Status == domain.BookingStatusConfirmed); err != nil {
			return cancelled, err
		}
		return cancelled, nil
	}
	return nil, fmt.Errorf("cancel booking %s: %w", bookingID, lastErr)
}

// FailPayment cancels a PENDING booking after a failed payment. Bookings in any
// other state are left alone.
func (s *BookingService) FailPayment(ctx context.Context, bookingID string) (*domain.Booking, error) {
	defer s.observe("fail_payment")()

	cancelled, err := s.cancelPending(ctx, bookingID, domain.CancelReasonPaymentFailed)
	if errors.Is(err, domain.ErrInvalidStateTransition) {
		current, getErr := s.bookings.GetByID(ctx, bookingID)
		if getErr != nil {
			return nil, getErr
		}
		s.log.Warn("payment failure for non-pending booking ignored", "booking_id", bookingID, "status", current.Status)
		return current, nil
	}
	return cancelled, err
}

func (s *BookingService) cancelPending(ctx context.Context, bookingID, reason string) (*domain.Booking, error) {
	cancelled, err := s.bookings.Transition(ctx, bookingID, domain.BookingStatusPending, domain.BookingStatusCancelled, reason)
	if err != nil {
		return nil, err
	}
	if err := s.finishCancel(ctx, cancelled, false); err != nil {
		return cancelled, err
	}
	return cancelled, nil
}

func (s *BookingService) finishCancel(ctx context.Context, cancelled *domain.Booking, voidTicket bool) error {
	s.cancelled(ctx, cancelled)
	if voidTicket {
		if err := s.tickets.VoidForBooking(ctx, cancelled.ID); err != nil {
			s.log.Error("voiding ticket of cancelled booking failed, seat left for orphan sweep",
				"booking_id", cancelled.ID, "error", err)
			return fmt.Errorf("void ticket of booking %s: %w", cancelled.ID, err)
		}
	}
	if err := s.compensate(ctx, cancelled.FlightID, cancelled.SeatTokenID, cancelled.ID); err != nil {
		return fmt.Errorf("release seat of booking %s: %w", cancelled.ID, err)
	}
	return nil
}

func (s *BookingService) cancelled(ctx context.Context, b *domain.Booking) {
	s.metrics.BookingsCancelled.WithLabelValues(b.CancelReason).Inc()
	s.log.Info("booking cancelled", "booking_id", b.ID, "flight_id", b.FlightID, "reason", b.CancelReason)
	s.publish(ctx, kafka.EventBookingCancelled, b, nil)
}

// IssueTicket issues the ticket of a confirmed booking. A ticket that already exists
// is returned as success.
func (s *BookingService) IssueTicket(ctx context.Context, bookingID string) (*domain.Ticket, error) {
	ticket, err := s.tickets.Issue(ctx, bookingID)
	if errors.Is(err, domain.ErrAlreadyIssued) && ticket != nil {
		return ticket, nil
	}
	return ticket, err
}

func (s *BookingService) GetBooking(ctx context.Context, bookingID string) (*domain.Booking, error) {
	return s.bookings.GetByID(ctx, bookingID)
}

func (s *BookingService) ListCustomerBookings(ctx context.Context, customerID string) ([]domain.Booking, error) {
	if strings.TrimSpace(customerID) == "" {
		return nil, domain.ValidationError("customer_id is required")
	}
	return s.bookings.ListByCustomer(ctx, customerID)
}

// ExpirePendingBookings cancels PENDING bookings older than the hold TTL.
func (s *BookingService) ExpirePendingBookings(ctx context.Context) ([]domain.Booking, error) {
	deadline := s.now().Add(-s.holdTTL)
	stale, err := s.bookings.ListPendingBefore(ctx, deadline, s.sweepBatch)
	if err != nil {
		return nil, err
	}

	expired := make([]domain.Booking, 0, len(stale))
	for _, b := range stale {
		cancelled, err := s.cancelPending(ctx, b.ID, domain.CancelReasonTimeout)
		if errors.Is(err, domain.ErrInvalidStateTransition) {
			continue
		}
		if cancelled != nil {
			expired = append(expired, *cancelled)
		}
		if err != nil {
			s.log.Warn("expiring booking failed", "booking_id", b.ID, "error", err)
		}
	}
	return expired, nil
}

// ReleaseOrphanTokens returns seats whose token outlived its booking: the booking was
// never persisted, or was cancelled without its seat coming back.
func (s *BookingService) ReleaseOrphanTokens(ctx context.Context) (int, error) {
	tokens, err := s.ledger.OutstandingTokens(ctx, s.now().Add(-s.orphanGrace), s.sweepBatch)
	if err != nil {
		return 0, err
	}

	released := 0
	for _, token := range tokens {
		orphan, err := s.isOrphan(ctx, token)
		if err != nil {
			s.log.Warn("orphan check failed", "token_id", token.ID, "error", err)
			continue
		}
		if !orphan {
			continue
		}
		err = s.ledger.Release(ctx, token.FlightID, token.ID)
		if errors.Is(err, domain.ErrTokenSpent) {
			continue
		}
		if err != nil {
			s.log.Error("releasing orphan seat token failed", "token_id", token.ID, "flight_id", token.FlightID, "error", err)
			continue
		}
		released++
		s.metrics.Compensations.WithLabelValues("orphan_released").Inc()
		s.log.Warn("orphan seat token released", "token_id", token.ID, "flight_id", token.FlightID, "booking_id", token.BookingID)
	}
	return released, nil
}

func (s *BookingService) isOrphan(ctx context.Context, token domain.SeatToken) (bool, error) {
	b, err := s.bookings.GetByID(ctx, token.BookingID)
	if errors.Is(err, domain.ErrNotFound) {
		return true, nil
	}
	if err != nil {
		return false, err
	}
	if b.SeatTokenID != token.ID {
		return true, nil
	}
	if b.Status != domain.BookingStatusCancelled {
		return false, nil
	}
	// A cancelled booking may still hold an issued ticket if voiding failed earlier.
	if err := s.tickets.VoidForBooking(ctx, b.ID); err != nil {
		return false, err
	}
	return true, nil
}

// compensate releases a seat token, retrying with exponential backoff. It runs
// detached from the caller's cancellation so an abandoned request still returns its
// seat; whatever is left after compensationTTL belongs to the orphan sweep.
func (s *BookingService) compensate(ctx context.Context, flightID, tokenID, bookingID string) error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.compensationTTL)
	defer cancel()

	backoff := s.retryInitial
	for attempt := 1; ; attempt++ {
		err := s.ledger.Release(ctx, flightID, tokenID)
		switch {
		case err == nil, errors.Is(err, domain.ErrTokenSpent):
			s.metrics.Compensations.WithLabelValues("released").Inc()
			return nil
		case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrInvariantViolation):
			s.metrics.Compensations.WithLabelValues("failed").Inc()
			return err
		}

		s.log.Warn("seat release failed, retrying",
			"booking_id", bookingID, "flight_id", flightID, "token_id", tokenID, "attempt", attempt, "backoff", backoff, "error", err)
		select {
		case <-ctx.Done():
			s.metrics.Compensations.WithLabelValues("abandoned").Inc()
			return fmt.Errorf("release token %s after %d attempts: %w", tokenID, attempt, err)
		case <-time.After(backoff):
		}
		backoff *= 2
		if backoff > s.retryMax {
			backoff = s.retryMax
		}
	}
}

func (s *BookingService) publish(ctx context.Context, eventType string, booking *domain.Booking, ticket *domain.Ticket) {
	if s.producer == nil || s.bookingTopic == "" {
		return
	}
	event := kafka.BookingEvent{
		BookingID:    booking.ID,
		CustomerID:   booking.CustomerID,
		FlightID:     booking.FlightID,
		AgentID:      booking.AgentID,
		Status:       string(booking.Status),
		CancelReason: booking.CancelReason,
		UpdatedAt:    booking.UpdatedAt,
	}
	if ticket != nil {
		event.TicketID = ticket.ID
		event.SeatNumber = ticket.SeatNumber
	}
	env, err := kafka.NewEnvelope(eventType, event)
	if err == nil {
		err = s.producer.Publish(ctx, s.bookingTopic, booking.ID, env)
	}
	if err != nil {
		s.log.Warn("failed to publish booking event", "event", eventType, "booking_id", booking.ID, "error", err)
	}
}

func (s *BookingService) observe(operation string) func() {
	start := time.Now()
	return func() {
		s.metrics.OperationDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
	}
}

var _ BookingUseCase = (*BookingService)(nil)
