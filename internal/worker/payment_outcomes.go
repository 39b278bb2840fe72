package worker

import (
	"context"
	"errors"
	"time"

	"github.com/Domenick1991/airinventory/internal/domain"
	"github.com/Domenick1991/airinventory/internal/kafka"
	"github.com/Domenick1991/airinventory/pkg/logger"
	kafkago "github.com/segmentio/kafka-go"
)

const paymentOutcomeConsumer = "payment-outcomes"

type OutcomeReporter interface {
	ReportOutcome(ctx context.Context, transactionID string, outcome domain.PaymentStatus) (*domain.PaymentTransaction, error)
}

// Deduplicator remembers which events a consumer has finished.
type Deduplicator interface {
	Seen(ctx context.Context, consumer, eventID string) (bool, error)
	MarkProcessed(ctx context.Context, consumer, eventID string) error
}

// PaymentOutcomeHandler applies gateway outcomes read from Kafka. Malformed and
// permanently rejected messages are dropped; anything else is retried with backoff
// until it succeeds or ctx ends, so an offset is only committed once applied.
type PaymentOutcomeHandler struct {
	payments   OutcomeReporter
	dedup      Deduplicator
	log        logger.Logger
	retryStart time.Duration
	retryMax   time.Duration
}

func NewPaymentOutcomeHandler(payments OutcomeReporter, dedup Deduplicator, log logger.Logger) *PaymentOutcomeHandler {
	return &PaymentOutcomeHandler{
		payments:   payments,
		dedup:      dedup,
		log:        log.With("component", "payment_outcome_consumer"),
		retryStart: 100 * time.Millisecond,
		retryMax:   5 * time.Second,
	}
}

func (h *PaymentOutcomeHandler) Handle(ctx context.Context, msg kafkago.Message) error {
	env, err := kafka.DecodeEnvelope(msg.Value)
	if err != nil {
		h.log.Warn("dropping malformed message", "offset", msg.Offset, "error", err)
		return nil
	}
	if env.EventType != kafka.EventPaymentOutcome {
		return nil
	}
	event, err := kafka.UnwrapPayload[kafka.PaymentOutcomeEvent](env)
	if err != nil {
		h.log.Warn("dropping malformed payment outcome", "event_id", env.EventID, "error", err)
		return nil
	}

	if h.dedup != nil {
		seen, err := h.dedup.Seen(ctx, paymentOutcomeConsumer, env.EventID)
		if err != nil {
			h.log.Warn("dedup lookup failed, applying anyway", "event_id", env.EventID, "error", err)
		} else if seen {
			h.log.Debug("duplicate payment outcome event", "event_id", env.EventID)
			return nil
		}
	}

	if err := h.apply(ctx, env.EventID, event); err != nil {
		return err
	}

	if h.dedup != nil {
		if err := h.dedup.MarkProcessed(ctx, paymentOutcomeConsumer, env.EventID); err != nil {
			h.log.Warn("failed to record processed event", "event_id", env.EventID, "error", err)
		}
	}
	return nil
}

func (h *PaymentOutcomeHandler) apply(ctx context.Context, eventID string, event kafka.PaymentOutcomeEvent) error {
	delay := h.retryStart
	for attempt := 1; ; attempt++ {
		payment, err := h.payments.ReportOutcome(ctx, event.TransactionID, domain.PaymentStatus(event.Outcome))
		switch {
		case err == nil:
			h.log.Info("payment outcome applied",
				"event_id", eventID, "transaction_id", event.TransactionID, "status", payment.Status)
			return nil
		case permanent(err):
			h.log.Warn("payment outcome rejected",
				"event_id", eventID, "transaction_id", event.TransactionID, "outcome", event.Outcome, "error", err)
			return nil
		}

		h.log.Warn("payment outcome failed, retrying",
			"event_id", eventID, "transaction_id", event.TransactionID, "attempt", attempt, "error", err)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		delay = min(delay*2, h.retryMax)
	}
}

// permanent errors will fail the same way on every redelivery.
func permanent(err error) bool {
	return errors.Is(err, domain.ErrValidation) ||
		errors.Is(err, domain.ErrNotFound) ||
		errors.Is(err, domain.ErrInvariantViolation)
}
