package kafka

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const (
	EventBookingCreated   = "booking.created"
	EventBookingConfirmed = "booking.confirmed"
	EventBookingCancelled = "booking.cancelled"
	EventTicketIssued     = "ticket.issued"
	EventPaymentOutcome   = "payment.outcome"
)

// Envelope wraps every message on the wire. EventID is what consumers deduplicate on.
type Envelope struct {
	EventID    string          `json:"event_id"`
	EventType  string          `json:"event_type"`
	OccurredAt time.Time       `json:"occurred_at"`
	Payload    json.RawMessage `json:"payload"`
}

type BookingEvent struct {
	BookingID    string    `json:"booking_id"`
	CustomerID   string    `json:"customer_id"`
	FlightID     string    `json:"flight_id"`
	AgentID      string    `json:"agent_id,omitempty"`
	Status       string    `json:"status"`
	CancelReason string    `json:"cancel_reason,omitempty"`
	TicketID     string    `json:"ticket_id,omitempty"`
	SeatNumber   string    `json:"seat_number,omitempty"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// PaymentOutcomeEvent is what a payment gateway adapter publishes on the outcomes topic.
type PaymentOutcomeEvent struct {
	TransactionID string `json:"transaction_id"`
	Outcome       string `json:"outcome"`
}

func NewEnvelope(eventType string, payload interface{}) (Envelope, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, fmt.Errorf("encode %s payload: %w", eventType, err)
	}
	return Envelope{
		EventID:    uuid.NewString(),
		EventType:  eventType,
		OccurredAt: time.Now().UTC(),
		Payload:    data,
	}, nil
}

func DecodeEnvelope(data []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Envelope{}, fmt.Errorf("decode envelope: %w", err)
	}
	if env.EventID == "" || env.EventType == "" {
		return Envelope{}, fmt.Errorf("decode envelope: missing event_id or event_type")
	}
	return env, nil
}

func UnwrapPayload[T any](env Envelope) (T, error) {
	var t T
	if err := json.Unmarshal(env.Payload, &t); err != nil {
		return t, fmt.Errorf("decode %s payload: %w", env.EventType, err)
	}
	return t, nil
}
