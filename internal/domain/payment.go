package domain

import "time"

type PaymentMethod string

const (
	PaymentMethodMobileMoney PaymentMethod = "MOBILE_MONEY"
	PaymentMethodCard        PaymentMethod = "CARD"
	PaymentMethodCash        PaymentMethod = "CASH"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentMethodMobileMoney, PaymentMethodCard, PaymentMethodCash:
		return true
	}
	return false
}

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "PENDING"
	PaymentStatusCompleted PaymentStatus = "COMPLETED"
	PaymentStatusFailed    PaymentStatus = "FAILED"
)

// Outcome reports whether s is a terminal outcome a gateway may report.
func (s PaymentStatus) Outcome() bool {
	return s == PaymentStatusCompleted || s == PaymentStatusFailed
}

type PaymentTransaction struct {
	ID             string        `json:"id"`
	BookingID      string        `json:"booking_id"`
	Method         PaymentMethod `json:"method"`
	AmountCents    int64         `json:"amount_cents"`
	Status         PaymentStatus `json:"status"`
	IdempotencyKey string        `json:"idempotency_key"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
}
