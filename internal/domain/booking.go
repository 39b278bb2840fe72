package domain

import "time"

type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "PENDING"
	BookingStatusConfirmed BookingStatus = "CONFIRMED"
	BookingStatusCancelled BookingStatus = "CANCELLED"
)

// Cancellation reasons recorded on the booking and used as metric labels.
const (
	CancelReasonCustomer      = "customer"
	CancelReasonTimeout       = "timeout"
	CancelReasonPaymentFailed = "payment_failed"
	CancelReasonIssueFailure  = "ticket_issue_failure"
)

var validNext = map[BookingStatus]map[BookingStatus]bool{
	BookingStatusPending:   {BookingStatusConfirmed: true, BookingStatusCancelled: true},
	BookingStatusConfirmed: {BookingStatusCancelled: true},
	BookingStatusCancelled: {},
}

// CanTransition reports whether from -> to is a legal booking transition.
func CanTransition(from, to BookingStatus) bool {
	return validNext[from][to]
}

func (s BookingStatus) Valid() bool {
	_, ok := validNext[s]
	return ok
}

// Active bookings hold a seat.
func (s BookingStatus) Active() bool {
	return s == BookingStatusPending || s == BookingStatusConfirmed
}

type Booking struct {
	ID             string        `json:"id"`
	CustomerID     string        `json:"customer_id"`
	FlightID       string        `json:"flight_id"`
	Status         BookingStatus `json:"status"`
	AgentID        string        `json:"agent_id,omitempty"`
	SeatTokenID    string        `json:"seat_token_id"`
	IdempotencyKey string        `json:"idempotency_key"`
	CancelReason   string        `json:"cancel_reason,omitempty"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
}

// SeatToken is the single-use receipt of a ledger reservation.
type SeatToken struct {
	ID         string     `json:"id"`
	FlightID   string     `json:"flight_id"`
	BookingID  string     `json:"booking_id"`
	CreatedAt  time.Time  `json:"created_at"`
	ReleasedAt *time.Time `json:"released_at,omitempty"`
}

func (t SeatToken) Outstanding() bool {
	return t.ReleasedAt == nil
}
