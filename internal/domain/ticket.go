package domain

import (
	"fmt"
	"time"
)

type TicketStatus string

const (
	TicketStatusIssued TicketStatus = "ISSUED"
	TicketStatusVoided TicketStatus = "VOIDED"
)

const seatLetters = "ABCDEF"

type Ticket struct {
	ID         string       `json:"id"`
	BookingID  string       `json:"booking_id"`
	FlightID   string       `json:"flight_id"`
	CustomerID string       `json:"customer_id"`
	SeatNumber string       `json:"seat_number"`
	SeatIndex  int          `json:"seat_index"`
	Status     TicketStatus `json:"status"`
	IssuedAt   time.Time    `json:"issued_at"`
	VoidedAt   *time.Time   `json:"voided_at,omitempty"`
}

// SeatLabel maps a zero-based seat index onto a six-abreast cabin: 0 -> "1A", 7 -> "2B".
func SeatLabel(index int) string {
	return fmt.Sprintf("%d%c", index/len(seatLetters)+1, seatLetters[index%len(seatLetters)])
}

// LowestFreeSeat returns the smallest index in [0, capacity) missing from taken,
// which must be sorted ascending.
func LowestFreeSeat(taken []int, capacity int) (int, bool) {
	next := 0
	for _, idx := range taken {
		if idx > next {
			break
		}
		if idx == next {
			next++
		}
	}
	if next >= capacity {
		return 0, false
	}
	return next, true
}
