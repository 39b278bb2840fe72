package domain

import "time"

type LuggageStatus string

const (
	LuggageStatusChecked   LuggageStatus = "CHECKED"
	LuggageStatusLoaded    LuggageStatus = "LOADED"
	LuggageStatusDelivered LuggageStatus = "DELIVERED"
)

var luggageNext = map[LuggageStatus]LuggageStatus{
	LuggageStatusChecked: LuggageStatusLoaded,
	LuggageStatusLoaded:  LuggageStatusDelivered,
}

// CanAdvance reports whether luggage may move from -> to. Luggage only moves forward one step.
func CanAdvance(from, to LuggageStatus) bool {
	next, ok := luggageNext[from]
	return ok && next == to
}

const (
	FreeLuggageGrams    = 23_000
	MaxLuggageGrams     = 32_000
	ExcessFeeCentsPerKg = 1_500
)

// LuggageFee charges every started kilogram above the free allowance.
func LuggageFee(weightGrams int) int64 {
	excess := weightGrams - FreeLuggageGrams
	if excess <= 0 {
		return 0
	}
	kg := (excess + 999) / 1000
	return int64(kg) * ExcessFeeCentsPerKg
}

type Luggage struct {
	ID          string        `json:"id"`
	TicketID    string        `json:"ticket_id"`
	WeightGrams int           `json:"weight_grams"`
	FeeCents    int64         `json:"fee_cents"`
	Status      LuggageStatus `json:"status"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}
