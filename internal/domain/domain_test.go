package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to BookingStatus
		want     bool
	}{
		{BookingStatusPending, BookingStatusConfirmed, true},
		{BookingStatusPending, BookingStatusCancelled, true},
		{BookingStatusConfirmed, BookingStatusCancelled, true},
		{BookingStatusConfirmed, BookingStatusPending, false},
		{BookingStatusCancelled, BookingStatusPending, false},
		{BookingStatusCancelled, BookingStatusConfirmed, false},
		{BookingStatusPending, BookingStatusPending, false},
		{"UNKNOWN", BookingStatusCancelled, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.want, CanTransition(tt.from, tt.to))
		})
	}
}

func TestBookingStatus(t *testing.T) {
	assert.True(t, BookingStatusPending.Valid())
	assert.False(t, BookingStatus("EXPIRED").Valid())
	assert.True(t, BookingStatusConfirmed.Active())
	assert.False(t, BookingStatusCancelled.Active())
}

func TestSeatLabel(t *testing.T) {
	assert.Equal(t, "1A", SeatLabel(0))
	assert.Equal(t, "1F", SeatLabel(5))
	assert.Equal(t, "2A", SeatLabel(6))
	assert.Equal(t, "2B", SeatLabel(7))
	assert.Equal(t, "12A", SeatLabel(66))
	assert.Equal(t, "32C", SeatLabel(188))
}

func TestLowestFreeSeat(t *testing.T) {
	tests := []struct {
		name     string
		taken    []int
		capacity int
		want     int
		ok       bool
	}{
		{"empty", nil, 3, 0, true},
		{"gap in middle", []int{0, 1, 3}, 5, 2, true},
		{"gap at start", []int{1, 2}, 5, 0, true},
		{"full", []int{0, 1, 2}, 3, 0, false},
		{"zero capacity", nil, 0, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := LowestFreeSeat(tt.taken, tt.capacity)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLuggageFee(t *testing.T) {
	assert.Equal(t, int64(0), LuggageFee(23_000))
	assert.Equal(t, int64(1_500), LuggageFee(23_001))
	assert.Equal(t, int64(1_500), LuggageFee(24_000))
	assert.Equal(t, int64(3_000), LuggageFee(24_001))
}

func TestCanAdvance(t *testing.T) {
	assert.True(t, CanAdvance(LuggageStatusChecked, LuggageStatusLoaded))
	assert.True(t, CanAdvance(LuggageStatusLoaded, LuggageStatusDelivered))
	assert.False(t, CanAdvance(LuggageStatusChecked, LuggageStatusDelivered))
	assert.False(t, CanAdvance(LuggageStatusDelivered, LuggageStatusChecked))
}

func TestFlight(t *testing.T) {
	dep := time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)
	f := Flight{DepartureTime: dep, ArrivalTime: dep.Add(90 * time.Minute)}
	assert.Equal(t, 90*time.Minute, f.Duration())
	assert.False(t, f.Quarantined())
	f.QuarantineReason = "audit"
	assert.True(t, f.Quarantined())
}

func TestPaymentStatus(t *testing.T) {
	assert.True(t, PaymentStatusCompleted.Outcome())
	assert.True(t, PaymentStatusFailed.Outcome())
	assert.False(t, PaymentStatusPending.Outcome())
	assert.True(t, PaymentMethodMobileMoney.Valid())
	assert.False(t, PaymentMethod("BITCOIN").Valid())
}

func TestErrors(t *testing.T) {
	assert.True(t, errors.Is(ErrFlightQuarantined, ErrInvariantViolation))
	assert.True(t, errors.Is(ErrSeatPoolExhausted, ErrInvariantViolation))
	assert.False(t, errors.Is(ErrNoCapacity, ErrInvariantViolation))
	assert.True(t, errors.Is(ValidationError("bad %s", "thing"), ErrValidation))
	assert.True(t, errors.Is(TransitionError(BookingStatusCancelled, BookingStatusConfirmed), ErrInvalidStateTransition))
}
