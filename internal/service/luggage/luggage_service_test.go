package luggage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Domenick1991/airinventory/internal/domain"
	"github.com/Domenick1991/airinventory/internal/repository/memory"
	"github.com/Domenick1991/airinventory/internal/service/tickets"
	"github.com/Domenick1991/airinventory/pkg/logger"
	"github.com/Domenick1991/airinventory/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) (*LuggageService, *memory.Stores) {
	t.Helper()
	stores := memory.New()
	ctx := context.Background()
	for _, id := range []string{"B1", "B2"} {
		require.NoError(t, stores.Bookings.Create(ctx, &domain.Booking{
			ID: id, CustomerID: "C" + id[1:], FlightID: "F1", Status: domain.BookingStatusConfirmed,
			SeatTokenID: "S" + id[1:], IdempotencyKey: "key-" + id,
		}))
		require.NoError(t, stores.Tickets.Issue(ctx, &domain.Ticket{
			ID: "T" + id[1:], BookingID: id, FlightID: "F1", CustomerID: "C" + id[1:],
			Status: domain.TicketStatusIssued,
		}, 10))
	}
	_, _, err := stores.Tickets.Void(ctx, "T2", time.Now())
	require.NoError(t, err)
	issuer := tickets.NewIssuer(stores.Bookings, stores.Flights, stores.Tickets, logger.NewNop(), metrics.NewMetrics(prometheus.NewRegistry()))
	return NewLuggageService(stores.Luggage, issuer, logger.NewNop()), stores
}

func TestLuggageService_CheckIn(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	tests := []struct {
		name    string
		weight  int
		wantFee int64
	}{
		{"within allowance", 20_000, 0},
		{"exactly allowance", 23_000, 0},
		{"one gram over", 23_001, 1_500},
		{"two and a half kg over", 25_500, 4_500},
		{"at limit", 32_000, 13_500},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bag, err := svc.CheckIn(ctx, "T1", tt.weight)
			require.NoError(t, err)
			assert.Equal(t, tt.wantFee, bag.FeeCents)
			assert.Equal(t, domain.LuggageStatusChecked, bag.Status)
		})
	}

	bags, err := svc.ListByTicket(ctx, "T1")
	require.NoError(t, err)
	assert.Len(t, bags, len(tests))
}

func TestLuggageService_CheckInRejected(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.CheckIn(ctx, "T1", 32_001)
	assert.True(t, errors.Is(err, domain.ErrValidation))

	_, err = svc.CheckIn(ctx, "T1", 0)
	assert.True(t, errors.Is(err, domain.ErrValidation))

	_, err = svc.CheckIn(ctx, "T2", 10_000)
	assert.True(t, errors.Is(err, domain.ErrInvalidBookingState))

	_, err = svc.CheckIn(ctx, "missing", 10_000)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestLuggageService_Advance(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	bag, err := svc.CheckIn(ctx, "T1", 15_000)
	require.NoError(t, err)

	_, err = svc.Advance(ctx, bag.ID, domain.LuggageStatusDelivered)
	assert.True(t, errors.Is(err, domain.ErrInvalidStateTransition))

	loaded, err := svc.Advance(ctx, bag.ID, domain.LuggageStatusLoaded)
	require.NoError(t, err)
	assert.Equal(t, domain.LuggageStatusLoaded, loaded.Status)

	again, err := svc.Advance(ctx, bag.ID, domain.LuggageStatusLoaded)
	require.NoError(t, err)
	assert.Equal(t, domain.LuggageStatusLoaded, again.Status)

	delivered, err := svc.Advance(ctx, bag.ID, domain.LuggageStatusDelivered)
	require.NoError(t, err)
	assert.Equal(t, domain.LuggageStatusDelivered, delivered.Status)

	_, err = svc.Advance(ctx, bag.ID, domain.LuggageStatusChecked)
	assert.True(t, errors.Is(err, domain.ErrInvalidStateTransition))
}
