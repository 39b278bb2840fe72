package flights

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Domenick1991/airinventory/internal/domain"
	"github.com/Domenick1991/airinventory/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockFlightRepository struct {
	mock.Mock
}

func (m *MockFlightRepository) GetFlight(ctx context.Context, flightID string) (*domain.Flight, error) {
	args := m.Called(ctx, flightID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Flight), args.Error(1)
}

func (m *MockFlightRepository) GetSummary(ctx context.Context, flightID string) (*domain.FlightSummary, error) {
	args := m.Called(ctx, flightID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.FlightSummary), args.Error(1)
}

func (m *MockFlightRepository) ListSummaries(ctx context.Context) ([]domain.FlightSummary, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.FlightSummary), args.Error(1)
}

type MockCache struct {
	mock.Mock
}

func (m *MockCache) GetSummaries(ctx context.Context) ([]domain.FlightSummary, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.FlightSummary), args.Error(1)
}

func (m *MockCache) SetSummaries(ctx context.Context, summaries []domain.FlightSummary) error {
	args := m.Called(ctx, summaries)
	return args.Error(0)
}

func (m *MockCache) GetAvailability(ctx context.Context, flightID string) (int, bool, error) {
	args := m.Called(ctx, flightID)
	return args.Int(0), args.Bool(1), args.Error(2)
}

func (m *MockCache) SetAvailability(ctx context.Context, flightID string, available int) error {
	args := m.Called(ctx, flightID, available)
	return args.Error(0)
}

var base = time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

func schedule() []domain.FlightSummary {
	kgl := domain.Location{ID: "LOC001", Type: domain.LocationTypeAirport, IATACode: "KGL", Name: "Kigali International Airport", Country: "Rwanda"}
	ebb := domain.Location{ID: "LOC002", Type: domain.LocationTypeAirport, IATACode: "EBB", Name: "Entebbe International Airport", Country: "Uganda"}
	nbo := domain.Location{ID: "LOC004", Type: domain.LocationTypeAirport, IATACode: "NBO", Name: "Jomo Kenyatta International Airport", Country: "Kenya"}
	boeing := domain.Aircraft{ID: "AC001", Model: "Boeing 737-800", Manufacturer: "Boeing", SeatCapacity: 189}

	flight := func(id string, dep, arr domain.Location, depart time.Duration, length time.Duration, available int) domain.FlightSummary {
		return domain.FlightSummary{
			Flight: domain.Flight{
				ID:                id,
				AircraftID:        boeing.ID,
				DepartureLocation: dep.ID,
				ArrivalLocation:   arr.ID,
				DepartureTime:     base.Add(depart),
				ArrivalTime:       base.Add(depart + length),
				Capacity:          189,
				AvailableSeats:    available,
			},
			Departure: dep,
			Arrival:   arr,
			Aircraft:  boeing,
		}
	}
	return []domain.FlightSummary{
		flight("WB101", kgl, ebb, 8*time.Hour, 90*time.Minute, 189),
		flight("WB103", kgl, nbo, 38*time.Hour, 150*time.Minute, 0),
		flight("WB104", ebb, kgl, 41*time.Hour, 60*time.Minute, 12),
	}
}

func ids(list []domain.FlightSummary) []string {
	out := make([]string, 0, len(list))
	for _, fs := range list {
		out = append(out, fs.ID)
	}
	return out
}

func TestFlightService_Search_CacheMiss(t *testing.T) {
	mockRepo := &MockFlightRepository{}
	mockCache := &MockCache{}
	service := NewFlightService(mockRepo, mockCache, logger.NewNop())
	ctx := context.Background()

	mockCache.On("GetSummaries", ctx).Return(nil, nil)
	mockRepo.On("ListSummaries", ctx).Return(schedule(), nil)
	mockCache.On("SetSummaries", ctx, schedule()).Return(nil)

	result, err := service.SearchFlights(ctx, SearchFilter{})
	require.NoError(t, err)
	assert.Equal(t, []string{"WB101", "WB103", "WB104"}, ids(result))
	mockRepo.AssertExpectations(t)
	mockCache.AssertExpectations(t)
}

func TestFlightService_Search_CacheHit(t *testing.T) {
	mockRepo := &MockFlightRepository{}
	mockCache := &MockCache{}
	service := NewFlightService(mockRepo, mockCache, logger.NewNop())
	ctx := context.Background()

	mockCache.On("GetSummaries", ctx).Return(schedule(), nil)

	result, err := service.SearchFlights(ctx, SearchFilter{From: "kgl"})
	require.NoError(t, err)
	assert.Equal(t, []string{"WB101", "WB103"}, ids(result))
	mockRepo.AssertNotCalled(t, "ListSummaries", mock.Anything)
}

func TestFlightService_Search_CacheErrorFallsBack(t *testing.T) {
	mockRepo := &MockFlightRepository{}
	mockCache := &MockCache{}
	service := NewFlightService(mockRepo, mockCache, logger.NewNop())
	ctx := context.Background()

	mockCache.On("GetSummaries", ctx).Return(nil, errors.New("redis down"))
	mockRepo.On("ListSummaries", ctx).Return(schedule(), nil)
	mockCache.On("SetSummaries", ctx, mock.Anything).Return(errors.New("redis down"))

	result, err := service.SearchFlights(ctx, SearchFilter{})
	require.NoError(t, err)
	assert.Len(t, result, 3)
}

func TestFlightService_Search_NoCache(t *testing.T) {
	mockRepo := &MockFlightRepository{}
	service := NewFlightService(mockRepo, nil, logger.NewNop())
	ctx := context.Background()

	mockRepo.On("ListSummaries", ctx).Return(nil, errors.New("db down"))

	_, err := service.SearchFlights(ctx, SearchFilter{})
	assert.Error(t, err)
}

func TestFlightService_Search_Filters(t *testing.T) {
	mockRepo := &MockFlightRepository{}
	service := NewFlightService(mockRepo, nil, logger.NewNop())
	ctx := context.Background()
	mockRepo.On("ListSummaries", ctx).Return(schedule(), nil)

	tests := []struct {
		name   string
		filter SearchFilter
		want   []string
	}{
		{"by location id", SearchFilter{From: "LOC002"}, []string{"WB104"}},
		{"by arrival iata", SearchFilter{To: "nbo"}, []string{"WB103"}},
		{"departure window", SearchFilter{DepartAfter: base.Add(24 * time.Hour), DepartBefore: base.Add(41 * time.Hour)}, []string{"WB103"}},
		{"only available", SearchFilter{OnlyAvailable: true}, []string{"WB101", "WB104"}},
		{"term matches country", SearchFilter{Term: "kenya"}, []string{"WB103"}},
		{"term matches flight id", SearchFilter{Term: "wb10"}, []string{"WB101", "WB103", "WB104"}},
		{"sort by duration", SearchFilter{SortBy: SortByDuration}, []string{"WB104", "WB101", "WB103"}},
		{"sort by arrival desc", SearchFilter{SortBy: SortByArrival, Order: OrderDesc}, []string{"WB104", "WB103", "WB101"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := service.SearchFlights(ctx, tt.filter)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids(result))
		})
	}
}

func TestFlightService_Search_InvalidFilter(t *testing.T) {
	service := NewFlightService(&MockFlightRepository{}, nil, logger.NewNop())

	for _, filter := range []SearchFilter{
		{SortBy: "price"},
		{Order: "sideways"},
		{DepartAfter: base, DepartBefore: base},
	} {
		_, err := service.SearchFlights(context.Background(), filter)
		assert.True(t, errors.Is(err, domain.ErrValidation))
	}
}

func TestFlightService_GetAvailability(t *testing.T) {
	mockRepo := &MockFlightRepository{}
	mockCache := &MockCache{}
	service := NewFlightService(mockRepo, mockCache, logger.NewNop())
	ctx := context.Background()

	mockCache.On("GetAvailability", ctx, "WB101").Return(0, false, nil).Once()
	mockRepo.On("GetFlight", ctx, "WB101").Return(&domain.Flight{ID: "WB101", Capacity: 189, AvailableSeats: 42}, nil).Once()
	mockCache.On("SetAvailability", ctx, "WB101", 42).Return(nil).Once()

	n, err := service.GetAvailability(ctx, "WB101")
	require.NoError(t, err)
	assert.Equal(t, 42, n)

	mockCache.On("GetAvailability", ctx, "WB101").Return(41, true, nil).Once()
	n, err = service.GetAvailability(ctx, "WB101")
	require.NoError(t, err)
	assert.Equal(t, 41, n)

	mockRepo.AssertExpectations(t)
	mockCache.AssertExpectations(t)
}

func TestFlightService_GetAvailability_NotFound(t *testing.T) {
	mockRepo := &MockFlightRepository{}
	service := NewFlightService(mockRepo, nil, logger.NewNop())
	ctx := context.Background()

	mockRepo.On("GetFlight", ctx, "NOPE").Return(nil, domain.ErrNotFound)

	_, err := service.GetAvailability(ctx, "NOPE")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestFlightService_GetFlight(t *testing.T) {
	mockRepo := &MockFlightRepository{}
	service := NewFlightService(mockRepo, nil, logger.NewNop())
	ctx := context.Background()
	summary := schedule()[0]

	mockRepo.On("GetSummary", ctx, "WB101").Return(&summary, nil)

	got, err := service.GetFlight(ctx, "WB101")
	require.NoError(t, err)
	assert.Equal(t, "KGL", got.Departure.IATACode)
	assert.Equal(t, 90*time.Minute, got.Duration())
}
