package flights

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/Domenick1991/airinventory/internal/domain"
	"github.com/Domenick1991/airinventory/pkg/logger"
)

type FlightUseCase interface {
	SearchFlights(ctx context.Context, filter SearchFilter) ([]domain.FlightSummary, error)
	GetFlight(ctx context.Context, flightID string) (*domain.FlightSummary, error)
	GetAvailability(ctx context.Context, flightID string) (int, error)
}

type FlightReader interface {
	GetFlight(ctx context.Context, flightID string) (*domain.Flight, error)
	GetSummary(ctx context.Context, flightID string) (*domain.FlightSummary, error)
	ListSummaries(ctx context.Context) ([]domain.FlightSummary, error)
}

// FlightCache holds read models with bounded staleness. A miss is (nil, nil) for
// summaries and ok=false for availability.
type FlightCache interface {
	GetSummaries(ctx context.Context) ([]domain.FlightSummary, error)
	SetSummaries(ctx context.Context, summaries []domain.FlightSummary) error
	GetAvailability(ctx context.Context, flightID string) (int, bool, error)
	SetAvailability(ctx context.Context, flightID string, available int) error
}

const (
	SortByDeparture = "departure"
	SortByArrival   = "arrival"
	SortByDuration  = "duration"

	OrderAsc  = "asc"
	OrderDesc = "desc"
)

type SearchFilter struct {
	// From and To match a location id or IATA code, case-insensitively.
	From string
	To   string
	// DepartAfter and DepartBefore bound the departure time as [after, before).
	DepartAfter   time.Time
	DepartBefore  time.Time
	Term          string
	OnlyAvailable bool
	SortBy        string
	Order         string
}

func (f SearchFilter) validate() error {
	switch f.SortBy {
	case "", SortByDeparture, SortByArrival, SortByDuration:
	default:
		return domain.ValidationError("unknown sort %q", f.SortBy)
	}
	switch f.Order {
	case "", OrderAsc, OrderDesc:
	default:
		return domain.ValidationError("unknown order %q", f.Order)
	}
	if !f.DepartAfter.IsZero() && !f.DepartBefore.IsZero() && !f.DepartBefore.After(f.DepartAfter) {
		return domain.ValidationError("departure window is empty")
	}
	return nil
}

// FlightService answers availability and search queries. It never mutates inventory
// and its answers may trail the ledger by the cache TTL.
type FlightService struct {
	repo  FlightReader
	cache FlightCache
	log   logger.Logger
}

func NewFlightService(repo FlightReader, cache FlightCache, log logger.Logger) *FlightService {
	return &FlightService{repo: repo, cache: cache, log: log.With("component", "flight_service")}
}

func (s *FlightService) SearchFlights(ctx context.Context, filter SearchFilter) ([]domain.FlightSummary, error) {
	if err := filter.validate(); err != nil {
		return nil, err
	}
	summaries, err := s.summaries(ctx)
	if err != nil {
		return nil, err
	}

	result := make([]domain.FlightSummary, 0, len(summaries))
	for _, fs := range summaries {
		if filter.matches(fs) {
			result = append(result, fs)
		}
	}
	sortSummaries(result, filter.SortBy, filter.Order == OrderDesc)
	return result, nil
}

func (s *FlightService) summaries(ctx context.Context) ([]domain.FlightSummary, error) {
	if s.cache != nil {
		cached, err := s.cache.GetSummaries(ctx)
		if err == nil && cached != nil {
			return cached, nil
		}
		if err != nil {
			s.log.Warn("flight cache read failed", "error", err)
		}
	}

	summaries, err := s.repo.ListSummaries(ctx)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		if err := s.cache.SetSummaries(ctx, summaries); err != nil {
			s.log.Warn("flight cache write failed", "error", err)
		}
	}
	return summaries, nil
}

func (s *FlightService) GetFlight(ctx context.Context, flightID string) (*domain.FlightSummary, error) {
	return s.repo.GetSummary(ctx, flightID)
}

// GetAvailability returns a possibly stale seat count. Booking decisions must go
// through the ledger, never through this value.
func (s *FlightService) GetAvailability(ctx context.Context, flightID string) (int, error) {
	if s.cache != nil {
		n, ok, err := s.cache.GetAvailability(ctx, flightID)
		if err == nil && ok {
			return n, nil
		}
		if err != nil {
			s.log.Warn("availability cache read failed", "flight_id", flightID, "error", err)
		}
	}

	flight, err := s.repo.GetFlight(ctx, flightID)
	if err != nil {
		return 0, err
	}
	if s.cache != nil {
		if err := s.cache.SetAvailability(ctx, flightID, flight.AvailableSeats); err != nil {
			s.log.Warn("availability cache write failed", "flight_id", flightID, "error", err)
		}
	}
	return flight.AvailableSeats, nil
}

func (f SearchFilter) matches(fs domain.FlightSummary) bool {
	if f.From != "" && !matchLocation(fs.Departure, fs.DepartureLocation, f.From) {
		return false
	}
	if f.To != "" && !matchLocation(fs.Arrival, fs.ArrivalLocation, f.To) {
		return false
	}
	if !f.DepartAfter.IsZero() && fs.DepartureTime.Before(f.DepartAfter) {
		return false
	}
	if !f.DepartBefore.IsZero() && !fs.DepartureTime.Before(f.DepartBefore) {
		return false
	}
	if f.OnlyAvailable && (fs.AvailableSeats == 0 || fs.Quarantined()) {
		return false
	}
	if term := strings.TrimSpace(f.Term); term != "" {
		return matchTerm(fs, strings.ToLower(term))
	}
	return true
}

func matchLocation(loc domain.Location, locationID, query string) bool {
	return strings.EqualFold(locationID, query) || (loc.IATACode != "" && strings.EqualFold(loc.IATACode, query))
}

func matchTerm(fs domain.FlightSummary, term string) bool {
	for _, field := range []string{
		fs.ID,
		fs.Departure.IATACode, fs.Departure.Name, fs.Departure.Country,
		fs.Arrival.IATACode, fs.Arrival.Name, fs.Arrival.Country,
		fs.Aircraft.Model,
	} {
		if strings.Contains(strings.ToLower(field), term) {
			return true
		}
	}
	return false
}

func sortSummaries(list []domain.FlightSummary, by string, desc bool) {
	key := func(fs domain.FlightSummary) int64 {
		switch by {
		case SortByArrival:
			return fs.ArrivalTime.UnixNano()
		case SortByDuration:
			return int64(fs.Duration())
		default:
			return fs.DepartureTime.UnixNano()
		}
	}
	sort.SliceStable(list, func(i, j int) bool {
		ki, kj := key(list[i]), key(list[j])
		if ki == kj {
			return list[i].ID < list[j].ID
		}
		if desc {
			return ki > kj
		}
		return ki < kj
	})
}

var _ FlightUseCase = (*FlightService)(nil)
