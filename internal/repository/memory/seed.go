package memory

import (
	"time"

	"github.com/Domenick1991/airinventory/internal/domain"
)

// Stores bundles one in-memory repository per table.
type Stores struct {
	Flights  *FlightStore
	Bookings *BookingStore
	Tickets  *TicketStore
	Payments *PaymentStore
	Luggage  *LuggageStore
}

// New links the stores the way foreign keys and row locks link the tables: ticket
// issue sees booking status and flight snapshots count active bookings.
func New() *Stores {
	s := &Stores{
		Flights:  NewFlightStore(),
		Bookings: NewBookingStore(),
		Tickets:  NewTicketStore(),
		Payments: NewPaymentStore(),
		Luggage:  NewLuggageStore(),
	}
	s.Tickets.bookings = s.Bookings
	s.Flights.bookings = s.Bookings
	return s
}

// Seed loads the reference schedule also shipped in schema.sql.
func Seed(s *FlightStore) error {
	for _, loc := range []domain.Location{
		{ID: "LOC001", Type: domain.LocationTypeAirport, IATACode: "KGL", Name: "Kigali International Airport", Country: "Rwanda"},
		{ID: "LOC002", Type: domain.LocationTypeAirport, IATACode: "EBB", Name: "Entebbe International Airport", Country: "Uganda"},
		{ID: "LOC003", Type: domain.LocationTypeAirport, IATACode: "JRO", Name: "Kilimanjaro International Airport", Country: "Tanzania"},
		{ID: "LOC004", Type: domain.LocationTypeAirport, IATACode: "NBO", Name: "Jomo Kenyatta International Airport", Country: "Kenya"},
	} {
		s.AddLocation(loc)
	}
	s.AddAircraft(domain.Aircraft{ID: "AC001", Model: "Boeing 737-800", Manufacturer: "Boeing", SeatCapacity: 189})
	s.AddAircraft(domain.Aircraft{ID: "AC002", Model: "Airbus A320", Manufacturer: "Airbus", SeatCapacity: 180})

	at := func(v string) time.Time {
		t, _ := time.Parse("2006-01-02 15:04", v)
		return t.UTC()
	}
	for _, f := range []domain.Flight{
		{ID: "WB101", AircraftID: "AC001", DepartureLocation: "LOC001", ArrivalLocation: "LOC002", DepartureTime: at("2025-06-01 08:00"), ArrivalTime: at("2025-06-01 09:30")},
		{ID: "WB103", AircraftID: "AC002", DepartureLocation: "LOC001", ArrivalLocation: "LOC004", DepartureTime: at("2025-06-02 14:00"), ArrivalTime: at("2025-06-02 16:30")},
		{ID: "WB104", AircraftID: "AC001", DepartureLocation: "LOC002", ArrivalLocation: "LOC001", DepartureTime: at("2025-06-02 17:00"), ArrivalTime: at("2025-06-02 18:30")},
	} {
		if err := s.AddFlight(f); err != nil {
			return err
		}
	}
	return nil
}
