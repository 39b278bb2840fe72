package domain

import "time"

type LocationType string

const (
	LocationTypeAirport LocationType = "AIRPORT"
	LocationTypeCity    LocationType = "CITY"
)

type Location struct {
	ID       string       `json:"id"`
	Type     LocationType `json:"type"`
	IATACode string       `json:"iata_code,omitempty"`
	Name     string       `json:"name"`
	Country  string       `json:"country"`
}

type Aircraft struct {
	ID           string `json:"id"`
	Model        string `json:"model"`
	Manufacturer string `json:"manufacturer"`
	SeatCapacity int    `json:"seat_capacity"`
}

// Flight is a single atomic seat resource. AvailableSeats is mutated only by the ledger.
type Flight struct {
	ID                string    `json:"id"`
	AircraftID        string    `json:"aircraft_id"`
	DepartureLocation string    `json:"departure_location"`
	ArrivalLocation   string    `json:"arrival_location"`
	DepartureTime     time.Time `json:"departure_time"`
	ArrivalTime       time.Time `json:"arrival_time"`
	Capacity          int       `json:"capacity"`
	AvailableSeats    int       `json:"available_seats"`
	QuarantineReason  string    `json:"quarantine_reason,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

func (f Flight) Duration() time.Duration {
	return f.ArrivalTime.Sub(f.DepartureTime)
}

func (f Flight) Quarantined() bool {
	return f.QuarantineReason != ""
}

// SeatAccount is one flight's seat accounting read at a single point in time.
type SeatAccount struct {
	Flight            Flight
	OutstandingTokens int
	ActiveBookings    int
}

// FlightSummary is the read model returned by search: the flight joined with its
// locations and aircraft.
type FlightSummary struct {
	Flight
	Departure Location `json:"departure"`
	Arrival   Location `json:"arrival"`
	Aircraft  Aircraft `json:"aircraft"`
}
