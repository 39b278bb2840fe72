package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/Domenick1991/airinventory/internal/domain"
	"github.com/Domenick1991/airinventory/internal/service/flights"
	"github.com/gin-gonic/gin"
)

type FlightHandler struct {
	service flights.FlightUseCase
}

// flightResponse only flags a quarantine; the reason is internal and served by the
// admin audit route.
type flightResponse struct {
	ID              string          `json:"id"`
	Departure       domain.Location `json:"departure"`
	Arrival         domain.Location `json:"arrival"`
	Aircraft        domain.Aircraft `json:"aircraft"`
	DepartureTime   string          `json:"departure_time"`
	ArrivalTime     string          `json:"arrival_time"`
	DurationMinutes int             `json:"duration_minutes"`
	Capacity        int             `json:"capacity"`
	AvailableSeats  int             `json:"available_seats"`
	Quarantined     bool            `json:"quarantined"`
}

type availabilityResponse struct {
	FlightID       string `json:"flight_id"`
	AvailableSeats int    `json:"available_seats"`
}

func NewFlightHandler(service flights.FlightUseCase) *FlightHandler {
	return &FlightHandler{service: service}
}

func (h *FlightHandler) Register(router *gin.RouterGroup) {
	router.GET("/flights", h.search)
	router.GET("/flights/:id", h.get)
	router.GET("/flights/:id/availability", h.availability)
}

func (h *FlightHandler) search(c *gin.Context) {
	filter, err := parseSearchFilter(c)
	if err != nil {
		badRequest(c, err)
		return
	}

	list, err := h.service.SearchFlights(c.Request.Context(), filter)
	if err != nil {
		writeError(c, err)
		return
	}

	response := make([]flightResponse, 0, len(list))
	for _, fs := range list {
		response = append(response, toFlightResponse(fs))
	}
	c.JSON(http.StatusOK, response)
}

func (h *FlightHandler) get(c *gin.Context) {
	summary, err := h.service.GetFlight(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toFlightResponse(*summary))
}

func (h *FlightHandler) availability(c *gin.Context) {
	id := c.Param("id")
	available, err := h.service.GetAvailability(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, availabilityResponse{FlightID: id, AvailableSeats: available})
}

// parseSearchFilter reads the query string. "date" (YYYY-MM-DD) selects one UTC
// departure day; depart_after and depart_before take RFC3339 timestamps.
func parseSearchFilter(c *gin.Context) (flights.SearchFilter, error) {
	filter := flights.SearchFilter{
		From:   c.Query("from"),
		To:     c.Query("to"),
		Term:   c.Query("q"),
		SortBy: c.Query("sort"),
		Order:  c.Query("order"),
	}

	if raw := c.Query("only_available"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return filter, err
		}
		filter.OnlyAvailable = v
	}
	if raw := c.Query("date"); raw != "" {
		day, err := time.Parse(time.DateOnly, raw)
		if err != nil {
			return filter, err
		}
		filter.DepartAfter = day
		filter.DepartBefore = day.Add(24 * time.Hour)
	}
	if raw := c.Query("depart_after"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return filter, err
		}
		filter.DepartAfter = t
	}
	if raw := c.Query("depart_before"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return filter, err
		}
		filter.DepartBefore = t
	}
	return filter, nil
}

func toFlightResponse(fs domain.FlightSummary) flightResponse {
	return flightResponse{
		ID:              fs.ID,
		Departure:       fs.Departure,
		Arrival:         fs.Arrival,
		Aircraft:        fs.Aircraft,
		DepartureTime:   fs.DepartureTime.Format(time.RFC3339),
		ArrivalTime:     fs.ArrivalTime.Format(time.RFC3339),
		DurationMinutes: int(fs.Duration().Minutes()),
		Capacity:        fs.Capacity,
		AvailableSeats:  fs.AvailableSeats,
		Quarantined:     fs.Quarantined(),
	}
}
