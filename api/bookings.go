package api

import (
	"net/http"
	"time"

	"github.com/Domenick1991/airinventory/internal/domain"
	"github.com/Domenick1991/airinventory/internal/service/booking"
	"github.com/Domenick1991/airinventory/internal/service/tickets"
	"github.com/gin-gonic/gin"
)

type BookingHandler struct {
	service booking.BookingUseCase
	tickets tickets.TicketUseCase
}

type createBookingRequest struct {
	CustomerID     string `json:"customer_id"`
	FlightID       string `json:"flight_id"`
	AgentID        string `json:"agent_id"`
	IdempotencyKey string `json:"idempotency_key"`
}

type bookingResponse struct {
	ID           string `json:"id"`
	CustomerID   string `json:"customer_id"`
	FlightID     string `json:"flight_id"`
	Status       string `json:"status"`
	AgentID      string `json:"agent_id,omitempty"`
	CancelReason string `json:"cancel_reason,omitempty"`
	CreatedAt    string `json:"created_at"`
}

func NewBookingHandler(service booking.BookingUseCase, tickets tickets.TicketUseCase) *BookingHandler {
	return &BookingHandler{service: service, tickets: tickets}
}

func (h *BookingHandler) Register(router *gin.RouterGroup) {
	router.POST("/bookings", h.create)
	router.GET("/bookings/:id", h.get)
	router.DELETE("/bookings/:id", h.cancel)
	router.POST("/bookings/:id/ticket", h.issueTicket)
	router.GET("/bookings/:id/ticket", h.getTicket)
	router.GET("/customers/:id/bookings", h.listByCustomer)
}

func (h *BookingHandler) create(c *gin.Context) {
	var req createBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	booking, err := h.service.CreateBooking(c.Request.Context(), booking.CreateBookingInput{
		CustomerID:     req.CustomerID,
		FlightID:       req.FlightID,
		AgentID:        req.AgentID,
		IdempotencyKey: idempotencyKey(c, req.IdempotencyKey),
	})
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, toBookingResponse(booking))
}

func (h *BookingHandler) get(c *gin.Context) {
	booking, err := h.service.GetBooking(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toBookingResponse(booking))
}

func (h *BookingHandler) cancel(c *gin.Context) {
	booking, err := h.service.CancelBooking(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toBookingResponse(booking))
}

func (h *BookingHandler) issueTicket(c *gin.Context) {
	ticket, err := h.service.IssueTicket(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, ticket)
}

func (h *BookingHandler) getTicket(c *gin.Context) {
	ticket, err := h.tickets.GetByBooking(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, ticket)
}

func (h *BookingHandler) listByCustomer(c *gin.Context) {
	list, err := h.service.ListCustomerBookings(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	response := make([]bookingResponse, 0, len(list))
	for i := range list {
		response = append(response, toBookingResponse(&list[i]))
	}
	c.JSON(http.StatusOK, response)
}

func toBookingResponse(b *domain.Booking) bookingResponse {
	return bookingResponse{
		ID:           b.ID,
		CustomerID:   b.CustomerID,
		FlightID:     b.FlightID,
		Status:       string(b.Status),
		AgentID:      b.AgentID,
		CancelReason: b.CancelReason,
		CreatedAt:    b.CreatedAt.Format(time.RFC3339),
	}
}
