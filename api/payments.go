package api

import (
	"net/http"

	"github.com/Domenick1991/airinventory/internal/domain"
	"github.com/Domenick1991/airinventory/internal/service/payments"
	"github.com/gin-gonic/gin"
)

type PaymentHandler struct {
	service payments.PaymentUseCase
}

type recordPaymentRequest struct {
	Method         domain.PaymentMethod `json:"method"`
	AmountCents    int64                `json:"amount_cents"`
	IdempotencyKey string               `json:"idempotency_key"`
}

type paymentOutcomeRequest struct {
	Status domain.PaymentStatus `json:"status"`
}

func NewPaymentHandler(service payments.PaymentUseCase) *PaymentHandler {
	return &PaymentHandler{service: service}
}

func (h *PaymentHandler) Register(router *gin.RouterGroup) {
	router.POST("/bookings/:id/payments", h.record)
	router.GET("/payments/:id", h.get)
	router.POST("/payments/:id/outcome", h.outcome)
}

func (h *PaymentHandler) record(c *gin.Context) {
	var req recordPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	payment, err := h.service.RecordAttempt(c.Request.Context(), payments.RecordAttemptInput{
		BookingID:      c.Param("id"),
		Method:         req.Method,
		AmountCents:    req.AmountCents,
		IdempotencyKey: idempotencyKey(c, req.IdempotencyKey),
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, payment)
}

func (h *PaymentHandler) get(c *gin.Context) {
	payment, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, payment)
}

// outcome is the gateway callback. Repeated or late outcomes answer 200 with the
// transaction as recorded.
func (h *PaymentHandler) outcome(c *gin.Context) {
	var req paymentOutcomeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	payment, err := h.service.ReportOutcome(c.Request.Context(), c.Param("id"), req.Status)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, payment)
}
