package api

import (
	"net/http"

	"github.com/Domenick1991/airinventory/internal/domain"
	"github.com/Domenick1991/airinventory/internal/service/luggage"
	"github.com/gin-gonic/gin"
)

type LuggageHandler struct {
	service luggage.LuggageUseCase
}

type checkInRequest struct {
	WeightGrams int `json:"weight_grams"`
}

type advanceLuggageRequest struct {
	Status domain.LuggageStatus `json:"status"`
}

func NewLuggageHandler(service luggage.LuggageUseCase) *LuggageHandler {
	return &LuggageHandler{service: service}
}

func (h *LuggageHandler) Register(router *gin.RouterGroup) {
	router.POST("/tickets/:id/luggage", h.checkIn)
	router.GET("/tickets/:id/luggage", h.list)
	router.PUT("/luggage/:id/status", h.advance)
}

func (h *LuggageHandler) checkIn(c *gin.Context) {
	var req checkInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	bag, err := h.service.CheckIn(c.Request.Context(), c.Param("id"), req.WeightGrams)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, bag)
}

func (h *LuggageHandler) list(c *gin.Context) {
	bags, err := h.service.ListByTicket(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	if bags == nil {
		bags = []domain.Luggage{}
	}
	c.JSON(http.StatusOK, bags)
}

func (h *LuggageHandler) advance(c *gin.Context) {
	var req advanceLuggageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	bag, err := h.service.Advance(c.Request.Context(), c.Param("id"), req.Status)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, bag)
}
