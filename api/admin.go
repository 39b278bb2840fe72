package api

import (
	"context"
	"net/http"

	"github.com/Domenick1991/airinventory/internal/ledger"
	"github.com/gin-gonic/gin"
)

// InventoryAuditor is the operator surface of the inventory ledger.
type InventoryAuditor interface {
	Audit(ctx context.Context, flightID string) (ledger.AuditReport, error)
	Resolve(ctx context.Context, flightID string) (ledger.AuditReport, error)
}

type AdminHandler struct {
	auditor InventoryAuditor
}

type unresolvedResponse struct {
	Error  string             `json:"error"`
	Report ledger.AuditReport `json:"report"`
}

func NewAdminHandler(auditor InventoryAuditor) *AdminHandler {
	return &AdminHandler{auditor: auditor}
}

func (h *AdminHandler) Register(router *gin.RouterGroup) {
	router.POST("/admin/flights/:id/audit", h.audit)
	router.DELETE("/admin/flights/:id/quarantine", h.resolve)
}

func (h *AdminHandler) audit(c *gin.Context) {
	report, err := h.auditor.Audit(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// resolve lifts a quarantine. A flight whose counts still disagree stays quarantined
// and the report is returned with 409.
func (h *AdminHandler) resolve(c *gin.Context) {
	report, err := h.auditor.Resolve(c.Request.Context(), c.Param("id"))
	if err != nil {
		if report.FlightID != "" && !report.Healthy() {
			c.JSON(http.StatusConflict, unresolvedResponse{Error: err.Error(), Report: report})
			return
		}
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}
