package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/Domenick1991/airinventory/internal/ledger"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdminHandler_audit(t *testing.T) {
	auditor := &MockAuditor{}
	handler := NewAdminHandler(auditor)

	c, w := newTestContext("POST", "/api/v1/admin/flights/WB101/audit", nil)
	c.Params = gin.Params{{Key: "id", Value: "WB101"}}
	report := ledger.AuditReport{FlightID: "WB101", Capacity: 189, Available: 188, OutstandingTokens: 1, ActiveBookings: 1}
	auditor.On("Audit", c.Request.Context(), "WB101").Return(report, nil)

	handler.audit(c)

	assert.Equal(t, http.StatusOK, w.Code)
	var response ledger.AuditReport
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, report, response)
}

func TestAdminHandler_resolve_StillInconsistent(t *testing.T) {
	auditor := &MockAuditor{}
	handler := NewAdminHandler(auditor)

	c, w := newTestContext("DELETE", "/api/v1/admin/flights/WB101/quarantine", nil)
	c.Params = gin.Params{{Key: "id", Value: "WB101"}}
	report := ledger.AuditReport{FlightID: "WB101", Capacity: 4, Available: 2, Quarantined: true,
		QuarantineReason: "audit", Problem: "available 2 + outstanding tokens 0 != capacity 4"}
	auditor.On("Resolve", c.Request.Context(), "WB101").Return(report, errors.New("flight WB101 still inconsistent"))

	handler.resolve(c)

	assert.Equal(t, http.StatusConflict, w.Code)
	var response unresolvedResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.True(t, response.Report.Quarantined)
	assert.Equal(t, "audit", response.Report.QuarantineReason)
}

func TestAdminHandler_resolve(t *testing.T) {
	auditor := &MockAuditor{}
	handler := NewAdminHandler(auditor)

	c, w := newTestContext("DELETE", "/api/v1/admin/flights/WB101/quarantine", nil)
	c.Params = gin.Params{{Key: "id", Value: "WB101"}}
	auditor.On("Resolve", c.Request.Context(), "WB101").Return(ledger.AuditReport{FlightID: "WB101", Capacity: 4, Available: 4}, nil)

	handler.resolve(c)

	assert.Equal(t, http.StatusOK, w.Code)
}
