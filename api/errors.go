package api

import (
	"github.com/Domenick1991/airinventory/internal/api/apierror"
	"github.com/Domenick1991/airinventory/internal/domain"
	"github.com/gin-gonic/gin"
)

type errorResponse struct {
	Error  string `json:"error"`
	Reason string `json:"reason"`
}

func writeError(c *gin.Context, err error) {
	_, reason := apierror.Classify(err)
	_ = c.Error(err)
	c.AbortWithStatusJSON(apierror.HTTPStatus(err), errorResponse{
		Error:  apierror.Message(err),
		Reason: reason,
	})
}

// badRequest reports a malformed request body or query.
func badRequest(c *gin.Context, err error) {
	writeError(c, domain.ValidationError("%v", err))
}

// idempotencyKey prefers the Idempotency-Key header over the body field.
func idempotencyKey(c *gin.Context, fromBody string) string {
	if key := c.GetHeader("Idempotency-Key"); key != "" {
		return key
	}
	return fromBody
}
