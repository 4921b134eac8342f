package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"schoolapi/internal/apperr"
)

// Envelope is the uniform response body: {success, message, data?, count?}.
type Envelope struct {
	Success bool                `json:"success"`
	Message string              `json:"message"`
	Data    any                 `json:"data,omitempty"`
	Count   *int                `json:"count,omitempty"`
	Errors  []apperr.FieldError `json:"errors,omitempty"`
}

// responder renders results and maps errors to their HTTP status. In
// production mode unrecognized errors collapse to a generic message.
type responder struct {
	log        *zap.Logger
	production bool
}

func (r responder) ok(c *gin.Context, status int, message string, data any) {
	c.JSON(status, Envelope{Success: true, Message: message, Data: data})
}

// list renders a collection with its count.
func (r responder) list(c *gin.Context, message string, data any, count int) {
	c.JSON(http.StatusOK, Envelope{Success: true, Message: message, Data: data, Count: &count})
}

func (r responder) fail(c *gin.Context, err error) {
	if vErr, ok := apperr.AsValidation(err); ok {
		c.JSON(http.StatusBadRequest, Envelope{
			Success: false,
			Message: "Validation error",
			Errors:  vErr.Fields,
		})
		return
	}

	if appErr, ok := apperr.As(err); ok {
		r.log.Error("application error",
			zap.Int("status", appErr.Status),
			zap.String("message", appErr.Message),
			zap.Error(appErr.Unwrap()),
		)
		c.JSON(appErr.Status, Envelope{Success: false, Message: appErr.Message})
		return
	}

	r.log.Error("unhandled error", zap.Error(err))
	message := err.Error()
	if r.production {
		message = "Internal server error"
	}
	c.JSON(http.StatusInternalServerError, Envelope{Success: false, Message: message})
}
