package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/songzhibin97/academia/pkg/entity"
	"github.com/songzhibin97/academia/pkg/portal"
)

// ErrorResponder renders failures as portal.ErrorDetails.
type ErrorResponder struct {
	// legacy answers every entity failure with 400 Bad Request.
	legacy bool
}

// NewErrorResponder creates a responder. With legacy set, entity errors of
// every kind map to 400.
func NewErrorResponder(legacy bool) *ErrorResponder {
	return &ErrorResponder{legacy: legacy}
}

// Status returns the HTTP status for err.
func (r *ErrorResponder) Status(err error) int {
	var e *entity.Error
	if !errors.As(err, &e) {
		return http.StatusInternalServerError
	}
	if r.legacy {
		return http.StatusBadRequest
	}

	switch e.Kind {
	case entity.KindInvalidInput:
		return http.StatusBadRequest
	case entity.KindNotFound:
		return http.StatusNotFound
	case entity.KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// Respond aborts the request with the status and message derived from err.
// Storage failures are reported without their cause.
func (r *ErrorResponder) Respond(c *gin.Context, err error) {
	status := r.Status(err)
	message := entity.MessageOf(err)
	if !errors.As(err, new(*entity.Error)) {
		message = "Internal server error"
	}
	c.Error(err)
	Abort(c, status, message)
}

// Abort stops the chain with an ErrorDetails body.
func Abort(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, portal.NewErrorDetails(message, c.Request.URL.Path))
}
