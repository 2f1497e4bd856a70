package utils

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"nimbusdrive/services"
)

type APIError struct {
	Error string `json:"error"`
}

// ErrorResponse writes the error envelope with an explicit status.
func ErrorResponse(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, APIError{Error: message})
}

// DomainErrorResponse maps the service error taxonomy onto HTTP statuses.
// Unrecognized errors become opaque 500s so internals never leak.
func DomainErrorResponse(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrNotFound):
		ErrorResponse(c, http.StatusNotFound, err.Error())
	case errors.Is(err, services.ErrQuotaExceeded):
		ErrorResponse(c, http.StatusConflict, err.Error())
	case errors.Is(err, services.ErrCycleDetected):
		ErrorResponse(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, services.ErrNotEmpty):
		ErrorResponse(c, http.StatusConflict, err.Error())
	case errors.Is(err, services.ErrInvalidState):
		ErrorResponse(c, http.StatusConflict, err.Error())
	case errors.Is(err, services.ErrConflict):
		ErrorResponse(c, http.StatusConflict, err.Error())
	case errors.Is(err, services.ErrDependencyUnavailable):
		ErrorResponse(c, http.StatusServiceUnavailable, err.Error())
	case errors.Is(err, services.ErrValidation):
		ErrorResponse(c, http.StatusBadRequest, err.Error())
	default:
		Logger.Errorw("unhandled error", "path", c.FullPath(), "error", err)
		ErrorResponse(c, http.StatusInternalServerError, "internal server error")
	}
}
