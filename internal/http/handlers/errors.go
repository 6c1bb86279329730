package handlers

import (
	"errors"
	"net/http"

	"medtransport/internal/domain"
	"medtransport/internal/http/middleware"

	"github.com/gin-gonic/gin"
)

// ErrorResponse standardizes error payloads.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}

func respondError(c *gin.Context, status int, code, message string, details any) {
	if code == "" {
		code = http.StatusText(status)
	}
	c.JSON(status, gin.H{
		"error":      message,
		"code":       code,
		"details":    details,
		"request_id": middleware.GetRequestID(c),
	})
}

// RespondDomainError maps domain errors to HTTP responses.
func RespondDomainError(c *gin.Context, err error) {
	var capErr domain.CapacityError
	switch {
	case errors.As(err, &capErr):
		respondError(c, http.StatusConflict, "capacity_exceeded", err.Error(), gin.H{
			"requested_seats": capErr.Requested,
			"available_seats": capErr.Available,
		})
	case domain.IsAvailability(err):
		respondError(c, http.StatusUnprocessableEntity, "not_assignable", err.Error(), nil)
	case domain.IsInvalidTransition(err):
		respondError(c, http.StatusConflict, "invalid_transition", err.Error(), nil)
	case domain.IsConcurrency(err):
		respondError(c, http.StatusConflict, "concurrent_modification", err.Error(), nil)
	case domain.IsValidation(err):
		respondError(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
	case domain.IsNotFound(err):
		respondError(c, http.StatusNotFound, "not_found", err.Error(), nil)
	case domain.IsConflict(err):
		respondError(c, http.StatusConflict, "conflict", err.Error(), nil)
	default:
		respondError(c, http.StatusInternalServerError, "internal_error", "something went wrong", nil)
	}
}
