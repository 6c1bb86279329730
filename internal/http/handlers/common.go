package handlers

import (
	"net/http"

	intconfig "medtransport/internal/config"
	"medtransport/internal/http/middleware"

	"github.com/gin-gonic/gin"
)

// Cfg holds the environment the router was built with; handlers read the
// geolocation timeout from it when wiring services per request.
var Cfg intconfig.Env

// Init stores the runtime environment for handler wiring.
func Init(env intconfig.Env) {
	Cfg = env
}

// RespondError sends a standard error payload with request_id included.
func RespondError(c *gin.Context, status int, message string, err error) {
	reqID := middleware.GetRequestID(c)
	payload := gin.H{
		"message":    message,
		"request_id": reqID,
	}
	if err != nil {
		payload["error"] = err.Error()
	}
	c.JSON(status, payload)
}

// BindJSONOrError ensures the body is present and parsable.
func BindJSONOrError[T any](c *gin.Context, dst *T) bool {
	if c.Request.Body == nil {
		RespondError(c, http.StatusBadRequest, "empty body", nil)
		return false
	}
	if err := c.ShouldBindJSON(dst); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid payload", err)
		return false
	}
	return true
}
