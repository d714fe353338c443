// Package respond writes JSON error bodies for the HTTP handlers.
package respond

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/alanyang/agentflow/internal/domain/apperr"
)

const internalMessage = "Internal server error"

// Status maps an error class to its HTTP status.
func Status(err error) int {
	switch {
	case errors.Is(err, apperr.ErrValidation), errors.Is(err, apperr.ErrConflict):
		return http.StatusBadRequest
	case errors.Is(err, apperr.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperr.ErrUnauthorized):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// Error writes {message} for err. Unclassified errors are logged and answered
// with a generic message so internal details never reach the client.
func Error(c *gin.Context, err error) {
	status := Status(err)
	msg := apperr.PublicMessage(err)
	if status == http.StatusInternalServerError || msg == "" {
		slog.ErrorContext(c.Request.Context(), "request failed",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"error", err,
		)
		status = http.StatusInternalServerError
		msg = internalMessage
	}
	c.AbortWithStatusJSON(status, gin.H{"message": msg})
}

// Message writes {message} with the given status.
func Message(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, gin.H{"message": msg})
}
