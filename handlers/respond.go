package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/Viduth04/imax-backend/internal/apperr"
	"github.com/Viduth04/imax-backend/internal/auth"
	"github.com/Viduth04/imax-backend/pkg/ctxmanage"
	"github.com/Viduth04/imax-backend/pkg/logkey"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// renderError translates a classified business error into the HTTP envelope.
// Unclassified errors are logged with the trace id and reported as a bare
// internal failure.
func renderError(c *gin.Context, err error) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)

	var status int
	switch apperr.KindOf(err) {
	case apperr.KindNotFound:
		status = http.StatusNotFound
	case apperr.KindAccessDenied:
		status = http.StatusForbidden
	case apperr.KindValidation:
		status = http.StatusBadRequest
	case apperr.KindConflict:
		status = http.StatusBadRequest
	default:
		slog.Error("request failed", slog.String(logkey.TraceID, traceId), slog.String(logkey.Error, err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Internal server error"})
		return
	}

	slog.Warn("request rejected", slog.String(logkey.TraceID, traceId), slog.String(logkey.Error, err.Error()))
	c.JSON(status, gin.H{"success": false, "message": apperr.MessageOf(err)})
}

// bindAndValidate decodes the JSON body and runs struct validation, writing
// the 400 response itself on failure.
func (h *Handler) bindAndValidate(c *gin.Context, v any) bool {
	traceId := ctxmanage.GetTraceIdOfRequest(c)

	if err := c.ShouldBindJSON(v); err != nil {
		slog.Error("invalid request body", slog.String(logkey.TraceID, traceId), slog.String(logkey.Error, err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid request body"})
		return false
	}
	if err := h.validate.Struct(v); err != nil {
		var vErrs validator.ValidationErrors
		if errors.As(err, &vErrs) && len(vErrs) > 0 {
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"message": "Validation failed on field " + vErrs[0].Field(),
			})
			return false
		}
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Validation failed"})
		return false
	}
	return true
}

// claims returns the authenticated caller stored by the auth middleware.
func claims(c *gin.Context) (auth.Claims, bool) {
	cl, ok := c.Request.Context().Value(auth.ClaimsKey).(auth.Claims)
	return cl, ok
}
