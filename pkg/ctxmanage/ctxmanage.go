package ctxmanage

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const TraceIDKey = "trace_id"

// SetTraceIdOfRequest stores a trace id on the gin context, generating one
// when the client did not send X-Request-Id.
func SetTraceIdOfRequest(c *gin.Context) string {
	traceId := c.Request.Header.Get("X-Request-Id")
	if traceId == "" {
		traceId = uuid.NewString()
	}
	c.Set(TraceIDKey, traceId)
	return traceId
}

// GetTraceIdOfRequest returns the trace id for the current request.
func GetTraceIdOfRequest(c *gin.Context) string {
	if v, ok := c.Get(TraceIDKey); ok {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	return uuid.NewString()
}
