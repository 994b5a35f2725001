package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/Viduth04/imax-backend/internal/auth"
	"github.com/Viduth04/imax-backend/pkg/ctxmanage"
	"github.com/Viduth04/imax-backend/pkg/logkey"

	"github.com/gin-gonic/gin"
)

// Authentication validates the JWT from the jwt cookie or the Authorization
// header and stores the claims on the request context.
func (m *Mid) Authentication() gin.HandlerFunc {
	return func(c *gin.Context) {
		traceId := ctxmanage.GetTraceIdOfRequest(c)

		tokenStr := tokenFromRequest(c)
		if tokenStr == "" {
			slog.Error("missing auth token", slog.String(logkey.TraceID, traceId))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Not authorized"})
			return
		}

		claims, err := m.keys.ValidateToken(tokenStr)
		if err != nil {
			slog.Error("invalid auth token", slog.String(logkey.TraceID, traceId), slog.String(logkey.Error, err.Error()))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Not authorized"})
			return
		}

		ctx := context.WithValue(c.Request.Context(), auth.ClaimsKey, claims)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// Authorize wraps a handler so it only runs when the caller holds one of the
// given roles.
func (m *Mid) Authorize(next gin.HandlerFunc, roles ...auth.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := c.Request.Context().Value(auth.ClaimsKey).(auth.Claims)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Not authorized"})
			return
		}
		for _, role := range roles {
			if claims.Role == role {
				next(c)
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"success": false, "message": "Access denied"})
	}
}

func tokenFromRequest(c *gin.Context) string {
	if cookie, err := c.Cookie("jwt"); err == nil && cookie != "" {
		return cookie
	}
	header := c.Request.Header.Get("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return ""
}
