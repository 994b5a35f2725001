package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/Viduth04/imax-backend/internal/auth"
	"github.com/Viduth04/imax-backend/internal/stores/kafka"
	"github.com/Viduth04/imax-backend/internal/users"
	"github.com/Viduth04/imax-backend/pkg/ctxmanage"
	"github.com/Viduth04/imax-backend/pkg/logkey"

	"github.com/gin-gonic/gin"
)

const jwtCookieMaxAge = int(30 * 24 * time.Hour / time.Second)

func (h *Handler) setAuthCookie(c *gin.Context, token string) {
	c.SetSameSite(http.SameSiteNoneMode)
	c.SetCookie("jwt", token, jwtCookieMaxAge, "/", "", h.cfg.CookieSecure, true)
}

func (h *Handler) Register(c *gin.Context) {
	ctx := c.Request.Context()
	traceId := ctxmanage.GetTraceIdOfRequest(c)

	var nu users.NewUser
	if !h.bindAndValidate(c, &nu) {
		return
	}

	u, err := h.users.InsertUser(ctx, nu, auth.RoleUser)
	if err != nil {
		renderError(c, err)
		return
	}

	// The account event is best effort; a broker outage must not fail signup.
	event := kafka.AccountCreatedEvent{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Role:      string(u.Role),
		CreatedAt: u.CreatedAt,
	}
	if payload, err := json.Marshal(event); err == nil {
		if err := h.k.ProduceMessage(kafka.TopicAccountCreated, []byte(u.ID), payload); err != nil {
			slog.Error("publishing account created event",
				slog.String(logkey.TraceID, traceId), slog.String(logkey.Error, err.Error()))
		}
	}

	token, err := h.authKeys.GenerateToken(u.ID, u.Role)
	if err != nil {
		slog.Error("generating token", slog.String(logkey.TraceID, traceId), slog.String(logkey.Error, err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Internal server error"})
		return
	}
	h.setAuthCookie(c, token)

	c.JSON(http.StatusCreated, gin.H{"success": true, "user": u, "token": token})
}

func (h *Handler) Login(c *gin.Context) {
	ctx := c.Request.Context()
	traceId := ctxmanage.GetTraceIdOfRequest(c)

	var in struct {
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required"`
	}
	if !h.bindAndValidate(c, &in) {
		return
	}

	u, err := h.users.Authenticate(ctx, in.Email, in.Password)
	if err != nil {
		renderError(c, err)
		return
	}

	token, err := h.authKeys.GenerateToken(u.ID, u.Role)
	if err != nil {
		slog.Error("generating token", slog.String(logkey.TraceID, traceId), slog.String(logkey.Error, err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Internal server error"})
		return
	}
	h.setAuthCookie(c, token)

	c.JSON(http.StatusOK, gin.H{"success": true, "user": u, "token": token})
}

func (h *Handler) Logout(c *gin.Context) {
	c.SetSameSite(http.SameSiteNoneMode)
	c.SetCookie("jwt", "", -1, "/", "", h.cfg.CookieSecure, true)
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Logged out"})
}

func (h *Handler) Me(c *gin.Context) {
	ctx := c.Request.Context()

	cl, ok := claims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Not authorized"})
		return
	}

	u, err := h.users.GetByID(ctx, cl.Subject)
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "user": u})
}
