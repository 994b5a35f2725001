package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/Viduth04/imax-backend/internal/orders"
	"github.com/Viduth04/imax-backend/internal/stores/kafka"
	"github.com/Viduth04/imax-backend/pkg/ctxmanage"
	"github.com/Viduth04/imax-backend/pkg/logkey"

	"github.com/gin-gonic/gin"
)

func (h *Handler) CreatePaymentIntent(c *gin.Context) {
	ctx := c.Request.Context()

	cl, ok := claims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Not authorized"})
		return
	}

	var in struct {
		OrderID string `json:"order_id" validate:"required"`
	}
	if !h.bindAndValidate(c, &in) {
		return
	}

	intent, err := h.payments.CreateOrReuseIntent(ctx, cl, in.OrderID)
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":       true,
		"client_secret": intent.ClientSecret,
		"intent_id":     intent.ID,
	})
}

func (h *Handler) ConfirmPayment(c *gin.Context) {
	ctx := c.Request.Context()

	cl, ok := claims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Not authorized"})
		return
	}

	var in struct {
		OrderID  string `json:"order_id" validate:"required"`
		IntentID string `json:"intent_id" validate:"required"`
	}
	if !h.bindAndValidate(c, &in) {
		return
	}

	o, err := h.payments.Confirm(ctx, cl, in.OrderID, in.IntentID)
	if err != nil {
		renderError(c, err)
		return
	}

	h.publishOrderPaid(c, o)
	c.JSON(http.StatusOK, gin.H{"success": true, "order": o})
}

// publishOrderPaid emits one event per line item. Failures are logged and
// swallowed; the payment already settled.
func (h *Handler) publishOrderPaid(c *gin.Context, o orders.Order) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)

	for _, it := range o.Items {
		event := kafka.OrderPaidEvent{
			OrderId:   o.ID,
			ProductId: it.ProductID,
			Quantity:  it.Quantity,
			CreatedAt: o.CreatedAt,
		}
		payload, err := json.Marshal(event)
		if err != nil {
			continue
		}
		if err := h.k.ProduceMessage(kafka.TopicOrderPaid, []byte(o.ID), payload); err != nil {
			slog.Error("publishing order paid event",
				slog.String(logkey.TraceID, traceId),
				slog.String(logkey.OrderID, o.ID),
				slog.String(logkey.Error, err.Error()))
		}
	}
}
