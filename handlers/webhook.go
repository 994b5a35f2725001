package handlers

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/Viduth04/imax-backend/pkg/ctxmanage"
	"github.com/Viduth04/imax-backend/pkg/logkey"

	"github.com/gin-gonic/gin"
	"github.com/stripe/stripe-go/v81"
)

// webhookMaxBody caps the event payload Stripe may deliver.
const webhookMaxBody = int64(64 * 1024)

// PaymentWebhook handles asynchronous processor events. Delivery is
// at-least-once, so events are deduplicated in redis before any side effect
// runs; the settle path itself is idempotent as a second line of defense.
func (h *Handler) PaymentWebhook(c *gin.Context) {
	ctx := c.Request.Context()
	traceId := ctxmanage.GetTraceIdOfRequest(c)

	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, webhookMaxBody))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid payload"})
		return
	}

	var event stripe.Event
	if err := json.Unmarshal(body, &event); err != nil {
		slog.Error("decoding webhook event", slog.String(logkey.TraceID, traceId), slog.String(logkey.Error, err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid payload"})
		return
	}

	if event.Type != "payment_intent.succeeded" {
		c.JSON(http.StatusOK, gin.H{"success": true, "message": "Event ignored"})
		return
	}

	var intent stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &intent); err != nil {
		slog.Error("decoding payment intent", slog.String(logkey.TraceID, traceId), slog.String(logkey.Error, err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid payload"})
		return
	}

	orderID := intent.Metadata["order_id"]
	if orderID == "" {
		slog.Warn("payment intent without order id", slog.String(logkey.TraceID, traceId))
		c.JSON(http.StatusOK, gin.H{"success": true, "message": "Event ignored"})
		return
	}

	first, err := h.rdb.FirstDelivery(ctx, h.cfg.ServiceName, event.ID)
	if err != nil {
		slog.Error("checking event dedup", slog.String(logkey.TraceID, traceId), slog.String(logkey.Error, err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Internal server error"})
		return
	}
	if !first {
		c.JSON(http.StatusOK, gin.H{"success": true, "message": "Duplicate event"})
		return
	}

	o, err := h.payments.ConfirmFromWebhook(ctx, orderID, intent.ID)
	if err != nil {
		renderError(c, err)
		return
	}

	h.publishOrderPaid(c, o)
	c.JSON(http.StatusOK, gin.H{"success": true, "order_id": o.ID})
}
