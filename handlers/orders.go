package handlers

import (
	"net/http"
	"strconv"

	"github.com/Viduth04/imax-backend/internal/orders"

	"github.com/gin-gonic/gin"
)

func (h *Handler) CreateOrder(c *gin.Context) {
	ctx := c.Request.Context()

	cl, ok := claims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Not authorized"})
		return
	}

	var in orders.CheckoutInput
	if !h.bindAndValidate(c, &in) {
		return
	}

	o, err := h.orders.Checkout(ctx, cl, in)
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "order": o})
}

func (h *Handler) MyOrders(c *gin.Context) {
	ctx := c.Request.Context()

	cl, ok := claims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Not authorized"})
		return
	}

	list, err := h.orders.ListForUser(ctx, cl)
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "orders": list})
}

func (h *Handler) ListOrders(c *gin.Context) {
	ctx := c.Request.Context()

	f := orders.ListFilter{Status: orders.Status(c.Query("status"))}
	f.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	f.Limit, _ = strconv.Atoi(c.DefaultQuery("limit", "20"))

	list, total, err := h.orders.ListAll(ctx, f)
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "orders": list, "total": total, "page": f.Page})
}

func (h *Handler) GetOrder(c *gin.Context) {
	ctx := c.Request.Context()

	cl, ok := claims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Not authorized"})
		return
	}

	o, err := h.orders.Get(ctx, cl, c.Param("id"))
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "order": o})
}

func (h *Handler) UpdateOrderAddress(c *gin.Context) {
	ctx := c.Request.Context()

	cl, ok := claims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Not authorized"})
		return
	}

	var addr orders.ShippingAddress
	if !h.bindAndValidate(c, &addr) {
		return
	}

	o, err := h.orders.UpdateAddress(ctx, cl, c.Param("id"), addr)
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "order": o})
}

func (h *Handler) CancelOrder(c *gin.Context) {
	ctx := c.Request.Context()

	cl, ok := claims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Not authorized"})
		return
	}

	o, err := h.orders.Cancel(ctx, cl, c.Param("id"))
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "order": o})
}

func (h *Handler) UpdateOrderStatus(c *gin.Context) {
	ctx := c.Request.Context()

	var in struct {
		Status orders.Status `json:"status" validate:"required"`
	}
	if !h.bindAndValidate(c, &in) {
		return
	}

	o, err := h.orders.UpdateStatus(ctx, c.Param("id"), in.Status)
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "order": o})
}

func (h *Handler) DeleteOrder(c *gin.Context) {
	ctx := c.Request.Context()

	if err := h.orders.Delete(ctx, c.Param("id")); err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Order deleted"})
}

func (h *Handler) OrderStats(c *gin.Context) {
	ctx := c.Request.Context()

	st, err := h.orders.Stats(ctx)
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "stats": st})
}
