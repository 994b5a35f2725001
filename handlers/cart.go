package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (h *Handler) GetCart(c *gin.Context) {
	ctx := c.Request.Context()

	cl, ok := claims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Not authorized"})
		return
	}

	items, err := h.cart.DetailedItems(ctx, cl.Subject)
	if err != nil {
		renderError(c, err)
		return
	}

	var total float64
	for _, it := range items {
		total += it.Price * float64(it.Quantity)
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "items": items, "total": total})
}

func (h *Handler) AddCartItem(c *gin.Context) {
	ctx := c.Request.Context()

	cl, ok := claims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Not authorized"})
		return
	}

	var in struct {
		ProductID string `json:"product_id" validate:"required"`
		Quantity  int    `json:"quantity" validate:"required,min=1"`
	}
	if !h.bindAndValidate(c, &in) {
		return
	}

	if err := h.cart.AddItem(ctx, cl.Subject, in.ProductID, in.Quantity); err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Item added to cart"})
}

func (h *Handler) UpdateCartItem(c *gin.Context) {
	ctx := c.Request.Context()

	cl, ok := claims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Not authorized"})
		return
	}

	var in struct {
		Quantity int `json:"quantity" validate:"required,min=1"`
	}
	if !h.bindAndValidate(c, &in) {
		return
	}

	if err := h.cart.UpdateItem(ctx, cl.Subject, c.Param("productId"), in.Quantity); err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Cart updated"})
}

func (h *Handler) RemoveCartItem(c *gin.Context) {
	ctx := c.Request.Context()

	cl, ok := claims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Not authorized"})
		return
	}

	if err := h.cart.RemoveItem(ctx, cl.Subject, c.Param("productId")); err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Item removed"})
}

func (h *Handler) ClearCart(c *gin.Context) {
	ctx := c.Request.Context()

	cl, ok := claims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Not authorized"})
		return
	}

	if err := h.cart.Clear(ctx, cl.Subject); err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Cart cleared"})
}
