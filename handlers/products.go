package handlers

import (
	"net/http"
	"strconv"

	"github.com/Viduth04/imax-backend/internal/products"

	"github.com/gin-gonic/gin"
)

func (h *Handler) ListProducts(c *gin.Context) {
	ctx := c.Request.Context()

	f := products.ListFilter{
		Search:   c.Query("search"),
		Category: c.Query("category"),
		Brand:    c.Query("brand"),
		Status:   c.Query("status"),
	}
	f.MinPrice, _ = strconv.ParseFloat(c.Query("min_price"), 64)
	f.MaxPrice, _ = strconv.ParseFloat(c.Query("max_price"), 64)
	f.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	f.Limit, _ = strconv.Atoi(c.DefaultQuery("limit", "12"))

	list, total, err := h.products.ListProducts(ctx, f)
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"products": list,
		"total":    total,
		"page":     f.Page,
	})
}

func (h *Handler) GetProduct(c *gin.Context) {
	ctx := c.Request.Context()

	p, err := h.products.GetProduct(ctx, c.Param("id"))
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "product": p})
}

func (h *Handler) CreateProduct(c *gin.Context) {
	ctx := c.Request.Context()

	var np products.NewProduct
	if !h.bindAndValidate(c, &np) {
		return
	}
	if !products.ValidCategory(np.Category) {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid category: " + np.Category})
		return
	}

	p, err := h.products.InsertProduct(ctx, np)
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "product": p})
}

func (h *Handler) UpdateProduct(c *gin.Context) {
	ctx := c.Request.Context()

	var np products.NewProduct
	if !h.bindAndValidate(c, &np) {
		return
	}
	if !products.ValidCategory(np.Category) {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid category: " + np.Category})
		return
	}

	p, err := h.products.UpdateProduct(ctx, c.Param("id"), np)
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "product": p})
}

func (h *Handler) DeleteProduct(c *gin.Context) {
	ctx := c.Request.Context()

	if err := h.products.DeleteProduct(ctx, c.Param("id")); err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Product deleted"})
}
