package handlers

import (
	"net/http"

	"github.com/Viduth04/imax-backend/internal/users"

	"github.com/gin-gonic/gin"
)

func (h *Handler) ListTechnicians(c *gin.Context) {
	ctx := c.Request.Context()

	list, err := h.users.ListTechnicians(ctx, c.Query("status"), c.Query("specialization"))
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "technicians": list})
}

func (h *Handler) CreateTechnician(c *gin.Context) {
	ctx := c.Request.Context()

	var nt users.NewTechnician
	if !h.bindAndValidate(c, &nt) {
		return
	}
	if !users.ValidSpecialization(nt.Specialization) {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid specialization: " + nt.Specialization})
		return
	}

	u, err := h.users.InsertTechnician(ctx, nt)
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "technician": u})
}

func (h *Handler) GetTechnician(c *gin.Context) {
	ctx := c.Request.Context()

	u, err := h.users.GetTechnician(ctx, c.Param("id"))
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "technician": u})
}

func (h *Handler) UpdateTechnicianStatus(c *gin.Context) {
	ctx := c.Request.Context()

	var in struct {
		Status string `json:"status" validate:"required"`
	}
	if !h.bindAndValidate(c, &in) {
		return
	}

	u, err := h.users.UpdateTechnicianStatus(ctx, c.Param("id"), in.Status)
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "technician": u})
}
