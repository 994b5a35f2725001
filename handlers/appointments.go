package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/Viduth04/imax-backend/internal/appointments"

	"github.com/gin-gonic/gin"
)

func (h *Handler) BookAppointment(c *gin.Context) {
	ctx := c.Request.Context()

	cl, ok := claims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Not authorized"})
		return
	}

	var in appointments.NewAppointment
	if !h.bindAndValidate(c, &in) {
		return
	}

	a, err := h.appointments.Book(ctx, cl, in)
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "appointment": a})
}

func (h *Handler) MyAppointments(c *gin.Context) {
	ctx := c.Request.Context()

	cl, ok := claims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Not authorized"})
		return
	}

	list, err := h.appointments.ListForUser(ctx, cl)
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "appointments": list})
}

func (h *Handler) AvailableSlots(c *gin.Context) {
	ctx := c.Request.Context()

	date := c.Query("date")
	if date == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "date query parameter is required"})
		return
	}

	slots, err := h.appointments.AvailableSlots(ctx, date)
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "slots": slots})
}

func (h *Handler) AssignedAppointments(c *gin.Context) {
	ctx := c.Request.Context()

	cl, ok := claims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Not authorized"})
		return
	}

	f := appointmentFilter(c)
	list, total, err := h.appointments.ListForTechnician(ctx, cl, f)
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "appointments": list, "total": total, "page": f.Page})
}

func (h *Handler) ListAppointments(c *gin.Context) {
	ctx := c.Request.Context()

	f := appointmentFilter(c)
	f.TechnicianID = c.Query("technician_id")

	list, total, err := h.appointments.ListAll(ctx, f)
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "appointments": list, "total": total, "page": f.Page})
}

func appointmentFilter(c *gin.Context) appointments.ListFilter {
	f := appointments.ListFilter{Status: appointments.Status(c.Query("status"))}
	if raw := c.Query("date"); raw != "" {
		if d, err := time.Parse("2006-01-02", raw); err == nil {
			f.Date = &d
		}
	}
	f.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	f.PageSize, _ = strconv.Atoi(c.DefaultQuery("limit", "20"))
	return f
}

func (h *Handler) GetAppointment(c *gin.Context) {
	ctx := c.Request.Context()

	cl, ok := claims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Not authorized"})
		return
	}

	a, err := h.appointments.Get(ctx, cl, c.Param("id"))
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "appointment": a})
}

func (h *Handler) RescheduleAppointment(c *gin.Context) {
	ctx := c.Request.Context()

	cl, ok := claims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Not authorized"})
		return
	}

	var in appointments.Reschedule
	if !h.bindAndValidate(c, &in) {
		return
	}

	a, err := h.appointments.Reschedule(ctx, cl, c.Param("id"), in)
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "appointment": a})
}

func (h *Handler) CancelAppointment(c *gin.Context) {
	ctx := c.Request.Context()

	cl, ok := claims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Not authorized"})
		return
	}

	a, err := h.appointments.Cancel(ctx, cl, c.Param("id"))
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "appointment": a})
}

func (h *Handler) AssignTechnician(c *gin.Context) {
	ctx := c.Request.Context()

	var in struct {
		TechnicianID string `json:"technician_id" validate:"required"`
	}
	if !h.bindAndValidate(c, &in) {
		return
	}

	a, err := h.appointments.AssignTechnician(ctx, c.Param("id"), in.TechnicianID)
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "appointment": a})
}

func (h *Handler) UpdateAppointmentStatus(c *gin.Context) {
	ctx := c.Request.Context()

	cl, ok := claims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Not authorized"})
		return
	}

	var in struct {
		Status appointments.Status `json:"status" validate:"required"`
	}
	if !h.bindAndValidate(c, &in) {
		return
	}

	a, err := h.appointments.UpdateStatus(ctx, cl, c.Param("id"), in.Status)
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "appointment": a})
}

func (h *Handler) AppointmentStats(c *gin.Context) {
	ctx := c.Request.Context()

	st, err := h.appointments.Stats(ctx)
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "stats": st})
}
