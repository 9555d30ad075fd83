package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"labpower-backend/internal/model"
	"labpower-backend/internal/store"
	"labpower-backend/internal/timeutil"
)

type createAppointmentRequest struct {
	LaboratoryID int64   `json:"laboratory_id" binding:"required"`
	Date         string  `json:"date" binding:"required"`
	StartTime    string  `json:"start_time" binding:"required"`
	EndTime      string  `json:"end_time" binding:"required"`
	UserName     string  `json:"user_name" binding:"required"`
	UserEmail    string  `json:"user_email" binding:"required,email"`
	Purpose      string  `json:"purpose"`
	MachineIDs   []int64 `json:"machine_ids" binding:"required"`
}

// CreateAppointment handles POST /api/appointments. The booking workflow is
// plain validation plus a transactional write; the availability engine only
// advises, the database constraint layer arbitrates races.
func (h *Handler) CreateAppointment(c *gin.Context) {
	var req createAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if len(req.MachineIDs) == 0 {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "machine_ids must not be empty"})
		return
	}
	if _, err := time.Parse(dateLayout, req.Date); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid date format. Use YYYY-MM-DD."})
		return
	}

	start, err := timeutil.ToMinutes(req.StartTime)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid start_time. Use HH:MM."})
		return
	}
	end, err := timeutil.ToMinutes(req.EndTime)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid end_time. Use HH:MM."})
		return
	}
	if start >= end {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "start_time must be before end_time"})
		return
	}

	appt := model.Appointment{
		LaboratoryID: req.LaboratoryID,
		Date:         req.Date,
		StartTime:    req.StartTime,
		EndTime:      req.EndTime,
		UserName:     req.UserName,
		UserEmail:    req.UserEmail,
		Purpose:      req.Purpose,
		Status:       model.StatusPending,
	}

	if err := h.store.CreateAppointment(c.Request.Context(), &appt, req.MachineIDs); err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "One or more machines not found"})
		case errors.Is(err, store.ErrMachineLabMismatch):
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Every machine must belong to the appointment's laboratory"})
		default:
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to create appointment"})
		}
		return
	}

	c.JSON(http.StatusCreated, appt)
}

// ListAppointments handles GET /api/appointments?laboratory_id=&date=.
func (h *Handler) ListAppointments(c *gin.Context) {
	date := c.Query("date")
	if date == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "date query parameter is required"})
		return
	}

	var labID int64
	if raw := c.Query("laboratory_id"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid laboratory_id"})
			return
		}
		labID = parsed
	}

	appts, err := h.store.ListAppointments(c.Request.Context(), store.AppointmentQuery{
		LaboratoryID: labID,
		DateFrom:     date,
	})
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve appointments"})
		return
	}
	c.JSON(http.StatusOK, appts)
}

// CancelAppointment handles DELETE /api/appointments/{id}: a soft delete that
// frees the slot and notifies the laboratory's subscribers.
func (h *Handler) CancelAppointment(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid appointment ID"})
		return
	}

	appt, changed, err := h.store.CancelAppointment(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "Appointment not found"})
			return
		}
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to cancel appointment"})
		return
	}

	// A repeated cancel frees nothing, so subscribers are not notified again.
	if changed && h.notifier != nil {
		h.notifier.Dispatch(appt.LaboratoryID)
	}

	c.Status(http.StatusNoContent)
}
