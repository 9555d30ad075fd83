package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"labpower-backend/internal/engine"
	"labpower-backend/internal/store"
)

const dateLayout = "2006-01-02"

type availabilityRequest struct {
	Date          string  `json:"date" binding:"required"`
	LaboratoryID  int64   `json:"laboratory_id" binding:"required"`
	MachineIDs    []int64 `json:"machine_ids" binding:"required"`
	DurationHours float64 `json:"duration_hours"`
}

type availabilityResponse struct {
	TimeSlots           []engine.TimeSlot        `json:"time_slots"`
	EfficiencyGroups    []engine.EfficiencyGroup `json:"efficiency_groups"`
	Recommendations     engine.Recommendations   `json:"recommendations"`
	TotalDayConsumption float64                  `json:"total_day_consumption"`
	PeakHours           []int                    `json:"peak_hours"`
}

// CheckAvailability handles the POST /api/availability request: it fetches
// the day's snapshot from the store, runs the availability engine over it and
// attaches the day-level consumption figures from the energy profile.
func (h *Handler) CheckAvailability(c *gin.Context) {
	var req availabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "date, laboratory_id and machine_ids are required"})
		return
	}
	if len(req.MachineIDs) == 0 {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "machine_ids must not be empty"})
		return
	}

	date, err := time.Parse(dateLayout, req.Date)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid date format. Use YYYY-MM-DD."})
		return
	}

	duration := req.DurationHours
	if duration == 0 {
		duration = h.engine.DefaultDurationHours()
	}
	if duration < 0 {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "duration_hours must be positive"})
		return
	}

	ctx := c.Request.Context()

	if _, err := h.store.GetLaboratory(ctx, req.LaboratoryID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "Laboratory not found"})
			return
		}
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve laboratory"})
		return
	}

	machines, err := h.store.GetMachines(ctx, req.LaboratoryID, req.MachineIDs)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "One or more machines not found in the laboratory"})
			return
		}
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve machines"})
		return
	}

	preferred, err := h.store.ListPreferredHours(ctx, int(date.Weekday()))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve preferred hours"})
		return
	}

	appointments, err := h.store.ListAppointments(ctx, store.AppointmentQuery{
		LaboratoryID: req.LaboratoryID,
		DateFrom:     req.Date,
	})
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve appointments"})
		return
	}

	result, err := h.engine.CheckAvailability(
		engine.Params{Date: date, MachineIDs: req.MachineIDs, DurationHours: duration},
		engine.Snapshot{Machines: machines, PreferredHours: preferred, Appointments: appointments},
	)
	if err != nil {
		if errors.Is(err, engine.ErrInvalidInput) {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	profile, err := h.optimizer.BuildEnergyProfile(req.LaboratoryID, req.Date, appointments, preferred)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, availabilityResponse{
		TimeSlots:           result.TimeSlots,
		EfficiencyGroups:    result.EfficiencyGroups,
		Recommendations:     result.Recommendations,
		TotalDayConsumption: profile.TotalConsumption,
		PeakHours:           profile.PeakHours,
	})
}
