package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"labpower-backend/internal/optimizer"
	"labpower-backend/internal/store"
)

type optimizeRequest struct {
	LaboratoryID           int64   `json:"laboratory_id" binding:"required"`
	Date                   string  `json:"date" binding:"required"`
	RequestedDurationHours float64 `json:"requested_duration_hours"`
	MaxPowerBudget         float64 `json:"max_power_budget"`
	PrioritizeEfficiency   *bool   `json:"prioritize_efficiency"`
}

func (h *Handler) optimizeParams(req *optimizeRequest) optimizer.Params {
	duration := req.RequestedDurationHours
	if duration == 0 {
		duration = h.engine.DefaultDurationHours()
	}
	budget := req.MaxPowerBudget
	if budget <= 0 {
		budget = h.optimizer.DefaultBudgetKW()
	}
	prioritize := true
	if req.PrioritizeEfficiency != nil {
		prioritize = *req.PrioritizeEfficiency
	}
	return optimizer.Params{
		DurationHours:        duration,
		MaxPowerBudget:       budget,
		PrioritizeEfficiency: prioritize,
	}
}

// OptimizeScheduling handles POST /api/optimize: day-level recommendation of
// up to three slots under a power budget plus labeled alternative schedules.
func (h *Handler) OptimizeScheduling(c *gin.Context) {
	var req optimizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "laboratory_id and date are required"})
		return
	}
	if req.RequestedDurationHours < 0 {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "requested_duration_hours must be positive"})
		return
	}
	date, err := time.Parse(dateLayout, req.Date)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid date format. Use YYYY-MM-DD."})
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

	profile, err := h.buildProfile(c, req.LaboratoryID, date)
	if err != nil {
		return // response already written
	}

	result := h.optimizer.Optimize(h.optimizeParams(&req), profile)
	c.JSON(http.StatusOK, result)
}

// OptimizeWeek handles POST /api/optimize/weekly: the day-level optimization
// repeated over the five business days starting at the requested date.
func (h *Handler) OptimizeWeek(c *gin.Context) {
	var req optimizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "laboratory_id and date are required"})
		return
	}
	if req.RequestedDurationHours < 0 {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "requested_duration_hours must be positive"})
		return
	}
	date, err := time.Parse(dateLayout, req.Date)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid date format. Use YYYY-MM-DD."})
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

	var days []optimizer.DayInput
	d := date
	for len(days) < 5 {
		if d.Weekday() != time.Saturday && d.Weekday() != time.Sunday {
			dateStr := d.Format(dateLayout)
			appointments, err := h.store.ListAppointments(ctx, store.AppointmentQuery{
				LaboratoryID: req.LaboratoryID,
				DateFrom:     dateStr,
			})
			if err != nil {
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve appointments"})
				return
			}
			preferred, err := h.store.ListPreferredHours(ctx, int(d.Weekday()))
			if err != nil {
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve preferred hours"})
				return
			}
			days = append(days, optimizer.DayInput{Date: d, Appointments: appointments, PreferredHours: preferred})
		}
		d = d.AddDate(0, 0, 1)
	}

	week, err := h.optimizer.OptimizeWeek(req.LaboratoryID, h.optimizeParams(&req), days)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, week)
}

// GetEnergyProfile handles GET /api/laboratories/{lab_id}/energy-profile?date=YYYY-MM-DD.
func (h *Handler) GetEnergyProfile(c *gin.Context) {
	labID, err := strconv.ParseInt(c.Param("lab_id"), 10, 64)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid laboratory ID"})
		return
	}
	date, err := time.Parse(dateLayout, c.Query("date"))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "date query parameter is required as YYYY-MM-DD"})
		return
	}

	if _, err := h.store.GetLaboratory(c.Request.Context(), labID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "Laboratory not found"})
			return
		}
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve laboratory"})
		return
	}

	profile, err := h.buildProfile(c, labID, date)
	if err != nil {
		return
	}
	c.JSON(http.StatusOK, profile)
}

// buildProfile loads the day snapshot and reconstructs the energy profile.
// On failure it writes the error response and returns a non-nil error.
func (h *Handler) buildProfile(c *gin.Context, labID int64, date time.Time) (optimizer.EnergyProfile, error) {
	ctx := c.Request.Context()
	dateStr := date.Format(dateLayout)

	appointments, err := h.store.ListAppointments(ctx, store.AppointmentQuery{
		LaboratoryID: labID,
		DateFrom:     dateStr,
	})
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve appointments"})
		return optimizer.EnergyProfile{}, err
	}
	preferred, err := h.store.ListPreferredHours(ctx, int(date.Weekday()))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve preferred hours"})
		return optimizer.EnergyProfile{}, err
	}

	profile, err := h.optimizer.BuildEnergyProfile(labID, dateStr, appointments, preferred)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return optimizer.EnergyProfile{}, err
	}
	return profile, nil
}
