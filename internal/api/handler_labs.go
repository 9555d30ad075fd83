package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"labpower-backend/internal/store"
)

// GetLaboratories handles the GET /api/laboratories request.
func (h *Handler) GetLaboratories(c *gin.Context) {
	labs, err := h.store.ListLaboratories(c.Request.Context())
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve laboratories"})
		return
	}
	c.JSON(http.StatusOK, labs)
}

// GetLaboratoryMachines handles the GET /api/laboratories/{lab_id}/machines request.
func (h *Handler) GetLaboratoryMachines(c *gin.Context) {
	labID, err := strconv.ParseInt(c.Param("lab_id"), 10, 64)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid laboratory ID"})
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

	machines, err := h.store.ListMachines(c.Request.Context(), labID)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve machines"})
		return
	}
	c.JSON(http.StatusOK, machines)
}
