package internal

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"labpower-backend/config"
	"labpower-backend/internal/api"
	"labpower-backend/internal/db"
	"labpower-backend/internal/engine"
	"labpower-backend/internal/model"
	"labpower-backend/internal/notification"
	"labpower-backend/internal/optimizer"
	"labpower-backend/internal/store"
)

// TestAvailabilityEndToEnd seeds a laboratory with machines, a tariff window
// and appointments, then exercises the HTTP surface against the live engine.
func TestAvailabilityEndToEnd(t *testing.T) {
	gin.SetMode(gin.TestMode)

	testDB, err := gorm.Open(sqlite.Open("file:integration?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, _ := testDB.DB()
	defer sqlDB.Close()

	require.NoError(t, db.Migrate(testDB))

	cfg := &config.Config{}
	cfg.ApplyDefaults()

	appStore := store.NewGormStore(testDB)
	eng, err := engine.NewService(cfg.Scheduling)
	require.NoError(t, err)
	opt, err := optimizer.New(cfg.Optimizer, cfg.Scheduling)
	require.NoError(t, err)

	router := api.NewRouter(cfg, appStore, eng, opt, nil, nil)

	// --- Seed reference data ---
	lab := model.Laboratory{ID: 1, Name: "Laboratorio Central", Location: "Planta 2"}
	require.NoError(t, testDB.Create(&lab).Error)
	machines := []model.Machine{
		{ID: 1, LaboratoryID: 1, Name: "Centrífuga", PowerConsumption: 2.5},
		{ID: 2, LaboratoryID: 1, Name: "Espectrómetro", PowerConsumption: 1.5},
	}
	require.NoError(t, testDB.Create(&machines).Error)
	// 2026-01-05 is a Monday (weekday 1).
	require.NoError(t, testDB.Create(&model.PreferredHour{
		DayOfWeek: 1, StartTime: "09:00", EndTime: "11:00", PowerConsumption: 10,
	}).Error)

	ctx := context.Background()
	booked := model.Appointment{
		LaboratoryID: 1, Date: "2026-01-05", StartTime: "09:00", EndTime: "11:00",
		UserName: "Ana", UserEmail: "ana@example.com", Status: model.StatusConfirmed,
	}
	require.NoError(t, appStore.CreateAppointment(ctx, &booked, []int64{1}))

	ghost := model.Appointment{
		LaboratoryID: 1, Date: "2026-01-05", StartTime: "14:00", EndTime: "16:00",
		UserName: "Luis", UserEmail: "luis@example.com",
	}
	require.NoError(t, appStore.CreateAppointment(ctx, &ghost, []int64{2}))
	_, _, err = appStore.CancelAppointment(ctx, ghost.ID)
	require.NoError(t, err)

	// --- checkAvailability ---
	body := `{"date":"2026-01-05","laboratory_id":1,"machine_ids":[1,2],"duration_hours":2}`
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, "/api/availability", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		TimeSlots []struct {
			StartTime            string  `json:"start_time"`
			EndTime              string  `json:"end_time"`
			Available            bool    `json:"available"`
			PowerConsumption     float64 `json:"power_consumption"`
			PowerSpikePercentage float64 `json:"power_spike_percentage"`
			Reason               string  `json:"reason"`
		} `json:"time_slots"`
		EfficiencyGroups []struct {
			ID    string `json:"id"`
			Label string `json:"label"`
			Slots []struct {
				StartTime string `json:"start_time"`
			} `json:"slots"`
		} `json:"efficiency_groups"`
		Recommendations struct {
			BestSlot *struct {
				StartTime string `json:"start_time"`
			} `json:"best_slot"`
			EnergyEfficientSlots []struct {
				PowerConsumption float64 `json:"power_consumption"`
			} `json:"energy_efficient_slots"`
		} `json:"recommendations"`
		TotalDayConsumption float64 `json:"total_day_consumption"`
		PeakHours           []int   `json:"peak_hours"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	// 08:00-18:00 at 30-minute steps fits 17 two-hour slots.
	require.Len(t, resp.TimeSlots, 17)

	slotByStart := func(start string) (int, bool) {
		for i, s := range resp.TimeSlots {
			if s.StartTime == start {
				return i, true
			}
		}
		return 0, false
	}

	// The confirmed 09:00-11:00 booking on machine 1 blocks every
	// overlapping slot.
	i, ok := slotByStart("10:30")
	require.True(t, ok)
	assert.False(t, resp.TimeSlots[i].Available)
	assert.Equal(t, "Horario ya reservado", resp.TimeSlots[i].Reason)

	// The cancelled 14:00-16:00 booking must not block or weigh anything.
	i, ok = slotByStart("14:00")
	require.True(t, ok)
	assert.True(t, resp.TimeSlots[i].Available)
	assert.InDelta(t, 4.0, resp.TimeSlots[i].PowerConsumption, 1e-9, "machine base load only")

	// Grouping is total.
	grouped := 0
	for _, g := range resp.EfficiencyGroups {
		grouped += len(g.Slots)
	}
	assert.Equal(t, len(resp.TimeSlots), grouped)

	require.NotNil(t, resp.Recommendations.BestSlot)
	assert.Greater(t, resp.TotalDayConsumption, 0.0)

	// --- optimizeScheduling ---
	w = httptest.NewRecorder()
	req, _ = http.NewRequest(http.MethodPost, "/api/optimize",
		strings.NewReader(`{"laboratory_id":1,"date":"2026-01-05","requested_duration_hours":2}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var optResp struct {
		RecommendedSlots []struct {
			PowerConsumption float64 `json:"power_consumption"`
		} `json:"recommended_slots"`
		AlternativeSchedules []struct {
			ID string `json:"id"`
		} `json:"alternative_schedules"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &optResp))
	assert.NotEmpty(t, optResp.RecommendedSlots)
	assert.Len(t, optResp.AlternativeSchedules, 3)

	// --- energy profile ---
	w = httptest.NewRecorder()
	req, _ = http.NewRequest(http.MethodGet, "/api/laboratories/1/energy-profile?date=2026-01-05", nil)
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var profile struct {
		Hourly []struct {
			Hour        int     `json:"hour"`
			Consumption float64 `json:"consumption"`
		} `json:"hourly_consumption"`
		TotalDayConsumption float64 `json:"total_day_consumption"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &profile))
	require.Len(t, profile.Hourly, 24)
	assert.Equal(t, resp.TotalDayConsumption, profile.TotalDayConsumption)

	// --- unknown laboratory ---
	w = httptest.NewRecorder()
	req, _ = http.NewRequest(http.MethodPost, "/api/availability",
		strings.NewReader(`{"date":"2026-01-05","laboratory_id":99,"machine_ids":[1]}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

// TestCancelDispatchesNotificationOnce cancels the same appointment twice and
// asserts that subscribers are only notified for the cancel that actually
// freed the slot.
func TestCancelDispatchesNotificationOnce(t *testing.T) {
	gin.SetMode(gin.TestMode)

	testDB, err := gorm.Open(sqlite.Open("file:integration-cancel?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, _ := testDB.DB()
	defer sqlDB.Close()
	require.NoError(t, db.Migrate(testDB))

	cfg := &config.Config{}
	cfg.ApplyDefaults()

	appStore := store.NewGormStore(testDB)
	eng, err := engine.NewService(cfg.Scheduling)
	require.NoError(t, err)
	opt, err := optimizer.New(cfg.Optimizer, cfg.Scheduling)
	require.NoError(t, err)

	// The pool is never started, so dispatched jobs stay queued for inspection.
	notifier := notification.NewWorkerPool(2, testDB, &webpush.Options{})
	router := api.NewRouter(cfg, appStore, eng, opt, &webpush.Options{}, notifier)

	lab := model.Laboratory{ID: 1, Name: "Laboratorio Central"}
	require.NoError(t, testDB.Create(&lab).Error)
	require.NoError(t, testDB.Create(&model.Machine{ID: 1, LaboratoryID: 1, Name: "Centrífuga", PowerConsumption: 2.5}).Error)

	appt := model.Appointment{
		LaboratoryID: 1, Date: "2026-01-05", StartTime: "09:00", EndTime: "11:00",
		UserName: "Ana", UserEmail: "ana@example.com", Status: model.StatusConfirmed,
	}
	require.NoError(t, appStore.CreateAppointment(context.Background(), &appt, []int64{1}))

	cancel := func() int {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest(http.MethodDelete, fmt.Sprintf("/api/appointments/%d", appt.ID), nil)
		router.ServeHTTP(w, req)
		return w.Code
	}

	require.Equal(t, http.StatusNoContent, cancel())
	select {
	case labID := <-notifier.Jobs():
		assert.Equal(t, int64(1), labID)
	default:
		t.Fatal("expected a notification dispatch after the first cancel")
	}

	require.Equal(t, http.StatusNoContent, cancel())
	select {
	case <-notifier.Jobs():
		t.Fatal("a repeated cancel must not dispatch another notification")
	default:
	}
}
