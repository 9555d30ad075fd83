package store

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"labpower-backend/internal/model"
)

// newTestStore opens a fresh in-memory SQLite database, migrates the schema
// and seeds two laboratories with machines.
func newTestStore(t *testing.T) Store {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
	})

	require.NoError(t, db.AutoMigrate(
		&model.Laboratory{},
		&model.Machine{},
		&model.PreferredHour{},
		&model.Appointment{},
		&model.PushSubscription{},
	))

	labs := []model.Laboratory{
		{ID: 1, Name: "Laboratorio de Química", Location: "Edificio A"},
		{ID: 2, Name: "Laboratorio de Física", Location: "Edificio B"},
	}
	require.NoError(t, db.Create(&labs).Error)

	machines := []model.Machine{
		{ID: 1, LaboratoryID: 1, Name: "Centrífuga", PowerConsumption: 2.5},
		{ID: 2, LaboratoryID: 1, Name: "Espectrómetro", PowerConsumption: 1.5},
		{ID: 3, LaboratoryID: 2, Name: "Horno de vacío", PowerConsumption: 5},
	}
	require.NoError(t, db.Create(&machines).Error)

	return NewGormStore(db)
}

func TestGetMachines(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	machines, err := s.GetMachines(ctx, 1, []int64{1, 2})
	require.NoError(t, err)
	assert.Len(t, machines, 2)

	// A machine from another laboratory is not found in this one.
	_, err = s.GetMachines(ctx, 1, []int64{1, 3})
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = s.GetMachines(ctx, 1, []int64{99})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetLaboratoryNotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.GetLaboratory(context.Background(), 42)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCreateAppointment(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	appt := model.Appointment{
		LaboratoryID: 1,
		Date:         "2026-01-05",
		StartTime:    "09:00",
		EndTime:      "11:00",
		UserName:     "Ana",
		UserEmail:    "ana@example.com",
	}
	require.NoError(t, s.CreateAppointment(ctx, &appt, []int64{1, 2}))

	// Estimated power defaults to the sum of the machine nameplates.
	assert.InDelta(t, 4.0, appt.PowerConsumption, 1e-9)
	assert.Equal(t, model.StatusPending, appt.Status)

	listed, err := s.ListAppointments(ctx, AppointmentQuery{LaboratoryID: 1, DateFrom: "2026-01-05"})
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.ElementsMatch(t, []int64{1, 2}, listed[0].MachineIDs())
}

func TestCreateAppointmentCrossLabMachine(t *testing.T) {
	s := newTestStore(t)

	appt := model.Appointment{
		LaboratoryID: 1,
		Date:         "2026-01-05",
		StartTime:    "09:00",
		EndTime:      "11:00",
		UserName:     "Ana",
		UserEmail:    "ana@example.com",
	}
	// Machine 3 lives in laboratory 2.
	err := s.CreateAppointment(context.Background(), &appt, []int64{1, 3})
	assert.ErrorIs(t, err, ErrMachineLabMismatch)

	listed, err := s.ListAppointments(context.Background(), AppointmentQuery{LaboratoryID: 1, DateFrom: "2026-01-05"})
	require.NoError(t, err)
	assert.Empty(t, listed, "the transaction must roll back")
}

func TestListAppointmentsExcludesCancelled(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	first := model.Appointment{
		LaboratoryID: 1, Date: "2026-01-05", StartTime: "09:00", EndTime: "11:00",
		UserName: "Ana", UserEmail: "ana@example.com",
	}
	require.NoError(t, s.CreateAppointment(ctx, &first, []int64{1}))
	second := model.Appointment{
		LaboratoryID: 1, Date: "2026-01-05", StartTime: "14:00", EndTime: "16:00",
		UserName: "Luis", UserEmail: "luis@example.com",
	}
	require.NoError(t, s.CreateAppointment(ctx, &second, []int64{2}))

	cancelled, changed, err := s.CancelAppointment(ctx, first.ID)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, model.StatusCancelled, cancelled.Status)
	assert.Equal(t, int64(1), cancelled.LaboratoryID)

	listed, err := s.ListAppointments(ctx, AppointmentQuery{LaboratoryID: 1, DateFrom: "2026-01-05"})
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, second.ID, listed[0].ID)

	// Cancelling twice is a no-op and reports no state change.
	again, changed, err := s.CancelAppointment(ctx, first.ID)
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, model.StatusCancelled, again.Status)

	all, err := s.ListAppointments(ctx, AppointmentQuery{LaboratoryID: 1, DateFrom: "2026-01-05", IncludeCancelled: true})
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestListAppointmentsMachineFilter(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	onM1 := model.Appointment{
		LaboratoryID: 1, Date: "2026-01-05", StartTime: "09:00", EndTime: "11:00",
		UserName: "Ana", UserEmail: "ana@example.com",
	}
	require.NoError(t, s.CreateAppointment(ctx, &onM1, []int64{1}))
	onM2 := model.Appointment{
		LaboratoryID: 1, Date: "2026-01-05", StartTime: "11:00", EndTime: "13:00",
		UserName: "Luis", UserEmail: "luis@example.com",
	}
	require.NoError(t, s.CreateAppointment(ctx, &onM2, []int64{2}))

	listed, err := s.ListAppointments(ctx, AppointmentQuery{
		LaboratoryID: 1, DateFrom: "2026-01-05", MachineIDs: []int64{2},
	})
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, onM2.ID, listed[0].ID)
}

func TestListAppointmentsDateRange(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for i, date := range []string{"2026-01-05", "2026-01-06", "2026-01-09"} {
		appt := model.Appointment{
			LaboratoryID: 1, Date: date, StartTime: "09:00", EndTime: "10:00",
			UserName: fmt.Sprintf("user%d", i), UserEmail: fmt.Sprintf("user%d@example.com", i),
		}
		require.NoError(t, s.CreateAppointment(ctx, &appt, []int64{1}))
	}

	listed, err := s.ListAppointments(ctx, AppointmentQuery{
		LaboratoryID: 1, DateFrom: "2026-01-05", DateTo: "2026-01-07",
	})
	require.NoError(t, err)
	assert.Len(t, listed, 2)
}

func TestListPreferredHours(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	hours := []model.PreferredHour{
		{DayOfWeek: 1, StartTime: "09:00", EndTime: "12:00", PowerConsumption: 3},
		{DayOfWeek: 1, StartTime: "14:00", EndTime: "16:00", PowerConsumption: 2},
		{DayOfWeek: 2, StartTime: "08:00", EndTime: "10:00", PowerConsumption: 4},
	}
	require.NoError(t, s.DB().Create(&hours).Error)

	monday, err := s.ListPreferredHours(ctx, 1)
	require.NoError(t, err)
	require.Len(t, monday, 2)
	assert.Equal(t, "09:00", monday[0].StartTime)

	sunday, err := s.ListPreferredHours(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, sunday)
}
