package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"labpower-backend/internal/model"
)

var (
	// ErrNotFound is returned when a referenced laboratory, machine or
	// appointment does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrMachineLabMismatch is returned when an appointment links a machine
	// that belongs to a different laboratory.
	ErrMachineLabMismatch = errors.New("machine does not belong to the appointment's laboratory")
)

// AppointmentQuery narrows a ListAppointments call. Cancelled appointments
// are always excluded unless IncludeCancelled is set.
type AppointmentQuery struct {
	LaboratoryID     int64   // 0 = all laboratories
	DateFrom         string  // "YYYY-MM-DD", inclusive
	DateTo           string  // inclusive; empty = single-date query on DateFrom
	MachineIDs       []int64 // optional: only appointments linked to any of these machines
	IncludeCancelled bool
}

// Store defines the interface for all database operations.
type Store interface {
	DB() *gorm.DB

	ListLaboratories(ctx context.Context) ([]model.Laboratory, error)
	GetLaboratory(ctx context.Context, id int64) (model.Laboratory, error)
	ListMachines(ctx context.Context, laboratoryID int64) ([]model.Machine, error)
	GetMachines(ctx context.Context, laboratoryID int64, ids []int64) ([]model.Machine, error)
	ListPreferredHours(ctx context.Context, dayOfWeek int) ([]model.PreferredHour, error)
	ListAppointments(ctx context.Context, q AppointmentQuery) ([]model.Appointment, error)
	CreateAppointment(ctx context.Context, appt *model.Appointment, machineIDs []int64) error
	CancelAppointment(ctx context.Context, id int64) (model.Appointment, bool, error)
}

// gormStore implements the Store interface using GORM.
type gormStore struct {
	db *gorm.DB
}

// NewGormStore creates a new GORM-backed store.
func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) DB() *gorm.DB {
	return s.db
}

func (s *gormStore) ListLaboratories(ctx context.Context) ([]model.Laboratory, error) {
	var labs []model.Laboratory
	if err := s.db.WithContext(ctx).Order("id").Find(&labs).Error; err != nil {
		return nil, fmt.Errorf("failed to list laboratories: %w", err)
	}
	return labs, nil
}

func (s *gormStore) GetLaboratory(ctx context.Context, id int64) (model.Laboratory, error) {
	var lab model.Laboratory
	err := s.db.WithContext(ctx).First(&lab, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return lab, fmt.Errorf("laboratory %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return lab, fmt.Errorf("failed to get laboratory %d: %w", id, err)
	}
	return lab, nil
}

func (s *gormStore) ListMachines(ctx context.Context, laboratoryID int64) ([]model.Machine, error) {
	var machines []model.Machine
	if err := s.db.WithContext(ctx).
		Where("laboratory_id = ?", laboratoryID).
		Order("id").
		Find(&machines).Error; err != nil {
		return nil, fmt.Errorf("failed to list machines for laboratory %d: %w", laboratoryID, err)
	}
	return machines, nil
}

// GetMachines resolves a set of machine ids within one laboratory. Any id
// that is missing, or that belongs to another laboratory, yields ErrNotFound.
func (s *gormStore) GetMachines(ctx context.Context, laboratoryID int64, ids []int64) ([]model.Machine, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var machines []model.Machine
	if err := s.db.WithContext(ctx).
		Where("laboratory_id = ? AND id IN ?", laboratoryID, ids).
		Find(&machines).Error; err != nil {
		return nil, fmt.Errorf("failed to get machines: %w", err)
	}
	if len(machines) != len(uniqueIDs(ids)) {
		return nil, fmt.Errorf("one or more machines not found in laboratory %d: %w", laboratoryID, ErrNotFound)
	}
	return machines, nil
}

func (s *gormStore) ListPreferredHours(ctx context.Context, dayOfWeek int) ([]model.PreferredHour, error) {
	var hours []model.PreferredHour
	if err := s.db.WithContext(ctx).
		Where("day_of_week = ?", dayOfWeek).
		Order("start_time").
		Find(&hours).Error; err != nil {
		return nil, fmt.Errorf("failed to list preferred hours for weekday %d: %w", dayOfWeek, err)
	}
	return hours, nil
}

func (s *gormStore) ListAppointments(ctx context.Context, q AppointmentQuery) ([]model.Appointment, error) {
	tx := s.db.WithContext(ctx).Model(&model.Appointment{}).Preload("Machines")

	if !q.IncludeCancelled {
		tx = tx.Where("appointments.status <> ?", model.StatusCancelled)
	}
	if q.LaboratoryID != 0 {
		tx = tx.Where("appointments.laboratory_id = ?", q.LaboratoryID)
	}
	if q.DateTo != "" {
		tx = tx.Where("appointments.date BETWEEN ? AND ?", q.DateFrom, q.DateTo)
	} else {
		tx = tx.Where("appointments.date = ?", q.DateFrom)
	}
	if len(q.MachineIDs) > 0 {
		tx = tx.Where("appointments.id IN (?)",
			s.db.Table("appointment_machines").
				Select("appointment_id").
				Where("machine_id IN ?", q.MachineIDs))
	}

	var appts []model.Appointment
	if err := tx.Order("appointments.date, appointments.start_time").Find(&appts).Error; err != nil {
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}
	return appts, nil
}

// CreateAppointment stores a new reservation together with its machine links.
// Every linked machine must belong to the appointment's laboratory; when the
// estimated power is unset it defaults to the sum of the machine nameplates.
func (s *gormStore) CreateAppointment(ctx context.Context, appt *model.Appointment, machineIDs []int64) error {
	if len(machineIDs) == 0 {
		return fmt.Errorf("appointment requires at least one machine: %w", ErrMachineLabMismatch)
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var machines []model.Machine
		if err := tx.Where("id IN ?", machineIDs).Find(&machines).Error; err != nil {
			return fmt.Errorf("failed to resolve appointment machines: %w", err)
		}
		if len(machines) != len(uniqueIDs(machineIDs)) {
			return fmt.Errorf("one or more machines not found: %w", ErrNotFound)
		}
		for _, m := range machines {
			if m.LaboratoryID != appt.LaboratoryID {
				return fmt.Errorf("machine %d belongs to laboratory %d, not %d: %w",
					m.ID, m.LaboratoryID, appt.LaboratoryID, ErrMachineLabMismatch)
			}
		}

		if appt.PowerConsumption == 0 {
			for _, m := range machines {
				appt.PowerConsumption += m.PowerConsumption
			}
		}
		if appt.Status == "" {
			appt.Status = model.StatusPending
		}

		if err := tx.Create(appt).Error; err != nil {
			return fmt.Errorf("failed to create appointment: %w", err)
		}
		if err := tx.Model(appt).Association("Machines").Replace(&machines); err != nil {
			return fmt.Errorf("failed to link appointment machines: %w", err)
		}
		return nil
	})
}

// CancelAppointment soft-deletes a reservation by moving it to the cancelled
// status. The bool reports whether the call changed state: a repeated cancel
// is a no-op and must not trigger another notification. The returned
// appointment carries the laboratory id for follow-up dispatch.
func (s *gormStore) CancelAppointment(ctx context.Context, id int64) (model.Appointment, bool, error) {
	var appt model.Appointment
	err := s.db.WithContext(ctx).First(&appt, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return appt, false, fmt.Errorf("appointment %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return appt, false, fmt.Errorf("failed to get appointment %d: %w", id, err)
	}

	if appt.Status == model.StatusCancelled {
		return appt, false, nil
	}

	appt.Status = model.StatusCancelled
	if err := s.db.WithContext(ctx).Model(&appt).Update("status", model.StatusCancelled).Error; err != nil {
		return appt, false, fmt.Errorf("failed to cancel appointment %d: %w", id, err)
	}
	return appt, true, nil
}

func uniqueIDs(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := ids[:0:0]
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
