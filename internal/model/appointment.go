package model

import "time"

// Appointment lifecycle states. Cancelled appointments are soft-deleted:
// they stay in the table but are excluded from every power and conflict
// calculation.
const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusCancelled = "cancelled"
)

// Appointment is a confirmed or pending reservation of one or more machines
// in a laboratory for a same-day time window.
type Appointment struct {
	ID               int64     `gorm:"primaryKey" json:"id"`
	LaboratoryID     int64     `gorm:"index;not null" json:"laboratory_id"`
	Date             string    `gorm:"size:10;index;not null" json:"date"` // "YYYY-MM-DD"
	StartTime        string    `gorm:"size:5;not null" json:"start_time"`  // "HH:MM"
	EndTime          string    `gorm:"size:5;not null" json:"end_time"`    // "HH:MM", same-day, start < end
	UserName         string    `gorm:"size:128;not null" json:"user_name"`
	UserEmail        string    `gorm:"size:256;not null" json:"user_email"`
	Purpose          string    `gorm:"size:512" json:"purpose"`
	Status           string    `gorm:"size:16;index;not null;default:pending" json:"status"`
	PowerConsumption float64   `gorm:"not null" json:"power_consumption"` // estimated kW, sum of linked machine nameplates
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"-"`

	// Associations. Every linked machine must belong to LaboratoryID;
	// the store validates this at write time.
	Laboratory Laboratory `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Machines   []Machine  `gorm:"many2many:appointment_machines;" json:"machines,omitempty"`
}

// MachineIDs returns the ids of the machines linked to the appointment.
func (a *Appointment) MachineIDs() []int64 {
	ids := make([]int64, len(a.Machines))
	for i, m := range a.Machines {
		ids[i] = m.ID
	}
	return ids
}
