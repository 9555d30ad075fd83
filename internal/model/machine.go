package model

import "time"

// Machine represents a piece of laboratory equipment with a nameplate power rating.
// A machine belongs to exactly one laboratory.
type Machine struct {
	ID               int64     `gorm:"primaryKey" json:"id"`
	LaboratoryID     int64     `gorm:"index;not null" json:"laboratory_id"`
	Name             string    `gorm:"size:256;not null" json:"name"`
	PowerConsumption float64   `gorm:"not null" json:"power_consumption"` // kW
	CreatedAt        time.Time `json:"-"`
	UpdatedAt        time.Time `json:"-"`

	// Associations
	Laboratory Laboratory `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}
