package model

import "time"

// Laboratory represents a laboratory building or room that machines belong to.
type Laboratory struct {
	ID        int64     `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"uniqueIndex;size:128;not null" json:"name"`
	Location  string    `gorm:"size:256" json:"location"`
	CreatedAt time.Time `gorm:"not null" json:"-"`
	UpdatedAt time.Time `gorm:"not null" json:"-"`

	// Associations
	Machines []Machine `gorm:"foreignKey:LaboratoryID" json:"-"`
}
