package model

import "time"

// PreferredHour is a recurring weekly tariff window. It is facility-global:
// a window applies to every laboratory on its weekday.
type PreferredHour struct {
	ID               int64     `gorm:"primaryKey" json:"id"`
	DayOfWeek        int       `gorm:"index;not null" json:"day_of_week"` // 0=Sunday .. 6=Saturday
	StartTime        string    `gorm:"size:5;not null" json:"start_time"` // "HH:MM", same-day
	EndTime          string    `gorm:"size:5;not null" json:"end_time"`
	PowerConsumption float64   `gorm:"not null" json:"power_consumption"` // effective load characterizing the window, kW
	CreatedAt        time.Time `json:"-"`
	UpdatedAt        time.Time `json:"-"`
}
