package engine

import (
	"errors"
	"time"

	"labpower-backend/internal/model"
)

var (
	// ErrInvalidInput is returned for an empty machine set or a non-positive
	// requested duration.
	ErrInvalidInput = errors.New("invalid input parameters")
)

// Params identifies one availability computation.
type Params struct {
	Date          time.Time // the requested calendar day
	MachineIDs    []int64   // machines the caller wants to book, non-empty
	DurationHours float64   // fractional hours allowed
}

// Snapshot is the immutable view of the store the engine computes over.
// Appointments must already exclude cancelled rows and carry their linked
// machines.
type Snapshot struct {
	Machines       []model.Machine       // the requested machines, resolved
	PreferredHours []model.PreferredHour // tariff windows for the date's weekday
	Appointments   []model.Appointment   // laboratory bookings for the date
}

// TimeSlot is a candidate reservation window annotated with its estimated
// power draw. Computed fresh per query, never persisted.
type TimeSlot struct {
	StartTime            string  `json:"start_time"`
	EndTime              string  `json:"end_time"`
	Available            bool    `json:"available"`
	PowerConsumption     float64 `json:"power_consumption"`
	PowerSpikePercentage float64 `json:"power_spike_percentage"`
	MachineIDs           []int64 `json:"machine_ids"`
	Reason               string  `json:"reason,omitempty"`
}

// EfficiencyGroup tiers slots that fall in the same percentage-spike band.
type EfficiencyGroup struct {
	ID                      string     `json:"id"`
	Label                   string     `json:"label"`
	PowerSpikePercentage    int        `json:"power_spike_percentage"` // rounded mean spike of the members
	TimeRange               string     `json:"time_range"`             // earliest start to latest end among members
	AveragePowerConsumption float64    `json:"average_power_consumption"`
	Slots                   []TimeSlot `json:"slots"`
}

// Recommendations are the headline suggestions derived from the available slots.
type Recommendations struct {
	BestSlot             *TimeSlot  `json:"best_slot,omitempty"`
	EnergyEfficientSlots []TimeSlot `json:"energy_efficient_slots"`
	AlternativeDates     []string   `json:"alternative_dates,omitempty"`
}

// AvailabilityResult is the full outcome of one CheckAvailability call.
type AvailabilityResult struct {
	TimeSlots        []TimeSlot        `json:"time_slots"`
	EfficiencyGroups []EfficiencyGroup `json:"efficiency_groups"`
	Recommendations  Recommendations   `json:"recommendations"`
}

// window is a candidate interval in minutes since midnight.
type window struct {
	start int
	end   int
}
