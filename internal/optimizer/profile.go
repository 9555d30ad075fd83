package optimizer

import (
	"fmt"

	"labpower-backend/internal/model"
	"labpower-backend/internal/timeutil"
)

// HourlyConsumption is one hour of the reconstructed day curve.
type HourlyConsumption struct {
	Hour        int     `json:"hour"`
	Consumption float64 `json:"consumption"` // kW
	Preferred   bool    `json:"preferred"`   // hour falls in a tariff window
}

// EnergyProfile is the reconstructed 24-hour consumption curve for a
// laboratory and date: synthetic base load plus booked appointment power,
// discounted inside preferred tariff windows.
type EnergyProfile struct {
	LaboratoryID        int64               `json:"laboratory_id"`
	Date                string              `json:"date"`
	Hourly              []HourlyConsumption `json:"hourly_consumption"`
	TotalConsumption    float64             `json:"total_day_consumption"` // kWh
	DailyAverage        float64             `json:"daily_average"`         // kW
	PeakHours           []int               `json:"peak_hours"`            // > 1.2 x daily average
	OptimalHours        []int               `json:"optimal_hours"`         // < 0.8 x daily average
	CapacityUtilization float64             `json:"capacity_utilization"`  // % of max daily capacity
}

// BuildEnergyProfile reconstructs the day curve from the snapshot.
// Appointments must already exclude cancelled rows.
func (o *Optimizer) BuildEnergyProfile(laboratoryID int64, date string, appointments []model.Appointment, preferred []model.PreferredHour) (EnergyProfile, error) {
	profile := EnergyProfile{
		LaboratoryID: laboratoryID,
		Date:         date,
		Hourly:       make([]HourlyConsumption, 24),
	}

	for hour := 0; hour < 24; hour++ {
		hourStart := hour * 60
		hourEnd := hourStart + 60

		consumption := o.baseLoad[hour]

		for _, appt := range appointments {
			apptStart, err := timeutil.ToMinutes(appt.StartTime)
			if err != nil {
				return profile, fmt.Errorf("appointment %d start: %w", appt.ID, err)
			}
			apptEnd, err := timeutil.ToMinutes(appt.EndTime)
			if err != nil {
				return profile, fmt.Errorf("appointment %d end: %w", appt.ID, err)
			}
			overlap := timeutil.OverlapMinutes(hourStart, hourEnd, apptStart, apptEnd)
			if overlap > 0 {
				consumption += float64(overlap) / 60.0 * appt.PowerConsumption
			}
		}

		inPreferred := false
		for _, ph := range preferred {
			phStart, err := timeutil.ToMinutes(ph.StartTime)
			if err != nil {
				return profile, fmt.Errorf("preferred hour %d start: %w", ph.ID, err)
			}
			phEnd, err := timeutil.ToMinutes(ph.EndTime)
			if err != nil {
				return profile, fmt.Errorf("preferred hour %d end: %w", ph.ID, err)
			}
			if timeutil.OverlapMinutes(hourStart, hourEnd, phStart, phEnd) > 0 {
				inPreferred = true
				break
			}
		}
		if inPreferred {
			consumption *= o.preferredDiscount
		}

		profile.Hourly[hour] = HourlyConsumption{
			Hour:        hour,
			Consumption: consumption,
			Preferred:   inPreferred,
		}
		profile.TotalConsumption += consumption
	}

	profile.DailyAverage = profile.TotalConsumption / 24
	for _, h := range profile.Hourly {
		switch {
		case h.Consumption > 1.2*profile.DailyAverage:
			profile.PeakHours = append(profile.PeakHours, h.Hour)
		case h.Consumption < 0.8*profile.DailyAverage:
			profile.OptimalHours = append(profile.OptimalHours, h.Hour)
		}
	}
	profile.CapacityUtilization = profile.TotalConsumption / o.maxDailyCapacity * 100

	return profile, nil
}
