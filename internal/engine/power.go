package engine

import (
	"fmt"

	"labpower-backend/internal/timeutil"
)

// estimatePower sums the three contributions that make up a slot's estimated
// draw: the flat nameplate load of the requested machines, the
// overlap-weighted load of the day's preferred-hour tariff windows, and the
// overlap-weighted load of concurrent appointments. No rounding happens here;
// formatting belongs to the presentation layer.
func (s *Service) estimatePower(w window, params Params, snap Snapshot) (float64, error) {
	total := 0.0
	for _, m := range snap.Machines {
		total += m.PowerConsumption
	}

	slotMinutes := w.end - w.start

	for _, ph := range snap.PreferredHours {
		phStart, err := timeutil.ToMinutes(ph.StartTime)
		if err != nil {
			return 0, fmt.Errorf("preferred hour %d start: %w", ph.ID, err)
		}
		phEnd, err := timeutil.ToMinutes(ph.EndTime)
		if err != nil {
			return 0, fmt.Errorf("preferred hour %d end: %w", ph.ID, err)
		}

		overlap := timeutil.OverlapMinutes(w.start, w.end, phStart, phEnd)
		if overlap > 0 {
			total += float64(overlap) / float64(slotMinutes) * ph.PowerConsumption
		}
	}

	for _, appt := range snap.Appointments {
		apptStart, err := timeutil.ToMinutes(appt.StartTime)
		if err != nil {
			return 0, fmt.Errorf("appointment %d start: %w", appt.ID, err)
		}
		apptEnd, err := timeutil.ToMinutes(appt.EndTime)
		if err != nil {
			return 0, fmt.Errorf("appointment %d end: %w", appt.ID, err)
		}
		apptMinutes := apptEnd - apptStart
		if apptMinutes <= 0 {
			continue
		}

		// Weighting by the appointment's own duration spreads a long booking's
		// power across the probe slots that clip it instead of charging each
		// one the full amount.
		overlap := timeutil.OverlapMinutes(w.start, w.end, apptStart, apptEnd)
		if overlap > 0 {
			total += float64(overlap) / float64(apptMinutes) * appt.PowerConsumption
		}
	}

	return total, nil
}
