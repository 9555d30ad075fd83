package engine

import (
	"fmt"

	"labpower-backend/internal/model"
	"labpower-backend/internal/timeutil"
)

// ReasonSlotBooked marks a slot blocked by an existing reservation on a
// shared machine.
const ReasonSlotBooked = "Horario ya reservado"

// hasConflict reports whether the window overlaps a non-cancelled appointment
// that uses any of the requested machines. Conflict is independent of power:
// a blocked slot stays blocked however cheap it scores.
func (s *Service) hasConflict(w window, machineIDs []int64, appointments []model.Appointment) (bool, error) {
	requested := make(map[int64]struct{}, len(machineIDs))
	for _, id := range machineIDs {
		requested[id] = struct{}{}
	}

	for _, appt := range appointments {
		if !sharesMachine(requested, appt) {
			continue
		}
		apptStart, err := timeutil.ToMinutes(appt.StartTime)
		if err != nil {
			return false, fmt.Errorf("appointment %d start: %w", appt.ID, err)
		}
		apptEnd, err := timeutil.ToMinutes(appt.EndTime)
		if err != nil {
			return false, fmt.Errorf("appointment %d end: %w", appt.ID, err)
		}
		if timeutil.Overlaps(w.start, w.end, apptStart, apptEnd) {
			return true, nil
		}
	}
	return false, nil
}

func sharesMachine(requested map[int64]struct{}, appt model.Appointment) bool {
	for _, m := range appt.Machines {
		if _, ok := requested[m.ID]; ok {
			return true
		}
	}
	return false
}
