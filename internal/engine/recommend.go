package engine

import (
	"time"
)

const dateLayout = "2006-01-02"

// recommend derives the headline suggestions from the power-ranked slots:
// a shortlist of low-power slots, the single best slot, and, when the day is
// nearly full, alternative dates to retry.
func (s *Service) recommend(ranked []TimeSlot, date time.Time) Recommendations {
	var available []TimeSlot
	for _, slot := range ranked {
		if slot.Available {
			available = append(available, slot)
		}
	}

	rec := Recommendations{
		EnergyEfficientSlots: []TimeSlot{},
	}

	// ranked is already power-ascending, so the shortlist keeps that order.
	for _, slot := range available {
		if slot.PowerConsumption <= s.lowPowerThreshold {
			rec.EnergyEfficientSlots = append(rec.EnergyEfficientSlots, slot)
			if len(rec.EnergyEfficientSlots) == 3 {
				break
			}
		}
	}

	if best := s.bestSlot(available); best != nil {
		rec.BestSlot = best
	}

	if len(available) < 3 {
		rec.AlternativeDates = nextBusinessDays(date, 3)
	}

	return rec
}

// bestSlot picks the earliest start among the slots within the tie window of
// the cheapest one. The window is anchored to the minimum so near-ties cannot
// chain into picking an expensive slot. Candidates must be power-ascending.
func (s *Service) bestSlot(available []TimeSlot) *TimeSlot {
	if len(available) == 0 {
		return nil
	}

	cheapest := available[0].PowerConsumption
	best := available[0]
	for _, cand := range available[1:] {
		if cand.PowerConsumption-cheapest > s.powerTieWindow {
			break
		}
		if cand.StartTime < best.StartTime {
			best = cand
		}
	}
	return &best
}

// nextBusinessDays returns the n weekdays following date, skipping Saturdays
// and Sundays, formatted as "YYYY-MM-DD" in chronological order.
func nextBusinessDays(date time.Time, n int) []string {
	days := make([]string, 0, n)
	d := date
	for len(days) < n {
		d = d.AddDate(0, 0, 1)
		if d.Weekday() == time.Saturday || d.Weekday() == time.Sunday {
			continue
		}
		days = append(days, d.Format(dateLayout))
	}
	return days
}
