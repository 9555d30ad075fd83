package engine

import (
	"fmt"
	"math"
	"sort"
)

// band is one fixed percentage-spike tier. Bands are ordered, non-overlapping
// and cover [0, +inf).
type band struct {
	id    string
	label string
	min   float64
	max   float64 // exclusive; +inf for the last band
}

var efficiencyBands = []band{
	{id: "optimal", label: "Optimal", min: 0, max: 10},
	{id: "good", label: "Good", min: 10, max: 30},
	{id: "regular", label: "Regular", min: 30, max: 50},
	{id: "high", label: "High", min: 50, max: 500},
	{id: "very_high", label: "Very High", min: 500, max: math.Inf(1)},
}

// rankAndGroup sorts the slots by estimated power (start time breaking ties),
// computes each slot's spike percentage over the cheapest one, and partitions
// them into the fixed efficiency bands. Every slot lands in exactly one band;
// empty bands are omitted.
func (s *Service) rankAndGroup(slots []TimeSlot) ([]TimeSlot, []EfficiencyGroup) {
	if len(slots) == 0 {
		return nil, nil
	}

	sorted := make([]TimeSlot, len(slots))
	copy(sorted, slots)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].PowerConsumption != sorted[j].PowerConsumption {
			return sorted[i].PowerConsumption < sorted[j].PowerConsumption
		}
		// Zero-padded HH:MM compares correctly as a string.
		return sorted[i].StartTime < sorted[j].StartTime
	})

	lowest := sorted[0].PowerConsumption
	for i := range sorted {
		if lowest > 0 {
			sorted[i].PowerSpikePercentage = (sorted[i].PowerConsumption - lowest) / lowest * 100
		} else {
			// Degenerate fallback when even the cheapest slot draws nothing:
			// the raw power stands in for the percentage.
			sorted[i].PowerSpikePercentage = sorted[i].PowerConsumption
		}
		if sorted[i].Available && sorted[i].PowerSpikePercentage >= s.peakSpikeThreshold {
			sorted[i].Reason = fmt.Sprintf("Pico de consumo: +%d%% sobre el mínimo",
				int(math.Round(sorted[i].PowerSpikePercentage)))
		}
	}

	var groups []EfficiencyGroup
	for _, b := range efficiencyBands {
		var members []TimeSlot
		for _, slot := range sorted {
			if slot.PowerSpikePercentage >= b.min && slot.PowerSpikePercentage < b.max {
				members = append(members, slot)
			}
		}
		if len(members) == 0 {
			continue
		}
		groups = append(groups, buildGroup(b, members))
	}

	return sorted, groups
}

func buildGroup(b band, members []TimeSlot) EfficiencyGroup {
	spikeSum, powerSum := 0.0, 0.0
	// The time range must be recomputed by clock time, not taken from the
	// power-sorted order.
	earliest, latest := members[0].StartTime, members[0].EndTime
	for _, m := range members {
		spikeSum += m.PowerSpikePercentage
		powerSum += m.PowerConsumption
		if m.StartTime < earliest {
			earliest = m.StartTime
		}
		if m.EndTime > latest {
			latest = m.EndTime
		}
	}

	n := float64(len(members))
	return EfficiencyGroup{
		ID:                      b.id,
		Label:                   b.label,
		PowerSpikePercentage:    int(math.Round(spikeSum / n)),
		TimeRange:               fmt.Sprintf("%s - %s", earliest, latest),
		AveragePowerConsumption: powerSum / n,
		Slots:                   members,
	}
}
