package engine

import (
	"fmt"

	"labpower-backend/config"
	"labpower-backend/internal/timeutil"
)

// Service is the availability and power-scoring engine. It is stateless:
// every computation is a pure function of the parameters and the snapshot.
type Service struct {
	workStart        int // minutes since midnight
	workEnd          int
	incrementMinutes int
	defaultDuration  float64

	lowPowerThreshold  float64
	powerTieWindow     float64
	peakSpikeThreshold float64
}

// NewService builds an engine from the scheduling configuration.
func NewService(cfg config.SchedulingConfig) (*Service, error) {
	start, err := timeutil.ToMinutes(cfg.WorkStart)
	if err != nil {
		return nil, fmt.Errorf("scheduling.work_start: %w", err)
	}
	end, err := timeutil.ToMinutes(cfg.WorkEnd)
	if err != nil {
		return nil, fmt.Errorf("scheduling.work_end: %w", err)
	}
	if end <= start {
		return nil, fmt.Errorf("scheduling: work_end %q must be after work_start %q", cfg.WorkEnd, cfg.WorkStart)
	}

	return &Service{
		workStart:          start,
		workEnd:            end,
		incrementMinutes:   cfg.SlotIncrementMinutes,
		defaultDuration:    cfg.DefaultDurationHours,
		lowPowerThreshold:  cfg.LowPowerThresholdKW,
		powerTieWindow:     cfg.PowerTieWindowKW,
		peakSpikeThreshold: cfg.PeakSpikeThreshold,
	}, nil
}

// DefaultDurationHours is the duration applied when the caller omits one.
func (s *Service) DefaultDurationHours() float64 {
	return s.defaultDuration
}

// CheckAvailability computes every candidate slot for the requested day,
// estimates its power draw, flags conflicts, tiers the slots into efficiency
// groups and derives recommendations. An empty result (no candidate fits the
// working window) is valid, not an error.
func (s *Service) CheckAvailability(params Params, snap Snapshot) (AvailabilityResult, error) {
	if len(params.MachineIDs) == 0 || params.DurationHours <= 0 {
		return AvailabilityResult{}, ErrInvalidInput
	}

	windows := s.generateWindows(params.DurationHours)

	slots := make([]TimeSlot, 0, len(windows))
	for _, w := range windows {
		power, err := s.estimatePower(w, params, snap)
		if err != nil {
			return AvailabilityResult{}, err
		}

		slot := TimeSlot{
			StartTime:        timeutil.ToClock(w.start),
			EndTime:          timeutil.ToClock(w.end),
			Available:        true,
			PowerConsumption: power,
			MachineIDs:       params.MachineIDs,
		}

		conflict, err := s.hasConflict(w, params.MachineIDs, snap.Appointments)
		if err != nil {
			return AvailabilityResult{}, err
		}
		if conflict {
			slot.Available = false
			slot.Reason = ReasonSlotBooked
		}

		slots = append(slots, slot)
	}

	ranked, groups := s.rankAndGroup(slots)

	return AvailabilityResult{
		TimeSlots:        ranked,
		EfficiencyGroups: groups,
		Recommendations:  s.recommend(ranked, params.Date),
	}, nil
}
