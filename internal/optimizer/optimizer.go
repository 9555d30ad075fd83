package optimizer

import (
	"fmt"
	"sort"
	"time"

	"labpower-backend/config"
	"labpower-backend/internal/model"
	"labpower-backend/internal/timeutil"
)

// Optimizer is the day/week-level scheduler. Like the availability engine it
// is stateless and idempotent over a fixed snapshot.
type Optimizer struct {
	baseLoad            []float64 // 24 entries, kW
	preferredDiscount   float64
	maxDailyCapacity    float64
	defaultBudget       float64
	efficiencyThreshold float64
	budgetOverrunPct    float64
	workStartHour       int
	workEndHour         int
}

// New builds an optimizer from the optimizer and scheduling sections of the
// configuration. The scheduling work window bounds candidate generation.
func New(cfg config.OptimizerConfig, sched config.SchedulingConfig) (*Optimizer, error) {
	if len(cfg.BaseLoadCurve) != 24 {
		return nil, fmt.Errorf("optimizer: base load curve must have 24 entries, got %d", len(cfg.BaseLoadCurve))
	}
	start, err := timeutil.ToMinutes(sched.WorkStart)
	if err != nil {
		return nil, fmt.Errorf("scheduling.work_start: %w", err)
	}
	end, err := timeutil.ToMinutes(sched.WorkEnd)
	if err != nil {
		return nil, fmt.Errorf("scheduling.work_end: %w", err)
	}

	return &Optimizer{
		baseLoad:            cfg.BaseLoadCurve,
		preferredDiscount:   cfg.PreferredDiscount,
		maxDailyCapacity:    cfg.MaxDailyCapacityKWH,
		defaultBudget:       cfg.DefaultBudgetKW,
		efficiencyThreshold: cfg.EfficiencyThreshold,
		budgetOverrunPct:    cfg.BudgetOverrunPercent,
		workStartHour:       start / 60,
		workEndHour:         end / 60,
	}, nil
}

// DefaultBudgetKW is the power budget applied when the caller omits one.
func (o *Optimizer) DefaultBudgetKW() float64 {
	return o.defaultBudget
}

// Params configures one optimization run.
type Params struct {
	DurationHours        float64
	MaxPowerBudget       float64 // kW; slots drawing more are filtered out
	PrioritizeEfficiency bool    // true: rank by weighted score; false: by raw power
}

// ScoredSlot is an hourly-step candidate with its weighted score.
type ScoredSlot struct {
	StartTime        string  `json:"start_time"`
	EndTime          string  `json:"end_time"`
	PowerConsumption float64 `json:"power_consumption"` // mean kW over the slot
	Score            float64 `json:"score"`
	OptimalHour      bool    `json:"optimal_hour"`
	PeakHour         bool    `json:"peak_hour"`
}

// Schedule is one labeled alternative arrangement of candidate slots.
type Schedule struct {
	ID          string       `json:"id"`
	Label       string       `json:"label"`
	Description string       `json:"description"`
	Slots       []ScoredSlot `json:"slots"`
}

// Result is the outcome of one day-level optimization.
type Result struct {
	RecommendedSlots       []ScoredSlot `json:"recommended_slots"`
	PowerSavings           float64      `json:"power_savings"`   // kWh vs the in-budget average
	EfficiencyScore        float64      `json:"efficiency_score"`
	OptimizationStrategies []string     `json:"optimization_strategies"`
	AlternativeSchedules   []Schedule   `json:"alternative_schedules"`
}

// Optimize scores hourly-step candidates against the day's energy profile,
// filters them by the power budget and derives the recommended slots plus
// three labeled alternative schedules.
func (o *Optimizer) Optimize(params Params, profile EnergyProfile) Result {
	if params.MaxPowerBudget <= 0 {
		params.MaxPowerBudget = o.defaultBudget
	}

	candidates := o.scoreCandidates(params.DurationHours, profile)

	var inBudget []ScoredSlot
	for _, c := range candidates {
		if c.PowerConsumption <= params.MaxPowerBudget {
			inBudget = append(inBudget, c)
		}
	}

	recommended := topSlots(inBudget, 3, params.PrioritizeEfficiency)

	result := Result{
		RecommendedSlots:     recommended,
		AlternativeSchedules: o.alternativeSchedules(candidates, params),
	}

	if len(recommended) > 0 {
		avgAll := meanPower(inBudget)
		avgRec := meanPower(recommended)
		if avgAll > avgRec {
			result.PowerSavings = (avgAll - avgRec) * params.DurationHours
		}
		scoreSum := 0.0
		for _, s := range recommended {
			scoreSum += s.Score
		}
		result.EfficiencyScore = scoreSum / float64(len(recommended))
	}

	result.OptimizationStrategies = o.strategies(params, profile)
	return result
}

// scoreCandidates enumerates hourly-step windows across the working day and
// scores each against the profile. Coarser than the availability engine's
// 30-minute grid on purpose: this is a planning view, not a booking view.
func (o *Optimizer) scoreCandidates(durationHours float64, profile EnergyProfile) []ScoredSlot {
	durationMinutes := int(durationHours * 60)
	if durationMinutes <= 0 {
		return nil
	}

	peak := make(map[int]bool, len(profile.PeakHours))
	for _, h := range profile.PeakHours {
		peak[h] = true
	}
	optimal := make(map[int]bool, len(profile.OptimalHours))
	for _, h := range profile.OptimalHours {
		optimal[h] = true
	}

	var slots []ScoredSlot
	for hour := o.workStartHour; hour*60+durationMinutes <= o.workEndHour*60; hour++ {
		start := hour * 60
		end := start + durationMinutes

		// Mean draw over the covered hours, weighted by coverage.
		power := 0.0
		for h := 0; h < 24; h++ {
			overlap := timeutil.OverlapMinutes(start, end, h*60, h*60+60)
			if overlap > 0 {
				power += float64(overlap) / 60.0 * profile.Hourly[h].Consumption
			}
		}
		power /= durationHours

		isOptimal := optimal[hour]
		isPeak := peak[hour]
		isMorning := hour < 12

		score := 100 - 20*(power/o.efficiencyThreshold)
		if isOptimal {
			score += 15
		}
		if isPeak {
			score -= 25
		}
		if isMorning {
			score += 10
		}
		if score < 0 {
			score = 0
		}

		slots = append(slots, ScoredSlot{
			StartTime:        timeutil.ToClock(start),
			EndTime:          timeutil.ToClock(end),
			PowerConsumption: power,
			Score:            score,
			OptimalHour:      isOptimal,
			PeakHour:         isPeak,
		})
	}
	return slots
}

// The morning schedule only admits slots lying fully inside this window.
const (
	morningStart = 8 * 60
	morningEnd   = 12 * 60
)

// alternativeSchedules builds the three labeled arrangements: the cheapest
// slots within budget, the cheapest morning slots, and a flexible view that
// tolerates a configured budget overrun sorted by earliest start.
func (o *Optimizer) alternativeSchedules(candidates []ScoredSlot, params Params) []Schedule {
	budget := params.MaxPowerBudget

	var inBudget, morning, flexible []ScoredSlot
	relaxed := budget * (1 + o.budgetOverrunPct/100)
	for _, c := range candidates {
		if c.PowerConsumption <= budget {
			inBudget = append(inBudget, c)
			if isMorningSlot(c) {
				morning = append(morning, c)
			}
		}
		if c.PowerConsumption <= relaxed {
			flexible = append(flexible, c)
		}
	}

	byPower := func(s []ScoredSlot) []ScoredSlot {
		out := append([]ScoredSlot(nil), s...)
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].PowerConsumption < out[j].PowerConsumption
		})
		return cap3(out)
	}
	byStart := func(s []ScoredSlot) []ScoredSlot {
		out := append([]ScoredSlot(nil), s...)
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].StartTime < out[j].StartTime
		})
		return cap3(out)
	}

	return []Schedule{
		{
			ID:          "max_efficiency",
			Label:       "Máxima eficiencia",
			Description: "Horarios de menor consumo dentro del presupuesto",
			Slots:       byPower(inBudget),
		},
		{
			ID:          "morning",
			Label:       "Preferencia matutina",
			Description: "Horarios de mañana (08:00-12:00) de menor consumo",
			Slots:       byPower(morning),
		},
		{
			ID:          "flexible",
			Label:       "Flexible",
			Description: fmt.Sprintf("Admite hasta %.0f%% sobre el presupuesto, ordenado por hora", o.budgetOverrunPct),
			Slots:       byStart(flexible),
		},
	}
}

// isMorningSlot reports whether the slot is fully contained in the morning
// window: a slot spilling past noon does not qualify.
func isMorningSlot(c ScoredSlot) bool {
	start, err := timeutil.ToMinutes(c.StartTime)
	if err != nil {
		return false
	}
	end, err := timeutil.ToMinutes(c.EndTime)
	if err != nil {
		return false
	}
	return timeutil.Contains(start, end, morningStart, morningEnd)
}

func (o *Optimizer) strategies(params Params, profile EnergyProfile) []string {
	strategies := []string{
		fmt.Sprintf("Presupuesto máximo de %.1f kW por franja", params.MaxPowerBudget),
	}
	if len(profile.OptimalHours) > 0 {
		strategies = append(strategies, fmt.Sprintf("Priorizar %d horas valle del día", len(profile.OptimalHours)))
	}
	if len(profile.PeakHours) > 0 {
		strategies = append(strategies, fmt.Sprintf("Evitar %d horas pico del día", len(profile.PeakHours)))
	}
	if params.PrioritizeEfficiency {
		strategies = append(strategies, "Orden por puntaje de eficiencia ponderado")
	} else {
		strategies = append(strategies, "Orden por consumo ascendente")
	}
	return strategies
}

// DayInput is one day's snapshot for the weekly optimizer.
type DayInput struct {
	Date           time.Time
	Appointments   []model.Appointment
	PreferredHours []model.PreferredHour
}

// DayPlan is the per-day outcome within a weekly optimization.
type DayPlan struct {
	Date      string        `json:"date"`
	Profile   EnergyProfile `json:"profile"`
	Result    Result        `json:"result"`
	BestScore float64       `json:"best_score"`
}

// WeekResult reports the highest-scoring days of the week.
type WeekResult struct {
	Days         []DayPlan `json:"days"`          // top 3 by best slot score
	TotalSavings float64   `json:"total_savings"` // kWh aggregated over the reported days
}

// OptimizeWeek runs the day-level optimization for each supplied weekday
// (weekend dates are skipped) and reports the three highest-scoring days.
func (o *Optimizer) OptimizeWeek(laboratoryID int64, params Params, days []DayInput) (WeekResult, error) {
	var plans []DayPlan
	for _, day := range days {
		if day.Date.Weekday() == time.Saturday || day.Date.Weekday() == time.Sunday {
			continue
		}
		date := day.Date.Format("2006-01-02")

		profile, err := o.BuildEnergyProfile(laboratoryID, date, day.Appointments, day.PreferredHours)
		if err != nil {
			return WeekResult{}, fmt.Errorf("profile for %s: %w", date, err)
		}
		result := o.Optimize(params, profile)

		best := 0.0
		for _, s := range result.RecommendedSlots {
			if s.Score > best {
				best = s.Score
			}
		}
		plans = append(plans, DayPlan{Date: date, Profile: profile, Result: result, BestScore: best})
	}

	sort.SliceStable(plans, func(i, j int) bool {
		if plans[i].BestScore != plans[j].BestScore {
			return plans[i].BestScore > plans[j].BestScore
		}
		return plans[i].Date < plans[j].Date
	})
	if len(plans) > 3 {
		plans = plans[:3]
	}

	week := WeekResult{Days: plans}
	for _, p := range plans {
		week.TotalSavings += p.Result.PowerSavings
	}
	return week, nil
}

func topSlots(slots []ScoredSlot, n int, byScore bool) []ScoredSlot {
	out := append([]ScoredSlot(nil), slots...)
	if byScore {
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].Score > out[j].Score
		})
	} else {
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].PowerConsumption < out[j].PowerConsumption
		})
	}
	if len(out) > n {
		out = out[:n]
	}
	return out
}

func meanPower(slots []ScoredSlot) float64 {
	if len(slots) == 0 {
		return 0
	}
	sum := 0.0
	for _, s := range slots {
		sum += s.PowerConsumption
	}
	return sum / float64(len(slots))
}

func cap3(slots []ScoredSlot) []ScoredSlot {
	if len(slots) > 3 {
		return slots[:3]
	}
	return slots
}
