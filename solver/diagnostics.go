package solver

import (
	"fmt"
	"math"

	"adaptengine"
)

// effectiveBounds is the resolved integer domain of the model after
// intersecting caller bounds with policy floors and the profile's
// schedule. Nutrition variables collapse to bound-determined values:
// calories are pinned by the goal rate, protein and fat by their floors.
type effectiveBounds struct {
	sessionsMin, sessionsMax int
	durationMin, durationMax int
	calories                 int
	proteinG, fatG           int
	setsFloor, setsCeiling   int
}

// analyze resolves bounds and independently checks every hard constraint
// against them. Each failed check yields one caller-facing diagnostic;
// the list is empty exactly when the model has a non-empty domain.
func (s *GridSolver) analyze(in Input) (effectiveBounds, []adaptengine.Diagnostic) {
	var diags []adaptengine.Diagnostic
	fail := func(code, constraint, detail string, sev adaptengine.Severity) {
		diags = append(diags, adaptengine.Diagnostic{Code: code, Constraint: constraint, Detail: detail, Severity: sev})
	}

	p := in.Profile
	level := p.Experience()

	b := effectiveBounds{
		setsFloor:   s.policy.SetsFloor(level),
		setsCeiling: s.policy.SetsCeiling(level),
	}

	// Session bounds: the schedule dominates preferences and experience.
	b.sessionsMin = maxInt(1, in.Training.SessionsMin, p.Preferences.SessionsPerWeekMin)
	b.sessionsMax = 7
	for _, limit := range []int{in.Training.SessionsMax, p.Schedule.AvailableDays, p.Preferences.SessionsPerWeekMax} {
		if limit > 0 && limit < b.sessionsMax {
			b.sessionsMax = limit
		}
	}
	if b.sessionsMin > b.sessionsMax {
		fail("schedule_sessions", "sessions_per_week",
			fmt.Sprintf("minimum %d sessions/week exceeds the %d available", b.sessionsMin, b.sessionsMax),
			adaptengine.SeverityCritical)
	}

	b.durationMin = firstPositive(in.Training.DurationMin, p.Schedule.SessionMinMinutes, 30)
	b.durationMax = firstPositive(in.Training.DurationMax, p.Schedule.SessionMaxMinutes, 90)
	if b.durationMin > b.durationMax {
		fail("session_duration", "session_duration_minutes",
			fmt.Sprintf("minimum duration %d min exceeds maximum %d min", b.durationMin, b.durationMax),
			adaptengine.SeverityCritical)
	}

	// Calorie domain: caller bounds intersected with the sex floor; an
	// unset upper bound defaults to 30% above TDEE.
	calMin := maxInt(in.Nutrition.CaloriesMin, s.policy.CalorieFloor(p.Sex))
	calMax := in.Nutrition.CaloriesMax
	if calMax == 0 {
		calMax = int(in.TDEE.TDEE * 1.3)
	}
	if calMin > calMax {
		fail("calorie_range", "calories",
			fmt.Sprintf("calorie floor %d exceeds the %d upper bound", calMin, calMax),
			adaptengine.SeverityCritical)
	}

	// The goal rate pins the calorie variable via the 7700 kcal/kg fat
	// equivalence; an out-of-domain pin means the rate is unsustainable.
	target := in.TDEE.TDEE + signedDailyDelta(p, s.policy.KcalPerKGFat)
	b.calories = roundToStep(int(math.Round(target)), s.cfg.CalorieStepKcal)
	if b.calories < calMin {
		fail("rate_unsustainable", "target_rate_kg_per_week",
			fmt.Sprintf("losing %.2f kg/week requires %d kcal/day, below the %d kcal/day floor",
				p.TargetRateKGPerWeek, b.calories, calMin),
			adaptengine.SeverityCritical)
	}
	if b.calories > calMax {
		fail("rate_unsustainable", "target_rate_kg_per_week",
			fmt.Sprintf("gaining %.2f kg/week requires %d kcal/day, above the %d kcal/day bound",
				p.TargetRateKGPerWeek, b.calories, calMax),
			adaptengine.SeverityCritical)
	}

	// Macro floors, rounded up to the macro step. The goal-scaled cap
	// bounds the pinned protein from above; a floor rounded past the cap
	// means the protein domain is empty.
	proteinFloor, proteinCap := s.policy.ProteinBounds(p.Goal)
	b.proteinG = ceilToStep(int(math.Ceil(proteinFloor*p.WeightKG)), s.cfg.MacroStepG)
	if capG := int(math.Floor(proteinCap * p.WeightKG)); b.proteinG > capG {
		fail("protein_range", "protein_g",
			fmt.Sprintf("protein floor %dg exceeds the %dg cap for the %s goal", b.proteinG, capG, p.Goal),
			adaptengine.SeverityCritical)
	}
	b.fatG = ceilToStep(int(math.Ceil(s.policy.FatFloorGKG*p.WeightKG)), s.cfg.MacroStepG)

	// Calorie algebra: protein and fat floors plus the 100 kcal carb
	// reserve must fit, guaranteeing at least 25 g of carbs.
	if floor := b.proteinG*4 + b.fatG*9 + 100; b.calories < floor {
		fail("macro_algebra", "calories",
			fmt.Sprintf("%d kcal cannot cover protein %dg and fat %dg floors plus the carbohydrate reserve (%d kcal needed)",
				b.calories, b.proteinG, b.fatG, floor),
			adaptengine.SeverityHigh)
	}

	// Weekly time budget: the volume floor must fit the largest schedule.
	minVolumeMinutes := b.setsFloor * len(MuscleGroups) * s.policy.MinutesPerSet
	if maxMinutes := b.sessionsMax * b.durationMax; minVolumeMinutes > maxMinutes {
		fail("time_budget", "weekly_training_minutes",
			fmt.Sprintf("minimum volume needs %d min/week but the schedule allows only %d", minVolumeMinutes, maxMinutes),
			adaptengine.SeverityHigh)
	}

	// Optional food budget ceiling.
	if p.WeeklyBudgetUSD > 0 {
		weeklyCost := float64(b.calories) / 100 * s.policy.BudgetPer100KcalDay * 7
		if weeklyCost > p.WeeklyBudgetUSD {
			fail("budget_ceiling", "weekly_budget_usd",
				fmt.Sprintf("%d kcal/day costs about $%.2f/week, over the $%.2f budget", b.calories, weeklyCost, p.WeeklyBudgetUSD),
				adaptengine.SeverityHigh)
		}
	}

	// Goal-timeline consistency.
	if p.TargetWeightKG > 0 && p.TimelineWeeks > 0 && p.TargetRateKGPerWeek > 0 {
		needed := math.Abs(p.TargetWeightKG - p.WeightKG)
		achievable := p.TargetRateKGPerWeek * float64(p.TimelineWeeks)
		if needed > achievable*1.05 {
			fail("timeline_too_short", "timeline_weeks",
				fmt.Sprintf("%.1f kg change needs %.0f weeks at %.2f kg/week but only %d are planned",
					needed, math.Ceil(needed/p.TargetRateKGPerWeek), p.TargetRateKGPerWeek, p.TimelineWeeks),
				adaptengine.SeverityModerate)
		}
	}

	return b, diags
}

// signedDailyDelta converts the goal rate into a signed daily calorie
// delta: negative for fat loss, positive for muscle gain, zero otherwise.
func signedDailyDelta(p adaptengine.UserProfile, kcalPerKG float64) float64 {
	switch p.Goal {
	case adaptengine.GoalFatLoss:
		return -p.TargetRateKGPerWeek * kcalPerKG / 7
	case adaptengine.GoalMuscleGain:
		return p.TargetRateKGPerWeek * kcalPerKG / 7
	default:
		return 0
	}
}

func maxInt(vals ...int) int {
	m := vals[0]
	for _, v := range vals[1:] {
		if v > m {
			m = v
		}
	}
	return m
}

func firstPositive(vals ...int) int {
	for _, v := range vals {
		if v > 0 {
			return v
		}
	}
	return 0
}

func roundToStep(v, step int) int {
	if step <= 1 {
		return v
	}
	return (v + step/2) / step * step
}

func ceilToStep(v, step int) int {
	if step <= 1 {
		return v
	}
	return (v + step - 1) / step * step
}
