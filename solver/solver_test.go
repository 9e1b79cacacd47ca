package solver

import (
	"context"
	"testing"

	"adaptengine"
	"adaptengine/safety"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func maintenanceInput() Input {
	return Input{
		Profile: adaptengine.UserProfile{
			ID:       "u-1",
			Age:      30,
			Sex:      adaptengine.SexMale,
			WeightKG: 80,
			HeightCM: 180,
			Goal:     adaptengine.GoalMaintenance,
			Schedule: adaptengine.Schedule{AvailableDays: 4, SessionMinMinutes: 30, SessionMaxMinutes: 90},
		},
		TDEE: adaptengine.TDEEResult{BMR: 1780, TDEE: 2759, TDEECILower: 2483, TDEECIUpper: 3035},
	}
}

func TestSolveFeasibleMaintenance(t *testing.T) {
	s := New(adaptengine.DefaultPolicy(), adaptengine.DefaultSolverConfig())

	result := s.Solve(context.Background(), maintenanceInput())

	require.Equal(t, adaptengine.SolveFeasible, result.Status)
	require.True(t, result.Feasible)
	require.NotNil(t, result.OptimalParams)

	params := result.OptimalParams
	// Soft constraints prefer the highest frequency and shortest session
	// that still fits the beginner volume floor (8 sets x 6 muscles x 5 min).
	assert.Equal(t, 4, params.SessionsPerWeek)
	assert.Equal(t, 60, params.SessionDurationMin)
	assert.Equal(t, 240, params.WeeklyTrainingMinutes)
	assert.Equal(t, 2750, params.Calories)

	for _, m := range MuscleGroups {
		assert.Equal(t, 8, params.SetsPerMuscle[m], "muscle %s", m)
	}
}

func TestSolveCalorieAlgebra(t *testing.T) {
	s := New(adaptengine.DefaultPolicy(), adaptengine.DefaultSolverConfig())

	inputs := []Input{maintenanceInput()}

	loss := maintenanceInput()
	loss.Profile.Goal = adaptengine.GoalFatLoss
	loss.Profile.TargetRateKGPerWeek = 0.4
	inputs = append(inputs, loss)

	gain := maintenanceInput()
	gain.Profile.Goal = adaptengine.GoalMuscleGain
	gain.Profile.TargetRateKGPerWeek = 0.25
	inputs = append(inputs, gain)

	for _, in := range inputs {
		result := s.Solve(context.Background(), in)
		require.Equal(t, adaptengine.SolveFeasible, result.Status, "goal %s", in.Profile.Goal)
		p := result.OptimalParams

		assert.GreaterOrEqual(t, p.CarbsG, 25)
		macroKcal := p.ProteinG*4 + p.FatG*9 + p.CarbsG*4
		assert.LessOrEqual(t, macroKcal, p.Calories)
		assert.Less(t, p.Calories-macroKcal, 4, "floor division leaves less than one carb gram of slack")
	}
}

func TestSolveScheduleDominatesExperienceCeiling(t *testing.T) {
	s := New(adaptengine.DefaultPolicy(), adaptengine.DefaultSolverConfig())

	in := maintenanceInput()
	in.Profile.ExperienceYears = 8
	in.Profile.Preferences.SessionsPerWeekMax = 6
	in.Profile.Schedule.AvailableDays = 3
	in.Profile.Schedule.SessionMaxMinutes = 120

	result := s.Solve(context.Background(), in)
	require.Equal(t, adaptengine.SolveFeasible, result.Status)
	assert.LessOrEqual(t, result.OptimalParams.SessionsPerWeek, 3)

	ceiling := adaptengine.DefaultPolicy().SetsCeilingAdvanced
	for _, sets := range result.OptimalParams.SetsPerMuscle {
		assert.LessOrEqual(t, sets, ceiling)
	}
}

func TestSolveInfeasibleRateProducesTradeOffs(t *testing.T) {
	s := New(adaptengine.DefaultPolicy(), adaptengine.DefaultSolverConfig())

	in := maintenanceInput()
	in.Profile.Goal = adaptengine.GoalFatLoss
	in.Profile.TargetRateKGPerWeek = 1.2 // needs ~1439 kcal/day, below the 1500 male floor
	in.Profile.TargetWeightKG = 70
	in.Profile.TimelineWeeks = 9

	result := s.Solve(context.Background(), in)
	require.Equal(t, adaptengine.SolveInfeasible, result.Status)
	assert.False(t, result.Feasible)
	assert.Nil(t, result.OptimalParams)

	require.NotEmpty(t, result.Diagnostics)
	var codes []string
	for _, d := range result.Diagnostics {
		codes = append(codes, d.Code)
	}
	assert.Contains(t, codes, "rate_unsustainable")

	require.Len(t, result.TradeOffs, 3)
	assert.Equal(t, "A", result.TradeOffs[0].ID)
	assert.Equal(t, "B", result.TradeOffs[1].ID)
	assert.Equal(t, "C", result.TradeOffs[2].ID)
	for _, opt := range result.TradeOffs {
		assert.GreaterOrEqual(t, opt.FeasibilityScore, 0.0)
		assert.LessOrEqual(t, opt.FeasibilityScore, 1.0)
		assert.NotEmpty(t, opt.Summary)
		assert.NotEmpty(t, opt.Adjustments)
	}
	// More session time is strictly less compromise than slowing the goal.
	assert.GreaterOrEqual(t, result.TradeOffs[1].FeasibilityScore, result.TradeOffs[0].FeasibilityScore)

	// Option A halves the rate and doubles the timeline.
	assert.InDelta(t, 0.6, result.TradeOffs[0].Adjustments["target_rate_kg_per_week"], 0.001)
	assert.InDelta(t, 18, result.TradeOffs[0].Adjustments["timeline_weeks"], 0.001)
}

func TestSolveBudgetCeiling(t *testing.T) {
	s := New(adaptengine.DefaultPolicy(), adaptengine.DefaultSolverConfig())

	in := maintenanceInput()
	in.Profile.WeeklyBudgetUSD = 100 // 2750 kcal/day costs ~$289/week at $1.50/100kcal

	result := s.Solve(context.Background(), in)
	require.Equal(t, adaptengine.SolveInfeasible, result.Status)

	var codes []string
	for _, d := range result.Diagnostics {
		codes = append(codes, d.Code)
	}
	assert.Contains(t, codes, "budget_ceiling")
}

func TestSolveProteinCapBoundsPinnedFloor(t *testing.T) {
	policy := adaptengine.DefaultPolicy()
	policy.ProteinFloorFatLossGKG = 2.0
	policy.ProteinCapFatLossGKG = 1.9
	s := New(policy, adaptengine.DefaultSolverConfig())

	in := maintenanceInput()
	in.Profile.Goal = adaptengine.GoalFatLoss
	in.Profile.TargetRateKGPerWeek = 0.4

	result := s.Solve(context.Background(), in)
	require.Equal(t, adaptengine.SolveInfeasible, result.Status)

	var codes []string
	for _, d := range result.Diagnostics {
		codes = append(codes, d.Code)
	}
	assert.Contains(t, codes, "protein_range")
}

func TestSolveIdempotence(t *testing.T) {
	s := New(adaptengine.DefaultPolicy(), adaptengine.DefaultSolverConfig())
	in := maintenanceInput()

	first := s.Solve(context.Background(), in)
	second := s.Solve(context.Background(), in)

	first.RuntimeMS, second.RuntimeMS = 0, 0
	assert.Equal(t, first, second)
}

func TestSolveTimeout(t *testing.T) {
	cfg := adaptengine.DefaultSolverConfig()
	cfg.TimeBudgetMS = -1 // deadline already in the past
	s := New(adaptengine.DefaultPolicy(), cfg)

	result := s.Solve(context.Background(), maintenanceInput())
	assert.Equal(t, adaptengine.SolveTimeout, result.Status)
	assert.False(t, result.Feasible)
	assert.Empty(t, result.Diagnostics, "timeout must not masquerade as infeasibility")
}

func TestGatedSolveBlocksBeforeOptimization(t *testing.T) {
	validator := safety.New(adaptengine.DefaultPolicy())
	gated := NewGated(validator, New(adaptengine.DefaultPolicy(), adaptengine.DefaultSolverConfig()))

	in := maintenanceInput()
	in.Profile.Sex = adaptengine.SexFemale
	in.Profile.Goal = adaptengine.GoalFatLoss
	in.Profile.TargetRateKGPerWeek = 0.3
	in.Profile.Medical.Pregnant = true // no OB clearance

	check, result := gated.Solve(context.Background(), in)
	assert.Equal(t, adaptengine.SafetyBlocked, check.Level)
	assert.NotEmpty(t, check.Reason)
	assert.Empty(t, result.Status, "solver must not run on a blocked profile")
}

func TestGatedSolvePassesWarningsThrough(t *testing.T) {
	validator := safety.New(adaptengine.DefaultPolicy())
	gated := NewGated(validator, New(adaptengine.DefaultPolicy(), adaptengine.DefaultSolverConfig()))

	in := maintenanceInput()
	in.Profile.Age = 70

	check, result := gated.Solve(context.Background(), in)
	assert.Equal(t, adaptengine.SafetyWarning, check.Level)
	assert.Equal(t, "required", check.Modifications["balance_training"])
	assert.Equal(t, adaptengine.SolveFeasible, result.Status)
}
