// Package solver builds and solves the integer feasibility model over
// training and nutrition decision variables, and synthesizes quantified
// trade-off options when the model is infeasible.
package solver

import (
	"context"

	"adaptengine"
	"adaptengine/safety"
)

// MuscleGroups is the fixed set of weekly set-count variables, in
// allocation order. Order matters for deterministic remainders.
var MuscleGroups = []string{"chest", "back", "legs", "shoulders", "arms", "core"}

// TrainingBounds constrain the session variables.
type TrainingBounds struct {
	SessionsMin int `json:"sessions_min"`
	SessionsMax int `json:"sessions_max"`
	DurationMin int `json:"duration_min"`
	DurationMax int `json:"duration_max"`
}

// NutritionBounds constrain the calorie variable. A zero CaloriesMax
// defaults to 30% above TDEE.
type NutritionBounds struct {
	CaloriesMin int `json:"calories_min"`
	CaloriesMax int `json:"calories_max"`
}

// Input is one solve invocation's full problem statement. Schedule
// bounds and soft preferences ride on the profile.
type Input struct {
	Profile   adaptengine.UserProfile `json:"profile"`
	TDEE      adaptengine.TDEEResult  `json:"tdee"`
	Training  TrainingBounds          `json:"training"`
	Nutrition NutritionBounds         `json:"nutrition"`
}

// Solver is the one-method backend interface. Implementations are
// selected via configuration, never runtime type inspection.
type Solver interface {
	Solve(ctx context.Context, in Input) adaptengine.SolverResult
}

// Gated composes the non-bypassable solve-time safety check with a
// solver backend. A BLOCKED profile never reaches optimization.
type Gated struct {
	validator *safety.Validator
	backend   Solver
}

// NewGated wires a validator in front of a backend.
func NewGated(validator *safety.Validator, backend Solver) *Gated {
	return &Gated{validator: validator, backend: backend}
}

// Solve validates first and only then optimizes. The safety result is
// always returned so WARNING modifications reach the caller even on a
// feasible solve.
func (g *Gated) Solve(ctx context.Context, in Input) (adaptengine.SafetyCheckResult, adaptengine.SolverResult) {
	check := g.validator.Validate(in.Profile, in.TDEE)
	if check.Level == adaptengine.SafetyBlocked {
		return check, adaptengine.SolverResult{}
	}
	return check, g.backend.Solve(ctx, in)
}
