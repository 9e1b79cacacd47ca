// Package control implements the closed-loop calorie and volume
// controllers. Each evaluation is a pure function of its input and the
// controller's accumulated state; the state itself advances only when
// the caller commits the cycle, which keeps re-runs idempotent.
package control

import (
	"fmt"
	"math"
	"time"

	"adaptengine"
)

// Kind distinguishes per-user controller state entries.
type Kind string

const (
	KindCalorie Kind = "calorie"
	KindVolume  Kind = "volume"
)

// State is a controller's memory across reassessment cycles: the
// integral and last error terms of the loop, scoped to one
// (user, controller) pair and never shared globally.
type State struct {
	UserID        string    `json:"user_id"`
	Kind          Kind      `json:"kind"`
	IntegralError float64   `json:"integral_error"`
	LastError     float64   `json:"last_error"`
	Cycles        int       `json:"cycles"`
	UpdatedAt     time.Time `json:"updated_at"`

	// WeeksSinceDeload is advanced by the volume controller and reset to
	// zero on the cycle that schedules a deload. Unused by the calorie loop.
	WeeksSinceDeload int `json:"weeks_since_deload,omitempty"`
}

// CalorieInput is one calorie-loop evaluation. Rates are signed kg/week,
// positive meaning weight gain. Confidence and Adherence are fractions
// in [0,1].
type CalorieInput struct {
	TargetRate      float64
	ActualRate      float64
	CurrentCalories float64
	WeeksElapsed    int
	Confidence      float64
	Adherence       float64
}

// CalorieController closes the loop between the target and observed rate
// of weight change by adjusting daily calories.
type CalorieController struct {
	cfg    adaptengine.ControlConfig
	policy adaptengine.PolicyConfig
	state  State
}

// NewCalorieController binds a controller to its accumulated state.
func NewCalorieController(cfg adaptengine.ControlConfig, policy adaptengine.PolicyConfig, state State) *CalorieController {
	return &CalorieController{cfg: cfg, policy: policy, state: state}
}

// CalculateAdjustment maps the rate error to a bounded calorie delta.
// The proportional term is scaled by data confidence; the integral term
// accumulates across cycles through the returned state. No single cycle
// may move calories by more than the configured percentage, and low
// adherence never deepens the deficit.
func (c *CalorieController) CalculateAdjustment(in CalorieInput) (adaptengine.PIDAdjustment, State) {
	confidence := clamp01(in.Confidence)
	rateErr := in.TargetRate - in.ActualRate
	dailyErr := rateErr * c.policy.KcalPerKGFat / 7

	delta := c.cfg.CalorieKP*dailyErr*confidence + c.cfg.CalorieKI*c.state.IntegralError

	capKcal := c.cfg.MaxCaloriePctPerCycle / 100 * in.CurrentCalories
	capped := false
	if math.Abs(delta) > capKcal {
		delta = math.Copysign(capKcal, delta)
		capped = true
	}

	gated := false
	if in.Adherence*100 < c.policy.LowAdherencePct && delta < 0 {
		// Cutting calories on poor adherence only widens the gap between
		// plan and behavior. Hold the line instead.
		delta = 0
		gated = true
	}

	delta = math.Round(delta)
	recommended := in.CurrentCalories + delta

	adj := adaptengine.PIDAdjustment{
		Current:          in.CurrentCalories,
		Recommended:      recommended,
		AdjustmentAmount: delta,
		Rationale:        calorieRationale(in, rateErr, delta, confidence, capped, gated),
	}
	if in.CurrentCalories > 0 {
		adj.AdjustmentPct = delta / in.CurrentCalories * 100
	}

	next := c.state
	next.IntegralError += dailyErr * confidence
	next.LastError = rateErr
	next.Cycles++
	return adj, next
}

func calorieRationale(in CalorieInput, rateErr, delta, confidence float64, capped, gated bool) string {
	switch {
	case gated:
		return fmt.Sprintf(
			"Observed rate %.2f kg/week vs target %.2f, but adherence is %.0f%%; holding calories steady until logging and training are back on track.",
			in.ActualRate, in.TargetRate, in.Adherence*100)
	case delta == 0:
		return fmt.Sprintf(
			"Observed rate %.2f kg/week matches the %.2f target closely; no calorie change needed.",
			in.ActualRate, in.TargetRate)
	case capped:
		return fmt.Sprintf(
			"Observed rate %.2f kg/week vs target %.2f calls for a larger correction, but single-cycle changes are capped; adjusting by %+.0f kcal/day.",
			in.ActualRate, in.TargetRate, delta)
	case confidence < 1:
		return fmt.Sprintf(
			"Observed rate %.2f kg/week vs target %.2f; adjusting by %+.0f kcal/day, tempered by limited logging data.",
			in.ActualRate, in.TargetRate, delta)
	default:
		return fmt.Sprintf(
			"Observed rate %.2f kg/week vs target %.2f; adjusting by %+.0f kcal/day to close the gap.",
			in.ActualRate, in.TargetRate, delta)
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
