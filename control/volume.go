package control

import (
	"fmt"
	"math"

	"adaptengine"
)

// VolumeInput is one volume-loop evaluation. Adherence values are
// fractions in [0,1]; CeilingSets is the experience-scaled weekly total
// the solver enforces, and the controller never exceeds it.
type VolumeInput struct {
	TargetAdherence  float64
	ActualAdherence  float64
	CurrentSets      int
	WeeksSinceDeload int
	CeilingSets      int
	Confidence       float64
}

// VolumeController nudges weekly training volume based on session
// adherence and schedules periodic deloads.
type VolumeController struct {
	cfg   adaptengine.ControlConfig
	state State
}

// NewVolumeController binds a controller to its accumulated state.
func NewVolumeController(cfg adaptengine.ControlConfig, state State) *VolumeController {
	return &VolumeController{cfg: cfg, state: state}
}

// CalculateAdjustment recommends the next weekly set total. An overdue
// deload overrides progression; otherwise adherence above target earns a
// small volume step and adherence well below target sheds one.
func (c *VolumeController) CalculateAdjustment(in VolumeInput) (adaptengine.PIDAdjustment, State) {
	current := float64(in.CurrentSets)
	adherenceErr := in.ActualAdherence - in.TargetAdherence

	var recommended float64
	var rationale string
	deloading := false

	switch {
	case c.cfg.DeloadIntervalWeeks > 0 && in.WeeksSinceDeload >= c.cfg.DeloadIntervalWeeks:
		deloading = true
		recommended = math.Round(current * (1 - c.cfg.DeloadVolumeReduction))
		rationale = fmt.Sprintf(
			"%d weeks since the last deload; reducing volume to %.0f sets for a recovery week before building back up.",
			in.WeeksSinceDeload, recommended)

	case adherenceErr >= 0 && clamp01(in.Confidence) >= 0.5:
		recommended = current + float64(c.cfg.VolumeStepSetsPerCycle)
		rationale = fmt.Sprintf(
			"Training adherence %.0f%% meets the %.0f%% target; adding %d weekly sets to keep progressing.",
			in.ActualAdherence*100, in.TargetAdherence*100, c.cfg.VolumeStepSetsPerCycle)

	case adherenceErr < -0.15:
		recommended = current - float64(c.cfg.VolumeStepSetsPerCycle)
		rationale = fmt.Sprintf(
			"Training adherence %.0f%% is well below the %.0f%% target; trimming %d weekly sets so the plan fits the schedule you're keeping.",
			in.ActualAdherence*100, in.TargetAdherence*100, c.cfg.VolumeStepSetsPerCycle)

	default:
		recommended = current
		rationale = fmt.Sprintf(
			"Training adherence %.0f%% is slightly under the %.0f%% target; holding volume steady this cycle.",
			in.ActualAdherence*100, in.TargetAdherence*100)
	}

	if in.CeilingSets > 0 && recommended > float64(in.CeilingSets) {
		recommended = float64(in.CeilingSets)
		rationale = fmt.Sprintf(
			"Volume is at the experience-appropriate ceiling of %d weekly sets; holding there.", in.CeilingSets)
	}
	if recommended < 0 {
		recommended = 0
	}

	delta := recommended - current
	adj := adaptengine.PIDAdjustment{
		Current:          current,
		Recommended:      recommended,
		AdjustmentAmount: delta,
		Rationale:        rationale,
	}
	if current > 0 {
		adj.AdjustmentPct = delta / current * 100
	}

	next := c.state
	next.IntegralError += adherenceErr
	next.LastError = adherenceErr
	next.Cycles++
	if deloading {
		next.WeeksSinceDeload = 0
	} else {
		next.WeeksSinceDeload = in.WeeksSinceDeload + c.cfg.CadenceDays/7
	}
	return adj, next
}
