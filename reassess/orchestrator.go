// Package reassess runs the periodic adaptation cycle: aggregate the
// window's logs, evaluate both control loops, gate the result through the
// safety rules, and commit a new plan version only when the result is safe.
package reassess

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"adaptengine"
	"adaptengine/control"
	"adaptengine/progress"
	"adaptengine/safety"
	"adaptengine/solver"
	"adaptengine/storage"

	"go.opentelemetry.io/otel"
)

// Phase names the stations of one reassessment cycle. Every cycle walks
// them in order and terminates in COMMITTED or REJECTED.
type Phase string

const (
	PhaseIdle        Phase = "IDLE"
	PhaseAggregating Phase = "AGGREGATING"
	PhaseAnalyzing   Phase = "ANALYZING"
	PhaseControlling Phase = "CONTROLLING"
	PhaseSafetyCheck Phase = "SAFETY_CHECK"
	PhaseCommitted   Phase = "COMMITTED"
	PhaseRejected    Phase = "REJECTED"
)

// Window is the raw log bundle for one reassessment period.
type Window struct {
	Meals      []adaptengine.MealLog
	Activities []adaptengine.ActivityLog
	Metrics    []adaptengine.BodyMetric
	Messages   []adaptengine.CoachMessage
}

// Source is the persistence collaborator the orchestrator reads from. The
// engine never owns user data; the assembly layer implements this.
type Source interface {
	Profile(ctx context.Context, userID string) (adaptengine.UserProfile, error)
	Window(ctx context.Context, userID string, since, until time.Time) (Window, error)
}

// Evaluation is the outcome of one cycle before any persistence. Commit
// applies it; a rejected or re-run evaluation leaves no trace.
type Evaluation struct {
	Adjustment adaptengine.PlanAdjustment
	Phase      Phase
	NextPlan   adaptengine.PlanVersion

	calState control.State
	volState control.State
}

// Orchestrator drives the reassessment state machine for one user at a
// time. Evaluation is deterministic given the stored state and the
// injected clock; persistence happens only on commit.
type Orchestrator struct {
	policy     adaptengine.PolicyConfig
	ctrl       adaptengine.ControlConfig
	source     Source
	plans      storage.PlanStore
	arena      *control.Arena
	validator  *safety.Validator
	classifier progress.Classifier
	logger     adaptengine.CycleLogger
	clock      func() time.Time
}

// NewOrchestrator wires the cycle's collaborators. A nil classifier
// defaults to the rule-based one, a nil logger to the no-op logger, and a
// nil clock to time.Now.
func NewOrchestrator(
	policy adaptengine.PolicyConfig,
	ctrl adaptengine.ControlConfig,
	source Source,
	plans storage.PlanStore,
	arena *control.Arena,
	validator *safety.Validator,
	classifier progress.Classifier,
	logger adaptengine.CycleLogger,
	clock func() time.Time,
) *Orchestrator {
	if logger == nil {
		logger = adaptengine.NewNoOpCycleLogger()
	}
	if clock == nil {
		clock = time.Now
	}
	return &Orchestrator{
		policy:     policy,
		ctrl:       ctrl,
		source:     source,
		plans:      plans,
		arena:      arena,
		validator:  validator,
		classifier: classifier,
		logger:     logger,
		clock:      clock,
	}
}

// RunCycle executes one full cycle for a user and records it. Committed
// evaluations persist the new plan version and advanced controller state;
// rejected ones persist nothing, so the next cycle sees the prior plan.
func (o *Orchestrator) RunCycle(ctx context.Context, userID string) (adaptengine.PlanAdjustment, error) {
	ctx, span := otel.Tracer(adaptengine.TracerNameReassess).Start(ctx, "Orchestrator.RunCycle")
	defer span.End()

	ev, err := o.Evaluate(ctx, userID)
	if err != nil {
		o.logCycle(adaptengine.CycleLog{
			UserID:    userID,
			Timestamp: o.clock(),
			State:     string(PhaseRejected),
			Error:     err.Error(),
		})
		return adaptengine.PlanAdjustment{}, err
	}

	if ev.Adjustment.Committed {
		if err := o.Commit(ctx, ev); err != nil {
			return adaptengine.PlanAdjustment{}, err
		}
	}

	o.logCycle(adaptengine.CycleLog{
		UserID:     userID,
		Cycle:      ev.Adjustment.Cycle,
		Timestamp:  o.clock(),
		State:      string(ev.Phase),
		Snapshot:   ev.Adjustment.Snapshot,
		Adjustment: ev.Adjustment,
		Committed:  ev.Adjustment.Committed,
		Warnings:   ev.Adjustment.Warnings,
	})
	return ev.Adjustment, nil
}

// Evaluate walks the cycle's phases without persisting anything.
// Identical stored state and logs always evaluate identically.
func (o *Orchestrator) Evaluate(ctx context.Context, userID string) (Evaluation, error) {
	slog.Info("ORCHESTRATOR: Starting cycle", "user_id", userID, "phase", PhaseIdle)

	plan, err := o.plans.Active(ctx, userID)
	if errors.Is(err, storage.ErrNotFound) || (err == nil && plan == nil) {
		return Evaluation{}, fmt.Errorf("no active plan for %s", userID)
	}
	if err != nil {
		return Evaluation{}, fmt.Errorf("loading active plan for %s: %w", userID, err)
	}

	profile, err := o.source.Profile(ctx, userID)
	if err != nil {
		return Evaluation{}, fmt.Errorf("loading profile for %s: %w", userID, err)
	}

	// AGGREGATING: reduce the window's raw logs to a snapshot.
	slog.Info("ORCHESTRATOR: Aggregating", "user_id", userID, "phase", PhaseAggregating)
	until := o.clock()
	since := until.AddDate(0, 0, -o.ctrl.CadenceDays)
	win, err := o.source.Window(ctx, userID, since, until)
	if err != nil {
		return Evaluation{}, fmt.Errorf("loading logs for %s: %w", userID, err)
	}

	agg := progress.NewAggregator(o.ctrl, plan.SessionsPerWeek, o.classifier)
	snapshot := agg.Aggregate(win.Meals, win.Activities, win.Metrics, win.Messages, o.ctrl.CadenceDays)

	// ANALYZING: the snapshot carries sentiment and barriers already; this
	// phase just surfaces them before control runs.
	slog.Info("ORCHESTRATOR: Analyzing",
		"user_id", userID,
		"phase", PhaseAnalyzing,
		"meal_adherence", snapshot.MealAdherence,
		"training_adherence", snapshot.TrainingAdherence,
		"observed_rate", snapshot.ObservedRateKGPerWeek,
		"confidence", snapshot.Confidence,
		"sentiment", snapshot.Sentiment,
		"barriers", snapshot.KeyBarriers,
	)

	// CONTROLLING: evaluate both loops against their accumulated state.
	slog.Info("ORCHESTRATOR: Controlling", "user_id", userID, "phase", PhaseControlling)
	calState, err := o.arena.Load(ctx, userID, control.KindCalorie)
	if err != nil {
		return Evaluation{}, err
	}
	volState, err := o.arena.Load(ctx, userID, control.KindVolume)
	if err != nil {
		return Evaluation{}, err
	}

	calAdj, nextCal := control.NewCalorieController(o.ctrl, o.policy, calState).CalculateAdjustment(control.CalorieInput{
		TargetRate:      plan.TargetRateKGPerWeek,
		ActualRate:      snapshot.ObservedRateKGPerWeek,
		CurrentCalories: float64(plan.Calories),
		WeeksElapsed:    int(until.Sub(plan.StartedAt).Hours() / (24 * 7)),
		Confidence:      snapshot.Confidence,
		Adherence:       snapshot.MealAdherence,
	})

	ceiling := o.policy.SetsCeiling(profile.Experience()) * len(solver.MuscleGroups)
	volAdj, nextVol := control.NewVolumeController(o.ctrl, volState).CalculateAdjustment(control.VolumeInput{
		TargetAdherence:  o.ctrl.TargetAdherence,
		ActualAdherence:  snapshot.TrainingAdherence,
		CurrentSets:      plan.WeeklySets,
		WeeksSinceDeload: volState.WeeksSinceDeload,
		CeilingSets:      ceiling,
		Confidence:       snapshot.Confidence,
	})

	adjustment := adaptengine.PlanAdjustment{
		UserID:   userID,
		Cycle:    nextCal.Cycles,
		Calories: calAdj,
		Volume:   volAdj,
		Snapshot: snapshot,
	}

	// SAFETY_CHECK: the profile gate and the adjustment gate both have to
	// pass before anything is committed.
	slog.Info("ORCHESTRATOR: Safety check", "user_id", userID, "phase", PhaseSafetyCheck)
	profileCheck := o.validator.Validate(profile, adaptengine.TDEEResult{TDEE: plan.TDEE})
	if profileCheck.Level == adaptengine.SafetyBlocked {
		slog.Warn("ORCHESTRATOR: Cycle rejected, profile blocked", "user_id", userID, "reason", profileCheck.Reason)
		adjustment.Warnings = append(adjustment.Warnings, profileCheck.Reason)
		return Evaluation{Adjustment: adjustment, Phase: PhaseRejected}, nil
	}

	proposedDeficit := 0.0
	if plan.TDEE > 0 {
		proposedDeficit = (plan.TDEE - calAdj.Recommended) / plan.TDEE * 100
	}
	safe, warnings := o.validator.ValidatePlanAdjustments(plan.DeficitPct(), proposedDeficit, snapshot.MealAdherence*100)
	adjustment.Warnings = append(adjustment.Warnings, warnings...)
	if !safe {
		slog.Warn("ORCHESTRATOR: Cycle rejected, unsafe adjustment", "user_id", userID, "warnings", warnings)
		return Evaluation{Adjustment: adjustment, Phase: PhaseRejected}, nil
	}

	adjustment.Committed = true
	next := adaptengine.PlanVersion{
		UserID:              plan.UserID,
		Version:             plan.Version + 1,
		Active:              true,
		CreatedAt:           until,
		Calories:            int(calAdj.Recommended),
		WeeklySets:          int(volAdj.Recommended),
		SessionsPerWeek:     plan.SessionsPerWeek,
		TDEE:                plan.TDEE,
		TargetRateKGPerWeek: plan.TargetRateKGPerWeek,
		StartedAt:           plan.StartedAt,
	}

	slog.Info("ORCHESTRATOR: Cycle committed",
		"user_id", userID,
		"cycle", adjustment.Cycle,
		"plan_version", next.Version,
		"calories", next.Calories,
		"weekly_sets", next.WeeklySets,
	)
	return Evaluation{
		Adjustment: adjustment,
		Phase:      PhaseCommitted,
		NextPlan:   next,
		calState:   nextCal,
		volState:   nextVol,
	}, nil
}

// Commit persists a committed evaluation: both controller states first,
// then the plan version. The plan is what collaborators act on, so a
// failure mid-commit must leave the prior version active rather than
// advance the plan against stale controller state.
func (o *Orchestrator) Commit(ctx context.Context, ev Evaluation) error {
	if !ev.Adjustment.Committed {
		return fmt.Errorf("refusing to commit a %s evaluation", ev.Phase)
	}
	if err := o.arena.Save(ctx, ev.calState); err != nil {
		return err
	}
	if err := o.arena.Save(ctx, ev.volState); err != nil {
		return err
	}
	plan := ev.NextPlan
	if err := o.plans.Save(ctx, &plan); err != nil {
		return fmt.Errorf("saving plan v%d for %s: %w", plan.Version, plan.UserID, err)
	}
	return nil
}

func (o *Orchestrator) logCycle(cycle adaptengine.CycleLog) {
	if err := o.logger.LogCycle(cycle); err != nil {
		slog.Error("Failed to log reassessment cycle", "error", err, "user_id", cycle.UserID)
	}
}
