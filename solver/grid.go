package solver

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"

	"adaptengine"
)

// GridSolver is the shipped backend: a deterministic bounded enumeration
// over the integer grid of session and duration variables, with the
// nutrition variables resolved to their constraint-determined optima.
// It parallelizes across a configured worker cap and returns TIMEOUT
// rather than blocking past its wall-clock budget.
type GridSolver struct {
	policy adaptengine.PolicyConfig
	cfg    adaptengine.SolverConfig
}

// New creates a GridSolver. Configuration is explicit; there is no
// module-level instance.
func New(policy adaptengine.PolicyConfig, cfg adaptengine.SolverConfig) *GridSolver {
	return &GridSolver{policy: policy, cfg: cfg}
}

type candidate struct {
	params  adaptengine.OptimalParams
	penalty int
}

// better orders candidates deterministically: lowest penalty, then more
// sessions, then shorter sessions.
func better(a, b candidate) bool {
	if a.penalty != b.penalty {
		return a.penalty < b.penalty
	}
	if a.params.SessionsPerWeek != b.params.SessionsPerWeek {
		return a.params.SessionsPerWeek > b.params.SessionsPerWeek
	}
	return a.params.SessionDurationMin < b.params.SessionDurationMin
}

// Solve runs the enumeration. Identical inputs always produce identical
// results: the grid order is fixed and the merge is order-independent.
func (s *GridSolver) Solve(ctx context.Context, in Input) adaptengine.SolverResult {
	ctx, span := otel.Tracer(adaptengine.TracerNameSolver).Start(ctx, "GridSolver.Solve")
	defer span.End()

	start := time.Now()
	deadline := start.Add(time.Duration(s.cfg.TimeBudgetMS) * time.Millisecond)
	if ctxDeadline, ok := ctx.Deadline(); ok && ctxDeadline.Before(deadline) {
		deadline = ctxDeadline
	}

	bounds, diags := s.analyze(in)
	if len(diags) > 0 {
		slog.Info("SOLVER: infeasible before search", "user_id", in.Profile.ID, "diagnostics", len(diags))
		return adaptengine.SolverResult{
			Status:      adaptengine.SolveInfeasible,
			Feasible:    false,
			RuntimeMS:   time.Since(start).Milliseconds(),
			Diagnostics: diags,
			TradeOffs:   s.tradeOffs(in, bounds),
		}
	}

	type combo struct{ sessions, duration int }
	var combos []combo
	for sess := bounds.sessionsMin; sess <= bounds.sessionsMax; sess++ {
		for dur := bounds.durationMin; dur <= bounds.durationMax; dur += s.cfg.DurationStepMin {
			combos = append(combos, combo{sess, dur})
		}
	}

	workers := s.cfg.MaxThreads
	if workers < 1 {
		workers = 1
	}
	if workers > len(combos) {
		workers = len(combos)
	}

	bests := make([]*candidate, workers)
	var timedOut atomic.Bool
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := w; i < len(combos); i += workers {
				if time.Now().After(deadline) || ctx.Err() != nil {
					timedOut.Store(true)
					return
				}
				cand, ok := s.evaluate(in, bounds, combos[i].sessions, combos[i].duration)
				if !ok {
					continue
				}
				if bests[w] == nil || better(cand, *bests[w]) {
					c := cand
					bests[w] = &c
				}
			}
		}(w)
	}
	wg.Wait()

	if timedOut.Load() {
		slog.Warn("SOLVER: wall-clock budget exhausted", "user_id", in.Profile.ID, "budget_ms", s.cfg.TimeBudgetMS)
		return adaptengine.SolverResult{
			Status:    adaptengine.SolveTimeout,
			Feasible:  false,
			RuntimeMS: time.Since(start).Milliseconds(),
		}
	}

	var best *candidate
	for _, b := range bests {
		if b == nil {
			continue
		}
		if best == nil || better(*b, *best) {
			best = b
		}
	}

	if best == nil {
		diag := adaptengine.Diagnostic{
			Code:       "no_feasible_combination",
			Constraint: "weekly_training_minutes",
			Detail:     "no session/duration combination satisfies the minimum training volume",
			Severity:   adaptengine.SeverityHigh,
		}
		return adaptengine.SolverResult{
			Status:      adaptengine.SolveInfeasible,
			Feasible:    false,
			RuntimeMS:   time.Since(start).Milliseconds(),
			Diagnostics: []adaptengine.Diagnostic{diag},
			TradeOffs:   s.tradeOffs(in, bounds),
		}
	}

	params := best.params
	return adaptengine.SolverResult{
		Status:        adaptengine.SolveFeasible,
		Feasible:      true,
		RuntimeMS:     time.Since(start).Milliseconds(),
		OptimalParams: &params,
	}
}

// evaluate scores one (sessions, duration) cell. Nutrition variables are
// already pinned by analyze; what varies is the set allocation and the
// soft-constraint penalty.
func (s *GridSolver) evaluate(in Input, b effectiveBounds, sessions, duration int) (candidate, bool) {
	weeklyMinutes := sessions * duration
	setCap := weeklyMinutes / s.policy.MinutesPerSet

	groups := len(MuscleGroups)
	if setCap < b.setsFloor*groups {
		return candidate{}, false
	}

	base := setCap / groups
	if base > b.setsCeiling {
		base = b.setsCeiling
	}
	sets := make(map[string]int, groups)
	for _, m := range MuscleGroups {
		sets[m] = base
	}

	// Spread any leftover capacity one set at a time in fixed order, so
	// imbalance never exceeds one set.
	extra := setCap - base*groups
	imbalance := 0
	for _, m := range MuscleGroups {
		if extra == 0 {
			break
		}
		if sets[m] < b.setsCeiling {
			sets[m]++
			extra--
			imbalance = 1
		}
	}
	if extra >= groups {
		// Every group hit the ceiling; remaining time is unused capacity,
		// not imbalance.
		imbalance = 0
	}

	penalty := s.cfg.PenaltyFrequency * (b.sessionsMax - sessions)
	penalty += s.cfg.PenaltyDuration * ((duration - b.durationMin) / s.cfg.DurationStepMin)
	penalty += s.cfg.PenaltyImbalance * imbalance

	carbs := (b.calories - b.proteinG*4 - b.fatG*9) / 4

	return candidate{
		params: adaptengine.OptimalParams{
			SessionsPerWeek:       sessions,
			SessionDurationMin:    duration,
			WeeklyTrainingMinutes: weeklyMinutes,
			Calories:              b.calories,
			ProteinG:              b.proteinG,
			FatG:                  b.fatG,
			CarbsG:                carbs,
			SetsPerMuscle:         sets,
		},
		penalty: penalty,
	}, true
}
