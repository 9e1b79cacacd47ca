package solver

import (
	"fmt"
	"math"

	"adaptengine"
)

// tradeOffs synthesizes the three quantified alternatives offered on an
// infeasible solve. Generation is a pure function of the input: option A
// relaxes the goal, B relaxes the schedule constraints, C averages both.
func (s *GridSolver) tradeOffs(in Input, b effectiveBounds) []adaptengine.TradeOffOption {
	p := in.Profile

	rate := p.TargetRateKGPerWeek
	timeline := p.TimelineWeeks
	if timeline == 0 && rate > 0 && p.TargetWeightKG > 0 {
		timeline = int(math.Ceil(math.Abs(p.TargetWeightKG-p.WeightKG) / rate))
	}

	maxSessions := p.Schedule.AvailableDays
	if maxSessions == 0 {
		maxSessions = b.sessionsMax
	}
	midSessions := (b.sessionsMax + maxSessions + 1) / 2

	optionA := adaptengine.TradeOffOption{
		ID:      "A",
		Summary: "Keep your schedule and budget; slow the goal down",
		Adjustments: map[string]float64{
			"target_rate_kg_per_week": roundRate(rate / 2),
			"timeline_weeks":          float64(timeline * 2),
		},
		ExpectedOutcomes: fmt.Sprintf("Reach the same target weight in about %d weeks instead of %d", timeline*2, timeline),
		TradeOff:         "Progress is slower; everything else stays as planned",
		FeasibilityScore: s.cfg.ScoreRelaxGoal,
	}

	optionB := adaptengine.TradeOffOption{
		ID:      "B",
		Summary: "Keep the goal; commit more training time",
		Adjustments: map[string]float64{
			"sessions_per_week":        float64(maxSessions),
			"session_duration_minutes": float64(b.durationMax),
		},
		ExpectedOutcomes: fmt.Sprintf("Original %.2f kg/week pace held by training %d days/week at %d minutes", rate, maxSessions, b.durationMax),
		TradeOff:         "A significantly larger weekly time commitment",
		FeasibilityScore: s.cfg.ScoreRelaxConstraints,
	}

	optionC := adaptengine.TradeOffOption{
		ID:      "C",
		Summary: "Moderate both: a gentler pace with somewhat more training",
		Adjustments: map[string]float64{
			"target_rate_kg_per_week": roundRate(rate * 0.75),
			"timeline_weeks":          math.Ceil(float64(timeline) * 1.33),
			"sessions_per_week":       float64(midSessions),
		},
		ExpectedOutcomes: fmt.Sprintf("About %.2f kg/week over roughly %.0f weeks with %d sessions/week",
			roundRate(rate*0.75), math.Ceil(float64(timeline)*1.33), midSessions),
		TradeOff:         "Both the pace and the time commitment shift moderately",
		FeasibilityScore: s.cfg.ScoreHybrid,
	}

	return []adaptengine.TradeOffOption{optionA, optionB, optionC}
}

func roundRate(r float64) float64 {
	return math.Round(r*100) / 100
}
