package progress

import (
	"sort"

	"adaptengine"
)

// Aggregator reduces raw logs into a ProgressSnapshot. It is constructed
// per plan so training adherence can be judged against the plan's
// session count.
type Aggregator struct {
	cfg                    adaptengine.ControlConfig
	plannedSessionsPerWeek int
	classifier             Classifier
}

// NewAggregator creates an aggregator. A nil classifier defaults to the
// deterministic rule-based one.
func NewAggregator(cfg adaptengine.ControlConfig, plannedSessionsPerWeek int, classifier Classifier) *Aggregator {
	if classifier == nil {
		classifier = NewRuleClassifier()
	}
	return &Aggregator{cfg: cfg, plannedSessionsPerWeek: plannedSessionsPerWeek, classifier: classifier}
}

// Aggregate computes adherence as logged-days over expected-days per
// channel and the observed rate of change from the first and last
// readings in the window. Linear, not regression, so identical inputs
// always reduce identically.
func (a *Aggregator) Aggregate(
	meals []adaptengine.MealLog,
	activities []adaptengine.ActivityLog,
	metrics []adaptengine.BodyMetric,
	messages []adaptengine.CoachMessage,
	periodDays int,
) adaptengine.ProgressSnapshot {
	if periodDays <= 0 {
		periodDays = a.cfg.CadenceDays
	}

	snapshot := adaptengine.ProgressSnapshot{
		PeriodDays:      periodDays,
		BodyMetricCount: len(metrics),
	}

	mealDays := map[string]bool{}
	for _, m := range meals {
		mealDays[m.Date.Format("2006-01-02")] = true
	}
	snapshot.LoggedMealDays = len(mealDays)
	snapshot.MealAdherence = clampFraction(float64(len(mealDays)) / float64(periodDays))

	completed := 0
	trainingDays := map[string]bool{}
	for _, act := range activities {
		if act.Completed {
			completed++
			trainingDays[act.Date.Format("2006-01-02")] = true
		}
	}
	snapshot.LoggedTrainingDays = len(trainingDays)
	expectedSessions := float64(a.plannedSessionsPerWeek) * float64(periodDays) / 7
	if expectedSessions > 0 {
		snapshot.TrainingAdherence = clampFraction(float64(completed) / expectedSessions)
	}

	if len(metrics) >= 2 {
		sorted := append([]adaptengine.BodyMetric(nil), metrics...)
		sort.Slice(sorted, func(i, j int) bool { return sorted[i].Date.Before(sorted[j].Date) })
		first, last := sorted[0], sorted[len(sorted)-1]
		snapshot.StartWeightKG = first.WeightKG
		snapshot.EndWeightKG = last.WeightKG
		if spanDays := last.Date.Sub(first.Date).Hours() / 24; spanDays >= 1 {
			snapshot.ObservedRateKGPerWeek = (last.WeightKG - first.WeightKG) / spanDays * 7
		}
	}

	analysis := a.classifier.Classify(messages)
	snapshot.Sentiment = analysis.Overall
	snapshot.KeyBarriers = analysis.KeyBarriers

	snapshot.Confidence = a.confidence(snapshot)
	return snapshot
}

// confidence scales with how many days were actually logged; fewer than
// two weigh-ins halves it because no rate can be observed.
func (a *Aggregator) confidence(s adaptengine.ProgressSnapshot) float64 {
	minDays := a.cfg.MinConfidenceDays
	if minDays <= 0 {
		minDays = 10
	}
	conf := clampFraction(float64(s.LoggedMealDays) / float64(minDays))
	if s.BodyMetricCount < 2 {
		conf *= 0.5
	}
	return conf
}

func clampFraction(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
