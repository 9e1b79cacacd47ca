package progress

import (
	"testing"
	"time"

	"adaptengine"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(n int) time.Time {
	return time.Date(2026, 8, 1, 8, 0, 0, 0, time.UTC).AddDate(0, 0, n)
}

func TestAggregateAdherenceAndRate(t *testing.T) {
	agg := NewAggregator(adaptengine.DefaultControlConfig(), 4, nil)

	var meals []adaptengine.MealLog
	for d := 0; d < 12; d++ {
		// Two meals on some days must not double-count the day.
		meals = append(meals, adaptengine.MealLog{Date: day(d), Calories: 600})
		meals = append(meals, adaptengine.MealLog{Date: day(d).Add(6 * time.Hour), Calories: 700})
	}

	var activities []adaptengine.ActivityLog
	for d := 0; d < 14; d += 2 {
		activities = append(activities, adaptengine.ActivityLog{Date: day(d), Minutes: 60, Completed: true})
	}

	metrics := []adaptengine.BodyMetric{
		{Date: day(0), WeightKG: 80.0},
		{Date: day(7), WeightKG: 80.3},
		{Date: day(14), WeightKG: 80.6},
	}

	snapshot := agg.Aggregate(meals, activities, metrics, nil, 14)

	assert.Equal(t, 12, snapshot.LoggedMealDays)
	assert.InDelta(t, 12.0/14.0, snapshot.MealAdherence, 0.001)
	// 7 completed sessions against 8 expected (4/week over 2 weeks).
	assert.InDelta(t, 7.0/8.0, snapshot.TrainingAdherence, 0.001)
	// Linear rate from first and last readings: 0.6 kg over 14 days.
	assert.InDelta(t, 0.3, snapshot.ObservedRateKGPerWeek, 0.001)
	assert.Equal(t, 80.0, snapshot.StartWeightKG)
	assert.Equal(t, 80.6, snapshot.EndWeightKG)
	assert.Equal(t, 1.0, snapshot.Confidence)
}

func TestAggregateSparseDataDampensConfidence(t *testing.T) {
	agg := NewAggregator(adaptengine.DefaultControlConfig(), 4, nil)

	meals := []adaptengine.MealLog{
		{Date: day(0), Calories: 600},
		{Date: day(3), Calories: 700},
		{Date: day(8), Calories: 500},
	}

	snapshot := agg.Aggregate(meals, nil, nil, nil, 14)

	assert.Equal(t, 3, snapshot.LoggedMealDays)
	// 3 of 10 minimum days, halved again for missing weigh-ins.
	assert.InDelta(t, 0.15, snapshot.Confidence, 0.001)
	assert.Zero(t, snapshot.ObservedRateKGPerWeek)
}

func TestAggregateSingleWeighInYieldsNoRate(t *testing.T) {
	agg := NewAggregator(adaptengine.DefaultControlConfig(), 3, nil)

	metrics := []adaptengine.BodyMetric{{Date: day(5), WeightKG: 74.2}}
	snapshot := agg.Aggregate(nil, nil, metrics, nil, 14)

	assert.Zero(t, snapshot.ObservedRateKGPerWeek)
	assert.Equal(t, 1, snapshot.BodyMetricCount)
}

func TestAggregateIsDeterministic(t *testing.T) {
	agg := NewAggregator(adaptengine.DefaultControlConfig(), 4, nil)

	meals := []adaptengine.MealLog{{Date: day(0)}, {Date: day(1)}}
	metrics := []adaptengine.BodyMetric{{Date: day(0), WeightKG: 80}, {Date: day(13), WeightKG: 79.5}}
	messages := []adaptengine.CoachMessage{{Date: day(2), Text: "work has been crazy, missed my session"}}

	first := agg.Aggregate(meals, nil, metrics, messages, 14)
	second := agg.Aggregate(meals, nil, metrics, messages, 14)
	assert.Equal(t, first, second)
}

func TestRuleClassifier(t *testing.T) {
	c := NewRuleClassifier()

	tests := []struct {
		name         string
		messages     []string
		wantOverall  adaptengine.Sentiment
		wantBarriers []string
	}{
		{
			name:        "positive streak",
			messages:    []string{"Feeling great this week!", "Crushed it today, new PR on squats"},
			wantOverall: adaptengine.SentimentPositive,
		},
		{
			name:         "missed sessions with barrier",
			messages:     []string{"Missed my workout, work has been crazy", "skipped the gym again"},
			wantOverall:  adaptengine.SentimentNegative,
			wantBarriers: []string{"time pressure"},
		},
		{
			name:        "mixed signals cancel out",
			messages:    []string{"Feeling strong!", "so tired lately"},
			wantOverall: adaptengine.SentimentNeutral,
		},
		{
			name:         "barriers deduplicated",
			messages:     []string{"traveling for work", "still on the road", "hurt my shoulder"},
			wantOverall:  adaptengine.SentimentNegative,
			wantBarriers: []string{"travel", "injury"},
		},
		{
			name:        "no signals is neutral",
			messages:    []string{"what should I eat before the morning session?"},
			wantOverall: adaptengine.SentimentNeutral,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var msgs []adaptengine.CoachMessage
			for _, text := range tt.messages {
				msgs = append(msgs, adaptengine.CoachMessage{Date: day(0), Text: text})
			}
			analysis := c.Classify(msgs)
			assert.Equal(t, tt.wantOverall, analysis.Overall)
			assert.Equal(t, tt.wantBarriers, analysis.KeyBarriers)
		})
	}
}

func TestRuleClassifierIgnoresEmbeddedWords(t *testing.T) {
	c := NewRuleClassifier()

	// Pattern words buried inside longer words ("ill" in "still", "tired"
	// in "retired", "pr" in "pressure", "flu" in "flushed") are not signals.
	messages := []string{
		"I will keep at it, still on track",
		"retired early tonight after drills",
		"new pressure at work but managing fine",
		"felt flushed after the sauna",
	}

	var msgs []adaptengine.CoachMessage
	for _, text := range messages {
		msgs = append(msgs, adaptengine.CoachMessage{Date: day(0), Text: text})
	}

	analysis := c.Classify(msgs)
	assert.Empty(t, analysis.Signals)
	assert.Empty(t, analysis.KeyBarriers)
	assert.Equal(t, adaptengine.SentimentNeutral, analysis.Overall)
}

func TestRuleClassifierMessageCanCarryMultipleSignals(t *testing.T) {
	c := NewRuleClassifier()

	analysis := c.Classify([]adaptengine.CoachMessage{
		{Date: day(0), Text: "missed my session, too busy and exhausted"},
	})

	require.Len(t, analysis.Signals, 3)
	assert.Equal(t, adaptengine.SentimentNegative, analysis.Overall)
	assert.Equal(t, []string{"time pressure"}, analysis.KeyBarriers)
}
