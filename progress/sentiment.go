// Package progress reduces a reassessment window's raw logs into the
// compact snapshot the controllers consume.
package progress

import (
	"regexp"

	"adaptengine"
)

// SignalType classifies what a coach message reveals about adherence.
type SignalType string

const (
	SignalMissedSession  SignalType = "missed_session"
	SignalMotivationHigh SignalType = "motivation_high"
	SignalMotivationLow  SignalType = "motivation_low"
	SignalBarrier        SignalType = "barrier"
)

// Signal is one detected message signal. Barrier carries an opaque label
// only for SignalBarrier.
type Signal struct {
	Type    SignalType `json:"type"`
	Barrier string     `json:"barrier,omitempty"`
}

// Analysis is the rolled-up sentiment output for a window.
type Analysis struct {
	Signals     []Signal              `json:"signals"`
	Overall     adaptengine.Sentiment `json:"overall_adherence_sentiment"`
	KeyBarriers []string              `json:"key_barriers,omitempty"`
}

// Classifier turns coach messages into an Analysis. The rule-based
// implementation is the default; an LLM-backed one can substitute where
// determinism is not required.
type Classifier interface {
	Classify(messages []adaptengine.CoachMessage) Analysis
}

type barrierPattern struct {
	pattern *regexp.Regexp
	label   string
}

// RuleClassifier detects signals with fixed patterns, so identical
// messages always produce the identical analysis.
type RuleClassifier struct {
	missedPatterns []*regexp.Regexp
	highPatterns   []*regexp.Regexp
	lowPatterns    []*regexp.Regexp
	barriers       []barrierPattern
}

// NewRuleClassifier builds the default pattern set.
func NewRuleClassifier() *RuleClassifier {
	return &RuleClassifier{
		missedPatterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\b(missed|skipped) (my |the |a )?(workout|session|training|gym)\b`),
			regexp.MustCompile(`(?i)\b(couldn't|could not|didn't|did not) (make it|train|work out|get to the gym)\b`),
		},
		highPatterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\bfeeling (great|strong|good|amazing)\b`),
			regexp.MustCompile(`(?i)\b(crushed|smashed|nailed) (it|my|the)\b`),
			regexp.MustCompile(`(?i)\b(pumped|motivated|energized|making progress)\b`),
			regexp.MustCompile(`(?i)\bnew (pr|personal record|best)\b`),
		},
		lowPatterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\b(tired|exhausted|drained|burned out|burnt out)\b`),
			regexp.MustCompile(`(?i)\b(unmotivated|struggling|losing steam|want to quit)\b`),
			regexp.MustCompile(`(?i)\bnot (seeing|feeling) (any )?(progress|results)\b`),
		},
		barriers: []barrierPattern{
			{regexp.MustCompile(`(?i)\b(too busy|no time|work (has been|is) (crazy|hectic|busy)|long hours)\b`), "time pressure"},
			{regexp.MustCompile(`(?i)\b(travel(ing|ling)?|on the road|out of town|business trip)\b`), "travel"},
			{regexp.MustCompile(`(?i)\b(injur(y|ed)|hurt my|pulled a|tweaked)\b`), "injury"},
			{regexp.MustCompile(`(?i)\b(sick|ill|under the weather|caught a cold|flu)\b`), "illness"},
			{regexp.MustCompile(`(?i)\b(can't afford|too expensive|groceries cost)\b`), "food budget"},
			{regexp.MustCompile(`(?i)\b(kids|family|childcare)\b`), "family obligations"},
		},
	}
}

// Classify scans every message against every pattern set. A message can
// carry several signals; barriers are deduplicated in first-seen order.
func (c *RuleClassifier) Classify(messages []adaptengine.CoachMessage) Analysis {
	var analysis Analysis
	seenBarriers := map[string]bool{}

	for _, msg := range messages {
		for _, p := range c.missedPatterns {
			if p.MatchString(msg.Text) {
				analysis.Signals = append(analysis.Signals, Signal{Type: SignalMissedSession})
				break
			}
		}
		for _, p := range c.highPatterns {
			if p.MatchString(msg.Text) {
				analysis.Signals = append(analysis.Signals, Signal{Type: SignalMotivationHigh})
				break
			}
		}
		for _, p := range c.lowPatterns {
			if p.MatchString(msg.Text) {
				analysis.Signals = append(analysis.Signals, Signal{Type: SignalMotivationLow})
				break
			}
		}
		for _, b := range c.barriers {
			if b.pattern.MatchString(msg.Text) {
				analysis.Signals = append(analysis.Signals, Signal{Type: SignalBarrier, Barrier: b.label})
				if !seenBarriers[b.label] {
					seenBarriers[b.label] = true
					analysis.KeyBarriers = append(analysis.KeyBarriers, b.label)
				}
			}
		}
	}

	analysis.Overall = rollUp(analysis.Signals)
	return analysis
}

func rollUp(signals []Signal) adaptengine.Sentiment {
	score := 0
	for _, sig := range signals {
		switch sig.Type {
		case SignalMotivationHigh:
			score++
		case SignalMotivationLow, SignalMissedSession, SignalBarrier:
			score--
		}
	}
	switch {
	case score > 0:
		return adaptengine.SentimentPositive
	case score < 0:
		return adaptengine.SentimentNegative
	default:
		return adaptengine.SentimentNeutral
	}
}
