// Package bedrock provides an LLM-backed sentiment classifier for free-text
// coach messages. The rule-based classifier stays the default; this one is
// for deployments that want nuance over determinism.
package bedrock

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"adaptengine"
	"adaptengine/progress"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
)

const (
	// defaultModelID is an inference profile ID, not the foundation model's ID.
	// See https://docs.aws.amazon.com/bedrock/latest/userguide/inference-profiles.html.
	defaultModelID = "us.anthropic.claude-3-7-sonnet-20250219-v1:0"

	// Classification outputs are tiny; 512 leaves headroom for long barrier lists.
	defaultMaxTokens = 512

	// Low temperature keeps the JSON output consistent across runs.
	defaultTemperature = 0.1

	defaultTopP = 0.9
)

const systemPrompt = `You classify short check-in messages from people following a training and nutrition program.

For each message decide which of these signals apply: missed_session, motivation_high, motivation_low, barrier. A message can carry several signals or none. When the signal is "barrier", name the barrier with a short lowercase label such as "time pressure", "travel", "injury", "illness", "food budget", or "family obligations".

Respond with ONLY a JSON object, no prose:
{"signals":[{"type":"...","barrier":"..."}],"overall_adherence_sentiment":"positive|neutral|negative","key_barriers":["..."]}

overall_adherence_sentiment is positive when motivation signals outweigh the negative ones, negative when missed sessions, low motivation, or barriers dominate, and neutral otherwise. key_barriers lists each distinct barrier once, in order of first mention.`

type bedrockRuntimeClient interface {
	Converse(context.Context, *bedrockruntime.ConverseInput, ...func(*bedrockruntime.Options)) (*bedrockruntime.ConverseOutput, error)
}

type Options struct {
	ModelID     string
	MaxTokens   int32
	Temperature float32
	TopP        float32
}

// Classifier sends the window's messages to Bedrock in one Converse call
// and parses the structured analysis back out. On any failure it falls
// back to the rule-based classifier rather than sinking the cycle.
type Classifier struct {
	brc      bedrockRuntimeClient
	opts     Options
	fallback progress.Classifier
}

func NewClassifier(brc bedrockRuntimeClient, opts Options) *Classifier {
	if opts.ModelID == "" {
		opts.ModelID = defaultModelID
	}
	if opts.MaxTokens == 0 {
		opts.MaxTokens = defaultMaxTokens
	}
	if opts.Temperature == 0 {
		opts.Temperature = defaultTemperature
	}
	if opts.TopP == 0 {
		opts.TopP = defaultTopP
	}
	return &Classifier{
		brc:      brc,
		opts:     opts,
		fallback: progress.NewRuleClassifier(),
	}
}

// Classify satisfies progress.Classifier. The aggregator runs inside a
// cycle that already carries a deadline, so Background is acceptable here;
// callers that want cancellation use ClassifyContext directly.
func (c *Classifier) Classify(messages []adaptengine.CoachMessage) progress.Analysis {
	analysis, err := c.ClassifyContext(context.Background(), messages)
	if err != nil {
		slog.Error("SENTIMENT_LLM: Falling back to rule classifier", "error", err)
		return c.fallback.Classify(messages)
	}
	return analysis
}

func (c *Classifier) ClassifyContext(ctx context.Context, messages []adaptengine.CoachMessage) (progress.Analysis, error) {
	if len(messages) == 0 {
		return progress.Analysis{Overall: adaptengine.SentimentNeutral}, nil
	}

	slog.Info("SENTIMENT_LLM: Invoked", "messages_len", len(messages))

	var b strings.Builder
	for i, m := range messages {
		fmt.Fprintf(&b, "Message %d (%s): %s\n", i+1, m.Date.Format("2006-01-02"), m.Text)
	}

	in := &bedrockruntime.ConverseInput{
		ModelId: &c.opts.ModelID,
		System:  []types.SystemContentBlock{&types.SystemContentBlockMemberText{Value: systemPrompt}},
		Messages: []types.Message{{
			Role:    types.ConversationRoleUser,
			Content: []types.ContentBlock{&types.ContentBlockMemberText{Value: b.String()}},
		}},
		InferenceConfig: &types.InferenceConfiguration{
			MaxTokens:   aws.Int32(c.opts.MaxTokens),
			Temperature: aws.Float32(c.opts.Temperature),
			TopP:        aws.Float32(c.opts.TopP),
		},
	}

	out, err := c.brc.Converse(ctx, in)
	if err != nil {
		return progress.Analysis{}, fmt.Errorf("bedrock converse failed: %w", err)
	}

	slog.Info("SENTIMENT_LLM: Converse succeeded",
		"stop_reason", out.StopReason,
		"input_tokens", aws.ToInt32(out.Usage.InputTokens),
		"output_tokens", aws.ToInt32(out.Usage.OutputTokens),
	)

	text, err := textFromOutput(out)
	if err != nil {
		return progress.Analysis{}, err
	}
	if text == "" {
		return progress.Analysis{}, fmt.Errorf("model returned no text content")
	}

	var analysis progress.Analysis
	if err := json.Unmarshal([]byte(text), &analysis); err != nil {
		return progress.Analysis{}, fmt.Errorf("model output not valid analysis JSON: %w", err)
	}
	if err := validate(analysis); err != nil {
		return progress.Analysis{}, err
	}
	return analysis, nil
}

// validate rejects values outside the closed signal and sentiment sets so
// a drifting model cannot leak arbitrary strings into snapshots.
func validate(a progress.Analysis) error {
	switch a.Overall {
	case adaptengine.SentimentPositive, adaptengine.SentimentNeutral, adaptengine.SentimentNegative:
	default:
		return fmt.Errorf("unknown sentiment %q", a.Overall)
	}
	for _, s := range a.Signals {
		switch s.Type {
		case progress.SignalMissedSession, progress.SignalMotivationHigh, progress.SignalMotivationLow, progress.SignalBarrier:
		default:
			return fmt.Errorf("unknown signal type %q", s.Type)
		}
	}
	return nil
}

// textFromOutput returns the last text block that looks like a single JSON
// object, or the joined text blocks when none do.
func textFromOutput(out *bedrockruntime.ConverseOutput) (string, error) {
	if out == nil || out.Output == nil {
		return "", nil
	}

	msg, ok := out.Output.(*types.ConverseOutputMemberMessage)
	if !ok || len(msg.Value.Content) == 0 {
		return "", nil
	}

	texts := make([]string, 0, len(msg.Value.Content))
	for _, cb := range msg.Value.Content {
		if t, ok := cb.(*types.ContentBlockMemberText); ok && t.Value != "" {
			texts = append(texts, t.Value)
		}
	}

	for i := len(texts) - 1; i >= 0; i-- {
		s := strings.TrimSpace(texts[i])
		if len(s) > 1 && s[0] == '{' && s[len(s)-1] == '}' {
			return s, nil
		}
	}

	return strings.Join(texts, "\n"), nil
}
