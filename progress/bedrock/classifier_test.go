package bedrock

import (
	"context"
	"testing"
	"time"

	"adaptengine"
	"adaptengine/progress"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockBedrockClient implements bedrockRuntimeClient for testing
type mockBedrockClient struct {
	response *bedrockruntime.ConverseOutput
	err      error
}

func (m *mockBedrockClient) Converse(ctx context.Context, input *bedrockruntime.ConverseInput, opts ...func(*bedrockruntime.Options)) (*bedrockruntime.ConverseOutput, error) {
	return m.response, m.err
}

func converseText(text string) *bedrockruntime.ConverseOutput {
	return &bedrockruntime.ConverseOutput{
		StopReason: "end_turn",
		Output: &types.ConverseOutputMemberMessage{
			Value: types.Message{
				Content: []types.ContentBlock{
					&types.ContentBlockMemberText{Value: text},
				},
			},
		},
		Usage: &types.TokenUsage{
			InputTokens:  aws.Int32(10),
			OutputTokens: aws.Int32(20),
		},
	}
}

func messages(texts ...string) []adaptengine.CoachMessage {
	var msgs []adaptengine.CoachMessage
	for _, t := range texts {
		msgs = append(msgs, adaptengine.CoachMessage{
			Date: time.Date(2026, 8, 10, 9, 0, 0, 0, time.UTC),
			Text: t,
		})
	}
	return msgs
}

func TestNewClassifier(t *testing.T) {
	tests := []struct {
		name     string
		input    Options
		expected Options
	}{
		{
			name:  "empty options uses defaults",
			input: Options{},
			expected: Options{
				ModelID:     defaultModelID,
				MaxTokens:   defaultMaxTokens,
				Temperature: defaultTemperature,
				TopP:        defaultTopP,
			},
		},
		{
			name: "partial options with defaults",
			input: Options{
				ModelID:   "custom-model",
				MaxTokens: 256,
			},
			expected: Options{
				ModelID:     "custom-model",
				MaxTokens:   256,
				Temperature: defaultTemperature,
				TopP:        defaultTopP,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockClient := &mockBedrockClient{}
			c := NewClassifier(mockClient, tt.input)

			assert.Equal(t, tt.expected, c.opts)
			assert.Equal(t, mockClient, c.brc)
			assert.NotNil(t, c.fallback)
		})
	}
}

func TestClassifyContext(t *testing.T) {
	tests := []struct {
		name          string
		mockResponse  *bedrockruntime.ConverseOutput
		mockError     error
		expected      progress.Analysis
		expectedError string
	}{
		{
			name: "parses structured analysis",
			mockResponse: converseText(`{
				"signals": [
					{"type": "missed_session"},
					{"type": "barrier", "barrier": "travel"}
				],
				"overall_adherence_sentiment": "negative",
				"key_barriers": ["travel"]
			}`),
			expected: progress.Analysis{
				Signals: []progress.Signal{
					{Type: progress.SignalMissedSession},
					{Type: progress.SignalBarrier, Barrier: "travel"},
				},
				Overall:     adaptengine.SentimentNegative,
				KeyBarriers: []string{"travel"},
			},
		},
		{
			name:          "rejects unknown sentiment",
			mockResponse:  converseText(`{"signals": [], "overall_adherence_sentiment": "ecstatic"}`),
			expectedError: `unknown sentiment "ecstatic"`,
		},
		{
			name:          "rejects unknown signal type",
			mockResponse:  converseText(`{"signals": [{"type": "vibes"}], "overall_adherence_sentiment": "neutral"}`),
			expectedError: `unknown signal type "vibes"`,
		},
		{
			name:          "invalid JSON",
			mockResponse:  converseText("sure, here is the analysis"),
			expectedError: "not valid analysis JSON",
		},
		{
			name:          "bedrock API error",
			mockError:     assert.AnError,
			expectedError: "bedrock converse failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewClassifier(&mockBedrockClient{response: tt.mockResponse, err: tt.mockError}, Options{})
			analysis, err := c.ClassifyContext(context.Background(), messages("missed a few sessions, was on the road"))

			if tt.expectedError != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.expectedError)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.expected, analysis)
		})
	}
}

func TestClassifyContextEmptyMessages(t *testing.T) {
	c := NewClassifier(&mockBedrockClient{err: assert.AnError}, Options{})

	analysis, err := c.ClassifyContext(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, adaptengine.SentimentNeutral, analysis.Overall)
}

func TestClassifyFallsBackOnError(t *testing.T) {
	c := NewClassifier(&mockBedrockClient{err: assert.AnError}, Options{})

	analysis := c.Classify(messages("missed my workout, traveling for work"))

	assert.Equal(t, adaptengine.SentimentNegative, analysis.Overall)
	assert.Equal(t, []string{"travel"}, analysis.KeyBarriers)
}

func TestTextFromOutputPrefersJSONBlock(t *testing.T) {
	out := &bedrockruntime.ConverseOutput{
		Output: &types.ConverseOutputMemberMessage{
			Value: types.Message{
				Content: []types.ContentBlock{
					&types.ContentBlockMemberText{Value: "Here is the analysis:"},
					&types.ContentBlockMemberText{Value: `{"signals": []}`},
				},
			},
		},
	}

	text, err := textFromOutput(out)
	require.NoError(t, err)
	assert.Equal(t, `{"signals": []}`, text)
}
