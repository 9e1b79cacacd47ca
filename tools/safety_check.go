package tools

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/jsonschema"

	"adaptengine"
	"adaptengine/safety"
)

// SafetyCheck validates a profile against the medical safety rules
// without running a solve.
type SafetyCheck struct{ validator *safety.Validator }

func NewSafetyCheck(validator *safety.Validator) *SafetyCheck {
	return &SafetyCheck{validator: validator}
}

func (t *SafetyCheck) Name() string  { return "safety_check" }
func (t *SafetyCheck) Title() string { return "Check Profile Safety" }
func (t *SafetyCheck) Description() string {
	return "Evaluates a user profile against the medical safety rules. Returns CLEARED, WARNING with required modifications, or BLOCKED with the reason."
}

func (t *SafetyCheck) InputSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"profile": {
				Type: "object",
				Properties: map[string]*jsonschema.Schema{
					"age":                     {Type: "integer"},
					"sex":                     {Type: "string", Enum: []any{"male", "female"}},
					"weight_kg":               {Type: "number"},
					"height_cm":               {Type: "number"},
					"goal":                    {Type: "string"},
					"target_rate_kg_per_week": {Type: "number"},
					"medical":                 {Type: "object"},
				},
				Required: []string{"age", "sex", "weight_kg", "height_cm"},
			},
			"tdee": {
				Type: "object",
				Properties: map[string]*jsonschema.Schema{
					"tdee": {Type: "number"},
				},
			},
		},
		Required: []string{"profile"},
	}
}

func (t *SafetyCheck) OutputSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"level":           {Type: "string", Enum: []any{"CLEARED", "WARNING", "BLOCKED"}},
			"passed":          {Type: "boolean"},
			"violations":      {Type: "array"},
			"recommendations": {Type: "array"},
			"modifications":   {Type: "object"},
			"reason":          {Type: "string"},
		},
		Required: []string{"level", "passed"},
	}
}

func (t *SafetyCheck) Run(ctx context.Context, input map[string]any) (map[string]any, error) {
	var in struct {
		Profile adaptengine.UserProfile `json:"profile"`
		TDEE    adaptengine.TDEEResult  `json:"tdee"`
	}
	if err := decodeInto(input, &in); err != nil {
		return nil, fmt.Errorf("decode safety input: %w", err)
	}
	if in.Profile.Age == 0 && in.Profile.WeightKG == 0 {
		return nil, fmt.Errorf("profile is required")
	}

	check := t.validator.Validate(in.Profile, in.TDEE)

	b, err := encodeOutput(map[string]any{"check": check})
	if err != nil {
		return nil, err
	}
	// Hoist the check's fields to the top level of the output.
	m, _ := b["check"].(map[string]any)
	return m, nil
}
