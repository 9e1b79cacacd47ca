package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/jsonschema"

	"adaptengine/solver"
)

// ProgramSolve runs the safety-gated constraint solve for a profile and
// TDEE estimate, returning the solver result and the safety check that
// gated it.
type ProgramSolve struct{ gated *solver.Gated }

func NewProgramSolve(gated *solver.Gated) *ProgramSolve { return &ProgramSolve{gated: gated} }

func (t *ProgramSolve) Name() string  { return "program_solve" }
func (t *ProgramSolve) Title() string { return "Solve Program Parameters" }
func (t *ProgramSolve) Description() string {
	return "Solves for feasible training and nutrition parameters given a user profile and TDEE estimate. Infeasible goals return diagnostics and quantified trade-off options instead of parameters."
}

func (t *ProgramSolve) InputSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"profile": {
				Type: "object",
				Properties: map[string]*jsonschema.Schema{
					"id":                      {Type: "string"},
					"age":                     {Type: "integer"},
					"sex":                     {Type: "string", Enum: []any{"male", "female"}},
					"weight_kg":               {Type: "number"},
					"height_cm":               {Type: "number"},
					"goal":                    {Type: "string", Enum: []any{"fat_loss", "muscle_gain", "maintenance", "recomp", "performance"}},
					"target_rate_kg_per_week": {Type: "number"},
					"timeline_weeks":          {Type: "integer"},
					"experience_years":        {Type: "number"},
					"schedule":                {Type: "object"},
					"preferences":             {Type: "object"},
					"medical":                 {Type: "object"},
				},
				Required: []string{"age", "sex", "weight_kg", "height_cm", "goal"},
			},
			"tdee": {
				Type: "object",
				Properties: map[string]*jsonschema.Schema{
					"bmr":            {Type: "number"},
					"tdee":           {Type: "number"},
					"activity_level": {Type: "string"},
				},
				Required: []string{"tdee"},
			},
		},
		Required: []string{"profile", "tdee"},
	}
}

func (t *ProgramSolve) OutputSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"safety": {
				Type: "object",
				Properties: map[string]*jsonschema.Schema{
					"level":  {Type: "string", Enum: []any{"CLEARED", "WARNING", "BLOCKED"}},
					"passed": {Type: "boolean"},
				},
				Required: []string{"level", "passed"},
			},
			"result": {
				Type: "object",
				Properties: map[string]*jsonschema.Schema{
					"status":         {Type: "string", Enum: []any{"FEASIBLE", "INFEASIBLE", "TIMEOUT", "ERROR"}},
					"feasible":       {Type: "boolean"},
					"runtime_ms":     {Type: "integer"},
					"optimal_params": {Type: "object"},
					"diagnostics":    {Type: "array"},
					"trade_offs":     {Type: "array"},
				},
				Required: []string{"status", "feasible"},
			},
		},
		Required: []string{"safety", "result"},
	}
}

func (t *ProgramSolve) Run(ctx context.Context, input map[string]any) (map[string]any, error) {
	var in solver.Input
	if err := decodeInto(input, &in); err != nil {
		return nil, fmt.Errorf("decode solve input: %w", err)
	}
	if in.Profile.ID == "" && in.Profile.Age == 0 {
		return nil, fmt.Errorf("profile is required")
	}

	check, result := t.gated.Solve(ctx, in)
	return encodeOutput(map[string]any{
		"safety": check,
		"result": result,
	})
}

// decodeInto re-marshals a loosely-typed tool input into a concrete type.
func decodeInto(input map[string]any, out any) error {
	b, err := json.Marshal(input)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, out)
}

// encodeOutput flattens typed results to map[string]any to keep tool
// outputs uniform.
func encodeOutput(out map[string]any) (map[string]any, error) {
	b, err := json.Marshal(out)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, err
	}
	return m, nil
}
