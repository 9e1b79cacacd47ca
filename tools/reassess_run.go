package tools

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/jsonschema"

	"adaptengine"
)

// CycleRunner is the orchestrator surface the tool needs. Both the plain
// and instrumented orchestrators satisfy it.
type CycleRunner interface {
	RunCycle(ctx context.Context, userID string) (adaptengine.PlanAdjustment, error)
}

// ReassessRun executes one reassessment cycle for a user.
type ReassessRun struct{ runner CycleRunner }

func NewReassessRun(runner CycleRunner) *ReassessRun { return &ReassessRun{runner: runner} }

func (t *ReassessRun) Name() string  { return "reassess_run" }
func (t *ReassessRun) Title() string { return "Run Reassessment Cycle" }
func (t *ReassessRun) Description() string {
	return "Runs one reassessment cycle for a user: aggregates the window's logs, evaluates the control loops, and commits a new plan version if the adjustment passes the safety gate."
}

func (t *ReassessRun) InputSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"user_id": {Type: "string"},
		},
		Required: []string{"user_id"},
	}
}

func (t *ReassessRun) OutputSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"user_id":   {Type: "string"},
			"cycle":     {Type: "integer"},
			"committed": {Type: "boolean"},
			"calories":  {Type: "object"},
			"volume":    {Type: "object"},
			"snapshot":  {Type: "object"},
			"warnings":  {Type: "array"},
		},
		Required: []string{"user_id", "committed"},
	}
}

func (t *ReassessRun) Run(ctx context.Context, input map[string]any) (map[string]any, error) {
	userID, _ := input["user_id"].(string)
	if userID == "" {
		return nil, fmt.Errorf("user_id is required")
	}

	adjustment, err := t.runner.RunCycle(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("reassessment cycle for %s: %w", userID, err)
	}

	return encodeOutput(map[string]any{
		"user_id":   adjustment.UserID,
		"cycle":     adjustment.Cycle,
		"committed": adjustment.Committed,
		"calories":  adjustment.Calories,
		"volume":    adjustment.Volume,
		"snapshot":  adjustment.Snapshot,
		"warnings":  adjustment.Warnings,
	})
}
