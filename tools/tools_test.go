package tools

import (
	"context"
	"testing"

	"adaptengine"
	"adaptengine/safety"
	"adaptengine/solver"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRunner struct {
	adjustment adaptengine.PlanAdjustment
	err        error
	gotUserID  string
}

func (f *fakeRunner) RunCycle(ctx context.Context, userID string) (adaptengine.PlanAdjustment, error) {
	f.gotUserID = userID
	return f.adjustment, f.err
}

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	policy := adaptengine.DefaultPolicy()
	validator := safety.New(policy)
	gated := solver.NewGated(validator, solver.New(policy, adaptengine.DefaultSolverConfig()))

	registry, err := NewRegistry(gated, validator, &fakeRunner{
		adjustment: adaptengine.PlanAdjustment{UserID: "u-1", Cycle: 3, Committed: true},
	})
	require.NoError(t, err)
	return registry
}

func profileInput() map[string]any {
	return map[string]any{
		"profile": map[string]any{
			"id":               "u-1",
			"age":              30,
			"sex":              "male",
			"weight_kg":        80.0,
			"height_cm":        180.0,
			"goal":             "maintenance",
			"experience_years": 2.0,
			"schedule": map[string]any{
				"available_days":      4,
				"session_min_minutes": 30,
				"session_max_minutes": 90,
			},
		},
		"tdee": map[string]any{
			"bmr":  1780.0,
			"tdee": 2759.0,
		},
	}
}

func TestRegistry(t *testing.T) {
	registry := newTestRegistry(t)

	assert.Len(t, registry.GetTools(), 3)

	for _, name := range []string{"program_solve", "safety_check", "reassess_run"} {
		tool, err := registry.GetTool(name)
		require.NoError(t, err)
		assert.Equal(t, name, tool.Name())
		assert.NotNil(t, tool.InputSchema())
		assert.NotNil(t, tool.OutputSchema())
	}

	_, err := registry.GetTool("unknown_tool")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found in registry")
}

func TestProgramSolveRun(t *testing.T) {
	registry := newTestRegistry(t)
	tool, err := registry.GetTool("program_solve")
	require.NoError(t, err)

	t.Run("feasible solve", func(t *testing.T) {
		out, err := tool.Run(context.Background(), profileInput())
		require.NoError(t, err)

		safetyOut, ok := out["safety"].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "CLEARED", safetyOut["level"])

		result, ok := out["result"].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "FEASIBLE", result["status"])
		assert.Equal(t, true, result["feasible"])
		assert.NotNil(t, result["optimal_params"])
	})

	t.Run("blocked profile never reaches the solver", func(t *testing.T) {
		input := profileInput()
		input["profile"].(map[string]any)["sex"] = "female"
		input["profile"].(map[string]any)["medical"] = map[string]any{
			"pregnant": true,
		}

		out, err := tool.Run(context.Background(), input)
		require.NoError(t, err)

		safetyOut, ok := out["safety"].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "BLOCKED", safetyOut["level"])

		result, ok := out["result"].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, false, result["feasible"])
	})

	t.Run("empty input rejected", func(t *testing.T) {
		_, err := tool.Run(context.Background(), map[string]any{})
		require.Error(t, err)
	})
}

func TestSafetyCheckRun(t *testing.T) {
	registry := newTestRegistry(t)
	tool, err := registry.GetTool("safety_check")
	require.NoError(t, err)

	t.Run("cleared", func(t *testing.T) {
		out, err := tool.Run(context.Background(), profileInput())
		require.NoError(t, err)
		assert.Equal(t, "CLEARED", out["level"])
		assert.Equal(t, true, out["passed"])
	})

	t.Run("blocked with reason", func(t *testing.T) {
		input := profileInput()
		input["profile"].(map[string]any)["medical"] = map[string]any{
			"conditions": []any{"heart_disease"},
		}

		out, err := tool.Run(context.Background(), input)
		require.NoError(t, err)
		assert.Equal(t, "BLOCKED", out["level"])
		assert.Equal(t, false, out["passed"])
		assert.NotEmpty(t, out["reason"])
	})

	t.Run("empty input rejected", func(t *testing.T) {
		_, err := tool.Run(context.Background(), map[string]any{})
		require.Error(t, err)
	})
}

func TestReassessRunTool(t *testing.T) {
	runner := &fakeRunner{
		adjustment: adaptengine.PlanAdjustment{
			UserID:    "u-1",
			Cycle:     3,
			Committed: true,
			Calories:  adaptengine.PIDAdjustment{Current: 2400, Recommended: 2262, AdjustmentAmount: -138},
		},
	}
	tool := NewReassessRun(runner)

	out, err := tool.Run(context.Background(), map[string]any{"user_id": "u-1"})
	require.NoError(t, err)
	assert.Equal(t, "u-1", runner.gotUserID)
	assert.Equal(t, "u-1", out["user_id"])
	assert.Equal(t, float64(3), out["cycle"])
	assert.Equal(t, true, out["committed"])

	_, err = tool.Run(context.Background(), map[string]any{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "user_id is required")

	runner.err = assert.AnError
	_, err = tool.Run(context.Background(), map[string]any{"user_id": "u-1"})
	require.Error(t, err)
}
