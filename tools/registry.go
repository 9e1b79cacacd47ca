package tools

import (
	"fmt"

	"adaptengine/safety"
	"adaptengine/solver"
)

// Registry maps tool names to implementations
type Registry map[string]Tool

// NewRegistry creates a registry exposing the engine's three operations.
func NewRegistry(gated *solver.Gated, validator *safety.Validator, runner CycleRunner) (*Registry, error) {
	tools := map[string]Tool{
		"program_solve": NewProgramSolve(gated),
		"safety_check":  NewSafetyCheck(validator),
		"reassess_run":  NewReassessRun(runner),
	}

	registry := Registry(tools)
	return &registry, nil
}

// GetTools returns all tools in the registry as a slice
func (r *Registry) GetTools() []Tool {
	tools := make([]Tool, 0, len(*r))
	for _, tool := range *r {
		tools = append(tools, tool)
	}
	return tools
}

// GetTool retrieves a tool by name from the registry
func (r Registry) GetTool(name string) (Tool, error) {
	tool, exists := r[name]
	if !exists {
		return nil, fmt.Errorf("tool %q not found in registry", name)
	}
	return tool, nil
}
