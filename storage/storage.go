// Package storage persists the two pieces of engine state that outlive a
// reassessment cycle: per-user controller state and versioned plans.
package storage

import (
	"context"
	"errors"
	"sort"
	"sync"

	"adaptengine"
)

// ErrNotFound is returned when no state exists yet for a key. Callers
// treat it as "start fresh", not as a failure.
var ErrNotFound = errors.New("not found")

// ControllerStateStore persists opaque per-(user, controller) state.
type ControllerStateStore interface {
	Load(ctx context.Context, userID, kind string) ([]byte, error)
	Save(ctx context.Context, userID, kind string, data []byte) error
}

// PlanStore persists versioned plans. Save deactivates the prior active
// version for the same user.
type PlanStore interface {
	Active(ctx context.Context, userID string) (*adaptengine.PlanVersion, error)
	Save(ctx context.Context, plan *adaptengine.PlanVersion) error
	History(ctx context.Context, userID string) ([]adaptengine.PlanVersion, error)
}

// MemoryControllerStateStore is a simple in-memory implementation for testing.
type MemoryControllerStateStore struct {
	mu   sync.Mutex
	data map[string][]byte
}

func NewMemoryControllerStateStore() *MemoryControllerStateStore {
	return &MemoryControllerStateStore{data: make(map[string][]byte)}
}

func (m *MemoryControllerStateStore) Load(ctx context.Context, userID, kind string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.data[userID+"/"+kind]
	if !ok {
		return nil, ErrNotFound
	}
	return data, nil
}

func (m *MemoryControllerStateStore) Save(ctx context.Context, userID, kind string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[userID+"/"+kind] = data
	return nil
}

// MemoryPlanStore is a simple in-memory implementation for testing.
type MemoryPlanStore struct {
	mu    sync.Mutex
	plans map[string][]adaptengine.PlanVersion
}

func NewMemoryPlanStore() *MemoryPlanStore {
	return &MemoryPlanStore{plans: make(map[string][]adaptengine.PlanVersion)}
}

func (m *MemoryPlanStore) Active(ctx context.Context, userID string) (*adaptengine.PlanVersion, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, plan := range m.plans[userID] {
		if plan.Active {
			p := plan
			return &p, nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemoryPlanStore) Save(ctx context.Context, plan *adaptengine.PlanVersion) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	versions := m.plans[plan.UserID]
	for i := range versions {
		versions[i].Active = false
	}
	m.plans[plan.UserID] = append(versions, *plan)
	return nil
}

func (m *MemoryPlanStore) History(ctx context.Context, userID string) ([]adaptengine.PlanVersion, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	history := append([]adaptengine.PlanVersion(nil), m.plans[userID]...)
	sort.Slice(history, func(i, j int) bool { return history[i].Version < history[j].Version })
	return history, nil
}
