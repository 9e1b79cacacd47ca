package control

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"adaptengine/storage"
)

// Arena owns controller state keyed by (user, controller kind). The
// clock is injected so replayed cycles are deterministic in tests.
type Arena struct {
	store storage.ControllerStateStore
	clock func() time.Time
}

// NewArena creates an arena over a state store. A nil clock defaults to
// time.Now.
func NewArena(store storage.ControllerStateStore, clock func() time.Time) *Arena {
	if clock == nil {
		clock = time.Now
	}
	return &Arena{store: store, clock: clock}
}

// Load fetches the accumulated state for one (user, kind) pair. A user
// with no history starts from a zero state.
func (a *Arena) Load(ctx context.Context, userID string, kind Kind) (State, error) {
	data, err := a.store.Load(ctx, userID, string(kind))
	if errors.Is(err, storage.ErrNotFound) {
		return State{UserID: userID, Kind: kind}, nil
	}
	if err != nil {
		return State{}, fmt.Errorf("loading %s controller state for %s: %w", kind, userID, err)
	}

	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		return State{}, fmt.Errorf("decoding %s controller state for %s: %w", kind, userID, err)
	}
	return state, nil
}

// Save persists advanced state, stamping it with the arena clock. Callers
// save only on committed cycles so rejected cycles leave no trace.
func (a *Arena) Save(ctx context.Context, state State) error {
	state.UpdatedAt = a.clock()
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encoding %s controller state for %s: %w", state.Kind, state.UserID, err)
	}
	if err := a.store.Save(ctx, state.UserID, string(state.Kind), data); err != nil {
		return fmt.Errorf("saving %s controller state for %s: %w", state.Kind, state.UserID, err)
	}
	return nil
}
