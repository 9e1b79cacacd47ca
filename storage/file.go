package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"adaptengine"
)

// FileControllerStateStore implements ControllerStateStore on the local
// filesystem, one JSON file per (user, controller) pair.
type FileControllerStateStore struct {
	Root string
}

func NewFileControllerStateStore(root string) *FileControllerStateStore {
	return &FileControllerStateStore{Root: root}
}

func (f *FileControllerStateStore) path(userID, kind string) string {
	return filepath.Join(f.Root, "controllers", userID, kind+".json")
}

func (f *FileControllerStateStore) Load(ctx context.Context, userID, kind string) ([]byte, error) {
	data, err := os.ReadFile(f.path(userID, kind))
	if os.IsNotExist(err) {
		return nil, ErrNotFound
	}
	return data, err
}

func (f *FileControllerStateStore) Save(ctx context.Context, userID, kind string, data []byte) error {
	path := f.path(userID, kind)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating controller state directory: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// FilePlanStore implements PlanStore on the local filesystem, one JSON
// file per user holding all plan versions.
type FilePlanStore struct {
	Root string
}

func NewFilePlanStore(root string) *FilePlanStore {
	return &FilePlanStore{Root: root}
}

func (f *FilePlanStore) path(userID string) string {
	return filepath.Join(f.Root, "plans", userID+".json")
}

func (f *FilePlanStore) load(userID string) ([]adaptengine.PlanVersion, error) {
	data, err := os.ReadFile(f.path(userID))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var versions []adaptengine.PlanVersion
	if err := json.Unmarshal(data, &versions); err != nil {
		return nil, fmt.Errorf("decoding plan versions for %s: %w", userID, err)
	}
	return versions, nil
}

func (f *FilePlanStore) Active(ctx context.Context, userID string) (*adaptengine.PlanVersion, error) {
	versions, err := f.load(userID)
	if err != nil {
		return nil, err
	}
	for _, plan := range versions {
		if plan.Active {
			p := plan
			return &p, nil
		}
	}
	return nil, ErrNotFound
}

func (f *FilePlanStore) Save(ctx context.Context, plan *adaptengine.PlanVersion) error {
	versions, err := f.load(plan.UserID)
	if err != nil {
		return err
	}
	for i := range versions {
		versions[i].Active = false
	}
	versions = append(versions, *plan)

	data, err := json.MarshalIndent(versions, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding plan versions for %s: %w", plan.UserID, err)
	}
	path := f.path(plan.UserID)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating plan directory: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

func (f *FilePlanStore) History(ctx context.Context, userID string) ([]adaptengine.PlanVersion, error) {
	versions, err := f.load(userID)
	if err != nil {
		return nil, err
	}
	sort.Slice(versions, func(i, j int) bool { return versions[i].Version < versions[j].Version })
	return versions, nil
}
