package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rshade/mapgrid/internal/grid"
)

// ColumnsKey returns the settings key holding the column visibility of gridID.
func ColumnsKey(gridID string) string {
	return "grid/" + gridID + "/columns"
}

// SettingsStore adapts a FileStore to grid.VisibilityStore.
type SettingsStore struct {
	files *FileStore
}

// NewSettingsStore wraps files.
func NewSettingsStore(files *FileStore) *SettingsStore {
	return &SettingsStore{files: files}
}

// LoadVisibility returns the persisted visibility of gridID.
func (s *SettingsStore) LoadVisibility(_ context.Context, gridID string) (grid.Visibility, error) {
	entry, err := s.files.Get(ColumnsKey(gridID))
	if err != nil {
		return nil, err
	}

	var v grid.Visibility
	if unmarshalErr := json.Unmarshal(entry.Data, &v); unmarshalErr != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorrupted, unmarshalErr)
	}
	if v == nil {
		return nil, fmt.Errorf("%w: empty visibility map", ErrCorrupted)
	}
	return v, nil
}

// SaveVisibility persists the full visibility map of gridID.
func (s *SettingsStore) SaveVisibility(_ context.Context, gridID string, v grid.Visibility) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshaling visibility: %w", err)
	}
	return s.files.Set(ColumnsKey(gridID), data)
}

// SavedGrids returns the IDs of grids with persisted column visibility, sorted.
func (s *SettingsStore) SavedGrids(_ context.Context) ([]string, error) {
	keys, err := s.files.Keys()
	if err != nil {
		return nil, err
	}
	var ids []string
	for _, k := range keys {
		rest, ok := strings.CutPrefix(k, "grid/")
		if !ok {
			continue
		}
		if id, ok := strings.CutSuffix(rest, "/columns"); ok && id != "" {
			ids = append(ids, id)
		}
	}
	return ids, nil
}
