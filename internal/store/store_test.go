package store

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rshade/mapgrid/internal/grid"
)

func TestFileStore(t *testing.T) {
	s, err := NewFileStore(filepath.Join(t.TempDir(), "state"))
	require.NoError(t, err)

	key := "grid/projects/columns"
	data := json.RawMessage(`{"ID":true}`)

	t.Run("SetAndGet", func(t *testing.T) {
		require.NoError(t, s.Set(key, data))

		entry, err := s.Get(key)
		require.NoError(t, err)
		assert.Equal(t, key, entry.Key)
		assert.Equal(t, SchemaVersion, entry.Version)
		assert.JSONEq(t, string(data), string(entry.Data))
		assert.False(t, entry.UpdatedAt.IsZero())

		_, statErr := os.Stat(filepath.Join(s.Dir(), "grid_projects_columns.json"))
		assert.NoError(t, statErr)
	})

	t.Run("Keys", func(t *testing.T) {
		require.NoError(t, s.Set("grid/alpha/columns", data))
		keys, err := s.Keys()
		require.NoError(t, err)
		assert.Equal(t, []string{"grid/alpha/columns", key}, keys)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, s.Delete(key))
		require.NoError(t, s.Delete(key), "idempotent")

		_, err := s.Get(key)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("InvalidKey", func(t *testing.T) {
		assert.ErrorIs(t, s.Set("", data), ErrInvalidKey)
		_, err := s.Get("")
		assert.ErrorIs(t, err, ErrInvalidKey)
		assert.ErrorIs(t, s.Delete(""), ErrInvalidKey)
	})

	t.Run("Corrupted", func(t *testing.T) {
		path := filepath.Join(s.Dir(), "grid_broken_columns.json")
		require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

		_, err := s.Get("grid/broken/columns")
		assert.ErrorIs(t, err, ErrCorrupted)
	})

	t.Run("FutureVersion", func(t *testing.T) {
		path := filepath.Join(s.Dir(), "grid_future_columns.json")
		body := `{"version": 99, "key": "grid/future/columns", "data": {}, "updated_at": "2026-01-01T00:00:00Z"}`
		require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

		_, err := s.Get("grid/future/columns")
		assert.ErrorIs(t, err, ErrCorrupted)
	})
}

func TestSettingsStore_SavedGrids(t *testing.T) {
	files, err := NewFileStore(t.TempDir())
	require.NoError(t, err)
	s := NewSettingsStore(files)
	ctx := context.Background()

	ids, err := s.SavedGrids(ctx)
	require.NoError(t, err)
	assert.Empty(t, ids)

	require.NoError(t, s.SaveVisibility(ctx, "sites", grid.Visibility{"ID": true}))
	require.NoError(t, s.SaveVisibility(ctx, "projects", grid.Visibility{"ID": false}))
	require.NoError(t, files.Set("meta/version", json.RawMessage(`2`)))

	ids, err = s.SavedGrids(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"projects", "sites"}, ids)
}

func TestNewFileStore_EmptyDir(t *testing.T) {
	_, err := NewFileStore("")
	assert.Error(t, err)
}

func TestSettingsStore_Visibility(t *testing.T) {
	ctx := context.Background()
	files, err := NewFileStore(t.TempDir())
	require.NoError(t, err)
	s := NewSettingsStore(files)

	_, err = s.LoadVisibility(ctx, "projects")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.SaveVisibility(ctx, "projects", grid.Visibility{"ID": true, "Name": false}))
	v, err := s.LoadVisibility(ctx, "projects")
	require.NoError(t, err)
	assert.Equal(t, grid.Visibility{"ID": true, "Name": false}, v)

	require.NoError(t, files.Set(ColumnsKey("bad"), json.RawMessage(`{"ID":"yes"}`)))
	_, err = s.LoadVisibility(ctx, "bad")
	assert.ErrorIs(t, err, ErrCorrupted)

	require.NoError(t, files.Set(ColumnsKey("null"), json.RawMessage(`null`)))
	_, err = s.LoadVisibility(ctx, "null")
	assert.ErrorIs(t, err, ErrCorrupted)
}

// TestLoadVisibility_MalformedFallsBack verifies the grid falls back to all-visible.
func TestLoadVisibility_MalformedFallsBack(t *testing.T) {
	ctx := context.Background()
	files, err := NewFileStore(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(files.Dir(), "grid_projects_columns.json"), []byte("garbage"), 0o600))

	s := NewSettingsStore(files)
	v := grid.LoadVisibility(ctx, s, "projects", []string{"ID", "Name"})
	assert.Equal(t, grid.Visibility{"ID": true, "Name": true}, v)

	// The merged defaults were written back over the malformed entry.
	persisted, err := s.LoadVisibility(ctx, "projects")
	require.NoError(t, err)
	assert.Equal(t, v, persisted)
}
