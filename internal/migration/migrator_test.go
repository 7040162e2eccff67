package migration

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rshade/mapgrid/internal/grid"
	"github.com/rshade/mapgrid/internal/store"
)

func newFiles(t *testing.T) *store.FileStore {
	t.Helper()
	files, err := store.NewFileStore(t.TempDir())
	require.NoError(t, err)
	return files
}

func writeFile(t *testing.T, dir, name, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o600))
}

func TestDetectVersion(t *testing.T) {
	dir := t.TempDir()

	v, err := DetectVersion(dir)
	require.NoError(t, err)
	assert.Equal(t, "1.0.0", v.String())

	writeFile(t, dir, MarkerFile, "2.0.0\n")
	v, err = DetectVersion(dir)
	require.NoError(t, err)
	assert.Equal(t, "2.0.0", v.String())

	writeFile(t, dir, MarkerFile, "not-a-version")
	_, err = DetectVersion(dir)
	assert.Error(t, err)
}

func TestFindLegacy(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "projects-columns.json", `{}`)
	writeFile(t, dir, "alpha-columns.json", `{}`)
	writeFile(t, dir, "grid_projects_columns.json", `{}`)
	writeFile(t, dir, "-columns.json", `{}`)

	ids, err := FindLegacy(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha", "projects"}, ids)

	ids, err = FindLegacy(filepath.Join(dir, "missing"))
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestRun_MigratesLegacyColumns(t *testing.T) {
	ctx := context.Background()
	files := newFiles(t)
	writeFile(t, files.Dir(), "projects-columns.json", `{"ID": true, "Name": false}`)
	writeFile(t, files.Dir(), "broken-columns.json", `not json`)

	result, err := Run(ctx, files)
	require.NoError(t, err)
	assert.True(t, result.Changed())
	assert.Equal(t, "1.0.0", result.From)
	assert.Equal(t, CurrentVersion, result.To)
	assert.Equal(t, []string{"projects"}, result.Migrated)
	assert.Equal(t, []string{"broken"}, result.Skipped)

	settings := store.NewSettingsStore(files)
	v, err := settings.LoadVisibility(ctx, "projects")
	require.NoError(t, err)
	assert.Equal(t, grid.Visibility{"ID": true, "Name": false}, v)

	_, err = settings.LoadVisibility(ctx, "broken")
	assert.ErrorIs(t, err, store.ErrNotFound)

	leftover, err := FindLegacy(files.Dir())
	require.NoError(t, err)
	assert.Empty(t, leftover)

	version, err := DetectVersion(files.Dir())
	require.NoError(t, err)
	assert.Equal(t, CurrentVersion, version.String())
}

func TestRun_Idempotent(t *testing.T) {
	ctx := context.Background()
	files := newFiles(t)

	_, err := Run(ctx, files)
	require.NoError(t, err)

	// Legacy files appearing after the upgrade are left alone.
	writeFile(t, files.Dir(), "late-columns.json", `{"ID": false}`)
	result, err := Run(ctx, files)
	require.NoError(t, err)
	assert.False(t, result.Changed())
	assert.Empty(t, result.Migrated)

	ids, err := FindLegacy(files.Dir())
	require.NoError(t, err)
	assert.Equal(t, []string{"late"}, ids)
}

func TestRun_ExistingEntryWins(t *testing.T) {
	ctx := context.Background()
	files := newFiles(t)
	settings := store.NewSettingsStore(files)
	require.NoError(t, settings.SaveVisibility(ctx, "projects", grid.Visibility{"ID": false}))
	writeFile(t, files.Dir(), "projects-columns.json", `{"ID": true}`)

	_, err := Run(ctx, files)
	require.NoError(t, err)

	v, err := settings.LoadVisibility(ctx, "projects")
	require.NoError(t, err)
	assert.Equal(t, grid.Visibility{"ID": false}, v)
}

func TestRun_NewerSettings(t *testing.T) {
	files := newFiles(t)
	writeFile(t, files.Dir(), MarkerFile, "9.0.0")

	result, err := Run(context.Background(), files)
	require.ErrorIs(t, err, ErrNewerSettings)
	assert.False(t, result.Changed())
}
