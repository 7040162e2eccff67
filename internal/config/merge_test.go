package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rshade/mapgrid/internal/config"
)

// newDefaultTarget returns a Config with known non-zero values so tests can
// verify that absent overlay keys leave the original values intact.
func newDefaultTarget() *config.Config {
	return &config.Config{
		API: config.APIConfig{
			BaseURL:         "https://gis.example.com",
			Timeout:         15 * time.Second,
			MaxFeaturePages: 200,
			IconsPath:       "/api/symbology/icons/",
		},
		Cache: config.CacheConfig{Enabled: true, TTL: 30 * time.Second, Size: 128},
		Grids: []config.GridConfig{
			{ID: "projects", URL: "/api/projects/", Columns: []string{"ID", "Name"}},
			{ID: "sites", URL: "/api/sites/", Columns: []string{"ID"}},
		},
		Map: config.MapConfig{
			FeaturesPath:     "/api/measurements/",
			ProjectParam:     "project",
			FilterProperties: []string{"stage", "tech"},
		},
		Logging: config.LoggingConfig{Level: "info", Format: "console"},
		State:   config.StateConfig{Dir: "/var/lib/mapgrid"},
	}
}

// writeOverlay writes YAML content to a temp file and returns its path.
func writeOverlay(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "overlay.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestShallowMergeYAML_SingleKeyOverride(t *testing.T) {
	target := newDefaultTarget()
	overlay := writeOverlay(t, `
logging:
  level: debug
  format: json
`)

	require.NoError(t, config.ShallowMergeYAML(target, overlay))

	assert.Equal(t, "debug", target.Logging.Level)
	assert.Equal(t, "json", target.Logging.Format)

	assert.Equal(t, "https://gis.example.com", target.API.BaseURL)
	assert.True(t, target.Cache.Enabled)
	assert.Len(t, target.Grids, 2)
}

func TestShallowMergeYAML_SectionReplacedWhole(t *testing.T) {
	target := newDefaultTarget()
	overlay := writeOverlay(t, `
api:
  base_url: http://localhost:9000
`)

	require.NoError(t, config.ShallowMergeYAML(target, overlay))

	assert.Equal(t, "http://localhost:9000", target.API.BaseURL)
	assert.Zero(t, target.API.Timeout, "fields missing from an overlay section are not inherited")
	assert.Empty(t, target.API.IconsPath)
}

func TestShallowMergeYAML_GridsReplaced(t *testing.T) {
	target := newDefaultTarget()
	overlay := writeOverlay(t, `
grids:
  - id: surveys
    url: /api/surveys/
    columns: [ID, Date]
`)

	require.NoError(t, config.ShallowMergeYAML(target, overlay))

	require.Len(t, target.Grids, 1)
	assert.Equal(t, "surveys", target.Grids[0].ID)
	assert.Equal(t, []string{"ID", "Date"}, target.Grids[0].Columns)
	assert.Equal(t, []string{"stage", "tech"}, target.Map.FilterProperties)
}

func TestShallowMergeYAML_MultipleKeys(t *testing.T) {
	target := newDefaultTarget()
	overlay := writeOverlay(t, `
cache:
  enabled: false
  ttl: 1m
  size: 8
map:
  features_path: /api/points/
  project_param: survey
  filter_properties: [owner]
state:
  dir: ./state
`)

	require.NoError(t, config.ShallowMergeYAML(target, overlay))

	assert.False(t, target.Cache.Enabled)
	assert.Equal(t, time.Minute, target.Cache.TTL)
	assert.Equal(t, 8, target.Cache.Size)
	assert.Equal(t, "/api/points/", target.Map.FeaturesPath)
	assert.Equal(t, "survey", target.Map.ProjectParam)
	assert.Equal(t, []string{"owner"}, target.Map.FilterProperties)
	assert.Equal(t, "./state", target.State.Dir)
	assert.Equal(t, "info", target.Logging.Level)
}

func TestShallowMergeYAML_UnknownKeysIgnored(t *testing.T) {
	target := newDefaultTarget()
	overlay := writeOverlay(t, `
plugins:
  aws: {}
logging:
  level: warn
`)

	require.NoError(t, config.ShallowMergeYAML(target, overlay))
	assert.Equal(t, "warn", target.Logging.Level)
}

func TestShallowMergeYAML_EmptyOverlay(t *testing.T) {
	target := newDefaultTarget()
	overlay := writeOverlay(t, "")

	require.NoError(t, config.ShallowMergeYAML(target, overlay))
	assert.Equal(t, newDefaultTarget(), target)
}

func TestShallowMergeYAML_Errors(t *testing.T) {
	t.Run("nil target", func(t *testing.T) {
		err := config.ShallowMergeYAML(nil, writeOverlay(t, "logging: {}"))
		require.Error(t, err)
	})

	t.Run("missing file", func(t *testing.T) {
		err := config.ShallowMergeYAML(newDefaultTarget(), filepath.Join(t.TempDir(), "nope.yaml"))
		require.Error(t, err)
		assert.ErrorIs(t, err, os.ErrNotExist)
	})

	t.Run("malformed yaml", func(t *testing.T) {
		err := config.ShallowMergeYAML(newDefaultTarget(), writeOverlay(t, "grids: [1, 2"))
		require.Error(t, err)
	})

	t.Run("section type mismatch", func(t *testing.T) {
		target := newDefaultTarget()
		err := config.ShallowMergeYAML(target, writeOverlay(t, "cache: [1, 2]"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), `"cache"`)
	})
}
