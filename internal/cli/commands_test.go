package cli_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rshade/mapgrid/internal/cli"
	"github.com/rshade/mapgrid/internal/cli/pagination"
	"github.com/rshade/mapgrid/internal/grid"
)

const testConfigTemplate = `api:
  base_url: %s
  timeout: 5s
cache:
  enabled: false
logging:
  level: error
state:
  dir: %s
grids:
  - id: projects
    url: /api/projects/
    per_page: 2
    columns: [ID, Name, Stage]
    sort_options:
      - {label: Name, sort: name}
      - {label: Created, sort: created}
    filter_options:
      - field: stage
        options:
          - {key: design, value: Design}
          - {key: survey, value: Survey}
  - id: locked
    url: /api/locked/
    columns: [ID]
    capabilities:
      sortable: false
      searchable: false
      filterable: false
      column_toggle: false
map:
  features_path: /api/measurements/
  project_param: project
  filter_properties: [stage]
`

// testAPI serves a projects grid, a feature endpoint and the icon list,
// recording the query of every request.
type testAPI struct {
	mu      sync.Mutex
	queries map[string][]url.Values
}

func (a *testAPI) record(r *http.Request) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.queries[r.URL.Path] = append(a.queries[r.URL.Path], r.URL.Query())
}

func (a *testAPI) last(path string) url.Values {
	a.mu.Lock()
	defer a.mu.Unlock()
	qs := a.queries[path]
	if len(qs) == 0 {
		return nil
	}
	return qs[len(qs)-1]
}

func newTestAPI(t *testing.T) (*testAPI, *httptest.Server) {
	t.Helper()
	api := &testAPI{queries: make(map[string][]url.Values)}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/projects/", func(w http.ResponseWriter, r *http.Request) {
		api.record(r)
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"count": 5, "next": "http://x/?page=2", "previous": null, "results": [
			{"id": 1, "name": "Harbour", "stage": "design"},
			{"id": 2, "name": "Bridge", "stage": null}]}`)
	})
	mux.HandleFunc("/api/measurements/", func(w http.ResponseWriter, r *http.Request) {
		api.record(r)
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Query().Get("page") == "2" {
			fmt.Fprint(w, `{"next": null, "previous": "/api/measurements/", "results": {
				"type": "FeatureCollection", "features": [
				{"type": "Feature", "id": 3, "geometry": {"type": "Point", "coordinates": [12, 40]},
				 "properties": {"object_id": "OBJ-3", "stage": "design"}}]}}`)
			return
		}
		fmt.Fprint(w, `{"next": "/api/measurements/?page=2", "previous": null, "results": {
			"type": "FeatureCollection", "features": [
			{"type": "Feature", "id": 1, "geometry": {"type": "Point", "coordinates": [10, 40]},
			 "properties": {"object_id": "OBJ-1", "stage": "design"}},
			{"type": "Feature", "id": 2, "geometry": {"type": "Point", "coordinates": [11, 41]},
			 "properties": {"object_id": "OBJ-2", "stage": "survey"}}]}}`)
	})
	mux.HandleFunc("/api/symbology/icons/", func(w http.ResponseWriter, r *http.Request) {
		api.record(r)
		fmt.Fprint(w, `[{"name": "pin", "url": "/pin.png"}]`)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return api, srv
}

// setupCommandTest isolates the home directory and writes a config pointing
// at srv. It returns the config path.
func setupCommandTest(t *testing.T, srv *httptest.Server) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("MAPGRID_LOG_LEVEL", "error")

	path := filepath.Join(home, "config.yaml")
	stateDir := filepath.Join(home, "state")
	require.NoError(t, os.WriteFile(path, []byte(fmt.Sprintf(testConfigTemplate, srv.URL, stateDir)), 0o600))
	return path
}

func runCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := cli.NewRootCmd("test")
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestGridCmd_Table(t *testing.T) {
	api, srv := newTestAPI(t)
	cfgPath := setupCommandTest(t, srv)

	out, err := runCmd(t, "grid", "projects", "--config", cfgPath, "-o", "table")
	require.NoError(t, err)

	assert.Contains(t, out, "ID")
	assert.Contains(t, out, "NAME")
	assert.Contains(t, out, "Harbour")
	assert.Contains(t, out, "Bridge")
	assert.Contains(t, out, grid.NullPlaceholder)
	assert.Contains(t, out, "Showing 1 - 2 of 5 | Page 1 of 3")

	q := api.last("/api/projects/")
	require.NotNil(t, q)
	assert.Equal(t, "1", q.Get("page"))
	assert.Equal(t, "2", q.Get("per_page"))
}

func TestGridCmd_RequestParams(t *testing.T) {
	api, srv := newTestAPI(t)
	cfgPath := setupCommandTest(t, srv)

	_, err := runCmd(t, "grid", "projects", "--config", cfgPath, "-o", "table",
		"--page", "2", "--per-page", "25", "--sort", "-created",
		"-q", "  elm ", "--filter", "stage=design", "--filter", "stage=survey")
	require.NoError(t, err)

	q := api.last("/api/projects/")
	require.NotNil(t, q)
	assert.Equal(t, "2", q.Get("page"))
	assert.Equal(t, "25", q.Get("per_page"))
	assert.Equal(t, "-created", q.Get("sort"))
	assert.Equal(t, "elm", q.Get("q"))
	assert.Equal(t, []string{"design", "survey"}, q["stage"])
}

func TestGridCmd_JSON(t *testing.T) {
	_, srv := newTestAPI(t)
	cfgPath := setupCommandTest(t, srv)

	out, err := runCmd(t, "grid", "projects", "--config", cfgPath, "-o", "json", "--sort", "name")
	require.NoError(t, err)

	var doc struct {
		Grid       string                    `json:"grid"`
		Columns    []string                  `json:"columns"`
		Sort       string                    `json:"sort"`
		Items      []map[string]any          `json:"items"`
		Pagination pagination.PaginationMeta `json:"pagination"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &doc))

	assert.Equal(t, "projects", doc.Grid)
	assert.Equal(t, []string{"ID", "Name", "Stage"}, doc.Columns)
	assert.Equal(t, "name", doc.Sort)
	require.Len(t, doc.Items, 2)
	assert.Equal(t, "Harbour", doc.Items[0]["name"])
	assert.Equal(t, 5, doc.Pagination.TotalItems)
	assert.Equal(t, 3, doc.Pagination.TotalPages)
	assert.True(t, doc.Pagination.HasNext)
}

func TestGridCmd_Errors(t *testing.T) {
	_, srv := newTestAPI(t)
	cfgPath := setupCommandTest(t, srv)

	tests := []struct {
		name    string
		args    []string
		wantErr error
	}{
		{
			name:    "unknown grid",
			args:    []string{"grid", "missing", "-o", "table"},
			wantErr: cli.ErrUnknownGrid,
		},
		{
			name:    "unsupported output",
			args:    []string{"grid", "projects", "-o", "xml"},
			wantErr: cli.ErrUnsupportedFormat,
		},
		{
			name:    "interactive json",
			args:    []string{"grid", "projects", "-i", "-o", "json"},
			wantErr: cli.ErrInteractiveFormat,
		},
		{
			name:    "search on locked grid",
			args:    []string{"grid", "locked", "-o", "table", "-q", "x"},
			wantErr: cli.ErrNotSearchable,
		},
		{
			name:    "filter on locked grid",
			args:    []string{"grid", "locked", "-o", "table", "--filter", "a=b"},
			wantErr: cli.ErrNotFilterable,
		},
		{
			name:    "sort not offered",
			args:    []string{"grid", "projects", "-o", "table", "--sort", "stage"},
			wantErr: pagination.ErrSortNotAllowed,
		},
		{
			name:    "invalid filter",
			args:    []string{"grid", "projects", "-o", "table", "--filter", "stage"},
			wantErr: grid.ErrInvalidFilter,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := runCmd(t, append(tt.args, "--config", cfgPath)...)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestGridCmd_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	t.Cleanup(srv.Close)
	cfgPath := setupCommandTest(t, srv)

	_, err := runCmd(t, "grid", "projects", "--config", cfgPath, "-o", "table")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")
}

func TestColumnsCmd_TogglePersists(t *testing.T) {
	_, srv := newTestAPI(t)
	cfgPath := setupCommandTest(t, srv)

	out, err := runCmd(t, "columns", "projects", "--config", cfgPath, "--toggle", "Stage")
	require.NoError(t, err)
	assert.Contains(t, out, "[x] ID")
	assert.Contains(t, out, "[ ] Stage")

	out, err = runCmd(t, "columns", "projects", "--config", cfgPath)
	require.NoError(t, err)
	assert.Contains(t, out, "[ ] Stage", "hidden column should survive a new invocation")

	out, err = runCmd(t, "grid", "projects", "--config", cfgPath, "-o", "json")
	require.NoError(t, err)
	var doc struct {
		Columns []string `json:"columns"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	assert.Equal(t, []string{"ID", "Name"}, doc.Columns)

	out, err = runCmd(t, "columns", "projects", "--config", cfgPath, "--toggle", "Stage")
	require.NoError(t, err)
	assert.Contains(t, out, "[x] Stage")
}

func TestColumnsCmd_ListsSavedGrids(t *testing.T) {
	_, srv := newTestAPI(t)
	cfgPath := setupCommandTest(t, srv)

	out, err := runCmd(t, "columns", "--config", cfgPath)
	require.NoError(t, err)
	assert.Equal(t, "projects\nlocked\n", out)

	_, err = runCmd(t, "columns", "projects", "--config", cfgPath, "--toggle", "Stage")
	require.NoError(t, err)

	out, err = runCmd(t, "columns", "--config", cfgPath)
	require.NoError(t, err)
	assert.Equal(t, "projects (saved)\nlocked\n", out)

	_, err = runCmd(t, "columns", "--config", cfgPath, "--toggle", "Stage")
	require.Error(t, err)
}

func TestColumnsCmd_Errors(t *testing.T) {
	_, srv := newTestAPI(t)
	cfgPath := setupCommandTest(t, srv)

	_, err := runCmd(t, "columns", "projects", "--config", cfgPath, "--toggle", "Owner")
	require.ErrorIs(t, err, cli.ErrUnknownColumn)

	_, err = runCmd(t, "columns", "locked", "--config", cfgPath, "--toggle", "ID")
	require.ErrorIs(t, err, cli.ErrColumnToggleDisabled)
}

func TestFeaturesCmd_Table(t *testing.T) {
	api, srv := newTestAPI(t)
	cfgPath := setupCommandTest(t, srv)

	out, err := runCmd(t, "features", "--config", cfgPath, "--project", "42", "-o", "table")
	require.NoError(t, err)

	assert.Contains(t, out, "STAGE")
	assert.Contains(t, out, "10.000000")
	assert.Contains(t, out, "3 of 3 features")

	assert.Equal(t, "42", api.last("/api/measurements/").Get("project"),
		"project param should be carried through next links")
}

func TestFeaturesCmd_FilteredJSON(t *testing.T) {
	_, srv := newTestAPI(t)
	cfgPath := setupCommandTest(t, srv)

	out, err := runCmd(t, "features", "--config", cfgPath, "--filter", "stage=design", "-o", "json")
	require.NoError(t, err)

	var fc struct {
		Type     string    `json:"type"`
		BBox     []float64 `json:"bbox"`
		Features []struct {
			ID any `json:"id"`
		} `json:"features"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &fc))
	assert.Equal(t, "FeatureCollection", fc.Type)
	assert.Len(t, fc.Features, 2)
	require.Len(t, fc.BBox, 4)
	assert.Less(t, fc.BBox[0], 10.0)
	assert.Greater(t, fc.BBox[2], 12.0)
}

func TestFeaturesCmd_BBoxOnly(t *testing.T) {
	_, srv := newTestAPI(t)
	cfgPath := setupCommandTest(t, srv)

	out, err := runCmd(t, "features", "--config", cfgPath, "--bbox-only", "-o", "json",
		"--filter", "stage=survey")
	require.NoError(t, err)

	var doc struct {
		BBox  []float64 `json:"bbox"`
		Count int       `json:"count"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	assert.Equal(t, 1, doc.Count)
	assert.Equal(t, []float64{11, 41, 11, 41}, doc.BBox, "single point yields a zero-size box")

	out, err = runCmd(t, "features", "--config", cfgPath, "--bbox-only", "-o", "table",
		"--filter", "stage=complete")
	require.NoError(t, err)
	assert.Contains(t, out, "No available data")
}

func TestConfigCmds(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("MAPGRID_LOG_LEVEL", "error")
	path := filepath.Join(home, "nested", "config.yaml")

	out, err := runCmd(t, "config", "init", "--config", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Configuration initialized at "+path)
	_, statErr := os.Stat(path)
	require.NoError(t, statErr)

	_, err = runCmd(t, "config", "init", "--config", path)
	require.Error(t, err, "init without --force should not overwrite")

	_, err = runCmd(t, "config", "init", "--config", path, "--force")
	require.NoError(t, err)

	out, err = runCmd(t, "config", "validate", "--config", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Configuration is valid")
	assert.Contains(t, out, "projects")

	t.Setenv("MAPGRID_BASE_URL", "https://gis.example.com")
	out, err = runCmd(t, "config", "show", "--config", path)
	require.NoError(t, err)
	assert.Contains(t, out, "base_url: https://gis.example.com")
	assert.Contains(t, out, "id: projects")
}

func TestConfigCmds_InvalidConfig(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	path := filepath.Join(home, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("api:\n  base_url: not a url\n"), 0o600))

	_, err := runCmd(t, "config", "validate", "--config", path)
	require.Error(t, err)
}

func TestRootCmd_BaseURLOverride(t *testing.T) {
	api, srv := newTestAPI(t)
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("MAPGRID_LOG_LEVEL", "error")
	path := filepath.Join(home, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(fmt.Sprintf(testConfigTemplate,
		"https://unreachable.invalid", filepath.Join(home, "state"))), 0o600))

	_, err := runCmd(t, "grid", "projects", "--config", path, "--base-url", srv.URL, "-o", "json")
	require.NoError(t, err)
	assert.NotNil(t, api.last("/api/projects/"))
}
