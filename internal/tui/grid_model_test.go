package tui

import (
	"context"
	"errors"
	"testing"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rshade/mapgrid/internal/config"
	"github.com/rshade/mapgrid/internal/grid"
)

func testGridConfig() config.GridConfig {
	return config.GridConfig{
		ID:      "projects",
		Title:   "Projects",
		URL:     "/api/projects/",
		PerPage: 10,
		Columns: []string{"ID", "Name", "Stage"},
		SortOptions: []config.SortOption{
			{Label: "Name", Sort: "name"},
		},
		FilterOptions: []config.FilterOption{{
			Field: "stage",
			Label: "Stage",
			Options: []config.FilterChoice{
				{Key: "design", Value: "Design"},
				{Key: "survey", Value: "Survey"},
			},
		}},
	}
}

func testRows() []grid.Row {
	return []grid.Row{
		{{Column: "ID", Value: float64(1)}, {Column: "Name", Value: "Alpha"}, {Column: "Stage", Value: "design"}},
		{{Column: "ID", Value: float64(2)}, {Column: "Name", Value: "Bravo"}, {Column: "Stage", Value: nil}},
	}
}

func staticFetcher(result grid.PageResult, err error) grid.FetcherFunc {
	return func(ctx context.Context, _ grid.PageRequest) (grid.PageResult, error) {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return grid.PageResult{}, ctxErr
		}
		return result, err
	}
}

func newTestGridModel(t *testing.T, fetcher grid.Fetcher) GridModel {
	t.Helper()
	cfg := testGridConfig()
	state := grid.New(cfg.Options(nil, nil))
	return NewGridModel(context.Background(), GridModelOptions{
		Grid:    cfg,
		State:   state,
		Fetcher: fetcher,
	})
}

func keyMsg(k string) tea.KeyMsg {
	switch k {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEscape}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case " ":
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune(" ")}
	case "left":
		return tea.KeyMsg{Type: tea.KeyLeft}
	case "right":
		return tea.KeyMsg{Type: tea.KeyRight}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	default:
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
	}
}

func updateGrid(t *testing.T, m GridModel, msg tea.Msg) (GridModel, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	gm, ok := next.(GridModel)
	require.True(t, ok)
	return gm, cmd
}

// loadGrid issues a fetch and feeds its result back into the model.
func loadGrid(t *testing.T, m GridModel) GridModel {
	t.Helper()
	msg, ok := m.fetch()().(GridPageMsg)
	require.True(t, ok)
	m, _ = updateGrid(t, m, msg)
	return m
}

// runBatch executes every command of a batched cmd and returns their messages.
func runBatch(t *testing.T, cmd tea.Cmd) []tea.Msg {
	t.Helper()
	require.NotNil(t, cmd)
	batch, ok := cmd().(tea.BatchMsg)
	require.True(t, ok, "expected a batched command")
	msgs := make([]tea.Msg, 0, len(batch))
	for _, c := range batch {
		if c != nil {
			msgs = append(msgs, c())
		}
	}
	return msgs
}

func TestGridModel_AppliesPage(t *testing.T) {
	m := newTestGridModel(t, staticFetcher(grid.PageResult{Items: testRows(), TotalCount: 2}, nil))
	assert.NotNil(t, m.Init())

	m = loadGrid(t, m)

	assert.Equal(t, grid.StatusLoaded, m.State().Status())
	view := m.View()
	assert.Contains(t, view, "Projects")
	assert.Contains(t, view, "Alpha")
	assert.Contains(t, view, "Bravo")
	assert.Contains(t, view, "Showing 1 - 2 of 2")
	assert.Contains(t, view, "Page 1 of 1")
}

func TestGridModel_DiscardsStalePage(t *testing.T) {
	m := newTestGridModel(t, staticFetcher(grid.PageResult{Items: testRows(), TotalCount: 2}, nil))

	first := m.fetch()
	second := m.fetch()

	// The second fetch cancels the first; its outcome must not land.
	firstMsg, ok := first().(GridPageMsg)
	require.True(t, ok)
	require.ErrorIs(t, firstMsg.Err, context.Canceled)

	m, _ = updateGrid(t, m, firstMsg)
	assert.Equal(t, grid.StatusLoading, m.State().Status())
	assert.NoError(t, m.State().Err())

	secondMsg, ok := second().(GridPageMsg)
	require.True(t, ok)
	m, _ = updateGrid(t, m, secondMsg)
	assert.Equal(t, grid.StatusLoaded, m.State().Status())

	// A late success for an old token is ignored too.
	stale := GridPageMsg{Token: firstMsg.Token, Result: grid.PageResult{}}
	m, _ = updateGrid(t, m, stale)
	assert.Len(t, m.State().Rows(), 2)
}

func TestGridModel_LoadFailure(t *testing.T) {
	m := newTestGridModel(t, staticFetcher(grid.PageResult{}, errors.New("boom")))

	m = loadGrid(t, m)

	assert.Equal(t, grid.StatusFailed, m.State().Status())
	view := m.View()
	assert.Contains(t, view, "Failed to load data: boom")
	assert.Contains(t, view, "Press 'r' to retry")

	_, cmd := updateGrid(t, m, keyMsg("r"))
	assert.NotNil(t, cmd)
}

func TestGridModel_EmptyShowsNoData(t *testing.T) {
	m := newTestGridModel(t, staticFetcher(grid.PageResult{}, nil))

	m = loadGrid(t, m)

	assert.Equal(t, grid.StatusEmpty, m.State().Status())
	view := m.View()
	assert.Contains(t, view, msgNoData)
	assert.Contains(t, view, "Showing 0 - 0 of 0")
}

func TestGridModel_FilterMenu(t *testing.T) {
	m := newTestGridModel(t, staticFetcher(grid.PageResult{Items: testRows(), TotalCount: 2}, nil))
	m = loadGrid(t, m)
	assert.Contains(t, m.View(), "Stage: "+filterNoneMarker)

	m, cmd := updateGrid(t, m, keyMsg("f"))
	assert.Nil(t, cmd)
	require.Equal(t, overlayFilter, m.overlay)
	require.NotNil(t, m.menu)
	assert.Equal(t, "Stage", m.menu.Title())

	m, cmd = updateGrid(t, m, keyMsg(" "))
	assert.NotNil(t, cmd, "toggling a filter refetches")
	assert.True(t, m.State().Selected("stage", "design"))
	assert.Contains(t, m.View(), "[x] Design")

	m, _ = updateGrid(t, m, keyMsg("down"))
	m, _ = updateGrid(t, m, keyMsg("enter"))
	assert.True(t, m.State().Selected("stage", "survey"))
	assert.Equal(t, map[string][]string{"stage": {"design", "survey"}}, m.State().BuildRequest().Filters)

	// Tab wraps around the single configured filter.
	m, _ = updateGrid(t, m, keyMsg("tab"))
	assert.Equal(t, overlayFilter, m.overlay)
	assert.Equal(t, 0, m.filterIndex)

	m, _ = updateGrid(t, m, keyMsg("esc"))
	assert.Equal(t, overlayNone, m.overlay)
	assert.Nil(t, m.menu)
	assert.Contains(t, m.View(), "Stage: 2 selected")

	m, cmd = updateGrid(t, m, keyMsg("x"))
	assert.NotNil(t, cmd)
	assert.Empty(t, m.State().Filters())

	_, cmd = updateGrid(t, m, keyMsg("x"))
	assert.Nil(t, cmd, "clearing nothing does not refetch")
}

func TestGridModel_ColumnMenu(t *testing.T) {
	m := newTestGridModel(t, staticFetcher(grid.PageResult{Items: testRows(), TotalCount: 2}, nil))
	m = loadGrid(t, m)

	m, _ = updateGrid(t, m, keyMsg("f"))
	m, _ = updateGrid(t, m, keyMsg("c"))
	assert.Equal(t, overlayFilter, m.overlay, "keys go to the open menu")

	m, _ = updateGrid(t, m, keyMsg("esc"))
	m, _ = updateGrid(t, m, keyMsg("c"))
	require.Equal(t, overlayColumns, m.overlay)

	m, cmd := updateGrid(t, m, keyMsg(" "))
	assert.Nil(t, cmd, "column visibility never refetches")
	assert.Equal(t, []string{"Name", "Stage"}, m.State().VisibleColumns())
	assert.Contains(t, m.View(), "[ ] ID")

	m, _ = updateGrid(t, m, keyMsg(" "))
	assert.Equal(t, []string{"ID", "Name", "Stage"}, m.State().VisibleColumns())
}

func TestGridModel_AllColumnsHidden(t *testing.T) {
	m := newTestGridModel(t, staticFetcher(grid.PageResult{Items: testRows(), TotalCount: 2}, nil))
	m = loadGrid(t, m)

	m, _ = updateGrid(t, m, keyMsg("c"))
	for range 3 {
		m, _ = updateGrid(t, m, keyMsg(" "))
		m, _ = updateGrid(t, m, keyMsg("down"))
	}
	m, _ = updateGrid(t, m, keyMsg("esc"))

	assert.Empty(t, m.State().VisibleColumns())
	assert.Contains(t, m.View(), msgNoColumns)
}

func TestGridModel_SortFocusedColumn(t *testing.T) {
	m := newTestGridModel(t, staticFetcher(grid.PageResult{Items: testRows(), TotalCount: 2}, nil))
	m = loadGrid(t, m)

	// "ID" has no sort option.
	m, cmd := updateGrid(t, m, keyMsg("s"))
	assert.Nil(t, cmd)
	assert.Nil(t, m.State().Sort())

	m, _ = updateGrid(t, m, keyMsg("right"))
	assert.Equal(t, 1, m.colCursor)

	m, cmd = updateGrid(t, m, keyMsg("s"))
	assert.NotNil(t, cmd)
	assert.Equal(t, "name", m.State().BuildRequest().Sort)
	assert.Equal(t, []string{"ID", focusMarker + "Name" + sortAscMarker, "Stage"},
		m.columnTitles(m.State().VisibleColumns()))

	m, _ = updateGrid(t, m, keyMsg("s"))
	assert.Equal(t, "-name", m.State().BuildRequest().Sort)

	m, _ = updateGrid(t, m, keyMsg("l"))
	m, _ = updateGrid(t, m, keyMsg("l"))
	assert.Equal(t, 2, m.colCursor, "cursor stops at the last column")
}

func TestGridModel_Search(t *testing.T) {
	m := newTestGridModel(t, staticFetcher(grid.PageResult{Items: testRows(), TotalCount: 2}, nil))
	m = loadGrid(t, m)

	m, _ = updateGrid(t, m, keyMsg("/"))
	require.Equal(t, overlaySearch, m.overlay)

	m, _ = updateGrid(t, m, keyMsg("quay"))
	assert.Equal(t, overlaySearch, m.overlay, "typing q does not quit while searching")

	m, cmd := updateGrid(t, m, keyMsg("enter"))
	assert.NotNil(t, cmd)
	assert.Equal(t, overlayNone, m.overlay)
	assert.Equal(t, "quay", m.State().Query())
	assert.Equal(t, 1, m.State().Page())

	m, _ = updateGrid(t, m, keyMsg("/"))
	m, _ = updateGrid(t, m, keyMsg("x"))
	m, cmd = updateGrid(t, m, keyMsg("esc"))
	assert.Nil(t, cmd)
	assert.Equal(t, "quay", m.State().Query(), "escape discards the edit")
}

func TestGridModel_Paging(t *testing.T) {
	result := grid.PageResult{Items: testRows(), TotalCount: 25, HasNext: true}
	m := newTestGridModel(t, staticFetcher(result, nil))
	m = loadGrid(t, m)

	_, cmd := updateGrid(t, m, keyMsg("p"))
	assert.Nil(t, cmd, "no previous page")

	m, cmd = updateGrid(t, m, keyMsg("n"))
	assert.NotNil(t, cmd)
	assert.Equal(t, 2, m.State().Page())

	m, cmd = updateGrid(t, m, keyMsg(">"))
	assert.NotNil(t, cmd)
	assert.Equal(t, 3, m.State().Page())

	m, cmd = updateGrid(t, m, keyMsg("<"))
	assert.NotNil(t, cmd)
	assert.Equal(t, 1, m.State().Page())
}

func TestGridModel_RefetchRestartsSpinner(t *testing.T) {
	result := grid.PageResult{Items: testRows(), TotalCount: 25, HasNext: true}
	m := newTestGridModel(t, staticFetcher(result, nil))
	m = loadGrid(t, m)

	m, cmd := updateGrid(t, m, keyMsg("n"))
	require.Equal(t, grid.StatusLoading, m.State().Status())

	var ticked, loaded bool
	for _, msg := range runBatch(t, cmd) {
		switch msg.(type) {
		case spinner.TickMsg:
			ticked = true
		case GridPageMsg:
			loaded = true
		}
	}
	assert.True(t, ticked, "spinner restarts for the new fetch")
	assert.True(t, loaded)
}

func TestGridModel_RetryReloads(t *testing.T) {
	var reloads []bool
	fetcher := grid.FetcherFunc(func(ctx context.Context, _ grid.PageRequest) (grid.PageResult, error) {
		reloads = append(reloads, grid.IsReload(ctx))
		return grid.PageResult{Items: testRows(), TotalCount: 2}, nil
	})
	m := newTestGridModel(t, fetcher)
	m = loadGrid(t, m)

	m, cmd := updateGrid(t, m, keyMsg("r"))
	assert.Equal(t, grid.StatusLoading, m.State().Status())

	var page GridPageMsg
	var ticked bool
	for _, msg := range runBatch(t, cmd) {
		switch msg := msg.(type) {
		case spinner.TickMsg:
			ticked = true
		case GridPageMsg:
			page = msg
		}
	}
	assert.True(t, ticked)
	assert.Equal(t, []bool{false, true}, reloads, "only the retry skips cached pages")

	m, _ = updateGrid(t, m, page)
	assert.Equal(t, grid.StatusLoaded, m.State().Status())
}

func TestGridModel_Quit(t *testing.T) {
	m := newTestGridModel(t, staticFetcher(grid.PageResult{}, nil))

	m, cmd := updateGrid(t, m, keyMsg("q"))
	assert.NotNil(t, cmd)
	assert.Equal(t, ViewStateQuitting, m.view)
	assert.Empty(t, m.View())

	_, cmd = updateGrid(t, m, keyMsg("n"))
	assert.Nil(t, cmd)
}

func TestGridModel_WindowSize(t *testing.T) {
	m := newTestGridModel(t, staticFetcher(grid.PageResult{Items: testRows(), TotalCount: 2}, nil))

	m, cmd := updateGrid(t, m, tea.WindowSizeMsg{Width: 120, Height: 40})
	assert.Nil(t, cmd)
	assert.Equal(t, 120, m.width)
	assert.Equal(t, 40, m.height)
}
