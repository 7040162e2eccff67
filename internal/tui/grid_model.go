package tui

import (
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/rshade/mapgrid/internal/config"
	"github.com/rshade/mapgrid/internal/grid"
	"github.com/rshade/mapgrid/internal/logging"
	listview "github.com/rshade/mapgrid/internal/tui/list"
)

// menuHeight is the number of options shown in an open menu.
const menuHeight = 8

// GridPageMsg carries the outcome of one page fetch.
type GridPageMsg struct {
	Token  grid.Token
	Result grid.PageResult
	Err    error
}

// inflight holds the cancel func of the running fetch. It is shared by every
// copy of a model so a new fetch can cancel the previous one.
type inflight struct {
	cancel context.CancelFunc
}

func (f *inflight) replace(cancel context.CancelFunc) {
	if f.cancel != nil {
		f.cancel()
	}
	f.cancel = cancel
}

func (f *inflight) stop() {
	f.replace(nil)
}

// GridModelOptions configures a GridModel.
type GridModelOptions struct {
	Grid    config.GridConfig
	State   *grid.State
	Fetcher grid.Fetcher
	Timeout time.Duration
}

// GridModel is the Bubble Tea model of an interactive data grid.
//
//nolint:recvcheck // Bubble Tea requires value receivers for Init/Update/View interface methods.
type GridModel struct {
	ctx     context.Context
	cfg     config.GridConfig
	state   *grid.State
	fetcher grid.Fetcher
	timeout time.Duration
	pending *inflight

	view        ViewState
	overlay     overlay
	menu        *listview.Menu
	filterIndex int
	colCursor   int

	table   table.Model
	search  textinput.Model
	loading *LoadingState

	width  int
	height int
}

// NewGridModel creates a grid model. The first page is requested by Init.
func NewGridModel(ctx context.Context, opts GridModelOptions) GridModel {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = grid.DefaultTimeout
	}

	m := GridModel{
		ctx:     ctx,
		cfg:     opts.Grid,
		state:   opts.State,
		fetcher: opts.Fetcher,
		timeout: timeout,
		pending: &inflight{},
		view:    ViewStateList,
		search:  newTextInput(),
		loading: NewLoadingState(),
		width:   defaultWidth,
		height:  defaultHeight,
	}
	m.search.SetValue(opts.State.Query())
	m.rebuildTable()
	return m
}

// Init starts the spinner and requests the first page (Bubble Tea interface).
func (m GridModel) Init() tea.Cmd {
	return tea.Batch(m.loading.Init(), m.fetch())
}

// State returns the underlying grid state.
func (m GridModel) State() *grid.State {
	return m.state
}

// fetch cancels the running request, issues a new one for the current state
// and returns the command performing it.
func (m GridModel) fetch() tea.Cmd {
	return m.fetchWith(m.ctx)
}

// reload is fetch for an explicit retry; cached pages are skipped.
func (m GridModel) reload() tea.Cmd {
	return m.fetchWith(grid.WithReload(m.ctx))
}

func (m GridModel) fetchWith(parent context.Context) tea.Cmd {
	tok := m.state.Begin()
	req := m.state.BuildRequest()

	ctx, cancel := context.WithTimeout(parent, m.timeout)
	m.pending.replace(cancel)

	fetcher := m.fetcher
	return func() tea.Msg {
		defer cancel()
		res, err := fetcher.FetchPage(ctx, req)
		return GridPageMsg{Token: tok, Result: res, Err: err}
	}
}

// Update handles messages (Bubble Tea interface).
func (m GridModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.rebuildTable()
		return m, nil
	case GridPageMsg:
		return m.handlePage(msg)
	case spinner.TickMsg:
		if m.state.Status() == grid.StatusLoading {
			return m, m.loading.Update(msg)
		}
		return m, nil
	case tea.KeyMsg:
		if m.view == ViewStateQuitting {
			return m, nil
		}
		if m.overlay != overlayNone {
			return m.handleOverlayKey(msg)
		}
		return m.handleListKey(msg)
	}
	return m, nil
}

func (m GridModel) handlePage(msg GridPageMsg) (tea.Model, tea.Cmd) {
	log := logging.FromContext(m.ctx)

	var applied bool
	if msg.Err != nil {
		applied = m.state.Fail(msg.Token, msg.Err)
		if applied {
			log.Error().
				Str("component", "tui").
				Str("operation", "grid_fetch").
				Str("grid_id", m.state.ID()).
				Err(msg.Err).
				Msg("grid load failed")
		}
	} else {
		applied = m.state.Apply(msg.Token, msg.Result)
	}

	if !applied {
		log.Debug().
			Str("component", "tui").
			Str("grid_id", m.state.ID()).
			Uint64("token", uint64(msg.Token)).
			Bool("canceled", errors.Is(msg.Err, context.Canceled)).
			Msg("discarding stale page")
		return m, nil
	}

	m.rebuildTable()
	return m, nil
}

func (m GridModel) handleListKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	caps := m.state.Capabilities()

	switch msg.String() {
	case keyQuit, keyCtrlC:
		m.pending.stop()
		m.view = ViewStateQuitting
		return m, tea.Quit
	case keyNext:
		return m.refetchIf(m.state.NextPage())
	case keyPrev:
		return m.refetchIf(m.state.PrevPage())
	case keyFirst:
		return m.refetchIf(m.state.FirstPage())
	case keyLast:
		return m.refetchIf(m.state.LastPageJump())
	case keyRetry:
		return m, tea.Batch(m.loading.Init(), m.reload())
	case keySlash:
		if !caps.Searchable {
			return m, nil
		}
		m.overlay = overlaySearch
		m.search.SetValue(m.state.Query())
		m.search.Focus()
		return m, textinput.Blink
	case keySort:
		col, ok := m.focusedColumn()
		if !ok {
			return m, nil
		}
		key, ok := m.cfg.SortKeyFor(col)
		if !ok {
			return m, nil
		}
		return m.refetchIf(m.state.ToggleSort(key))
	case keyLeft, keyColLeft:
		m.moveColumnCursor(-1)
		return m, nil
	case keyRight, keyColRight:
		m.moveColumnCursor(1)
		return m, nil
	case keyFilter:
		if caps.Filterable {
			m.openFilterMenu(m.filterIndex)
		}
		return m, nil
	case keyClear:
		return m.refetchIf(m.state.ClearFilters())
	case keyColumns:
		if caps.ColumnToggle {
			m.openColumnMenu()
		}
		return m, nil
	default:
		var cmd tea.Cmd
		m.table, cmd = m.table.Update(msg)
		return m, cmd
	}
}

func (m GridModel) handleOverlayKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.overlay == overlaySearch {
		return m.handleSearchKey(msg)
	}

	switch msg.String() {
	case keyEsc, keyQuit:
		m.closeActiveMenu()
		return m, nil
	case keyTab:
		if m.overlay == overlayFilter {
			m.openFilterMenu(m.filterIndex + 1)
		}
		return m, nil
	case keyEnter, keySpace:
		opt, ok := m.menu.Current()
		if !ok {
			return m, nil
		}
		if m.overlay == overlayColumns {
			if m.state.ToggleColumnVisibility(m.ctx, opt.Key) {
				m.rebuildTable()
			}
			return m, nil
		}
		field := m.cfg.FilterOptions[m.filterIndex].Field
		return m.refetchIf(m.state.ToggleFilterValue(field, opt.Key))
	default:
		m.menu.Update(msg)
		return m, nil
	}
}

func (m GridModel) handleSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case keyEnter:
		m.overlay = overlayNone
		m.search.Blur()
		return m.refetchIf(m.state.SetSearch(m.search.Value()))
	case keyEsc:
		m.overlay = overlayNone
		m.search.Blur()
		m.search.SetValue(m.state.Query())
		return m, nil
	}

	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	return m, cmd
}

// refetchIf issues a fetch when a state mutation reported a change.
func (m GridModel) refetchIf(dirty bool) (tea.Model, tea.Cmd) {
	if !dirty {
		return m, nil
	}
	m.rebuildTable()
	return m, tea.Batch(m.loading.Init(), m.fetch())
}

// isMenuOpen reports whether a filter or column menu is drawn.
func (m GridModel) isMenuOpen() bool {
	return m.overlay == overlayFilter || m.overlay == overlayColumns
}

// closeActiveMenu closes whichever menu is open.
func (m *GridModel) closeActiveMenu() {
	m.overlay = overlayNone
	m.menu = nil
}

// openFilterMenu opens the menu of the index-th configured filter, wrapping
// around. Opening a menu closes any other.
func (m *GridModel) openFilterMenu(index int) {
	n := len(m.cfg.FilterOptions)
	if n == 0 {
		return
	}
	m.closeActiveMenu()
	m.filterIndex = ((index % n) + n) % n

	f := m.cfg.FilterOptions[m.filterIndex]
	opts := make([]listview.Option, len(f.Options))
	for i, o := range f.Options {
		opts[i] = listview.Option{Key: o.Key, Label: o.Value}
	}

	title := f.Label
	if title == "" {
		title = f.Field
	}
	state := m.state
	m.menu = listview.NewMenu(title, opts, menuHeight, func(key string) bool {
		return state.Selected(f.Field, key)
	})
	m.overlay = overlayFilter
}

func (m *GridModel) openColumnMenu() {
	m.closeActiveMenu()

	cols := m.state.Columns()
	opts := make([]listview.Option, len(cols))
	for i, c := range cols {
		opts[i] = listview.Option{Key: c, Label: c}
	}
	state := m.state
	m.menu = listview.NewMenu("Columns", opts, menuHeight, state.IsColumnVisible)
	m.overlay = overlayColumns
}

func (m *GridModel) focusedColumn() (string, bool) {
	cols := m.state.VisibleColumns()
	if len(cols) == 0 {
		return "", false
	}
	return cols[min(m.colCursor, len(cols)-1)], true
}

func (m *GridModel) moveColumnCursor(delta int) {
	n := len(m.state.VisibleColumns())
	if n == 0 {
		m.colCursor = 0
		return
	}
	m.colCursor = min(max(m.colCursor+delta, 0), n-1)
	m.rebuildTable()
}
