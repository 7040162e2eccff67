package tui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/rshade/mapgrid/internal/features"
	"github.com/rshade/mapgrid/internal/logging"
	"github.com/rshade/mapgrid/internal/remote"
	listview "github.com/rshade/mapgrid/internal/tui/list"
)

// MapLoader fetches everything the map shows.
type MapLoader func(ctx context.Context) (remote.MapData, error)

// MapLoadedMsg carries the outcome of one map load.
type MapLoadedMsg struct {
	Token uint64
	Data  remote.MapData
	Err   error
}

// MapModelOptions configures a MapModel.
type MapModelOptions struct {
	Load             MapLoader
	FilterProperties []string
	PopupFields      []features.PopupField
	LabelProperty    string

	// Filters seeds the property filters; they survive every reload.
	Filters features.FilterMap
}

// mapLoads numbers map loads so a reload supersedes an older one.
type mapLoads struct {
	issued uint64
}

// mapDisplay holds the label settings read by the list renderer.
type mapDisplay struct {
	labelProp  string
	showLabels bool
}

// label is the text drawn for f in the list.
func (d *mapDisplay) label(f features.Feature) string {
	if d.showLabels {
		if v, ok := f.Property(d.labelProp); ok && v != "" {
			return v
		}
	}
	if f.ID == "" {
		return "(no id)"
	}
	return "#" + f.ID
}

func (d *mapDisplay) render(f features.Feature, selected bool) string {
	line := fmt.Sprintf("%-24s %11.6f %10.6f", d.label(f), f.Lon(), f.Lat())
	if selected {
		return TableSelectedStyle.Render("> " + line)
	}
	return "  " + line
}

// MapModel is the Bubble Tea model of the feature map: a filterable list of
// features with bounds, labels and a popup per feature.
//
//nolint:recvcheck // Bubble Tea requires value receivers for Init/Update/View interface methods.
type MapModel struct {
	ctx     context.Context
	load    MapLoader
	pending *inflight
	loads   *mapLoads
	display *mapDisplay

	set    *features.FilterSet
	icons  []remote.Icon
	props  []string
	popup  []features.PopupField
	bounds features.BoundingBox

	view      ViewState
	overlay   overlay
	menu      *listview.Menu
	propIndex int
	list      *listview.VirtualListModel[features.Feature]
	loading   *LoadingState
	err       error

	width  int
	height int
}

// NewMapModel creates a map model. Features are requested by Init.
func NewMapModel(ctx context.Context, opts MapModelOptions) MapModel {
	popup := opts.PopupFields
	if len(popup) == 0 {
		popup = features.DefaultPopupFields()
	}

	m := MapModel{
		ctx:     ctx,
		load:    opts.Load,
		pending: &inflight{},
		loads:   &mapLoads{},
		display: &mapDisplay{
			labelProp:  opts.LabelProperty,
			showLabels: false,
		},
		set:     features.NewFilterSet(),
		props:   opts.FilterProperties,
		popup:   popup,
		view:    ViewStateLoading,
		loading: NewLoadingState(),
		width:   defaultWidth,
		height:  defaultHeight,
	}
	for _, prop := range opts.Filters.Properties() {
		for _, v := range opts.Filters[prop] {
			m.set.AddFilter(prop, v)
		}
	}
	m.list = listview.NewVirtualListModel[features.Feature](nil, m.listHeight(), m.width, m.display.render)
	return m
}

// Init starts the spinner and the first load (Bubble Tea interface).
func (m MapModel) Init() tea.Cmd {
	return tea.Batch(m.loading.Init(), m.fetch())
}

// FilterSet returns the working feature set.
func (m MapModel) FilterSet() *features.FilterSet {
	return m.set
}

// Bounds returns the bounding box the view is fitted to.
func (m MapModel) Bounds() features.BoundingBox {
	return m.bounds
}

func (m MapModel) fetch() tea.Cmd {
	m.loads.issued++
	tok := m.loads.issued

	// Every request of the load carries the client timeout; a reload or quit
	// cancels the load as a whole.
	ctx, cancel := context.WithCancel(m.ctx)
	m.pending.replace(cancel)

	load := m.load
	return func() tea.Msg {
		defer cancel()
		data, err := load(ctx)
		return MapLoadedMsg{Token: tok, Data: data, Err: err}
	}
}

// Update handles messages (Bubble Tea interface).
func (m MapModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.list.SetSize(m.width, m.listHeight())
		return m, nil
	case MapLoadedMsg:
		return m.handleLoaded(msg)
	case spinner.TickMsg:
		if m.view == ViewStateLoading {
			return m, m.loading.Update(msg)
		}
		return m, nil
	case tea.KeyMsg:
		switch m.view {
		case ViewStateQuitting:
			return m, nil
		case ViewStateDetail:
			return m.handleDetailKey(msg)
		case ViewStateLoading, ViewStateList, ViewStateError:
		}
		if m.overlay != overlayNone {
			return m.handleMenuKey(msg)
		}
		return m.handleListKey(msg)
	}
	return m, nil
}

func (m MapModel) handleLoaded(msg MapLoadedMsg) (tea.Model, tea.Cmd) {
	if msg.Token != m.loads.issued {
		return m, nil
	}

	if msg.Err != nil {
		logging.FromContext(m.ctx).Error().
			Str("component", "tui").
			Str("operation", "map_load").
			Err(msg.Err).
			Msg("map load failed")
		m.err = msg.Err
		m.view = ViewStateError
		return m, nil
	}

	// Keep the user's filters across reloads.
	previous := m.set.Filters()
	m.set = features.NewFilterSet()
	m.set.AddFeatures(msg.Data.Features)
	for _, prop := range previous.Properties() {
		for _, v := range previous[prop] {
			m.set.AddFilter(prop, v)
		}
	}

	m.closeActiveMenu()
	m.icons = msg.Data.Icons
	m.err = nil
	m.view = ViewStateList
	m.refreshList()
	m.bounds = m.set.VisibleBounds()
	return m, nil
}

func (m MapModel) handleListKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case keyQuit, keyCtrlC:
		m.pending.stop()
		m.view = ViewStateQuitting
		return m, tea.Quit
	case keyRetry:
		m.view = ViewStateLoading
		return m, tea.Batch(m.loading.Init(), m.fetch())
	}

	if m.view != ViewStateList {
		return m, nil
	}

	switch msg.String() {
	case keyEnter:
		if m.list.SelectedItem() != nil {
			m.view = ViewStateDetail
		}
	case keyFilter:
		m.openPropertyMenu(m.propIndex)
	case keyClear:
		if m.set.ClearFilters() {
			m.refreshList()
		}
	case keyLabels:
		m.display.showLabels = !m.display.showLabels && m.display.labelProp != ""
	case keyFit:
		m.bounds = m.set.VisibleBounds()
	default:
		m.list.HandleKey(msg)
	}
	return m, nil
}

func (m MapModel) handleMenuKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case keyEsc, keyQuit:
		m.closeActiveMenu()
	case keyTab:
		m.openPropertyMenu(m.propIndex + 1)
	case keyEnter, keySpace:
		if opt, ok := m.menu.Current(); ok {
			m.set.ToggleFilter(m.props[m.propIndex], opt.Key)
			m.refreshList()
		}
	default:
		m.menu.Update(msg)
	}
	return m, nil
}

func (m MapModel) handleDetailKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case keyQuit, keyCtrlC:
		m.pending.stop()
		m.view = ViewStateQuitting
		return m, tea.Quit
	case keyEsc, keyEnter:
		m.view = ViewStateList
	}
	return m, nil
}

// isMenuOpen reports whether the filter menu is drawn.
func (m MapModel) isMenuOpen() bool {
	return m.overlay == overlayFilter
}

func (m *MapModel) closeActiveMenu() {
	m.overlay = overlayNone
	m.menu = nil
}

// openPropertyMenu opens the value menu of the index-th filter property,
// wrapping around.
func (m *MapModel) openPropertyMenu(index int) {
	n := len(m.props)
	if n == 0 {
		return
	}
	m.closeActiveMenu()
	m.propIndex = ((index % n) + n) % n
	prop := m.props[m.propIndex]

	values := m.set.Values(prop)
	opts := make([]listview.Option, len(values))
	for i, v := range values {
		opts[i] = listview.Option{Key: v, Label: v}
	}

	set := m.set
	m.menu = listview.NewMenu(prop, opts, menuHeight, func(key string) bool {
		return set.Filters().Has(prop, key)
	})
	m.overlay = overlayFilter
}

// refreshList recomputes the visible features.
func (m *MapModel) refreshList() {
	m.list.SetItems(m.set.Visible())
}

func (m MapModel) listHeight() int {
	return max(m.height-chromeHeight-1, minHeight)
}
