package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"

	"github.com/rshade/mapgrid/internal/grid"
)

// Messages rendered in place of table rows.
const (
	msgNoData        = "No available data"
	msgLoadFailed    = "Failed to load data: "
	msgNoColumns     = "All columns are hidden. Press 'c' to choose columns."
	filterNoneMarker = "---"
	sortAscMarker    = " ▲"
	sortDescMarker   = " ▼"
	focusMarker      = "›"
)

// View renders the grid (Bubble Tea interface).
func (m GridModel) View() string {
	if m.view == ViewStateQuitting {
		return ""
	}

	sections := []string{m.renderHeader()}
	if summary := m.renderFilterSummary(); summary != "" {
		sections = append(sections, summary)
	}
	sections = append(sections, m.renderBody())

	switch {
	case m.overlay == overlaySearch:
		sections = append(sections, LabelStyle.Render("Search: ")+m.search.View())
	case m.isMenuOpen() && m.menu != nil:
		sections = append(sections, BoxStyle.Render(m.menu.View()))
	}

	sections = append(sections, m.renderFooter(), m.renderHelp())
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m GridModel) renderHeader() string {
	title := m.cfg.Title
	if title == "" {
		title = m.state.ID()
	}
	header := HeaderStyle.Render(title)
	if q := m.state.Query(); q != "" {
		header += SubtleStyle.Render(fmt.Sprintf("  search: %q", q))
	}
	return header
}

// renderFilterSummary shows "N selected" or "---" per configured filter.
func (m GridModel) renderFilterSummary() string {
	if !m.state.Capabilities().Filterable || len(m.cfg.FilterOptions) == 0 {
		return ""
	}

	filters := m.state.Filters()
	parts := make([]string, 0, len(m.cfg.FilterOptions))
	for _, f := range m.cfg.FilterOptions {
		label := f.Label
		if label == "" {
			label = f.Field
		}
		text := filterNoneMarker
		if n := len(filters[f.Field]); n > 0 {
			text = fmt.Sprintf("%d selected", n)
		}
		parts = append(parts, LabelStyle.Render(label+": ")+ValueStyle.Render(text))
	}
	return strings.Join(parts, "  ")
}

func (m GridModel) renderBody() string {
	switch m.state.Status() {
	case grid.StatusFailed:
		return CriticalStyle.Render(msgLoadFailed+errString(m.state.Err())) + "\n" +
			SubtleStyle.Render("Press 'r' to retry")
	case grid.StatusLoading:
		if len(m.state.Rows()) == 0 {
			return m.loading.View()
		}
	case grid.StatusIdle, grid.StatusLoaded, grid.StatusEmpty:
	}

	if len(m.state.VisibleColumns()) == 0 {
		return WarningStyle.Render(msgNoColumns)
	}
	return m.table.View()
}

func (m GridModel) renderFooter() string {
	parts := []string{m.state.RangeLabel()}
	if m.state.TotalCount() > 0 {
		parts = append(parts, fmt.Sprintf("Page %d of %d", m.state.Page(), m.state.LastPage()))
	}
	if m.state.Status() == grid.StatusLoading && len(m.state.Rows()) > 0 {
		parts = append(parts, m.loading.View())
	}
	return SubtleStyle.Render(strings.Join(parts, " | "))
}

func (m GridModel) renderHelp() string {
	caps := m.state.Capabilities()
	help := []string{"n/p page", "</> first/last"}
	if caps.Sortable {
		help = append(help, "←/→ column", "s sort")
	}
	if caps.Filterable {
		help = append(help, "f filter", "x clear")
	}
	if caps.Searchable {
		help = append(help, "/ search")
	}
	if caps.ColumnToggle {
		help = append(help, "c columns")
	}
	help = append(help, "r reload", "q quit")
	return SubtleStyle.Render(strings.Join(help, " · "))
}

// rebuildTable reconstructs the table from the visible columns and rows.
func (m *GridModel) rebuildTable() {
	cols := m.state.VisibleColumns()
	titles := m.columnTitles(cols)

	var rows []table.Row
	switch {
	case m.state.Status() == grid.StatusEmpty && len(cols) > 0:
		row := make(table.Row, len(cols))
		row[0] = msgNoData
		rows = append(rows, row)
	default:
		for _, r := range m.state.Rows() {
			rows = append(rows, table.Row(m.state.Project(r)))
		}
	}

	columns := make([]table.Column, len(cols))
	for i, title := range titles {
		width := lipgloss.Width(title)
		for _, r := range rows {
			width = max(width, lipgloss.Width(r[i]))
		}
		columns[i] = table.Column{Title: title, Width: min(max(width, minColumnWidth), maxColumnWidth)}
	}

	cursor := m.table.Cursor()
	t := table.New(
		table.WithColumns(columns),
		table.WithRows(rows),
		table.WithFocused(true),
		table.WithHeight(max(m.height-chromeHeight, minHeight)),
		table.WithWidth(m.width-borderPadding),
	)
	s := table.DefaultStyles()
	s.Header = TableHeaderStyle
	s.Selected = TableSelectedStyle
	t.SetStyles(s)
	if cursor < len(rows) {
		t.SetCursor(cursor)
	}
	m.table = t
}

// columnTitles decorates column labels with the sort direction and the
// column cursor.
func (m *GridModel) columnTitles(cols []string) []string {
	sortState := m.state.Sort()
	titles := make([]string, len(cols))
	for i, c := range cols {
		title := c
		if key, ok := m.cfg.SortKeyFor(c); ok && sortState != nil && sortState.Column == key {
			if sortState.Direction == grid.Descending {
				title += sortDescMarker
			} else {
				title += sortAscMarker
			}
		}
		if m.state.Capabilities().Sortable && i == min(m.colCursor, len(cols)-1) {
			title = focusMarker + title
		}
		titles[i] = title
	}
	return titles
}

func errString(err error) string {
	if err == nil {
		return "unknown error"
	}
	return err.Error()
}
