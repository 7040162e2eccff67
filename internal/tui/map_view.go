package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/rshade/mapgrid/internal/features"
)

// View renders the map (Bubble Tea interface).
func (m MapModel) View() string {
	switch m.view {
	case ViewStateQuitting:
		return ""
	case ViewStateLoading:
		return m.loading.View()
	case ViewStateError:
		return CriticalStyle.Render(msgLoadFailed+errString(m.err)) + "\n" +
			SubtleStyle.Render("Press 'r' to retry, 'q' to quit")
	case ViewStateDetail:
		return m.renderPopup()
	case ViewStateList:
		return m.renderListView()
	default:
		return ""
	}
}

func (m MapModel) renderListView() string {
	sections := []string{m.renderHeader()}
	if summary := m.renderFilterSummary(); summary != "" {
		sections = append(sections, summary)
	}

	if m.list.ItemCount() == 0 {
		sections = append(sections, SubtleStyle.Render(msgNoData))
	} else {
		sections = append(sections, m.list.View())
	}

	if m.isMenuOpen() && m.menu != nil {
		sections = append(sections, BoxStyle.Render(m.menu.View()))
	}

	sections = append(sections, m.renderBounds(), SubtleStyle.Render(
		"↑/↓ move · enter details · f filter · tab next filter · x clear · L labels · z fit · r reload · q quit"))
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m MapModel) renderHeader() string {
	header := HeaderStyle.Render(fmt.Sprintf("Features %d of %d", m.list.ItemCount(), m.set.Len()))
	if len(m.icons) > 0 {
		header += SubtleStyle.Render(fmt.Sprintf("  %d icons", len(m.icons)))
	}
	if m.display.showLabels {
		header += SubtleStyle.Render("  labels: " + m.display.labelProp)
	}
	return header
}

func (m MapModel) renderFilterSummary() string {
	if len(m.props) == 0 {
		return ""
	}
	filters := m.set.Filters()
	parts := make([]string, 0, len(m.props))
	for _, prop := range m.props {
		text := filterNoneMarker
		if n := len(filters[prop]); n > 0 {
			text = fmt.Sprintf("%d selected", n)
		}
		parts = append(parts, LabelStyle.Render(prop+": ")+ValueStyle.Render(text))
	}
	return strings.Join(parts, "  ")
}

func (m MapModel) renderBounds() string {
	if m.bounds.IsZero() {
		return SubtleStyle.Render("Bounds: none")
	}
	c := m.bounds.Center()
	return SubtleStyle.Render(fmt.Sprintf("Bounds: %s  centre %.6f,%.6f", m.bounds, c.Lon(), c.Lat()))
}

// renderPopup renders the popup of the selected feature.
func (m MapModel) renderPopup() string {
	f := m.list.SelectedItem()
	if f == nil {
		return SubtleStyle.Render(msgNoData)
	}

	var content strings.Builder
	content.WriteString(HeaderStyle.Render(m.display.label(*f)))
	content.WriteString("\n\n")
	for _, line := range features.Popup(*f, m.popup) {
		content.WriteString(LabelStyle.Render(line.Label + ": "))
		content.WriteString(ValueStyle.Render(line.Value))
		content.WriteString("\n")
	}
	content.WriteString(SubtleStyle.Render(fmt.Sprintf("%.6f, %.6f", f.Lon(), f.Lat())))
	content.WriteString("\n\n")
	content.WriteString(SubtleStyle.Render("Press ESC to return"))
	return BoxStyle.Render(content.String())
}
