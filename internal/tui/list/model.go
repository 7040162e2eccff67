package listview

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

// RenderFunc renders an item. selected reports whether the cursor is on it.
type RenderFunc[T any] func(item T, selected bool) string

// VirtualListModel is a cursor-driven list that renders only its viewport.
type VirtualListModel[T any] struct {
	items      []T
	renderFunc RenderFunc[T]

	selected int

	// offset is the index of the first row in the viewport.
	offset int

	height int
	width  int
}

// NewVirtualListModel creates a list over items showing height rows.
func NewVirtualListModel[T any](items []T, height, width int, renderFunc RenderFunc[T]) *VirtualListModel[T] {
	m := &VirtualListModel[T]{
		items:      items,
		renderFunc: renderFunc,
		height:     max(height, 1),
		width:      width,
	}
	m.scrollToSelection()
	return m
}

// Init implements tea.Model.
func (m *VirtualListModel[T]) Init() tea.Cmd {
	return nil
}

// Update moves the cursor on navigation keys.
func (m *VirtualListModel[T]) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		m.HandleKey(keyMsg)
	}
	return m, nil
}

// HandleKey applies a navigation key and reports whether it was consumed.
//
//nolint:exhaustive // Only navigation keys are handled.
func (m *VirtualListModel[T]) HandleKey(msg tea.KeyMsg) bool {
	if len(m.items) == 0 {
		return false
	}

	switch msg.Type {
	case tea.KeyUp:
		m.SetSelected(m.selected - 1)
	case tea.KeyDown:
		m.SetSelected(m.selected + 1)
	case tea.KeyPgUp:
		m.SetSelected(m.selected - m.height)
	case tea.KeyPgDown:
		m.SetSelected(m.selected + m.height)
	case tea.KeyHome:
		m.SetSelected(0)
	case tea.KeyEnd:
		m.SetSelected(len(m.items) - 1)
	case tea.KeyRunes:
		switch msg.String() {
		case "j":
			m.SetSelected(m.selected + 1)
		case "k":
			m.SetSelected(m.selected - 1)
		default:
			return false
		}
	default:
		return false
	}
	return true
}

// scrollToSelection moves the viewport the minimum distance that keeps the
// cursor visible.
func (m *VirtualListModel[T]) scrollToSelection() {
	if m.selected < m.offset {
		m.offset = m.selected
	}
	if m.selected >= m.offset+m.height {
		m.offset = m.selected - m.height + 1
	}
	maxOffset := max(len(m.items)-m.height, 0)
	m.offset = min(max(m.offset, 0), maxOffset)
}

// View renders the rows inside the viewport.
func (m *VirtualListModel[T]) View() string {
	if len(m.items) == 0 {
		return ""
	}

	var b strings.Builder
	for i := m.VisibleFrom(); i < m.VisibleTo(); i++ {
		if i > m.offset {
			b.WriteByte('\n')
		}
		b.WriteString(m.renderFunc(m.items[i], i == m.selected))
	}
	return b.String()
}

// SetItems replaces the items and keeps the cursor within bounds.
func (m *VirtualListModel[T]) SetItems(items []T) {
	m.items = items
	m.SetSelected(m.selected)
}

// Items returns the current items.
func (m *VirtualListModel[T]) Items() []T {
	return m.items
}

// ItemCount returns the number of items.
func (m *VirtualListModel[T]) ItemCount() int {
	return len(m.items)
}

// Selected returns the cursor index.
func (m *VirtualListModel[T]) Selected() int {
	return m.selected
}

// SetSelected moves the cursor to index, clamped to the item range.
func (m *VirtualListModel[T]) SetSelected(index int) {
	switch {
	case len(m.items) == 0, index < 0:
		m.selected = 0
	case index >= len(m.items):
		m.selected = len(m.items) - 1
	default:
		m.selected = index
	}
	m.scrollToSelection()
}

// SelectedItem returns the item under the cursor, or nil for an empty list.
func (m *VirtualListModel[T]) SelectedItem() *T {
	if m.selected < 0 || m.selected >= len(m.items) {
		return nil
	}
	return &m.items[m.selected]
}

// VisibleFrom returns the first rendered index (inclusive).
func (m *VirtualListModel[T]) VisibleFrom() int {
	return m.offset
}

// VisibleTo returns the last rendered index (exclusive).
func (m *VirtualListModel[T]) VisibleTo() int {
	return min(m.offset+m.height, len(m.items))
}

// SetSize resizes the viewport.
func (m *VirtualListModel[T]) SetSize(width, height int) {
	m.width = width
	m.height = max(height, 1)
	m.scrollToSelection()
}

// Height returns the viewport height.
func (m *VirtualListModel[T]) Height() int {
	return m.height
}

// Width returns the viewport width.
func (m *VirtualListModel[T]) Width() int {
	return m.width
}
