package listview

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

// Check marks drawn in front of menu options.
const (
	CheckedMark   = "[x] "
	UncheckedMark = "[ ] "
	cursorMark    = "> "
	noCursorMark  = "  "
)

// Option is one menu entry. Key identifies it and Label is displayed.
type Option struct {
	Key   string
	Label string
}

// Menu is a titled list of options with a check mark per selected option.
type Menu struct {
	title   string
	list    *VirtualListModel[Option]
	checked func(key string) bool
}

// NewMenu creates a menu. checked is consulted at render time so the menu
// always reflects the caller's current selection.
func NewMenu(title string, options []Option, height int, checked func(key string) bool) *Menu {
	m := &Menu{title: title, checked: checked}
	m.list = NewVirtualListModel(options, height, 0, m.render)
	return m
}

func (m *Menu) render(opt Option, selected bool) string {
	cursor := noCursorMark
	if selected {
		cursor = cursorMark
	}
	mark := UncheckedMark
	if m.checked != nil && m.checked(opt.Key) {
		mark = CheckedMark
	}
	return cursor + mark + opt.Label
}

// Title returns the menu title.
func (m *Menu) Title() string {
	return m.title
}

// Update forwards navigation keys to the list.
func (m *Menu) Update(msg tea.Msg) bool {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return false
	}
	return m.list.HandleKey(keyMsg)
}

// Current returns the option under the cursor.
func (m *Menu) Current() (Option, bool) {
	opt := m.list.SelectedItem()
	if opt == nil {
		return Option{}, false
	}
	return *opt, true
}

// CheckedCount returns how many options are checked.
func (m *Menu) CheckedCount() int {
	if m.checked == nil {
		return 0
	}
	n := 0
	for _, opt := range m.list.Items() {
		if m.checked(opt.Key) {
			n++
		}
	}
	return n
}

// View renders the title and the visible options.
func (m *Menu) View() string {
	var b strings.Builder
	b.WriteString(m.title)
	if body := m.list.View(); body != "" {
		b.WriteByte('\n')
		b.WriteString(body)
	}
	return b.String()
}
