package tui

import (
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// ViewState is the screen a model is showing.
type ViewState int

// View states.
const (
	ViewStateLoading ViewState = iota
	ViewStateList
	ViewStateDetail
	ViewStateError
	ViewStateQuitting
)

func (v ViewState) String() string {
	switch v {
	case ViewStateLoading:
		return "loading"
	case ViewStateList:
		return "list"
	case ViewStateDetail:
		return "detail"
	case ViewStateError:
		return "error"
	case ViewStateQuitting:
		return "quitting"
	default:
		return "unknown"
	}
}

// overlay is the menu currently drawn over a view. At most one is open.
type overlay int

const (
	overlayNone overlay = iota
	overlayFilter
	overlayColumns
	overlaySearch
)

// LoadingState wraps the spinner shown while data is in flight.
type LoadingState struct {
	spinner spinner.Model
}

// NewLoadingState creates a dot spinner.
func NewLoadingState() *LoadingState {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = InfoStyle
	return &LoadingState{spinner: s}
}

// Init starts the spinner.
func (l *LoadingState) Init() tea.Cmd {
	return l.spinner.Tick
}

// Update advances the spinner on its tick messages.
func (l *LoadingState) Update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	l.spinner, cmd = l.spinner.Update(msg)
	return cmd
}

// View renders the spinner with a label.
func (l *LoadingState) View() string {
	return l.spinner.View() + " Loading..."
}

func newTextInput() textinput.Model {
	ti := textinput.New()
	ti.Placeholder = "search"
	ti.CharLimit = 128
	ti.Width = 40
	return ti
}
