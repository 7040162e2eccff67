package tui

import "github.com/charmbracelet/lipgloss"

// Layout defaults.
const (
	defaultWidth  = 100
	defaultHeight = 24
	minHeight     = 3
	borderPadding = 2

	// chromeHeight is the number of lines around the table: header, range
	// label, filter summary, status bar and one spare.
	chromeHeight = 6

	minColumnWidth = 6
	maxColumnWidth = 32
)

// Palette.
//
//nolint:gochecknoglobals // Shared lipgloss styles.
var (
	ColorPrimary = lipgloss.Color("39")
	ColorSubtle  = lipgloss.Color("245")
	ColorWarning = lipgloss.Color("214")
	ColorError   = lipgloss.Color("196")
	ColorOK      = lipgloss.Color("42")
)

// Text styles.
//
//nolint:gochecknoglobals // Shared lipgloss styles.
var (
	HeaderStyle   = lipgloss.NewStyle().Bold(true).Foreground(ColorPrimary)
	LabelStyle    = lipgloss.NewStyle().Bold(true)
	ValueStyle    = lipgloss.NewStyle()
	SubtleStyle   = lipgloss.NewStyle().Foreground(ColorSubtle)
	InfoStyle     = lipgloss.NewStyle().Foreground(ColorOK)
	WarningStyle  = lipgloss.NewStyle().Foreground(ColorWarning)
	CriticalStyle = lipgloss.NewStyle().Bold(true).Foreground(ColorError)

	BoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorPrimary).
			Padding(0, 1)

	TableHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				BorderStyle(lipgloss.NormalBorder()).
				BorderBottom(true).
				BorderForeground(ColorSubtle)
	TableSelectedStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("229")).
				Background(lipgloss.Color("57"))
)
