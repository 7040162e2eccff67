package tui

// Key bindings shared by the grid and map views.
const (
	keyQuit     = "q"
	keyCtrlC    = "ctrl+c"
	keyEnter    = "enter"
	keyEsc      = "esc"
	keySpace    = " "
	keyTab      = "tab"
	keySlash    = "/"
	keyRetry    = "r"
	keyNext     = "n"
	keyPrev     = "p"
	keyFirst    = "<"
	keyLast     = ">"
	keySort     = "s"
	keyFilter   = "f"
	keyClear    = "x"
	keyColumns  = "c"
	keyLeft     = "left"
	keyRight    = "right"
	keyColLeft  = "h"
	keyColRight = "l"
	keyLabels   = "L"
	keyFit      = "z"
)
