package ui

// KeyMode selects a keybinding set.
type KeyMode string

const (
	// KeyModeVim uses single-key shortcuts (h/l paging, / filter).
	KeyModeVim KeyMode = "vim"
	// KeyModeEmacs uses ctrl-modified shortcuts.
	KeyModeEmacs KeyMode = "emacs"
)

// DefaultKeyMode is used when no mode is configured.
const DefaultKeyMode = KeyModeVim

// ValidKeyModes lists the accepted key modes.
var ValidKeyModes = []KeyMode{KeyModeVim, KeyModeEmacs}

// IsValidKeyMode reports whether mode names a known key mode.
func IsValidKeyMode(mode string) bool {
	for _, m := range ValidKeyModes {
		if string(m) == mode {
			return true
		}
	}
	return false
}

// Action is what a key does while no input is being edited.
type Action string

const (
	ActionNone        Action = ""
	ActionPrevious    Action = "previous"
	ActionNext        Action = "next"
	ActionFilter      Action = "filter"
	ActionRowsPerPage Action = "rows_per_page"
	ActionPage        Action = "page"
	ActionClearFilter Action = "clear_filter"
	ActionHelp        Action = "help"
	ActionQuit        Action = "quit"
)

var commonBindings = map[string]Action{
	"left":   ActionPrevious,
	"right":  ActionNext,
	"pgup":   ActionPrevious,
	"pgdown": ActionNext,
	"ctrl+c": ActionQuit,
	"f1":     ActionHelp,
}

// VimKeyBindings maps keys to actions in vim mode.
var VimKeyBindings = map[string]Action{
	"h": ActionPrevious,
	"l": ActionNext,
	"/": ActionFilter,
	"r": ActionRowsPerPage,
	"g": ActionPage,
	"x": ActionClearFilter,
	"?": ActionHelp,
	"q": ActionQuit,
}

// EmacsKeyBindings maps keys to actions in emacs mode.
var EmacsKeyBindings = map[string]Action{
	"ctrl+b": ActionPrevious,
	"ctrl+f": ActionNext,
	"ctrl+s": ActionFilter,
	"ctrl+r": ActionRowsPerPage,
	"alt+g":  ActionPage,
	"ctrl+g": ActionClearFilter,
	"ctrl+q": ActionQuit,
}

// ActionForKey resolves key in mode. Digits are handled separately as
// column shortcuts.
func ActionForKey(mode KeyMode, key string) Action {
	if a, ok := commonBindings[key]; ok {
		return a
	}
	bindings := VimKeyBindings
	if mode == KeyModeEmacs {
		bindings = EmacsKeyBindings
	}
	return bindings[key]
}

// ColumnForKey maps "1".."9" to a 0-based column index.
func ColumnForKey(key string) (int, bool) {
	if len(key) != 1 || key[0] < '1' || key[0] > '9' {
		return 0, false
	}
	return int(key[0] - '1'), true
}
