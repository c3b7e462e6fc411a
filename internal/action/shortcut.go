package action

import (
	"fmt"
	"sort"
	"strings"
)

// shortcuts maps shortcut names to their primitive token sequences.
// Expansion happens once, at program store construction time; the
// execution engine only ever sees primitive tokens.
var shortcuts = map[string]Program{
	"copy":      chord(KeyLeftCtrl, KeyC),
	"cut":       chord(KeyLeftCtrl, KeyX),
	"paste":     chord(KeyLeftCtrl, KeyV),
	"undo":      chord(KeyLeftCtrl, KeyZ),
	"redo":      chord(KeyLeftCtrl, KeyY),
	"selectall": chord(KeyLeftCtrl, KeyA),
	"save":      chord(KeyLeftCtrl, KeyS),
	"find":      chord(KeyLeftCtrl, KeyF),
	"newtab":    chord(KeyLeftCtrl, KeyT),
	"closetab":  chord(KeyLeftCtrl, KeyW),
	"alttab":    chord(KeyLeftAlt, KeyTab),
	"lock":      chord(KeyLeftMeta, KeyL),
	"playpause": {KeyPress(KeyPlayPause, true)},
	"micmute":   {KeyPress(KeyMicMute, true)},
	"mute":      {KeyPress(KeyMute, true)},
}

// chord builds the token sequence for a modifier+key shortcut: hold
// the modifier, tap the key, release the modifier.
func chord(mod, key Key) Program {
	return Program{
		KeyPress(mod, false),
		KeyPress(key, true),
		KeyRelease(mod),
	}
}

// ExpandShortcut resolves a shortcut name ("Copy", "AltTab", ...) into
// its primitive token sequence. Names are matched case-insensitively.
func ExpandShortcut(name string) (Program, error) {
	p, ok := shortcuts[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownShortcut, name)
	}
	return p.Clone(), nil
}

// ShortcutNames returns the sorted list of known shortcut names, for
// error messages and documentation.
func ShortcutNames() []string {
	names := make([]string, 0, len(shortcuts))
	for name := range shortcuts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
