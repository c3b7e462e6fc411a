package action

import (
	"fmt"
	"strings"
)

// Key identifies a keyboard key by its Linux input event code.
// The zero value is not a valid key.
type Key uint16

// Key codes from the Linux input-event-codes table. These match the
// constants the uinput backend expects, so no translation layer is
// needed between configuration and injection.
const (
	KeyEsc        Key = 1
	Key1          Key = 2
	Key2          Key = 3
	Key3          Key = 4
	Key4          Key = 5
	Key5          Key = 6
	Key6          Key = 7
	Key7          Key = 8
	Key8          Key = 9
	Key9          Key = 10
	Key0          Key = 11
	KeyMinus      Key = 12
	KeyEqual      Key = 13
	KeyBackspace  Key = 14
	KeyTab        Key = 15
	KeyQ          Key = 16
	KeyW          Key = 17
	KeyE          Key = 18
	KeyR          Key = 19
	KeyT          Key = 20
	KeyY          Key = 21
	KeyU          Key = 22
	KeyI          Key = 23
	KeyO          Key = 24
	KeyP          Key = 25
	KeyLeftBrace  Key = 26
	KeyRightBrace Key = 27
	KeyEnter      Key = 28
	KeyLeftCtrl   Key = 29
	KeyA          Key = 30
	KeyS          Key = 31
	KeyD          Key = 32
	KeyF          Key = 33
	KeyG          Key = 34
	KeyH          Key = 35
	KeyJ          Key = 36
	KeyK          Key = 37
	KeyL          Key = 38
	KeySemicolon  Key = 39
	KeyApostrophe Key = 40
	KeyGrave      Key = 41
	KeyLeftShift  Key = 42
	KeyBackslash  Key = 43
	KeyZ          Key = 44
	KeyX          Key = 45
	KeyC          Key = 46
	KeyV          Key = 47
	KeyB          Key = 48
	KeyN          Key = 49
	KeyM          Key = 50
	KeyComma      Key = 51
	KeyDot        Key = 52
	KeySlash      Key = 53
	KeyRightShift Key = 54
	KeyLeftAlt    Key = 56
	KeySpace      Key = 57
	KeyCapsLock   Key = 58
	KeyF1         Key = 59
	KeyF2         Key = 60
	KeyF3         Key = 61
	KeyF4         Key = 62
	KeyF5         Key = 63
	KeyF6         Key = 64
	KeyF7         Key = 65
	KeyF8         Key = 66
	KeyF9         Key = 67
	KeyF10        Key = 68
	KeyF11        Key = 87
	KeyF12        Key = 88
	KeyRightCtrl  Key = 97
	KeyRightAlt   Key = 100
	KeyHome       Key = 102
	KeyUp         Key = 103
	KeyPageUp     Key = 104
	KeyLeft       Key = 105
	KeyRight      Key = 106
	KeyEnd        Key = 107
	KeyDown       Key = 108
	KeyPageDown   Key = 109
	KeyInsert     Key = 110
	KeyDelete     Key = 111
	KeyMute       Key = 113
	KeyVolumeDown Key = 114
	KeyVolumeUp   Key = 115
	KeyLeftMeta   Key = 125
	KeyRightMeta  Key = 126
	KeyNextSong   Key = 163
	KeyPlayPause  Key = 164
	KeyPrevSong   Key = 165
	KeyMicMute    Key = 248
)

// keyNames maps canonical key names to codes. Lookups are
// case-insensitive; see ParseKey for accepted aliases.
var keyNames = map[string]Key{
	"esc": KeyEsc, "1": Key1, "2": Key2, "3": Key3, "4": Key4,
	"5": Key5, "6": Key6, "7": Key7, "8": Key8, "9": Key9, "0": Key0,
	"minus": KeyMinus, "equal": KeyEqual, "backspace": KeyBackspace,
	"tab": KeyTab, "q": KeyQ, "w": KeyW, "e": KeyE, "r": KeyR, "t": KeyT,
	"y": KeyY, "u": KeyU, "i": KeyI, "o": KeyO, "p": KeyP,
	"leftbrace": KeyLeftBrace, "rightbrace": KeyRightBrace,
	"enter": KeyEnter, "leftctrl": KeyLeftCtrl,
	"a": KeyA, "s": KeyS, "d": KeyD, "f": KeyF, "g": KeyG, "h": KeyH,
	"j": KeyJ, "k": KeyK, "l": KeyL,
	"semicolon": KeySemicolon, "apostrophe": KeyApostrophe,
	"grave": KeyGrave, "leftshift": KeyLeftShift, "backslash": KeyBackslash,
	"z": KeyZ, "x": KeyX, "c": KeyC, "v": KeyV, "b": KeyB, "n": KeyN,
	"m": KeyM, "comma": KeyComma, "dot": KeyDot, "slash": KeySlash,
	"rightshift": KeyRightShift, "leftalt": KeyLeftAlt, "space": KeySpace,
	"capslock": KeyCapsLock,
	"f1":       KeyF1, "f2": KeyF2, "f3": KeyF3, "f4": KeyF4, "f5": KeyF5,
	"f6": KeyF6, "f7": KeyF7, "f8": KeyF8, "f9": KeyF9, "f10": KeyF10,
	"f11": KeyF11, "f12": KeyF12,
	"rightctrl": KeyRightCtrl, "rightalt": KeyRightAlt,
	"home": KeyHome, "up": KeyUp, "pageup": KeyPageUp, "left": KeyLeft,
	"right": KeyRight, "end": KeyEnd, "down": KeyDown,
	"pagedown": KeyPageDown, "insert": KeyInsert, "delete": KeyDelete,
	"mute": KeyMute, "volumedown": KeyVolumeDown, "volumeup": KeyVolumeUp,
	"leftmeta": KeyLeftMeta, "rightmeta": KeyRightMeta,
	"nextsong": KeyNextSong, "playpause": KeyPlayPause,
	"prevsong": KeyPrevSong, "micmute": KeyMicMute,
}

// keyAliases maps convenience names to canonical ones.
var keyAliases = map[string]string{
	"escape": "esc",
	"return": "enter",
	"ctrl":   "leftctrl",
	"shift":  "leftshift",
	"alt":    "leftalt",
	"meta":   "leftmeta",
	"super":  "leftmeta",
	"win":    "leftmeta",
	"del":    "delete",
	"ins":    "insert",
	"pgup":   "pageup",
	"pgdn":   "pagedown",
}

// codeNames is the reverse of keyNames, built once at init for String().
var codeNames = func() map[Key]string {
	m := make(map[Key]string, len(keyNames))
	for name, code := range keyNames {
		if _, ok := m[code]; !ok {
			m[code] = name
		}
	}
	return m
}()

// ParseKey resolves a key name from configuration into a Key.
// Names are matched case-insensitively: "A", "F5", "LeftCtrl",
// "VolumeUp". A handful of aliases are accepted ("Ctrl", "Esc",
// "Super"). Unknown names are configuration errors.
func ParseKey(name string) (Key, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	if n == "" {
		return 0, fmt.Errorf("%w: empty key name", ErrUnknownKey)
	}
	if alias, ok := keyAliases[n]; ok {
		n = alias
	}
	k, ok := keyNames[n]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownKey, name)
	}
	return k, nil
}

// String returns the canonical lower-case name for the key, or a
// numeric form for codes outside the name table.
func (k Key) String() string {
	if name, ok := codeNames[k]; ok {
		return name
	}
	return fmt.Sprintf("key(%d)", uint16(k))
}

// Code returns the Linux input event code for the key.
func (k Key) Code() int {
	return int(k)
}
