package inject

import "github.com/dshills/pedald/internal/action"

// stroke is one key tap, optionally shifted, used for text typing.
type stroke struct {
	key   action.Key
	shift bool
}

// runeStrokes maps typeable runes to key strokes on a US layout.
var runeStrokes = map[rune]stroke{
	'a': {action.KeyA, false}, 'A': {action.KeyA, true},
	'b': {action.KeyB, false}, 'B': {action.KeyB, true},
	'c': {action.KeyC, false}, 'C': {action.KeyC, true},
	'd': {action.KeyD, false}, 'D': {action.KeyD, true},
	'e': {action.KeyE, false}, 'E': {action.KeyE, true},
	'f': {action.KeyF, false}, 'F': {action.KeyF, true},
	'g': {action.KeyG, false}, 'G': {action.KeyG, true},
	'h': {action.KeyH, false}, 'H': {action.KeyH, true},
	'i': {action.KeyI, false}, 'I': {action.KeyI, true},
	'j': {action.KeyJ, false}, 'J': {action.KeyJ, true},
	'k': {action.KeyK, false}, 'K': {action.KeyK, true},
	'l': {action.KeyL, false}, 'L': {action.KeyL, true},
	'm': {action.KeyM, false}, 'M': {action.KeyM, true},
	'n': {action.KeyN, false}, 'N': {action.KeyN, true},
	'o': {action.KeyO, false}, 'O': {action.KeyO, true},
	'p': {action.KeyP, false}, 'P': {action.KeyP, true},
	'q': {action.KeyQ, false}, 'Q': {action.KeyQ, true},
	'r': {action.KeyR, false}, 'R': {action.KeyR, true},
	's': {action.KeyS, false}, 'S': {action.KeyS, true},
	't': {action.KeyT, false}, 'T': {action.KeyT, true},
	'u': {action.KeyU, false}, 'U': {action.KeyU, true},
	'v': {action.KeyV, false}, 'V': {action.KeyV, true},
	'w': {action.KeyW, false}, 'W': {action.KeyW, true},
	'x': {action.KeyX, false}, 'X': {action.KeyX, true},
	'y': {action.KeyY, false}, 'Y': {action.KeyY, true},
	'z': {action.KeyZ, false}, 'Z': {action.KeyZ, true},

	'1': {action.Key1, false}, '!': {action.Key1, true},
	'2': {action.Key2, false}, '@': {action.Key2, true},
	'3': {action.Key3, false}, '#': {action.Key3, true},
	'4': {action.Key4, false}, '$': {action.Key4, true},
	'5': {action.Key5, false}, '%': {action.Key5, true},
	'6': {action.Key6, false}, '^': {action.Key6, true},
	'7': {action.Key7, false}, '&': {action.Key7, true},
	'8': {action.Key8, false}, '*': {action.Key8, true},
	'9': {action.Key9, false}, '(': {action.Key9, true},
	'0': {action.Key0, false}, ')': {action.Key0, true},

	'-':  {action.KeyMinus, false},
	'_':  {action.KeyMinus, true},
	'=':  {action.KeyEqual, false},
	'+':  {action.KeyEqual, true},
	'[':  {action.KeyLeftBrace, false},
	'{':  {action.KeyLeftBrace, true},
	']':  {action.KeyRightBrace, false},
	'}':  {action.KeyRightBrace, true},
	';':  {action.KeySemicolon, false},
	':':  {action.KeySemicolon, true},
	'\'': {action.KeyApostrophe, false},
	'"':  {action.KeyApostrophe, true},
	'`':  {action.KeyGrave, false},
	'~':  {action.KeyGrave, true},
	'\\': {action.KeyBackslash, false},
	'|':  {action.KeyBackslash, true},
	',':  {action.KeyComma, false},
	'<':  {action.KeyComma, true},
	'.':  {action.KeyDot, false},
	'>':  {action.KeyDot, true},
	'/':  {action.KeySlash, false},
	'?':  {action.KeySlash, true},
	' ':  {action.KeySpace, false},
	'\t': {action.KeyTab, false},
	'\n': {action.KeyEnter, false},
}

// strokeFor returns the key stroke for a rune, if it is typeable.
func strokeFor(r rune) (stroke, bool) {
	s, ok := runeStrokes[r]
	return s, ok
}
