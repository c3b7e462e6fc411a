// Package action defines the atomic instructions executed for button
// events: the token sum type, key and pointer identifiers, programs,
// and shortcut expansion.
package action

import (
	"errors"
	"fmt"
	"time"
)

// Parse errors for keys, pointer buttons and shortcuts.
var (
	ErrUnknownKey      = errors.New("unknown key name")
	ErrUnknownPointer  = errors.New("unknown pointer button")
	ErrUnknownShortcut = errors.New("unknown shortcut")
)

// Op identifies the variant of a Token. Exactly one Op per token;
// the remaining Token fields are meaningful only for the ops that
// declare them.
type Op uint8

const (
	// OpKeyPress presses Key. If AutoRelease is set the release is
	// injected immediately afterwards and the key is never tracked
	// as held.
	OpKeyPress Op = iota + 1

	// OpKeyRelease releases Key if it is currently tracked as held.
	OpKeyRelease

	// OpText types Text through the injector's text primitive.
	OpText

	// OpSleep suspends the program for Duration without touching
	// input state.
	OpSleep

	// OpReleaseAll releases every key the engine tracks as held for
	// this button.
	OpReleaseAll

	// OpReleaseAllAfter schedules an OpReleaseAll to run after
	// Duration without blocking the rest of the program.
	OpReleaseAllAfter

	// OpClick clicks Pointer through the injector's pointer
	// primitive.
	OpClick
)

// String returns the op name.
func (o Op) String() string {
	switch o {
	case OpKeyPress:
		return "key-press"
	case OpKeyRelease:
		return "key-release"
	case OpText:
		return "text"
	case OpSleep:
		return "sleep"
	case OpReleaseAll:
		return "release-all"
	case OpReleaseAllAfter:
		return "release-all-after"
	case OpClick:
		return "click"
	default:
		return "unknown"
	}
}

// Token is one atomic instruction in a program.
type Token struct {
	Op          Op
	Key         Key
	AutoRelease bool
	Text        string
	Duration    time.Duration
	Pointer     PointerButton
}

// KeyPress returns a key-press token.
func KeyPress(k Key, autoRelease bool) Token {
	return Token{Op: OpKeyPress, Key: k, AutoRelease: autoRelease}
}

// KeyRelease returns a key-release token.
func KeyRelease(k Key) Token {
	return Token{Op: OpKeyRelease, Key: k}
}

// Text returns a text-injection token.
func Text(s string) Token {
	return Token{Op: OpText, Text: s}
}

// Sleep returns a sleep token.
func Sleep(d time.Duration) Token {
	return Token{Op: OpSleep, Duration: d}
}

// ReleaseAll returns a release-all token.
func ReleaseAll() Token {
	return Token{Op: OpReleaseAll}
}

// ReleaseAllAfter returns a deferred release-all token.
func ReleaseAllAfter(d time.Duration) Token {
	return Token{Op: OpReleaseAllAfter, Duration: d}
}

// Click returns a pointer-click token.
func Click(b PointerButton) Token {
	return Token{Op: OpClick, Pointer: b}
}

// String returns a compact description used in logs.
func (t Token) String() string {
	switch t.Op {
	case OpKeyPress:
		if t.AutoRelease {
			return fmt.Sprintf("key-press(%s, auto)", t.Key)
		}
		return fmt.Sprintf("key-press(%s)", t.Key)
	case OpKeyRelease:
		return fmt.Sprintf("key-release(%s)", t.Key)
	case OpText:
		return fmt.Sprintf("text(%q)", t.Text)
	case OpSleep:
		return fmt.Sprintf("sleep(%s)", t.Duration)
	case OpReleaseAll:
		return "release-all"
	case OpReleaseAllAfter:
		return fmt.Sprintf("release-all-after(%s)", t.Duration)
	case OpClick:
		return fmt.Sprintf("click(%s)", t.Pointer)
	default:
		return "unknown"
	}
}

// PointerButton identifies a pointer button for click tokens.
type PointerButton uint8

const (
	PointerLeft PointerButton = iota + 1
	PointerRight
	PointerMiddle
)

// String returns the pointer button name.
func (b PointerButton) String() string {
	switch b {
	case PointerLeft:
		return "left"
	case PointerRight:
		return "right"
	case PointerMiddle:
		return "middle"
	default:
		return "unknown"
	}
}

// ParsePointerButton resolves a configured pointer button name.
func ParsePointerButton(name string) (PointerButton, error) {
	switch name {
	case "left", "Left":
		return PointerLeft, nil
	case "right", "Right":
		return PointerRight, nil
	case "middle", "Middle":
		return PointerMiddle, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownPointer, name)
	}
}
