// Package button turns raw per-button transitions plus wall-clock
// time into semantic events (pressed, held beyond threshold,
// releasing).
package button

import (
	"fmt"
	"strings"
	"time"
)

// ID identifies a physical button by its zero-based index.
type ID int

// String returns the configuration name for the button ("button_0").
func (id ID) String() string {
	return fmt.Sprintf("button_%d", int(id))
}

// ParseID resolves a configuration button name ("button_0") into an ID.
func ParseID(name string) (ID, error) {
	const prefix = "button_"
	if !strings.HasPrefix(name, prefix) {
		return 0, fmt.Errorf("invalid button name %q", name)
	}
	var n int
	if _, err := fmt.Sscanf(name[len(prefix):], "%d", &n); err != nil || n < 0 {
		return 0, fmt.Errorf("invalid button name %q", name)
	}
	return ID(n), nil
}

// Kind is the semantic event kind derived from raw transitions and
// elapsed time.
type Kind uint8

const (
	// Pressed fires on the raw down transition.
	Pressed Kind = iota + 1

	// Held fires when the button stays down past its hold threshold.
	Held

	// Releasing fires on the raw up transition.
	Releasing
)

// String returns the configuration name for the event kind.
func (k Kind) String() string {
	switch k {
	case Pressed:
		return "PRESSED"
	case Held:
		return "HELD"
	case Releasing:
		return "RELEASING"
	default:
		return "UNKNOWN"
	}
}

// ParseKind resolves a configuration event kind name.
func ParseKind(name string) (Kind, error) {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "PRESSED":
		return Pressed, nil
	case "HELD":
		return Held, nil
	case "RELEASING":
		return Releasing, nil
	default:
		return 0, fmt.Errorf("unknown event kind %q", name)
	}
}

// Event is one semantic transition for one button.
type Event struct {
	Button ID
	Kind   Kind
	Time   time.Time
}

// String returns a compact description used in logs.
func (e Event) String() string {
	return fmt.Sprintf("%s %s", e.Button, e.Kind)
}
