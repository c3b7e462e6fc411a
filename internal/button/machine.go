package button

import "time"

// State is the current position of a button in its press cycle.
type State uint8

const (
	// StateIdle means no press cycle is in progress.
	StateIdle State = iota

	// StatePressed means a raw down was seen and the hold threshold
	// has not elapsed yet.
	StatePressed

	// StateHeld means the button stayed down past its threshold.
	StateHeld

	// StateReleasing is the transient state entered on raw up; the
	// machine returns to idle as soon as the event is emitted.
	StateReleasing
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePressed:
		return "pressed"
	case StateHeld:
		return "held"
	case StateReleasing:
		return "releasing"
	default:
		return "unknown"
	}
}

// Machine is the per-button state machine. It is pure over the
// timestamps it is fed: all transitions are driven by Feed and
// ExpireHold, never by the wall clock directly, which keeps the
// machine deterministic under test.
//
// Machine is not safe for concurrent use; the scheduler is its sole
// owner.
type Machine struct {
	id        ID
	threshold time.Duration

	state     State
	pressedAt time.Time
	holdAt    time.Time
	holdArmed bool
}

// NewMachine creates a state machine for one button.
//
// A zero threshold means Held fires on the first deadline check after
// the press; with a device that only reports discrete edges this makes
// Held effectively simultaneous with Pressed. That is a configuration
// caveat, not an error.
func NewMachine(id ID, threshold time.Duration) *Machine {
	return &Machine{id: id, threshold: threshold, state: StateIdle}
}

// SetThreshold changes the hold threshold for presses that begin after
// the call. A press already in progress keeps the deadline it armed.
func (m *Machine) SetThreshold(d time.Duration) {
	m.threshold = d
}

// ID returns the button this machine tracks.
func (m *Machine) ID() ID { return m.id }

// State returns the current state.
func (m *Machine) State() State { return m.state }

// PressedAt returns the timestamp of the last raw down transition.
func (m *Machine) PressedAt() time.Time { return m.pressedAt }

// HoldDeadline returns the armed hold-threshold deadline, if any.
func (m *Machine) HoldDeadline() (time.Time, bool) {
	if !m.holdArmed {
		return time.Time{}, false
	}
	return m.holdAt, true
}

// Feed consumes one raw transition with its timestamp and returns the
// semantic events it produces, in order.
//
// A raw down while not idle is treated as bounce and ignored; the
// device is assumed to report clean edges, so no further software
// debounce is applied.
func (m *Machine) Feed(pressed bool, now time.Time) []Event {
	if pressed {
		if m.state != StateIdle {
			return nil
		}
		m.state = StatePressed
		m.pressedAt = now
		m.holdAt = now.Add(m.threshold)
		m.holdArmed = true
		return []Event{{Button: m.id, Kind: Pressed, Time: now}}
	}

	switch m.state {
	case StatePressed, StateHeld:
		m.state = StateReleasing
		m.holdArmed = false
		ev := Event{Button: m.id, Kind: Releasing, Time: now}
		// Releasing is transient: back to idle once emitted.
		m.state = StateIdle
		return []Event{ev}
	default:
		return nil
	}
}

// ExpireHold resolves an elapsed hold deadline. It returns the Held
// event if the machine is still pressed and the threshold has in fact
// passed; a release that arrived before the deadline fired has already
// disarmed it.
func (m *Machine) ExpireHold(now time.Time) (Event, bool) {
	if m.state != StatePressed || !m.holdArmed {
		return Event{}, false
	}
	if now.Before(m.holdAt) {
		return Event{}, false
	}
	m.state = StateHeld
	m.holdArmed = false
	return Event{Button: m.id, Kind: Held, Time: now}, true
}
