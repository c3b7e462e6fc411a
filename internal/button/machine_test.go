package button

import (
	"testing"
	"time"
)

var t0 = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func at(d time.Duration) time.Time { return t0.Add(d) }

func kinds(evs []Event) []Kind {
	out := make([]Kind, len(evs))
	for i, ev := range evs {
		out[i] = ev.Kind
	}
	return out
}

func TestQuickTapSkipsHeld(t *testing.T) {
	// threshold 500ms, down at t=0, up at t=200ms: Pressed then
	// Releasing, never Held.
	m := NewMachine(0, 500*time.Millisecond)

	evs := m.Feed(true, at(0))
	if len(evs) != 1 || evs[0].Kind != Pressed {
		t.Fatalf("down events = %v, want [PRESSED]", kinds(evs))
	}
	if _, armed := m.HoldDeadline(); !armed {
		t.Fatal("hold deadline not armed after press")
	}

	evs = m.Feed(false, at(200*time.Millisecond))
	if len(evs) != 1 || evs[0].Kind != Releasing {
		t.Fatalf("up events = %v, want [RELEASING]", kinds(evs))
	}
	if _, armed := m.HoldDeadline(); armed {
		t.Fatal("hold deadline still armed after release")
	}
	if m.State() != StateIdle {
		t.Fatalf("state = %v, want idle", m.State())
	}

	// The stale deadline must not fire after the release.
	if _, ok := m.ExpireHold(at(500 * time.Millisecond)); ok {
		t.Fatal("ExpireHold fired after release")
	}
}

func TestLongPressEmitsHeldOnce(t *testing.T) {
	// threshold 500ms, down at t=0, up at t=700ms: Pressed, Held at
	// 500ms, Releasing at 700ms.
	m := NewMachine(1, 500*time.Millisecond)

	evs := m.Feed(true, at(0))
	if len(evs) != 1 || evs[0].Kind != Pressed {
		t.Fatalf("down events = %v, want [PRESSED]", kinds(evs))
	}

	deadline, armed := m.HoldDeadline()
	if !armed || !deadline.Equal(at(500*time.Millisecond)) {
		t.Fatalf("deadline = %v armed=%v, want %v", deadline, armed, at(500*time.Millisecond))
	}

	ev, ok := m.ExpireHold(at(500 * time.Millisecond))
	if !ok || ev.Kind != Held {
		t.Fatalf("ExpireHold = %v %v, want HELD", ev, ok)
	}
	if m.State() != StateHeld {
		t.Fatalf("state = %v, want held", m.State())
	}

	// Held fires exactly once.
	if _, ok := m.ExpireHold(at(600 * time.Millisecond)); ok {
		t.Fatal("ExpireHold fired twice")
	}

	evs = m.Feed(false, at(700*time.Millisecond))
	if len(evs) != 1 || evs[0].Kind != Releasing {
		t.Fatalf("up events = %v, want [RELEASING]", kinds(evs))
	}
}

func TestExpireBeforeThresholdIsIgnored(t *testing.T) {
	m := NewMachine(0, 500*time.Millisecond)
	m.Feed(true, at(0))

	if _, ok := m.ExpireHold(at(300 * time.Millisecond)); ok {
		t.Fatal("ExpireHold fired before the threshold elapsed")
	}
	if m.State() != StatePressed {
		t.Fatalf("state = %v, want pressed", m.State())
	}
}

func TestDuplicateDownIgnored(t *testing.T) {
	m := NewMachine(0, 500*time.Millisecond)
	m.Feed(true, at(0))

	// Bounce: a second down must not restart the press cycle.
	if evs := m.Feed(true, at(50*time.Millisecond)); len(evs) != 0 {
		t.Fatalf("duplicate down events = %v, want none", kinds(evs))
	}
	deadline, _ := m.HoldDeadline()
	if !deadline.Equal(at(500 * time.Millisecond)) {
		t.Fatalf("deadline moved to %v after bounce", deadline)
	}
}

func TestUpWhileIdleIgnored(t *testing.T) {
	m := NewMachine(0, 500*time.Millisecond)
	if evs := m.Feed(false, at(0)); len(evs) != 0 {
		t.Fatalf("idle up events = %v, want none", kinds(evs))
	}
}

func TestEventOrderingInvariants(t *testing.T) {
	// Over an arbitrary transition sequence: never Held without a
	// preceding Pressed in the same cycle, never two Pressed without
	// an intervening Releasing.
	type step struct {
		at      time.Duration
		pressed bool
		expire  bool
	}
	steps := []step{
		{at: 0, pressed: true},
		{at: 100 * time.Millisecond, pressed: true}, // bounce
		{at: 600 * time.Millisecond, expire: true},
		{at: 700 * time.Millisecond, pressed: false},
		{at: 800 * time.Millisecond, pressed: true},
		{at: 900 * time.Millisecond, pressed: false},
		{at: time.Second, pressed: false}, // duplicate up
		{at: 1100 * time.Millisecond, expire: true},
	}

	m := NewMachine(2, 500*time.Millisecond)
	var seen []Kind
	for _, s := range steps {
		if s.expire {
			if ev, ok := m.ExpireHold(at(s.at)); ok {
				seen = append(seen, ev.Kind)
			}
			continue
		}
		for _, ev := range m.Feed(s.pressed, at(s.at)) {
			seen = append(seen, ev.Kind)
		}
	}

	want := []Kind{Pressed, Held, Releasing, Pressed, Releasing}
	if len(seen) != len(want) {
		t.Fatalf("events = %v, want %v", seen, want)
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Fatalf("events = %v, want %v", seen, want)
		}
	}
}

func TestParseID(t *testing.T) {
	tests := []struct {
		name    string
		want    ID
		wantErr bool
	}{
		{"button_0", 0, false},
		{"button_2", 2, false},
		{"button_10", 10, false},
		{"pedal_0", 0, true},
		{"button_", 0, true},
		{"button_-1", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseID(tt.name)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseID(%q) error = %v, wantErr %v", tt.name, err, tt.wantErr)
			continue
		}
		if err == nil && got != tt.want {
			t.Errorf("ParseID(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestParseKind(t *testing.T) {
	tests := []struct {
		name    string
		want    Kind
		wantErr bool
	}{
		{"PRESSED", Pressed, false},
		{"held", Held, false},
		{"Releasing", Releasing, false},
		{"CLICKED", 0, true},
		{"", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseKind(tt.name)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseKind(%q) error = %v, wantErr %v", tt.name, err, tt.wantErr)
			continue
		}
		if err == nil && got != tt.want {
			t.Errorf("ParseKind(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}
