package action

import (
	"errors"
	"sort"
	"testing"
	"time"
)

func TestParseKey(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want Key
	}{
		{"canonical", "leftctrl", KeyLeftCtrl},
		{"alias ctrl", "ctrl", KeyLeftCtrl},
		{"alias esc", "esc", KeyEsc},
		{"alias super", "super", KeyLeftMeta},
		{"case insensitive", "LeftMeta", KeyLeftMeta},
		{"upper alias", "CTRL", KeyLeftCtrl},
		{"letter", "c", KeyC},
		{"function key", "f5", KeyF5},
		{"media key", "micmute", KeyMicMute},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseKey(tt.in)
			if err != nil {
				t.Fatalf("ParseKey(%q): %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("ParseKey(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseKeyUnknown(t *testing.T) {
	if _, err := ParseKey("nosuchkey"); !errors.Is(err, ErrUnknownKey) {
		t.Errorf("err = %v, want ErrUnknownKey", err)
	}
}

func TestKeyStringRoundTrip(t *testing.T) {
	for _, k := range []Key{KeyA, KeyLeftCtrl, KeyLeftMeta, KeyF5, KeySpace, KeyMicMute} {
		got, err := ParseKey(k.String())
		if err != nil {
			t.Errorf("ParseKey(%q): %v", k.String(), err)
			continue
		}
		if got != k {
			t.Errorf("round trip %v -> %q -> %v", k, k.String(), got)
		}
	}
}

func TestTokenString(t *testing.T) {
	tests := []struct {
		tok  Token
		want string
	}{
		{KeyPress(KeyC, true), "key-press(c, auto)"},
		{KeyPress(KeyLeftCtrl, false), "key-press(leftctrl)"},
		{KeyRelease(KeyLeftMeta), "key-release(leftmeta)"},
		{Text("hi"), `text("hi")`},
		{Sleep(250 * time.Millisecond), "sleep(250ms)"},
		{ReleaseAll(), "release-all"},
		{ReleaseAllAfter(time.Second), "release-all-after(1s)"},
		{Click(PointerMiddle), "click(middle)"},
	}

	for _, tt := range tests {
		if got := tt.tok.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}

func TestProgramHoldsKeys(t *testing.T) {
	tests := []struct {
		name string
		prog Program
		want bool
	}{
		{"empty", Program{}, false},
		{"auto release only", Program{KeyPress(KeyA, true)}, false},
		{"unbalanced press", Program{KeyPress(KeyLeftCtrl, false)}, true},
		{"balanced pair", Program{KeyPress(KeyLeftCtrl, false), KeyRelease(KeyLeftCtrl)}, false},
		{"cleaned by release-all", Program{KeyPress(KeyLeftCtrl, false), ReleaseAll()}, false},
		{"cleaned by deferred", Program{KeyPress(KeyLeftCtrl, false), ReleaseAllAfter(time.Second)}, false},
		{"press after cleanup", Program{ReleaseAll(), KeyPress(KeyLeftMeta, false)}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.prog.HoldsKeys(); got != tt.want {
				t.Errorf("HoldsKeys() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestProgramClone(t *testing.T) {
	p := Program{KeyPress(KeyA, true), ReleaseAll()}
	c := p.Clone()
	c[0] = Text("other")
	if p[0].Op != OpKeyPress {
		t.Error("Clone shares backing storage with the original")
	}
}

func TestExpandShortcutChord(t *testing.T) {
	prog, err := ExpandShortcut("copy")
	if err != nil {
		t.Fatalf("ExpandShortcut: %v", err)
	}
	want := Program{
		KeyPress(KeyLeftCtrl, false),
		KeyPress(KeyC, true),
		KeyRelease(KeyLeftCtrl),
	}
	if len(prog) != len(want) {
		t.Fatalf("expansion = %v, want %v", prog, want)
	}
	for i := range want {
		if prog[i] != want[i] {
			t.Fatalf("expansion = %v, want %v", prog, want)
		}
	}
	if prog.HoldsKeys() {
		t.Error("a shortcut must not leave keys held")
	}
}

func TestExpandShortcutCaseInsensitive(t *testing.T) {
	a, err := ExpandShortcut("MicMute")
	if err != nil {
		t.Fatalf("ExpandShortcut: %v", err)
	}
	b, err := ExpandShortcut("micmute")
	if err != nil {
		t.Fatalf("ExpandShortcut: %v", err)
	}
	if len(a) != len(b) {
		t.Errorf("case variants differ: %v vs %v", a, b)
	}
}

func TestExpandShortcutUnknown(t *testing.T) {
	if _, err := ExpandShortcut("frobnicate"); !errors.Is(err, ErrUnknownShortcut) {
		t.Errorf("err = %v, want ErrUnknownShortcut", err)
	}
}

func TestExpandShortcutReturnsCopy(t *testing.T) {
	a, _ := ExpandShortcut("paste")
	a[0] = Text("mutated")
	b, _ := ExpandShortcut("paste")
	if b[0].Op == OpText {
		t.Error("expansion shares storage across calls")
	}
}

func TestShortcutNamesSorted(t *testing.T) {
	names := ShortcutNames()
	if len(names) == 0 {
		t.Fatal("no shortcuts registered")
	}
	if !sort.StringsAreSorted(names) {
		t.Errorf("names not sorted: %v", names)
	}
	found := false
	for _, n := range names {
		if n == "copy" {
			found = true
		}
	}
	if !found {
		t.Errorf("copy missing from %v", names)
	}
}

func TestNoShortcutLeavesKeysHeld(t *testing.T) {
	for _, name := range ShortcutNames() {
		prog, err := ExpandShortcut(name)
		if err != nil {
			t.Fatalf("ExpandShortcut(%q): %v", name, err)
		}
		if prog.HoldsKeys() {
			t.Errorf("shortcut %q leaves keys held: %v", name, prog)
		}
	}
}
