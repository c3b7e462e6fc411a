package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/dshills/pedald/internal/action"
	"github.com/dshills/pedald/internal/button"
)

// fakeInjector records every call and can be told to fail specific keys.
type fakeInjector struct {
	mu    sync.Mutex
	calls []string
	fail  map[string]error
}

func newFakeInjector() *fakeInjector {
	return &fakeInjector{fail: make(map[string]error)}
}

func (f *fakeInjector) record(call string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.fail[call]; ok {
		return err
	}
	f.calls = append(f.calls, call)
	return nil
}

func (f *fakeInjector) failOn(call string, err error) {
	f.mu.Lock()
	f.fail[call] = err
	f.mu.Unlock()
}

func (f *fakeInjector) clearFail(call string) {
	f.mu.Lock()
	delete(f.fail, call)
	f.mu.Unlock()
}

func (f *fakeInjector) snapshot() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.calls))
	copy(out, f.calls)
	return out
}

func (f *fakeInjector) Press(k action.Key) error   { return f.record("press:" + k.String()) }
func (f *fakeInjector) Release(k action.Key) error { return f.record("release:" + k.String()) }
func (f *fakeInjector) Type(s string) error        { return f.record("type:" + s) }
func (f *fakeInjector) Click(b action.PointerButton) error {
	return f.record(fmt.Sprintf("click:%s", b))
}
func (f *fakeInjector) Close() error { return nil }

func startEngine(t *testing.T, inj *fakeInjector, ids ...button.ID) *Engine {
	t.Helper()
	e := New(inj)
	if err := e.Start(ids); err != nil {
		t.Fatalf("Start: %v", err)
	}
	return e
}

func pressedEvent(id button.ID) button.Event {
	return button.Event{Button: id, Kind: button.Pressed, Time: time.Now()}
}

// waitForCompleted blocks until n programs have finished or the
// deadline hits.
func waitForCompleted(t *testing.T, e *Engine, n uint64) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if e.Stats().Completed >= n {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("timed out waiting for %d completed programs, have %d", n, e.Stats().Completed)
}

func equalCalls(got, want []string) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range got {
		if got[i] != want[i] {
			return false
		}
	}
	return true
}

func TestChordWithDeferredRelease(t *testing.T) {
	inj := newFakeInjector()
	e := startEngine(t, inj, 0)
	defer e.Stop(context.Background())

	prog := action.Program{
		action.KeyPress(action.KeyLeftCtrl, false),
		action.KeyPress(action.KeyC, true),
		action.ReleaseAllAfter(50 * time.Millisecond),
	}
	if err := e.Execute(pressedEvent(0), prog); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	waitForCompleted(t, e, 1)

	held := e.Held(0)
	if len(held) != 1 || held[0] != action.KeyLeftCtrl {
		t.Fatalf("held after program = %v, want [leftctrl]", held)
	}

	// The deferred cleanup fires on its own timer.
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) && len(e.Held(0)) > 0 {
		time.Sleep(time.Millisecond)
	}
	if held := e.Held(0); len(held) != 0 {
		t.Fatalf("held after deferred release = %v, want empty", held)
	}

	want := []string{
		"press:leftctrl",
		"press:c",
		"release:c",
		"release:leftctrl",
	}
	if got := inj.snapshot(); !equalCalls(got, want) {
		t.Errorf("calls = %v, want %v", got, want)
	}
}

func TestAutoReleaseNeverTracked(t *testing.T) {
	inj := newFakeInjector()
	e := startEngine(t, inj, 0)
	defer e.Stop(context.Background())

	prog := action.Program{action.KeyPress(action.KeyF5, true)}
	if err := e.Execute(pressedEvent(0), prog); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	waitForCompleted(t, e, 1)

	if held := e.Held(0); len(held) != 0 {
		t.Errorf("held = %v, want empty", held)
	}
}

func TestFailedAutoReleaseStaysHeld(t *testing.T) {
	inj := newFakeInjector()
	injErr := errors.New("device gone")
	inj.failOn("release:c", injErr)

	e := startEngine(t, inj, 0)
	defer e.Stop(context.Background())

	prog := action.Program{action.KeyPress(action.KeyC, true)}
	if err := e.Execute(pressedEvent(0), prog); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	waitForCompleted(t, e, 1)

	held := e.Held(0)
	if len(held) != 1 || held[0] != action.KeyC {
		t.Fatalf("held = %v, want [c]", held)
	}
	if e.Stats().TokenFailed != 1 {
		t.Errorf("TokenFailed = %d, want 1", e.Stats().TokenFailed)
	}

	// Once the injector recovers, ReleaseAll drains the stuck key.
	inj.clearFail("release:c")
	e.ReleaseAll(0)
	if held := e.Held(0); len(held) != 0 {
		t.Errorf("held after ReleaseAll = %v, want empty", held)
	}
}

func TestReleaseKeyNotHeldIsNoop(t *testing.T) {
	inj := newFakeInjector()
	e := startEngine(t, inj, 0)
	defer e.Stop(context.Background())

	prog := action.Program{action.KeyRelease(action.KeyA)}
	if err := e.Execute(pressedEvent(0), prog); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	waitForCompleted(t, e, 1)

	if got := inj.snapshot(); len(got) != 0 {
		t.Errorf("calls = %v, want none", got)
	}
	if e.Stats().TokenFailed != 0 {
		t.Errorf("TokenFailed = %d, want 0", e.Stats().TokenFailed)
	}
}

func TestReleaseAllScopedToButton(t *testing.T) {
	inj := newFakeInjector()
	e := startEngine(t, inj, 0, 1)
	defer e.Stop(context.Background())

	hold := func(id button.ID, k action.Key) {
		t.Helper()
		prog := action.Program{action.KeyPress(k, false)}
		if err := e.Execute(pressedEvent(id), prog); err != nil {
			t.Fatalf("Execute(%s): %v", id, err)
		}
	}
	hold(0, action.KeyA)
	hold(1, action.KeyB)
	waitForCompleted(t, e, 2)

	e.ReleaseAll(0)

	if held := e.Held(0); len(held) != 0 {
		t.Errorf("button_0 held = %v, want empty", held)
	}
	held := e.Held(1)
	if len(held) != 1 || held[0] != action.KeyB {
		t.Errorf("button_1 held = %v, want [b]", held)
	}
}

func TestTokenFailureDoesNotAbortProgram(t *testing.T) {
	inj := newFakeInjector()
	inj.failOn("press:a", errors.New("refused"))

	e := startEngine(t, inj, 0)
	defer e.Stop(context.Background())

	prog := action.Program{
		action.KeyPress(action.KeyA, true),
		action.Text("ok"),
		action.Click(action.PointerLeft),
	}
	if err := e.Execute(pressedEvent(0), prog); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	waitForCompleted(t, e, 1)

	want := []string{"type:ok", "click:left"}
	if got := inj.snapshot(); !equalCalls(got, want) {
		t.Errorf("calls = %v, want %v", got, want)
	}
	if held := e.Held(0); len(held) != 0 {
		t.Errorf("held = %v, want empty", held)
	}
}

func TestSameButtonDispatchesSerialize(t *testing.T) {
	inj := newFakeInjector()
	e := startEngine(t, inj, 0)
	defer e.Stop(context.Background())

	first := action.Program{
		action.KeyPress(action.KeyA, true),
		action.Sleep(80 * time.Millisecond),
		action.KeyPress(action.KeyB, true),
	}
	second := action.Program{action.KeyPress(action.KeyC, true)}

	if err := e.Execute(pressedEvent(0), first); err != nil {
		t.Fatalf("Execute first: %v", err)
	}
	if err := e.Execute(pressedEvent(0), second); err != nil {
		t.Fatalf("Execute second: %v", err)
	}
	waitForCompleted(t, e, 2)

	want := []string{
		"press:a", "release:a",
		"press:b", "release:b",
		"press:c", "release:c",
	}
	if got := inj.snapshot(); !equalCalls(got, want) {
		t.Errorf("calls = %v, want %v", got, want)
	}
}

func TestOtherButtonsRunDuringSleep(t *testing.T) {
	inj := newFakeInjector()
	e := startEngine(t, inj, 0, 1)
	defer e.Stop(context.Background())

	slow := action.Program{
		action.Sleep(200 * time.Millisecond),
		action.KeyPress(action.KeyA, true),
	}
	fast := action.Program{action.KeyPress(action.KeyB, true)}

	if err := e.Execute(pressedEvent(0), slow); err != nil {
		t.Fatalf("Execute slow: %v", err)
	}
	if err := e.Execute(pressedEvent(1), fast); err != nil {
		t.Fatalf("Execute fast: %v", err)
	}

	// The fast button finishes while the slow one is still sleeping.
	deadline := time.Now().Add(100 * time.Millisecond)
	for time.Now().Before(deadline) && e.Stats().Completed == 0 {
		time.Sleep(time.Millisecond)
	}
	calls := inj.snapshot()
	if !equalCalls(calls, []string{"press:b", "release:b"}) {
		t.Errorf("calls during sleep = %v, want button_1's only", calls)
	}
	waitForCompleted(t, e, 2)
}

func TestQueueFullDropsDispatch(t *testing.T) {
	inj := newFakeInjector()
	e := New(inj, WithQueueSize(1))
	if err := e.Start([]button.ID{0}); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer e.Stop(context.Background())

	slow := action.Program{action.Sleep(200 * time.Millisecond)}
	if err := e.Execute(pressedEvent(0), slow); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	// Fill the queue, then overflow it. The running program may have
	// already drained the first slot, so keep submitting until one is
	// rejected.
	var sawFull bool
	for i := 0; i < 3; i++ {
		if err := e.Execute(pressedEvent(0), slow); errors.Is(err, ErrQueueFull) {
			sawFull = true
			break
		}
	}
	if !sawFull {
		t.Fatal("expected ErrQueueFull from an overflowing queue")
	}
	if e.Stats().Dropped == 0 {
		t.Error("Dropped = 0, want at least 1")
	}
}

func TestStopReleasesHeldKeys(t *testing.T) {
	inj := newFakeInjector()
	e := startEngine(t, inj, 0)

	prog := action.Program{action.KeyPress(action.KeyLeftMeta, false)}
	if err := e.Execute(pressedEvent(0), prog); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	waitForCompleted(t, e, 1)

	if err := e.Stop(context.Background()); err != nil {
		t.Fatalf("Stop: %v", err)
	}

	calls := inj.snapshot()
	last := calls[len(calls)-1]
	if last != "release:leftmeta" {
		t.Errorf("last call = %q, want release:leftmeta", last)
	}
}

func TestExecuteUnknownButton(t *testing.T) {
	e := startEngine(t, newFakeInjector(), 0)
	defer e.Stop(context.Background())

	err := e.Execute(pressedEvent(7), action.Program{action.ReleaseAll()})
	if !errors.Is(err, ErrUnknownButton) {
		t.Errorf("err = %v, want ErrUnknownButton", err)
	}
}

func TestExecuteAfterStop(t *testing.T) {
	e := startEngine(t, newFakeInjector(), 0)
	if err := e.Stop(context.Background()); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	err := e.Execute(pressedEvent(0), action.Program{})
	if !errors.Is(err, ErrNotRunning) {
		t.Errorf("err = %v, want ErrNotRunning", err)
	}
}

func TestHookObservesLifecycle(t *testing.T) {
	inj := newFakeInjector()
	inj.failOn("press:a", errors.New("refused"))

	var mu sync.Mutex
	var stages []Stage
	hook := func(n Notice) {
		mu.Lock()
		stages = append(stages, n.Stage)
		mu.Unlock()
	}

	e := New(inj, WithHook(hook))
	if err := e.Start([]button.ID{0}); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer e.Stop(context.Background())

	prog := action.Program{action.KeyPress(action.KeyA, true)}
	if err := e.Execute(pressedEvent(0), prog); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	waitForCompleted(t, e, 1)

	mu.Lock()
	defer mu.Unlock()
	want := []Stage{StageDispatched, StageTokenFailed, StageCompleted}
	if len(stages) != len(want) {
		t.Fatalf("stages = %v, want %v", stages, want)
	}
	for i := range want {
		if stages[i] != want[i] {
			t.Fatalf("stages = %v, want %v", stages, want)
		}
	}
}
