package engine

import (
	"sort"
	"sync"

	"github.com/dshills/pedald/internal/action"
)

// heldKeys tracks the keys one button's programs currently hold down
// through non-auto-release presses. The set is scoped per button so a
// program can never release keys pressed by another button's in-flight
// sequence.
//
// Invariant: a key enters the set only after the injector accepted its
// press, and leaves only after the injector accepted its release. The
// set therefore never claims a key the injector was not told to press,
// and never forgets a key the injector still models as down.
type heldKeys struct {
	mu   sync.Mutex
	keys map[action.Key]struct{}
}

func newHeldKeys() *heldKeys {
	return &heldKeys{keys: make(map[action.Key]struct{})}
}

func (h *heldKeys) add(k action.Key) {
	h.mu.Lock()
	h.keys[k] = struct{}{}
	h.mu.Unlock()
}

func (h *heldKeys) remove(k action.Key) {
	h.mu.Lock()
	delete(h.keys, k)
	h.mu.Unlock()
}

func (h *heldKeys) contains(k action.Key) bool {
	h.mu.Lock()
	_, ok := h.keys[k]
	h.mu.Unlock()
	return ok
}

// snapshot returns the held keys in a stable order for iteration and
// logging. The set itself is not cleared; callers remove keys as the
// injector confirms each release.
func (h *heldKeys) snapshot() []action.Key {
	h.mu.Lock()
	keys := make([]action.Key, 0, len(h.keys))
	for k := range h.keys {
		keys = append(keys, k)
	}
	h.mu.Unlock()
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}
