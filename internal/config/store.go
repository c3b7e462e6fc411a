package config

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/dshills/pedald/internal/action"
	"github.com/dshills/pedald/internal/button"
)

// Store is the immutable, validated mapping from (button, event kind)
// to action programs, plus the resolved hold threshold per button.
// It is built once per config load; reload builds a new Store and the
// scheduler swaps the reference between loop iterations.
type Store struct {
	buttons map[button.ID]*buttonSpec
}

type buttonSpec struct {
	threshold time.Duration
	programs  map[button.Kind]action.Program
}

// Build compiles and validates a config file into a Store. Shortcut
// actions are expanded into primitive tokens here, so the execution
// engine never sees them. Any validation failure is fatal: the core
// never receives an invalid store.
func Build(f *File) (*Store, error) {
	if f == nil {
		return nil, fmt.Errorf("%w: nil config", ErrInvalidConfig)
	}

	count := f.Device.ButtonCount
	if count <= 0 {
		count = DefaultButtonCount
	}

	deviceThreshold := time.Duration(DefaultHoldThresholdMS) * time.Millisecond
	if f.Device.Settings != nil && f.Device.Settings.HoldThresholdMS != nil {
		ms := *f.Device.Settings.HoldThresholdMS
		if ms < 0 {
			return nil, fmt.Errorf("%w: negative device hold threshold %dms", ErrInvalidConfig, ms)
		}
		deviceThreshold = time.Duration(ms) * time.Millisecond
	}

	s := &Store{buttons: make(map[button.ID]*buttonSpec, count)}
	for i := 0; i < count; i++ {
		s.buttons[button.ID(i)] = &buttonSpec{
			threshold: deviceThreshold,
			programs:  make(map[button.Kind]action.Program),
		}
	}

	for name, bc := range f.Device.Buttons {
		id, err := button.ParseID(name)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
		}
		spec, ok := s.buttons[id]
		if !ok {
			return nil, fmt.Errorf("%w: %s is outside button_count %d", ErrInvalidConfig, name, count)
		}

		if bc.Settings != nil && bc.Settings.HoldThresholdMS != nil {
			ms := *bc.Settings.HoldThresholdMS
			if ms < 0 {
				return nil, fmt.Errorf("%w: negative hold threshold %dms for %s", ErrInvalidConfig, ms, name)
			}
			spec.threshold = time.Duration(ms) * time.Millisecond
		}

		for kindName, items := range bc.Actions {
			kind, err := button.ParseKind(kindName)
			if err != nil {
				return nil, fmt.Errorf("%w: %s: %v", ErrInvalidConfig, name, err)
			}
			prog, err := compileProgram(items)
			if err != nil {
				return nil, fmt.Errorf("%w: %s %s: %v", ErrInvalidConfig, name, kind, err)
			}
			if len(prog) > 0 {
				spec.programs[kind] = prog
			}
		}
	}

	return s, nil
}

// compileProgram converts wire-form action items into primitive
// tokens, expanding shortcuts inline.
func compileProgram(items []ActionItem) (action.Program, error) {
	var prog action.Program
	for i, item := range items {
		tokens, err := compileItem(item)
		if err != nil {
			return nil, fmt.Errorf("action %d: %w", i+1, err)
		}
		prog = append(prog, tokens...)
	}
	return prog, nil
}

func compileItem(item ActionItem) ([]action.Token, error) {
	switch strings.ToLower(item.Type) {
	case "key":
		k, err := action.ParseKey(item.Value)
		if err != nil {
			return nil, err
		}
		switch strings.ToLower(item.Direction) {
		case "", "press":
			autoRelease := true
			if item.AutoRelease != nil {
				autoRelease = *item.AutoRelease
			}
			return []action.Token{action.KeyPress(k, autoRelease)}, nil
		case "release":
			return []action.Token{action.KeyRelease(k)}, nil
		default:
			return nil, fmt.Errorf("unknown key direction %q", item.Direction)
		}
	case "text":
		if item.Value == "" {
			return nil, fmt.Errorf("text action requires a value")
		}
		return []action.Token{action.Text(item.Value)}, nil
	case "sleep":
		if item.DurationMS <= 0 {
			return nil, fmt.Errorf("sleep action requires a positive duration_ms")
		}
		return []action.Token{action.Sleep(time.Duration(item.DurationMS) * time.Millisecond)}, nil
	case "releaseall":
		return []action.Token{action.ReleaseAll()}, nil
	case "releaseallafter":
		if item.DurationMS <= 0 {
			return nil, fmt.Errorf("release_all_after action requires a positive duration_ms")
		}
		return []action.Token{action.ReleaseAllAfter(time.Duration(item.DurationMS) * time.Millisecond)}, nil
	case "click":
		b, err := action.ParsePointerButton(item.Value)
		if err != nil {
			return nil, err
		}
		return []action.Token{action.Click(b)}, nil
	case "shortcut":
		prog, err := action.ExpandShortcut(item.Value)
		if err != nil {
			return nil, err
		}
		return prog, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownActionType, item.Type)
	}
}

// Buttons returns every configured button id in ascending order. The
// scheduler creates runtime state for each at startup.
func (s *Store) Buttons() []button.ID {
	ids := make([]button.ID, 0, len(s.buttons))
	for id := range s.buttons {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Configured reports whether id exists in the store.
func (s *Store) Configured(id button.ID) bool {
	_, ok := s.buttons[id]
	return ok
}

// Threshold returns the resolved hold threshold for a button.
func (s *Store) Threshold(id button.ID) time.Duration {
	if spec, ok := s.buttons[id]; ok {
		return spec.threshold
	}
	return time.Duration(DefaultHoldThresholdMS) * time.Millisecond
}

// Program returns the program for (button, kind), if one is
// configured.
func (s *Store) Program(id button.ID, kind button.Kind) (action.Program, bool) {
	spec, ok := s.buttons[id]
	if !ok {
		return nil, false
	}
	prog, ok := spec.programs[kind]
	return prog, ok
}
