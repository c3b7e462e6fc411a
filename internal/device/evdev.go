package device

import (
	"errors"
	"fmt"
	"sync"
	"time"

	evdev "github.com/holoplot/go-evdev"

	"github.com/dshills/pedald/internal/action"
	"github.com/dshills/pedald/internal/logging"
)

// Evdev adapts a generic foot switch that presents as a Linux input
// device. The config maps evdev key names to button indexes; anything
// else the device emits is ignored.
type Evdev struct {
	dev       *evdev.InputDevice
	log       *logging.Logger
	mapping   map[evdev.EvCode]int
	states    []bool
	snapshots chan Snapshot

	closeOnce sync.Once
	closed    chan struct{}

	errMu sync.Mutex
	err   error
}

// OpenEvdev opens the input device at path and starts reading. keys
// maps key names (as the action vocabulary spells them) to button
// indexes. The device is grabbed so its keys stop reaching the
// desktop directly.
func OpenEvdev(path string, keys map[string]int, buttons int, log *logging.Logger) (*Evdev, error) {
	if path == "" {
		return nil, errors.New("evdev source requires a device path")
	}
	if buttons <= 0 {
		return nil, fmt.Errorf("evdev source needs a positive button count, got %d", buttons)
	}
	if len(keys) == 0 {
		return nil, errors.New("evdev source requires a key mapping")
	}
	if log == nil {
		log = logging.Null
	}

	mapping := make(map[evdev.EvCode]int, len(keys))
	for name, idx := range keys {
		if idx < 0 || idx >= buttons {
			return nil, fmt.Errorf("key %q maps to button %d, outside 0..%d", name, idx, buttons-1)
		}
		k, err := action.ParseKey(name)
		if err != nil {
			return nil, fmt.Errorf("key mapping: %w", err)
		}
		mapping[evdev.EvCode(k.Code())] = idx
	}

	dev, err := evdev.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open input device %s: %w", path, err)
	}

	e := &Evdev{
		dev:       dev,
		log:       log.WithComponent("evdev"),
		mapping:   mapping,
		states:    make([]bool, buttons),
		snapshots: make(chan Snapshot),
		closed:    make(chan struct{}),
	}

	if err := dev.Grab(); err != nil {
		e.log.Warn("grab %s: %v, key events will also reach other clients", path, err)
	}

	name, _ := dev.Name()
	e.log.Info("reading %s (%s), %d buttons", path, name, buttons)
	go e.readLoop()
	return e, nil
}

// Snapshots returns the state stream.
func (e *Evdev) Snapshots() <-chan Snapshot { return e.snapshots }

// Err reports why the stream ended.
func (e *Evdev) Err() error {
	e.errMu.Lock()
	defer e.errMu.Unlock()
	return e.err
}

// Close stops the reader and releases the device.
func (e *Evdev) Close() error {
	var err error
	e.closeOnce.Do(func() {
		close(e.closed)
		err = e.dev.Close()
	})
	return err
}

func (e *Evdev) readLoop() {
	defer close(e.snapshots)

	for {
		ev, err := e.dev.ReadOne()
		if err != nil {
			select {
			case <-e.closed:
			default:
				e.errMu.Lock()
				e.err = fmt.Errorf("read input event: %w", err)
				e.errMu.Unlock()
				e.log.Error("read: %v", err)
			}
			return
		}
		if ev.Type != evdev.EV_KEY {
			continue
		}
		// Value 2 is key repeat, which carries no edge.
		if ev.Value != 0 && ev.Value != 1 {
			continue
		}
		idx, ok := e.mapping[ev.Code]
		if !ok {
			continue
		}
		e.states[idx] = ev.Value == 1

		states := make([]bool, len(e.states))
		copy(states, e.states)
		select {
		case e.snapshots <- Snapshot{States: states, Time: time.Now()}:
		case <-e.closed:
			return
		}
	}
}

// ListEvdev enumerates the input devices the process can open, for
// the list-devices command.
func ListEvdev() ([]Info, error) {
	paths, err := evdev.ListDevicePaths()
	if err != nil {
		return nil, fmt.Errorf("list input devices: %w", err)
	}
	out := make([]Info, 0, len(paths))
	for _, p := range paths {
		out = append(out, Info{Path: p.Path, Product: p.Name})
	}
	return out, nil
}
