package config

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// ReloadFunc is called with the new store when the config file changes
// and still builds cleanly.
type ReloadFunc func(*Store)

// ErrorFunc is called when a changed config file fails to load or
// build; the previous store stays in effect.
type ErrorFunc func(error)

// Watcher reloads the config file on change. Editors typically replace
// the file (write to temp, rename over), so the parent directory is
// watched and events are filtered to the config path. Rapid event
// bursts are debounced.
type Watcher struct {
	path     string
	onReload ReloadFunc
	onError  ErrorFunc

	fsw      *fsnotify.Watcher
	debounce time.Duration

	mu     sync.Mutex
	closed bool
	done   chan struct{}
}

// NewWatcher starts watching the config file at path.
func NewWatcher(path string, onReload ReloadFunc, onError ErrorFunc) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve config path: %w", err)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := fsw.Add(filepath.Dir(abs)); err != nil {
		_ = fsw.Close()
		return nil, fmt.Errorf("watch config directory: %w", err)
	}

	w := &Watcher{
		path:     abs,
		onReload: onReload,
		onError:  onError,
		fsw:      fsw,
		debounce: 250 * time.Millisecond,
		done:     make(chan struct{}),
	}
	go w.loop()
	return w, nil
}

func (w *Watcher) loop() {
	var pending *time.Timer
	var pendingC <-chan time.Time

	for {
		select {
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != w.path {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if pending == nil {
				pending = time.NewTimer(w.debounce)
				pendingC = pending.C
			} else {
				if !pending.Stop() {
					<-pending.C
				}
				pending.Reset(w.debounce)
			}

		case <-pendingC:
			pending = nil
			pendingC = nil
			w.reload()

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			if w.onError != nil {
				w.onError(fmt.Errorf("config watcher: %w", err))
			}

		case <-w.done:
			if pending != nil {
				pending.Stop()
			}
			return
		}
	}
}

func (w *Watcher) reload() {
	f, err := Load(w.path)
	if err != nil {
		if w.onError != nil {
			w.onError(err)
		}
		return
	}
	store, err := Build(f)
	if err != nil {
		if w.onError != nil {
			w.onError(err)
		}
		return
	}
	if w.onReload != nil {
		w.onReload(store)
	}
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil
	}
	w.closed = true
	close(w.done)
	return w.fsw.Close()
}
