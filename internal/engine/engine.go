// Package engine executes action programs for semantic button events.
//
// Execution is serialized per button: each button gets a bounded
// queue drained by one worker goroutine, so a new dispatch for a
// button whose program is still running waits its turn, while other
// buttons proceed independently. A program's Sleep never delays the
// scheduler or another button.
package engine

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/dshills/pedald/internal/action"
	"github.com/dshills/pedald/internal/button"
	"github.com/dshills/pedald/internal/inject"
	"github.com/dshills/pedald/internal/logging"
)

// Deferrer schedules a deferred release-all. The scheduler implements
// it with its deadline queue; the default implementation uses a plain
// timer.
type Deferrer interface {
	DeferReleaseAll(id button.ID, d time.Duration)
}

// Stage identifies the execution notice kind.
type Stage string

const (
	// StageDispatched marks a program accepted onto a button's queue.
	StageDispatched Stage = "dispatched"
	// StageCompleted marks a program that ran to its last token.
	StageCompleted Stage = "completed"
	// StageTokenFailed marks one token the injector rejected.
	StageTokenFailed Stage = "token_failed"
	// StageDropped marks a dispatch rejected by a full queue.
	StageDropped Stage = "dropped"
)

// Notice is one observability event emitted by the engine.
type Notice struct {
	Stage    Stage
	Dispatch string
	Button   button.ID
	Kind     button.Kind
	Token    string
	Err      error
	Duration time.Duration
}

// Hook receives execution notices. It must not block.
type Hook func(Notice)

// Engine runs programs against an injector.
type Engine struct {
	inj       inject.Injector
	log       *logging.Logger
	queueSize int
	hook      Hook

	mu       sync.Mutex
	deferrer Deferrer
	workers  map[button.ID]*worker
	running  bool
	quit     chan struct{}
	wg       sync.WaitGroup

	dispatched   atomic.Uint64
	completed    atomic.Uint64
	tokenFailed  atomic.Uint64
	dropped      atomic.Uint64
	totalTimeNs  atomic.Int64
	deferredRuns atomic.Uint64
}

// Option configures an Engine.
type Option func(*Engine)

// WithQueueSize sets the per-button dispatch queue capacity.
func WithQueueSize(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.queueSize = n
		}
	}
}

// WithLogger sets the engine's logger.
func WithLogger(l *logging.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.log = l.WithComponent("engine")
		}
	}
}

// WithHook sets the observability hook.
func WithHook(h Hook) Option {
	return func(e *Engine) {
		e.hook = h
	}
}

// New creates an engine that injects through inj.
func New(inj inject.Injector, opts ...Option) *Engine {
	e := &Engine{
		inj:       inj,
		log:       logging.Null,
		queueSize: 16,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// SetDeferrer routes deferred release-alls through d. Without one the
// engine falls back to plain timers. Must be called before Start.
func (e *Engine) SetDeferrer(d Deferrer) {
	e.mu.Lock()
	e.deferrer = d
	e.mu.Unlock()
}

// Start creates one worker per button id.
func (e *Engine) Start(ids []button.ID) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.running {
		return ErrAlreadyRunning
	}
	e.workers = make(map[button.ID]*worker, len(ids))
	e.quit = make(chan struct{})
	for _, id := range ids {
		w := &worker{
			button: id,
			queue:  make(chan job, e.queueSize),
			held:   newHeldKeys(),
		}
		e.workers[id] = w
		e.wg.Add(1)
		go e.runWorker(w)
	}
	e.running = true
	return nil
}

// Execute queues the program for ev's button. Programs for one button
// run in the order their events were emitted, never overlapping; a
// full queue drops the dispatch and reports ErrQueueFull.
//
// A dispatch for a button the engine was not started with reports
// ErrUnknownButton: the store and scheduler guarantee configured
// buttons, so this means an integration bug upstream.
func (e *Engine) Execute(ev button.Event, prog action.Program) error {
	j := job{id: uuid.NewString(), ev: ev, prog: prog}

	// The send stays under the lock so Stop cannot close the queue
	// between the running check and the enqueue. It cannot block: a
	// full queue falls through to the drop path.
	e.mu.Lock()
	if !e.running {
		e.mu.Unlock()
		return ErrNotRunning
	}
	w, ok := e.workers[ev.Button]
	if !ok {
		e.mu.Unlock()
		return ErrUnknownButton
	}

	var queued bool
	select {
	case w.queue <- j:
		queued = true
	default:
	}
	e.mu.Unlock()

	if !queued {
		e.dropped.Add(1)
		e.log.Warn("dropping dispatch for %s %s: queue full", ev.Button, ev.Kind)
		e.notify(Notice{Stage: StageDropped, Dispatch: j.id, Button: ev.Button, Kind: ev.Kind, Err: ErrQueueFull})
		return ErrQueueFull
	}

	e.dispatched.Add(1)
	e.notify(Notice{Stage: StageDispatched, Dispatch: j.id, Button: ev.Button, Kind: ev.Kind})
	return nil
}

// ReleaseAll releases every key currently tracked as held for one
// button. It runs in the caller's goroutine, deliberately outside the
// button's queue: deferred cleanups fire at their scheduled time even
// if a later program is still running.
func (e *Engine) ReleaseAll(id button.ID) {
	e.mu.Lock()
	w, ok := e.workers[id]
	e.mu.Unlock()
	if !ok {
		return
	}
	e.deferredRuns.Add(1)
	e.releaseHeld(w)
}

// releaseHeld drains a button's held set through the injector. A key
// whose release the injector rejects stays in the set so a later
// release-all can retry it.
func (e *Engine) releaseHeld(w *worker) {
	for _, k := range w.held.snapshot() {
		if err := e.inj.Release(k); err != nil {
			e.log.Error("release %s for %s: %v", k, w.button, err)
			continue
		}
		w.held.remove(k)
	}
}

// Stop drains the workers and then releases every key still tracked
// as held, as the shutdown safety net against stuck keys. The release
// pass runs even when ctx expires before the workers finish.
func (e *Engine) Stop(ctx context.Context) error {
	e.mu.Lock()
	if !e.running {
		e.mu.Unlock()
		return ErrNotRunning
	}
	e.running = false
	close(e.quit)
	for _, w := range e.workers {
		close(w.queue)
	}
	workers := e.workers
	e.mu.Unlock()

	done := make(chan struct{})
	go func() {
		e.wg.Wait()
		close(done)
	}()

	var waitErr error
	select {
	case <-done:
	case <-ctx.Done():
		waitErr = ctx.Err()
	}

	for _, w := range workers {
		e.releaseHeld(w)
	}
	return waitErr
}

// Held returns the keys currently tracked as held for a button, for
// status reporting.
func (e *Engine) Held(id button.ID) []action.Key {
	e.mu.Lock()
	w, ok := e.workers[id]
	e.mu.Unlock()
	if !ok {
		return nil
	}
	return w.held.snapshot()
}

// Stats is a snapshot of execution counters.
type Stats struct {
	Dispatched   uint64
	Completed    uint64
	TokenFailed  uint64
	Dropped      uint64
	DeferredRuns uint64
	TotalTime    time.Duration
}

// Stats returns the current counters. Values may be slightly
// inconsistent with each other while programs are running.
func (e *Engine) Stats() Stats {
	return Stats{
		Dispatched:   e.dispatched.Load(),
		Completed:    e.completed.Load(),
		TokenFailed:  e.tokenFailed.Load(),
		Dropped:      e.dropped.Load(),
		DeferredRuns: e.deferredRuns.Load(),
		TotalTime:    time.Duration(e.totalTimeNs.Load()),
	}
}

func (e *Engine) notify(n Notice) {
	if e.hook != nil {
		e.hook(n)
	}
}

// deferReleaseAll schedules the deferred cleanup through the
// configured Deferrer, or a plain timer when none is set.
func (e *Engine) deferReleaseAll(id button.ID, d time.Duration) {
	e.mu.Lock()
	deferrer := e.deferrer
	e.mu.Unlock()

	if deferrer != nil {
		deferrer.DeferReleaseAll(id, d)
		return
	}
	time.AfterFunc(d, func() { e.ReleaseAll(id) })
}
