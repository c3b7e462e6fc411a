// Package schedule turns raw button snapshots into semantic events and
// decides when time-based transitions fire.
//
// One goroutine owns all scheduling state. It waits on whichever comes
// first, the next hardware snapshot or the next pending deadline, so a
// hold threshold expires on time even when the pedal is silent.
package schedule

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dshills/pedald/internal/action"
	"github.com/dshills/pedald/internal/button"
	"github.com/dshills/pedald/internal/config"
	"github.com/dshills/pedald/internal/device"
	"github.com/dshills/pedald/internal/logging"
)

// Dispatcher receives the semantic events the scheduler emits.
// *engine.Engine satisfies it.
type Dispatcher interface {
	Execute(ev button.Event, prog action.Program) error
	ReleaseAll(id button.ID)
}

// ErrSourceClosed is returned by Run when the input stream has ended
// and no deadlines remain to service.
var ErrSourceClosed = errors.New("input source closed")

// Scheduler owns the per-button state machines and the deadline queue.
// All fields are owned by the Run goroutine; external goroutines talk
// to it only through channels.
type Scheduler struct {
	dispatcher Dispatcher
	log        *logging.Logger
	nowFn      func() time.Time

	store    *config.Store
	machines map[button.ID]*button.Machine
	queue    *deadlineQueue
	prev     []bool

	storeCh chan *config.Store
	deferCh chan deadline
	done    chan struct{}
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithLogger sets the scheduler's logger.
func WithLogger(l *logging.Logger) Option {
	return func(s *Scheduler) {
		if l != nil {
			s.log = l.WithComponent("schedule")
		}
	}
}

// New creates a scheduler over the given store.
func New(store *config.Store, dispatcher Dispatcher, opts ...Option) *Scheduler {
	s := &Scheduler{
		dispatcher: dispatcher,
		log:        logging.Null,
		nowFn:      time.Now,
		queue:      newDeadlineQueue(),
		storeCh:    make(chan *config.Store, 1),
		deferCh:    make(chan deadline, 16),
		done:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.applyStore(store)
	return s
}

// Run processes snapshots until ctx is cancelled. When the snapshot
// stream closes the scheduler degrades to timers only, draining the
// pending deadlines before returning ErrSourceClosed, so a deferred
// release-all still fires after the device disappears.
func (s *Scheduler) Run(ctx context.Context, snapshots <-chan device.Snapshot) error {
	defer close(s.done)

	timer := time.NewTimer(time.Hour)
	timer.Stop()
	defer timer.Stop()

	for {
		var timerC <-chan time.Time
		if next, ok := s.queue.peek(); ok {
			timer.Reset(next.at.Sub(s.nowFn()))
			timerC = timer.C
		} else {
			timer.Stop()
			if snapshots == nil {
				// Pick up any deferral racing the source's close
				// before declaring the queue drained.
				select {
				case d := <-s.deferCh:
					s.queue.push(d)
					continue
				default:
				}
				return ErrSourceClosed
			}
		}

		select {
		case <-ctx.Done():
			return ctx.Err()

		case snap, ok := <-snapshots:
			if !ok {
				s.log.Warn("snapshot stream closed, servicing remaining deadlines only")
				snapshots = nil
				continue
			}
			if err := s.handleSnapshot(snap); err != nil {
				return err
			}

		case st := <-s.storeCh:
			s.applyStore(st)

		case d := <-s.deferCh:
			s.queue.push(d)

		case <-timerC:
			s.expireDue(s.nowFn())
		}
	}
}

// Swap replaces the configuration store between loop iterations. New
// thresholds apply from each button's next press; a button mid-cycle
// finishes under the thresholds it started with.
func (s *Scheduler) Swap(store *config.Store) {
	select {
	case s.storeCh <- store:
	case <-s.done:
	}
}

// DeferReleaseAll schedules a release-all for the button. The deadline
// is fixed now and never cancelled or extended, whatever else the
// button does before it comes due.
func (s *Scheduler) DeferReleaseAll(id button.ID, d time.Duration) {
	entry := deadline{at: s.nowFn().Add(d), button: id, purpose: purposeRelease}
	select {
	case s.deferCh <- entry:
	case <-s.done:
		// Shutdown releases held keys anyway.
	}
}

// handleSnapshot diffs the snapshot against the previous one and feeds
// each edge to its button's machine. A state for a button the store
// does not know is fatal: the device and configuration disagree about
// the hardware, and guessing would mean silently dropped input.
func (s *Scheduler) handleSnapshot(snap device.Snapshot) error {
	for i, down := range snap.States {
		id := button.ID(i)
		if i < len(s.prev) && s.prev[i] == down {
			continue
		}
		m, ok := s.machines[id]
		if !ok {
			return fmt.Errorf("input for %s, which is not configured", id)
		}
		for _, ev := range m.Feed(down, snap.Time) {
			s.dispatch(ev)
			if ev.Kind == button.Pressed {
				if at, armed := m.HoldDeadline(); armed {
					s.queue.push(deadline{at: at, button: id, purpose: purposeHold})
				}
			}
		}
	}
	s.prev = append(s.prev[:0], snap.States...)
	return nil
}

// expireDue resolves every deadline at or before now. Stale hold
// deadlines pop and are rejected by the machine; deferred releases
// always run.
func (s *Scheduler) expireDue(now time.Time) {
	for {
		next, ok := s.queue.peek()
		if !ok || next.at.After(now) {
			return
		}
		s.queue.pop()
		s.log.Debug("%s deadline due for %s", next.purpose, next.button)

		switch next.purpose {
		case purposeHold:
			m, ok := s.machines[next.button]
			if !ok {
				continue
			}
			if ev, fired := m.ExpireHold(now); fired {
				s.dispatch(ev)
			}
		case purposeRelease:
			s.dispatcher.ReleaseAll(next.button)
		}
	}
}

// dispatch hands an event's program to the dispatcher. An event with
// no configured program is normal and merely logged; a dispatch error
// means the program was dropped, which is logged and survived.
func (s *Scheduler) dispatch(ev button.Event) {
	prog, ok := s.store.Program(ev.Button, ev.Kind)
	if !ok {
		s.log.Debug("%s %s has no program", ev.Button, ev.Kind)
		return
	}
	s.log.Info("%s %s", ev.Button, ev.Kind)
	if err := s.dispatcher.Execute(ev, prog); err != nil {
		s.log.Error("dispatch %s %s: %v", ev.Button, ev.Kind, err)
	}
}

// applyStore installs a store and rebuilds the machine table. A
// machine mid-press survives the swap with its armed deadline intact;
// the new threshold takes effect from its next press.
func (s *Scheduler) applyStore(store *config.Store) {
	machines := make(map[button.ID]*button.Machine)
	for _, id := range store.Buttons() {
		if old, ok := s.machines[id]; ok {
			old.SetThreshold(store.Threshold(id))
			machines[id] = old
			continue
		}
		machines[id] = button.NewMachine(id, store.Threshold(id))
	}
	s.store = store
	s.machines = machines
	s.log.Info("configuration active for %d buttons", len(machines))
}
