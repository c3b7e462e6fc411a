package engine

import (
	"time"

	"github.com/dshills/pedald/internal/action"
	"github.com/dshills/pedald/internal/button"
)

// job is one queued program execution.
type job struct {
	id   string
	ev   button.Event
	prog action.Program
}

// worker owns one button's dispatch queue and held-key set.
type worker struct {
	button button.ID
	queue  chan job
	held   *heldKeys
}

// runWorker drains one button's queue until it closes.
func (e *Engine) runWorker(w *worker) {
	defer e.wg.Done()
	for j := range w.queue {
		e.runProgram(w, j)
	}
}

// runProgram executes every token in order. A token the injector
// rejects is logged and skipped; the rest of the program still runs.
func (e *Engine) runProgram(w *worker, j job) {
	start := time.Now()
	log := e.log.WithField("dispatch", j.id)
	log.Debug("executing %d tokens for %s %s", len(j.prog), j.ev.Button, j.ev.Kind)

	for _, tok := range j.prog {
		if err := e.runToken(w, tok); err != nil {
			e.tokenFailed.Add(1)
			log.Error("token %s for %s: %v", tok, j.ev.Button, err)
			e.notify(Notice{
				Stage:    StageTokenFailed,
				Dispatch: j.id,
				Button:   j.ev.Button,
				Kind:     j.ev.Kind,
				Token:    tok.String(),
				Err:      err,
			})
		}
	}

	elapsed := time.Since(start)
	e.completed.Add(1)
	e.totalTimeNs.Add(int64(elapsed))
	e.notify(Notice{
		Stage:    StageCompleted,
		Dispatch: j.id,
		Button:   j.ev.Button,
		Kind:     j.ev.Kind,
		Duration: elapsed,
	})
}

func (e *Engine) runToken(w *worker, tok action.Token) error {
	switch tok.Op {
	case action.OpKeyPress:
		return e.runKeyPress(w, tok)
	case action.OpKeyRelease:
		return e.runKeyRelease(w, tok.Key)
	case action.OpText:
		return e.inj.Type(tok.Text)
	case action.OpSleep:
		e.sleep(tok.Duration)
		return nil
	case action.OpReleaseAll:
		e.releaseHeld(w)
		return nil
	case action.OpReleaseAllAfter:
		e.deferReleaseAll(w.button, tok.Duration)
		return nil
	case action.OpClick:
		return e.inj.Click(tok.Pointer)
	default:
		return errUnknownOp(tok.Op)
	}
}

// runKeyPress presses the key and, with auto release, releases it
// immediately. A key only joins the held set once the injector has
// accepted the press, so the set never claims a key the kernel never
// saw. A failed auto release leaves the key tracked as held so a
// later release-all can recover it.
func (e *Engine) runKeyPress(w *worker, tok action.Token) error {
	if err := e.inj.Press(tok.Key); err != nil {
		return err
	}
	if !tok.AutoRelease {
		w.held.add(tok.Key)
		return nil
	}
	if err := e.inj.Release(tok.Key); err != nil {
		w.held.add(tok.Key)
		return err
	}
	return nil
}

// runKeyRelease releases a key this button is holding. Releasing a
// key the button never pressed is a no-op.
func (e *Engine) runKeyRelease(w *worker, k action.Key) error {
	if !w.held.contains(k) {
		return nil
	}
	if err := e.inj.Release(k); err != nil {
		return err
	}
	w.held.remove(k)
	return nil
}

// sleep pauses this button's worker only. Shutdown cuts the sleep
// short so Stop never waits out a long program delay.
func (e *Engine) sleep(d time.Duration) {
	if d <= 0 {
		return
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-e.quit:
	}
}
