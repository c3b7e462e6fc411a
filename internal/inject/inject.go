// Package inject performs synthetic input operations on the host.
//
// The Injector interface is what the execution engine programs
// against; the uinput implementation backs it with virtual kernel
// devices. Each call may fail independently of the others, and a
// failed call leaves the injector usable.
package inject

import (
	"errors"

	"github.com/dshills/pedald/internal/action"
	"github.com/dshills/pedald/internal/logging"
)

// Injector errors.
var (
	ErrClosed         = errors.New("injector is closed")
	ErrUntypableRune  = errors.New("rune has no key mapping")
	ErrUnknownPointer = errors.New("unknown pointer button")
)

// Injector performs synthetic input operations.
type Injector interface {
	// Press puts a key down without releasing it.
	Press(k action.Key) error

	// Release lifts a key. Releasing a key that is not down is
	// allowed.
	Release(k action.Key) error

	// Type injects a literal string as one operation.
	Type(text string) error

	// Click presses and releases a pointer button.
	Click(b action.PointerButton) error

	// Close releases the underlying devices.
	Close() error
}

// Recorder is an Injector that logs operations without touching the
// host. It backs the daemon's dry-run mode.
type Recorder struct {
	log *logging.Logger
}

// NewRecorder creates a log-only injector.
func NewRecorder(log *logging.Logger) *Recorder {
	if log == nil {
		log = logging.Null
	}
	return &Recorder{log: log.WithComponent("inject")}
}

// Press implements Injector.
func (r *Recorder) Press(k action.Key) error {
	r.log.Info("press %s", k)
	return nil
}

// Release implements Injector.
func (r *Recorder) Release(k action.Key) error {
	r.log.Info("release %s", k)
	return nil
}

// Type implements Injector.
func (r *Recorder) Type(text string) error {
	r.log.Info("type %q", text)
	return nil
}

// Click implements Injector.
func (r *Recorder) Click(b action.PointerButton) error {
	r.log.Info("click %s", b)
	return nil
}

// Close implements Injector.
func (r *Recorder) Close() error { return nil }
