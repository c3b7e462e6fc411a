package engine

import (
	"errors"
	"fmt"

	"github.com/dshills/pedald/internal/action"
)

// Sentinel errors for the engine package.
var (
	// ErrAlreadyRunning is returned when Start is called on a running engine.
	ErrAlreadyRunning = errors.New("engine is already running")

	// ErrNotRunning is returned when dispatches are submitted to a stopped engine.
	ErrNotRunning = errors.New("engine is not running")

	// ErrQueueFull is returned when a button's dispatch queue is at capacity.
	ErrQueueFull = errors.New("dispatch queue is full")

	// ErrUnknownButton is returned for dispatches naming a button the
	// engine was not started with. This is an integration bug, not a
	// runtime condition.
	ErrUnknownButton = errors.New("dispatch for unknown button")
)

func errUnknownOp(op action.Op) error {
	return fmt.Errorf("unknown action op %d", op)
}
