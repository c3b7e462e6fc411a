// Package device reads raw button state from pedal hardware.
//
// Two source implementations are provided: hidraw reports read
// directly from the Stream Deck Pedal, and evdev key events for
// generic foot switches that present as input devices.
package device

import "time"

// Snapshot is the full raw state of every button at one instant.
// Sources emit a snapshot whenever any button's state may have
// changed; consumers derive edges by comparing against the prior
// snapshot, so duplicate snapshots are harmless.
type Snapshot struct {
	// States holds one entry per button, true while physically down.
	States []bool

	// Time is when the source observed the state.
	Time time.Time
}

// Source streams button state from one piece of hardware.
type Source interface {
	// Snapshots returns the state stream. The channel closes when the
	// source stops, whether by Close or by a read error.
	Snapshots() <-chan Snapshot

	// Err reports why the stream ended, nil after a clean Close.
	Err() error

	// Close stops the source and releases the device.
	Close() error
}
