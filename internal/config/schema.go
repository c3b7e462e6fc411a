// Package config loads, validates, and compiles the daemon's
// configuration into the immutable program store the scheduler reads.
package config

// File is the on-disk configuration. JSON is the primary format;
// TOML and YAML are accepted by file extension.
type File struct {
	Device   Device  `json:"device" toml:"device" yaml:"device"`
	Source   *Source `json:"source,omitempty" toml:"source,omitempty" yaml:"source,omitempty"`
	Listen   string  `json:"listen,omitempty" toml:"listen,omitempty" yaml:"listen,omitempty"`
	LogLevel string  `json:"log_level,omitempty" toml:"log_level,omitempty" yaml:"log_level,omitempty"`
}

// Device describes the pedal and its per-button action programs.
type Device struct {
	ButtonCount int                     `json:"button_count" toml:"button_count" yaml:"button_count"`
	Settings    *Settings               `json:"settings,omitempty" toml:"settings,omitempty" yaml:"settings,omitempty"`
	Buttons     map[string]ButtonConfig `json:"buttons" toml:"buttons" yaml:"buttons"`
}

// Settings carries threshold overrides. At the device level it applies
// to every button; at the button level it wins over the device value.
type Settings struct {
	HoldThresholdMS *int64 `json:"hold_threshold_time_ms,omitempty" toml:"hold_threshold_time_ms,omitempty" yaml:"hold_threshold_time_ms,omitempty"`
}

// ButtonConfig holds the ordered action lists per event kind
// ("PRESSED", "HELD", "RELEASING"). A missing kind means no action.
type ButtonConfig struct {
	Settings *Settings               `json:"settings,omitempty" toml:"settings,omitempty" yaml:"settings,omitempty"`
	Actions  map[string][]ActionItem `json:"actions" toml:"actions" yaml:"actions"`
}

// ActionItem is one action in its wire form. Type selects the
// variant; the other fields are read per type:
//
//	Key             Value (key name), Direction ("press"/"release",
//	                default press), AutoRelease (default true)
//	Text            Value (literal string)
//	Sleep           DurationMS
//	ReleaseAll      -
//	ReleaseAllAfter DurationMS
//	Click           Value (pointer button name)
//	Shortcut        Value (shortcut name, expanded at store build)
type ActionItem struct {
	Type        string `json:"type" toml:"type" yaml:"type"`
	Value       string `json:"value,omitempty" toml:"value,omitempty" yaml:"value,omitempty"`
	Direction   string `json:"direction,omitempty" toml:"direction,omitempty" yaml:"direction,omitempty"`
	AutoRelease *bool  `json:"auto_release,omitempty" toml:"auto_release,omitempty" yaml:"auto_release,omitempty"`
	DurationMS  int64  `json:"duration_ms,omitempty" toml:"duration_ms,omitempty" yaml:"duration_ms,omitempty"`
}

// Source selects where raw button snapshots come from.
type Source struct {
	// Kind is "hid" (default) or "evdev".
	Kind string `json:"kind,omitempty" toml:"kind,omitempty" yaml:"kind,omitempty"`

	// VendorID and ProductID override the default HID device match.
	VendorID  uint16 `json:"vendor_id,omitempty" toml:"vendor_id,omitempty" yaml:"vendor_id,omitempty"`
	ProductID uint16 `json:"product_id,omitempty" toml:"product_id,omitempty" yaml:"product_id,omitempty"`

	// Device is the evdev device path.
	Device string `json:"device,omitempty" toml:"device,omitempty" yaml:"device,omitempty"`

	// Keys maps evdev key names to button indexes for pedals that
	// present as keyboards.
	Keys map[string]int `json:"keys,omitempty" toml:"keys,omitempty" yaml:"keys,omitempty"`
}
