package config

// DefaultHoldThresholdMS is the global hold threshold used when
// neither the device nor the button overrides it.
const DefaultHoldThresholdMS = 666

// DefaultButtonCount matches the three-button Stream Deck Pedal.
const DefaultButtonCount = 3

// Default returns the configuration written on first run:
//
//	button_0  PRESSED    Meta+O chord, everything released after
//	button_1  HELD       Meta held while the pedal is down,
//	          RELEASING  released when the pedal comes up
//	button_2  PRESSED    MicMute tap, HELD F5 tap
func Default() *File {
	falseV := false
	return &File{
		Device: Device{
			ButtonCount: DefaultButtonCount,
			Buttons: map[string]ButtonConfig{
				"button_0": {
					Actions: map[string][]ActionItem{
						"PRESSED": {
							{Type: "Key", Value: "LeftMeta", AutoRelease: &falseV},
							{Type: "Key", Value: "O"},
							{Type: "ReleaseAll"},
						},
					},
				},
				"button_1": {
					Actions: map[string][]ActionItem{
						"HELD": {
							{Type: "Key", Value: "LeftMeta", AutoRelease: &falseV},
						},
						"RELEASING": {
							{Type: "ReleaseAll"},
						},
					},
				},
				"button_2": {
					Actions: map[string][]ActionItem{
						"PRESSED": {
							{Type: "Key", Value: "MicMute"},
						},
						"HELD": {
							{Type: "Key", Value: "F5"},
						},
					},
				},
			},
		},
	}
}
