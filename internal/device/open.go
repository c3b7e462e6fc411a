package device

import (
	"fmt"

	"github.com/dshills/pedald/internal/config"
	"github.com/dshills/pedald/internal/logging"
)

// Open builds the source the config asks for. A nil source block
// means the default HID pedal.
func Open(src *config.Source, buttons int, log *logging.Logger) (Source, error) {
	if src == nil {
		return OpenHID(0, 0, buttons, log)
	}
	switch src.Kind {
	case "", "hid":
		return OpenHID(src.VendorID, src.ProductID, buttons, log)
	case "evdev":
		return OpenEvdev(src.Device, src.Keys, buttons, log)
	default:
		return nil, fmt.Errorf("unknown source kind %q", src.Kind)
	}
}
