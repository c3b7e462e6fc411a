package device

import (
	"fmt"
	"sync"
	"time"

	"github.com/sstallion/go-hid"

	"github.com/dshills/pedald/internal/logging"
)

// Stream Deck Pedal identity and report layout. Each input report is
// 8 bytes; one byte per button starting at buttonOffset, nonzero while
// the button is down.
const (
	VendorElgato = 0x0fd9
	ProductPedal = 0x0086

	reportLen    = 8
	buttonOffset = 4
)

// HID reads input reports straight from the pedal's hidraw interface.
type HID struct {
	dev       *hid.Device
	log       *logging.Logger
	buttons   int
	snapshots chan Snapshot

	closeOnce sync.Once
	closed    chan struct{}

	errMu sync.Mutex
	err   error
}

// OpenHID opens the first matching HID device and starts reading.
// Zero vendor or product falls back to the Stream Deck Pedal.
func OpenHID(vendor, product uint16, buttons int, log *logging.Logger) (*HID, error) {
	if vendor == 0 {
		vendor = VendorElgato
	}
	if product == 0 {
		product = ProductPedal
	}
	if buttons <= 0 || buttons > reportLen-buttonOffset {
		return nil, fmt.Errorf("hid source supports 1 to %d buttons, got %d", reportLen-buttonOffset, buttons)
	}
	if log == nil {
		log = logging.Null
	}

	if err := hid.Init(); err != nil {
		return nil, fmt.Errorf("initialize hidapi: %w", err)
	}
	dev, err := hid.OpenFirst(vendor, product)
	if err != nil {
		return nil, fmt.Errorf("open hid device %04x:%04x: %w", vendor, product, err)
	}

	h := &HID{
		dev:       dev,
		log:       log.WithComponent("hid"),
		buttons:   buttons,
		snapshots: make(chan Snapshot),
		closed:    make(chan struct{}),
	}
	h.log.Info("reading %04x:%04x, %d buttons", vendor, product, buttons)
	go h.readLoop()
	return h, nil
}

// Snapshots returns the state stream.
func (h *HID) Snapshots() <-chan Snapshot { return h.snapshots }

// Err reports why the stream ended.
func (h *HID) Err() error {
	h.errMu.Lock()
	defer h.errMu.Unlock()
	return h.err
}

// Close stops the reader and releases the device. Closing the handle
// unblocks the pending Read.
func (h *HID) Close() error {
	var err error
	h.closeOnce.Do(func() {
		close(h.closed)
		err = h.dev.Close()
	})
	return err
}

func (h *HID) readLoop() {
	defer close(h.snapshots)

	buf := make([]byte, reportLen)
	for {
		n, err := h.dev.Read(buf)
		if err != nil {
			select {
			case <-h.closed:
			default:
				h.errMu.Lock()
				h.err = fmt.Errorf("read hid report: %w", err)
				h.errMu.Unlock()
				h.log.Error("read: %v", err)
			}
			return
		}
		if n < buttonOffset+h.buttons {
			h.log.Debug("short report, %d bytes", n)
			continue
		}

		states := make([]bool, h.buttons)
		for i := range states {
			states[i] = buf[buttonOffset+i] != 0
		}

		select {
		case h.snapshots <- Snapshot{States: states, Time: time.Now()}:
		case <-h.closed:
			return
		}
	}
}

// Info describes one enumerated HID device.
type Info struct {
	Path      string
	VendorID  uint16
	ProductID uint16
	Product   string
	Mfr       string
}

// ListHID enumerates every HID device on the system, for the
// list-devices command.
func ListHID() ([]Info, error) {
	if err := hid.Init(); err != nil {
		return nil, fmt.Errorf("initialize hidapi: %w", err)
	}

	var out []Info
	err := hid.Enumerate(hid.VendorIDAny, hid.ProductIDAny, func(info *hid.DeviceInfo) error {
		out = append(out, Info{
			Path:      info.Path,
			VendorID:  info.VendorID,
			ProductID: info.ProductID,
			Product:   info.ProductStr,
			Mfr:       info.MfrStr,
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("enumerate hid devices: %w", err)
	}
	return out, nil
}
