package inject

import (
	"fmt"
	"sync"

	"github.com/bendahl/uinput"

	"github.com/dshills/pedald/internal/action"
)

const uinputPath = "/dev/uinput"

// Uinput injects input through virtual kernel devices: one keyboard
// and one mouse. Creating it requires write access to /dev/uinput.
type Uinput struct {
	mu       sync.Mutex
	keyboard uinput.Keyboard
	mouse    uinput.Mouse
	closed   bool
}

// NewUinput creates the virtual devices. The name is what the devices
// report to the kernel, so a user can tell synthetic events apart from
// real hardware in listings.
func NewUinput(name string) (*Uinput, error) {
	if name == "" {
		name = "pedald"
	}
	kbd, err := uinput.CreateKeyboard(uinputPath, []byte(name))
	if err != nil {
		return nil, fmt.Errorf("create virtual keyboard: %w", err)
	}
	mouse, err := uinput.CreateMouse(uinputPath, []byte(name))
	if err != nil {
		_ = kbd.Close()
		return nil, fmt.Errorf("create virtual mouse: %w", err)
	}
	return &Uinput{keyboard: kbd, mouse: mouse}, nil
}

// Press implements Injector.
func (u *Uinput) Press(k action.Key) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.closed {
		return ErrClosed
	}
	if err := u.keyboard.KeyDown(k.Code()); err != nil {
		return fmt.Errorf("press %s: %w", k, err)
	}
	return nil
}

// Release implements Injector.
func (u *Uinput) Release(k action.Key) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.closed {
		return ErrClosed
	}
	if err := u.keyboard.KeyUp(k.Code()); err != nil {
		return fmt.Errorf("release %s: %w", k, err)
	}
	return nil
}

// Type implements Injector. The text is decomposed into shifted key
// taps on a US layout; a rune outside the layout fails the whole
// operation before any key is sent.
func (u *Uinput) Type(text string) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.closed {
		return ErrClosed
	}

	strokes := make([]stroke, 0, len(text))
	for _, r := range text {
		s, ok := strokeFor(r)
		if !ok {
			return fmt.Errorf("%w: %q", ErrUntypableRune, r)
		}
		strokes = append(strokes, s)
	}

	for _, s := range strokes {
		if err := u.tap(s); err != nil {
			return err
		}
	}
	return nil
}

func (u *Uinput) tap(s stroke) error {
	if s.shift {
		if err := u.keyboard.KeyDown(action.KeyLeftShift.Code()); err != nil {
			return fmt.Errorf("type: shift down: %w", err)
		}
		defer func() { _ = u.keyboard.KeyUp(action.KeyLeftShift.Code()) }()
	}
	if err := u.keyboard.KeyPress(s.key.Code()); err != nil {
		return fmt.Errorf("type: tap %s: %w", s.key, err)
	}
	return nil
}

// Click implements Injector.
func (u *Uinput) Click(b action.PointerButton) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.closed {
		return ErrClosed
	}

	var err error
	switch b {
	case action.PointerLeft:
		err = u.mouse.LeftClick()
	case action.PointerRight:
		err = u.mouse.RightClick()
	case action.PointerMiddle:
		err = u.mouse.MiddleClick()
	default:
		return fmt.Errorf("%w: %v", ErrUnknownPointer, b)
	}
	if err != nil {
		return fmt.Errorf("click %s: %w", b, err)
	}
	return nil
}

// Close implements Injector. It destroys both virtual devices; the
// kernel releases any keys still down when the keyboard device goes
// away, but the engine is expected to have run its final release-all
// before this point.
func (u *Uinput) Close() error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.closed {
		return nil
	}
	u.closed = true

	kerr := u.keyboard.Close()
	merr := u.mouse.Close()
	if kerr != nil {
		return fmt.Errorf("close virtual keyboard: %w", kerr)
	}
	if merr != nil {
		return fmt.Errorf("close virtual mouse: %w", merr)
	}
	return nil
}
