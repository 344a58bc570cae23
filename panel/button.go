// Package panel drives the front panel: push buttons, level switches and
// the status LEDs.
package panel

import (
	"datalogger/core"
)

// Debounce and press classification thresholds, in milliseconds.
const (
	DebounceMs      = 10
	LongPressMs     = 1000
	VeryLongPressMs = 3000
)

// State is the value returned by Button.Get. Only the low three bits are
// used so that a group of buttons packs into one word.
type State uint8

const (
	Idle State = iota
	JustPressed
	Pressed
	JustReleased // reserved
	ShortPressed
	LongPressed
	VeryLongPressed
)

var stateNames = [...]string{"Idle", "JustPressed", "Pressed", "JustReleased", "ShortPressed", "LongPressed", "VeryLongPressed"}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "State(" + string(core.AppendUint(nil, uint32(s))) + ")"
}

// Button is a debounced, active-low push button with press-length
// classification. Get must be polled at least every 255 ms; the debounce
// arithmetic is done on the low byte of the clock.
type Button struct {
	pin   core.GPIOPin
	gpio  core.GPIODriver
	clock core.Clock

	stable        bool
	old           bool
	debounceStart uint8
	pressStart    uint16
	state         State
}

// NewButton configures pin as an input with pull-up.
func NewButton(gpio core.GPIODriver, clock core.Clock, pin core.GPIOPin) (*Button, error) {
	if err := gpio.ConfigureInput(pin, core.PullUp); err != nil {
		return nil, err
	}
	return &Button{pin: pin, gpio: gpio, clock: clock}, nil
}

// Pin returns the input pin.
func (b *Button) Pin() core.GPIOPin {
	return b.pin
}

// Get samples the pin and advances the debounce state machine.
//
// It returns JustPressed once when a stable press begins and one of
// ShortPressed, LongPressed or VeryLongPressed once on release. Otherwise
// it returns Idle or Pressed.
func (b *Button) Get() State {
	in := !b.gpio.ReadPin(b.pin)
	now := b.clock.Millis()
	rc := b.state

	if in != b.old {
		b.debounceStart = uint8(now)
		b.stable = false
		b.old = in
		return rc
	}

	if !b.stable {
		if uint8(now)-b.debounceStart > DebounceMs {
			b.stable = true
		}
		return rc
	}

	switch b.state {
	case Idle:
		if in {
			b.state = Pressed
			b.pressStart = uint16(now)
			rc = JustPressed
		}
	case Pressed:
		if !in {
			b.state = Idle
			held := uint16(now) - b.pressStart
			switch {
			case held > VeryLongPressMs:
				rc = VeryLongPressed
			case held > LongPressMs:
				rc = LongPressed
			default:
				rc = ShortPressed
			}
		}
	}
	return rc
}
