package panel

import (
	"datalogger/core"
)

// Switch is a debounced level input. With inverted set (the default for a
// pull-up wired switch) a low pin reads as on.
type Switch struct {
	pin      core.GPIOPin
	gpio     core.GPIODriver
	clock    core.Clock
	inverted bool

	stable        bool
	old           bool
	debounceStart uint8
	on            bool
}

// NewSwitch configures pin as an input with pull-up.
func NewSwitch(gpio core.GPIODriver, clock core.Clock, pin core.GPIOPin, inverted bool) (*Switch, error) {
	if err := gpio.ConfigureInput(pin, core.PullUp); err != nil {
		return nil, err
	}
	return &Switch{pin: pin, gpio: gpio, clock: clock, inverted: inverted}, nil
}

// Get samples the pin and returns the debounced level. Until the input has
// been stable once the switch reads off.
func (s *Switch) Get() bool {
	in := s.gpio.ReadPin(s.pin)
	now := uint8(s.clock.Millis())

	if in != s.old {
		s.debounceStart = now
		s.stable = false
		s.old = in
	} else if !s.stable && now-s.debounceStart > DebounceMs {
		s.stable = true
		s.on = in != s.inverted
	}
	return s.on
}

// Switches is a group of switches with one bit of latched state each.
type Switches struct {
	list  []*Switch
	state uint32
}

// NewSwitches groups already constructed switches.
func NewSwitches(list ...*Switch) *Switches {
	if len(list) > 32 {
		list = list[:32]
	}
	return &Switches{list: list}
}

// Scan polls every switch and returns their levels, switch i in bit i.
func (g *Switches) Scan() uint32 {
	var scanned uint32
	for i := len(g.list) - 1; i >= 0; i-- {
		scanned <<= 1
		if g.list[i].Get() {
			scanned |= 1
		}
	}
	g.state = scanned
	return scanned
}

// Get returns the level of switch i as of the last scan.
func (g *Switches) Get(i int) bool {
	return g.state>>uint(i)&1 != 0
}
