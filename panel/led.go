package panel

import (
	"datalogger/core"
)

// Mode is the pattern an Led is running.
type Mode uint8

const (
	Off   Mode = 0
	Flash Mode = 1 // one on phase, then off
	Blink Mode = 2 // on/off phases, repeat times or forever
	On    Mode = 3
	None  Mode = 0xff // no staged pattern
)

// Led flags
const (
	LF_NO_UPDATE = 1 << 0 // staged pattern waits for the first off phase
	LF_ON        = 1 << 1 // current pin level
	LF_PHASE     = 1 << 2 // 1 during the on phase
	LF_BUSY      = 1 << 3 // pattern still running
)

// DefaultTickMs is the Tick period the presets are scaled for unless the
// board says otherwise.
const DefaultTickMs = 10

type ledPattern struct {
	mode    Mode
	counter uint8
	on      uint16
	off     uint16
}

// Led is a status LED driven by a periodic Tick. Set stages a new pattern
// from task context; Tick adopts it and drives the pin. A running pattern
// keeps its first on phase before a newly staged one can take over, so
// every pattern is visible at least once.
type Led struct {
	pin    core.GPIOPin
	gpio   core.GPIODriver
	tickMs uint16

	staged ledPattern
	state  ledPattern
	timer  uint16
	flags  uint8
}

// NewLed configures pin as an output, initially dark, ticked every tickMs.
func NewLed(gpio core.GPIODriver, pin core.GPIOPin, tickMs uint16) (*Led, error) {
	if err := gpio.ConfigureOutput(pin); err != nil {
		return nil, err
	}
	if err := gpio.SetPin(pin, false); err != nil {
		return nil, err
	}
	if tickMs == 0 {
		tickMs = DefaultTickMs
	}
	return &Led{
		pin:    pin,
		gpio:   gpio,
		tickMs: tickMs,
		staged: ledPattern{mode: None},
	}, nil
}

// Set stages a pattern. on and off are in ticks; repeat 0 blinks forever.
// A Flash with off 0 lights once and then goes dark.
func (l *Led) Set(mode Mode, on, off uint16, repeat uint8) {
	if on == 0 {
		on = 1
	}
	state := core.DisableInterrupts()
	l.staged = ledPattern{mode: mode, counter: repeat, on: on, off: off}
	core.RestoreInterrupts(state)
}

// Mode returns the mode currently running.
func (l *Led) Mode() Mode {
	return l.state.mode
}

// Lit reports the level last written to the pin.
func (l *Led) Lit() bool {
	return l.flags&LF_ON != 0
}

// Busy is true while a staged pattern has not been adopted or a flash or
// counted blink has not finished.
func (l *Led) Busy() bool {
	state := core.DisableInterrupts()
	defer core.RestoreInterrupts(state)
	return l.staged.mode != None || l.flags&LF_BUSY != 0
}

// Tick advances the pattern by one period and writes the pin.
func (l *Led) Tick() {
	if l.staged.mode != None && l.flags&LF_NO_UPDATE == 0 {
		l.adopt()
	} else {
		if l.state.mode == Blink || l.state.mode == Flash {
			l.step()
		}
		switch l.state.mode {
		case On:
			l.flags |= LF_ON
		case Off:
			l.flags &^= LF_ON
		}
	}
	_ = l.gpio.SetPin(l.pin, l.flags&LF_ON != 0)
}

func (l *Led) adopt() {
	l.state = l.staged
	l.staged.mode = None

	if l.state.mode == On || l.state.mode == Off {
		l.flags = 0
		if l.state.mode == On {
			l.flags |= LF_ON
		}
		l.timer = 0
		return
	}
	l.flags = LF_ON | LF_PHASE | LF_NO_UPDATE | LF_BUSY
	l.timer = l.state.on
}

func (l *Led) step() {
	l.timer--

	if l.flags&LF_PHASE == 0 {
		l.flags &^= LF_NO_UPDATE
	}
	if l.timer != 0 {
		return
	}

	if l.flags&LF_PHASE != 0 {
		// end of on phase
		l.flags &^= LF_ON | LF_PHASE
		l.timer = l.state.off
		if l.timer == 0 {
			l.timer = 1
		}
		return
	}

	// end of off phase
	if l.state.counter != 0 {
		l.state.counter--
		if l.state.counter == 0 {
			l.state.mode = Off
			l.flags &^= LF_BUSY
		}
	}
	if l.state.off == 0 {
		l.state.mode = Off
		l.flags &^= LF_BUSY
		return
	}
	if l.state.mode == Off {
		return
	}
	l.flags |= LF_ON | LF_PHASE
	l.timer = l.state.on
}

// ticks converts milliseconds to ticks of this LED, at least one.
func (l *Led) ticks(ms uint16) uint16 {
	t := ms / l.tickMs
	if t == 0 && ms != 0 {
		t = 1
	}
	return t
}

// Steady states: lit or dark until the next Set.
func (l *Led) On()  { l.Set(On, 0, 0, 0) }
func (l *Led) Off() { l.Set(Off, 0, 0, 0) }

// Flashes: a short on phase, a long off phase.
func (l *Led) FlashFast() { l.Set(Blink, l.ticks(300), l.ticks(1000), 0) }
func (l *Led) Flash()     { l.Set(Blink, l.ticks(300), l.ticks(2000), 0) }
func (l *Led) FlashSlow() { l.Set(Blink, l.ticks(300), l.ticks(3000), 0) }

// Blinks: equal on and off phases.
func (l *Led) BlinkFast() { l.Set(Blink, l.ticks(300), l.ticks(300), 0) }
func (l *Led) Blink()     { l.Set(Blink, l.ticks(800), l.ticks(800), 0) }
func (l *Led) BlinkSlow() { l.Set(Blink, l.ticks(1500), l.ticks(1500), 0) }

// One-shots: a single on phase, then dark.
func (l *Led) ShortOneshot() { l.Set(Flash, l.ticks(300), 0, 0) }
func (l *Led) Oneshot()      { l.Set(Flash, l.ticks(800), 0, 0) }
func (l *Led) LongOneshot()  { l.Set(Flash, l.ticks(1500), 0, 0) }

// Leds is the set of LEDs ticked together by the periodic timer.
type Leds []*Led

// Tick advances every LED in the set.
func (s Leds) Tick() {
	for _, l := range s {
		l.Tick()
	}
}
