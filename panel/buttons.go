package panel

import (
	"datalogger/core"
)

// Bits per input in a packed group word.
const stateBits = 3

// MaxButtons is the number of 3-bit slots in a Packed word.
const MaxButtons = 32 / stateBits

// Packed holds one State per input, input i in bits 3i..3i+2.
type Packed uint32

// Get returns the state of input i.
func (p Packed) Get(i int) State {
	return State(p>>(uint(i)*stateBits)) & (1<<stateBits - 1)
}

// Set replaces the state of input i. Idle leaves the slot unchanged.
func (p *Packed) Set(i int, s State) {
	if s == Idle {
		return
	}
	p.Clear(i)
	*p |= Packed(s) << (uint(i) * stateBits)
}

// Clear resets input i to Idle.
func (p *Packed) Clear(i int) {
	*p &^= (1<<stateBits - 1) << (uint(i) * stateBits)
}

// Buttons is a group of buttons scanned together. The group keeps the last
// event of every button until the caller clears it.
type Buttons struct {
	list  []*Button
	state Packed
}

// NewButtons configures one Button per pin.
func NewButtons(gpio core.GPIODriver, clock core.Clock, pins ...core.GPIOPin) (*Buttons, error) {
	if len(pins) > MaxButtons {
		pins = pins[:MaxButtons]
	}
	g := &Buttons{list: make([]*Button, 0, len(pins))}
	for _, pin := range pins {
		b, err := NewButton(gpio, clock, pin)
		if err != nil {
			return nil, err
		}
		g.list = append(g.list, b)
	}
	core.Logger("Button").Debugf("init %d button(s)", len(g.list))
	return g, nil
}

// Len returns the number of buttons in the group.
func (g *Buttons) Len() int {
	return len(g.list)
}

// Scan polls every button. Non-idle results are latched into the group's
// state; the return value packs this scan's states only.
func (g *Buttons) Scan() Packed {
	var scanned Packed
	for i := len(g.list) - 1; i >= 0; i-- {
		s := g.list[i].Get()
		scanned <<= stateBits
		if s != Idle {
			scanned |= Packed(s)
			g.state.Set(i, s)
		}
	}
	return scanned
}

// Get returns the latched state of button i.
func (g *Buttons) Get(i int) State {
	return g.state.Get(i)
}

// Clear resets the latched state of button i.
func (g *Buttons) Clear(i int) {
	g.state.Clear(i)
}

// State returns all latched states.
func (g *Buttons) State() Packed {
	return g.state
}
