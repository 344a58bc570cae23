// Package sim provides in-memory stand-ins for the board peripherals so the
// firmware can run on a workstation and under test.
package sim

import (
	"fmt"
	"sync"

	"datalogger/core"
)

type pinState struct {
	output bool
	pull   core.Pull
	level  bool
	writes int
}

// GPIO is a simulated GPIO bank. Inputs float to their pull level until
// driven with Drive.
type GPIO struct {
	mu   sync.Mutex
	pins map[core.GPIOPin]*pinState
	max  core.GPIOPin
}

// NewGPIO returns a bank with pins 0..max.
func NewGPIO(max core.GPIOPin) *GPIO {
	return &GPIO{pins: make(map[core.GPIOPin]*pinState), max: max}
}

func (g *GPIO) pin(pin core.GPIOPin) (*pinState, error) {
	if pin > g.max {
		return nil, fmt.Errorf("invalid pin %d", pin)
	}
	p, ok := g.pins[pin]
	if !ok {
		p = &pinState{}
		g.pins[pin] = p
	}
	return p, nil
}

func (g *GPIO) ConfigureOutput(pin core.GPIOPin) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	p, err := g.pin(pin)
	if err != nil {
		return err
	}
	p.output = true
	return nil
}

func (g *GPIO) ConfigureInput(pin core.GPIOPin, pull core.Pull) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	p, err := g.pin(pin)
	if err != nil {
		return err
	}
	p.output = false
	p.pull = pull
	p.level = pull == core.PullUp
	return nil
}

func (g *GPIO) SetPin(pin core.GPIOPin, value bool) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	p, err := g.pin(pin)
	if err != nil {
		return err
	}
	if !p.output {
		return fmt.Errorf("pin %d is not an output", pin)
	}
	p.level = value
	p.writes++
	return nil
}

func (g *GPIO) ReadPin(pin core.GPIOPin) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if p, ok := g.pins[pin]; ok {
		return p.level
	}
	return false
}

// Drive sets the external level seen on an input pin.
func (g *GPIO) Drive(pin core.GPIOPin, level bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if p, err := g.pin(pin); err == nil {
		p.level = level
	}
}

// Level returns the current level of any pin.
func (g *GPIO) Level(pin core.GPIOPin) bool {
	return g.ReadPin(pin)
}

// IsOutput reports whether pin was configured as an output.
func (g *GPIO) IsOutput(pin core.GPIOPin) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	p, ok := g.pins[pin]
	return ok && p.output
}

// Writes returns how many times SetPin was called on pin.
func (g *GPIO) Writes(pin core.GPIOPin) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	if p, ok := g.pins[pin]; ok {
		return p.writes
	}
	return 0
}
