package control

import (
	"context"
	"errors"
	"time"

	"datalogger/core"
	"datalogger/panel"
)

// ErrReset is returned by Run after the reset handler ran. The caller
// rebuilds the device from scratch.
var ErrReset = errors.New("control: device reset")

// Task is one cooperative task. Step must return promptly.
type Task interface {
	Step()
}

// Device is the main loop: a periodic timer ticks the LEDs, then every task
// steps once per cycle.
type Device struct {
	clock  core.Clock
	timers core.TimerList
	leds   panel.Leds
	tasks  []Task
	tick   *core.Timer
}

// NewDevice creates the loop. LEDs are ticked every tickMs.
func NewDevice(clock core.Clock, tickMs uint32, leds panel.Leds, tasks ...Task) *Device {
	if tickMs == 0 {
		tickMs = panel.DefaultTickMs
	}
	d := &Device{clock: clock, leds: leds, tasks: tasks}
	d.tick = core.Periodic(clock, clock.Millis()+tickMs, tickMs, leds.Tick)
	d.timers.Schedule(d.tick)
	return d
}

// Poll runs one cycle. Returns true if a requested reset was performed.
func (d *Device) Poll() bool {
	d.timers.Dispatch(d.clock.Millis())
	for _, t := range d.tasks {
		t.Step()
	}
	return core.CheckPendingReset()
}

// Run polls every period until ctx is done or a reset happens.
func (d *Device) Run(ctx context.Context, period time.Duration) error {
	ticker := time.NewTicker(period)
	defer ticker.Stop()
	for {
		if d.Poll() {
			return ErrReset
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Shutdown cancels the LED timer.
func (d *Device) Shutdown() {
	d.timers.Cancel(d.tick)
}

// TaskFunc adapts a function to Task.
type TaskFunc func()

func (f TaskFunc) Step() { f() }
