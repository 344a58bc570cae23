package panel

import (
	"testing"

	"datalogger/core"
	"datalogger/host/sim"
)

const btnPin = core.GPIOPin(4)

type buttonRig struct {
	gpio  *sim.GPIO
	clock *core.ManualClock
	btn   *Button
}

func newButtonRig(t *testing.T) *buttonRig {
	gpio := sim.NewGPIO(16)
	clock := core.NewManualClock(0)
	b, err := NewButton(gpio, clock, btnPin)
	if err != nil {
		t.Fatalf("NewButton failed: %v", err)
	}
	r := &buttonRig{gpio: gpio, clock: clock, btn: b}
	r.hold(false, 20)
	return r
}

// hold drives the pin (pressed = low) and polls once per millisecond,
// returning every edge event seen.
func (r *buttonRig) hold(pressed bool, ms int) []State {
	r.gpio.Drive(btnPin, !pressed)
	var events []State
	for i := 0; i < ms; i++ {
		r.clock.Advance(1)
		if s := r.btn.Get(); s != Idle && s != Pressed {
			events = append(events, s)
		}
	}
	return events
}

func TestButtonPressClasses(t *testing.T) {
	tests := []struct {
		name string
		held int
		want State
	}{
		{"short", 500, ShortPressed},
		{"long threshold is still short", LongPressMs, ShortPressed},
		{"just past long threshold", LongPressMs + 1, LongPressed},
		{"long", 2000, LongPressed},
		{"very long threshold is still long", VeryLongPressMs, LongPressed},
		{"just past very long threshold", VeryLongPressMs + 1, VeryLongPressed},
		{"very long", 3500, VeryLongPressed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newButtonRig(t)

			events := r.hold(true, tt.held)
			if len(events) != 1 || events[0] != JustPressed {
				t.Fatalf("Expected [JustPressed], got %v", events)
			}
			if s := r.btn.Get(); s != Pressed {
				t.Errorf("Expected Pressed while held, got %v", s)
			}

			events = r.hold(false, 50)
			if len(events) != 1 || events[0] != tt.want {
				t.Errorf("Expected [%v], got %v", tt.want, events)
			}
			if s := r.btn.Get(); s != Idle {
				t.Errorf("Expected Idle after release, got %v", s)
			}
		})
	}
}

func TestButtonBounce(t *testing.T) {
	r := newButtonRig(t)

	// contact chatter every 2 ms never settles long enough
	for i := 0; i < 20; i++ {
		if events := r.hold(i%2 == 0, 2); len(events) != 0 {
			t.Fatalf("Expected no events while bouncing, got %v", events)
		}
	}

	events := r.hold(true, 30)
	if len(events) != 1 || events[0] != JustPressed {
		t.Errorf("Expected press once settled, got %v", events)
	}
}

func TestButtonDebounceThreshold(t *testing.T) {
	r := newButtonRig(t)
	r.gpio.Drive(btnPin, false)

	r.btn.Get() // edge seen at t=20
	r.clock.Advance(DebounceMs)
	r.btn.Get() // exactly the window, still unstable
	r.clock.Advance(1)
	if s := r.btn.Get(); s != Idle {
		t.Errorf("Expected Idle on the stabilising sample, got %v", s)
	}
	r.clock.Advance(1)
	if s := r.btn.Get(); s != JustPressed {
		t.Errorf("Expected JustPressed after debounce, got %v", s)
	}
}

func TestPackedState(t *testing.T) {
	var p Packed

	p.Set(0, ShortPressed)
	p.Set(2, VeryLongPressed)
	if p.Get(0) != ShortPressed || p.Get(1) != Idle || p.Get(2) != VeryLongPressed {
		t.Errorf("Unexpected packed contents %#x", uint32(p))
	}

	p.Set(0, Idle)
	if p.Get(0) != ShortPressed {
		t.Errorf("Expected Set(Idle) to leave slot alone, got %v", p.Get(0))
	}

	p.Set(0, LongPressed)
	if p.Get(0) != LongPressed {
		t.Errorf("Expected LongPressed, got %v", p.Get(0))
	}

	p.Clear(2)
	if p.Get(2) != Idle || p.Get(0) != LongPressed {
		t.Errorf("Clear touched the wrong slot: %#x", uint32(p))
	}
}

func TestButtonsScan(t *testing.T) {
	gpio := sim.NewGPIO(16)
	clock := core.NewManualClock(0)
	g, err := NewButtons(gpio, clock, 4, 5)
	if err != nil {
		t.Fatalf("NewButtons failed: %v", err)
	}
	if g.Len() != 2 {
		t.Fatalf("Expected 2 buttons, got %d", g.Len())
	}

	// scan returns the first non-idle scan result
	scan := func(ms int) Packed {
		var first Packed
		for i := 0; i < ms; i++ {
			clock.Advance(1)
			if s := g.Scan(); s != 0 && first == 0 {
				first = s
			}
		}
		return first
	}
	scan(20)

	gpio.Drive(5, false)
	if s := scan(30); s.Get(1) != JustPressed || s.Get(0) != Idle {
		t.Errorf("Expected JustPressed on button 1, got %#x", uint32(s))
	}
	scan(200)
	gpio.Drive(5, true)
	scan(30)

	if g.Get(1) != ShortPressed {
		t.Errorf("Expected latched ShortPressed, got %v", g.Get(1))
	}
	if g.Get(0) != Idle {
		t.Errorf("Expected button 0 idle, got %v", g.Get(0))
	}
	g.Clear(1)
	if g.State() != 0 {
		t.Errorf("Expected empty state after clear, got %#x", uint32(g.State()))
	}
}

func TestSwitch(t *testing.T) {
	gpio := sim.NewGPIO(16)
	clock := core.NewManualClock(0)
	sw, err := NewSwitch(gpio, clock, 8, true)
	if err != nil {
		t.Fatalf("NewSwitch failed: %v", err)
	}

	poll := func(ms int) bool {
		var v bool
		for i := 0; i < ms; i++ {
			clock.Advance(1)
			v = sw.Get()
		}
		return v
	}

	// pull-up idles high, inverted reads off
	if poll(20) {
		t.Error("Expected switch off with pin high")
	}

	gpio.Drive(8, false)
	if poll(5) {
		t.Error("Expected old level during debounce")
	}
	if !poll(20) {
		t.Error("Expected switch on with pin low")
	}

	group := NewSwitches(sw)
	if group.Scan() != 1 || !group.Get(0) {
		t.Error("Expected group bit 0 set")
	}
}
