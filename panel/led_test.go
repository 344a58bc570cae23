package panel

import (
	"testing"

	"datalogger/core"
	"datalogger/host/sim"
)

const ledPin = core.GPIOPin(2)

func newTestLed(t *testing.T) (*Led, *sim.GPIO) {
	gpio := sim.NewGPIO(16)
	l, err := NewLed(gpio, ledPin, 10)
	if err != nil {
		t.Fatalf("NewLed failed: %v", err)
	}
	return l, gpio
}

// trace ticks n times and returns the pin level after each tick.
func trace(l *Led, gpio *sim.GPIO, n int) []bool {
	out := make([]bool, n)
	for i := range out {
		l.Tick()
		out[i] = gpio.Level(ledPin)
	}
	return out
}

func countLit(levels []bool) int {
	n := 0
	for _, v := range levels {
		if v {
			n++
		}
	}
	return n
}

func TestLedOnOff(t *testing.T) {
	l, gpio := newTestLed(t)

	if gpio.Level(ledPin) {
		t.Fatal("Expected LED dark after construction")
	}
	l.On()
	if !l.Busy() {
		t.Error("Expected staged pattern to report busy")
	}
	l.Tick()
	if !gpio.Level(ledPin) || l.Mode() != On {
		t.Error("Expected LED lit after adopting On")
	}
	if l.Busy() {
		t.Error("Expected steady On not to be busy")
	}

	l.Off()
	l.Tick()
	if gpio.Level(ledPin) || l.Mode() != Off {
		t.Error("Expected LED dark after adopting Off")
	}
}

func TestLedOneshot(t *testing.T) {
	l, gpio := newTestLed(t)

	l.Set(Flash, 3, 0, 0)
	levels := trace(l, gpio, 10)
	want := []bool{true, true, true, false, false, false, false, false, false, false}
	for i := range want {
		if levels[i] != want[i] {
			t.Fatalf("Tick %d: expected %v, got %v (%v)", i, want[i], levels[i], levels)
		}
	}
	if l.Mode() != Off || l.Busy() {
		t.Errorf("Expected finished flash, mode %d busy %v", l.Mode(), l.Busy())
	}
}

func TestLedBlinkRepeat(t *testing.T) {
	l, gpio := newTestLed(t)

	// two on phases of 2 ticks separated by 3 dark ticks
	l.Set(Blink, 2, 3, 2)
	levels := trace(l, gpio, 20)
	if n := countLit(levels); n != 4 {
		t.Errorf("Expected 4 lit ticks, got %d (%v)", n, levels)
	}
	if l.Busy() || l.Mode() != Off {
		t.Errorf("Expected counted blink to end, mode %d", l.Mode())
	}
}

func TestLedBlinkForever(t *testing.T) {
	l, gpio := newTestLed(t)

	l.Set(Blink, 1, 1, 0)
	levels := trace(l, gpio, 100)
	if n := countLit(levels); n != 50 {
		t.Errorf("Expected half the ticks lit, got %d", n)
	}
	if !l.Busy() {
		t.Error("Expected endless blink to stay busy")
	}
}

func TestLedFirstPhaseProtected(t *testing.T) {
	l, gpio := newTestLed(t)

	l.Set(Blink, 5, 5, 0)
	l.Tick()
	l.On()

	// ticks 2..5 finish the on phase, 6 and 7 are dark, then On takes over
	levels := trace(l, gpio, 7)
	want := []bool{true, true, true, true, false, false, true}
	for i := range want {
		if levels[i] != want[i] {
			t.Fatalf("Tick %d: expected %v, got %v (%v)", i+2, want[i], levels[i], levels)
		}
	}
	if l.Mode() != On {
		t.Errorf("Expected On adopted, got mode %d", l.Mode())
	}
}

func TestLedPresetsScale(t *testing.T) {
	l, gpio := newTestLed(t)

	// 300 ms one-shot at a 10 ms tick
	l.ShortOneshot()
	if n := countLit(trace(l, gpio, 100)); n != 30 {
		t.Errorf("Expected 30 lit ticks, got %d", n)
	}

	l.FlashFast()
	levels := trace(l, gpio, 260)
	if n := countLit(levels); n != 60 {
		t.Errorf("Expected two 30-tick flashes in 2.6 s, got %d lit ticks", n)
	}
}

func TestLedsTick(t *testing.T) {
	gpio := sim.NewGPIO(16)
	a, _ := NewLed(gpio, 1, 10)
	b, _ := NewLed(gpio, 2, 10)
	set := Leds{a, b}

	a.On()
	b.On()
	set.Tick()
	if !gpio.Level(1) || !gpio.Level(2) {
		t.Error("Expected both LEDs lit")
	}
}
