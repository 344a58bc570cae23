package core

// Clock supplies the millisecond uptime counter. It wraps after ~49 days;
// all comparisons against it go through TimeAfter.
type Clock interface {
	Millis() uint32
}

// SystemClock reads the global tick counter advanced by the platform.
type SystemClock struct{}

// Millis returns the current uptime in milliseconds.
func (SystemClock) Millis() uint32 {
	return GetTime()
}

// GetTime returns the current system time in ticks
func GetTime() uint32 {
	return getSystemTicks()
}

// SetTime sets the current system time (for hardware integration)
func SetTime(ticks uint32) {
	setSystemTicks(ticks)
}

// TimeAfter reports whether a is at or after b, tolerating counter wrap.
func TimeAfter(a, b uint32) bool {
	return int32(a-b) >= 0
}

// ManualClock is a Clock whose time only moves when told to.
type ManualClock struct {
	now uint32
}

// NewManualClock returns a clock starting at start milliseconds.
func NewManualClock(start uint32) *ManualClock {
	return &ManualClock{now: start}
}

func (c *ManualClock) Millis() uint32 { return c.now }

// Advance moves the clock forward by ms.
func (c *ManualClock) Advance(ms uint32) { c.now += ms }

// Set jumps to an absolute time.
func (c *ManualClock) Set(ms uint32) { c.now = ms }
