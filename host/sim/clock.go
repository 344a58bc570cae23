package sim

import "time"

// Clock is a millisecond uptime counter backed by the wall clock.
type Clock struct {
	boot time.Time
}

// NewClock starts counting from zero now.
func NewClock() *Clock {
	return &Clock{boot: time.Now()}
}

func (c *Clock) Millis() uint32 {
	return uint32(time.Since(c.boot).Milliseconds())
}
