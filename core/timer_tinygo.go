//go:build tinygo

package core

import "time"

var bootTime = time.Now()

// getSystemTicks derives the millisecond counter from the runtime clock.
// The value wraps at 2^32 ms.
func getSystemTicks() uint32 {
	return uint32(time.Since(bootTime).Milliseconds()) + tickOffset
}

var tickOffset uint32

func setSystemTicks(ticks uint32) {
	tickOffset = 0
	tickOffset = ticks - getSystemTicks()
}
