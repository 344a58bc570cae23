package core

import "sync/atomic"

var (
	resetHandler func()
	resetPending atomic.Bool
)

// SetResetHandler registers the platform function that restarts the
// device. Targets install the watchdog here; the host rebuilds its state.
func SetResetHandler(handler func()) {
	resetHandler = handler
}

// RequestReset arms a reset. The handler runs from CheckPendingReset so
// that the caller can finish its current step first.
func RequestReset() {
	resetPending.Store(true)
}

// CheckPendingReset runs the reset handler if a reset was requested.
// Returns true if a reset was performed.
func CheckPendingReset() bool {
	if !resetPending.CompareAndSwap(true, false) {
		return false
	}
	if resetHandler != nil {
		resetHandler()
	}
	return true
}
