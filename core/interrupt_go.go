//go:build !tinygo

package core

// State is the saved interrupt mask. The host build has no interrupts; the
// LED tick runs from the same loop as everything else.
type State uintptr

// DisableInterrupts masks the periodic tick and returns the previous state.
func DisableInterrupts() State {
	return 0
}

// RestoreInterrupts undoes DisableInterrupts.
func RestoreInterrupts(state State) {}
