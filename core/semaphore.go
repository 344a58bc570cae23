package core

import "sync/atomic"

// Signal is one bit of a Semaphores set.
type Signal uint32

// Semaphores is a set of binary one-shot signals. Give raises a signal,
// Take consumes it. Signals do not count: giving twice before a take is
// the same as giving once.
type Semaphores struct {
	bits atomic.Uint32
}

// Give raises s.
func (m *Semaphores) Give(s Signal) {
	for {
		old := m.bits.Load()
		if m.bits.CompareAndSwap(old, old|uint32(s)) {
			return
		}
	}
}

// Take consumes s and reports whether it was raised.
func (m *Semaphores) Take(s Signal) bool {
	for {
		old := m.bits.Load()
		if old&uint32(s) == 0 {
			return false
		}
		if m.bits.CompareAndSwap(old, old&^uint32(s)) {
			return true
		}
	}
}

// TakeAll consumes every raised signal and reports whether s was among them.
func (m *Semaphores) TakeAll(s Signal) bool {
	return m.bits.Swap(0)&uint32(s) != 0
}

// Peek reports whether s is raised without consuming it.
func (m *Semaphores) Peek(s Signal) bool {
	return m.bits.Load()&uint32(s) != 0
}

// Flag is one bit of a Flags word.
type Flag uint32

// Process-wide status flags.
const (
	FlagCardReady Flag = 1 << iota
	FlagCardError
)

// Flags is a small set of status bits shared between tasks.
type Flags struct {
	bits atomic.Uint32
}

// Set raises f.
func (f *Flags) Set(flag Flag) {
	for {
		old := f.bits.Load()
		if f.bits.CompareAndSwap(old, old|uint32(flag)) {
			return
		}
	}
}

// Clear lowers f.
func (f *Flags) Clear(flag Flag) {
	for {
		old := f.bits.Load()
		if f.bits.CompareAndSwap(old, old&^uint32(flag)) {
			return
		}
	}
}

// Has reports whether f is raised.
func (f *Flags) Has(flag Flag) bool {
	return f.bits.Load()&uint32(flag) != 0
}
