package sim

import (
	"sync"

	"datalogger/core"
)

// UART is a simulated receive-only serial port. Bytes given to Feed are
// queued as if they had arrived on the line.
type UART struct {
	mu     sync.Mutex
	cfg    core.UARTConfig
	opened bool
	rx     *core.FifoBuffer
}

// NewUART returns a port with a receive queue of size bytes.
func NewUART(size int) *UART {
	return &UART{rx: core.NewFifoBuffer(size)}
}

func (u *UART) Configure(cfg core.UARTConfig) error {
	u.mu.Lock()
	u.cfg = cfg
	u.opened = true
	u.mu.Unlock()
	u.rx.Reset()
	return nil
}

func (u *UART) Buffered() int { return u.rx.Available() }

func (u *UART) Read(p []byte) (int, error) {
	return u.rx.Read(p), nil
}

// Feed queues received bytes and returns how many fit.
func (u *UART) Feed(data []byte) int {
	return u.rx.Write(data)
}

// Config returns the last applied line parameters and whether Configure
// was called.
func (u *UART) Config() (core.UARTConfig, bool) {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.cfg, u.opened
}

// Lost returns how many fed bytes were dropped on overflow.
func (u *UART) Lost() uint32 { return u.rx.Lost() }
