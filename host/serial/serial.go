// Package serial connects the serial capture source to a host serial port.
package serial

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"datalogger/core"
)

// rxBufferSize is the receive queue between the reader goroutine and the
// capture loop.
const rxBufferSize = 4096

// Config holds the host side of the serial port.
type Config struct {
	// Device path (e.g., "/dev/ttyUSB0", "COM3")
	Device string

	// Read timeout in milliseconds, bounds how long Close waits for the reader
	ReadTimeout int
}

// DefaultConfig returns the configuration for device.
func DefaultConfig(device string) *Config {
	return &Config{
		Device:      device,
		ReadTimeout: 100,
	}
}

// Port is a receive-only capture port. A reader goroutine moves incoming
// bytes into a queue so that Read never blocks the capture loop. Bytes
// arriving while the queue is full are dropped and counted.
type Port struct {
	cfg  *Config
	rx   *core.FifoBuffer
	log  *log.Entry
	mu   sync.Mutex
	port io.ReadCloser
	done chan struct{}
}

// NewPort returns a closed port for cfg. Configure opens it.
func NewPort(cfg *Config) *Port {
	return &Port{
		cfg: cfg,
		rx:  core.NewFifoBuffer(rxBufferSize),
		log: core.Logger("Serial").WithField("device", cfg.Device),
	}
}

// Configure (re)opens the device with the given line parameters.
func (p *Port) Configure(line core.UARTConfig) error {
	if p.cfg == nil || p.cfg.Device == "" {
		return errors.New("serial: no device configured")
	}
	p.Close()

	port, err := openPort(p.cfg, line)
	if err != nil {
		return fmt.Errorf("failed to open serial port %s: %w", p.cfg.Device, err)
	}
	p.rx.Reset()

	p.mu.Lock()
	p.port = port
	p.done = make(chan struct{})
	p.mu.Unlock()

	go p.reader(port, p.done)
	p.log.Infof("opened %d %d%s%d", line.BaudRate, dataBits(line), line.Parity, stopBits(line))
	return nil
}

func (p *Port) reader(port io.ReadCloser, done chan struct{}) {
	defer close(done)
	buf := make([]byte, 256)
	for {
		n, err := port.Read(buf)
		if n > 0 {
			p.rx.Write(buf[:n])
		}
		if err != nil && err != io.EOF {
			p.log.Debugf("reader stopped: %v", err)
			return
		}
		if err == io.EOF && n == 0 && p.closed(port) {
			return
		}
	}
}

func (p *Port) closed(port io.ReadCloser) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.port != port
}

// Buffered returns the bytes waiting in the receive queue.
func (p *Port) Buffered() int {
	return p.rx.Available()
}

// Read drains up to len(b) queued bytes. It never blocks.
func (p *Port) Read(b []byte) (int, error) {
	return p.rx.Read(b), nil
}

// Lost returns how many received bytes were dropped on overflow.
func (p *Port) Lost() uint32 {
	return p.rx.Lost()
}

// Close closes the device and waits for the reader to finish.
func (p *Port) Close() error {
	p.mu.Lock()
	port, done := p.port, p.done
	p.port, p.done = nil, nil
	p.mu.Unlock()

	if port == nil {
		return nil
	}
	err := port.Close()
	select {
	case <-done:
	case <-time.After(time.Duration(p.cfg.ReadTimeout+100) * time.Millisecond):
		p.log.Warn("reader did not stop")
	}
	return err
}

func dataBits(line core.UARTConfig) uint8 {
	if line.DataBits == 0 {
		return 8
	}
	return line.DataBits
}

func stopBits(line core.UARTConfig) uint8 {
	if line.StopBits == 0 {
		return 1
	}
	return line.StopBits
}
