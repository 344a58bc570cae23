package sim

import (
	"errors"
	"sync"
)

// ErrNoDevice is returned for transfers to an address nothing answers on.
var ErrNoDevice = errors.New("i2c: no device at address")

// I2C is a simulated bus with register-file devices. The first written byte
// of a transfer selects the register; further written bytes are stored, and
// reads continue from the selected register.
type I2C struct {
	mu      sync.Mutex
	devices map[uint16][]byte
}

// NewI2C returns a bus with no devices.
func NewI2C() *I2C {
	return &I2C{devices: make(map[uint16][]byte)}
}

// AddDevice attaches a device with the given register contents.
func (b *I2C) AddDevice(addr uint16, regs []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	mem := make([]byte, 256)
	copy(mem, regs)
	b.devices[addr] = mem
}

// Tx implements the tinygo drivers.I2C transfer.
func (b *I2C) Tx(addr uint16, w, r []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	mem, ok := b.devices[addr]
	if !ok {
		return ErrNoDevice
	}
	reg := 0
	if len(w) > 0 {
		reg = int(w[0])
		for i, v := range w[1:] {
			mem[(reg+i)&0xff] = v
		}
	}
	for i := range r {
		r[i] = mem[(reg+i)&0xff]
	}
	return nil
}

func (b *I2C) ReadRegister(addr uint8, r uint8, buf []byte) error {
	return b.Tx(uint16(addr), []byte{r}, buf)
}

func (b *I2C) WriteRegister(addr uint8, r uint8, buf []byte) error {
	return b.Tx(uint16(addr), append([]byte{r}, buf...), nil)
}
