package core

import "tinygo.org/x/drivers"

// I2CAddress is a 7-bit I2C device address.
type I2CAddress uint8

// I2CDevice describes the device polled by the I2C capture source: Length
// bytes are read starting at Register.
type I2CDevice struct {
	Bus      drivers.I2C
	Address  I2CAddress
	Register []byte
	Length   int
}

// Read performs one register read into buf, which must hold Length bytes.
func (d *I2CDevice) Read(buf []byte) error {
	return d.Bus.Tx(uint16(d.Address), d.Register, buf[:d.Length])
}
