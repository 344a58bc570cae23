package serial

import (
	"io"
	"time"

	tarm "github.com/tarm/serial"

	"datalogger/core"
)

// openPort opens the device. Replaced in tests.
var openPort = func(cfg *Config, line core.UARTConfig) (io.ReadCloser, error) {
	port, err := tarm.OpenPort(tarmConfig(cfg, line))
	if err != nil {
		return nil, err
	}
	return port, nil
}

// tarmConfig maps the capture line parameters onto tarm/serial.
func tarmConfig(cfg *Config, line core.UARTConfig) *tarm.Config {
	c := &tarm.Config{
		Name:        cfg.Device,
		Baud:        int(line.BaudRate),
		ReadTimeout: time.Duration(cfg.ReadTimeout) * time.Millisecond,
		Size:        dataBits(line),
		Parity:      tarm.ParityNone,
		StopBits:    tarm.Stop1,
	}
	switch line.Parity {
	case core.ParityOdd:
		c.Parity = tarm.ParityOdd
	case core.ParityEven:
		c.Parity = tarm.ParityEven
	}
	if stopBits(line) == 2 {
		c.StopBits = tarm.Stop2
	}
	return c
}
