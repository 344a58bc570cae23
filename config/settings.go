// Package config holds the device settings and reads them from the
// configuration file on the storage card.
package config

import (
	"strings"

	"datalogger/core"
)

// DefaultConfigFileName is the file read from the root of the card.
const DefaultConfigFileName = "config.txt"

// MaxFileName is the longest accepted capture file name (8.3).
const MaxFileName = 12

// MaxPattern is the longest StartSample / StopSample pattern.
const MaxPattern = 8

// FileType selects the capture file encoding.
type FileType uint8

const (
	FileBinary FileType = 0
	FileText   FileType = 1
)

func (t FileType) String() string {
	if t == FileText {
		return "TXT"
	}
	return "BIN"
}

// MarshalText renders the type the way it is written in config.txt.
func (t FileType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// Source is the capture source bitmask:
//
//	15 14 13 12 11 10  9  8   7   6  5  4  3  2  1  0
//	D7 D6 D5 D4 D3 D2 D1 D0 I2C SIO A5 A4 A3 A2 A1 A0
type Source uint16

const (
	SourceSerial Source = 1 << 6
	SourceI2C    Source = 1 << 7

	AnalogInputs  = 6
	DigitalInputs = 8

	// pins shared with the I2C bus (A4/SDA, A5/SCL)
	i2cPins = 0x30
)

// AnalogSource returns the bit enabling analog input ch (A0..A5).
func AnalogSource(ch int) Source {
	return Source(1) << uint(ch)
}

// DigitalSource returns the bit enabling digital input pin (D0..D7).
func DigitalSource(pin int) Source {
	return Source(1) << uint(8+pin)
}

// Analog returns the enabled analog inputs, A0 in bit 0.
func (s Source) Analog() uint8 {
	return uint8(s) & 0x3f
}

// Digital returns the enabled digital inputs, D0 in bit 0.
func (s Source) Digital() uint8 {
	return uint8(s >> 8)
}

func (s Source) Serial() bool { return s&SourceSerial != 0 }
func (s Source) I2C() bool    { return s&SourceI2C != 0 }

// Resolve applies the pin sharing rules: an input enabled as both analog
// and digital stays analog, and I2C claims A4/A5 from either use.
func (s Source) Resolve() Source {
	analog := s.Analog()
	digital := s.Digital() &^ analog
	if s.I2C() {
		analog &^= i2cPins
		digital &^= i2cPins
	}
	return Source(analog) | s&(SourceSerial|SourceI2C) | Source(digital)<<8
}

// String lists the enabled sources in config file syntax.
func (s Source) String() string {
	var parts []string
	if s.Serial() {
		parts = append(parts, "SIO")
	}
	if s.I2C() {
		parts = append(parts, "I2C")
	}
	for i := 0; i < AnalogInputs; i++ {
		if s&AnalogSource(i) != 0 {
			parts = append(parts, "A"+string(rune('0'+i)))
		}
	}
	for i := 0; i < DigitalInputs; i++ {
		if s&DigitalSource(i) != 0 {
			parts = append(parts, "D"+string(rune('0'+i)))
		}
	}
	return strings.Join(parts, ", ")
}

// MarshalText renders the source list the way it is written in config.txt.
func (s Source) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Settings is the device configuration. Rates are sampling periods in
// milliseconds; 0 samples on every capture cycle.
type Settings struct {
	ConfigFileName     string      `yaml:"config_file_name"`
	FileName           string      `yaml:"file_name"`
	FileType           FileType    `yaml:"file_type"`
	FileSize           uint64      `yaml:"file_size"`
	CaptureSource      Source      `yaml:"capture_source"`
	SamplingRate       uint32      `yaml:"sampling_rate_ms"`
	SerialSamplingRate uint32      `yaml:"serial_sampling_rate_ms"`
	I2cSamplingRate    uint32      `yaml:"i2c_sampling_rate_ms"`
	StartSample        string      `yaml:"start_sample,omitempty"`
	StopSample         string      `yaml:"stop_sample,omitempty"`
	SerialBaudrate     uint32      `yaml:"serial_baudrate"`
	SerialBits         uint8       `yaml:"serial_bits"`
	SerialParity       core.Parity `yaml:"serial_parity"`
	SerialStopBits     uint8       `yaml:"serial_stop_bits"`
	SystemTime         uint32      `yaml:"system_time,omitempty"`
}

// Default returns the settings used for anything config.txt leaves out.
func Default() *Settings {
	return &Settings{
		ConfigFileName:     DefaultConfigFileName,
		FileName:           "capture.txt",
		FileType:           FileText,
		SamplingRate:       1000,
		SerialSamplingRate: 0,
		I2cSamplingRate:    1000,
		SerialBaudrate:     9600,
		SerialBits:         8,
		SerialParity:       core.ParityNone,
		SerialStopBits:     1,
	}
}

// UART returns the serial line parameters.
func (s *Settings) UART() core.UARTConfig {
	return core.UARTConfig{
		BaudRate: s.SerialBaudrate,
		DataBits: s.SerialBits,
		Parity:   s.SerialParity,
		StopBits: s.SerialStopBits,
	}
}
