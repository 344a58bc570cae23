package core

// Parity of the serial capture line.
type Parity uint8

const (
	ParityNone Parity = iota
	ParityOdd
	ParityEven
)

// String returns the single-letter form used in configuration files.
func (p Parity) String() string {
	switch p {
	case ParityOdd:
		return "O"
	case ParityEven:
		return "E"
	}
	return "N"
}

// MarshalText renders the parity as N, O or E.
func (p Parity) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UARTConfig carries the line parameters of the serial capture source.
type UARTConfig struct {
	BaudRate uint32
	DataBits uint8
	Parity   Parity
	StopBits uint8
}

// UARTDriver is a receive-only serial port. Read must not block: it returns
// whatever has been buffered since the last call.
type UARTDriver interface {
	Configure(cfg UARTConfig) error
	Buffered() int
	Read(p []byte) (int, error)
}
