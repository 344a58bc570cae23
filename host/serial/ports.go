package serial

import (
	"fmt"

	bugst "go.bug.st/serial"
)

// Ports lists the serial devices present on the host.
func Ports() ([]string, error) {
	ports, err := bugst.GetPortsList()
	if err != nil {
		return nil, fmt.Errorf("failed to list serial ports: %w", err)
	}
	return ports, nil
}
