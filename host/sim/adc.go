package sim

import (
	"fmt"
	"sync"

	"datalogger/core"
)

// ADC is a simulated 10-bit converter with up to Channels inputs. Unset
// channels read a slow ramp so that captured files show movement.
type ADC struct {
	mu         sync.Mutex
	values     map[core.ADCChannel]core.ADCValue
	configured map[core.ADCChannel]bool
	ramp       core.ADCValue
}

// Channels is the number of analog inputs.
const Channels = 6

// NewADC returns an idle converter.
func NewADC() *ADC {
	return &ADC{
		values:     make(map[core.ADCChannel]core.ADCValue),
		configured: make(map[core.ADCChannel]bool),
	}
}

func (a *ADC) ConfigureChannel(ch core.ADCChannel) error {
	if ch >= Channels {
		return fmt.Errorf("invalid ADC channel %d", ch)
	}
	a.mu.Lock()
	a.configured[ch] = true
	a.mu.Unlock()
	return nil
}

func (a *ADC) ReadRaw(ch core.ADCChannel) (core.ADCValue, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.configured[ch] {
		return 0, fmt.Errorf("ADC channel %d not configured", ch)
	}
	if v, ok := a.values[ch]; ok {
		return v, nil
	}
	a.ramp = (a.ramp + 1) & 0x3ff
	return (a.ramp + core.ADCValue(ch)*128) & 0x3ff, nil
}

// Set pins channel ch to a fixed value.
func (a *ADC) Set(ch core.ADCChannel, v core.ADCValue) {
	a.mu.Lock()
	a.values[ch] = v
	a.mu.Unlock()
}
