package core

// ADCChannel identifies a logical analog input, A0 is channel 0.
type ADCChannel uint8

// ADCValue is the raw conversion result as produced by the hardware.
type ADCValue uint16

// ADCDriver is the abstract ADC interface that the capture engine uses.
type ADCDriver interface {
	// ConfigureChannel prepares a channel for analog input.
	ConfigureChannel(ch ADCChannel) error

	// ReadRaw performs a one-shot conversion on the given channel.
	ReadRaw(ch ADCChannel) (ADCValue, error)
}
