// Package capture samples the configured sources and writes timestamped
// lines to the capture file.
package capture

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"datalogger/config"
	"datalogger/core"
)

var (
	ErrNoSource     = errors.New("capture: no capture source defined")
	ErrNoBackupName = errors.New("capture: no free backup file name")
)

const (
	// maxBackups bounds the basename.NNN search.
	maxBackups = 1000

	// serialChunk is the most serial bytes taken per cycle.
	serialChunk = 64

	maxBaseName = 8
)

// Sources are the drivers behind the capture source bits. A source whose
// driver is nil is dropped at Setup.
type Sources struct {
	UART    core.UARTDriver
	I2C     *core.I2CDevice
	ADC     core.ADCDriver
	GPIO    core.GPIODriver
	Digital [config.DigitalInputs]core.GPIOPin
}

// Engine runs one capture session at a time.
type Engine struct {
	fs       afero.Fs
	settings *config.Settings
	clock    core.Clock
	flags    *core.Flags
	src      Sources
	log      *log.Entry
	pulse    func()

	source config.Source
	gate   *Gate
	file   afero.File

	line   []byte
	serial [serialChunk]byte
	i2c    []byte

	startTime  uint32
	sampleTime uint32
	nextSerial uint32
	nextI2C    uint32
	nextSample uint32
	samples    uint32
	written    uint64
}

// NewEngine returns an engine writing to fs. Settings are read at Setup and
// Start, so a reloaded configuration takes effect with the next session.
func NewEngine(fs afero.Fs, settings *config.Settings, clock core.Clock, flags *core.Flags, src Sources) *Engine {
	return &Engine{
		fs:       fs,
		settings: settings,
		clock:    clock,
		flags:    flags,
		src:      src,
		log:      core.Logger("Capture"),
		line:     make([]byte, 0, 128),
	}
}

// SetPulse installs the function signalled once per captured sample.
func (e *Engine) SetPulse(fn func()) {
	e.pulse = fn
}

// SetFS replaces the file system, used when the medium is remounted.
func (e *Engine) SetFS(fs afero.Fs) {
	e.fs = fs
}

// Setup validates the capture source and configures the hardware for it.
func (e *Engine) Setup() error {
	e.log.Info("Setup Capture")

	source := e.settings.CaptureSource.Resolve()
	if source.Serial() && e.src.UART == nil {
		e.log.Warn("no serial port, SIO disabled")
		source &^= config.SourceSerial
	}
	if source.I2C() && (e.src.I2C == nil || e.src.I2C.Bus == nil) {
		e.log.Warn("no I2C device, I2C disabled")
		source &^= config.SourceI2C
	}
	if source.Analog() != 0 && e.src.ADC == nil {
		e.log.Warn("no ADC, analog inputs disabled")
		source &^= config.Source(source.Analog())
	}
	if source.Digital() != 0 && e.src.GPIO == nil {
		e.log.Warn("no GPIO, digital inputs disabled")
		source &^= config.Source(source.Digital()) << 8
	}
	if source == 0 {
		e.log.Error("No capture source defined")
		return ErrNoSource
	}

	if source.Serial() {
		cfg := e.settings.UART()
		if err := e.src.UART.Configure(cfg); err != nil {
			return fmt.Errorf("configure serial: %w", err)
		}
		e.log.Debugf("serial %d %d%s%d", cfg.BaudRate, cfg.DataBits, cfg.Parity, cfg.StopBits)
	}
	if source.I2C() {
		e.i2c = make([]byte, e.src.I2C.Length)
		e.log.Debugf("i2c device 0x%02x, %d bytes", e.src.I2C.Address, e.src.I2C.Length)
	}
	for i := 0; i < config.AnalogInputs; i++ {
		if source&config.AnalogSource(i) == 0 {
			continue
		}
		if err := e.src.ADC.ConfigureChannel(core.ADCChannel(i)); err != nil {
			return fmt.Errorf("configure A%d: %w", i, err)
		}
		e.log.Debugf("%d: set analog channel to input", i)
	}
	for i := 0; i < config.DigitalInputs; i++ {
		if source&config.DigitalSource(i) == 0 {
			continue
		}
		pin := e.src.Digital[i]
		if err := e.src.GPIO.ConfigureInput(pin, core.PullUp); err != nil {
			return fmt.Errorf("configure D%d: %w", i, err)
		}
		e.log.Debugf("%d: set digital pin %d to input", i, pin)
	}

	e.source = source
	e.gate = NewGate(e.settings.StartSample, e.settings.StopSample)
	e.log.WithField("source", source).Debug("Setup Capture done")
	return nil
}

// Source returns the sources in use after Setup.
func (e *Engine) Source() config.Source {
	return e.source
}

// Start opens a fresh capture file. An existing file of the same name is
// first renamed to the next free basename.NNN.
func (e *Engine) Start() error {
	if e.file != nil {
		return nil
	}
	now := e.clock.Millis()
	e.samples = 0
	e.written = 0
	e.startTime = now
	e.sampleTime = now
	e.nextSerial = now
	e.nextI2C = now
	e.nextSample = now
	if e.gate != nil {
		e.gate.Reset()
	}

	name := e.settings.FileName
	if _, err := e.fs.Stat(name); err == nil {
		backup, err := e.backupName(name)
		if err != nil {
			e.log.Errorf("Cannot rename <%s>", name)
			return err
		}
		if err := e.fs.Rename(name, backup); err != nil {
			e.flags.Set(core.FlagCardError)
			return fmt.Errorf("rename %s: %w", name, err)
		}
		e.log.Infof("rename <%s> to <%s>", name, backup)
	}

	f, err := e.fs.OpenFile(name, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		e.log.Errorf("Can't open capture file: <%s>", name)
		e.flags.Set(core.FlagCardError)
		return fmt.Errorf("open %s: %w", name, err)
	}
	e.file = f

	if e.settings.FileType == config.FileBinary {
		e.log.Warn("binary capture files are not supported, writing text")
	}
	entry := e.log.WithField("file", name)
	if e.settings.SystemTime != 0 {
		wall := time.Unix(int64(e.settings.SystemTime)+int64(now/1000), 0).UTC()
		entry = entry.WithField("time", wall.Format(config.SystemTimeLayout))
	}
	entry.Info("Start Capture")
	return nil
}

func (e *Engine) backupName(name string) (string, error) {
	base := name
	if i := strings.IndexByte(base, '.'); i >= 0 {
		base = base[:i]
	}
	if len(base) > maxBaseName {
		base = base[:maxBaseName]
	}
	for i := 0; i < maxBackups; i++ {
		candidate := fmt.Sprintf("%s.%03d", base, i)
		if _, err := e.fs.Stat(candidate); err != nil {
			return candidate, nil
		}
	}
	return "", ErrNoBackupName
}

// Active reports whether a session is open.
func (e *Engine) Active() bool {
	return e.file != nil
}

// Run samples every source that is due and appends one line for them.
// Returns true if a line was written. Write errors raise FlagCardError.
func (e *Engine) Run() bool {
	if e.file == nil || e.source == 0 {
		return false
	}
	now := e.clock.Millis()
	e.sampleTime = now

	line := core.AppendMillis(e.line[:0], now)
	stamp := len(line)

	if e.source.Serial() && core.TimeAfter(now, e.nextSerial) {
		line = e.sampleSerial(line)
		e.nextSerial = now + e.settings.SerialSamplingRate
	}
	if e.source.I2C() && core.TimeAfter(now, e.nextI2C) {
		line = e.sampleI2C(line)
		e.nextI2C = now + e.settings.I2cSamplingRate
	}
	if core.TimeAfter(now, e.nextSample) {
		line = e.sampleAnalog(line)
		line = e.sampleDigital(line)
		e.nextSample = now + e.settings.SamplingRate
	}
	e.line = line

	if len(line) == stamp {
		return false
	}
	line = append(line, '\n')
	e.line = line

	e.samples++
	if e.pulse != nil {
		e.pulse()
	}
	n, err := e.file.Write(line)
	e.written += uint64(n)
	if err != nil {
		e.log.Errorf("write failed: %v", err)
		e.flags.Set(core.FlagCardError)
		return false
	}
	return true
}

func (e *Engine) sampleSerial(line []byte) []byte {
	if e.src.UART.Buffered() == 0 {
		return line
	}
	n, err := e.src.UART.Read(e.serial[:])
	if err != nil {
		e.log.Warnf("serial read: %v", err)
	}
	if n == 0 {
		return line
	}
	mark := len(line)
	line = append(line, " SIO \""...)
	body := len(line)
	line = e.gate.Filter(line, e.serial[:n])
	if len(line) == body {
		return line[:mark]
	}
	return append(line, '"')
}

func (e *Engine) sampleI2C(line []byte) []byte {
	if err := e.src.I2C.Read(e.i2c); err != nil {
		e.log.Debugf("i2c read: %v", err)
		return line
	}
	line = append(line, " I2C"...)
	for _, b := range e.i2c {
		line = append(line, " 0x"...)
		line = core.AppendHex2(line, b)
	}
	return line
}

func (e *Engine) sampleAnalog(line []byte) []byte {
	mask := e.source.Analog()
	if mask == 0 {
		return line
	}
	line = append(line, " ADC"...)
	for i := 0; i < config.AnalogInputs; i++ {
		if mask&(1<<uint(i)) == 0 {
			continue
		}
		v, err := e.src.ADC.ReadRaw(core.ADCChannel(i))
		if err != nil {
			e.log.Debugf("A%d read: %v", i, err)
		}
		line = append(line, ' ')
		line = core.AppendUint(line, uint32(v))
	}
	return line
}

func (e *Engine) sampleDigital(line []byte) []byte {
	mask := e.source.Digital()
	if mask == 0 {
		return line
	}
	var value uint8
	for i := 0; i < config.DigitalInputs; i++ {
		if mask&(1<<uint(i)) != 0 && e.src.GPIO.ReadPin(e.src.Digital[i]) {
			value |= 1 << uint(i)
		}
	}
	line = append(line, " DIG 0x"...)
	return core.AppendHex2(line, value)
}

// Stop appends the session statistics and closes the capture file.
func (e *Engine) Stop() error {
	if e.file == nil {
		return nil
	}
	f := e.file
	e.file = nil

	summary := []string{
		"Capture start time: " + core.FormatMillis(e.startTime),
		"Capture end time:   " + core.FormatMillis(e.sampleTime),
		"Capture run time:   " + core.FormatMillis(e.sampleTime-e.startTime),
		"Captured " + string(core.AppendUint(nil, e.samples)) + " samples",
	}
	var werr error
	for _, s := range summary {
		e.log.Info(s)
		if werr == nil {
			_, werr = f.WriteString(s + "\n")
		}
	}
	cerr := f.Close()
	e.log.Info("Stopped Capture")
	if werr != nil {
		return fmt.Errorf("write summary: %w", werr)
	}
	return cerr
}

// Samples returns the number of lines captured in the current session.
func (e *Engine) Samples() uint32 {
	return e.samples
}

// Written returns the bytes written to the capture file so far.
func (e *Engine) Written() uint64 {
	return e.written
}

// Full reports whether the capture file reached the configured FileSize.
func (e *Engine) Full() bool {
	limit := e.settings.FileSize
	return e.file != nil && limit > 0 && e.written >= limit
}
