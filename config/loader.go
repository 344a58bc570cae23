package config

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"datalogger/core"
	"datalogger/scanner"
)

// ErrNoConfig is returned when the configuration file can neither be read
// nor created.
var ErrNoConfig = errors.New("config: cannot open or create configuration file")

const templateHeader = "# DataLogger configuration file"

// SystemTimeLayout is the quoted form accepted by SystemTime.
const SystemTimeLayout = "2006-01-02 15:04:05"

type param struct {
	name string
	set  func(*loader)
}

// params in file order. The template lists them in this order too.
var params = []param{
	{"FileName", (*loader).setFileName},
	{"FileType", (*loader).setFileType},
	{"FileSize", (*loader).setFileSize},
	{"CaptureSource", (*loader).setCaptureSource},
	{"SamplingRate", func(l *loader) { l.setRate("SamplingRate", &l.s.SamplingRate) }},
	{"SerialSamplingRate", func(l *loader) { l.setRate("SerialSamplingRate", &l.s.SerialSamplingRate) }},
	{"I2cSamplingRate", func(l *loader) { l.setRate("I2cSamplingRate", &l.s.I2cSamplingRate) }},
	{"StartSample", func(l *loader) { l.setPattern("StartSample", &l.s.StartSample) }},
	{"StopSample", func(l *loader) { l.setPattern("StopSample", &l.s.StopSample) }},
	{"SerialBaudrate", (*loader).setSerialBaudrate},
	{"SerialBits", (*loader).setSerialBits},
	{"SerialParity", (*loader).setSerialParity},
	{"SerialStopBits", (*loader).setSerialStopBits},
	{"SystemTime", (*loader).setSystemTime},
}

// ParamNames returns the recognised parameter names in file order.
func ParamNames() []string {
	names := make([]string, len(params))
	for i, p := range params {
		names[i] = p.name
	}
	return names
}

func lookup(sc *scanner.Scanner) *param {
	for i := range params {
		if sc.Is(params[i].name) {
			return &params[i]
		}
	}
	return nil
}

// Load reads s.ConfigFileName from fs into s. When the file cannot be
// opened a template listing every parameter is created instead and s is
// left unchanged.
func Load(fs afero.Fs, s *Settings) error {
	logger := core.Logger("Config")
	name := s.ConfigFileName
	if name == "" {
		name = DefaultConfigFileName
	}

	f, err := fs.Open(name)
	if err != nil {
		logger.Errorf("cannot open config file <%s>: %v", name, err)
		logger.Infof("create config file <%s>", name)
		if err := createTemplate(fs, name); err != nil {
			logger.Errorf("error creating config file <%s>: %v", name, err)
			return fmt.Errorf("%w: %v", ErrNoConfig, err)
		}
		return nil
	}
	defer f.Close()

	return Parse(f, s)
}

func createTemplate(fs afero.Fs, name string) error {
	f, err := fs.OpenFile(name, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	if err := WriteTemplate(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// WriteTemplate writes the default configuration file: a header and one
// commented line per parameter.
func WriteTemplate(w io.Writer) error {
	if _, err := io.WriteString(w, templateHeader+"\n"); err != nil {
		return err
	}
	for _, p := range params {
		if _, err := io.WriteString(w, "# "+p.name+"\n"); err != nil {
			return err
		}
	}
	return nil
}

// Parse reads "<Name> <value>" lines from r into s. Unknown names and
// invalid values are logged and skipped; the previous value is kept.
func Parse(r io.ReadSeeker, s *Settings) error {
	sc, err := scanner.Open(r)
	if err != nil {
		return err
	}
	defer sc.Close()

	l := &loader{sc: sc, s: s, log: core.Logger("Config")}
	for {
		switch sc.Next() {
		case scanner.EOF:
			return sc.Err()
		case scanner.EOL:
			continue
		case scanner.Ident:
			p := lookup(sc)
			if p == nil {
				l.warn("unknown parameter %q, line ignored", sc.Text())
				sc.SkipLine()
				continue
			}
			if t := sc.Next(); t == scanner.EOL || t == scanner.EOF {
				l.warn("%s without value", p.name)
				continue
			}
			p.set(l)
			l.finishLine()
		default:
			l.warn("unexpected %q, line ignored", sc.Text())
			sc.SkipLine()
		}
	}
}

type loader struct {
	sc  *scanner.Scanner
	s   *Settings
	log *log.Entry
}

func (l *loader) warn(format string, args ...interface{}) {
	l.log.WithField("line", l.sc.Line()).Warnf(format, args...)
}

func (l *loader) atLineEnd() bool {
	t := l.sc.Type()
	return t == scanner.EOL || t == scanner.EOF
}

// finishLine drops whatever a setter left unread on the current line.
func (l *loader) finishLine() {
	if l.atLineEnd() {
		return
	}
	if t := l.sc.Next(); t == scanner.EOL || t == scanner.EOF {
		return
	}
	l.warn("trailing %q ignored", l.sc.Text())
	l.sc.SkipLine()
}

func (l *loader) setFileName() {
	var name string
	if l.sc.Type() == scanner.String {
		name = l.sc.Unquoted()
	} else {
		name = l.sc.Text()
		for {
			if t := l.sc.Next(); t == scanner.EOL || t == scanner.EOF {
				break
			}
			name += l.sc.Text()
		}
	}
	if name == "" {
		l.warn("empty FileName")
		return
	}
	if len(name) > MaxFileName {
		l.warn("FileName <%s> too long, truncated", name)
		name = name[:MaxFileName]
	}
	l.s.FileName = name
	l.log.Infof("FileName: <%s>", name)
}

func (l *loader) setFileType() {
	switch {
	case l.sc.Is("TXT"):
		l.s.FileType = FileText
	case l.sc.Is("BIN"):
		l.s.FileType = FileBinary
	default:
		l.warn("FileType %q, expected TXT or BIN", l.sc.Text())
		return
	}
	l.log.Infof("FileType: %s", l.s.FileType)
}

var sizeUnits = []struct {
	name  string
	scale uint64
}{
	{"K", 1 << 10}, {"KB", 1 << 10},
	{"M", 1 << 20}, {"MB", 1 << 20},
	{"G", 1 << 30}, {"GB", 1 << 30},
}

func (l *loader) setFileSize() {
	if l.sc.Type() != scanner.Number {
		l.warn("FileSize %q is not a number", l.sc.Text())
		return
	}
	value, err := l.sc.DecimalValue()
	if err != nil {
		l.warn("FileSize: %v", err)
		return
	}
	size := uint64(value)
	if t := l.sc.Next(); t == scanner.Ident {
		scale := uint64(0)
		for _, u := range sizeUnits {
			if l.sc.Is(u.name) {
				scale = u.scale
				break
			}
		}
		if scale == 0 {
			l.warn("FileSize unit %q, expected K, M or G", l.sc.Text())
			return
		}
		size *= scale
	} else if t != scanner.EOL && t != scanner.EOF {
		l.warn("FileSize unit %q, expected K, M or G", l.sc.Text())
		return
	}
	l.s.FileSize = size
	l.log.Infof("FileSize: %d", size)
}

func (l *loader) setCaptureSource() {
	var src Source
	for t := l.sc.Type(); t != scanner.EOL && t != scanner.EOF; t = l.sc.Next() {
		text := l.sc.Text()
		switch {
		case t == scanner.Symbol && text == ",":
		case l.sc.Is("SIO"):
			src |= SourceSerial
		case l.sc.Is("I2C"):
			src |= SourceI2C
		case len(text) == 2 && upperByte(text[0]) == 'A':
			if i := int(text[1]) - '0'; i >= 0 && i < AnalogInputs {
				src |= AnalogSource(i)
			} else {
				l.warn("analog input %s out of range", text)
			}
		case len(text) == 2 && upperByte(text[0]) == 'D':
			if i := int(text[1]) - '0'; i >= 0 && i < DigitalInputs {
				src |= DigitalSource(i)
			} else {
				l.warn("digital input %s out of range", text)
			}
		default:
			l.warn("illegal source name %q", text)
		}
	}
	l.s.CaptureSource = src.Resolve()
	l.log.Infof("CaptureSource: 0x%04x (%s)", uint16(l.s.CaptureSource), l.s.CaptureSource)
}

func upperByte(c byte) byte {
	if c >= 'a' && c <= 'z' {
		return c - 'a' + 'A'
	}
	return c
}

const (
	msPerSecond = 1000
	msPerMinute = 60 * msPerSecond
	msPerHour   = 60 * msPerMinute
	msPerDay    = 24 * msPerHour
)

// rate converts the value at the scanner into a sampling period in ms.
// Accepted: MAX, or a decimal followed by ms, s, min, h, d, Hz or mHz.
func (l *loader) rate() (uint32, bool) {
	sc := l.sc
	switch sc.Type() {
	case scanner.Ident:
		if sc.Is("MAX") {
			return 0, true
		}
	case scanner.HexNumber:
		// "5d" scans as one hex-looking token
		text := sc.Text()
		if last := text[len(text)-1]; last == 'd' || last == 'D' {
			if n, err := sc.Number(); err == nil {
				return scaleRate(uint64(n), msPerDay)
			}
		}
	case scanner.Number:
		value, err := sc.DecimalValue()
		if err != nil {
			return 0, false
		}
		if sc.Next() != scanner.Ident {
			return 0, false
		}
		v := uint64(value)
		switch {
		case sc.Is("ms"):
			return scaleRate(v, 1)
		case sc.Is("s"):
			return scaleRate(v, msPerSecond)
		case sc.Is("min"):
			return scaleRate(v, msPerMinute)
		case sc.Is("h"):
			return scaleRate(v, msPerHour)
		case sc.Is("d"):
			return scaleRate(v, msPerDay)
		case sc.Is("Hz"):
			if v == 0 {
				return 0, false
			}
			return uint32(1000 * 1000 / v / 1000), true
		case sc.Is("mHz"):
			if v == 0 {
				return 0, false
			}
			return uint32(1000 * 1000 * 1000 / v / 1000), true
		}
	}
	return 0, false
}

func scaleRate(v, scale uint64) (uint32, bool) {
	ms := v * scale
	if ms > math.MaxUint32 {
		return 0, false
	}
	return uint32(ms), true
}

func (l *loader) setRate(name string, dst *uint32) {
	ms, ok := l.rate()
	if !ok {
		l.warn("%s %q is not a valid rate", name, l.sc.Text())
		return
	}
	*dst = ms
	l.log.Infof("%s: %d ms", name, ms)
}

func (l *loader) setPattern(name string, dst *string) {
	var pattern string
	switch l.sc.Type() {
	case scanner.String:
		pattern = l.sc.Unquoted()
	case scanner.Ident, scanner.Number, scanner.HexNumber, scanner.Symbol:
		pattern = l.sc.Text()
	}
	if len(pattern) > MaxPattern {
		l.warn("%s <%s> too long, truncated", name, pattern)
		pattern = pattern[:MaxPattern]
	}
	*dst = pattern
	l.log.Infof("%s: <%s>", name, pattern)
}

func (l *loader) number(name string) (uint32, bool) {
	if l.sc.Type() != scanner.Number && l.sc.Type() != scanner.HexNumber {
		l.warn("%s %q is not a number", name, l.sc.Text())
		return 0, false
	}
	n, err := l.sc.Number()
	if err != nil {
		l.warn("%s: %v", name, err)
		return 0, false
	}
	return n, true
}

func (l *loader) setSerialBaudrate() {
	n, ok := l.number("SerialBaudrate")
	if !ok {
		return
	}
	if n == 0 {
		l.warn("SerialBaudrate must not be 0")
		return
	}
	l.s.SerialBaudrate = n
	l.log.Infof("SerialBaudrate: %d", n)
}

func (l *loader) setSerialBits() {
	n, ok := l.number("SerialBits")
	if !ok {
		return
	}
	if n < 5 || n > 8 {
		l.warn("SerialBits %d out of range 5..8", n)
		return
	}
	l.s.SerialBits = uint8(n)
	l.log.Infof("SerialBits: %d", n)
}

func (l *loader) setSerialParity() {
	switch {
	case l.sc.Is("N"), l.sc.Is("NONE"):
		l.s.SerialParity = core.ParityNone
	case l.sc.Is("O"), l.sc.Is("ODD"):
		l.s.SerialParity = core.ParityOdd
	case l.sc.Is("E"), l.sc.Is("EVEN"):
		l.s.SerialParity = core.ParityEven
	default:
		l.warn("SerialParity %q, expected N, O or E", l.sc.Text())
		return
	}
	l.log.Infof("SerialParity: %s", l.s.SerialParity)
}

func (l *loader) setSerialStopBits() {
	n, ok := l.number("SerialStopBits")
	if !ok {
		return
	}
	if n < 1 || n > 2 {
		l.warn("SerialStopBits %d out of range 1..2", n)
		return
	}
	l.s.SerialStopBits = uint8(n)
	l.log.Infof("SerialStopBits: %d", n)
}

func (l *loader) setSystemTime() {
	var secs int64
	switch l.sc.Type() {
	case scanner.String:
		t, err := time.Parse(SystemTimeLayout, l.sc.Unquoted())
		if err != nil {
			l.warn("SystemTime: %v", err)
			return
		}
		secs = t.Unix()
	case scanner.Number:
		n, err := l.sc.DecimalValue()
		if err != nil {
			l.warn("SystemTime: %v", err)
			return
		}
		secs = int64(n)
	default:
		l.warn("SystemTime %q, expected \"%s\"", l.sc.Text(), SystemTimeLayout)
		return
	}
	if secs < 0 || secs > math.MaxUint32 {
		l.warn("SystemTime out of range")
		return
	}
	l.s.SystemTime = uint32(secs)
	l.log.Infof("SystemTime: %s", time.Unix(secs, 0).UTC().Format(SystemTimeLayout))
}
