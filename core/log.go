package core

import (
	"io"

	log "github.com/sirupsen/logrus"
)

// Logger returns an entry tagged with the component name.
func Logger(tag string) *log.Entry {
	return log.WithField("tag", tag)
}

// SetLogOutput redirects all firmware logging, e.g. to a UART or a test buffer.
func SetLogOutput(w io.Writer) {
	log.SetOutput(w)
}

// SetLogLevel parses and applies a level name such as "debug".
func SetLogLevel(level string) error {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return err
	}
	log.SetLevel(lvl)
	return nil
}

// Latch suppresses a repeating diagnostic: Fire returns true the first time
// after construction or Reset, false until the condition is reset again.
type Latch struct {
	fired bool
}

// Fire reports whether the message should be printed now.
func (l *Latch) Fire() bool {
	if l.fired {
		return false
	}
	l.fired = true
	return true
}

// Reset re-arms the latch.
func (l *Latch) Reset() {
	l.fired = false
}
