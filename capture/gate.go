package capture

import (
	"bytes"

	"datalogger/config"
)

// Gate filters the serial stream between a start and a stop pattern. With
// no start pattern the gate is always open and the stop pattern is unused.
// Both patterns are kept in the output.
type Gate struct {
	start  []byte
	stop   []byte
	open   bool
	window []byte
}

// NewGate returns a gate for the StartSample / StopSample patterns.
func NewGate(start, stop string) *Gate {
	g := &Gate{
		start: []byte(start),
		stop:  []byte(stop),
	}
	if len(g.start) == 0 {
		g.stop = nil
	}
	g.window = make([]byte, 0, max(len(g.start), len(g.stop), config.MaxPattern))
	g.Reset()
	return g
}

// Reset closes the gate again if it waits for a start pattern.
func (g *Gate) Reset() {
	g.open = len(g.start) == 0
	g.window = g.window[:0]
}

// Open reports whether bytes are currently passed through.
func (g *Gate) Open() bool {
	return g.open
}

// Filter appends the bytes of src that pass the gate to dst.
func (g *Gate) Filter(dst, src []byte) []byte {
	if len(g.start) == 0 {
		return append(dst, src...)
	}
	for _, c := range src {
		g.push(c)
		if g.open {
			dst = append(dst, c)
			if g.seen(g.stop) {
				g.open = false
				g.window = g.window[:0]
			}
		} else if g.seen(g.start) {
			g.open = true
			g.window = g.window[:0]
			dst = append(dst, g.start...)
		}
	}
	return dst
}

func (g *Gate) push(c byte) {
	if len(g.window) == cap(g.window) {
		copy(g.window, g.window[1:])
		g.window = g.window[:len(g.window)-1]
	}
	g.window = append(g.window, c)
}

func (g *Gate) seen(p []byte) bool {
	n := len(g.window)
	return len(p) > 0 && n >= len(p) && bytes.Equal(g.window[n-len(p):], p)
}
