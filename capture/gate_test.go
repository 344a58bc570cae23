package capture

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGateOpenWithoutStart(t *testing.T) {
	g := NewGate("", "END")
	assert.True(t, g.Open())
	assert.Equal(t, "abcEND", string(g.Filter(nil, []byte("abcEND"))))
	assert.True(t, g.Open(), "a stop pattern alone never closes the gate")
}

func TestGateAcrossChunks(t *testing.T) {
	g := NewGate("$GP", "*")
	var out []byte
	for _, chunk := range []string{"noise$", "G", "PGGA,1", "23*xx$G"} {
		out = g.Filter(out, []byte(chunk))
	}
	assert.Equal(t, "$GPGGA,123*", string(out))
	assert.False(t, g.Open())

	out = g.Filter(out[:0], []byte("P9"))
	assert.Equal(t, "$GP9", string(out))
}

func TestGateOverlappingPattern(t *testing.T) {
	g := NewGate("aab", "")
	assert.Equal(t, "aabc", string(g.Filter(nil, []byte("aaabc"))))
}

func TestGateReset(t *testing.T) {
	g := NewGate("<", ">")
	g.Filter(nil, []byte("<x"))
	assert.True(t, g.Open())
	g.Reset()
	assert.False(t, g.Open())
	assert.Empty(t, g.Filter(nil, []byte("yz")))
}
