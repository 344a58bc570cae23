package serial

import (
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tarm "github.com/tarm/serial"

	"datalogger/core"
)

type pipePort struct {
	*io.PipeReader
}

func fakeOpen(t *testing.T) *io.PipeWriter {
	t.Helper()
	r, w := io.Pipe()
	prev := openPort
	openPort = func(cfg *Config, line core.UARTConfig) (io.ReadCloser, error) {
		return pipePort{r}, nil
	}
	t.Cleanup(func() { openPort = prev })
	return w
}

func TestTarmConfig(t *testing.T) {
	cfg := DefaultConfig("/dev/ttyUSB0")
	c := tarmConfig(cfg, core.UARTConfig{BaudRate: 19200, DataBits: 7, Parity: core.ParityEven, StopBits: 2})
	assert.Equal(t, "/dev/ttyUSB0", c.Name)
	assert.Equal(t, 19200, c.Baud)
	assert.Equal(t, byte(7), c.Size)
	assert.Equal(t, tarm.ParityEven, c.Parity)
	assert.Equal(t, tarm.Stop2, c.StopBits)
	assert.Equal(t, 100*time.Millisecond, c.ReadTimeout)

	c = tarmConfig(cfg, core.UARTConfig{BaudRate: 9600})
	assert.Equal(t, byte(8), c.Size)
	assert.Equal(t, tarm.ParityNone, c.Parity)
	assert.Equal(t, tarm.Stop1, c.StopBits)
}

func TestPortQueuesReceivedBytes(t *testing.T) {
	w := fakeOpen(t)
	p := NewPort(DefaultConfig("fake"))
	require.NoError(t, p.Configure(core.UARTConfig{BaudRate: 9600}))
	defer p.Close()

	_, err := w.Write([]byte("hello"))
	require.NoError(t, err)
	assert.Eventually(t, func() bool { return p.Buffered() == 5 }, time.Second, time.Millisecond)

	buf := make([]byte, 3)
	n, err := p.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, "hel", string(buf[:n]))
	assert.Equal(t, 2, p.Buffered())
}

func TestPortReadNeverBlocks(t *testing.T) {
	fakeOpen(t)
	p := NewPort(DefaultConfig("fake"))
	require.NoError(t, p.Configure(core.UARTConfig{}))
	defer p.Close()

	n, err := p.Read(make([]byte, 8))
	assert.NoError(t, err)
	assert.Zero(t, n)
}

func TestPortConfigureErrors(t *testing.T) {
	p := NewPort(DefaultConfig(""))
	assert.Error(t, p.Configure(core.UARTConfig{}))

	prev := openPort
	openPort = func(*Config, core.UARTConfig) (io.ReadCloser, error) { return nil, errors.New("busy") }
	defer func() { openPort = prev }()
	p = NewPort(DefaultConfig("fake"))
	assert.ErrorContains(t, p.Configure(core.UARTConfig{}), "busy")
	assert.NoError(t, p.Close())
}
