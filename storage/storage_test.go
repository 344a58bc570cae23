package storage

import (
	"errors"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"datalogger/core"
)

type level struct{ on bool }

func (l *level) Get() bool { return l.on }

func TestRemovableEject(t *testing.T) {
	r := NewRemovable(afero.NewMemMapFs())
	require.NoError(t, afero.WriteFile(r, "a.txt", []byte("abc"), 0o644))

	f, err := r.Open("a.txt")
	require.NoError(t, err)
	defer f.Close()

	r.Eject()
	assert.False(t, r.Present())

	_, err = r.Open("a.txt")
	assert.ErrorIs(t, err, ErrNotPresent)
	_, err = r.Stat("/")
	assert.ErrorIs(t, err, ErrNotPresent)

	buf := make([]byte, 1)
	_, err = f.Read(buf)
	assert.ErrorIs(t, err, ErrNotPresent, "files opened before the ejection fail too")

	r.Insert()
	data, err := afero.ReadFile(r, "a.txt")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(data))
}

func TestRemovableFailWrites(t *testing.T) {
	r := NewRemovable(afero.NewMemMapFs())
	f, err := r.Create("out.txt")
	require.NoError(t, err)
	defer f.Close()

	_, err = f.WriteString("one")
	require.NoError(t, err)

	r.FailWrites(true)
	_, err = f.WriteString("two")
	assert.ErrorIs(t, err, ErrWriteFailed)

	r.FailWrites(false)
	_, err = f.WriteString("three")
	require.NoError(t, err)
}

func TestCardInit(t *testing.T) {
	var flags core.Flags
	r := NewRemovable(afero.NewMemMapFs())
	c := NewCard(r, &flags)

	r.Eject()
	assert.ErrorIs(t, c.Init(), ErrNotPresent)
	assert.False(t, c.Ready())

	r.Insert()
	flags.Set(core.FlagCardError)
	require.NoError(t, c.Init())
	assert.True(t, c.Ready())
	assert.True(t, flags.Has(core.FlagCardReady))
	assert.False(t, flags.Has(core.FlagCardError), "successful init clears a pending error")
}

func TestCardInitSwitches(t *testing.T) {
	var flags core.Flags
	detect := &level{}
	protect := &level{on: true}
	c := NewCard(afero.NewMemMapFs(), &flags)
	c.SetCardDetect(detect)
	c.SetWriteProtect(protect)

	assert.ErrorIs(t, c.Init(), ErrNotPresent)

	detect.on = true
	err := c.Init()
	assert.True(t, errors.Is(err, ErrWriteProtected))
	assert.False(t, c.Ready())

	protect.on = false
	require.NoError(t, c.Init())
	assert.True(t, c.Ready())
}

func TestCardRemovedProbe(t *testing.T) {
	var flags core.Flags
	r := NewRemovable(afero.NewMemMapFs())
	require.NoError(t, afero.WriteFile(r, "config.txt", []byte("# x\n"), 0o644))
	c := NewCard(r, &flags)
	require.NoError(t, c.Init())

	assert.False(t, c.Removed("config.txt"))
	assert.True(t, c.Ready())

	r.Eject()
	assert.True(t, c.Removed("config.txt"))
	assert.False(t, c.Ready())
	assert.False(t, c.Removed("config.txt"), "a removal is reported once")

	r.Insert()
	assert.False(t, c.Removed("config.txt"))
	r.Eject()
	assert.True(t, c.Removed("config.txt"), "a new removal is reported again")
}

func TestCardInitRearmsRemoval(t *testing.T) {
	var flags core.Flags
	r := NewRemovable(afero.NewMemMapFs())
	require.NoError(t, afero.WriteFile(r, "config.txt", []byte("# x\n"), 0o644))
	c := NewCard(r, &flags)
	require.NoError(t, c.Init())

	r.Eject()
	require.True(t, c.Removed("config.txt"))

	// reinserted and brought up without a presence check in between
	r.Insert()
	require.NoError(t, c.Init())
	r.Eject()
	assert.True(t, c.Removed("config.txt"), "a removal after a new Init is reported")
}

func TestCardRemovedEmptyProbe(t *testing.T) {
	var flags core.Flags
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "config.txt", nil, 0o644))
	c := NewCard(fs, &flags)

	assert.False(t, c.Removed("config.txt"), "an empty probe file still proves presence")
	assert.True(t, c.Removed("missing.txt"))
}

func TestCardRemovedSwitch(t *testing.T) {
	var flags core.Flags
	detect := &level{on: true}
	c := NewCard(afero.NewMemMapFs(), &flags)
	c.SetCardDetect(detect)
	require.NoError(t, c.Init())

	assert.False(t, c.Removed("config.txt"), "the switch takes precedence over the probe file")

	detect.on = false
	assert.True(t, c.Removed("config.txt"))
	assert.False(t, c.Ready())
}
