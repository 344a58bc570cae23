// Package storage presents the removable capture card as an afero file
// system with presence detection.
package storage

import (
	"errors"
	"fmt"
	"io"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"datalogger/core"
)

var (
	ErrNotPresent     = errors.New("storage: medium not present")
	ErrWriteProtected = errors.New("storage: medium is write protected")
	ErrWriteFailed    = errors.New("storage: write failed")
)

// Detector is a level input such as a card-detect or write-protect switch.
type Detector interface {
	Get() bool
}

// Card is the capture medium. Without a card-detect switch, removal is
// detected by reading one byte of a probe file.
type Card struct {
	fs      afero.Fs
	flags   *core.Flags
	detect  Detector
	protect Detector
	log     *log.Entry

	initFailed core.Latch
	inserted   core.Latch
	removed    core.Latch
}

// NewCard wraps fs. Readiness is published through flags.
func NewCard(fs afero.Fs, flags *core.Flags) *Card {
	return &Card{fs: fs, flags: flags, log: core.Logger("SdCard")}
}

// SetCardDetect installs a card-detect switch, on while a card is inserted.
func (c *Card) SetCardDetect(d Detector) {
	c.detect = d
}

// SetWriteProtect installs a write-protect switch, on while protected.
func (c *Card) SetWriteProtect(d Detector) {
	c.protect = d
}

// FS returns the card's file system.
func (c *Card) FS() afero.Fs {
	return c.fs
}

// Ready reports whether Init succeeded and no removal was seen since.
func (c *Card) Ready() bool {
	return c.flags.Has(core.FlagCardReady)
}

// Init brings the card up if it is not ready yet. Failures are logged once
// until the next success.
func (c *Card) Init() error {
	if c.Ready() {
		return nil
	}
	if err := c.begin(); err != nil {
		if c.initFailed.Fire() {
			c.log.Errorf("initialization failed: %v", err)
			c.log.Info("* is a card inserted?")
			c.log.Info("* is the mount point correct?")
		}
		return err
	}
	c.initFailed.Reset()
	c.removed.Reset()
	c.flags.Set(core.FlagCardReady)
	c.flags.Clear(core.FlagCardError)
	c.log.Info("card is present and initialized")
	return nil
}

func (c *Card) begin() error {
	if c.detect != nil && !c.detect.Get() {
		return ErrNotPresent
	}
	if _, err := c.fs.Stat("/"); err != nil {
		if errors.Is(err, ErrNotPresent) {
			return err
		}
		return fmt.Errorf("%w: %v", ErrNotPresent, err)
	}
	if c.protect != nil && c.protect.Get() {
		return ErrWriteProtected
	}
	return nil
}

// Removed reports a card removal. It returns true once per removal, on the
// first check that finds the card gone, and clears readiness.
func (c *Card) Removed(probe string) bool {
	if !c.gone(probe) {
		if c.inserted.Fire() {
			c.log.Info("card is inserted")
		}
		c.removed.Reset()
		return false
	}

	c.flags.Clear(core.FlagCardReady)
	c.inserted.Reset()
	if !c.removed.Fire() {
		return false
	}
	c.log.Info("card is removed")
	return true
}

func (c *Card) gone(probe string) bool {
	if c.detect != nil {
		return !c.detect.Get()
	}
	f, err := c.fs.Open(probe)
	if err != nil {
		return true
	}
	defer f.Close()
	var b [1]byte
	if _, err := f.Read(b[:]); err != nil && err != io.EOF {
		return true
	}
	return false
}
