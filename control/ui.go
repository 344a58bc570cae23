package control

import (
	log "github.com/sirupsen/logrus"

	"datalogger/core"
	"datalogger/panel"
)

// Control signals raised by the UI task.
const (
	SignalStartStop core.Signal = 1 << iota
	SignalRestart
	SignalSysReset
)

// UI turns press classifications of the panel button into control signals:
// short starts or stops a capture, long acknowledges a fatal error, very
// long requests a system reset.
type UI struct {
	buttons *panel.Buttons
	index   int
	sem     *core.Semaphores
	log     *log.Entry
}

// NewUI watches button index of buttons.
func NewUI(buttons *panel.Buttons, index int, sem *core.Semaphores) *UI {
	return &UI{
		buttons: buttons,
		index:   index,
		sem:     sem,
		log:     core.Logger("UiTask"),
	}
}

// Step scans the buttons once.
func (u *UI) Step() {
	if u.buttons.Scan() == 0 {
		return
	}
	state := u.buttons.Get(u.index)
	if state < panel.ShortPressed {
		return
	}
	switch state {
	case panel.ShortPressed:
		u.log.Debug("button ShortPressed")
		u.sem.Give(SignalStartStop)
	case panel.LongPressed:
		u.log.Debug("button LongPressed")
		u.sem.Give(SignalRestart)
	case panel.VeryLongPressed:
		u.log.Debug("button VeryLongPressed")
		u.sem.Give(SignalSysReset)
	}
	u.buttons.Clear(u.index)
}
