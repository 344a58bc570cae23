// Package control runs the capture state machine and the cooperative main
// loop of the logger.
package control

import (
	log "github.com/sirupsen/logrus"

	"datalogger/capture"
	"datalogger/config"
	"datalogger/core"
	"datalogger/storage"
)

// State of the capture control machine.
type State uint8

const (
	PowerOn State = iota
	StorageReady
	ReadyForCapture
	Capturing
	FatalError
	FatalErrorWait
	FatalErrorLeave
)

var stateNames = [...]string{
	PowerOn:         "PowerOn",
	StorageReady:    "StorageReady",
	ReadyForCapture: "ReadyForCapture",
	Capturing:       "Capturing",
	FatalError:      "FatalError",
	FatalErrorWait:  "FatalErrorWait",
	FatalErrorLeave: "FatalErrorLeave",
}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "Unknown"
}

// Indicator is a status LED as the machine drives it.
type Indicator interface {
	On()
	Off()
	FlashFast()
	FlashSlow()
}

// Machine is the capture control state machine. Step is called once per
// cooperative cycle and never blocks.
type Machine struct {
	state    State
	card     *storage.Card
	settings *config.Settings
	engine   *capture.Engine
	sem      *core.Semaphores
	flags    *core.Flags
	red      Indicator
	green    Indicator
	log      *log.Entry
}

// Parts are the collaborators of a Machine.
type Parts struct {
	Card     *storage.Card
	Settings *config.Settings
	Engine   *capture.Engine
	Signals  *core.Semaphores
	Flags    *core.Flags
	Red      Indicator
	Green    Indicator
}

// NewMachine returns a machine in PowerOn.
func NewMachine(p Parts) *Machine {
	return &Machine{
		state:    PowerOn,
		card:     p.Card,
		settings: p.Settings,
		engine:   p.Engine,
		sem:      p.Signals,
		flags:    p.Flags,
		red:      p.Red,
		green:    p.Green,
		log:      core.Logger("SdCardTask"),
	}
}

// State returns the current state.
func (m *Machine) State() State {
	return m.state
}

func (m *Machine) enter(s State) {
	m.log.WithField("from", m.state).Infof("state %s", s)
	m.state = s
}

// Step runs one cycle of the machine.
func (m *Machine) Step() {
	if m.sem.Take(SignalSysReset) {
		m.sysReset()
		return
	}

	switch m.state {
	case PowerOn:
		if m.card.Init() == nil {
			m.red.On()
			m.green.On()
			m.enter(StorageReady)
		}

	case StorageReady:
		if err := m.loadConfig(); err != nil {
			m.log.Errorf("getConfiguration failed: %v", err)
			m.enter(FatalError)
			return
		}
		if err := m.engine.Setup(); err != nil {
			m.log.Errorf("capture setup failed: %v", err)
			m.enter(FatalError)
			return
		}
		m.sem.Take(SignalStartStop)
		m.red.Off()
		m.green.Off()
		m.enter(ReadyForCapture)

	case ReadyForCapture:
		if m.sem.Take(SignalStartStop) {
			if err := m.engine.Start(); err != nil {
				m.log.Errorf("capture start failed: %v", err)
				m.enter(FatalError)
				return
			}
			m.red.On()
			m.enter(Capturing)
		} else if m.card.Removed(m.settings.ConfigFileName) {
			m.enter(PowerOn)
		}

	case Capturing:
		m.engine.Run()
		switch {
		case m.sem.TakeAll(SignalStartStop):
			m.stopCapture()
			m.red.Off()
			m.enter(ReadyForCapture)

		case m.flags.Has(core.FlagCardError):
			m.red.FlashSlow()
			m.stopCapture()
			m.flags.Clear(core.FlagCardReady)
			m.flags.Clear(core.FlagCardError)
			m.enter(PowerOn)

		case m.engine.Full():
			m.log.Info("capture file full, starting next file")
			m.stopCapture()
			if err := m.engine.Start(); err != nil {
				m.log.Errorf("capture restart failed: %v", err)
				m.enter(FatalError)
			}
		}

	case FatalError:
		m.red.FlashFast()
		m.green.FlashFast()
		m.sem.Take(SignalRestart)
		m.enter(FatalErrorWait)

	case FatalErrorWait:
		if m.sem.Take(SignalRestart) {
			m.green.Off()
			m.enter(FatalErrorLeave)
		}

	case FatalErrorLeave:
		if m.card.Removed(m.settings.ConfigFileName) {
			m.red.Off()
			m.log.Info("card removed, resetting")
			core.RequestReset()
		}
	}
}

// loadConfig reads the configuration file into fresh default settings.
func (m *Machine) loadConfig() error {
	name := m.settings.ConfigFileName
	s := config.Default()
	if name != "" {
		s.ConfigFileName = name
	}
	if err := config.Load(m.card.FS(), s); err != nil {
		return err
	}
	*m.settings = *s
	return nil
}

func (m *Machine) stopCapture() {
	if err := m.engine.Stop(); err != nil {
		m.log.Warnf("capture stop: %v", err)
	}
}

func (m *Machine) sysReset() {
	m.log.Info("system reset requested")
	if m.engine.Active() {
		m.stopCapture()
	}
	m.red.Off()
	m.green.Off()
	core.RequestReset()
}
