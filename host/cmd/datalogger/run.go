package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"datalogger/board"
	"datalogger/capture"
	"datalogger/config"
	"datalogger/control"
	"datalogger/core"
	"datalogger/host/serial"
	"datalogger/host/sim"
	"datalogger/panel"
	"datalogger/storage"
)

// Press lengths typed on the console.
const (
	shortPress    = 200 * time.Millisecond
	longPress     = 1500 * time.Millisecond
	veryLongPress = 3500 * time.Millisecond
)

// hardware outlives a reset: pins, the card and the peripherals.
type hardware struct {
	board *board.Config
	gpio  *sim.GPIO
	media *storage.Removable
	adc   *sim.ADC
	bus   *sim.I2C
	port  *serial.Port
}

func newHardware(b *board.Config) (*hardware, error) {
	if err := os.MkdirAll(b.Storage.MountDir, 0o755); err != nil {
		return nil, fmt.Errorf("mount dir: %w", err)
	}
	hw := &hardware{
		board: b,
		gpio:  sim.NewGPIO(64),
		media: storage.NewRemovable(afero.NewBasePathFs(afero.NewOsFs(), b.Storage.MountDir)),
		adc:   sim.NewADC(),
		bus:   sim.NewI2C(),
	}
	hw.bus.AddDevice(uint16(b.I2C.Address), []byte{0x12, 0x34, 0x56, 0x78})
	if b.Serial.Device != "" {
		hw.port = serial.NewPort(serial.DefaultConfig(b.Serial.Device))
	}
	return hw, nil
}

func (hw *hardware) setCard(inserted bool) {
	if inserted {
		hw.media.Insert()
	} else {
		hw.media.Eject()
	}
	if pin := hw.board.Pins.CardDetect; pin != nil {
		hw.gpio.Drive(core.GPIOPin(*pin), !inserted)
	}
}

func (hw *hardware) close() {
	if hw.port != nil {
		hw.port.Close()
	}
}

// boot builds the firmware state from scratch on top of hw. extra tasks
// run after the UI and the machine.
func boot(hw *hardware, extra ...control.Task) (*control.Device, error) {
	b := hw.board
	clock := sim.NewClock()

	var (
		flags core.Flags
		sem   core.Semaphores
	)

	tick := uint16(b.TickMs)
	red, err := panel.NewLed(hw.gpio, core.GPIOPin(b.Pins.LedRed), tick)
	if err != nil {
		return nil, err
	}
	green, err := panel.NewLed(hw.gpio, core.GPIOPin(b.Pins.LedGreen), tick)
	if err != nil {
		return nil, err
	}
	debug, err := panel.NewLed(hw.gpio, core.GPIOPin(b.Pins.LedDebug), tick)
	if err != nil {
		return nil, err
	}
	buttons, err := panel.NewButtons(hw.gpio, clock, core.GPIOPin(b.Pins.Button))
	if err != nil {
		return nil, err
	}

	card := storage.NewCard(hw.media, &flags)
	if pin := b.Pins.CardDetect; pin != nil {
		sw, err := panel.NewSwitch(hw.gpio, clock, core.GPIOPin(*pin), true)
		if err != nil {
			return nil, err
		}
		hw.gpio.Drive(core.GPIOPin(*pin), !hw.media.Present())
		card.SetCardDetect(sw)
	}
	if pin := b.Pins.WriteProtect; pin != nil {
		sw, err := panel.NewSwitch(hw.gpio, clock, core.GPIOPin(*pin), true)
		if err != nil {
			return nil, err
		}
		card.SetWriteProtect(sw)
	}

	src := capture.Sources{
		ADC:  hw.adc,
		GPIO: hw.gpio,
		I2C: &core.I2CDevice{
			Bus:      hw.bus,
			Address:  core.I2CAddress(b.I2C.Address),
			Register: []byte{b.I2C.Register},
			Length:   b.I2C.Length,
		},
	}
	if hw.port != nil {
		src.UART = hw.port
	}
	for i, pin := range b.Pins.Digital {
		src.Digital[i] = core.GPIOPin(pin)
	}

	settings := config.Default()
	engine := capture.NewEngine(hw.media, settings, clock, &flags, src)
	engine.SetPulse(debug.Oneshot)

	machine := control.NewMachine(control.Parts{
		Card:     card,
		Settings: settings,
		Engine:   engine,
		Signals:  &sem,
		Flags:    &flags,
		Red:      red,
		Green:    green,
	})
	ui := control.NewUI(buttons, 0, &sem)

	tasks := append([]control.Task{ui, machine}, extra...)
	return control.NewDevice(clock, b.TickMs, panel.Leds{red, green, debug}, tasks...), nil
}

// console applies stdin commands to the simulated hardware. A press holds
// the button down until its release time passes.
type console struct {
	hw        *hardware
	in        <-chan string
	quit      context.CancelFunc
	pressed   bool
	releaseAt time.Time
	log       *log.Entry
}

func (c *console) Step() {
	pin := core.GPIOPin(c.hw.board.Pins.Button)
	if c.pressed && !time.Now().Before(c.releaseAt) {
		c.hw.gpio.Drive(pin, true)
		c.pressed = false
	}

	var line string
	select {
	case l, ok := <-c.in:
		if !ok {
			c.in = nil
			return
		}
		line = strings.ToLower(strings.TrimSpace(l))
	default:
		return
	}

	press := func(d time.Duration) {
		if c.pressed {
			c.log.Warn("button is still held")
			return
		}
		c.hw.gpio.Drive(pin, false)
		c.pressed = true
		c.releaseAt = time.Now().Add(d)
	}

	switch line {
	case "":
	case "short", "s":
		press(shortPress)
	case "long", "l":
		press(longPress)
	case "verylong", "v":
		press(veryLongPress)
	case "remove", "r":
		c.hw.setCard(false)
		c.log.Info("card removed")
	case "insert", "i":
		c.hw.setCard(true)
		c.log.Info("card inserted")
	case "quit", "q":
		c.quit()
	default:
		c.log.Warnf("unknown command %q (short, long, verylong, remove, insert, quit)", line)
	}
}

func readLines(r io.Reader) <-chan string {
	out := make(chan string)
	go func() {
		defer close(out)
		sc := bufio.NewScanner(r)
		for sc.Scan() {
			out <- sc.Text()
		}
	}()
	return out
}

func runLogger(cmd *cobra.Command, args []string) error {
	b, err := loadBoard()
	if err != nil {
		return err
	}
	hw, err := newHardware(b)
	if err != nil {
		return err
	}
	defer hw.close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	logger := core.Logger("DataLogger")
	core.SetResetHandler(func() { logger.Warn("watchdog reset") })

	con := &console{hw: hw, in: readLines(cmd.InOrStdin()), quit: stop, log: core.Logger("Console")}
	period := time.Duration(b.PollMs) * time.Millisecond

	for {
		dev, err := boot(hw, con)
		if err != nil {
			return err
		}
		logger.WithField("card", b.Storage.MountDir).Info("setup done")

		err = dev.Run(ctx, period)
		dev.Shutdown()
		if errors.Is(err, control.ErrReset) {
			continue
		}
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	}
}
