// Package board describes the hardware the logger runs on: pin
// assignments, the storage mount point and the capture peripherals.
package board

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Config is the board description, read from YAML or TOML.
type Config struct {
	Pins     PinsConfig    `yaml:"pins" toml:"pins"`
	Storage  StorageConfig `yaml:"storage" toml:"storage"`
	Serial   SerialConfig  `yaml:"serial" toml:"serial"`
	I2C      I2CConfig     `yaml:"i2c" toml:"i2c"`
	TickMs   uint32        `yaml:"tick_ms" toml:"tick_ms"` // LED tick period
	PollMs   uint32        `yaml:"poll_ms" toml:"poll_ms"` // main loop period
	LogLevel string        `yaml:"log_level" toml:"log_level"`
}

// PinsConfig assigns GPIO numbers. Optional pins are left out when the
// board does not have them.
type PinsConfig struct {
	Button       uint32   `yaml:"button" toml:"button"`
	LedRed       uint32   `yaml:"led_red" toml:"led_red"`
	LedGreen     uint32   `yaml:"led_green" toml:"led_green"`
	LedDebug     uint32   `yaml:"led_debug" toml:"led_debug"`
	CardDetect   *uint32  `yaml:"card_detect,omitempty" toml:"card_detect,omitempty"`
	WriteProtect *uint32  `yaml:"write_protect,omitempty" toml:"write_protect,omitempty"`
	Digital      []uint32 `yaml:"digital" toml:"digital"` // D0..D7
}

// StorageConfig locates the card on the host.
type StorageConfig struct {
	MountDir string `yaml:"mount_dir" toml:"mount_dir"`
}

// SerialConfig names the capture serial device. Empty disables SIO.
type SerialConfig struct {
	Device string `yaml:"device" toml:"device"`
}

// I2CConfig is the device polled by the I2C capture source.
type I2CConfig struct {
	Address  uint8 `yaml:"address" toml:"address"`
	Register uint8 `yaml:"register" toml:"register"`
	Length   int   `yaml:"length" toml:"length"`
}

// Default returns the reference board.
func Default() *Config {
	return &Config{
		Pins: PinsConfig{
			Button:   8,
			LedRed:   9,
			LedGreen: 10,
			LedDebug: 13,
			Digital:  []uint32{0, 1, 2, 3, 4, 5, 6, 7},
		},
		Storage: StorageConfig{
			MountDir: "card",
		},
		I2C: I2CConfig{
			Address:  0x48,
			Register: 0,
			Length:   2,
		},
		TickMs:   10,
		PollMs:   1,
		LogLevel: "info",
	}
}

func isTOML(filename string) bool {
	return strings.EqualFold(filepath.Ext(filename), ".toml")
}

// Load reads the board file. A missing file yields the defaults; the file
// extension selects TOML (.toml) or YAML (anything else).
func Load(filename string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read board file: %w", err)
	}

	if isTOML(filename) {
		err = toml.Unmarshal(data, cfg)
	} else {
		err = yaml.Unmarshal(data, cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse board file: %w", err)
	}

	cfg.ensureDefaults()
	return cfg, nil
}

// Save writes the board file in the format selected by its extension.
func (c *Config) Save(filename string) error {
	var (
		data []byte
		err  error
	)
	if isTOML(filename) {
		var buf bytes.Buffer
		err = toml.NewEncoder(&buf).Encode(c)
		data = buf.Bytes()
	} else {
		data, err = yaml.Marshal(c)
	}
	if err != nil {
		return fmt.Errorf("failed to marshal board file: %w", err)
	}

	if err := os.WriteFile(filename, data, 0o644); err != nil {
		return fmt.Errorf("failed to write board file: %w", err)
	}
	return nil
}

// ensureDefaults fills in what the file left out.
func (c *Config) ensureDefaults() {
	def := Default()

	if len(c.Pins.Digital) == 0 {
		c.Pins.Digital = def.Pins.Digital
	}
	if c.Storage.MountDir == "" {
		c.Storage.MountDir = def.Storage.MountDir
	}
	if c.I2C.Length <= 0 {
		c.I2C.Length = def.I2C.Length
	}
	if c.TickMs == 0 {
		c.TickMs = def.TickMs
	}
	if c.PollMs == 0 {
		c.PollMs = def.PollMs
	}
	if c.LogLevel == "" {
		c.LogLevel = def.LogLevel
	}
}

// Validate reports pin assignments used twice.
func (c *Config) Validate() error {
	used := map[uint32]string{}
	claim := func(name string, pin uint32) error {
		if other, ok := used[pin]; ok {
			return fmt.Errorf("pin %d assigned to both %s and %s", pin, other, name)
		}
		used[pin] = name
		return nil
	}

	pins := []struct {
		name string
		pin  *uint32
	}{
		{"button", &c.Pins.Button},
		{"led_red", &c.Pins.LedRed},
		{"led_green", &c.Pins.LedGreen},
		{"led_debug", &c.Pins.LedDebug},
		{"card_detect", c.Pins.CardDetect},
		{"write_protect", c.Pins.WriteProtect},
	}
	for _, p := range pins {
		if p.pin == nil {
			continue
		}
		if err := claim(p.name, *p.pin); err != nil {
			return err
		}
	}
	if len(c.Pins.Digital) > 8 {
		return fmt.Errorf("%d digital pins configured, at most 8", len(c.Pins.Digital))
	}
	for i, pin := range c.Pins.Digital {
		if err := claim(fmt.Sprintf("D%d", i), pin); err != nil {
			return err
		}
	}
	return nil
}
