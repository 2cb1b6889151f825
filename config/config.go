// Package config reads and validates the golight configuration file.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"lautenbacher.net/golight/animation"
	"lautenbacher.net/golight/engine"
	"lautenbacher.net/golight/gesture"
	"lautenbacher.net/golight/persist"
)

const CONFILE = "config.yml"

// Animation triggers
const (
	TriggerCommand     = "command"
	TriggerDoubleClick = "double-click"
	TriggerStartup     = "startup"
)

type LogConfig struct {
	Level  string `yaml:"Level"`
	Format string `yaml:"Format"`
	File   string `yaml:"File"`
}

type ButtonConfig struct {
	Debounce    time.Duration `yaml:"Debounce"`
	ClickWindow time.Duration `yaml:"ClickWindow"`
	Policy      string        `yaml:"Policy"`
}

type ColorConfig struct {
	RampInterval   time.Duration `yaml:"RampInterval"`
	HueStep        int           `yaml:"HueStep"`
	SaturationStep int           `yaml:"SaturationStep"`
	ValueStep      int           `yaml:"ValueStep"`
}

type IndicatorConfig struct {
	SlowBlink time.Duration `yaml:"SlowBlink"`
	FastBlink time.Duration `yaml:"FastBlink"`
	Level     int           `yaml:"Level"`
}

type NightConfig struct {
	Enabled       bool          `yaml:"Enabled"`
	Latitude      float64       `yaml:"Latitude"`
	Longitude     float64       `yaml:"Longitude"`
	CheckInterval time.Duration `yaml:"CheckInterval"`
}

type AnimationConfig struct {
	Interval time.Duration `yaml:"Interval"`
	Step     int           `yaml:"Step"`
	Trigger  string        `yaml:"Trigger"`
	// Counts overrides the blinks per channel derived from the identifier.
	Counts []int       `yaml:"Counts"`
	Night  NightConfig `yaml:"Night"`
}

type StorageConfig struct {
	File     string `yaml:"File"`
	Format   string `yaml:"Format"`
	PageSize int    `yaml:"PageSize"`
}

type HardwareConfig struct {
	ButtonPin       int           `yaml:"ButtonPin"`
	ButtonActiveLow bool          `yaml:"ButtonActiveLow"`
	PollInterval    time.Duration `yaml:"PollInterval"`
	// LedPins are the BCM pins of indicator, red, green and blue.
	LedPins []int `yaml:"LedPins"`
	// PwmFrequency is the output frequency in Hz at 1000 duty steps.
	PwmFrequency int  `yaml:"PwmFrequency"`
	ActiveLow    bool `yaml:"ActiveLow"`
}

type Config struct {
	// Identifier is the four digit number the default color and the
	// blink pattern are derived from.
	Identifier string          `yaml:"Identifier"`
	Button     ButtonConfig    `yaml:"Button"`
	Color      ColorConfig     `yaml:"Color"`
	Indicator  IndicatorConfig `yaml:"Indicator"`
	Animation  AnimationConfig `yaml:"Animation"`
	Storage    StorageConfig   `yaml:"Storage"`
	Hardware   HardwareConfig  `yaml:"Hardware"`
	Logging    struct {
		TUI LogConfig `yaml:"TUI"`
		HW  LogConfig `yaml:"HW"`
	} `yaml:"Logging"`
}

// Default returns the configuration used for every key the file leaves out.
func Default() *Config {
	c := &Config{
		Identifier: "6606",
		Button: ButtonConfig{
			Debounce:    50 * time.Millisecond,
			ClickWindow: 400 * time.Millisecond,
			Policy:      "settle",
		},
		Color: ColorConfig{
			RampInterval:   15 * time.Millisecond,
			HueStep:        1,
			SaturationStep: 1,
			ValueStep:      1,
		},
		Indicator: IndicatorConfig{
			SlowBlink: 500 * time.Millisecond,
			FastBlink: 150 * time.Millisecond,
			Level:     1000,
		},
		Animation: AnimationConfig{
			Interval: 5 * time.Millisecond,
			Step:     10,
			Trigger:  TriggerCommand,
			Night:    NightConfig{CheckInterval: time.Minute},
		},
		Storage: StorageConfig{
			File:     "golight.flash",
			Format:   "record",
			PageSize: 256,
		},
		Hardware: HardwareConfig{
			ButtonPin:       17,
			ButtonActiveLow: true,
			PollInterval:    2 * time.Millisecond,
			LedPins:         []int{23, 12, 13, 16},
			PwmFrequency:    200,
		},
	}
	c.Logging.TUI = LogConfig{Level: "INFO", Format: "text"}
	c.Logging.HW = LogConfig{Level: "INFO", Format: "text"}
	return c
}

// ReadConfig decodes cfile on top of Default and validates the result.
func ReadConfig(cfile string) (*Config, error) {
	f, err := os.Open(cfile)
	if err != nil {
		return nil, fmt.Errorf("can't open config file %s: %w", cfile, err)
	}
	defer f.Close()

	conf := Default()
	decoder := yaml.NewDecoder(f)
	decoder.KnownFields(true)
	if err := decoder.Decode(conf); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("can't decode config file %s: %w", cfile, err)
	}
	if err := conf.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", cfile, err)
	}
	return conf, nil
}

// Validate checks ranges and names and reports every problem at once.
func (c *Config) Validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf(format, args...))
		}
	}

	check(len(c.Identifier) == 4 && strings.Trim(c.Identifier, "0123456789") == "",
		"Identifier must be four digits, got %q", c.Identifier)

	check(c.Button.Debounce > 0, "Button.Debounce must be positive")
	check(c.Button.ClickWindow > c.Button.Debounce, "Button.ClickWindow must be longer than Button.Debounce")
	if _, err := gesture.ParsePolicy(c.Button.Policy); err != nil {
		errs = append(errs, fmt.Errorf("Button.Policy: %w", err))
	}

	check(c.Color.RampInterval > 0, "Color.RampInterval must be positive")
	for _, step := range []struct {
		name  string
		value int
	}{
		{"HueStep", c.Color.HueStep},
		{"SaturationStep", c.Color.SaturationStep},
		{"ValueStep", c.Color.ValueStep},
	} {
		check(step.value >= 1 && step.value <= 100, "Color.%s must be between 1 and 100, got %d", step.name, step.value)
	}

	check(c.Indicator.SlowBlink > 0 && c.Indicator.FastBlink > 0, "Indicator blink intervals must be positive")
	check(c.Indicator.Level >= 0 && c.Indicator.Level <= 1000, "Indicator.Level must be between 0 and 1000, got %d", c.Indicator.Level)

	check(c.Animation.Interval > 0, "Animation.Interval must be positive")
	check(c.Animation.Step >= 1 && c.Animation.Step <= 1000, "Animation.Step must be between 1 and 1000, got %d", c.Animation.Step)
	switch strings.ToLower(c.Animation.Trigger) {
	case TriggerCommand, TriggerDoubleClick, TriggerStartup:
	default:
		errs = append(errs, fmt.Errorf("Animation.Trigger must be one of %s, %s or %s, got %q",
			TriggerCommand, TriggerDoubleClick, TriggerStartup, c.Animation.Trigger))
	}
	if c.Animation.Counts != nil {
		check(len(c.Animation.Counts) == 4, "Animation.Counts needs 4 entries, got %d", len(c.Animation.Counts))
		for i, n := range c.Animation.Counts {
			check(n >= 0 && n <= 9, "Animation.Counts[%d] must be between 0 and 9, got %d", i, n)
		}
	}
	if c.Animation.Night.Enabled {
		check(c.Animation.Night.Latitude >= -90 && c.Animation.Night.Latitude <= 90,
			"Animation.Night.Latitude must be between -90 and 90")
		check(c.Animation.Night.Longitude >= -180 && c.Animation.Night.Longitude <= 180,
			"Animation.Night.Longitude must be between -180 and 180")
		check(c.Animation.Night.CheckInterval > 0, "Animation.Night.CheckInterval must be positive")
	}

	check(c.Storage.File != "", "Storage.File must be set")
	if codec, err := persist.ParseCodec(c.Storage.Format); err != nil {
		errs = append(errs, fmt.Errorf("Storage.Format: %w", err))
	} else {
		check(c.Storage.PageSize >= codec.Size(), "Storage.PageSize must be at least %d for format %s", codec.Size(), codec.Name())
	}

	check(len(c.Hardware.LedPins) == 4, "Hardware.LedPins needs 4 entries, got %d", len(c.Hardware.LedPins))
	seen := map[int]bool{c.Hardware.ButtonPin: true}
	check(c.Hardware.ButtonPin >= 0 && c.Hardware.ButtonPin <= 27, "Hardware.ButtonPin must be between 0 and 27")
	for i, p := range c.Hardware.LedPins {
		check(p >= 0 && p <= 27, "Hardware.LedPins[%d] must be between 0 and 27, got %d", i, p)
		check(!seen[p], "Hardware.LedPins[%d] uses pin %d twice", i, p)
		seen[p] = true
	}
	check(c.Hardware.PollInterval > 0, "Hardware.PollInterval must be positive")
	check(c.Hardware.PwmFrequency > 0, "Hardware.PwmFrequency must be positive")

	return errors.Join(errs...)
}

// TriggerMode returns the normalised animation trigger.
func (c *Config) TriggerMode() string {
	return strings.ToLower(c.Animation.Trigger)
}

func (c *Config) GestureConfig() gesture.Config {
	policy, _ := gesture.ParsePolicy(c.Button.Policy)
	return gesture.Config{
		Debounce:    c.Button.Debounce,
		ClickWindow: c.Button.ClickWindow,
		Policy:      policy,
	}
}

func (c *Config) EngineConfig() engine.Config {
	return engine.Config{
		RampInterval:   c.Color.RampInterval,
		HueStep:        c.Color.HueStep,
		SaturationStep: c.Color.SaturationStep,
		ValueStep:      c.Color.ValueStep,
		SlowBlink:      c.Indicator.SlowBlink,
		FastBlink:      c.Indicator.FastBlink,
		IndicatorLevel: uint16(c.Indicator.Level),
	}
}

// AnimationConfig uses Animation.Counts if given, the identifier digits
// otherwise.
func (c *Config) AnimationConfig() animation.Config {
	cfg := animation.Config{
		Interval: c.Animation.Interval,
		Step:     c.Animation.Step,
		Counts:   persist.Digits(c.Identifier),
	}
	if len(c.Animation.Counts) == len(cfg.Counts) {
		copy(cfg.Counts[:], c.Animation.Counts)
	}
	return cfg
}

func (c *Config) NightConfig() animation.NightConfig {
	return animation.NightConfig{
		Latitude:      c.Animation.Night.Latitude,
		Longitude:     c.Animation.Night.Longitude,
		CheckInterval: c.Animation.Night.CheckInterval,
	}
}

// Codec returns the persistence format, Validate has checked the name.
func (c *Config) Codec() persist.Codec {
	codec, err := persist.ParseCodec(c.Storage.Format)
	if err != nil {
		return persist.Record{}
	}
	return codec
}
