package app

import (
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roman-kulish/antenna-analyzer/internal/rating"
	"github.com/roman-kulish/antenna-analyzer/internal/swr"
)

const (
	DriverSimulator DriverType = "simulator"
	DriverRPi       DriverType = "rpi"
)

type DriverType string

// Config represents the main application configuration
type Config struct {
	Settings    Settings          `yaml:"settings"`
	Hardware    HardwareConfig    `yaml:"hardware"`
	Calibration CalibrationConfig `yaml:"calibration"`
	Sweep       SweepConfig       `yaml:"sweep"`
	Rating      RatingConfig      `yaml:"rating"`
	Storage     StorageConfig     `yaml:"storage"`
}

// Settings represents global application settings
type Settings struct {
	LogLevel string `yaml:"logLevel"`
}

// SlogLevel parses the configured log level, defaulting to info.
func (s Settings) SlogLevel() (slog.Level, error) {
	if s.LogLevel == "" {
		return slog.LevelInfo, nil
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(s.LogLevel)); err != nil {
		return 0, fmt.Errorf("parsing log level: %w", err)
	}
	return level, nil
}

// PinConfig maps the synthesizer control lines to BCM pin numbers.
type PinConfig struct {
	WordClock int `yaml:"wordClock"`
	Data      int `yaml:"data"`
	FreqLatch int `yaml:"freqLatch"`
	Reset     int `yaml:"reset"`
}

// SimulatorConfig shapes the simulated antenna when the simulator driver is
// selected: a Gaussian resonance dip in the detector's magnitude output.
type SimulatorConfig struct {
	ResonantHz float64 `yaml:"resonantHz"`
	WidthHz    float64 `yaml:"widthHz"`
	FloorVolts float64 `yaml:"floorVolts"`
	DepthVolts float64 `yaml:"depthVolts"`
	NoiseVolts float64 `yaml:"noiseVolts"`
	NoiseSeed  int64   `yaml:"noiseSeed"`
}

// HardwareConfig selects and parameterizes the hardware channel.
type HardwareConfig struct {
	Driver           DriverType      `yaml:"driver"`
	ReferenceClockHz float64         `yaml:"referenceClockHz"` // measured DDS oscillator frequency
	MaxFrequencyHz   float64         `yaml:"maxFrequencyHz"`   // usable output ceiling
	ReferenceVoltage float64         `yaml:"referenceVoltage"` // ADC Vref
	SPIPort          string          `yaml:"spiPort"`
	SPISpeedHz       int64           `yaml:"spiSpeedHz"`
	Pins             *PinConfig      `yaml:"pins"`
	Simulator        SimulatorConfig `yaml:"simulator"`
}

// CalibrationConfig carries the operator-measured reference voltages. The
// known-load attenuation defaults to swr.DefaultLoadDb.
type CalibrationConfig struct {
	ShortCircuitVolts float64 `yaml:"shortCircuitVolts"`
	KnownLoadVolts    float64 `yaml:"knownLoadVolts"`
	KnownLoadDb       float64 `yaml:"knownLoadDb"`
}

// SweepConfig represents the sweep request.
type SweepConfig struct {
	StartHz       float64 `yaml:"startHz"`
	StopHz        float64 `yaml:"stopHz"`
	Points        int     `yaml:"points"`
	SettleDelayMs int     `yaml:"settleDelayMs"`
	Oversample    int     `yaml:"oversample"`
	SkipPhase     bool    `yaml:"skipPhase"`
}

// RatingConfig overrides the scoring policy.
type RatingConfig struct {
	Weights *rating.Weights `yaml:"weights"`
}

// StorageConfig represents storage settings
type StorageConfig struct {
	DataDirectory string `yaml:"dataDirectory"`
}

// LoadConfig reads and validates a YAML configuration file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var config Config
	if err = yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if err = config.applyDefaults(); err != nil {
		return nil, err
	}
	return &config, nil
}

func (c *Config) applyDefaults() error {
	switch c.Hardware.Driver {
	case DriverSimulator, DriverRPi:
	case "":
		c.Hardware.Driver = DriverSimulator
	default:
		return fmt.Errorf("unknown hardware driver '%s'", c.Hardware.Driver)
	}

	if c.Hardware.Simulator.FloorVolts == 0 {
		c.Hardware.Simulator.FloorVolts = 0.9
	}
	if c.Calibration.KnownLoadDb == 0 {
		c.Calibration.KnownLoadDb = swr.DefaultLoadDb
	}
	if c.Sweep.Points == 0 {
		c.Sweep.Points = 100
	}
	if c.Sweep.StartHz == 0 && c.Sweep.StopHz == 0 {
		c.Sweep.StartHz = 1e6
		c.Sweep.StopHz = 30e6
	}
	return nil
}
