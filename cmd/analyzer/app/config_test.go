package app

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/roman-kulish/antenna-analyzer/internal/swr"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `
settings:
  logLevel: debug
hardware:
  driver: simulator
  simulator:
    resonantHz: 14200000
    widthHz: 1000000
    depthVolts: 0.5
calibration:
  shortCircuitVolts: 0.9
  knownLoadVolts: 0.72
sweep:
  startHz: 10000000
  stopHz: 20000000
  points: 51
  oversample: 5
rating:
  weights:
    minSwr: 0.5
    avgSwr: 0.1
    bandwidth: 0.1
    coverage: 0.3
storage:
  dataDirectory: /var/lib/analyzer
`)

	config, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	level, err := config.Settings.SlogLevel()
	if err != nil {
		t.Fatalf("Failed to parse log level: %v", err)
	}
	if level != slog.LevelDebug {
		t.Errorf("Expected debug level, got %v", level)
	}

	if config.Hardware.Driver != DriverSimulator {
		t.Errorf("Expected simulator driver, got %s", config.Hardware.Driver)
	}
	if config.Hardware.Simulator.ResonantHz != 14.2e6 {
		t.Errorf("Expected resonance 14.2 MHz, got %.0f Hz", config.Hardware.Simulator.ResonantHz)
	}
	if config.Sweep.Points != 51 || config.Sweep.Oversample != 5 {
		t.Errorf("Expected 51 points with 5x oversampling, got %d and %d", config.Sweep.Points, config.Sweep.Oversample)
	}
	if config.Rating.Weights == nil || config.Rating.Weights.MinSWR != 0.5 {
		t.Errorf("Expected custom rating weights, got %+v", config.Rating.Weights)
	}
	if config.Storage.DataDirectory != "/var/lib/analyzer" {
		t.Errorf("Expected data directory, got %q", config.Storage.DataDirectory)
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	config, err := LoadConfig(writeConfig(t, "{}"))
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if config.Hardware.Driver != DriverSimulator {
		t.Errorf("Expected simulator driver by default, got %s", config.Hardware.Driver)
	}
	if config.Hardware.Simulator.FloorVolts != 0.9 {
		t.Errorf("Expected 0.9 V detector floor, got %.3f V", config.Hardware.Simulator.FloorVolts)
	}
	if config.Calibration.KnownLoadDb != swr.DefaultLoadDb {
		t.Errorf("Expected %.1f dB known load, got %.1f dB", swr.DefaultLoadDb, config.Calibration.KnownLoadDb)
	}
	if config.Sweep.Points != 100 {
		t.Errorf("Expected 100 points by default, got %d", config.Sweep.Points)
	}
	if config.Sweep.StartHz != 1e6 || config.Sweep.StopHz != 30e6 {
		t.Errorf("Expected default 1-30 MHz span, got %.0f-%.0f Hz", config.Sweep.StartHz, config.Sweep.StopHz)
	}
	if config.Rating.Weights != nil {
		t.Errorf("Expected nil weights by default, got %+v", config.Rating.Weights)
	}

	level, err := config.Settings.SlogLevel()
	if err != nil {
		t.Fatalf("Failed to parse log level: %v", err)
	}
	if level != slog.LevelInfo {
		t.Errorf("Expected info level by default, got %v", level)
	}
}

func TestLoadConfig_Invalid(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		if _, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
			t.Error("Expected error for missing file")
		}
	})

	t.Run("malformed yaml", func(t *testing.T) {
		if _, err := LoadConfig(writeConfig(t, "sweep: [")); err == nil {
			t.Error("Expected error for malformed YAML")
		}
	})

	t.Run("unknown driver", func(t *testing.T) {
		if _, err := LoadConfig(writeConfig(t, "hardware:\n  driver: hackrf\n")); err == nil {
			t.Error("Expected error for unknown driver")
		}
	})

	t.Run("bad log level", func(t *testing.T) {
		config, err := LoadConfig(writeConfig(t, "settings:\n  logLevel: loud\n"))
		if err != nil {
			t.Fatalf("Failed to load config: %v", err)
		}
		if _, err := config.Settings.SlogLevel(); err == nil {
			t.Error("Expected error for unknown log level")
		}
	})
}
