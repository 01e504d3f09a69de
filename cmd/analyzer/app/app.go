package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/roman-kulish/antenna-analyzer/internal/adc"
	"github.com/roman-kulish/antenna-analyzer/internal/dds"
	"github.com/roman-kulish/antenna-analyzer/internal/rating"
	"github.com/roman-kulish/antenna-analyzer/internal/rig"
	"github.com/roman-kulish/antenna-analyzer/internal/storage"
	"github.com/roman-kulish/antenna-analyzer/internal/sweep"
	"github.com/roman-kulish/antenna-analyzer/internal/swr"
)

const storageDir = "data"

// Run performs one sweep-and-rate cycle: calibrate from the configured
// references, sweep, rate, print the report and persist the results.
func Run(ctx context.Context, config *Config, logger *slog.Logger) error {
	channel, err := openChannel(&config.Hardware)
	if err != nil {
		return fmt.Errorf("opening hardware channel: %w", err)
	}
	defer channel.Close()

	constants, err := swr.Calibrate(
		config.Calibration.ShortCircuitVolts,
		config.Calibration.KnownLoadVolts,
		config.Calibration.KnownLoadDb)
	if err != nil {
		return fmt.Errorf("calibrating: %w", err)
	}

	logger.Info("calibration derived",
		slog.Float64("offsetVolts", constants.OffsetVolts),
		slog.Float64("scaleVoltsPerDb", constants.ScaleVoltsPerDb))

	controller := newController(channel, config, logger)

	result, sweepErr := controller.Run(ctx, sweep.Config{
		StartHz:     config.Sweep.StartHz,
		StopHz:      config.Sweep.StopHz,
		Points:      config.Sweep.Points,
		Calibration: &constants,
	})
	if result == nil {
		return fmt.Errorf("running sweep: %w", sweepErr)
	}
	if sweepErr != nil && !errors.Is(sweepErr, context.Canceled) {
		logger.Error(fmt.Sprintf("sweep faulted: %s", sweepErr.Error()))
	}

	var rated *rating.Rating
	if len(result.Points) > 0 {
		rater := rating.New(raterOptions(&config.Rating)...)
		if rated, err = rater.Rate(result); err != nil {
			return fmt.Errorf("rating sweep: %w", err)
		}
	}

	if err = WriteReport(os.Stdout, result, rated); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}

	if config.Storage.DataDirectory == "" {
		logger.Info("no data directory configured, results not persisted")
		return nil
	}
	// Persistence still runs after a cancelled sweep: the partial result
	// is valid data.
	return persist(context.WithoutCancel(ctx), config, result, rated, logger)
}

// SelfTest exercises the analog path without sweeping: one raw conversion
// per detector channel, reported through the logger.
func SelfTest(config *Config, logger *slog.Logger) error {
	channel, err := openChannel(&config.Hardware)
	if err != nil {
		return fmt.Errorf("opening hardware channel: %w", err)
	}
	defer channel.Close()

	vref := config.Hardware.ReferenceVoltage
	if vref == 0 {
		vref = adc.DefaultVref
	}

	for _, ch := range []int{adc.ChannelMagnitude, adc.ChannelPhase} {
		raw, err := channel.ReadAnalog(ch)
		if err != nil {
			return fmt.Errorf("reading channel %d: %w", ch, err)
		}

		logger.Info("analog channel sample",
			slog.Int("channel", ch),
			slog.Int("raw", int(raw)),
			slog.Float64("volts", float64(raw)*vref/adc.Resolution))
	}

	return nil
}

func openChannel(config *HardwareConfig) (rig.Channel, error) {
	if config.Driver == DriverRPi {
		return rig.OpenPi(rig.PiConfig{
			Lines:    configuredLines(config.Pins),
			SPIPort:  config.SPIPort,
			SPISpeed: config.SPISpeedHz,
		})
	}

	options := []func(*rig.Simulator){
		rig.WithDetector(simulatedDetector(&config.Simulator)),
	}
	if config.ReferenceClockHz != 0 {
		options = append(options, rig.WithClock(config.ReferenceClockHz))
	}
	if config.ReferenceVoltage != 0 {
		options = append(options, rig.WithVref(config.ReferenceVoltage))
	}
	if config.Simulator.NoiseVolts > 0 {
		options = append(options, rig.WithNoise(config.Simulator.NoiseVolts, config.Simulator.NoiseSeed))
	}

	return rig.NewSimulator(options...), nil
}

func simulatedDetector(config *SimulatorConfig) rig.DetectorFunc {
	if config.ResonantHz == 0 || config.DepthVolts == 0 {
		return rig.FlatDetector(config.FloorVolts, 1.5)
	}

	width := config.WidthHz
	if width == 0 {
		width = 1e6
	}
	return rig.DipoleDetector(config.ResonantHz, width, config.FloorVolts, config.DepthVolts)
}

func configuredLines(pins *PinConfig) []rig.Line {
	if pins == nil {
		return nil
	}
	return []rig.Line{
		rig.Line(pins.WordClock),
		rig.Line(pins.Data),
		rig.Line(pins.FreqLatch),
		rig.Line(pins.Reset),
	}
}

func newController(channel rig.Channel, config *Config, logger *slog.Logger) *sweep.Controller {
	var synthOptions []func(*dds.Synthesizer)
	if config.Hardware.ReferenceClockHz != 0 {
		synthOptions = append(synthOptions, dds.WithClock(config.Hardware.ReferenceClockHz))
	}
	if config.Hardware.MaxFrequencyHz != 0 {
		synthOptions = append(synthOptions, dds.WithMaxFrequency(config.Hardware.MaxFrequencyHz))
	}
	if p := config.Hardware.Pins; p != nil {
		synthOptions = append(synthOptions, dds.WithLines(
			rig.Line(p.WordClock), rig.Line(p.Data), rig.Line(p.FreqLatch), rig.Line(p.Reset)))
	}

	var samplerOptions []func(*adc.Sampler)
	if config.Hardware.ReferenceVoltage != 0 {
		samplerOptions = append(samplerOptions, adc.WithVref(config.Hardware.ReferenceVoltage))
	}
	if config.Sweep.Oversample > 1 {
		samplerOptions = append(samplerOptions, adc.WithOversampling(config.Sweep.Oversample))
	}

	controllerOptions := []func(*sweep.Controller){
		sweep.WithLogger(logger),
		sweep.WithProgress(func(index, total int, point sweep.Point) {
			logger.Debug("point measured",
				slog.Int("index", index),
				slog.Int("total", total),
				slog.Float64("frequencyHz", point.FrequencyHz),
				slog.Float64("swr", point.SWR))
		}),
	}
	if config.Sweep.SettleDelayMs > 0 {
		controllerOptions = append(controllerOptions,
			sweep.WithSettleDelay(time.Duration(config.Sweep.SettleDelayMs)*time.Millisecond))
	}
	if config.Sweep.SkipPhase {
		controllerOptions = append(controllerOptions, sweep.WithoutPhase())
	}

	return sweep.New(
		dds.New(channel, synthOptions...),
		adc.New(channel, samplerOptions...),
		controllerOptions...)
}

func raterOptions(config *RatingConfig) []func(*rating.Rater) {
	if config.Weights == nil {
		return nil
	}
	return []func(*rating.Rater){rating.WithWeights(*config.Weights)}
}

func persist(ctx context.Context, config *Config, result *sweep.Result, rated *rating.Rating, logger *slog.Logger) error {
	dir := config.Storage.DataDirectory
	if dir == "" {
		dir = storageDir
	}

	stat, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("storage directory '%s': %w", dir, err)
	}
	if !stat.IsDir() {
		return fmt.Errorf("invalid storage directory '%s'", dir)
	}

	dbPath := filepath.Join(dir, fmt.Sprintf("antenna_session_%s.sqlite", time.Now().UTC().Format("20060102_150405")))
	store := storage.New(dbPath)
	defer store.Close()

	sessionID, err := store.CreateSession(ctx, string(config.Hardware.Driver), "ad9850+mcp3008", config)
	if err != nil {
		return fmt.Errorf("creating session: %w", err)
	}

	sweepID, err := store.StoreSweep(ctx, sessionID, result)
	if err != nil {
		return fmt.Errorf("storing sweep: %w", err)
	}

	if rated != nil {
		if err = store.StoreRating(ctx, sweepID, rated); err != nil {
			return fmt.Errorf("storing rating: %w", err)
		}
	}

	logger.Info("results persisted",
		slog.String("db", dbPath),
		slog.Int64("sessionID", sessionID),
		slog.Int64("sweepID", sweepID))
	return nil
}
