package app

import (
	"context"
	"fmt"
	"image/jpeg"
	"image/png"
	"log/slog"
	"os"

	"github.com/roman-kulish/antenna-analyzer/internal/storage"
)

// Run loads a stored sweep with its rating and writes the chart image.
func Run(ctx context.Context, config *Config, logger *slog.Logger) error {
	store := storage.New(config.DBPath)
	defer store.Close()

	result, err := store.Sweep(ctx, config.SweepID)
	if err != nil {
		return fmt.Errorf("loading sweep %d: %w", config.SweepID, err)
	}
	if len(result.Points) == 0 {
		return fmt.Errorf("sweep %d has no measurement points", config.SweepID)
	}

	rated, err := store.Rating(ctx, config.SweepID)
	if err != nil {
		return fmt.Errorf("loading rating: %w", err)
	}

	logger.Debug("sweep loaded",
		slog.Int("points", len(result.Points)),
		slog.String("status", result.Status.String()))

	renderer, err := NewChartRenderer(config.MaxSWR)
	if err != nil {
		return fmt.Errorf("creating renderer: %w", err)
	}
	defer renderer.Close()

	img, err := renderer.Render(result, rated)
	if err != nil {
		return fmt.Errorf("rendering chart: %w", err)
	}

	out, err := os.Create(config.OutputFile)
	if err != nil {
		return fmt.Errorf("creating output file: %w", err)
	}

	switch config.Format {
	case ImageJPEG:
		err = jpeg.Encode(out, img, &jpeg.Options{Quality: 90})
	default:
		err = png.Encode(out, img)
	}
	if err != nil {
		_ = out.Close()
		return fmt.Errorf("encoding image: %w", err)
	}

	if err = out.Close(); err != nil {
		return fmt.Errorf("closing output file: %w", err)
	}

	logger.Info("chart written", slog.String("file", config.OutputFile))
	return nil
}
