package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/roman-kulish/antenna-analyzer/cmd/swrchart/app"
)

func main() {
	config, err := app.NewConfigFromCLI()
	if err != nil {
		slog.Error(err.Error())
		os.Exit(1)
	}

	level := slog.LevelInfo
	if config.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	if err = app.Run(context.Background(), config, logger); err != nil {
		logger.Error(err.Error())
		os.Exit(1)
	}
}
