package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"LocalNewsMapper/internal/app"
	"LocalNewsMapper/internal/config"
	"LocalNewsMapper/internal/logging"
)

func main() {
	opts, err := config.ParseFlags(os.Args[1:])
	if errors.Is(err, config.ErrHelp) {
		return
	}
	if err != nil {
		os.Exit(2)
	}

	cfg, err := config.Load(opts)
	if err != nil {
		logging.New("error", "text").Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	logger := logging.New(cfg.Logging.Level, cfg.Logging.Format)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("application setup failed", "error", err)
		os.Exit(1)
	}

	runErr := application.Run(ctx)
	if err := application.Close(); err != nil {
		logger.Warn("close application", "error", err)
	}
	if runErr != nil {
		logger.Error("application stopped", "error", runErr)
		stop()
		os.Exit(1)
	}
}
