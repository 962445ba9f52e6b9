package main

import (
	"context"
	"errors"
	"log/slog"
	"os"

	"github.com/spf13/pflag"
	temporalworker "go.temporal.io/sdk/worker"

	"example.com/johar/internal/app"
	"example.com/johar/internal/config"
	"example.com/johar/internal/logging"
	"example.com/johar/internal/registry"
)

func main() {
	flags := config.Flags("certworker")
	if err := flags.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		os.Exit(2)
	}
	cfg, err := config.Load(flags)
	if err != nil {
		slog.Error("load config failed", "error", err)
		os.Exit(2)
	}

	ctx := context.Background()
	logger := logging.New(logging.Options{Level: cfg.LogLevel, Format: cfg.LogFormat})

	core, err := app.Open(ctx, cfg, logger)
	if err != nil {
		logger.Error("open core failed", "error", err, "driver", cfg.Store.Driver)
		os.Exit(1)
	}
	defer core.Close()

	c, err := app.DialTemporal(cfg.Temporal, logger)
	if err != nil {
		logger.Error("temporal unavailable", "error", err)
		os.Exit(1)
	}
	defer c.Close()

	w := registry.RegisterCertificationWorker(c, core.Registry, logger)
	logger.Info("certification worker started", "task_queue", registry.CertificationTaskQueue(), "driver", cfg.Store.Driver)
	if err := w.Run(temporalworker.InterruptCh()); err != nil {
		logger.Error("worker stopped", "error", err)
		os.Exit(1)
	}
	logger.Info("certification worker stopped")
}
