package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"
	"go.temporal.io/sdk/client"

	"example.com/johar/internal/api"
	"example.com/johar/internal/app"
	"example.com/johar/internal/assistant"
	"example.com/johar/internal/config"
	"example.com/johar/internal/logging"
	"example.com/johar/internal/planner"
	"example.com/johar/internal/sites"
)

func main() {
	flags := config.Flags("server")
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

	var temporalClient client.Client
	if cfg.Temporal.HostPort != "" {
		temporalClient, err = app.DialTemporal(cfg.Temporal, logger)
		if err != nil {
			logger.Error("temporal unavailable", "error", err)
			os.Exit(1)
		}
		defer temporalClient.Close()
	}
	if cfg.JWTSecret == "" {
		logger.Warn("jwt secret not set; admin routes are disabled")
	}

	catalog := sites.Default()
	serverLogger := logger.With("component", "http")
	srv := api.NewServer(api.Options{
		Catalog:     catalog,
		Planner:     planner.New(nil),
		Classifier:  assistant.NewClassifier(assistant.DefaultRules(), catalog),
		Speaker:     assistant.LogSpeaker{Logger: logger.With("component", "speaker")},
		Feedback:    core.Feedback,
		Market:      core.Market,
		Registry:    core.Registry,
		Issuer:      core.Issuer,
		Runner:      core.Runner(temporalClient, logger),
		Analytics:   core.Analytics,
		Registerer:  core.Metrics,
		Gatherer:    core.Metrics,
		JWTSecret:   cfg.JWTSecret,
		CORSOrigins: cfg.CORSOrigins,
		TrustProxy:  cfg.TrustProxy,
		ChatRate:    cfg.ChatRate,
		ChatBurst:   cfg.ChatBurst,
		Logger:      serverLogger,
	})

	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}

	go func() {
		serverLogger.Info("johar API listening", "addr", cfg.Addr, "driver", cfg.Store.Driver, "temporal", cfg.Temporal.HostPort != "")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverLogger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	waitForShutdown(serverLogger, server)
}

func waitForShutdown(logger *slog.Logger, server *http.Server) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
		return
	}
	logger.Info("johar API stopped")
}
