// Package app assembles the core components from a resolved configuration.
// Every binary builds on the same wiring so the HTTP server, the Temporal
// worker and the batch CLI share one view of the record store.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.temporal.io/sdk/client"
	temporallog "go.temporal.io/sdk/log"

	"example.com/johar/internal/analytics"
	"example.com/johar/internal/assistant"
	"example.com/johar/internal/config"
	"example.com/johar/internal/market"
	"example.com/johar/internal/recordstore"
	"example.com/johar/internal/registry"
)

type App struct {
	Store     *recordstore.Store
	Metrics   *prometheus.Registry
	Analytics *analytics.Accumulator
	Issuer    *registry.HMACIssuer
	Registry  *registry.Registry
	Market    *market.Market
	Feedback  *assistant.FeedbackLog
}

// Open connects the configured record store and builds the components on top
// of it. The market catalogue is seeded on first start.
func Open(ctx context.Context, cfg config.Config, logger *slog.Logger) (*App, error) {
	backend, err := recordstore.Open(ctx, cfg.Store, logger.With("component", "recordstore"))
	if err != nil {
		return nil, fmt.Errorf("open record store: %w", err)
	}
	store := recordstore.New(backend, logger.With("component", "recordstore"))

	metrics := prometheus.NewRegistry()
	metrics.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	acc := analytics.New(store, logger.With("component", "analytics"), analytics.NewMetrics(metrics))
	issuer := registry.NewIssuer(cfg.CertSecret)
	a := &App{
		Store:     store,
		Metrics:   metrics,
		Analytics: acc,
		Issuer:    issuer,
		Registry:  registry.New(store, issuer, acc, logger.With("component", "registry")),
		Market:    market.New(store, acc, logger.With("component", "market")),
		Feedback:  assistant.NewFeedbackLog(store),
	}
	if err := a.Market.SeedDefaults(ctx); err != nil {
		_ = store.Close()
		return nil, err
	}
	return a, nil
}

func (a *App) Close() error {
	return a.Store.Close()
}

// DialTemporal connects to the configured Temporal frontend.
func DialTemporal(cfg config.Temporal, logger *slog.Logger) (client.Client, error) {
	hostPort := cfg.HostPort
	if hostPort == "" {
		hostPort = client.DefaultHostPort
	}
	c, err := client.Dial(client.Options{
		HostPort:  hostPort,
		Namespace: cfg.Namespace,
		Logger:    temporallog.NewStructuredLogger(logger.With("component", "temporal")),
	})
	if err != nil {
		return nil, fmt.Errorf("dial temporal %s: %w", hostPort, err)
	}
	return c, nil
}

// Runner returns a Temporal-backed batch runner when c is set and an
// in-process one otherwise.
func (a *App) Runner(c client.Client, logger *slog.Logger) registry.BatchRunner {
	if c == nil {
		return registry.NewDirectRunner(a.Registry)
	}
	return registry.NewTemporalRunner(c, logger)
}
