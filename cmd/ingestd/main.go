// Command ingestd is the long-running ingestion daemon: scheduled runs plus
// the HTTP control and metrics surface.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"job-ingest-go/internal/app"
	"job-ingest-go/internal/config"
	"job-ingest-go/internal/logger"
)

func main() {
	configFile := flag.String("config", "", "configuration file path")
	flag.Parse()

	if err := run(*configFile); err != nil {
		fmt.Fprintf(os.Stderr, "ingestd: %v\n", err)
		os.Exit(1)
	}
}

func run(configFile string) error {
	cfg, err := config.LoadConfig(configFile)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	log, err := logger.New(cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to setup logging: %w", err)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()

	log.Info("starting ingest daemon",
		logger.String("storage", cfg.Storage.Driver),
		logger.Int("concurrent_sources", cfg.Runner.ConcurrentSources),
		logger.Int("workers_per_source", cfg.Runner.WorkersPerSource),
		logger.Bool("schedule", cfg.Schedule.Enabled),
	)
	if err := a.Serve(ctx); err != nil {
		return err
	}
	log.Info("ingest daemon shutdown complete")
	return nil
}
