package app

import (
	"context"
	"errors"
	"net/http"
	"time"

	"job-ingest-go/internal/api"
	"job-ingest-go/internal/logger"
	"job-ingest-go/internal/scheduler"
)

const shutdownTimeout = 30 * time.Second

// Serve runs the scheduler and the HTTP API until ctx is cancelled or the
// server fails, then shuts both down. In-flight runs see the cancellation and
// finish their current writes before Serve returns.
func (a *App) Serve(ctx context.Context) error {
	ctx, stop := context.WithCancel(ctx)
	defer stop()

	cfg := a.Config
	log := a.Log

	var sched *scheduler.Scheduler
	if cfg.Schedule.Enabled {
		var err error
		sched, err = scheduler.New(a.Runner, scheduler.Config{
			Spec:       cfg.Schedule.Cron,
			Selection:  cfg.Schedule.Selection,
			RunOnStart: cfg.Schedule.RunOnStart,
		}, log)
		if err != nil {
			return err
		}
		if err := sched.Start(ctx); err != nil {
			return err
		}
	}

	handler := api.NewHandler(ctx, a.Runner, a.Normalizer, log)
	srv := api.NewServer(api.ServerConfig{
		Address:      cfg.Server.Address,
		Mode:         cfg.Server.Mode,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}, api.NewRouter(handler, a.Metrics.Handler(), log))

	serverErr := make(chan error, 1)
	go func() {
		log.Info("HTTP server listening", logger.String("address", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	var runErr error
	select {
	case <-ctx.Done():
		log.Info("shutting down gracefully")
	case runErr = <-serverErr:
		if runErr != nil {
			log.Error("HTTP server failed", logger.Error(runErr))
		}
	}
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown failed", logger.Error(err))
	}
	if sched != nil {
		sched.Stop()
		log.Info("scheduler stopped")
	}
	handler.Wait()

	if latest := a.Runner.Latest(); latest != nil {
		tot := latest.Totals()
		log.Info("last run summary",
			logger.String("run_id", latest.RunID),
			logger.Int("created", tot.Created),
			logger.Int("updated", tot.Updated),
			logger.Int("skipped", tot.Skipped),
			logger.Int("errors", tot.Errors),
		)
	}
	return runErr
}
