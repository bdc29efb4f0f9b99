// Package scheduler triggers ingestion runs on a cron schedule.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/robfig/cron/v3"

	"job-ingest-go/internal/ingest"
	"job-ingest-go/internal/logger"
)

// Runner is satisfied by *ingest.Runner.
type Runner interface {
	Run(ctx context.Context, selection string) (*ingest.RunReport, error)
}

type Config struct {
	Spec       string
	Selection  string
	RunOnStart bool
}

// Scheduler wraps robfig/cron. Overlapping ticks are skipped.
type Scheduler struct {
	cron   *cron.Cron
	runner Runner
	cfg    Config
	log    logger.Logger
	wg     sync.WaitGroup
}

// New parses the cron expression up front so a typo fails at startup.
func New(runner Runner, cfg Config, log logger.Logger) (*Scheduler, error) {
	if _, err := cron.ParseStandard(cfg.Spec); err != nil {
		return nil, fmt.Errorf("invalid cron spec %q: %w", cfg.Spec, err)
	}
	cl := cronLogger{log: log}
	return &Scheduler{
		cron: cron.New(
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		runner: runner,
		cfg:    cfg,
		log:    log,
	}, nil
}

// Start registers the job and starts the scheduler. With RunOnStart one run
// fires immediately instead of waiting for the first tick.
func (s *Scheduler) Start(ctx context.Context) error {
	if _, err := s.cron.AddFunc(s.cfg.Spec, func() { s.trigger(ctx, "cron") }); err != nil {
		return fmt.Errorf("cron.AddFunc: %w", err)
	}
	s.cron.Start()
	s.log.Info("scheduler started", logger.String("spec", s.cfg.Spec), logger.String("selection", s.cfg.Selection))

	if s.cfg.RunOnStart {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.trigger(ctx, "startup")
		}()
	}
	return nil
}

// Stop halts the schedule and waits for a run in progress to return.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.wg.Wait()
	s.log.Info("scheduler stopped")
}

func (s *Scheduler) trigger(ctx context.Context, cause string) {
	if ctx.Err() != nil {
		return
	}
	report, err := s.runner.Run(ctx, s.cfg.Selection)
	switch {
	case errors.Is(err, ingest.ErrRunInProgress):
		s.log.Info("scheduled run skipped, another run is in progress", logger.String("cause", cause))
	case err != nil:
		s.log.Error("scheduled run failed", logger.String("cause", cause), logger.Error(err))
	default:
		t := report.Totals()
		s.log.Info("scheduled run complete",
			logger.String("cause", cause),
			logger.String("run_id", report.RunID),
			logger.Int("created", t.Created),
			logger.Int("updated", t.Updated),
			logger.Int("errors", t.Errors),
		)
	}
}

// cronLogger adapts logger.Logger to cron.Logger.
type cronLogger struct {
	log logger.Logger
}

func (c cronLogger) Info(msg string, keysAndValues ...any) {
	c.log.Debug("cron: "+msg, fields(keysAndValues)...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...any) {
	c.log.Error("cron: "+msg, append(fields(keysAndValues), logger.Error(err))...)
}

func fields(kv []any) []logger.Field {
	out := make([]logger.Field, 0, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		out = append(out, logger.Any(fmt.Sprint(kv[i]), kv[i+1]))
	}
	return out
}
