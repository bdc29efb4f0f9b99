// Package ingest runs collectors and feeds their candidates through the
// resolver with bounded concurrency.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"job-ingest-go/internal/logger"
	"job-ingest-go/internal/models"
	"job-ingest-go/internal/sources"
)

var (
	// ErrRunInProgress is returned when Run is called while another run is executing.
	ErrRunInProgress = errors.New("ingest: run already in progress")
	// ErrNoSources is returned when the selection matches nothing.
	ErrNoSources = errors.New("ingest: no sources selected")
)

// Resolver is the subset of resolver.Resolver the runner needs.
type Resolver interface {
	Resolve(ctx context.Context, c models.RawCandidate) (models.Decision, error)
}

// Recorder receives run metrics. *metrics.Metrics implements it.
type Recorder interface {
	RecordFetched(source string, n int)
	RecordDecision(source string, d models.Decision)
	RecordRecordError(source string)
	RecordSourceError(source string)
	RecordSource(source string, d time.Duration)
	RunStarted()
	RunFinished(d time.Duration, at time.Time)
}

// Config bounds the runner's concurrency.
type Config struct {
	ConcurrentSources int `mapstructure:"concurrent_sources"`
	WorkersPerSource  int `mapstructure:"workers_per_source"`
}

func DefaultConfig() Config {
	return Config{ConcurrentSources: 5, WorkersPerSource: 8}
}

// Runner executes ingestion runs. Sources fan out behind a semaphore and each
// source's candidates go through a worker pool. At most one run executes at a
// time.
type Runner struct {
	sourceManager *sources.SourceManager
	resolver      Resolver
	rateLimiter   *RateLimiter
	recorder      Recorder
	cfg           Config
	log           logger.Logger
	now           func() time.Time

	mu      sync.Mutex
	running bool
	latest  *RunReport
}

type Option func(*Runner)

func WithRecorder(r Recorder) Option { return func(rn *Runner) { rn.recorder = r } }

func WithLogger(l logger.Logger) Option { return func(rn *Runner) { rn.log = l } }

func WithClock(now func() time.Time) Option { return func(rn *Runner) { rn.now = now } }

func WithRateLimiter(rl *RateLimiter) Option { return func(rn *Runner) { rn.rateLimiter = rl } }

func NewRunner(sm *sources.SourceManager, r Resolver, cfg Config, opts ...Option) *Runner {
	def := DefaultConfig()
	if cfg.ConcurrentSources <= 0 {
		cfg.ConcurrentSources = def.ConcurrentSources
	}
	if cfg.WorkersPerSource <= 0 {
		cfg.WorkersPerSource = def.WorkersPerSource
	}
	rn := &Runner{
		sourceManager: sm,
		resolver:      r,
		rateLimiter:   NewRateLimiter(),
		recorder:      nopRecorder{},
		cfg:           cfg,
		log:           logger.NewNop(),
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(rn)
	}
	return rn
}

// Run ingests the selected sources. The returned error is a hard failure
// (bad selection, overlapping run); per-source failures are in the report.
func (rn *Runner) Run(ctx context.Context, selection string) (*RunReport, error) {
	report, selected, err := rn.begin(selection)
	if err != nil {
		return report, err
	}
	return rn.execute(ctx, report, selected), nil
}

// Start reserves the runner and resolves the selection before returning, then
// runs in the background. The channel receives the finished report. Hard
// failures are returned directly and nothing is started.
func (rn *Runner) Start(ctx context.Context, selection string) (<-chan *RunReport, error) {
	report, selected, err := rn.begin(selection)
	if err != nil {
		return nil, err
	}
	done := make(chan *RunReport, 1)
	go func() {
		defer close(done)
		done <- rn.execute(ctx, report, selected)
	}()
	return done, nil
}

// begin marks the runner busy and selects sources. The runner is released
// again when begin fails.
func (rn *Runner) begin(selection string) (*RunReport, []sources.Source, error) {
	rn.mu.Lock()
	if rn.running {
		rn.mu.Unlock()
		return nil, nil, ErrRunInProgress
	}
	rn.running = true
	rn.mu.Unlock()

	report := &RunReport{
		RunID:     uuid.NewString(),
		Selection: selection,
		StartedAt: rn.now().UTC(),
	}
	selected, err := rn.sourceManager.Select(selection)
	if err == nil && len(selected) == 0 {
		err = ErrNoSources
	}
	if err != nil {
		report.Error = err.Error()
		report.FinishedAt = rn.now().UTC()
		rn.store(report)
		rn.release()
		return report, nil, fmt.Errorf("select sources %q: %w", selection, err)
	}
	return report, selected, nil
}

func (rn *Runner) release() {
	rn.mu.Lock()
	rn.running = false
	rn.mu.Unlock()
}

func (rn *Runner) execute(ctx context.Context, report *RunReport, selected []sources.Source) *RunReport {
	defer rn.release()
	log := rn.log.With(logger.String("run_id", report.RunID))
	selection := report.Selection

	rn.recorder.RunStarted()
	log.Info("ingestion run started",
		logger.String("selection", selection),
		logger.Int("sources", len(selected)),
	)

	results := make(chan SourceReport, len(selected))
	semaphore := make(chan struct{}, rn.cfg.ConcurrentSources)
	var wg sync.WaitGroup
	for _, src := range selected {
		wg.Add(1)
		go func(src sources.Source) {
			defer wg.Done()
			select {
			case semaphore <- struct{}{}:
			case <-ctx.Done():
				results <- SourceReport{Name: src.GetName(), Kind: src.GetKind(), Error: ctx.Err().Error()}
				return
			}
			defer func() { <-semaphore }()
			results <- rn.runSource(ctx, log, src)
		}(src)
	}
	wg.Wait()
	close(results)

	for r := range results {
		report.Sources = append(report.Sources, r)
	}
	sort.Slice(report.Sources, func(i, j int) bool { return report.Sources[i].Name < report.Sources[j].Name })

	report.FinishedAt = rn.now().UTC()
	report.Duration = report.FinishedAt.Sub(report.StartedAt)
	report.Cancelled = ctx.Err() != nil
	rn.recorder.RunFinished(report.Duration, report.FinishedAt)
	rn.store(report)

	t := report.Totals()
	log.Info("ingestion run finished",
		logger.Int("fetched", t.Fetched),
		logger.Int("created", t.Created),
		logger.Int("updated", t.Updated),
		logger.Int("skipped", t.Skipped),
		logger.Int("errors", t.Errors),
		logger.Duration("duration", report.Duration),
		logger.Bool("cancelled", report.Cancelled),
	)
	return report
}

// Latest returns the most recent report, or nil before the first run.
func (rn *Runner) Latest() *RunReport {
	rn.mu.Lock()
	defer rn.mu.Unlock()
	if rn.latest == nil {
		return nil
	}
	cp := *rn.latest
	cp.Sources = append([]SourceReport(nil), rn.latest.Sources...)
	return &cp
}

// Running reports whether a run is executing.
func (rn *Runner) Running() bool {
	rn.mu.Lock()
	defer rn.mu.Unlock()
	return rn.running
}

func (rn *Runner) store(r *RunReport) {
	rn.mu.Lock()
	rn.latest = r
	rn.mu.Unlock()
}

func (rn *Runner) runSource(ctx context.Context, log logger.Logger, src sources.Source) SourceReport {
	start := time.Now()
	name := src.GetName()
	rep := SourceReport{Name: name, Kind: src.GetKind()}
	log = log.With(logger.String("source", name))
	ctx = logger.WithContext(ctx, log)
	defer func() {
		rep.Duration = time.Since(start)
		rn.recorder.RecordSource(name, rep.Duration)
	}()

	rpm := src.GetRateLimit()
	if cfg, ok := rn.sourceManager.GetSourceConfig(name); ok && cfg.RateLimit > 0 {
		rpm = cfg.RateLimit
	}

	cands, err := src.FetchCandidates(ctx, rn.rateLimiter.For(name, rpm))
	if err != nil {
		rep.Error = err.Error()
		rn.recorder.RecordSourceError(name)
		log.Error("source fetch failed", logger.Error(err))
		return rep
	}
	rep.Fetched = len(cands)
	rn.recorder.RecordFetched(name, len(cands))

	unique := NewDeduplicator().RemoveDuplicates(cands)
	rep.Duplicates = len(cands) - len(unique)

	rn.resolveAll(ctx, log, name, unique, &rep)

	log.Info("source ingested",
		logger.Int("fetched", rep.Fetched),
		logger.Int("duplicates", rep.Duplicates),
		logger.Int("created", rep.Created),
		logger.Int("updated", rep.Updated),
		logger.Int("skipped", rep.Skipped),
		logger.Int("errors", rep.Errors),
	)
	return rep
}

type outcome struct {
	decision models.Decision
	err      error
}

// resolveAll stops dispatching once ctx is done; candidates already handed
// to a worker still finish.
func (rn *Runner) resolveAll(ctx context.Context, log logger.Logger, source string, cands []models.RawCandidate, rep *SourceReport) {
	jobs := make(chan models.RawCandidate)
	outcomes := make(chan outcome, rn.cfg.WorkersPerSource)

	var wg sync.WaitGroup
	for range min(rn.cfg.WorkersPerSource, max(len(cands), 1)) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for c := range jobs {
				d, err := rn.resolveOne(ctx, c)
				outcomes <- outcome{decision: d, err: err}
			}
		}()
	}

	var undispatched int
	go func() {
		defer close(jobs)
		for i, c := range cands {
			select {
			case jobs <- c:
			case <-ctx.Done():
				undispatched = len(cands) - i
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(outcomes)
	}()

	for o := range outcomes {
		if o.err != nil && ctx.Err() != nil && errors.Is(o.err, ctx.Err()) {
			rep.Cancelled++
			continue
		}
		if o.err != nil {
			rep.Errors++
			rep.Skipped++
			rn.recorder.RecordRecordError(source)
			log.Warn("candidate failed", logger.Error(o.err))
			continue
		}
		rep.add(o.decision.Outcome)
		rn.recorder.RecordDecision(source, o.decision)
	}
	rep.Cancelled += undispatched
}

// resolveOne turns a panic in the resolver into an error for that record.
func (rn *Runner) resolveOne(ctx context.Context, c models.RawCandidate) (d models.Decision, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic resolving %s: %v\n%s", c.SourceID, r, debug.Stack())
		}
	}()
	return rn.resolver.Resolve(ctx, c)
}

type nopRecorder struct{}

func (nopRecorder) RecordFetched(string, int) {}
func (nopRecorder) RecordDecision(string, models.Decision) {}
func (nopRecorder) RecordRecordError(string) {}
func (nopRecorder) RecordSourceError(string) {}
func (nopRecorder) RecordSource(string, time.Duration) {}
func (nopRecorder) RunStarted() {}
func (nopRecorder) RunFinished(time.Duration, time.Time) {}
