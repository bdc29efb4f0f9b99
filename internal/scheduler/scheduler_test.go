package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"job-ingest-go/internal/ingest"
	"job-ingest-go/internal/logger"
)

type fakeRunner struct {
	calls int32
	err   error
}

func (f *fakeRunner) Run(context.Context, string) (*ingest.RunReport, error) {
	atomic.AddInt32(&f.calls, 1)
	if f.err != nil {
		return nil, f.err
	}
	return &ingest.RunReport{RunID: "r1"}, nil
}

func TestNewRejectsBadCronExpression(t *testing.T) {
	_, err := New(&fakeRunner{}, Config{Spec: "whenever"}, logger.NewNop())
	require.Error(t, err)
}

func TestRunOnStart(t *testing.T) {
	r := &fakeRunner{}
	s, err := New(r, Config{Spec: "@every 1h", Selection: "all", RunOnStart: true}, logger.NewNop())
	require.NoError(t, err)

	require.NoError(t, s.Start(context.Background()))
	require.Eventually(t, func() bool { return atomic.LoadInt32(&r.calls) == 1 }, time.Second, 5*time.Millisecond)
	s.Stop()
}

func TestTriggerLogsOutcome(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	log := logger.FromZap(zap.New(core))

	s, err := New(&fakeRunner{err: ingest.ErrRunInProgress}, Config{Spec: "@hourly"}, log)
	require.NoError(t, err)
	s.trigger(context.Background(), "test")
	assert.Equal(t, 1, logs.FilterMessageSnippet("another run is in progress").Len())

	s.runner = &fakeRunner{err: errors.New("boom")}
	s.trigger(context.Background(), "test")
	assert.Equal(t, 1, logs.FilterMessage("scheduled run failed").Len())

	s.runner = &fakeRunner{}
	s.trigger(context.Background(), "test")
	assert.Equal(t, 1, logs.FilterMessage("scheduled run complete").Len())
}

func TestTriggerSkipsCancelledContext(t *testing.T) {
	r := &fakeRunner{}
	s, err := New(r, Config{Spec: "@hourly"}, logger.NewNop())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s.trigger(ctx, "test")
	assert.Zero(t, atomic.LoadInt32(&r.calls))
}
