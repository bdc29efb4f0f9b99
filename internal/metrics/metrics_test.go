package metrics_test

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"job-ingest-go/internal/metrics"
	"job-ingest-go/internal/models"
)

func TestRecordDecision(t *testing.T) {
	m := metrics.New()
	m.RecordDecision("remotive", models.Decision{Outcome: models.OutcomeCreated, Reason: models.ReasonOK})
	m.RecordDecision("remotive", models.Decision{Outcome: models.OutcomeCreated})
	m.RecordDecision("remotive", models.Decision{Outcome: models.OutcomeSkipped, Reason: models.ReasonBelowThreshold})

	assert.InDelta(t, 2, testutil.ToFloat64(m.Decisions.WithLabelValues("remotive", "created")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.Decisions.WithLabelValues("remotive", "skipped")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.SalaryReasons.WithLabelValues("remotive", "none")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.SalaryReasons.WithLabelValues("remotive", "below_threshold")), 0)
}

func TestRunGauges(t *testing.T) {
	m := metrics.New()
	m.RunStarted()
	assert.InDelta(t, 1, testutil.ToFloat64(m.RunsInFlight), 0)

	at := time.Unix(1_700_000_000, 0)
	m.RunFinished(3*time.Second, at)
	assert.InDelta(t, 0, testutil.ToFloat64(m.RunsInFlight), 0)
	assert.InDelta(t, float64(at.Unix()), testutil.ToFloat64(m.LastRunTimestamp), 0)
}

func TestIndependentRegistries(t *testing.T) {
	a, b := metrics.New(), metrics.New()
	a.RecordSourceError("greenhouse")
	assert.InDelta(t, 1, testutil.ToFloat64(a.SourceErrors.WithLabelValues("greenhouse")), 0)
	assert.InDelta(t, 0, testutil.ToFloat64(b.SourceErrors.WithLabelValues("greenhouse")), 0)
}

func TestHandlerExposesCounters(t *testing.T) {
	m := metrics.New()
	m.RecordFetched("remoteok", 12)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `ingest_candidates_fetched_total{source="remoteok"} 12`)
}
