// Package metrics exposes ingestion counters in Prometheus format.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"job-ingest-go/internal/models"
)

const namespace = "ingest"

// Metrics holds all ingestion Prometheus metrics. Each instance owns its
// registry so tests can build as many as they like.
type Metrics struct {
	registry *prometheus.Registry

	CandidatesFetched *prometheus.CounterVec
	Decisions         *prometheus.CounterVec
	SalaryReasons     *prometheus.CounterVec
	RecordErrors      *prometheus.CounterVec
	SourceErrors      *prometheus.CounterVec
	SourceDuration    *prometheus.HistogramVec
	RunDuration       prometheus.Histogram
	LastRunTimestamp  prometheus.Gauge
	RunsInFlight      prometheus.Gauge
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,

		CandidatesFetched: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "candidates_fetched_total",
			Help:      "Raw candidates returned by collectors",
		}, []string{"source"}),
		Decisions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "decisions_total",
			Help:      "Resolver decisions by outcome",
		}, []string{"source", "outcome"}),
		SalaryReasons: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "salary_validation_total",
			Help:      "Salary validation results by reason",
		}, []string{"source", "reason"}),
		RecordErrors: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "record_errors_total",
			Help:      "Candidates that failed to resolve",
		}, []string{"source"}),
		SourceErrors: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "source_errors_total",
			Help:      "Collector fetches that failed after retries",
		}, []string{"source"}),
		SourceDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "source_duration_seconds",
			Help:      "Time to fetch and resolve one source",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300, 600},
		}, []string{"source"}),
		RunDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Wall time of a full ingestion run",
			Buckets:   []float64{1, 5, 10, 30, 60, 120, 300, 600, 1800},
		}),
		LastRunTimestamp: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time the last run finished",
		}),
		RunsInFlight: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "runs_in_flight",
			Help:      "Ingestion runs currently executing",
		}),
	}
}

func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler returns the Prometheus HTTP handler for /metrics endpoint
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) RecordFetched(source string, n int) {
	m.CandidatesFetched.WithLabelValues(source).Add(float64(n))
}

func (m *Metrics) RecordDecision(source string, d models.Decision) {
	m.Decisions.WithLabelValues(source, string(d.Outcome)).Inc()
	reason := string(d.Reason)
	if reason == "" {
		reason = "none"
	}
	m.SalaryReasons.WithLabelValues(source, reason).Inc()
}

func (m *Metrics) RecordRecordError(source string) {
	m.RecordErrors.WithLabelValues(source).Inc()
}

func (m *Metrics) RecordSourceError(source string) {
	m.SourceErrors.WithLabelValues(source).Inc()
}

func (m *Metrics) RecordSource(source string, d time.Duration) {
	m.SourceDuration.WithLabelValues(source).Observe(d.Seconds())
}

func (m *Metrics) RunStarted() { m.RunsInFlight.Inc() }

func (m *Metrics) RunFinished(d time.Duration, at time.Time) {
	m.RunsInFlight.Dec()
	m.RunDuration.Observe(d.Seconds())
	m.LastRunTimestamp.Set(float64(at.Unix()))
}
