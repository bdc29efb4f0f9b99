package ingest

import (
	"time"

	"job-ingest-go/internal/models"
)

// SourceReport is the per-source tally for one run.
type SourceReport struct {
	Name       string            `json:"name"`
	Kind       models.SourceKind `json:"kind"`
	Fetched    int               `json:"fetched"`
	Duplicates int               `json:"duplicates"`
	Created    int               `json:"created"`
	Updated    int               `json:"updated"`
	Skipped    int               `json:"skipped"`
	Errors     int               `json:"errors"`
	Cancelled  int               `json:"cancelled"`
	Duration   time.Duration     `json:"duration"`
	Error      string            `json:"error,omitempty"`
}

func (s *SourceReport) add(o models.Outcome) {
	switch o {
	case models.OutcomeCreated:
		s.Created++
	case models.OutcomeUpdated:
		s.Updated++
	default:
		s.Skipped++
	}
}

// RunReport is what a batch run returns. Error holds a hard failure that
// prevented the run from starting; per-source failures live in Sources.
type RunReport struct {
	RunID      string         `json:"run_id"`
	Selection  string         `json:"selection"`
	StartedAt  time.Time      `json:"started_at"`
	FinishedAt time.Time      `json:"finished_at"`
	Duration   time.Duration  `json:"duration"`
	Sources    []SourceReport `json:"sources"`
	Cancelled  bool           `json:"cancelled"`
	Error      string         `json:"error,omitempty"`
}

// Totals sums every source.
func (r *RunReport) Totals() SourceReport {
	t := SourceReport{Name: "total"}
	for _, s := range r.Sources {
		t.Fetched += s.Fetched
		t.Duplicates += s.Duplicates
		t.Created += s.Created
		t.Updated += s.Updated
		t.Skipped += s.Skipped
		t.Errors += s.Errors
		t.Cancelled += s.Cancelled
	}
	t.Duration = r.Duration
	return t
}

// Failed reports whether any source failed outright.
func (r *RunReport) Failed() bool {
	if r.Error != "" {
		return true
	}
	for _, s := range r.Sources {
		if s.Error != "" {
			return true
		}
	}
	return false
}
