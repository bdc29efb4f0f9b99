package ingest_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/time/rate"

	"job-ingest-go/internal/ingest"
	"job-ingest-go/internal/models"
)

func TestRateLimiterReusesPerSource(t *testing.T) {
	rl := ingest.NewRateLimiter()
	a := rl.For("remotive", 60)
	assert.Same(t, a, rl.For("remotive", 60))
	assert.NotSame(t, a, rl.For("remoteok", 60))

	b := rl.For("remotive", 30)
	assert.NotSame(t, a, b)
	assert.Equal(t, 30, b.Burst())

	assert.Equal(t, rate.Inf, rl.For("jsonl", 0).Limit())
}

func TestDeduplicator(t *testing.T) {
	d := ingest.NewDeduplicator()
	in := []models.RawCandidate{
		cand("alpha", "1", "Backend Engineer"),
		cand("alpha", "1", "Backend Engineer (copy)"),
		cand("alpha", "2", "backend engineer"),
		cand("alpha", "3", "Frontend Engineer"),
		cand("beta", "1", "Backend Engineer"),
	}
	out := d.RemoveDuplicates(in)

	var ids []string
	for _, c := range out {
		ids = append(ids, c.SourceName+":"+c.SourceID)
	}
	assert.Equal(t, []string{"alpha:1", "alpha:3", "beta:1"}, ids)
	assert.Len(t, in, 5)
}
