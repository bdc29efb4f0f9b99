package ingest

import (
	"crypto/md5"
	"encoding/hex"
	"strings"

	"job-ingest-go/internal/models"
	"job-ingest-go/internal/roles"
)

// Deduplicator drops repeats inside one collector batch before they reach
// the resolver. Cross-source duplicates are the resolver's job.
type Deduplicator struct {
	seen map[string]bool
}

func NewDeduplicator() *Deduplicator {
	return &Deduplicator{seen: make(map[string]bool)}
}

// RemoveDuplicates keeps the first candidate for every source id and for
// every title/company/location triple.
func (d *Deduplicator) RemoveDuplicates(cands []models.RawCandidate) []models.RawCandidate {
	out := cands[:0:0]
	for _, c := range cands {
		byID := "id|" + c.SourceName + "|" + c.SourceID
		byContent := d.contentKey(c)
		if d.seen[byID] || d.seen[byContent] {
			continue
		}
		d.seen[byID] = true
		d.seen[byContent] = true
		out = append(out, c)
	}
	return out
}

func (d *Deduplicator) contentKey(c models.RawCandidate) string {
	key := strings.Join([]string{
		roles.Fold(c.Title),
		roles.Fold(c.CompanyNameRaw),
		roles.Fold(c.Location()),
	}, "|")
	sum := md5.Sum([]byte(key))
	return "content|" + c.SourceName + "|" + hex.EncodeToString(sum[:])
}
