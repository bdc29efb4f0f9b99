package resolver

import "job-ingest-go/internal/models"

// Priorities ranks source kinds. Higher wins.
type Priorities map[models.SourceKind]int

// DefaultPriorities prefers the employer's own listing over aggregator copies.
func DefaultPriorities() Priorities {
	return Priorities{
		models.SourceKindATS:          50,
		models.SourceKindCareers:      40,
		models.SourceKindCuratedBoard: 30,
		models.SourceKindBoard:        20,
		models.SourceKindGeneric:      10,
	}
}

// Of returns the priority for kind; unknown kinds rank as generic.
func (p Priorities) Of(kind models.SourceKind) int {
	if v, ok := p[kind]; ok {
		return v
	}
	return p[models.SourceKindGeneric]
}
