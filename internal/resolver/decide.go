package resolver

import "job-ingest-go/internal/models"

// decide is the resolver's decision table.
//
//	exists | priority         | content  | outcome
//	-------+------------------+----------+--------------
//	no     | -                | -        | created
//	yes    | incoming > store | -        | updated
//	yes    | incoming = store | changed  | updated
//	yes    | incoming = store | same     | skipped (touch)
//	yes    | incoming < store | -        | skipped (touch)
func decide(existing *models.ResolvedJob, incomingPriority int, contentHash string) models.Outcome {
	switch {
	case existing == nil:
		return models.OutcomeCreated
	case incomingPriority > existing.SourcePriority:
		return models.OutcomeUpdated
	case incomingPriority == existing.SourcePriority && contentHash != existing.ContentHash:
		return models.OutcomeUpdated
	default:
		return models.OutcomeSkipped
	}
}
