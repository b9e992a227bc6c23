package campaigns

import (
	"github.com/google/uuid"

	"recording-oracle/goutils/datamodel"
)

// BatchOutcomes splits participant outcomes into payout-sized batches,
// preserving order. Each batch gets a fresh id so downstream payout
// runs are idempotent per batch.
func BatchOutcomes(outcomes []datamodel.ParticipantOutcome, batchSize int) []datamodel.ParticipantOutcomesBatch {
	if batchSize <= 0 {
		batchSize = 1
	}

	batches := make([]datamodel.ParticipantOutcomesBatch, 0, (len(outcomes)+batchSize-1)/batchSize)
	for start := 0; start < len(outcomes); start += batchSize {
		end := start + batchSize
		if end > len(outcomes) {
			end = len(outcomes)
		}

		batches = append(batches, datamodel.ParticipantOutcomesBatch{
			ID:      uuid.NewString(),
			Results: outcomes[start:end],
		})
	}

	return batches
}
