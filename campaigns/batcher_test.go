package campaigns

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"recording-oracle/goutils/datamodel"
)

func makeOutcomes(count int) []datamodel.ParticipantOutcome {
	outcomes := make([]datamodel.ParticipantOutcome, 0, count)
	for i := 0; i < count; i++ {
		score := float64(i)
		outcomes = append(outcomes, datamodel.ParticipantOutcome{
			Address: fmt.Sprintf("0x%040x", i),
			Score:   score,
		})
	}

	return outcomes
}

func TestBatchOutcomes_Empty(t *testing.T) {
	batches := BatchOutcomes(nil, 100)

	assert.Empty(t, batches)
}

func TestBatchOutcomes_SingleBatchAtLimit(t *testing.T) {
	batches := BatchOutcomes(makeOutcomes(100), 100)

	assert.Len(t, batches, 1)
	assert.Len(t, batches[0].Results, 100)
	assert.NotEmpty(t, batches[0].ID)
}

func TestBatchOutcomes_SplitsPastLimit(t *testing.T) {
	batches := BatchOutcomes(makeOutcomes(101), 100)

	assert.Len(t, batches, 2)
	assert.Len(t, batches[0].Results, 100)
	assert.Len(t, batches[1].Results, 1)
	assert.NotEqual(t, batches[0].ID, batches[1].ID)
}

func TestBatchOutcomes_PreservesOrder(t *testing.T) {
	outcomes := makeOutcomes(5)

	batches := BatchOutcomes(outcomes, 2)

	assert.Len(t, batches, 3)

	flattened := make([]datamodel.ParticipantOutcome, 0, len(outcomes))
	for _, batch := range batches {
		flattened = append(flattened, batch.Results...)
	}

	assert.Equal(t, outcomes, flattened)
}

func TestBatchOutcomes_NonPositiveBatchSize(t *testing.T) {
	batches := BatchOutcomes(makeOutcomes(3), 0)

	assert.Len(t, batches, 3)
}
