package campaigns

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"recording-oracle/goutils/datamodel"
)

func TestPlanNextWindow_FirstWindow(t *testing.T) {
	start := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

	campaign := &datamodel.Campaign{
		StartDate: start,
		EndDate:   start.Add(7 * 24 * time.Hour),
	}

	plan := PlanNextWindow(campaign, nil, start.Add(25*time.Hour))

	assert.Equal(t, PlanWindow, plan.Kind)
	assert.Equal(t, start, plan.From)
	assert.Equal(t, start.Add(24*time.Hour), plan.To)
}

func TestPlanNextWindow_ResumesPastLastResult(t *testing.T) {
	start := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

	campaign := &datamodel.Campaign{
		StartDate: start,
		EndDate:   start.Add(7 * 24 * time.Hour),
	}

	lastResult := &datamodel.IntermediateResult{
		From: start,
		To:   start.Add(24 * time.Hour),
	}

	plan := PlanNextWindow(campaign, lastResult, start.Add(49*time.Hour))

	assert.Equal(t, PlanWindow, plan.Kind)
	assert.Equal(t, start.Add(24*time.Hour+time.Millisecond), plan.From)
	assert.Equal(t, start.Add(48*time.Hour+time.Millisecond), plan.To)
}

func TestPlanNextWindow_ClampsToEndDate(t *testing.T) {
	start := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	end := start.Add(36 * time.Hour)

	campaign := &datamodel.Campaign{
		StartDate: start,
		EndDate:   end,
	}

	lastResult := &datamodel.IntermediateResult{
		From: start,
		To:   start.Add(24 * time.Hour),
	}

	// campaign already over, the tail window is shorter than a day
	plan := PlanNextWindow(campaign, lastResult, end.Add(time.Hour))

	assert.Equal(t, PlanWindow, plan.Kind)
	assert.Equal(t, start.Add(24*time.Hour+time.Millisecond), plan.From)
	assert.Equal(t, end, plan.To)
}

func TestPlanNextWindow_SkipsWhileWindowElapsing(t *testing.T) {
	start := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

	campaign := &datamodel.Campaign{
		StartDate: start,
		EndDate:   start.Add(7 * 24 * time.Hour),
	}

	plan := PlanNextWindow(campaign, nil, start.Add(23*time.Hour))

	assert.Equal(t, PlanSkip, plan.Kind)
}

func TestPlanNextWindow_ShortTailWaitsForCampaignEnd(t *testing.T) {
	start := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	end := start.Add(36 * time.Hour)

	campaign := &datamodel.Campaign{
		StartDate: start,
		EndDate:   end,
	}

	lastResult := &datamodel.IntermediateResult{
		From: start,
		To:   start.Add(24 * time.Hour),
	}

	// tail window is due only once the campaign end has passed
	plan := PlanNextWindow(campaign, lastResult, end.Add(-time.Hour))
	assert.Equal(t, PlanSkip, plan.Kind)

	plan = PlanNextWindow(campaign, lastResult, end.Add(time.Second))
	assert.Equal(t, PlanWindow, plan.Kind)
}

func TestPlanNextWindow_OverlapWhenFullyRecorded(t *testing.T) {
	start := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	end := start.Add(48 * time.Hour)

	campaign := &datamodel.Campaign{
		StartDate: start,
		EndDate:   end,
	}

	lastResult := &datamodel.IntermediateResult{
		From: start.Add(24 * time.Hour),
		To:   end,
	}

	plan := PlanNextWindow(campaign, lastResult, end.Add(24*time.Hour))

	assert.Equal(t, PlanOverlap, plan.Kind)
}
