package campaigns

import (
	"time"

	"recording-oracle/goutils/datamodel"
)

// progressWindowLength is how much campaign time one recording run covers.
const progressWindowLength = 24 * time.Hour

type PlanKind int

const (
	// PlanSkip means the next window has not fully elapsed yet.
	PlanSkip PlanKind = iota
	// PlanOverlap means the recorded results already cover the campaign
	// end, so there is nothing left to check.
	PlanOverlap
	// PlanWindow means a concrete [From, To) window is due for checking.
	PlanWindow
)

// WindowPlan is the outcome of planning the next progress window.
type WindowPlan struct {
	Kind PlanKind
	From time.Time
	To   time.Time
}

// PlanNextWindow derives the next progress window from the campaign
// bounds and the last recorded result. Windows resume one millisecond
// past the previous To so consecutive runs never double-count trades.
func PlanNextWindow(campaign *datamodel.Campaign, lastResult *datamodel.IntermediateResult, now time.Time) WindowPlan {
	from := campaign.StartDate
	if lastResult != nil {
		from = lastResult.To.Add(time.Millisecond)
	}

	to := from.Add(progressWindowLength)
	if to.After(campaign.EndDate) {
		to = campaign.EndDate
	}

	// an ongoing campaign is only checked once a full window has elapsed
	if campaign.EndDate.After(now) && from.Add(progressWindowLength).After(now) {
		return WindowPlan{Kind: PlanSkip}
	}

	if !from.Before(to) {
		return WindowPlan{Kind: PlanOverlap}
	}

	return WindowPlan{Kind: PlanWindow, From: from, To: to}
}
