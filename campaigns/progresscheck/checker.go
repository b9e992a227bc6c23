package progresscheck

import (
	"context"
	"fmt"
	"time"

	"recording-oracle/exchanges"
	"recording-oracle/goutils/datamodel"
)

// Setup carries everything a checker needs to evaluate one campaign
// over one progress window.
type Setup struct {
	ExchangeName string
	Symbol       string
	PeriodStart  time.Time
	PeriodEnd    time.Time
	Details      datamodel.CampaignDetails
}

// Result is one participant's outcome for the checked window.
// Metric fields are set depending on the campaign type.
type Result struct {
	AbuseDetected bool
	Score         float64
	TotalVolume   *float64
	TokenBalance  *float64
}

// Checker computes one participant's outcome for a progress window.
// All participants of one run go through the same checker instance so
// abuse can be cross-referenced via the shared AbuseSampler.
type Checker interface {
	CheckForParticipant(ctx context.Context, participant *datamodel.Participant) (*Result, error)
	CollectedMeta() datamodel.ProgressMeta
}

// NewChecker maps a campaign type to its checker implementation.
func NewChecker(
	campaignType datamodel.CampaignType,
	clientFactory exchanges.ClientFactory,
	sampler *AbuseSampler,
	setup Setup,
) (Checker, error) {
	switch campaignType {
	case datamodel.CampaignTypeMarketMaking:
		return NewMarketMakingChecker(clientFactory, sampler, setup), nil
	case datamodel.CampaignTypeHolding:
		return NewHoldingChecker(clientFactory, sampler, setup), nil
	case datamodel.CampaignTypeThreshold:
		return NewThresholdChecker(clientFactory, sampler, setup)
	default:
		return nil, fmt.Errorf("no progress checker for %s campaign", campaignType)
	}
}
