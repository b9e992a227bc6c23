package progresscheck

import (
	"context"
	"fmt"

	"recording-oracle/exchanges"
	"recording-oracle/goutils/datamodel"
)

const (
	makerScoreRatio    = 1.0
	takerBuyScoreRatio = 0.42
)

// MarketMakingChecker scores participants by their trading activity in the
// campaign pair during the window. Maker fills score fully on both sides,
// taker buys score partially, taker sells score nothing.
type MarketMakingChecker struct {
	clientFactory exchanges.ClientFactory
	sampler       *AbuseSampler
	setup         Setup

	totalVolumeMeta float64
}

var _ Checker = (*MarketMakingChecker)(nil)

func NewMarketMakingChecker(clientFactory exchanges.ClientFactory, sampler *AbuseSampler, setup Setup) *MarketMakingChecker {
	return &MarketMakingChecker{
		clientFactory: clientFactory,
		sampler:       sampler,
		setup:         setup,
	}
}

func (c *MarketMakingChecker) CheckForParticipant(ctx context.Context, participant *datamodel.Participant) (*Result, error) {
	apiClient, err := c.clientFactory.Create(c.setup.ExchangeName, exchanges.Credentials{
		APIKey:    participant.APIKey,
		APISecret: participant.APISecret,
	})
	if err != nil {
		return nil, err
	}

	abuseDetected := false
	score := 0.0
	totalVolume := 0.0
	nTradesSampled := 0

	periodEndMs := c.setup.PeriodEnd.UnixMilli()

	// trades before the participant joined never count
	since := c.setup.PeriodStart.UnixMilli()
	if joinedMs := participant.JoinedAt.UnixMilli(); joinedMs > since {
		since = joinedMs
	}

	for since < periodEndMs && !abuseDetected {
		trades, err := apiClient.FetchMyTrades(ctx, c.setup.Symbol, since)
		if err != nil {
			return nil, err
		}

		if len(trades) == 0 {
			break
		}

		reachedPeriodEnd := false

		for _, trade := range trades {
			if trade.Timestamp >= periodEndMs {
				reachedPeriodEnd = true
				break
			}

			fingerprint := tradeFingerprint(trade)
			if c.sampler.Seen(fingerprint) {
				abuseDetected = true
				break
			}

			if nTradesSampled < c.sampler.SampleSize() {
				c.sampler.Add(fingerprint)
				nTradesSampled++
			}

			if trade.Side == exchanges.TradingSideBuy {
				totalVolume += trade.Cost
			}

			score += tradeScore(trade)
		}

		if reachedPeriodEnd {
			break
		}

		since = trades[len(trades)-1].Timestamp + 1
	}

	if abuseDetected {
		score = 0
		totalVolume = 0
	} else {
		// NOTE: two participants can trade with each other, so the total
		// is not 100% accurate, but the probability is negligible.
		c.totalVolumeMeta += totalVolume
	}

	return &Result{
		AbuseDetected: abuseDetected,
		Score:         score,
		TotalVolume:   &totalVolume,
	}, nil
}

func (c *MarketMakingChecker) CollectedMeta() datamodel.ProgressMeta {
	totalVolume := c.totalVolumeMeta

	return datamodel.ProgressMeta{TotalVolume: &totalVolume}
}

// tradeFingerprint includes the trade side so the two legs of one
// self-consistent trade reported under a single id do not collide.
func tradeFingerprint(trade exchanges.Trade) string {
	return fmt.Sprintf("trade:%s-%s", trade.ID, trade.Side)
}

func tradeScore(trade exchanges.Trade) float64 {
	var ratio float64

	if trade.TakerOrMaker == exchanges.FlagMaker {
		// market making trade, no matter which side
		ratio = makerScoreRatio
	} else if trade.Side == exchanges.TradingSideBuy {
		ratio = takerBuyScoreRatio
	} else {
		// taker sells add no liquidity value
		ratio = 0
	}

	return ratio * trade.Cost
}
