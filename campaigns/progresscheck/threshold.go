package progresscheck

import (
	"context"
	"errors"

	"recording-oracle/exchanges"
	"recording-oracle/goutils/datamodel"
)

// ThresholdChecker gives a binary score: 1 if the participant holds at
// least the configured minimum balance of the campaign token, else 0.
// Deposit-address abuse detection works the same way as for holding.
type ThresholdChecker struct {
	clientFactory exchanges.ClientFactory
	sampler       *AbuseSampler
	setup         Setup

	totalBalanceMeta float64
	totalScoreMeta   float64
}

var _ Checker = (*ThresholdChecker)(nil)

func NewThresholdChecker(clientFactory exchanges.ClientFactory, sampler *AbuseSampler, setup Setup) (*ThresholdChecker, error) {
	if setup.Details.MinimumBalanceTarget <= 0 {
		// safety belt: manifest validation must not let this through
		return nil, errors.New("no minimum balance target provided")
	}

	return &ThresholdChecker{
		clientFactory: clientFactory,
		sampler:       sampler,
		setup:         setup,
	}, nil
}

func (c *ThresholdChecker) CheckForParticipant(ctx context.Context, participant *datamodel.Participant) (*Result, error) {
	depositAddress, tokenBalance, err := fetchBalanceSnapshot(ctx, c.clientFactory, c.setup, participant)
	if err != nil {
		return nil, err
	}

	score := 0.0
	if tokenBalance >= c.setup.Details.MinimumBalanceTarget {
		score = 1
	}

	abuseDetected := false

	fingerprint := depositAddressFingerprint(depositAddress)
	if c.sampler.Seen(fingerprint) {
		abuseDetected = true
		score = 0
		tokenBalance = 0
	} else {
		c.sampler.Add(fingerprint)
	}

	c.totalBalanceMeta += tokenBalance
	c.totalScoreMeta += score

	return &Result{
		AbuseDetected: abuseDetected,
		Score:         score,
		TokenBalance:  &tokenBalance,
	}, nil
}

func (c *ThresholdChecker) CollectedMeta() datamodel.ProgressMeta {
	totalBalance := c.totalBalanceMeta
	totalScore := c.totalScoreMeta

	return datamodel.ProgressMeta{
		TotalBalance: &totalBalance,
		TotalScore:   &totalScore,
	}
}
