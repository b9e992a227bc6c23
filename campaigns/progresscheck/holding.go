package progresscheck

import (
	"context"

	"recording-oracle/exchanges"
	"recording-oracle/goutils/datamodel"
)

// ethTokenSymbol is the asset whose deposit address identifies the
// account operator across exchange accounts.
const ethTokenSymbol = "ETH"

// HoldingChecker scores participants by their balance snapshot of the
// campaign token. Two participants sharing one ETH deposit address are
// one operator with multiple accounts, so the later one is flagged.
type HoldingChecker struct {
	clientFactory exchanges.ClientFactory
	sampler       *AbuseSampler
	setup         Setup

	totalBalanceMeta float64
}

var _ Checker = (*HoldingChecker)(nil)

func NewHoldingChecker(clientFactory exchanges.ClientFactory, sampler *AbuseSampler, setup Setup) *HoldingChecker {
	return &HoldingChecker{
		clientFactory: clientFactory,
		sampler:       sampler,
		setup:         setup,
	}
}

func (c *HoldingChecker) CheckForParticipant(ctx context.Context, participant *datamodel.Participant) (*Result, error) {
	depositAddress, tokenBalance, err := fetchBalanceSnapshot(ctx, c.clientFactory, c.setup, participant)
	if err != nil {
		return nil, err
	}

	fingerprint := depositAddressFingerprint(depositAddress)
	if c.sampler.Seen(fingerprint) {
		zero := 0.0

		return &Result{AbuseDetected: true, Score: 0, TokenBalance: &zero}, nil
	}

	c.sampler.Add(fingerprint)
	c.totalBalanceMeta += tokenBalance

	return &Result{
		AbuseDetected: false,
		Score:         tokenBalance,
		TokenBalance:  &tokenBalance,
	}, nil
}

func (c *HoldingChecker) CollectedMeta() datamodel.ProgressMeta {
	totalBalance := c.totalBalanceMeta

	return datamodel.ProgressMeta{TotalBalance: &totalBalance}
}

func depositAddressFingerprint(address string) string {
	return "deposit:" + address
}

func fetchBalanceSnapshot(
	ctx context.Context,
	clientFactory exchanges.ClientFactory,
	setup Setup,
	participant *datamodel.Participant,
) (depositAddress string, tokenBalance float64, err error) {
	apiClient, err := clientFactory.Create(setup.ExchangeName, exchanges.Credentials{
		APIKey:    participant.APIKey,
		APISecret: participant.APISecret,
	})
	if err != nil {
		return "", 0, err
	}

	depositAddress, err = apiClient.FetchDepositAddress(ctx, ethTokenSymbol)
	if err != nil {
		return "", 0, err
	}

	balance, err := apiClient.FetchBalance(ctx)
	if err != nil {
		return "", 0, err
	}

	return depositAddress, balance.Total[setup.Symbol], nil
}
