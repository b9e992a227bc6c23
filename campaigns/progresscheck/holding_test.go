package progresscheck

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"recording-oracle/exchanges"
	"recording-oracle/goutils/datamodel"
	"recording-oracle/goutils/mock"
)

func holdingSetup() Setup {
	return Setup{
		ExchangeName: "binance",
		Symbol:       "HMT",
		PeriodStart:  testPeriodStart,
		PeriodEnd:    testPeriodEnd,
		Details:      datamodel.CampaignDetails{DailyBalanceTarget: 500},
	}
}

func factoryForBalances(balancesByDepositAddress map[string]float64, depositAddresses ...string) exchanges.ClientFactory {
	participantIdx := 0

	return mock.ClientFactoryMock{
		CreateMock: func(exchangeName string, creds exchanges.Credentials) (exchanges.APIClient, error) {
			depositAddress := depositAddresses[participantIdx]
			participantIdx++

			return mock.ExchangeClientMock{
				FetchDepositAddressMock: func(ctx context.Context, symbol string) (string, error) {
					return depositAddress, nil
				},
				FetchBalanceMock: func(ctx context.Context) (*exchanges.Balance, error) {
					return &exchanges.Balance{
						Total: map[string]float64{"HMT": balancesByDepositAddress[depositAddress]},
					}, nil
				},
			}, nil
		},
	}
}

func TestHoldingChecker_ScoresByTokenBalance(t *testing.T) {
	factory := factoryForBalances(
		map[string]float64{"0xaa": 300, "0xbb": 150},
		"0xaa", "0xbb",
	)

	sampler, _ := NewAbuseSampler(10, 100)
	checker := NewHoldingChecker(factory, sampler, holdingSetup())

	result, err := checker.CheckForParticipant(context.Background(), testParticipant("a"))
	assert.NoError(t, err)
	assert.False(t, result.AbuseDetected)
	assert.Equal(t, float64(300), result.Score)
	assert.Equal(t, float64(300), *result.TokenBalance)

	result, err = checker.CheckForParticipant(context.Background(), testParticipant("b"))
	assert.NoError(t, err)
	assert.Equal(t, float64(150), result.Score)

	meta := checker.CollectedMeta()
	assert.NotNil(t, meta.TotalBalance)
	assert.Equal(t, float64(450), *meta.TotalBalance)
}

func TestHoldingChecker_FlagsSharedDepositAddress(t *testing.T) {
	factory := factoryForBalances(
		map[string]float64{"0xaa": 300},
		"0xaa", "0xaa",
	)

	sampler, _ := NewAbuseSampler(10, 100)
	checker := NewHoldingChecker(factory, sampler, holdingSetup())

	result, err := checker.CheckForParticipant(context.Background(), testParticipant("a"))
	assert.NoError(t, err)
	assert.False(t, result.AbuseDetected)

	// second account behind the same deposit address is the same operator
	result, err = checker.CheckForParticipant(context.Background(), testParticipant("b"))
	assert.NoError(t, err)
	assert.True(t, result.AbuseDetected)
	assert.Zero(t, result.Score)
	assert.Zero(t, *result.TokenBalance)

	meta := checker.CollectedMeta()
	assert.Equal(t, float64(300), *meta.TotalBalance)
}
