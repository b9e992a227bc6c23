package campaigns

import (
	"errors"
	"math"
	"time"

	"github.com/shopspring/decimal"
)

// CalculateDailyReward splits the campaign fund evenly over its whole
// calendar duration, truncating at the fund token's precision. Partial
// days count as full days so the split never overshoots the fund.
func CalculateDailyReward(fundAmount decimal.Decimal, startDate, endDate time.Time, tokenDecimals int32) (decimal.Decimal, error) {
	durationDays := int64(math.Ceil(endDate.Sub(startDate).Hours() / 24))
	if durationDays <= 0 {
		return decimal.Zero, errors.New("campaign duration is not positive")
	}

	return fundAmount.Div(decimal.NewFromInt(durationDays)).Truncate(tokenDecimals), nil
}

// CalculateRewardPool scales the window's reward budget by how much of
// the volume target the participants generated, capped at the budget.
func CalculateRewardPool(maxRewardPool decimal.Decimal, totalGeneratedVolume float64, volumeTarget float64, tokenDecimals int32) (decimal.Decimal, error) {
	if volumeTarget <= 0 {
		return decimal.Zero, errors.New("volume target is not positive")
	}

	if totalGeneratedVolume <= 0 {
		return decimal.Zero, nil
	}

	if totalGeneratedVolume >= volumeTarget {
		return maxRewardPool, nil
	}

	ratio := decimal.NewFromFloat(totalGeneratedVolume).Div(decimal.NewFromFloat(volumeTarget))

	return maxRewardPool.Mul(ratio).Truncate(tokenDecimals), nil
}
