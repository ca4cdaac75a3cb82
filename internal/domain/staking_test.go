package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRecommendStake_ZeroKellyStillMinStake(t *testing.T) {
	c := ValueCandidate{BestPrice: 2.0, FairProbability: 0.4}
	advice := RecommendStake(1000, c, DefaultStakeLimits())
	assert.Equal(t, 0.0, advice.KellyFraction)
	assert.InDelta(t, 2.0, advice.Stake, 1e-9)
	assert.True(t, advice.Clamped)
}

func TestRecommendStake_ClampedToMax(t *testing.T) {
	c := ValueCandidate{BestPrice: 3.0, FairProbability: 0.6}
	advice := RecommendStake(1000, c, DefaultStakeLimits())
	assert.InDelta(t, 0.25, advice.KellyFraction, 1e-9)
	assert.InDelta(t, 20.0, advice.Stake, 1e-9)
	assert.True(t, advice.Clamped)
}

func TestRecommendStake_WithinBounds(t *testing.T) {
	// b = 1.1, p = 0.48 → f = (0.528 − 0.52)/1.1 ≈ 0.00727
	c := ValueCandidate{BestPrice: 2.10, FairProbability: 0.48}
	advice := RecommendStake(1000, c, DefaultStakeLimits())
	assert.InDelta(t, 7.27, advice.Stake, 0.01)
	assert.False(t, advice.Clamped)
}

func TestRecommendStake_UnsetLimitsUseDefaults(t *testing.T) {
	c := ValueCandidate{BestPrice: 3.0, FairProbability: 0.6}
	advice := RecommendStake(1000, c, StakeLimits{})
	assert.InDelta(t, DefaultKellyCap, advice.KellyFraction, 1e-9)
	assert.InDelta(t, 20.0, advice.Stake, 1e-9, "el máximo se aplica aunque no se configure")
	assert.True(t, advice.Clamped)
}

func TestRecommendStake_MinAboveMaxUsesMax(t *testing.T) {
	c := ValueCandidate{BestPrice: 2.0, FairProbability: 0.4}
	advice := RecommendStake(1000, c, StakeLimits{KellyCap: 0.25, MinStakeFraction: 0.05, MaxStakeFraction: 0.01})
	assert.InDelta(t, 10.0, advice.Stake, 1e-9)
}

func TestStakeSplit_EqualPayout(t *testing.T) {
	sb := SurebetCandidate{
		Legs: []Leg{
			{Outcome: "Over", Price: 2.10, Bookmaker: "A"},
			{Outcome: "Under", Price: 2.10, Bookmaker: "B"},
		},
		Margin: 1 - 2/2.10,
	}
	split := sb.StakeSplit(100)
	assert.Len(t, split, 2)
	assert.InDelta(t, 50.0, split[0].Stake, 0.01)
	assert.InDelta(t, split[0].Payout, split[1].Payout, 0.01)
	assert.Greater(t, split[0].Payout, 100.0)

	assert.Equal(t, map[string]float64{"Over": 2.10, "Under": 2.10}, sb.Prices())
	assert.Nil(t, sb.StakeSplit(0))
}
