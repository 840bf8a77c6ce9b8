package risk

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"option-trader/internal/model"
)

func dec(v float64) decimal.Decimal { return decimal.NewFromFloat(v) }

func TestStake_WithinBracketBounds(t *testing.T) {
	cfg := model.DefaultRunConfig()
	tiers := []model.Tier{model.TierHigh, model.TierNormal, model.TierLow}
	balances := []float64{20, 50, 99, 100, 250, 499, 500, 1000, 25000}

	for _, tier := range tiers {
		for _, bal := range balances {
			balance := dec(bal)
			stake := Stake(balance, tier, model.RiskState{}, cfg)

			cap := cfg.MaxStake
			if bal < 100 {
				cap = dec(2)
			} else if bal < 500 {
				cap = dec(5)
			}
			assert.True(t, stake.GreaterThanOrEqual(cfg.MinStake),
				"tier=%s balance=%v stake=%s below floor", tier, bal, stake)
			assert.True(t, stake.LessThanOrEqual(cap),
				"tier=%s balance=%v stake=%s above cap", tier, bal, stake)
		}
	}
}

func TestStake_DailyStopForcesZero(t *testing.T) {
	cfg := model.DefaultRunConfig()
	cfg.DailyStopPct = 15

	// balance=50 -> stop threshold is -7.5; a daily loss of 8 engages it.
	state := model.RiskState{DailyProfit: dec(-8)}
	stake := Stake(dec(50), model.TierNormal, state, cfg)
	assert.True(t, stake.IsZero(), "got %s", stake)

	// A loss of 7 does not.
	state.DailyProfit = dec(-7)
	stake = Stake(dec(50), model.TierNormal, state, cfg)
	assert.False(t, stake.IsZero())
}

func TestStake_LossStreakHalves(t *testing.T) {
	cfg := model.DefaultRunConfig()
	cfg.MaxLossStreak = 3
	cfg.MaxStake = dec(1000) // keep the cap out of the way
	balance := dec(1000)

	base := Stake(balance, model.TierNormal, model.RiskState{}, cfg)
	damped := Stake(balance, model.TierNormal, model.RiskState{LossStreak: 3}, cfg)

	half := base.Div(decimal.NewFromInt(2))
	assert.True(t, damped.LessThanOrEqual(half),
		"damped=%s base=%s", damped, base)
}

func TestStake_TierScaling(t *testing.T) {
	cfg := model.DefaultRunConfig()
	cfg.MaxStake = dec(1000) // keep the cap out of the way
	balance := dec(1000)

	normal := Stake(balance, model.TierNormal, model.RiskState{}, cfg)
	high := Stake(balance, model.TierHigh, model.RiskState{}, cfg)
	low := Stake(balance, model.TierLow, model.RiskState{}, cfg)

	assert.True(t, high.Equal(dec(24)), "got %s", high)
	assert.True(t, normal.Equal(dec(20)), "got %s", normal)
	assert.True(t, low.Equal(dec(16)), "got %s", low)
}

func TestStake_WinStreakBump(t *testing.T) {
	cfg := model.DefaultRunConfig()
	cfg.MaxStake = dec(1000)
	balance := dec(1000)

	bumped := Stake(balance, model.TierNormal, model.RiskState{WinStreak: 3}, cfg)
	assert.True(t, bumped.Equal(dec(22)), "got %s", bumped)
}

func TestStake_MissingBalanceDegrades(t *testing.T) {
	cfg := model.DefaultRunConfig()
	stake := Stake(decimal.Zero, model.TierNormal, model.RiskState{}, cfg)
	assert.True(t, stake.Equal(DefaultStake))
}

func TestApply_StreakTransitions(t *testing.T) {
	state := model.RiskState{}

	won := model.Trade{Status: model.StatusWon, Profit: dec(0.85)}
	lost := model.Trade{Status: model.StatusLost, Profit: dec(-1)}

	Apply(&state, won)
	Apply(&state, won)
	assert.Equal(t, 2, state.WinStreak)
	assert.Equal(t, 0, state.LossStreak)

	Apply(&state, lost)
	assert.Equal(t, 0, state.WinStreak)
	assert.Equal(t, 1, state.LossStreak)
	assert.True(t, state.DailyProfit.Equal(dec(0.70)))
	assert.Equal(t, 3, state.TradesToday)
}

func TestApply_VoidLeavesStreaksUntouched(t *testing.T) {
	state := model.RiskState{WinStreak: 2}

	Apply(&state, model.Trade{Status: model.StatusVoid, Profit: decimal.Zero})
	assert.Equal(t, 2, state.WinStreak)
	assert.Equal(t, 0, state.LossStreak)
	assert.True(t, state.DailyProfit.IsZero())
	assert.Equal(t, 1, state.TradesToday)
}

func TestApply_UnresolvedTradesAreExcluded(t *testing.T) {
	state := model.RiskState{WinStreak: 1, DailyProfit: dec(5)}

	Apply(&state, model.Trade{Status: model.StatusTimeout})
	Apply(&state, model.Trade{Status: model.StatusAckFailed})

	assert.Equal(t, 1, state.WinStreak)
	assert.True(t, state.DailyProfit.Equal(dec(5)))
	assert.Equal(t, 0, state.TradesToday)
}
