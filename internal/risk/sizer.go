package risk

import (
	"github.com/shopspring/decimal"

	"option-trader/internal/model"
)

// DefaultStake is the degraded stake when sizing inputs are unusable.
var DefaultStake = decimal.NewFromInt(1)

// Balance-bracket caps for small accounts.
var (
	smallBalance  = decimal.NewFromInt(100)
	smallCap      = decimal.NewFromInt(2)
	mediumBalance = decimal.NewFromInt(500)
	mediumCap     = decimal.NewFromInt(5)
)

// Stake sizes one trade from the balance, the signal confidence tier and the
// running risk state. Pure: the risk state is read, never written. A zero
// result means the daily stop is engaged and no trade may fire.
func Stake(balance decimal.Decimal, tier model.Tier, state model.RiskState, cfg model.RunConfig) decimal.Decimal {
	if balance.LessThanOrEqual(decimal.Zero) {
		return DefaultStake
	}

	riskPct := cfg.BasePct
	switch tier {
	case model.TierHigh:
		riskPct *= 1.2
	case model.TierLow:
		riskPct *= 0.8
	}

	// Loss-streak damping takes precedence over the win-streak bump.
	if state.LossStreak >= cfg.MaxLossStreak {
		riskPct *= 0.5
	} else if state.WinStreak >= 3 {
		riskPct *= 1.1
	}

	amount := balance.Mul(decimal.NewFromFloat(riskPct / 100))
	amount = clamp(amount, balance, cfg)

	// Daily stop overrides everything computed above.
	stop := balance.Mul(decimal.NewFromFloat(cfg.DailyStopPct / 100))
	if state.DailyProfit.LessThanOrEqual(stop.Neg()) {
		return decimal.Zero
	}

	return amount.Round(2)
}

// clamp applies the balance-bracket cap and the configured stake floor.
func clamp(amount, balance decimal.Decimal, cfg model.RunConfig) decimal.Decimal {
	cap := cfg.MaxStake
	if balance.LessThan(smallBalance) {
		cap = smallCap
	} else if balance.LessThan(mediumBalance) {
		cap = mediumCap
	}

	if amount.GreaterThan(cap) {
		amount = cap
	}
	if amount.LessThan(cfg.MinStake) {
		amount = cfg.MinStake
	}
	return amount
}

// Apply folds one settled trade into the risk state. VOID refunds leave the
// streak counters untouched; TIMEOUT and ACK_FAILED trades never reach here.
func Apply(state *model.RiskState, t model.Trade) {
	if !t.Status.Settled() {
		return
	}

	switch t.Status {
	case model.StatusWon:
		state.WinStreak++
		state.LossStreak = 0
	case model.StatusLost:
		state.LossStreak++
		state.WinStreak = 0
	}

	state.DailyProfit = state.DailyProfit.Add(t.Profit)
	state.TradesToday++
}
