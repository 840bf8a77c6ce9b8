package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Account modes understood by the broker.
const (
	ModePractice = "practice"
	ModeLive     = "live"
)

// RiskState is the path-dependent risk bookkeeping for the current day.
// Owned by the run loop; mutated only when a settled trade is applied.
type RiskState struct {
	WinStreak   int             `json:"winStreak"`
	LossStreak  int             `json:"lossStreak"`
	DailyProfit decimal.Decimal `json:"dailyProfit"`
	TradesToday int             `json:"tradesToday"`
}

// RunConfig parameterizes one run. Immutable within a cycle.
type RunConfig struct {
	Mode            string           `json:"mode"`
	Asset           string           `json:"asset"`
	BasePct         float64          `json:"basePct"`
	MaxLossStreak   int              `json:"maxLossStreak"`
	DailyStopPct    float64          `json:"dailyStopPct"`
	MinStake        decimal.Decimal  `json:"minStake"`
	MaxStake        decimal.Decimal  `json:"maxStake"`
	IntervalSeconds int              `json:"intervalSeconds"`
	FixedAmount     *decimal.Decimal `json:"fixedAmount,omitempty"`
}

// DefaultRunConfig mirrors the stock risk profile of the bot.
func DefaultRunConfig() RunConfig {
	return RunConfig{
		Mode:            ModePractice,
		Asset:           "EURUSD-OTC",
		BasePct:         2.0,
		MaxLossStreak:   3,
		DailyStopPct:    15.0,
		MinStake:        decimal.NewFromInt(1),
		MaxStake:        decimal.NewFromInt(10),
		IntervalSeconds: 60,
	}
}

// Interval returns the wall-clock cycle period.
func (c RunConfig) Interval() time.Duration {
	if c.IntervalSeconds <= 0 {
		return time.Minute
	}
	return time.Duration(c.IntervalSeconds) * time.Second
}

// RunStats is the persisted per-run counter block.
type RunStats struct {
	ExecutedCount   int             `json:"executedCount"`
	SuccessfulCount int             `json:"successfulCount"`
	TotalProfit     decimal.Decimal `json:"totalProfit"`
	LastRunAt       *time.Time      `json:"lastRunAt,omitempty"`
}

// RunStatus is the operator-facing snapshot returned by the status operation.
type RunStatus struct {
	Active    bool       `json:"active"`
	Stats     RunStats   `json:"stats"`
	Risk      RiskState  `json:"risk"`
	Config    RunConfig  `json:"config"`
	LastTrade *Trade     `json:"lastTrade,omitempty"`
	NextRunAt *time.Time `json:"nextRunAt,omitempty"`
	LastError string     `json:"lastError,omitempty"`
}
