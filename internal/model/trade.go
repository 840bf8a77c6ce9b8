package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Action is the directional call produced by the classifier.
type Action string

const (
	ActionCall Action = "CALL"
	ActionPut  Action = "PUT"
	ActionSkip Action = "SKIP"
)

// Direction returns the broker-side order direction for the action.
func (a Action) Direction() string {
	switch a {
	case ActionCall:
		return "call"
	case ActionPut:
		return "put"
	}
	return ""
}

// Tier grades signal confidence for position sizing.
type Tier string

const (
	TierHigh   Tier = "high"
	TierNormal Tier = "normal"
	TierLow    Tier = "low"
)

// Decision is the classifier output for one cycle. Immutable once produced.
type Decision struct {
	Action      Action   `json:"action"`
	Probability *float64 `json:"probability,omitempty"`
	Tier        Tier     `json:"tier,omitempty"`
	Rationale   string   `json:"rationale"`
	Forced      bool     `json:"forced,omitempty"`
}

// TradeStatus tracks the execution state machine. Transitions are monotonic:
// REQUESTED -> ACK_FAILED, or REQUESTED -> OPEN -> WON|LOST|VOID|TIMEOUT.
type TradeStatus string

const (
	StatusRequested TradeStatus = "REQUESTED"
	StatusAckFailed TradeStatus = "ACK_FAILED"
	StatusOpen      TradeStatus = "OPEN"
	StatusWon       TradeStatus = "WON"
	StatusLost      TradeStatus = "LOST"
	StatusVoid      TradeStatus = "VOID"
	StatusTimeout   TradeStatus = "TIMEOUT"
)

// Terminal reports whether the status admits no further transition.
func (s TradeStatus) Terminal() bool {
	switch s {
	case StatusAckFailed, StatusWon, StatusLost, StatusVoid, StatusTimeout:
		return true
	}
	return false
}

// Settled reports whether the trade has a definitive market outcome that
// participates in streak and profit accounting. TIMEOUT and ACK_FAILED do not.
func (s TradeStatus) Settled() bool {
	switch s {
	case StatusWon, StatusLost, StatusVoid:
		return true
	}
	return false
}

// Trade is one submitted order and its resolution.
type Trade struct {
	ID        string          `json:"id"`
	Direction string          `json:"direction"`
	Stake     decimal.Decimal `json:"stake"`
	Asset     string          `json:"asset"`
	Status    TradeStatus     `json:"status"`
	Profit    decimal.Decimal `json:"profit"`
	OpenedAt  time.Time       `json:"openedAt"`
	SettledAt *time.Time      `json:"settledAt,omitempty"`

	Probability *float64 `json:"probability,omitempty"`
	Rationale   string   `json:"rationale,omitempty"`
	Mode        string   `json:"mode,omitempty"`
	Manual      bool     `json:"manual,omitempty"`
}
