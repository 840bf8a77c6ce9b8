// Package execution submits orders and resolves their outcomes. A trade moves
// REQUESTED -> ACK_FAILED, or REQUESTED -> OPEN -> WON | LOST | VOID | TIMEOUT;
// every terminal status is final. The executor also owns the per-account gate:
// at most one order may be in flight, shared between the manual and autonomous
// paths.
package execution

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"option-trader/internal/broker"
	"option-trader/internal/infrastructure"
	"option-trader/internal/model"
)

const (
	DefaultExpirationMinutes = 1
	defaultPollEvery         = 3 * time.Second
	defaultTimeout           = 70 * time.Second
)

type Executor struct {
	broker    broker.Broker
	logger    *zap.Logger
	gate      sync.Mutex
	pollEvery time.Duration
	timeout   time.Duration
}

func NewExecutor(b broker.Broker, logger *zap.Logger) *Executor {
	return &Executor{
		broker:    b,
		logger:    logger,
		pollEvery: defaultPollEvery,
		timeout:   defaultTimeout,
	}
}

// Order is a sized, directional request ready for submission.
type Order struct {
	Stake             decimal.Decimal
	Asset             string
	Direction         string
	ExpirationMinutes int
}

// Execute places the order and drives it to a terminal status. A second
// concurrent call is rejected immediately with ErrTradeInFlight rather than
// queued. The returned Trade is always populated; the error mirrors the
// terminal status for ACK_FAILED and TIMEOUT.
func (e *Executor) Execute(ctx context.Context, order Order) (model.Trade, error) {
	if !e.gate.TryLock() {
		return model.Trade{}, model.ErrTradeInFlight
	}
	defer e.gate.Unlock()

	if order.ExpirationMinutes <= 0 {
		order.ExpirationMinutes = DefaultExpirationMinutes
	}

	trade := model.Trade{
		Direction: order.Direction,
		Stake:     order.Stake,
		Asset:     order.Asset,
		Status:    model.StatusRequested,
		OpenedAt:  time.Now(),
	}

	id, err := e.broker.PlaceOrder(ctx, order.Stake, order.Asset, order.Direction, order.ExpirationMinutes)
	if err != nil {
		trade.Status = model.StatusAckFailed
		infrastructure.TradesTotal.WithLabelValues(string(trade.Status)).Inc()
		return trade, fmt.Errorf("%w: %v", model.ErrOrderRejected, err)
	}
	trade.ID = id
	trade.Status = model.StatusOpen

	e.logger.Info("order placed",
		zap.String("id", id),
		zap.String("direction", order.Direction),
		zap.String("stake", order.Stake.String()),
		zap.String("asset", order.Asset),
	)

	err = e.settle(ctx, &trade)
	infrastructure.TradesTotal.WithLabelValues(string(trade.Status)).Inc()
	if trade.Status.Settled() {
		infrastructure.SettlementSeconds.Observe(time.Since(trade.OpenedAt).Seconds())
	}
	return trade, err
}

// settle polls until a definitive outcome or the timeout. A stop request never
// aborts an open order, so the poll runs detached from the caller's
// cancellation; the deadline bounds it instead.
func (e *Executor) settle(ctx context.Context, trade *model.Trade) error {
	pollCtx := context.WithoutCancel(ctx)
	deadline := time.Now().Add(e.timeout)

	resolved := WaitUntil(pollCtx, e.pollEvery, deadline, func() bool {
		return e.checkOnce(pollCtx, trade)
	})

	if !resolved {
		trade.Status = model.StatusTimeout
		e.logger.Warn("settlement timed out, trade left unresolved for operator follow-up",
			zap.String("id", trade.ID),
			zap.Duration("timeout", e.timeout),
		)
		return model.ErrSettlementTimeout
	}

	now := time.Now()
	trade.SettledAt = &now
	e.logger.Info("trade settled",
		zap.String("id", trade.ID),
		zap.String("status", string(trade.Status)),
		zap.String("profit", trade.Profit.String()),
	)
	return nil
}

// checkOnce runs both settlement queries in order. Transient query errors are
// swallowed; the poll simply retries until the deadline.
func (e *Executor) checkOnce(ctx context.Context, trade *model.Trade) bool {
	out, err := e.broker.PollOutcome(ctx, trade.ID)
	if err != nil {
		e.logger.Debug("outcome poll failed", zap.String("id", trade.ID), zap.Error(err))
	} else if out.Closed {
		switch {
		case out.Payout.GreaterThan(decimal.Zero):
			trade.Status = model.StatusWon
			trade.Profit = out.Payout
		case out.Payout.IsZero():
			trade.Status = model.StatusVoid
			trade.Profit = decimal.Zero
		default:
			trade.Status = model.StatusLost
			trade.Profit = trade.Stake.Neg()
		}
		return true
	}

	detail, err := e.broker.GetOrderDetail(ctx, trade.ID)
	if err != nil {
		e.logger.Debug("detail query failed", zap.String("id", trade.ID), zap.Error(err))
		return false
	}
	if detail == nil {
		return false
	}

	if detail.Won {
		trade.Status = model.StatusWon
		trade.Profit = detail.Profit
	} else {
		trade.Status = model.StatusLost
		trade.Profit = trade.Stake.Neg()
	}
	return true
}
