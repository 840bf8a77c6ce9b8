// Package broker defines the brokerage collaborator consumed by the trading
// pipeline. The wire protocol of a live brokerage lives behind this interface;
// the package ships a deterministic paper implementation for practice runs
// and tests.
package broker

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"option-trader/internal/model"
)

// Credentials identify a brokerage account.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Outcome is the primary numeric-payout settlement signal. While the order is
// still open, Closed is false and Payout is meaningless. Once closed, a
// positive payout means won, exactly zero means the stake was refunded, and a
// negative value means lost.
type Outcome struct {
	Closed bool
	Payout decimal.Decimal
}

// OrderDetail is the secondary settlement query. Not every brokerage exposes
// it; implementations return (nil, nil) when absent.
type OrderDetail struct {
	Won    bool
	Profit decimal.Decimal
}

// Broker is the session-scoped brokerage API.
type Broker interface {
	// Login establishes the session for the given credentials.
	Login(ctx context.Context, creds Credentials) error
	// GetCandles returns count bars of intervalSeconds candles for the asset,
	// oldest first, ending at the current time.
	GetCandles(ctx context.Context, asset string, intervalSeconds, count int) (model.CandleSeries, error)
	// GetBalance returns the balance of the currently selected account.
	GetBalance(ctx context.Context) (decimal.Decimal, error)
	// ChangeBalance switches between the practice and live accounts.
	ChangeBalance(ctx context.Context, kind string) error
	// PlaceOrder submits a directional binary order expiring after
	// expirationMinutes and returns the broker-side order id.
	PlaceOrder(ctx context.Context, stake decimal.Decimal, asset, direction string, expirationMinutes int) (string, error)
	// PollOutcome queries the numeric settlement signal for an order.
	PollOutcome(ctx context.Context, orderID string) (Outcome, error)
	// GetOrderDetail queries the explicit won/profit record for an order.
	GetOrderDetail(ctx context.Context, orderID string) (*OrderDetail, error)
}

// Connect logs in with linear-backoff retries and verifies the session with a
// balance probe before handing it to the caller.
func Connect(ctx context.Context, b Broker, creds Credentials, logger *zap.Logger) error {
	const retries = 3
	backoff := 2 * time.Second

	var lastErr error
	for i := 0; i <= retries; i++ {
		if err := b.Login(ctx, creds); err != nil {
			lastErr = err
		} else if _, err := b.GetBalance(ctx); err != nil {
			lastErr = fmt.Errorf("connected but balance probe failed: %w", err)
		} else {
			return nil
		}

		if i < retries {
			logger.Warn("broker login failed, retrying",
				zap.Int("attempt", i+1),
				zap.Error(lastErr),
			)
			select {
			case <-ctx.Done():
				return fmt.Errorf("%w: %v", model.ErrConnection, ctx.Err())
			case <-time.After(backoff * time.Duration(i+1)):
			}
		}
	}
	return fmt.Errorf("%w: %v", model.ErrConnection, lastErr)
}

// New builds a broker by kind.
func New(kind string, logger *zap.Logger) (Broker, error) {
	switch kind {
	case "paper":
		return NewPaper(time.Now().UnixNano(), logger), nil
	default:
		return nil, fmt.Errorf("unknown broker kind: %s", kind)
	}
}
