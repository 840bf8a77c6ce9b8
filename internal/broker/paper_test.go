package broker

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"option-trader/internal/model"
)

func loggedInPaper(t *testing.T) *Paper {
	t.Helper()
	p := NewPaper(1, zap.NewNop())
	require.NoError(t, p.Login(context.Background(), Credentials{Email: "trader@example.com", Password: "secret"}))
	return p
}

func TestPaper_RequiresLogin(t *testing.T) {
	p := NewPaper(1, zap.NewNop())
	ctx := context.Background()

	_, err := p.GetCandles(ctx, "EURUSD-OTC", 300, 120)
	assert.ErrorIs(t, err, model.ErrConnection)

	_, err = p.GetBalance(ctx)
	assert.ErrorIs(t, err, model.ErrConnection)

	_, err = p.PlaceOrder(ctx, decimal.NewFromInt(1), "EURUSD-OTC", "call", 1)
	assert.ErrorIs(t, err, model.ErrConnection)

	err = p.Login(ctx, Credentials{})
	assert.ErrorIs(t, err, model.ErrConnection)
}

func TestPaper_Candles(t *testing.T) {
	p := loggedInPaper(t)

	series, err := p.GetCandles(context.Background(), "EURUSD-OTC", 300, 120)
	require.NoError(t, err)
	require.Len(t, series, 120)

	for i, c := range series {
		assert.GreaterOrEqual(t, c.High, c.Open, "bar %d", i)
		assert.GreaterOrEqual(t, c.High, c.Close, "bar %d", i)
		assert.LessOrEqual(t, c.Low, c.Open, "bar %d", i)
		assert.LessOrEqual(t, c.Low, c.Close, "bar %d", i)
		if i > 0 {
			assert.True(t, c.Timestamp.After(series[i-1].Timestamp), "bar %d", i)
		}
	}
}

func TestPaper_Balances(t *testing.T) {
	p := loggedInPaper(t)
	ctx := context.Background()

	balance, err := p.GetBalance(ctx)
	require.NoError(t, err)
	assert.True(t, balance.Equal(decimal.NewFromInt(10000)))

	require.NoError(t, p.ChangeBalance(ctx, model.ModeLive))
	balance, err = p.GetBalance(ctx)
	require.NoError(t, err)
	assert.True(t, balance.IsZero())

	assert.Error(t, p.ChangeBalance(ctx, "demo"))
}

func TestPaper_OrderRejections(t *testing.T) {
	p := loggedInPaper(t)
	ctx := context.Background()

	_, err := p.PlaceOrder(ctx, decimal.Zero, "EURUSD-OTC", "call", 1)
	assert.ErrorIs(t, err, model.ErrOrderRejected)

	// The live ledger starts empty.
	require.NoError(t, p.ChangeBalance(ctx, model.ModeLive))
	_, err = p.PlaceOrder(ctx, decimal.NewFromInt(5), "EURUSD-OTC", "put", 1)
	assert.ErrorIs(t, err, model.ErrOrderRejected)
}

func TestPaper_SettlementAndLedger(t *testing.T) {
	p := loggedInPaper(t)
	ctx := context.Background()
	stake := decimal.NewFromInt(10)

	initial, err := p.GetBalance(ctx)
	require.NoError(t, err)

	// Zero expiration settles on the first poll.
	id, err := p.PlaceOrder(ctx, stake, "EURUSD-OTC", "call", 0)
	require.NoError(t, err)

	outcome, err := p.PollOutcome(ctx, id)
	require.NoError(t, err)
	require.True(t, outcome.Closed)

	// Polling again does not credit the ledger twice.
	again, err := p.PollOutcome(ctx, id)
	require.NoError(t, err)
	assert.True(t, again.Payout.Equal(outcome.Payout))

	balance, err := p.GetBalance(ctx)
	require.NoError(t, err)

	var want decimal.Decimal
	switch {
	case outcome.Payout.GreaterThan(decimal.Zero):
		want = initial.Add(outcome.Payout)
	case outcome.Payout.IsZero():
		want = initial
	default:
		want = initial.Sub(stake)
	}
	assert.True(t, balance.Equal(want), "balance=%s want=%s payout=%s", balance, want, outcome.Payout)

	detail, err := p.GetOrderDetail(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, detail)
	assert.Equal(t, outcome.Payout.GreaterThan(decimal.Zero), detail.Won)
}

func TestPaper_PendingBeforeExpiration(t *testing.T) {
	p := loggedInPaper(t)
	ctx := context.Background()

	id, err := p.PlaceOrder(ctx, decimal.NewFromInt(1), "EURUSD-OTC", "call", 1)
	require.NoError(t, err)

	outcome, err := p.PollOutcome(ctx, id)
	require.NoError(t, err)
	assert.False(t, outcome.Closed)

	detail, err := p.GetOrderDetail(ctx, id)
	require.NoError(t, err)
	assert.Nil(t, detail)

	_, err = p.PollOutcome(ctx, "nope")
	assert.Error(t, err)
}
