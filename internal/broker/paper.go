package broker

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"option-trader/internal/model"
)

// Paper simulates a binary-options brokerage: a random-walk price feed,
// practice and live ledgers, and orders that settle at expiration with an
// 85% payout rate. Settlement is intentionally not instant so that callers
// exercise the real poll-until-closed path.
type Paper struct {
	mu       sync.Mutex
	rng      *rand.Rand
	logger   *zap.Logger
	loggedIn bool
	mode     string
	balances map[string]decimal.Decimal
	orders   map[string]*paperOrder
	seq      int
	price    float64
}

type paperOrder struct {
	direction string
	stake     decimal.Decimal
	expiresAt time.Time
	payout    decimal.Decimal
	resolved  bool
}

const paperPayoutRate = 0.85

func NewPaper(seed int64, logger *zap.Logger) *Paper {
	return &Paper{
		rng:    rand.New(rand.NewSource(seed)),
		logger: logger,
		mode:   model.ModePractice,
		balances: map[string]decimal.Decimal{
			model.ModePractice: decimal.NewFromInt(10000),
			model.ModeLive:     decimal.Zero,
		},
		orders: make(map[string]*paperOrder),
		price:  1.07,
	}
}

func (p *Paper) Login(ctx context.Context, creds Credentials) error {
	if creds.Email == "" || creds.Password == "" {
		return fmt.Errorf("%w: email and password required", model.ErrConnection)
	}
	p.mu.Lock()
	p.loggedIn = true
	p.mu.Unlock()
	return nil
}

func (p *Paper) GetCandles(ctx context.Context, asset string, intervalSeconds, count int) (model.CandleSeries, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.loggedIn {
		return nil, model.ErrConnection
	}

	interval := time.Duration(intervalSeconds) * time.Second
	start := time.Now().Truncate(interval).Add(-time.Duration(count-1) * interval)

	series := make(model.CandleSeries, 0, count)
	for i := 0; i < count; i++ {
		open := p.price
		// Random walk with a mild sinusoidal drift so volatility varies.
		drift := 0.0002 * math.Sin(float64(p.seq+i)/20)
		p.price *= 1 + drift + (p.rng.Float64()-0.5)*0.002
		close := p.price

		high := math.Max(open, close) * (1 + p.rng.Float64()*0.0005)
		low := math.Min(open, close) * (1 - p.rng.Float64()*0.0005)

		series = append(series, model.Candle{
			Open:      open,
			High:      high,
			Low:       low,
			Close:     close,
			Volume:    float64(p.rng.Intn(1000)),
			Timestamp: start.Add(time.Duration(i) * interval),
		})
	}
	p.seq += count
	return series, nil
}

func (p *Paper) GetBalance(ctx context.Context) (decimal.Decimal, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.loggedIn {
		return decimal.Zero, model.ErrConnection
	}
	return p.balances[p.mode], nil
}

func (p *Paper) ChangeBalance(ctx context.Context, kind string) error {
	if kind != model.ModePractice && kind != model.ModeLive {
		return fmt.Errorf("unknown balance kind: %s", kind)
	}
	p.mu.Lock()
	p.mode = kind
	p.mu.Unlock()
	return nil
}

func (p *Paper) PlaceOrder(ctx context.Context, stake decimal.Decimal, asset, direction string, expirationMinutes int) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.loggedIn {
		return "", model.ErrConnection
	}
	if stake.LessThanOrEqual(decimal.Zero) {
		return "", fmt.Errorf("%w: non-positive stake", model.ErrOrderRejected)
	}
	if p.balances[p.mode].LessThan(stake) {
		return "", fmt.Errorf("%w: insufficient balance", model.ErrOrderRejected)
	}

	p.seq++
	id := fmt.Sprintf("paper-%d", p.seq)

	// Outcome drawn at placement, revealed at expiration.
	var payout decimal.Decimal
	switch r := p.rng.Float64(); {
	case r < 0.02:
		payout = decimal.Zero // refund
	case r < 0.53:
		payout = stake.Mul(decimal.NewFromFloat(paperPayoutRate)).Round(2)
	default:
		payout = stake.Neg()
	}

	p.orders[id] = &paperOrder{
		direction: direction,
		stake:     stake,
		expiresAt: time.Now().Add(time.Duration(expirationMinutes) * time.Minute),
		payout:    payout,
	}
	p.balances[p.mode] = p.balances[p.mode].Sub(stake)

	p.logger.Debug("paper order placed",
		zap.String("id", id),
		zap.String("direction", direction),
		zap.String("stake", stake.String()),
	)
	return id, nil
}

func (p *Paper) PollOutcome(ctx context.Context, orderID string) (Outcome, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	order, ok := p.orders[orderID]
	if !ok {
		return Outcome{}, fmt.Errorf("unknown order: %s", orderID)
	}
	if time.Now().Before(order.expiresAt) {
		return Outcome{}, nil
	}

	p.settleLocked(order)
	return Outcome{Closed: true, Payout: order.payout}, nil
}

func (p *Paper) GetOrderDetail(ctx context.Context, orderID string) (*OrderDetail, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	order, ok := p.orders[orderID]
	if !ok || time.Now().Before(order.expiresAt) {
		return nil, nil
	}

	p.settleLocked(order)
	won := order.payout.GreaterThan(decimal.Zero)
	profit := order.payout
	if !won {
		profit = order.stake.Neg()
	}
	return &OrderDetail{Won: won, Profit: profit}, nil
}

// settleLocked credits the ledger exactly once per order.
func (p *Paper) settleLocked(order *paperOrder) {
	if order.resolved {
		return
	}
	order.resolved = true

	switch {
	case order.payout.GreaterThan(decimal.Zero):
		p.balances[p.mode] = p.balances[p.mode].Add(order.stake).Add(order.payout)
	case order.payout.IsZero():
		p.balances[p.mode] = p.balances[p.mode].Add(order.stake)
	}
}
