// Package runner drives the autonomous trading loop: balance -> features ->
// decision -> stake -> execution -> settlement -> risk update -> persistence,
// repeated on a fixed interval until stopped or the daily loss stop engages.
// The runner owns the risk state; every other component reads it at most.
package runner

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"option-trader/internal/broker"
	"option-trader/internal/execution"
	"option-trader/internal/features"
	"option-trader/internal/infrastructure"
	"option-trader/internal/model"
	"option-trader/internal/risk"
	"option-trader/internal/signal"
	"option-trader/internal/storage"
)

// fallbackBalance stands in when the balance query fails; the cycle still
// runs and the sizer degrades instead of aborting.
var fallbackBalance = decimal.NewFromInt(10000)

var errDailyStop = errors.New("daily loss stop engaged")

// Publisher pushes cycle artifacts to the event bus for live subscribers.
type Publisher interface {
	PublishTrade(t model.Trade)
	PublishStatus(st model.RunStatus)
}

// NopPublisher discards events; used when no bus is wired and in tests.
type NopPublisher struct{}

func (NopPublisher) PublishTrade(model.Trade)      {}
func (NopPublisher) PublishStatus(model.RunStatus) {}

// CandleSpec describes the market history request made every cycle.
type CandleSpec struct {
	Asset           string
	IntervalSeconds int
	Count           int
}

// ManualRequest is a synchronous single-cycle trigger from the control layer.
type ManualRequest struct {
	Mode    string
	Amount  *decimal.Decimal
	Execute bool
	Force   bool
}

// Result summarizes one cycle for the control layer.
type Result struct {
	Decision model.Decision  `json:"decision"`
	Stake    decimal.Decimal `json:"stake"`
	Balance  decimal.Decimal `json:"balance"`
	Executed bool            `json:"executed"`
	Trade    *model.Trade    `json:"trade,omitempty"`
	Risk     model.RiskState `json:"risk"`
	Mode     string          `json:"mode"`
	At       time.Time       `json:"at"`
}

type Runner struct {
	broker     broker.Broker
	pipeline   *features.Pipeline
	classifier *signal.Classifier
	executor   *execution.Executor
	store      *storage.Store
	pub        Publisher
	logger     *zap.Logger
	candles    CandleSpec

	mu          sync.Mutex
	active      bool
	cancel      context.CancelFunc
	done        chan struct{}
	cfg         model.RunConfig
	riskState   model.RiskState
	stats       model.RunStats
	lastTrade   *model.Trade
	lastBalance decimal.Decimal
	nextRunAt   *time.Time
	lastErr     string
}

func New(b broker.Broker, p *features.Pipeline, c *signal.Classifier, e *execution.Executor,
	store *storage.Store, pub Publisher, candles CandleSpec, logger *zap.Logger) *Runner {
	if pub == nil {
		pub = NopPublisher{}
	}
	return &Runner{
		broker:      b,
		pipeline:    p,
		classifier:  c,
		executor:    e,
		store:       store,
		pub:         pub,
		logger:      logger,
		candles:     candles,
		cfg:         model.DefaultRunConfig(),
		lastBalance: fallbackBalance,
	}
}

// Start launches the autonomous loop with the given configuration. A second
// start while active is rejected.
func (r *Runner) Start(cfg model.RunConfig) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.active {
		return errors.New("run loop already active")
	}

	ctx, cancel := context.WithCancel(context.Background())
	r.cancel = cancel
	r.done = make(chan struct{})
	r.active = true
	r.cfg = cfg
	r.lastErr = ""

	r.persistLocked(nil)
	go r.loop(ctx)

	r.logger.Info("run loop started",
		zap.String("mode", cfg.Mode),
		zap.String("asset", cfg.Asset),
		zap.Int("intervalSeconds", cfg.IntervalSeconds),
	)
	return nil
}

// Stop requests a prompt halt. An in-flight settlement is allowed to finish
// or time out; the loop exits at the end of the current cycle.
func (r *Runner) Stop() {
	r.mu.Lock()
	cancel := r.cancel
	done := r.done
	r.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	if done != nil {
		<-done
	}
}

// Resume restarts the loop from the persisted document if it was active when
// the process last exited.
func (r *Runner) Resume() error {
	doc, err := r.store.Load()
	if err != nil {
		return err
	}

	r.mu.Lock()
	r.stats = doc.RunStats
	if n := len(doc.Trades); n > 0 {
		t := doc.Trades[n-1]
		r.lastTrade = &t
	}
	r.mu.Unlock()

	if !doc.RunActive {
		return nil
	}
	r.logger.Info("resuming run loop from persisted state")
	return r.Start(doc.RunConfig)
}

// Status returns the operator-facing snapshot.
func (r *Runner) Status() model.RunStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	return model.RunStatus{
		Active:    r.active,
		Stats:     r.stats,
		Risk:      r.riskState,
		Config:    r.cfg,
		LastTrade: r.lastTrade,
		NextRunAt: r.nextRunAt,
		LastError: r.lastErr,
	}
}

// ResetRisk clears the streak and daily P&L counters.
func (r *Runner) ResetRisk() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.riskState = model.RiskState{}
	infrastructure.DailyProfit.Set(0)
	r.logger.Info("risk state reset")
}

// ExecuteManual runs one synchronous cycle outside the schedule. It shares
// the execution gate with the autonomous loop, so a colliding order is
// rejected with ErrTradeInFlight.
func (r *Runner) ExecuteManual(ctx context.Context, req ManualRequest) (Result, error) {
	mode := req.Mode
	if mode == "" {
		r.mu.Lock()
		mode = r.cfg.Mode
		r.mu.Unlock()
	}

	r.mu.Lock()
	cfg := r.cfg
	r.mu.Unlock()
	cfg.Mode = mode
	cfg.FixedAmount = req.Amount

	res, err := r.cycle(ctx, cfg, req.Execute, req.Force, true)
	if errors.Is(err, errDailyStop) {
		// The manual caller gets the stopped result rather than an error.
		return res, nil
	}
	return res, err
}

// loop is the dedicated worker. Stop conditions are re-checked before every
// cycle and the inter-cycle wait wakes immediately on a stop request.
func (r *Runner) loop(ctx context.Context) {
	defer func() {
		r.halt()
		close(r.done)
	}()

	for {
		if ctx.Err() != nil {
			return
		}

		r.mu.Lock()
		cfg := r.cfg
		r.mu.Unlock()

		_, err := r.cycle(ctx, cfg, true, false, false)
		switch {
		case errors.Is(err, errDailyStop):
			r.logger.Warn("daily loss stop reached, halting run loop")
			return
		case errors.Is(err, model.ErrConnection):
			r.setLastErr(err)
			r.logger.Error("broker session lost, halting run loop pending operator action", zap.Error(err))
			return
		case err != nil:
			// A single bad cycle must not kill the loop: log, cool down,
			// continue.
			r.setLastErr(err)
			r.logger.Error("cycle failed, cooling down", zap.Error(err))
			if !execution.Sleep(ctx, 2*cfg.Interval()) {
				return
			}
			continue
		}

		next := time.Now().Add(cfg.Interval())
		r.mu.Lock()
		r.nextRunAt = &next
		r.mu.Unlock()

		if !execution.Sleep(ctx, cfg.Interval()) {
			return
		}
	}
}

// cycle runs one full decision pipeline pass. execute gates order submission;
// force bypasses the regime gate and defaults a signal-less cycle to CALL.
func (r *Runner) cycle(ctx context.Context, cfg model.RunConfig, execute, force, manual bool) (Result, error) {
	res := Result{Mode: cfg.Mode, At: time.Now()}

	balance := r.fetchBalance(ctx, cfg.Mode)
	res.Balance = balance

	series, err := r.broker.GetCandles(ctx, cfg.Asset, r.candles.IntervalSeconds, r.candles.Count)
	if err != nil {
		if errors.Is(err, model.ErrConnection) {
			return res, err
		}
		return res, fmt.Errorf("%w: candle fetch: %v", model.ErrData, err)
	}

	vectors, err := r.pipeline.Compute(series)
	if err != nil {
		return res, err
	}

	decision := r.classifier.Classify(vectors[len(vectors)-1], force)
	if force && decision.Action == model.ActionSkip {
		decision = model.Decision{
			Action:    model.ActionCall,
			Rationale: "manual override without signal",
			Forced:    true,
		}
	}
	res.Decision = decision
	infrastructure.CyclesTotal.WithLabelValues(string(decision.Action)).Inc()

	r.mu.Lock()
	state := r.riskState
	r.mu.Unlock()

	stake := risk.Stake(balance, decision.Tier, state, cfg)
	if cfg.FixedAmount != nil {
		stake = *cfg.FixedAmount
		// The daily stop still binds fixed-amount trades.
		stop := balance.Mul(decimal.NewFromFloat(cfg.DailyStopPct / 100))
		if state.DailyProfit.LessThanOrEqual(stop.Neg()) {
			stake = decimal.Zero
		}
	}
	res.Stake = stake

	if stake.IsZero() {
		res.Risk = state
		r.persistCycle(nil)
		return res, errDailyStop
	}

	if execute && decision.Action != model.ActionSkip {
		trade, err := r.executeAndApply(ctx, cfg, decision, stake, manual)
		if err != nil && errors.Is(err, model.ErrTradeInFlight) {
			return res, err
		}
		res.Trade = trade
		res.Executed = trade != nil && trade.Status != model.StatusAckFailed
	} else {
		r.persistCycle(nil)
	}

	r.mu.Lock()
	res.Risk = r.riskState
	r.mu.Unlock()

	r.pub.PublishStatus(r.Status())
	return res, nil
}

// executeAndApply submits the order, applies the settlement to the risk state
// exactly once, and persists the trade record.
func (r *Runner) executeAndApply(ctx context.Context, cfg model.RunConfig, decision model.Decision,
	stake decimal.Decimal, manual bool) (*model.Trade, error) {

	trade, err := r.executor.Execute(ctx, execution.Order{
		Stake:             stake,
		Asset:             cfg.Asset,
		Direction:         decision.Action.Direction(),
		ExpirationMinutes: execution.DefaultExpirationMinutes,
	})
	if errors.Is(err, model.ErrTradeInFlight) {
		return nil, err
	}

	trade.Probability = decision.Probability
	trade.Rationale = decision.Rationale
	trade.Mode = cfg.Mode
	trade.Manual = manual

	r.mu.Lock()
	if trade.Status.Settled() {
		risk.Apply(&r.riskState, trade)
		profit, _ := r.riskState.DailyProfit.Float64()
		infrastructure.DailyProfit.Set(profit)
		r.stats.TotalProfit = r.stats.TotalProfit.Add(trade.Profit)
		if trade.Status == model.StatusWon {
			r.stats.SuccessfulCount++
		}
	}
	r.stats.ExecutedCount++
	r.lastTrade = &trade
	r.mu.Unlock()

	r.persistCycle(&trade)
	r.pub.PublishTrade(trade)
	return &trade, nil
}

// fetchBalance switches accounts and reads the balance, degrading to the last
// known (or default) figure on failure.
func (r *Runner) fetchBalance(ctx context.Context, mode string) decimal.Decimal {
	if err := r.broker.ChangeBalance(ctx, mode); err != nil {
		r.logger.Warn("balance switch failed", zap.String("mode", mode), zap.Error(err))
	}

	balance, err := r.broker.GetBalance(ctx)
	if err != nil {
		r.mu.Lock()
		balance = r.lastBalance
		r.mu.Unlock()
		r.logger.Warn("balance query failed, using fallback",
			zap.Error(err),
			zap.String("fallback", balance.String()),
		)
		return balance
	}

	r.mu.Lock()
	r.lastBalance = balance
	r.mu.Unlock()
	return balance
}

// persistCycle writes stats, config, the active flag and optionally a trade
// record. Persistence failures are logged, never fatal: in-memory state stays
// authoritative and the next write retries.
func (r *Runner) persistCycle(trade *model.Trade) {
	r.mu.Lock()
	now := time.Now()
	r.stats.LastRunAt = &now
	r.persistLocked(trade)
	r.mu.Unlock()
}

func (r *Runner) persistLocked(trade *model.Trade) {
	err := r.store.Update(func(doc *storage.Document) {
		doc.RunStats = r.stats
		doc.RunConfig = r.cfg
		doc.RunActive = r.active
		if trade != nil {
			doc.Trades = append(doc.Trades, *trade)
		}
	})
	if err != nil {
		r.lastErr = err.Error()
		r.logger.Error("failed to persist run state", zap.Error(err))
	}
}

// halt marks the loop inactive and persists the halted state.
func (r *Runner) halt() {
	r.mu.Lock()
	r.active = false
	r.nextRunAt = nil
	if r.cancel != nil {
		r.cancel()
		r.cancel = nil
	}
	r.persistLocked(nil)
	r.mu.Unlock()

	r.pub.PublishStatus(r.Status())
	r.logger.Info("run loop stopped")
}

func (r *Runner) setLastErr(err error) {
	r.mu.Lock()
	r.lastErr = err.Error()
	r.mu.Unlock()
}
