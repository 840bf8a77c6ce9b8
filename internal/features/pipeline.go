package features

import (
	"fmt"
	"math"

	"option-trader/internal/model"

	"github.com/markcheno/go-talib"
)

// warmup is the longest indicator lookback (EMA-50); rows before it lack a
// complete feature set and are dropped.
const warmup = 49

// Pipeline turns a raw candle series into per-bar feature vectors.
type Pipeline struct{}

func NewPipeline() *Pipeline {
	return &Pipeline{}
}

// Compute calculates the full feature set for every bar with complete
// lookback, most recent last. Returns model.ErrData when the series has
// unusable columns or too few bars survive the warmup drop.
func (p *Pipeline) Compute(series model.CandleSeries) ([]model.FeatureVector, error) {
	if err := validate(series); err != nil {
		return nil, err
	}

	closes := series.Closes()
	highs := series.Highs()
	lows := series.Lows()

	rsi := talib.Rsi(closes, 14)
	ema20 := talib.Ema(closes, 20)
	ema50 := talib.Ema(closes, 50)
	macd, macdSignal, macdHist := talib.Macd(closes, 12, 26, 9)
	bbHigh, _, bbLow := talib.BBands(closes, 20, 2, 2, talib.SMA)
	atr := talib.Atr(highs, lows, closes, 14)

	ret1 := pctChange(closes, 1)
	ret3 := pctChange(closes, 3)
	ret6 := pctChange(closes, 6)
	vol10 := talib.StdDev(ret1, 10, 1)

	out := make([]model.FeatureVector, 0, len(series)-warmup)
	for i := warmup; i < len(series); i++ {
		fv := model.FeatureVector{
			RSI14:      rsi[i],
			EMA20:      ema20[i],
			EMA50:      ema50[i],
			MACD:       macd[i],
			MACDSignal: macdSignal[i],
			MACDHist:   macdHist[i],
			BBHigh:     bbHigh[i],
			BBLow:      bbLow[i],
			ATR14:      atr[i],
			Ret1:       ret1[i],
			Ret3:       ret3[i],
			Ret6:       ret6[i],
			Vol10:      vol10[i],
			Harami:     harami(series, i),
			Timestamp:  series[i].Timestamp,
		}
		if closes[i] != 0 {
			fv.BBWidth = (bbHigh[i] - bbLow[i]) / closes[i]
		}
		out = append(out, fv)
	}
	return out, nil
}

// validate applies the column rule inherited from the candle feed: of the five
// expected columns at least four must carry data, volume defaults to zero.
func validate(series model.CandleSeries) error {
	if len(series) <= warmup {
		return fmt.Errorf("%w: got %d bars, need more than %d", model.ErrData, len(series), warmup)
	}

	var hasOpen, hasHigh, hasLow, hasClose, hasVolume bool
	for _, c := range series {
		hasOpen = hasOpen || c.Open != 0
		hasHigh = hasHigh || c.High != 0
		hasLow = hasLow || c.Low != 0
		hasClose = hasClose || c.Close != 0
		hasVolume = hasVolume || c.Volume != 0
	}

	resolvable := 0
	for _, ok := range []bool{hasOpen, hasHigh, hasLow, hasClose, hasVolume} {
		if ok {
			resolvable++
		}
	}
	if resolvable < 4 || !hasOpen || !hasClose {
		return fmt.Errorf("%w: only %d of 5 candle columns resolvable", model.ErrData, resolvable)
	}
	return nil
}

// pctChange computes the n-bar percentage return, zero where lookback is
// incomplete.
func pctChange(values []float64, n int) []float64 {
	out := make([]float64, len(values))
	for i := n; i < len(values); i++ {
		prev := values[i-n]
		if prev == 0 || math.IsNaN(prev) {
			continue
		}
		out[i] = (values[i] - prev) / prev
	}
	return out
}

// harami flags a two-bar containment: the current body sits fully inside the
// prior body's range and is smaller in magnitude.
func harami(series model.CandleSeries, i int) float64 {
	if i == 0 {
		return 0
	}
	prev, curr := series[i-1], series[i]

	bodyPrev := math.Abs(prev.Close - prev.Open)
	bodyCurr := math.Abs(curr.Close - curr.Open)
	highPrev := math.Max(prev.Open, prev.Close)
	lowPrev := math.Min(prev.Open, prev.Close)

	inside := math.Max(curr.Open, curr.Close) <= highPrev &&
		math.Min(curr.Open, curr.Close) >= lowPrev
	if inside && bodyCurr < bodyPrev {
		return 1
	}
	return 0
}
