package model

import (
	"time"
)

// Candle represents one fixed-interval OHLCV bar.
type Candle struct {
	Open      float64   `json:"open"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	Close     float64   `json:"close"`
	Volume    float64   `json:"volume"`
	Timestamp time.Time `json:"ts"`
}

// CandleSeries is an ordered bar sequence, oldest first.
type CandleSeries []Candle

// Closes extracts the close column.
func (s CandleSeries) Closes() []float64 {
	out := make([]float64, len(s))
	for i, c := range s {
		out[i] = c.Close
	}
	return out
}

// Highs extracts the high column.
func (s CandleSeries) Highs() []float64 {
	out := make([]float64, len(s))
	for i, c := range s {
		out[i] = c.High
	}
	return out
}

// Lows extracts the low column.
func (s CandleSeries) Lows() []float64 {
	out := make([]float64, len(s))
	for i, c := range s {
		out[i] = c.Low
	}
	return out
}

// FeatureVector holds the named technical features for a single bar.
// JSON names match the model's training feature set.
type FeatureVector struct {
	RSI14      float64 `json:"rsi_14"`
	EMA20      float64 `json:"ema_20"`
	EMA50      float64 `json:"ema_50"`
	MACD       float64 `json:"macd"`
	MACDSignal float64 `json:"macd_signal"`
	MACDHist   float64 `json:"macd_hist"`
	BBHigh     float64 `json:"bb_high"`
	BBLow      float64 `json:"bb_low"`
	BBWidth    float64 `json:"bb_width"`
	ATR14      float64 `json:"atr_14"`
	Ret1       float64 `json:"ret_1"`
	Ret3       float64 `json:"ret_3"`
	Ret6       float64 `json:"ret_6"`
	Vol10      float64 `json:"vol_10"`
	Harami     float64 `json:"harami"`

	Timestamp time.Time `json:"ts"`
}

// FeatureNames lists the model input features in training order.
var FeatureNames = []string{
	"rsi_14", "ema_20", "ema_50",
	"macd", "macd_signal", "macd_hist",
	"bb_high", "bb_low", "bb_width",
	"atr_14",
	"ret_1", "ret_3", "ret_6", "vol_10",
	"harami",
}

// ToVector flattens the features in training order.
func (f FeatureVector) ToVector() []float64 {
	return []float64{
		f.RSI14, f.EMA20, f.EMA50,
		f.MACD, f.MACDSignal, f.MACDHist,
		f.BBHigh, f.BBLow, f.BBWidth,
		f.ATR14,
		f.Ret1, f.Ret3, f.Ret6, f.Vol10,
		f.Harami,
	}
}
