package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTradeStatus(t *testing.T) {
	terminal := []TradeStatus{StatusAckFailed, StatusWon, StatusLost, StatusVoid, StatusTimeout}
	for _, s := range terminal {
		assert.True(t, s.Terminal(), string(s))
	}
	assert.False(t, StatusRequested.Terminal())
	assert.False(t, StatusOpen.Terminal())

	settled := []TradeStatus{StatusWon, StatusLost, StatusVoid}
	for _, s := range settled {
		assert.True(t, s.Settled(), string(s))
	}
	for _, s := range []TradeStatus{StatusRequested, StatusOpen, StatusAckFailed, StatusTimeout} {
		assert.False(t, s.Settled(), string(s))
	}
}

func TestActionDirection(t *testing.T) {
	assert.Equal(t, "call", ActionCall.Direction())
	assert.Equal(t, "put", ActionPut.Direction())
	assert.Empty(t, ActionSkip.Direction())
}

func TestFeatureVectorOrder(t *testing.T) {
	fv := FeatureVector{
		RSI14: 1, EMA20: 2, EMA50: 3,
		MACD: 4, MACDSignal: 5, MACDHist: 6,
		BBHigh: 7, BBLow: 8, BBWidth: 9,
		ATR14: 10,
		Ret1:  11, Ret3: 12, Ret6: 13, Vol10: 14,
		Harami: 15,
	}

	vec := fv.ToVector()
	require.Len(t, vec, len(FeatureNames))

	// ToVector, FeatureNames and the JSON column names agree position by
	// position; the inference request and the weights file rely on that.
	raw, err := json.Marshal(fv)
	require.NoError(t, err)
	var cols map[string]any
	require.NoError(t, json.Unmarshal(raw, &cols))

	for i, name := range FeatureNames {
		assert.Equal(t, float64(i+1), vec[i], name)
		assert.Equal(t, vec[i], cols[name], name)
	}
}
