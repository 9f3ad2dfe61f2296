package strategy

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sigmill/internal/analysis/indicator"
	"sigmill/internal/market"
)

// fadeSeries closes near the bottom of its final bar while trending up: the
// long fade setup.
func fadeSeries(symbol string, n int) market.Series {
	s := market.Series{Symbol: symbol}
	price := 40.0
	for i := 0; i < n; i++ {
		price += 0.3
		bar := market.Bar{Open: price, High: price + 2, Low: price - 0.2, Close: price, Volume: 3_000_000}
		if i == n-1 {
			// IBR = 0.2/2.2 ~ 0.09
			bar.High = price + 2
			bar.Low = price - 0.2
		}
		s.Bars = append(s.Bars, bar)
	}
	return s
}

func hftLongConfig(t *testing.T, series market.Series) HFTConfig {
	t.Helper()
	closes := series.Closes()
	adx, ok := indicator.Last(indicator.ADX(series.Highs(), series.Lows(), closes, 4))
	require.True(t, ok)
	return HFTConfig{
		Name: "hft-long-test", Watchlist: "TEST", Bars: 251,
		MinPrice: 10, MaxPrice: 5000, VolumeEMA: 50, MinVolume: 2_000_000,
		TrendSMA: 250, ADXPeriod: 4, ADXMin: adx - 1,
		IBRLevel: 0.3, ATRPeriod: 5, ATRMultiple: 0.6, MaxPositions: 15,
	}
}

func TestHFTLongEntry(t *testing.T) {
	series := fadeSeries("FADE", 251)
	cfg := hftLongConfig(t, series)
	h := NewHFT(cfg)

	in := Input{
		Budget:    30_000,
		Series:    map[string]market.Series{"FADE": series},
		Positions: map[string]Position{},
	}
	intents, err := h.Evaluate(context.Background(), in)
	require.NoError(t, err)
	require.Len(t, intents, 1)

	entry := intents[0]
	assert.Equal(t, ActionBuy, entry.Action)
	assert.Equal(t, OrderLimit, entry.OrderType)
	assert.Equal(t, TIFGTD, entry.TIF)
	assert.True(t, entry.AttachMOC)

	last, _ := series.Last()
	atr, _ := indicator.Last(indicator.ATR(series.Highs(), series.Lows(), series.Closes(), 5))
	want := indicator.RoundToTick(last.Low - 0.6*atr)
	assert.InDelta(t, want, entry.LimitPrice, 1e-9)

	// slot budget 30000/15 = 2000, one share shaved off the floor
	wantQty := int64(math.Floor(2000/want - 1))
	if wantQty < 1 {
		wantQty = 1
	}
	assert.Equal(t, wantQty, entry.Quantity)
}

func TestHFTQuantityNeverBelowOne(t *testing.T) {
	series := fadeSeries("FADE", 251)
	cfg := hftLongConfig(t, series)
	h := NewHFT(cfg)

	in := Input{
		Budget:    10, // slot budget smaller than one share
		Series:    map[string]market.Series{"FADE": series},
		Positions: map[string]Position{},
	}
	intents, err := h.Evaluate(context.Background(), in)
	require.NoError(t, err)
	require.Len(t, intents, 1)
	assert.Equal(t, int64(1), intents[0].Quantity)
}

func TestHFTSkipsHeldSymbols(t *testing.T) {
	series := fadeSeries("FADE", 251)
	cfg := hftLongConfig(t, series)
	h := NewHFT(cfg)

	in := Input{
		Budget:    30_000,
		Series:    map[string]market.Series{"FADE": series},
		Positions: map[string]Position{"FADE": {Symbol: "FADE", Quantity: 5}},
	}
	intents, err := h.Evaluate(context.Background(), in)
	require.NoError(t, err)
	assert.Empty(t, intents)
}

func TestHFTIBRFilter(t *testing.T) {
	series := fadeSeries("FADE", 251)
	cfg := hftLongConfig(t, series)
	cfg.IBRLevel = 0.05 // final bar IBR ~0.09 fails a tighter gate
	h := NewHFT(cfg)

	in := Input{
		Budget:    30_000,
		Series:    map[string]market.Series{"FADE": series},
		Positions: map[string]Position{},
	}
	intents, err := h.Evaluate(context.Background(), in)
	require.NoError(t, err)
	assert.Empty(t, intents)
}

func TestHFTShortEntry(t *testing.T) {
	// mirror setup: close near the top of the final bar
	s := market.Series{Symbol: "RIP"}
	price := 40.0
	for i := 0; i < 251; i++ {
		price += 0.3
		s.Bars = append(s.Bars, market.Bar{
			Open: price, High: price + 0.2, Low: price - 2, Close: price, Volume: 3_000_000,
		})
	}
	closes := s.Closes()
	adx, ok := indicator.Last(indicator.ADX(s.Highs(), s.Lows(), closes, 4))
	require.True(t, ok)

	h := NewHFT(HFTConfig{
		Name: "hft-short-test", Watchlist: "TEST", Bars: 251, Short: true,
		MinPrice: 20, MaxPrice: 5000, VolumeEMA: 50, MinVolume: 2_000_000,
		TrendSMA: 250, ADXPeriod: 4, ADXMin: adx - 1,
		IBRLevel: 0.7, ATRPeriod: 5, ATRMultiple: 0.3, MaxPositions: 15,
	})
	in := Input{
		Budget:    30_000,
		Series:    map[string]market.Series{"RIP": s},
		Positions: map[string]Position{},
	}
	intents, err := h.Evaluate(context.Background(), in)
	require.NoError(t, err)
	require.Len(t, intents, 1)
	entry := intents[0]
	assert.Equal(t, ActionSellShort, entry.Action)
	assert.True(t, entry.AttachMOC)

	last, _ := s.Last()
	atr, _ := indicator.Last(indicator.ATR(s.Highs(), s.Lows(), closes, 5))
	assert.InDelta(t, indicator.RoundToTick(last.High+0.3*atr), entry.LimitPrice, 1e-9)
}
