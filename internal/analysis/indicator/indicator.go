// Package indicator wraps go-talib with explicit warm-up semantics: every
// series function returns a slice aligned to its input where values inside
// the warm-up window are NaN, never zero. Callers must check with Last or
// math.IsNaN before using a value.
package indicator

import (
	"math"

	"github.com/markcheno/go-talib"
)

// SMA returns the simple moving average; NaN for the first period-1 entries.
func SMA(values []float64, period int) []float64 {
	if period <= 0 || len(values) < period {
		return allNaN(len(values))
	}
	return markWarmup(talib.Sma(values, period), period-1)
}

// EMA returns the exponential moving average seeded by the initial SMA.
func EMA(values []float64, period int) []float64 {
	if period <= 0 || len(values) < period {
		return allNaN(len(values))
	}
	return markWarmup(talib.Ema(values, period), period-1)
}

// ROC returns the percent rate of change: 100 * (v[t]/v[t-period] - 1).
func ROC(values []float64, period int) []float64 {
	if period <= 0 || len(values) < period+1 {
		return allNaN(len(values))
	}
	return markWarmup(talib.Roc(values, period), period)
}

// RSI returns Wilder's relative strength index, bounded [0,100].
func RSI(closes []float64, period int) []float64 {
	if period <= 0 || len(closes) < period+1 {
		return allNaN(len(closes))
	}
	return markWarmup(talib.Rsi(closes, period), period)
}

// ADX returns the average directional index. Wilder's DMI smoothing needs
// roughly two periods of history before the first usable value.
func ADX(highs, lows, closes []float64, period int) []float64 {
	if period <= 0 || len(closes) < 2*period {
		return allNaN(len(closes))
	}
	return markWarmup(talib.Adx(highs, lows, closes, period), 2*period-1)
}

// ATR returns Wilder's average true range.
func ATR(highs, lows, closes []float64, period int) []float64 {
	if period <= 0 || len(closes) < period+1 {
		return allNaN(len(closes))
	}
	return markWarmup(talib.Atr(highs, lows, closes, period), period)
}

// IBR is the internal bar range: where the close sits within the bar's
// high-low span. A zero-range bar returns 0.5 so the value stays usable in
// AND-combined entry predicates.
func IBR(high, low, close float64) float64 {
	if high == low {
		return 0.5
	}
	return (close - low) / (high - low)
}

// TickSize returns the exchange-valid price increment at a price level.
func TickSize(price float64) float64 {
	switch {
	case price < 0.1:
		return 0.001
	case price < 2:
		return 0.005
	default:
		return 0.01
	}
}

// RoundToTick snaps a price to the nearest valid increment. Applied to every
// limit price before it reaches an order record.
func RoundToTick(price float64) float64 {
	tick := TickSize(price)
	return math.Round(price/tick) * tick
}

// Last returns the final value of a series and whether it is usable.
func Last(series []float64) (float64, bool) {
	if len(series) == 0 {
		return 0, false
	}
	v := series[len(series)-1]
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// Snapshot maps indicator names to their latest scalar values for one
// symbol as of the evaluation bar. Recomputed every run, never persisted.
type Snapshot map[string]float64

// Get returns a named value; missing or NaN entries report false.
func (s Snapshot) Get(name string) (float64, bool) {
	v, ok := s[name]
	if !ok || math.IsNaN(v) {
		return 0, false
	}
	return v, true
}

func allNaN(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}

func markWarmup(series []float64, warmup int) []float64 {
	if warmup > len(series) {
		warmup = len(series)
	}
	for i := 0; i < warmup; i++ {
		series[i] = math.NaN()
	}
	return series
}
