// Package regime implements the market-condition gate used by the rotation
// strategies: a breadth index is bullish when its latest close is above the
// close a fixed number of bars earlier.
package regime

import (
	"math"

	"sigmill/internal/market"
)

// Bullish reports whether the breadth series closed above its level lookback
// bars ago. Too little history or non-finite values count as not bullish;
// callers decide how to treat a missing series entirely.
func Bullish(series market.Series, lookback int) bool {
	if lookback <= 0 {
		return false
	}
	latest, ok := series.Last()
	if !ok {
		return false
	}
	ref, ok := series.Prev(lookback)
	if !ok {
		return false
	}
	if math.IsNaN(latest.Close) || math.IsNaN(ref.Close) {
		return false
	}
	return latest.Close > ref.Close
}
