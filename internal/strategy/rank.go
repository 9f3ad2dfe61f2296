package strategy

import (
	"sort"

	"sigmill/internal/market"
)

type ranked struct {
	Symbol string
	Score  float64
}

// sortRanked orders by score descending; equal scores fall back to symbol
// order so ranking is stable across runs.
func sortRanked(list []ranked) {
	sort.Slice(list, func(i, j int) bool {
		if list[i].Score != list[j].Score {
			return list[i].Score > list[j].Score
		}
		return list[i].Symbol < list[j].Symbol
	})
}

// sortedSymbols returns the snapshot's symbols in deterministic order.
func sortedSymbols(series map[string]market.Series) []string {
	out := make([]string, 0, len(series))
	for sym := range series {
		out = append(out, sym)
	}
	sort.Strings(out)
	return out
}
