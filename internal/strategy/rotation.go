package strategy

import (
	"context"
	"math"

	"sigmill/internal/analysis/indicator"
	"sigmill/internal/capital"
	"sigmill/internal/logger"
)

// RotationConfig parameterizes the momentum-rotation family. The momentum,
// growth and defensive variants are the same machine with different
// universes, factor periods and rank thresholds.
type RotationConfig struct {
	Name       string
	Watchlist  string
	Symbols    []string
	Bars       int
	FastPeriod int
	SlowPeriod int
	FastWeight float64
	SlowWeight float64

	// TrendSMA requires close above its SMA when > 0.
	TrendSMA int
	// UptrendBars requires the factor positive over this many trailing bars.
	UptrendBars int
	// Entries come from the top MaxPositions ranks; held symbols survive
	// while their rank stays at or above WorstRank.
	MaxPositions int
	WorstRank    int
	// Gated suppresses new entries when the market-condition gate is off.
	Gated bool
}

// Rotation holds a rank-and-rotate evaluator: sell what fell out of the top
// ranks, buy what entered them. All orders are MARKET DAY.
type Rotation struct {
	cfg RotationConfig
}

func NewRotation(cfg RotationConfig) *Rotation {
	return &Rotation{cfg: cfg}
}

func (r *Rotation) Name() string { return r.cfg.Name }

func (r *Rotation) Universe() Universe {
	return Universe{
		Watchlist:     r.cfg.Watchlist,
		Symbols:       r.cfg.Symbols,
		Bars:          r.cfg.Bars,
		MonthlyCutoff: true,
	}
}

func (r *Rotation) Evaluate(_ context.Context, in Input) ([]Intent, error) {
	candidates := make([]ranked, 0, len(in.Series))
	for _, sym := range sortedSymbols(in.Series) {
		score, ok := r.factor(sym, in)
		if !ok {
			continue
		}
		candidates = append(candidates, ranked{Symbol: sym, Score: score})
	}
	sortRanked(candidates)

	rankOf := make(map[string]int, len(candidates))
	for i, c := range candidates {
		rankOf[c.Symbol] = i + 1
	}

	var intents []Intent

	// Exits: held symbols that failed the filters or fell below the worst
	// acceptable rank are sold in full.
	for _, sym := range sortedSymbols(in.Series) {
		qty := longQuantity(in.Positions, sym)
		if qty <= 0 {
			continue
		}
		rank, held := rankOf[sym]
		if held && rank <= r.cfg.WorstRank {
			continue
		}
		intents = append(intents, Intent{
			Symbol:    sym,
			Action:    ActionSell,
			Quantity:  int64(math.Floor(qty)),
			OrderType: OrderMarket,
			TIF:       TIFDay,
		})
	}

	if r.cfg.Gated && !in.Bullish {
		logger.Infof("[%s] market gate off, entries suppressed", r.cfg.Name)
		return intents, nil
	}

	for i, c := range candidates {
		if i >= r.cfg.MaxPositions {
			break
		}
		if longQuantity(in.Positions, c.Symbol) > 0 {
			continue
		}
		close, ok := indicator.Last(in.Series[c.Symbol].Closes())
		if !ok || close <= 0 {
			continue
		}
		qty := capital.Shares(in.Budget/float64(r.cfg.MaxPositions), close)
		if qty <= 0 {
			logger.Debugf("[%s] %s budget too small at %.2f, skipped", r.cfg.Name, c.Symbol, close)
			continue
		}
		intents = append(intents, Intent{
			Symbol:    c.Symbol,
			Action:    ActionBuy,
			Quantity:  qty,
			OrderType: OrderMarket,
			TIF:       TIFDay,
		})
	}
	return intents, nil
}

// factor computes the blended rate-of-change score for one symbol and
// applies the trend filters at the latest bar.
func (r *Rotation) factor(sym string, in Input) (float64, bool) {
	series := in.Series[sym]
	closes := series.Closes()
	if len(closes) < r.cfg.SlowPeriod+r.cfg.UptrendBars {
		logger.Debugf("[%s] %s has %d bars, skipped", r.cfg.Name, sym, len(closes))
		return 0, false
	}
	fast := indicator.ROC(closes, r.cfg.FastPeriod)
	slow := indicator.ROC(closes, r.cfg.SlowPeriod)

	uptrend := r.cfg.UptrendBars
	if uptrend < 1 {
		uptrend = 1
	}
	for i := len(closes) - uptrend; i < len(closes); i++ {
		f := r.cfg.FastWeight*fast[i] + r.cfg.SlowWeight*slow[i]
		if math.IsNaN(f) || f <= 0 {
			return 0, false
		}
	}
	if r.cfg.TrendSMA > 0 {
		sma, ok := indicator.Last(indicator.SMA(closes, r.cfg.TrendSMA))
		if !ok || closes[len(closes)-1] <= sma {
			return 0, false
		}
	}
	latest := r.cfg.FastWeight*fast[len(closes)-1] + r.cfg.SlowWeight*slow[len(closes)-1]
	return latest, true
}
