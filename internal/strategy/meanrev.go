package strategy

import (
	"context"
	"math"

	"sigmill/internal/analysis/indicator"
	"sigmill/internal/capital"
	"sigmill/internal/logger"
	"sigmill/internal/market"
)

// MeanRevConfig parameterizes the mean-reversion pair. Long and short are
// mirror images: the long side buys washed-out pullbacks below the market,
// the short side fades blow-off spikes above it.
type MeanRevConfig struct {
	Name      string
	Watchlist string
	Bars      int
	Short     bool

	MinPrice    float64
	VolumeSMA   int
	MinVolume   float64
	TrendSMA    int
	ADXPeriod   int
	ADXMin      float64
	RSIPeriod   int
	RSILevel    float64
	ATRPeriod   int
	ATRMultiple float64

	MaxPositions int
	Exclude      []string
}

type MeanReversion struct {
	cfg      MeanRevConfig
	excluded map[string]bool
}

func NewMeanReversion(cfg MeanRevConfig) *MeanReversion {
	excluded := make(map[string]bool, len(cfg.Exclude))
	for _, sym := range cfg.Exclude {
		excluded[sym] = true
	}
	return &MeanReversion{cfg: cfg, excluded: excluded}
}

func (m *MeanReversion) Name() string { return m.cfg.Name }

func (m *MeanReversion) Universe() Universe {
	return Universe{Watchlist: m.cfg.Watchlist, Bars: m.cfg.Bars}
}

func (m *MeanReversion) Evaluate(_ context.Context, in Input) ([]Intent, error) {
	var intents []Intent
	open := 0

	// Exits first: every held position gets a resting limit at the prior
	// bar's extreme.
	for _, sym := range sortedSymbols(in.Series) {
		qty := m.heldQuantity(in.Positions, sym)
		if qty <= 0 {
			continue
		}
		open++
		prior, ok := in.Series[sym].Prev(1)
		if !ok {
			logger.Debugf("[%s] %s held but has no prior bar, exit skipped", m.cfg.Name, sym)
			continue
		}
		exit := Intent{
			Symbol:    sym,
			Quantity:  int64(math.Floor(qty)),
			OrderType: OrderLimit,
			TIF:       TIFGTC,
		}
		if m.cfg.Short {
			exit.Action = ActionBuyToCover
			exit.LimitPrice = indicator.RoundToTick(prior.Low)
		} else {
			exit.Action = ActionSell
			exit.LimitPrice = indicator.RoundToTick(prior.High)
		}
		intents = append(intents, exit)
	}

	slots := m.cfg.MaxPositions - open
	if slots <= 0 {
		return intents, nil
	}

	candidates := make([]ranked, 0, len(in.Series))
	for _, sym := range sortedSymbols(in.Series) {
		if m.excluded[sym] || m.heldQuantity(in.Positions, sym) > 0 {
			continue
		}
		vol, ok := m.setup(sym, in.Series[sym])
		if !ok {
			continue
		}
		candidates = append(candidates, ranked{Symbol: sym, Score: vol})
	}
	sortRanked(candidates)

	perSlot := in.Budget / float64(m.cfg.MaxPositions)
	for i, c := range candidates {
		if i >= slots {
			break
		}
		series := in.Series[c.Symbol]
		last, _ := series.Last()
		atr, _ := indicator.Last(indicator.ATR(series.Highs(), series.Lows(), series.Closes(), m.cfg.ATRPeriod))
		entry := Intent{
			Symbol:    c.Symbol,
			OrderType: OrderLimit,
			TIF:       TIFGTC,
		}
		if m.cfg.Short {
			entry.Action = ActionSellShort
			entry.LimitPrice = indicator.RoundToTick(last.High + m.cfg.ATRMultiple*atr)
		} else {
			entry.Action = ActionBuy
			entry.LimitPrice = indicator.RoundToTick(last.Low - m.cfg.ATRMultiple*atr)
		}
		if entry.LimitPrice <= 0 {
			logger.Debugf("[%s] %s limit below zero, skipped", m.cfg.Name, c.Symbol)
			continue
		}
		qty := capital.Shares(perSlot, entry.LimitPrice)
		if qty < 1 {
			qty = 1
		}
		entry.Quantity = qty
		intents = append(intents, entry)
	}
	return intents, nil
}

// setup applies the entry filters at the latest bar and returns the
// volatility rank score 100*ATR/close when all of them pass.
func (m *MeanReversion) setup(sym string, series market.Series) (float64, bool) {
	closes := series.Closes()
	if len(closes) < 2*m.cfg.TrendSMA {
		logger.Debugf("[%s] %s has %d bars, skipped", m.cfg.Name, sym, len(closes))
		return 0, false
	}
	close := closes[len(closes)-1]
	if close <= m.cfg.MinPrice {
		return 0, false
	}
	volAvg, ok := indicator.Last(indicator.SMA(series.Volumes(), m.cfg.VolumeSMA))
	if !ok || volAvg <= m.cfg.MinVolume {
		return 0, false
	}
	trend, ok := indicator.Last(indicator.SMA(closes, m.cfg.TrendSMA))
	if !ok || close <= trend {
		return 0, false
	}
	adx, ok := indicator.Last(indicator.ADX(series.Highs(), series.Lows(), closes, m.cfg.ADXPeriod))
	if !ok || adx <= m.cfg.ADXMin {
		return 0, false
	}
	rsi, ok := indicator.Last(indicator.RSI(closes, m.cfg.RSIPeriod))
	if !ok {
		return 0, false
	}
	if m.cfg.Short {
		if rsi <= m.cfg.RSILevel {
			return 0, false
		}
	} else if rsi >= m.cfg.RSILevel {
		return 0, false
	}
	atr, ok := indicator.Last(indicator.ATR(series.Highs(), series.Lows(), closes, m.cfg.ATRPeriod))
	if !ok || atr <= 0 {
		return 0, false
	}
	return 100 * atr / close, true
}

func (m *MeanReversion) heldQuantity(positions map[string]Position, sym string) float64 {
	if m.cfg.Short {
		return shortQuantity(positions, sym)
	}
	return longQuantity(positions, sym)
}
