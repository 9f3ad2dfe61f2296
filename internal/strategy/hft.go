package strategy

import (
	"context"
	"math"

	"sigmill/internal/analysis/indicator"
	"sigmill/internal/logger"
	"sigmill/internal/market"
)

// HFTConfig parameterizes the intraday fade pair. These orders rest as CFD
// limits with an attached market-on-close, so the strategy never manages
// exits itself and skips anything already held.
type HFTConfig struct {
	Name      string
	Watchlist string
	Bars      int
	Short     bool

	MinPrice    float64
	MaxPrice    float64
	VolumeEMA   int
	MinVolume   float64
	TrendSMA    int
	ADXPeriod   int
	ADXMin      float64
	IBRLevel    float64
	ATRPeriod   int
	ATRMultiple float64

	MaxPositions int
}

type HFT struct {
	cfg HFTConfig
}

func NewHFT(cfg HFTConfig) *HFT {
	return &HFT{cfg: cfg}
}

func (h *HFT) Name() string { return h.cfg.Name }

func (h *HFT) Universe() Universe {
	return Universe{Watchlist: h.cfg.Watchlist, Bars: h.cfg.Bars}
}

func (h *HFT) Evaluate(_ context.Context, in Input) ([]Intent, error) {
	candidates := make([]ranked, 0, len(in.Series))
	for _, sym := range sortedSymbols(in.Series) {
		if p, held := in.Positions[sym]; held && p.Quantity != 0 {
			continue
		}
		vol, ok := h.setup(sym, in.Series[sym])
		if !ok {
			continue
		}
		candidates = append(candidates, ranked{Symbol: sym, Score: vol})
	}
	sortRanked(candidates)

	perSlot := in.Budget / float64(h.cfg.MaxPositions)
	var intents []Intent
	for i, c := range candidates {
		if i >= h.cfg.MaxPositions {
			break
		}
		series := in.Series[c.Symbol]
		last, _ := series.Last()
		atr, _ := indicator.Last(indicator.ATR(series.Highs(), series.Lows(), series.Closes(), h.cfg.ATRPeriod))
		entry := Intent{
			Symbol:    c.Symbol,
			OrderType: OrderLimit,
			TIF:       TIFGTD,
			AttachMOC: true,
		}
		if h.cfg.Short {
			entry.Action = ActionSellShort
			entry.LimitPrice = indicator.RoundToTick(last.High + h.cfg.ATRMultiple*atr)
		} else {
			entry.Action = ActionBuy
			entry.LimitPrice = indicator.RoundToTick(last.Low - h.cfg.ATRMultiple*atr)
		}
		if entry.LimitPrice <= 0 {
			logger.Debugf("[%s] %s limit below zero, skipped", h.cfg.Name, c.Symbol)
			continue
		}
		// One share is shaved off so a full fill at the limit stays inside
		// the slot budget after fees.
		qty := int64(math.Floor(perSlot/entry.LimitPrice - 1))
		if qty < 1 {
			qty = 1
		}
		entry.Quantity = qty
		intents = append(intents, entry)
	}
	return intents, nil
}

func (h *HFT) setup(sym string, series market.Series) (float64, bool) {
	closes := series.Closes()
	if len(closes) <= h.cfg.TrendSMA {
		logger.Debugf("[%s] %s has %d bars, skipped", h.cfg.Name, sym, len(closes))
		return 0, false
	}
	last, ok := series.Last()
	if !ok {
		return 0, false
	}
	if last.Close <= h.cfg.MinPrice || last.Close >= h.cfg.MaxPrice {
		return 0, false
	}
	volAvg, ok := indicator.Last(indicator.EMA(series.Volumes(), h.cfg.VolumeEMA))
	if !ok || volAvg <= h.cfg.MinVolume {
		return 0, false
	}
	trend, ok := indicator.Last(indicator.SMA(closes, h.cfg.TrendSMA))
	if !ok || last.Close <= trend {
		return 0, false
	}
	adx, ok := indicator.Last(indicator.ADX(series.Highs(), series.Lows(), closes, h.cfg.ADXPeriod))
	if !ok || adx <= h.cfg.ADXMin {
		return 0, false
	}
	ibr := indicator.IBR(last.High, last.Low, last.Close)
	if h.cfg.Short {
		if ibr <= h.cfg.IBRLevel {
			return 0, false
		}
	} else if ibr >= h.cfg.IBRLevel {
		return 0, false
	}
	atr, ok := indicator.Last(indicator.ATR(series.Highs(), series.Lows(), closes, h.cfg.ATRPeriod))
	if !ok || atr <= 0 {
		return 0, false
	}
	return 100 * atr / last.Close, true
}
