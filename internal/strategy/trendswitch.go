package strategy

import (
	"context"
	"math"

	"sigmill/internal/analysis/indicator"
	"sigmill/internal/capital"
	"sigmill/internal/logger"
)

// TrendSwitchConfig parameterizes the single-asset switch used for the
// bitcoin ETF sleeve: fully in while the trend holds, fully out otherwise.
type TrendSwitchConfig struct {
	Name      string
	Symbol    string
	Bars      int
	ROCPeriod int
	// UptrendBars is how many trailing bars the rate of change must stay
	// positive for the trend to count.
	UptrendBars int
}

type TrendSwitch struct {
	cfg TrendSwitchConfig
}

func NewTrendSwitch(cfg TrendSwitchConfig) *TrendSwitch {
	return &TrendSwitch{cfg: cfg}
}

func (t *TrendSwitch) Name() string { return t.cfg.Name }

func (t *TrendSwitch) Universe() Universe {
	return Universe{Symbols: []string{t.cfg.Symbol}, Bars: t.cfg.Bars}
}

func (t *TrendSwitch) Evaluate(_ context.Context, in Input) ([]Intent, error) {
	series, ok := in.Series[t.cfg.Symbol]
	if !ok || series.Len() == 0 {
		logger.Warnf("[%s] no data for %s", t.cfg.Name, t.cfg.Symbol)
		return nil, nil
	}
	closes := series.Closes()
	roc := indicator.ROC(closes, t.cfg.ROCPeriod)

	uptrend := len(roc) >= t.cfg.UptrendBars
	for i := len(roc) - t.cfg.UptrendBars; uptrend && i < len(roc); i++ {
		if math.IsNaN(roc[i]) || roc[i] <= 0 {
			uptrend = false
		}
	}

	held := longQuantity(in.Positions, t.cfg.Symbol)
	switch {
	case uptrend && held == 0:
		close := closes[len(closes)-1]
		qty := capital.Shares(in.Budget, close)
		if qty <= 0 {
			logger.Debugf("[%s] budget too small at %.2f, skipped", t.cfg.Name, close)
			return nil, nil
		}
		return []Intent{{
			Symbol:    t.cfg.Symbol,
			Action:    ActionBuy,
			Quantity:  qty,
			OrderType: OrderMarket,
			TIF:       TIFDay,
		}}, nil
	case !uptrend && held > 0:
		return []Intent{{
			Symbol:    t.cfg.Symbol,
			Action:    ActionSell,
			Quantity:  int64(math.Floor(held)),
			OrderType: OrderMarket,
			TIF:       TIFDay,
		}}, nil
	}
	return nil, nil
}
