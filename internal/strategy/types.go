// Package strategy contains the eight signal generators. Each variant is an
// Evaluator over a read-only market snapshot; evaluation is pure and
// deterministic for a given Input.
package strategy

import (
	"context"
	"time"

	"sigmill/internal/market"
)

type Action string

const (
	ActionBuy        Action = "BUY"
	ActionSell       Action = "SELL"
	ActionSellShort  Action = "SELLSHORT"
	ActionBuyToCover Action = "BUYTOCOVER"
)

type OrderType string

const (
	OrderMarket OrderType = "MARKET"
	OrderLimit  OrderType = "LIMIT"
)

type TimeInForce string

const (
	TIFDay TimeInForce = "DAY"
	TIFGTC TimeInForce = "GTC"
	TIFGTD TimeInForce = "GTD"
)

// Intent is one order a strategy wants placed. LimitPrice is zero for market
// orders. GoodTillDate is stamped downstream for GTD intents.
type Intent struct {
	Symbol     string
	Action     Action
	Quantity   int64
	OrderType  OrderType
	LimitPrice float64
	TIF        TimeInForce
	AttachMOC  bool
}

// Position is one aggregate brokerage position. Quantity is negative for
// shorts. Positions are not attributed to strategies; each variant filters
// the aggregate book to its own universe and side.
type Position struct {
	Symbol   string
	Quantity float64
	AvgCost  float64
}

// Input is the per-strategy evaluation snapshot. Series holds the universe
// bars keyed by symbol; Positions is the full aggregate book; Bullish is the
// market-condition gate state consumed only by gated variants.
type Input struct {
	Date      time.Time
	Budget    float64
	Series    map[string]market.Series
	Positions map[string]Position
	Bullish   bool
}

// Universe describes what data an evaluator needs fetched before it runs.
// Watchlist names a provider watchlist; Symbols is a static list; exactly
// one is set. MonthlyCutoff pins the data end date to the rebalance Friday.
type Universe struct {
	Watchlist     string
	Symbols       []string
	Bars          int
	MonthlyCutoff bool
}

// Evaluator is the contract every strategy variant implements.
type Evaluator interface {
	Name() string
	Universe() Universe
	Evaluate(ctx context.Context, in Input) ([]Intent, error)
}

// Result captures one strategy's outcome. A failed strategy contributes an
// error here instead of aborting the run.
type Result struct {
	Strategy string
	Intents  []Intent
	Err      error
}

// longQuantity returns the held long quantity for a symbol, zero if flat or
// short.
func longQuantity(positions map[string]Position, symbol string) float64 {
	if p, ok := positions[symbol]; ok && p.Quantity > 0 {
		return p.Quantity
	}
	return 0
}

// shortQuantity returns the absolute held short quantity for a symbol.
func shortQuantity(positions map[string]Position, symbol string) float64 {
	if p, ok := positions[symbol]; ok && p.Quantity < 0 {
		return -p.Quantity
	}
	return 0
}
