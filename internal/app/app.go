// Package app wires the run together: authenticate, snapshot the account,
// prefetch market data, evaluate every strategy, and write the consolidated
// order file. One invocation is one run; nothing survives it.
package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"sigmill/internal/analysis/regime"
	"sigmill/internal/capital"
	"sigmill/internal/config"
	"sigmill/internal/gateway/brokerage"
	"sigmill/internal/gateway/notifier"
	"sigmill/internal/logger"
	"sigmill/internal/market"
	"sigmill/internal/orders"
	"sigmill/internal/store/runlog"
	"sigmill/internal/strategy"
)

// MarketData is the slice of the data bridge the run needs.
type MarketData interface {
	Watchlist(ctx context.Context, name string) ([]string, error)
	Timeseries(ctx context.Context, symbol string, bars int, end time.Time) (market.Series, error)
	FetchAll(ctx context.Context, symbols []string, bars int, end time.Time, concurrency int) (map[string]market.Series, error)
}

// Brokerage is the slice of the brokerage bridge the run needs.
type Brokerage interface {
	Login(ctx context.Context) error
	AccountSummary(ctx context.Context) (brokerage.Summary, error)
	Positions(ctx context.Context) ([]brokerage.Position, error)
}

// RunRecorder persists the audit row for one run.
type RunRecorder interface {
	RecordRun(run runlog.RunModel, orderRows []runlog.OrderModel) (string, error)
}

// stalenessSymbol is the liquid proxy whose latest bar date decides whether
// the data feed kept up with the calendar.
const stalenessSymbol = "SPY"

type evaluatorSlot struct {
	eval       strategy.Evaluator
	allocation float64
	routing    orders.Routing
}

type App struct {
	cfg      *config.Config
	data     MarketData
	broker   Brokerage
	recorder RunRecorder
	notify   notifier.TextNotifier
	now      func() time.Time
}

func New(cfg *config.Config, data MarketData, broker Brokerage, recorder RunRecorder, notify notifier.TextNotifier, now func() time.Time) *App {
	if now == nil {
		now = time.Now
	}
	return &App{cfg: cfg, data: data, broker: broker, recorder: recorder, notify: notify, now: now}
}

// Run executes one full signal generation cycle and returns the path of the
// written order file. Auth and capital failures abort; everything after the
// account snapshot degrades per strategy.
func (a *App) Run(ctx context.Context) (string, error) {
	runDate := a.now()

	if err := a.broker.Login(ctx); err != nil {
		return "", err
	}
	summary, err := a.broker.AccountSummary(ctx)
	if err != nil {
		return "", fmt.Errorf("%w: %v", capital.ErrCapitalStateInvalid, err)
	}
	allocator, err := capital.NewAllocator(capital.Snapshot{
		BuyingPower:        summary.BuyingPower,
		GrossPositionValue: summary.GrossPositionValue,
		NetLiquidation:     summary.NetLiquidation,
	}, a.cfg.Capital.Buffer)
	if err != nil {
		return "", err
	}
	logger.Infof("account: buying_power=%.2f gross_positions=%.2f usable=%.2f",
		summary.BuyingPower, summary.GrossPositionValue, allocator.Usable())

	book, err := a.broker.Positions(ctx)
	if err != nil {
		return "", fmt.Errorf("read positions: %w", err)
	}
	positions := make(map[string]strategy.Position, len(book))
	for _, p := range book {
		positions[p.Symbol] = strategy.Position{Symbol: p.Symbol, Quantity: p.Quantity, AvgCost: p.AvgCost}
	}
	logger.Infof("positions: %d symbols held", len(positions))

	a.checkStaleness(ctx, runDate)
	bullish := a.marketGate(ctx, runDate)

	results := a.evaluate(ctx, allocator, positions, bullish, runDate)

	builder := orders.NewBuilder(a.routes(), a.cfg.Output.ExchangeZone, a.now)
	var records []orders.Record
	for i := range results {
		res := &results[i]
		if res.Err != nil {
			logger.Errorf("[%s] evaluation failed: %v", res.Strategy, res.Err)
			continue
		}
		recs, err := builder.Build(res.Strategy, res.Intents)
		if err != nil {
			res.Err = err
			logger.Errorf("[%s] order build failed: %v", res.Strategy, err)
			continue
		}
		logger.Infof("[%s] %d orders", res.Strategy, len(recs))
		records = append(records, recs...)
	}

	path, err := orders.WriteCSV(a.cfg.Output.Dir, runDate, records)
	if err != nil {
		return "", err
	}
	logger.Infof("order file written: %s (%d rows)", path, len(records))

	a.recordRun(runDate, summary, allocator.Usable(), results, records)
	a.sendSummary(runDate, summary, results, records)
	return path, nil
}

// checkStaleness warns when the proxy's latest bar lags the expected last
// trading day. The run continues on stale data.
func (a *App) checkStaleness(ctx context.Context, now time.Time) {
	series, err := a.data.Timeseries(ctx, stalenessSymbol, 5, time.Time{})
	if err != nil {
		logger.Warnf("staleness check failed for %s: %v", stalenessSymbol, err)
		return
	}
	last, ok := series.Last()
	if !ok {
		logger.Warnf("staleness check: %s returned no bars", stalenessSymbol)
		return
	}
	if !market.IsCurrent(last.Date, now) {
		logger.Warnf("market data may be stale: latest %s bar is %s", stalenessSymbol, last.Date.Format("2006-01-02"))
	}
}

// marketGate evaluates the breadth gate on the same monthly cutoff the
// rotation universes are pinned to, so the gate and the strategies it gates
// see the same data. A fetch failure defaults to bullish with a warning so
// entries are not silently suppressed.
func (a *App) marketGate(ctx context.Context, runDate time.Time) bool {
	series, err := a.data.Timeseries(ctx, a.cfg.Gate.Symbol, a.cfg.Gate.Bars, market.MonthlyDataEndDate(runDate))
	if err != nil {
		logger.Warnf("market gate fetch failed, defaulting to bullish: %v", err)
		return true
	}
	bullish := regime.Bullish(series, a.cfg.Gate.Lookback)
	logger.Infof("market gate %s lookback=%d bullish=%t", a.cfg.Gate.Symbol, a.cfg.Gate.Lookback, bullish)
	return bullish
}

func (a *App) evaluate(ctx context.Context, allocator *capital.Allocator, positions map[string]strategy.Position, bullish bool, runDate time.Time) []strategy.Result {
	slots := a.evaluators()
	results := make([]strategy.Result, 0, len(slots))
	for _, slot := range slots {
		res := strategy.Result{Strategy: slot.eval.Name()}
		series, err := a.fetchUniverse(ctx, slot.eval.Universe(), runDate)
		if err != nil {
			res.Err = err
			results = append(results, res)
			continue
		}
		res.Intents, res.Err = slot.eval.Evaluate(ctx, strategy.Input{
			Date:      runDate,
			Budget:    allocator.Budget(slot.allocation),
			Series:    series,
			Positions: positions,
			Bullish:   bullish,
		})
		results = append(results, res)
	}
	return results
}

func (a *App) fetchUniverse(ctx context.Context, u strategy.Universe, runDate time.Time) (map[string]market.Series, error) {
	symbols := u.Symbols
	if u.Watchlist != "" {
		var err error
		symbols, err = a.data.Watchlist(ctx, u.Watchlist)
		if err != nil {
			return nil, fmt.Errorf("resolve watchlist %s: %w", u.Watchlist, err)
		}
	}
	var end time.Time
	if u.MonthlyCutoff {
		end = market.MonthlyDataEndDate(runDate)
	}
	return a.data.FetchAll(ctx, symbols, u.Bars, end, a.cfg.Data.Concurrency)
}

// evaluators builds the enabled variants in fixed evaluation order. The
// order is part of the output contract: rows keep strategy provenance order.
func (a *App) evaluators() []evaluatorSlot {
	s := a.cfg.Strategies
	var slots []evaluatorSlot
	addRotation := func(name string, p config.RotationParams) {
		if !p.Enabled {
			return
		}
		slots = append(slots, evaluatorSlot{
			eval: strategy.NewRotation(strategy.RotationConfig{
				Name: name, Watchlist: p.Watchlist, Symbols: p.Symbols, Bars: p.Bars,
				FastPeriod: p.FastPeriod, SlowPeriod: p.SlowPeriod,
				FastWeight: p.FastWeight, SlowWeight: p.SlowWeight,
				TrendSMA: p.TrendSMA, UptrendBars: p.UptrendBars,
				MaxPositions: p.MaxPositions, WorstRank: p.WorstRank, Gated: p.Gated,
			}),
			allocation: p.Allocation,
			routing:    orders.Routing{SecurityType: p.Routing.SecurityType, Exchange: p.Routing.Exchange},
		})
	}
	addMeanRev := func(name string, p config.MeanRevParams, short bool) {
		if !p.Enabled {
			return
		}
		slots = append(slots, evaluatorSlot{
			eval: strategy.NewMeanReversion(strategy.MeanRevConfig{
				Name: name, Watchlist: p.Watchlist, Bars: p.Bars, Short: short,
				MinPrice: p.MinPrice, VolumeSMA: p.VolumeSMA, MinVolume: p.MinVolume,
				TrendSMA: p.TrendSMA, ADXPeriod: p.ADXPeriod, ADXMin: p.ADXMin,
				RSIPeriod: p.RSIPeriod, RSILevel: p.RSILevel,
				ATRPeriod: p.ATRPeriod, ATRMultiple: p.ATRMultiple,
				MaxPositions: p.MaxPositions, Exclude: p.Exclude,
			}),
			allocation: p.Allocation,
			routing:    orders.Routing{SecurityType: p.Routing.SecurityType, Exchange: p.Routing.Exchange},
		})
	}
	addHFT := func(name string, p config.HFTParams, short bool) {
		if !p.Enabled {
			return
		}
		slots = append(slots, evaluatorSlot{
			eval: strategy.NewHFT(strategy.HFTConfig{
				Name: name, Watchlist: p.Watchlist, Bars: p.Bars, Short: short,
				MinPrice: p.MinPrice, MaxPrice: p.MaxPrice,
				VolumeEMA: p.VolumeEMA, MinVolume: p.MinVolume,
				TrendSMA: p.TrendSMA, ADXPeriod: p.ADXPeriod, ADXMin: p.ADXMin,
				IBRLevel: p.IBRLevel, ATRPeriod: p.ATRPeriod, ATRMultiple: p.ATRMultiple,
				MaxPositions: p.MaxPositions,
			}),
			allocation: p.Allocation,
			routing:    orders.Routing{SecurityType: p.Routing.SecurityType, Exchange: p.Routing.Exchange},
		})
	}

	addRotation("momentum", s.Momentum)
	addRotation("growth", s.Growth)
	addRotation("defensive", s.Defensive)
	if s.Bitcoin.Enabled {
		slots = append(slots, evaluatorSlot{
			eval: strategy.NewTrendSwitch(strategy.TrendSwitchConfig{
				Name: "bitcoin", Symbol: s.Bitcoin.Symbol, Bars: s.Bitcoin.Bars,
				ROCPeriod: s.Bitcoin.ROCPeriod, UptrendBars: s.Bitcoin.UptrendBars,
			}),
			allocation: s.Bitcoin.Allocation,
			routing:    orders.Routing{SecurityType: s.Bitcoin.Routing.SecurityType, Exchange: s.Bitcoin.Routing.Exchange},
		})
	}
	addMeanRev("meanrev_long", s.MeanRevLong, false)
	addMeanRev("meanrev_short", s.MeanRevShort, true)
	addHFT("hft_long", s.HFTLong, false)
	addHFT("hft_short", s.HFTShort, true)
	return slots
}

func (a *App) routes() map[string]orders.Routing {
	routes := make(map[string]orders.Routing)
	for _, slot := range a.evaluators() {
		routes[slot.eval.Name()] = slot.routing
	}
	return routes
}

func (a *App) recordRun(runDate time.Time, summary brokerage.Summary, usable float64, results []strategy.Result, records []orders.Record) {
	if a.recorder == nil {
		return
	}
	var failed []string
	for _, res := range results {
		if res.Err != nil {
			failed = append(failed, res.Strategy)
		}
	}
	status := "ok"
	if len(failed) > 0 {
		status = "partial"
	}
	run := runlog.RunModel{
		RunDate:            runDate.Format("2006-01-02"),
		BuyingPower:        summary.BuyingPower,
		GrossPositionValue: summary.GrossPositionValue,
		NetLiquidation:     summary.NetLiquidation,
		UsableCapital:      usable,
		OrderCount:         len(records),
		FailedStrategies:   strings.Join(failed, ","),
		Status:             status,
	}
	rows := make([]runlog.OrderModel, 0, len(records))
	for _, rec := range records {
		rows = append(rows, runlog.OrderModel{
			Strategy:     rec.Strategy,
			Symbol:       rec.Symbol,
			Action:       rec.Action,
			Quantity:     rec.Quantity,
			OrderType:    rec.OrderType,
			LimitPrice:   rec.LimitPrice,
			TimeInForce:  rec.TimeInForce,
			GoodTillDate: rec.GoodTillDate,
			AttachMOC:    rec.AttachMOC,
		})
	}
	if _, err := a.recorder.RecordRun(run, rows); err != nil {
		logger.Errorf("run log write failed: %v", err)
	}
}

func (a *App) sendSummary(runDate time.Time, summary brokerage.Summary, results []strategy.Result, records []orders.Record) {
	if a.notify == nil {
		return
	}
	counts := make(map[string]int)
	for _, rec := range records {
		counts[rec.Strategy]++
	}
	var strategyLines, failureLines []string
	for _, res := range results {
		if res.Err != nil {
			failureLines = append(failureLines, fmt.Sprintf("%s: %v", res.Strategy, res.Err))
			continue
		}
		strategyLines = append(strategyLines, fmt.Sprintf("%s: %d orders", res.Strategy, counts[res.Strategy]))
	}
	msg := notifier.StructuredMessage{
		Icon:  "📋",
		Title: fmt.Sprintf("Daily signals %s: %d orders", runDate.Format("2006-01-02"), len(records)),
		Sections: []notifier.MessageSection{
			{Title: "Account", Lines: []string{
				fmt.Sprintf("buying power %.2f", summary.BuyingPower),
				fmt.Sprintf("gross positions %.2f", summary.GrossPositionValue),
				fmt.Sprintf("net liquidation %.2f", summary.NetLiquidation),
			}},
			{Title: "Strategies", Lines: strategyLines},
			{Title: "Failures", Lines: failureLines},
		},
		Timestamp: runDate,
	}
	if err := a.notify.SendText(msg.RenderMarkdown()); err != nil {
		logger.Errorf("summary notification failed: %v", err)
	}
}
