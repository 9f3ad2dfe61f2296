package app

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sigmill/internal/config"
	"sigmill/internal/gateway/brokerage"
	"sigmill/internal/market"
	"sigmill/internal/store/runlog"
)

type fakeData struct {
	watchlists   map[string][]string
	watchlistErr map[string]error
	series       map[string]market.Series
	tsEnds       map[string]time.Time
}

func (f *fakeData) Watchlist(_ context.Context, name string) ([]string, error) {
	if err := f.watchlistErr[name]; err != nil {
		return nil, err
	}
	return f.watchlists[name], nil
}

func (f *fakeData) Timeseries(_ context.Context, symbol string, _ int, end time.Time) (market.Series, error) {
	if f.tsEnds == nil {
		f.tsEnds = make(map[string]time.Time)
	}
	f.tsEnds[symbol] = end
	s, ok := f.series[symbol]
	if !ok {
		return market.Series{}, fmt.Errorf("no data for %s", symbol)
	}
	return s, nil
}

func (f *fakeData) FetchAll(_ context.Context, symbols []string, _ int, _ time.Time, _ int) (map[string]market.Series, error) {
	out := make(map[string]market.Series)
	for _, sym := range symbols {
		if s, ok := f.series[sym]; ok {
			out[sym] = s
		}
	}
	return out, nil
}

type fakeBroker struct {
	summary   brokerage.Summary
	positions []brokerage.Position
	loginErr  error
}

func (f *fakeBroker) Login(context.Context) error { return f.loginErr }
func (f *fakeBroker) AccountSummary(context.Context) (brokerage.Summary, error) {
	return f.summary, nil
}
func (f *fakeBroker) Positions(context.Context) ([]brokerage.Position, error) {
	return f.positions, nil
}

type fakeRecorder struct {
	run    runlog.RunModel
	orders []runlog.OrderModel
}

func (f *fakeRecorder) RecordRun(run runlog.RunModel, orders []runlog.OrderModel) (string, error) {
	f.run = run
	f.orders = orders
	return "run-id", nil
}

func baseConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Capital: config.CapitalConfig{Buffer: 0.20},
		Gate:    config.GateConfig{Symbol: "#NYSEHL", Lookback: 13, Bars: 30},
		Data:    config.DataConfig{Concurrency: 2},
		Output:  config.OutputConfig{Dir: t.TempDir(), ExchangeZone: "America/New_York"},
	}
}

func risingSeries(symbol string, n int, start, step float64) market.Series {
	s := market.Series{Symbol: symbol}
	day := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	price := start
	for i := 0; i < n; i++ {
		price += step
		s.Bars = append(s.Bars, market.Bar{
			Date: day.AddDate(0, 0, i), Open: price, High: price + 1, Low: price - 1, Close: price, Volume: 1000,
		})
	}
	return s
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestRunWithNoStrategiesWritesHeaderOnly(t *testing.T) {
	cfg := baseConfig(t)
	rec := &fakeRecorder{}
	a := New(cfg, &fakeData{}, &fakeBroker{
		summary: brokerage.Summary{BuyingPower: 60_000, GrossPositionValue: 40_000, NetLiquidation: 95_000},
	}, rec, nil, func() time.Time { return time.Date(2026, 8, 26, 10, 0, 0, 0, time.UTC) })

	path, err := a.Run(context.Background())
	require.NoError(t, err)

	rows := readCSV(t, path)
	require.Len(t, rows, 1, "no signals still produces a valid header-only file")
	assert.Len(t, rows[0], 18)

	assert.Equal(t, 0, rec.run.OrderCount)
	assert.Equal(t, "ok", rec.run.Status)
	assert.InDelta(t, 80_000, rec.run.UsableCapital, 1e-6)
}

func TestRunIsolatesStrategyFailure(t *testing.T) {
	cfg := baseConfig(t)
	cfg.Strategies.Momentum = config.RotationParams{
		Enabled: true, Allocation: 0.05, Watchlist: "NASDAQ 100", Bars: 250,
		FastPeriod: 120, SlowPeriod: 240, FastWeight: 0.5, SlowWeight: 0.5,
		TrendSMA: 100, UptrendBars: 1, MaxPositions: 3, WorstRank: 5, Gated: true,
		Routing: config.RoutingParams{SecurityType: "STK", Exchange: "SMART"},
	}
	cfg.Strategies.Bitcoin = config.TrendSwitchParams{
		Enabled: true, Allocation: 0.02, Symbol: "IBIT", Bars: 50,
		ROCPeriod: 40, UptrendBars: 4,
		Routing: config.RoutingParams{SecurityType: "STK", Exchange: "SMART"},
	}
	data := &fakeData{
		watchlistErr: map[string]error{"NASDAQ 100": fmt.Errorf("watchlist unavailable")},
		series: map[string]market.Series{
			"IBIT": risingSeries("IBIT", 50, 20, 0.5),
		},
	}
	rec := &fakeRecorder{}
	a := New(cfg, data, &fakeBroker{
		summary: brokerage.Summary{BuyingPower: 60_000, GrossPositionValue: 40_000},
	}, rec, nil, func() time.Time { return time.Date(2026, 8, 26, 10, 0, 0, 0, time.UTC) })

	path, err := a.Run(context.Background())
	require.NoError(t, err, "one failing strategy must not abort the run")

	rows := readCSV(t, path)
	require.Len(t, rows, 2)
	assert.Equal(t, "IBIT", rows[1][0])
	assert.Equal(t, "BUY", rows[1][1])
	assert.Equal(t, "bitcoin", rows[1][12])

	assert.Equal(t, "partial", rec.run.Status)
	assert.Equal(t, "momentum", rec.run.FailedStrategies)
	require.Len(t, rec.orders, 1)
	assert.Equal(t, "IBIT", rec.orders[0].Symbol)
}

func TestRunPinsGateToMonthlyCutoff(t *testing.T) {
	cfg := baseConfig(t)
	data := &fakeData{}
	a := New(cfg, data, &fakeBroker{
		summary: brokerage.Summary{BuyingPower: 60_000, GrossPositionValue: 40_000},
	}, nil, nil, func() time.Time { return time.Date(2026, 8, 12, 10, 0, 0, 0, time.UTC) })

	_, err := a.Run(context.Background())
	require.NoError(t, err)

	// gate series sees the same cutoff the rotation universes are pinned to
	want := time.Date(2026, 7, 31, 0, 0, 0, 0, time.UTC)
	got, ok := data.tsEnds[cfg.Gate.Symbol]
	require.True(t, ok)
	assert.True(t, got.Equal(want), "gate end = %s, want %s", got, want)

	// the staleness check keeps reading the latest data
	assert.True(t, data.tsEnds["SPY"].IsZero())
}

func TestRunAbortsOnLoginFailure(t *testing.T) {
	cfg := baseConfig(t)
	a := New(cfg, &fakeData{}, &fakeBroker{loginErr: brokerage.ErrAuthFailed}, nil, nil, nil)
	_, err := a.Run(context.Background())
	assert.ErrorIs(t, err, brokerage.ErrAuthFailed)
}
