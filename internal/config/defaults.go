package config

import "strings"

// Reference parameter set. Every value can be overridden per key in the
// config file; an explicitly written zero survives defaulting.
const (
	defaultAppEnv       = "dev"
	defaultAppLogLevel  = "info"
	defaultAppLogPath   = "logs/sigmill.log"
	defaultDataTimeout  = 30
	defaultDataParallel = 8
	defaultBrokTimeout  = 30
	defaultBuffer       = 0.20
	defaultGateSymbol   = "#NYSEHL"
	defaultGateLookback = 13
	defaultGateBars     = 30
	defaultOutputDir    = "output"
	defaultExchangeZone = "America/New_York"
	defaultRunLogPath   = "data/runlog.db"
)

func (c *Config) applyDefaults(keys keySet) {
	c.App.applyDefaults(keys)
	c.Data.applyDefaults(keys)
	c.Brokerage.applyDefaults(keys)
	c.Capital.applyDefaults(keys)
	c.Gate.applyDefaults(keys)
	c.Output.applyDefaults(keys)
	c.RunLog.applyDefaults(keys)
	c.Strategies.applyDefaults(keys)
}

func (a *AppConfig) applyDefaults(keys keySet) {
	applyFieldDefaults(keys,
		stringFieldDefault("app.env", &a.Env, defaultAppEnv),
		stringFieldDefault("app.log_level", &a.LogLevel, defaultAppLogLevel),
		stringFieldDefault("app.log_path", &a.LogPath, defaultAppLogPath),
	)
}

func (d *DataConfig) applyDefaults(keys keySet) {
	applyFieldDefaults(keys,
		intFieldDefault("data.timeout_seconds", &d.TimeoutSeconds, defaultDataTimeout),
		intFieldDefault("data.concurrency", &d.Concurrency, defaultDataParallel),
	)
}

func (b *BrokerageConfig) applyDefaults(keys keySet) {
	applyFieldDefaults(keys,
		intFieldDefault("brokerage.timeout_seconds", &b.TimeoutSeconds, defaultBrokTimeout),
	)
}

func (c *CapitalConfig) applyDefaults(keys keySet) {
	applyFieldDefaults(keys,
		floatFieldDefault("capital.buffer", &c.Buffer, defaultBuffer),
	)
}

func (g *GateConfig) applyDefaults(keys keySet) {
	applyFieldDefaults(keys,
		stringFieldDefault("gate.symbol", &g.Symbol, defaultGateSymbol),
		intFieldDefault("gate.lookback", &g.Lookback, defaultGateLookback),
		intFieldDefault("gate.bars", &g.Bars, defaultGateBars),
	)
}

func (o *OutputConfig) applyDefaults(keys keySet) {
	applyFieldDefaults(keys,
		stringFieldDefault("output.dir", &o.Dir, defaultOutputDir),
		stringFieldDefault("output.exchange_zone", &o.ExchangeZone, defaultExchangeZone),
	)
}

func (r *RunLogConfig) applyDefaults(keys keySet) {
	applyFieldDefaults(keys,
		boolFieldDefault("runlog.enabled", &r.Enabled, true),
		stringFieldDefault("runlog.path", &r.Path, defaultRunLogPath),
	)
}

func (s *StrategiesConfig) applyDefaults(keys keySet) {
	s.Momentum.applyDefaults(keys, "strategies.momentum", RotationParams{
		Enabled: true, Allocation: 0.05, Watchlist: "NASDAQ 100", Bars: 250,
		FastPeriod: 120, SlowPeriod: 240, FastWeight: 0.5, SlowWeight: 0.5,
		TrendSMA: 100, UptrendBars: 1, MaxPositions: 3, WorstRank: 5, Gated: true,
		Routing: RoutingParams{SecurityType: "STK", Exchange: "SMART"},
	})
	s.Growth.applyDefaults(keys, "strategies.growth", RotationParams{
		Enabled: true, Allocation: 0.10, Symbols: []string{"QQQ", "SPY", "IOO"}, Bars: 250,
		FastPeriod: 75, SlowPeriod: 150, FastWeight: 1, SlowWeight: 1,
		UptrendBars: 5, MaxPositions: 1, WorstRank: 2,
		Routing: RoutingParams{SecurityType: "STK", Exchange: "SMART"},
	})
	s.Defensive.applyDefaults(keys, "strategies.defensive", RotationParams{
		Enabled: true, Allocation: 0.03, Symbols: []string{"GLD", "TLT"}, Bars: 250,
		FastPeriod: 75, SlowPeriod: 150, FastWeight: 1, SlowWeight: 1,
		UptrendBars: 5, MaxPositions: 1, WorstRank: 1,
		Routing: RoutingParams{SecurityType: "STK", Exchange: "SMART"},
	})
	s.Bitcoin.applyDefaults(keys, "strategies.bitcoin", TrendSwitchParams{
		Enabled: true, Allocation: 0.02, Symbol: "IBIT", Bars: 50,
		ROCPeriod: 40, UptrendBars: 4,
		Routing: RoutingParams{SecurityType: "STK", Exchange: "SMART"},
	})
	s.MeanRevLong.applyDefaults(keys, "strategies.meanrev_long", MeanRevParams{
		Enabled: true, Allocation: 0.15, Watchlist: "S&P 500", Bars: 200,
		MinPrice: 5, VolumeSMA: 50, MinVolume: 200_000, TrendSMA: 100,
		ADXPeriod: 10, ADXMin: 30, RSIPeriod: 2, RSILevel: 30,
		ATRPeriod: 10, ATRMultiple: 0.5, MaxPositions: 10,
		Exclude: []string{"GOOG"},
		Routing: RoutingParams{SecurityType: "STK", Exchange: "SMART"},
	})
	s.MeanRevShort.applyDefaults(keys, "strategies.meanrev_short", MeanRevParams{
		Enabled: true, Allocation: 0.15, Watchlist: "S&P 500", Bars: 200,
		MinPrice: 5, VolumeSMA: 50, MinVolume: 200_000, TrendSMA: 100,
		ADXPeriod: 10, ADXMin: 30, RSIPeriod: 3, RSILevel: 90,
		ATRPeriod: 10, ATRMultiple: 0.8, MaxPositions: 10,
		Routing: RoutingParams{SecurityType: "STK", Exchange: "SMART"},
	})
	s.HFTLong.applyDefaults(keys, "strategies.hft_long", HFTParams{
		Enabled: true, Allocation: 0.25, Watchlist: "Russell 1000", Bars: 251,
		MinPrice: 10, MaxPrice: 5000, VolumeEMA: 50, MinVolume: 2_000_000,
		TrendSMA: 250, ADXPeriod: 4, ADXMin: 35, IBRLevel: 0.3,
		ATRPeriod: 5, ATRMultiple: 0.6, MaxPositions: 15,
		Routing: RoutingParams{SecurityType: "CFD", Exchange: "SMART"},
	})
	s.HFTShort.applyDefaults(keys, "strategies.hft_short", HFTParams{
		Enabled: true, Allocation: 0.25, Watchlist: "Russell 1000", Bars: 251,
		MinPrice: 20, MaxPrice: 5000, VolumeEMA: 50, MinVolume: 2_000_000,
		TrendSMA: 250, ADXPeriod: 4, ADXMin: 35, IBRLevel: 0.7,
		ATRPeriod: 5, ATRMultiple: 0.3, MaxPositions: 15,
		Routing: RoutingParams{SecurityType: "CFD", Exchange: "SMART"},
	})
}

func (p *RotationParams) applyDefaults(keys keySet, prefix string, def RotationParams) {
	applyFieldDefaults(keys,
		boolFieldDefault(prefix+".enabled", &p.Enabled, def.Enabled),
		floatFieldDefault(prefix+".allocation", &p.Allocation, def.Allocation),
		stringFieldDefault(prefix+".watchlist", &p.Watchlist, def.Watchlist),
		fieldDefault{
			key:   prefix + ".symbols",
			need:  func() bool { return len(p.Symbols) == 0 },
			apply: func() { p.Symbols = def.Symbols },
		},
		intFieldDefault(prefix+".bars", &p.Bars, def.Bars),
		intFieldDefault(prefix+".fast_period", &p.FastPeriod, def.FastPeriod),
		intFieldDefault(prefix+".slow_period", &p.SlowPeriod, def.SlowPeriod),
		floatFieldDefault(prefix+".fast_weight", &p.FastWeight, def.FastWeight),
		floatFieldDefault(prefix+".slow_weight", &p.SlowWeight, def.SlowWeight),
		intFieldDefault(prefix+".trend_sma", &p.TrendSMA, def.TrendSMA),
		intFieldDefault(prefix+".uptrend_bars", &p.UptrendBars, def.UptrendBars),
		intFieldDefault(prefix+".max_positions", &p.MaxPositions, def.MaxPositions),
		intFieldDefault(prefix+".worst_rank", &p.WorstRank, def.WorstRank),
		boolFieldDefault(prefix+".gated", &p.Gated, def.Gated),
	)
	p.Routing.applyDefaults(keys, prefix, def.Routing)
}

func (p *TrendSwitchParams) applyDefaults(keys keySet, prefix string, def TrendSwitchParams) {
	applyFieldDefaults(keys,
		boolFieldDefault(prefix+".enabled", &p.Enabled, def.Enabled),
		floatFieldDefault(prefix+".allocation", &p.Allocation, def.Allocation),
		stringFieldDefault(prefix+".symbol", &p.Symbol, def.Symbol),
		intFieldDefault(prefix+".bars", &p.Bars, def.Bars),
		intFieldDefault(prefix+".roc_period", &p.ROCPeriod, def.ROCPeriod),
		intFieldDefault(prefix+".uptrend_bars", &p.UptrendBars, def.UptrendBars),
	)
	p.Routing.applyDefaults(keys, prefix, def.Routing)
}

func (p *MeanRevParams) applyDefaults(keys keySet, prefix string, def MeanRevParams) {
	applyFieldDefaults(keys,
		boolFieldDefault(prefix+".enabled", &p.Enabled, def.Enabled),
		floatFieldDefault(prefix+".allocation", &p.Allocation, def.Allocation),
		stringFieldDefault(prefix+".watchlist", &p.Watchlist, def.Watchlist),
		intFieldDefault(prefix+".bars", &p.Bars, def.Bars),
		floatFieldDefault(prefix+".min_price", &p.MinPrice, def.MinPrice),
		intFieldDefault(prefix+".volume_sma", &p.VolumeSMA, def.VolumeSMA),
		floatFieldDefault(prefix+".min_volume", &p.MinVolume, def.MinVolume),
		intFieldDefault(prefix+".trend_sma", &p.TrendSMA, def.TrendSMA),
		intFieldDefault(prefix+".adx_period", &p.ADXPeriod, def.ADXPeriod),
		floatFieldDefault(prefix+".adx_min", &p.ADXMin, def.ADXMin),
		intFieldDefault(prefix+".rsi_period", &p.RSIPeriod, def.RSIPeriod),
		floatFieldDefault(prefix+".rsi_level", &p.RSILevel, def.RSILevel),
		intFieldDefault(prefix+".atr_period", &p.ATRPeriod, def.ATRPeriod),
		floatFieldDefault(prefix+".atr_multiple", &p.ATRMultiple, def.ATRMultiple),
		intFieldDefault(prefix+".max_positions", &p.MaxPositions, def.MaxPositions),
		fieldDefault{
			key:   prefix + ".exclude",
			need:  func() bool { return len(p.Exclude) == 0 },
			apply: func() { p.Exclude = def.Exclude },
		},
	)
	p.Routing.applyDefaults(keys, prefix, def.Routing)
}

func (p *HFTParams) applyDefaults(keys keySet, prefix string, def HFTParams) {
	applyFieldDefaults(keys,
		boolFieldDefault(prefix+".enabled", &p.Enabled, def.Enabled),
		floatFieldDefault(prefix+".allocation", &p.Allocation, def.Allocation),
		stringFieldDefault(prefix+".watchlist", &p.Watchlist, def.Watchlist),
		intFieldDefault(prefix+".bars", &p.Bars, def.Bars),
		floatFieldDefault(prefix+".min_price", &p.MinPrice, def.MinPrice),
		floatFieldDefault(prefix+".max_price", &p.MaxPrice, def.MaxPrice),
		intFieldDefault(prefix+".volume_ema", &p.VolumeEMA, def.VolumeEMA),
		floatFieldDefault(prefix+".min_volume", &p.MinVolume, def.MinVolume),
		intFieldDefault(prefix+".trend_sma", &p.TrendSMA, def.TrendSMA),
		intFieldDefault(prefix+".adx_period", &p.ADXPeriod, def.ADXPeriod),
		floatFieldDefault(prefix+".adx_min", &p.ADXMin, def.ADXMin),
		floatFieldDefault(prefix+".ibr_level", &p.IBRLevel, def.IBRLevel),
		intFieldDefault(prefix+".atr_period", &p.ATRPeriod, def.ATRPeriod),
		floatFieldDefault(prefix+".atr_multiple", &p.ATRMultiple, def.ATRMultiple),
		intFieldDefault(prefix+".max_positions", &p.MaxPositions, def.MaxPositions),
	)
	p.Routing.applyDefaults(keys, prefix, def.Routing)
}

func (r *RoutingParams) applyDefaults(keys keySet, prefix string, def RoutingParams) {
	applyFieldDefaults(keys,
		stringFieldDefault(prefix+".routing.security_type", &r.SecurityType, def.SecurityType),
		stringFieldDefault(prefix+".routing.exchange", &r.Exchange, def.Exchange),
	)
}

// Helper functions

func applyFieldDefaults(keys keySet, defs ...fieldDefault) {
	for _, def := range defs {
		if def.apply == nil {
			continue
		}
		if def.key != "" && keys.isSet(def.key) {
			continue
		}
		if def.need != nil && !def.need() {
			continue
		}
		def.apply()
	}
}

func stringFieldDefault(key string, target *string, def string) fieldDefault {
	return fieldDefault{
		key: key,
		need: func() bool {
			return target != nil && strings.TrimSpace(*target) == ""
		},
		apply: func() {
			if target != nil {
				*target = def
			}
		},
	}
}

func intFieldDefault(key string, target *int, def int) fieldDefault {
	return fieldDefault{
		key:  key,
		need: func() bool { return target != nil && *target <= 0 },
		apply: func() {
			if target != nil {
				*target = def
			}
		},
	}
}

func floatFieldDefault(key string, target *float64, def float64) fieldDefault {
	return fieldDefault{
		key:  key,
		need: func() bool { return target != nil && *target <= 0 },
		apply: func() {
			if target != nil {
				*target = def
			}
		},
	}
}

func boolFieldDefault(key string, target *bool, def bool) fieldDefault {
	return fieldDefault{
		key:  key,
		need: func() bool { return target != nil },
		apply: func() {
			if target != nil {
				*target = def
			}
		},
	}
}
