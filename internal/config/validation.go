package config

import (
	"fmt"
	"strings"
)

func validate(c *Config) error {
	if strings.TrimSpace(c.Data.BaseURL) == "" {
		return fmt.Errorf("data.base_url cannot be empty")
	}
	if strings.TrimSpace(c.Brokerage.BaseURL) == "" {
		return fmt.Errorf("brokerage.base_url cannot be empty")
	}
	if strings.TrimSpace(c.Brokerage.Username) == "" || strings.TrimSpace(c.Brokerage.Password) == "" {
		return fmt.Errorf("brokerage requires username and password")
	}
	if c.Capital.Buffer < 0 || c.Capital.Buffer >= 1 {
		return fmt.Errorf("capital.buffer must be in [0,1)")
	}
	if c.Gate.Lookback <= 0 {
		return fmt.Errorf("gate.lookback must be > 0")
	}
	if c.Gate.Bars <= c.Gate.Lookback {
		return fmt.Errorf("gate.bars must exceed gate.lookback")
	}
	if err := c.Strategies.validate(); err != nil {
		return err
	}
	if c.Notify.Telegram.Enabled {
		if c.Notify.Telegram.BotToken == "" || c.Notify.Telegram.ChatID == "" {
			return fmt.Errorf("telegram notification enabled but missing bot_token or chat_id")
		}
	}
	return nil
}

func (s *StrategiesConfig) validate() error {
	total := 0.0
	if s.Momentum.Enabled {
		if err := s.Momentum.validate("momentum"); err != nil {
			return err
		}
		total += s.Momentum.Allocation
	}
	if s.Growth.Enabled {
		if err := s.Growth.validate("growth"); err != nil {
			return err
		}
		total += s.Growth.Allocation
	}
	if s.Defensive.Enabled {
		if err := s.Defensive.validate("defensive"); err != nil {
			return err
		}
		total += s.Defensive.Allocation
	}
	if s.Bitcoin.Enabled {
		if err := s.Bitcoin.validate("bitcoin"); err != nil {
			return err
		}
		total += s.Bitcoin.Allocation
	}
	if s.MeanRevLong.Enabled {
		if err := s.MeanRevLong.validate("meanrev_long"); err != nil {
			return err
		}
		total += s.MeanRevLong.Allocation
	}
	if s.MeanRevShort.Enabled {
		if err := s.MeanRevShort.validate("meanrev_short"); err != nil {
			return err
		}
		total += s.MeanRevShort.Allocation
	}
	if s.HFTLong.Enabled {
		if err := s.HFTLong.validate("hft_long"); err != nil {
			return err
		}
		total += s.HFTLong.Allocation
	}
	if s.HFTShort.Enabled {
		if err := s.HFTShort.validate("hft_short"); err != nil {
			return err
		}
		total += s.HFTShort.Allocation
	}
	// Allocations are fractions of the usable pool, so they may use all of
	// it but never more.
	if total > 1.0+1e-9 {
		return fmt.Errorf("strategy allocations sum to %.4f, must be <= 1", total)
	}
	return nil
}

func (p *RotationParams) validate(name string) error {
	if err := validateAllocation(name, p.Allocation); err != nil {
		return err
	}
	if p.Watchlist == "" && len(p.Symbols) == 0 {
		return fmt.Errorf("strategies.%s requires watchlist or symbols", name)
	}
	if p.FastPeriod <= 0 || p.SlowPeriod <= 0 {
		return fmt.Errorf("strategies.%s factor periods must be > 0", name)
	}
	if p.FastWeight == 0 && p.SlowWeight == 0 {
		return fmt.Errorf("strategies.%s factor weights cannot both be zero", name)
	}
	if p.UptrendBars <= 0 {
		return fmt.Errorf("strategies.%s.uptrend_bars must be > 0", name)
	}
	if p.MaxPositions <= 0 {
		return fmt.Errorf("strategies.%s.max_positions must be > 0", name)
	}
	if p.WorstRank < p.MaxPositions {
		return fmt.Errorf("strategies.%s.worst_rank must be >= max_positions", name)
	}
	if p.Bars < p.SlowPeriod+p.UptrendBars {
		return fmt.Errorf("strategies.%s.bars too small for slow_period", name)
	}
	return p.Routing.validate(name)
}

func (p *TrendSwitchParams) validate(name string) error {
	if err := validateAllocation(name, p.Allocation); err != nil {
		return err
	}
	if p.Symbol == "" {
		return fmt.Errorf("strategies.%s.symbol cannot be empty", name)
	}
	if p.ROCPeriod <= 0 || p.UptrendBars <= 0 {
		return fmt.Errorf("strategies.%s periods must be > 0", name)
	}
	if p.Bars < p.ROCPeriod+p.UptrendBars {
		return fmt.Errorf("strategies.%s.bars too small for roc_period", name)
	}
	return p.Routing.validate(name)
}

func (p *MeanRevParams) validate(name string) error {
	if err := validateAllocation(name, p.Allocation); err != nil {
		return err
	}
	if p.Watchlist == "" {
		return fmt.Errorf("strategies.%s.watchlist cannot be empty", name)
	}
	if p.VolumeSMA <= 0 || p.TrendSMA <= 0 || p.ADXPeriod <= 0 || p.RSIPeriod <= 0 || p.ATRPeriod <= 0 {
		return fmt.Errorf("strategies.%s periods must be > 0", name)
	}
	if p.RSILevel <= 0 || p.RSILevel >= 100 {
		return fmt.Errorf("strategies.%s.rsi_level must be in (0,100)", name)
	}
	if p.ATRMultiple <= 0 {
		return fmt.Errorf("strategies.%s.atr_multiple must be > 0", name)
	}
	if p.MaxPositions <= 0 {
		return fmt.Errorf("strategies.%s.max_positions must be > 0", name)
	}
	if p.Bars < 2*p.TrendSMA {
		return fmt.Errorf("strategies.%s.bars too small for trend_sma", name)
	}
	return p.Routing.validate(name)
}

func (p *HFTParams) validate(name string) error {
	if err := validateAllocation(name, p.Allocation); err != nil {
		return err
	}
	if p.Watchlist == "" {
		return fmt.Errorf("strategies.%s.watchlist cannot be empty", name)
	}
	if p.MaxPrice <= p.MinPrice {
		return fmt.Errorf("strategies.%s.max_price must exceed min_price", name)
	}
	if p.VolumeEMA <= 0 || p.TrendSMA <= 0 || p.ADXPeriod <= 0 || p.ATRPeriod <= 0 {
		return fmt.Errorf("strategies.%s periods must be > 0", name)
	}
	if p.IBRLevel <= 0 || p.IBRLevel >= 1 {
		return fmt.Errorf("strategies.%s.ibr_level must be in (0,1)", name)
	}
	if p.ATRMultiple <= 0 {
		return fmt.Errorf("strategies.%s.atr_multiple must be > 0", name)
	}
	if p.MaxPositions <= 0 {
		return fmt.Errorf("strategies.%s.max_positions must be > 0", name)
	}
	if p.Bars <= p.TrendSMA {
		return fmt.Errorf("strategies.%s.bars too small for trend_sma", name)
	}
	return p.Routing.validate(name)
}

func (r *RoutingParams) validate(name string) error {
	switch r.SecurityType {
	case "STK", "CFD":
	default:
		return fmt.Errorf("strategies.%s.routing.security_type must be STK or CFD", name)
	}
	if strings.TrimSpace(r.Exchange) == "" {
		return fmt.Errorf("strategies.%s.routing.exchange cannot be empty", name)
	}
	return nil
}

func validateAllocation(name string, alloc float64) error {
	if alloc <= 0 || alloc > 1 {
		return fmt.Errorf("strategies.%s.allocation must be in (0,1]", name)
	}
	return nil
}
