package config

import (
	"os"
	"strings"
)

// Config is the full run configuration, loaded once per invocation.
type Config struct {
	App        AppConfig        `yaml:"app"`
	Data       DataConfig       `yaml:"data"`
	Brokerage  BrokerageConfig  `yaml:"brokerage"`
	Capital    CapitalConfig    `yaml:"capital"`
	Gate       GateConfig       `yaml:"gate"`
	Strategies StrategiesConfig `yaml:"strategies"`
	Output     OutputConfig     `yaml:"output"`
	RunLog     RunLogConfig     `yaml:"runlog"`
	Notify     NotifyConfig     `yaml:"notify"`
}

type AppConfig struct {
	Env      string `yaml:"env"`
	LogLevel string `yaml:"log_level"`
	LogPath  string `yaml:"log_path"`
}

// DataConfig points at the market-data bridge.
type DataConfig struct {
	BaseURL        string `yaml:"base_url"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
	Concurrency    int    `yaml:"concurrency"`
}

// BrokerageConfig points at the brokerage bridge. Credentials normally come
// from the environment via ${VAR} references.
type BrokerageConfig struct {
	BaseURL        string `yaml:"base_url"`
	Username       string `yaml:"username"`
	Password       string `yaml:"password"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

type CapitalConfig struct {
	// Buffer is the fraction of account capital held back from allocation.
	Buffer float64 `yaml:"buffer"`
}

// GateConfig is the market-condition filter input: a breadth index compared
// against its own level a fixed number of bars back.
type GateConfig struct {
	Symbol   string `yaml:"symbol"`
	Lookback int    `yaml:"lookback"`
	Bars     int    `yaml:"bars"`
}

type OutputConfig struct {
	Dir string `yaml:"dir"`
	// ExchangeZone is the IANA zone GTD expiries are stamped in.
	ExchangeZone string `yaml:"exchange_zone"`
}

type RunLogConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

type NotifyConfig struct {
	Telegram TelegramConfig `yaml:"telegram"`
}

type TelegramConfig struct {
	Enabled  bool   `yaml:"enabled"`
	BotToken string `yaml:"bot_token"`
	ChatID   string `yaml:"chat_id"`
}

// StrategiesConfig holds the parameter block for every variant. Allocation
// values are fractions of the usable pool and must not sum past 1.
type StrategiesConfig struct {
	Momentum     RotationParams    `yaml:"momentum"`
	Growth       RotationParams    `yaml:"growth"`
	Defensive    RotationParams    `yaml:"defensive"`
	Bitcoin      TrendSwitchParams `yaml:"bitcoin"`
	MeanRevLong  MeanRevParams     `yaml:"meanrev_long"`
	MeanRevShort MeanRevParams     `yaml:"meanrev_short"`
	HFTLong      HFTParams         `yaml:"hft_long"`
	HFTShort     HFTParams         `yaml:"hft_short"`
}

// RoutingParams are the contract fields stamped onto every order a strategy
// emits.
type RoutingParams struct {
	SecurityType string `yaml:"security_type"`
	Exchange     string `yaml:"exchange"`
}

type RotationParams struct {
	Enabled      bool          `yaml:"enabled"`
	Allocation   float64       `yaml:"allocation"`
	Watchlist    string        `yaml:"watchlist"`
	Symbols      []string      `yaml:"symbols"`
	Bars         int           `yaml:"bars"`
	FastPeriod   int           `yaml:"fast_period"`
	SlowPeriod   int           `yaml:"slow_period"`
	FastWeight   float64       `yaml:"fast_weight"`
	SlowWeight   float64       `yaml:"slow_weight"`
	TrendSMA     int           `yaml:"trend_sma"`
	UptrendBars  int           `yaml:"uptrend_bars"`
	MaxPositions int           `yaml:"max_positions"`
	WorstRank    int           `yaml:"worst_rank"`
	Gated        bool          `yaml:"gated"`
	Routing      RoutingParams `yaml:"routing"`
}

type TrendSwitchParams struct {
	Enabled     bool          `yaml:"enabled"`
	Allocation  float64       `yaml:"allocation"`
	Symbol      string        `yaml:"symbol"`
	Bars        int           `yaml:"bars"`
	ROCPeriod   int           `yaml:"roc_period"`
	UptrendBars int           `yaml:"uptrend_bars"`
	Routing     RoutingParams `yaml:"routing"`
}

type MeanRevParams struct {
	Enabled      bool          `yaml:"enabled"`
	Allocation   float64       `yaml:"allocation"`
	Watchlist    string        `yaml:"watchlist"`
	Bars         int           `yaml:"bars"`
	MinPrice     float64       `yaml:"min_price"`
	VolumeSMA    int           `yaml:"volume_sma"`
	MinVolume    float64       `yaml:"min_volume"`
	TrendSMA     int           `yaml:"trend_sma"`
	ADXPeriod    int           `yaml:"adx_period"`
	ADXMin       float64       `yaml:"adx_min"`
	RSIPeriod    int           `yaml:"rsi_period"`
	RSILevel     float64       `yaml:"rsi_level"`
	ATRPeriod    int           `yaml:"atr_period"`
	ATRMultiple  float64       `yaml:"atr_multiple"`
	MaxPositions int           `yaml:"max_positions"`
	Exclude      []string      `yaml:"exclude"`
	Routing      RoutingParams `yaml:"routing"`
}

type HFTParams struct {
	Enabled      bool          `yaml:"enabled"`
	Allocation   float64       `yaml:"allocation"`
	Watchlist    string        `yaml:"watchlist"`
	Bars         int           `yaml:"bars"`
	MinPrice     float64       `yaml:"min_price"`
	MaxPrice     float64       `yaml:"max_price"`
	VolumeEMA    int           `yaml:"volume_ema"`
	MinVolume    float64       `yaml:"min_volume"`
	TrendSMA     int           `yaml:"trend_sma"`
	ADXPeriod    int           `yaml:"adx_period"`
	ADXMin       float64       `yaml:"adx_min"`
	IBRLevel     float64       `yaml:"ibr_level"`
	ATRPeriod    int           `yaml:"atr_period"`
	ATRMultiple  float64       `yaml:"atr_multiple"`
	MaxPositions int           `yaml:"max_positions"`
	Routing      RoutingParams `yaml:"routing"`
}

// expandEnv resolves ${VAR} references in the fields that carry secrets or
// endpoints.
func (c *Config) expandEnv() {
	for _, field := range []*string{
		&c.Data.BaseURL,
		&c.Brokerage.BaseURL,
		&c.Brokerage.Username,
		&c.Brokerage.Password,
		&c.Notify.Telegram.BotToken,
		&c.Notify.Telegram.ChatID,
	} {
		*field = os.ExpandEnv(*field)
	}
}

// keySet tracks field paths explicitly present in the config file, so a
// default never overwrites a deliberate zero value.
type keySet map[string]struct{}

func (k keySet) mark(path string) {
	path = strings.ToLower(strings.TrimSpace(path))
	if path == "" {
		return
	}
	k[path] = struct{}{}
}

func (k keySet) isSet(path string) bool {
	if len(k) == 0 {
		return false
	}
	path = strings.ToLower(strings.TrimSpace(path))
	if path == "" {
		return false
	}
	_, ok := k[path]
	return ok
}

// fieldDefault is one field's defaulting rule.
type fieldDefault struct {
	key   string
	need  func() bool
	apply func()
}
