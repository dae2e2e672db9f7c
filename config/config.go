package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/rustyeddy/greyhound/market"
	"gopkg.in/yaml.v3"
)

// Config represents the complete backtest configuration. It is constructed
// once per run and passed read-only to every component.
type Config struct {
	DataSource market.SourceConfig `json:"data_source" yaml:"data_source"`
	DataMap    DataMapConfig       `json:"data_map" yaml:"data_map"`
	Strategy   StrategyConfig      `json:"strategy" yaml:"strategy"`
	Logging    LoggingConfig       `json:"logging" yaml:"logging"`
}

// DataMapConfig maps source columns onto trading semantics.
type DataMapConfig struct {
	// ColumnName names the OHLC field treated as "the" trading price.
	ColumnName string `json:"column_name" yaml:"column_name"`
}

// StrategyConfig contains signal and risk parameters shared by every
// instrument in a run.
type StrategyConfig struct {
	// MaxPositionRisk is the maximum absolute dollar exposure permitted per
	// instrument.
	MaxPositionRisk float64 `json:"max_position_risk" yaml:"max_position_risk"`

	BuySignalBoundary  float64 `json:"buy_signal_boundary" yaml:"buy_signal_boundary"`
	SellSignalBoundary float64 `json:"sell_signal_boundary" yaml:"sell_signal_boundary"`

	EMA  EMAConfig  `json:"ema" yaml:"ema"`
	MACD MACDConfig `json:"macd" yaml:"macd"`
}

// EMAConfig contains moving-average signal parameters.
type EMAConfig struct {
	Window int `json:"window" yaml:"window"`
}

// MACDConfig contains convergence/divergence signal parameters.
type MACDConfig struct {
	Fast         int     `json:"macd_fast" yaml:"macd_fast"`
	Slow         int     `json:"macd_slow" yaml:"macd_slow"`
	Signal       int     `json:"macd_sig" yaml:"macd_sig"`
	HistogramMax float64 `json:"histogram_max" yaml:"histogram_max"`
	HistogramMin float64 `json:"histogram_min" yaml:"histogram_min"`
}

// LoggingConfig contains logging parameters.
type LoggingConfig struct {
	LogLevel string `json:"log_level" yaml:"log_level"`
}

// LoadFromFile loads configuration from a file (YAML or JSON).
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := Default()

	// Try YAML first, fall back to JSON
	err = yaml.Unmarshal(data, cfg)
	if err != nil {
		err = json.Unmarshal(data, cfg)
		if err != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.DataSource.Type != "csv" && c.DataSource.Type != "sqlite" {
		return fmt.Errorf("data_source.type must be 'csv' or 'sqlite'")
	}
	if c.DataSource.Path == "" {
		return fmt.Errorf("data_source.path is required")
	}
	switch c.DataMap.ColumnName {
	case market.ColOpen, market.ColHigh, market.ColLow, market.ColClose:
	default:
		return fmt.Errorf("data_map.column_name must be an OHLC field, got %q", c.DataMap.ColumnName)
	}
	if c.Strategy.MaxPositionRisk <= 0 {
		return fmt.Errorf("strategy.max_position_risk must be positive")
	}
	if c.Strategy.SellSignalBoundary >= c.Strategy.BuySignalBoundary {
		return fmt.Errorf("strategy.sell_signal_boundary must be below buy_signal_boundary")
	}
	if c.Strategy.EMA.Window <= 0 {
		return fmt.Errorf("strategy.ema.window must be positive")
	}
	if c.Strategy.MACD.Fast <= 0 || c.Strategy.MACD.Slow <= 0 || c.Strategy.MACD.Signal <= 0 {
		return fmt.Errorf("strategy.macd spans must be positive")
	}
	if c.Strategy.MACD.Fast >= c.Strategy.MACD.Slow {
		return fmt.Errorf("strategy.macd_fast must be below macd_slow")
	}
	if c.Strategy.MACD.HistogramMin >= c.Strategy.MACD.HistogramMax {
		return fmt.Errorf("strategy.macd histogram_min must be below histogram_max")
	}
	return nil
}

// Default returns a configuration with sensible defaults.
func Default() *Config {
	return &Config{
		DataSource: market.SourceConfig{
			Type: "csv",
			Path: "./data",
		},
		DataMap: DataMapConfig{
			ColumnName: market.ColClose,
		},
		Strategy: StrategyConfig{
			MaxPositionRisk:    10_000,
			BuySignalBoundary:  1.0,
			SellSignalBoundary: -1.0,
			EMA: EMAConfig{
				Window: 30,
			},
			MACD: MACDConfig{
				Fast:         12,
				Slow:         26,
				Signal:       9,
				HistogramMax: 0.3,
				HistogramMin: -0.3,
			},
		},
		Logging: LoggingConfig{
			LogLevel: "info",
		},
	}
}
