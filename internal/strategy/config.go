package strategy

import (
	"encoding/json"
	"fmt"
	"math"
)

// Type selects a strategy implementation.
type Type string

// Strategy types.
const (
	TypeMarketMaker Type = "market_maker"
	TypeMomentum    Type = "momentum"
)

// MarketMakerConfig parameterizes MarketMaker. Prices derived from the
// *_ticks fields are multiplied by TickSize.
type MarketMakerConfig struct {
	SpreadTicks         float64 `json:"spread_ticks" toml:"spread_ticks"`
	QuoteSize           float64 `json:"quote_size" toml:"quote_size"`
	MaxPosition         float64 `json:"max_position" toml:"max_position"`
	TickSize            float64 `json:"tick_size" toml:"tick_size"`
	InventoryThreshold  float64 `json:"inventory_threshold" toml:"inventory_threshold"`
	InventorySkewTicks  float64 `json:"inventory_skew_ticks" toml:"inventory_skew_ticks"`
	TrendFilterTicks    float64 `json:"trend_filter_ticks" toml:"trend_filter_ticks"`
	HedgeInventoryRatio float64 `json:"hedge_inventory_ratio" toml:"hedge_inventory_ratio"`
}

// DefaultMarketMakerConfig returns the stock market maker parameters.
func DefaultMarketMakerConfig() MarketMakerConfig {
	return MarketMakerConfig{
		SpreadTicks:         0.5,
		QuoteSize:           0.1,
		MaxPosition:         1.0,
		TickSize:            0.05,
		InventoryThreshold:  0.9,
		InventorySkewTicks:  0.5,
		TrendFilterTicks:    0.5,
		HedgeInventoryRatio: 0.5,
	}
}

// Validate checks the parameters.
func (c MarketMakerConfig) Validate() error {
	if !(c.MaxPosition > 0) {
		return fmt.Errorf("%w: %v", ErrInvalidMaxPosition, c.MaxPosition)
	}
	if !(c.TickSize > 0) {
		return fmt.Errorf("%w: %v", ErrInvalidTickSize, c.TickSize)
	}
	if !(c.QuoteSize > 0) {
		return fmt.Errorf("%w: %v", ErrInvalidQuoteSize, c.QuoteSize)
	}

	params := []struct {
		name  string
		value float64
	}{
		{"spread_ticks", c.SpreadTicks},
		{"inventory_threshold", c.InventoryThreshold},
		{"inventory_skew_ticks", c.InventorySkewTicks},
		{"trend_filter_ticks", c.TrendFilterTicks},
		{"hedge_inventory_ratio", c.HedgeInventoryRatio},
	}
	for _, p := range params {
		if p.value < 0 || math.IsNaN(p.value) || math.IsInf(p.value, 0) {
			return fmt.Errorf("%w: %s=%v", ErrInvalidParameter, p.name, p.value)
		}
	}

	return nil
}

// MomentumConfig parameterizes Momentum.
type MomentumConfig struct {
	Threshold   float64 `json:"threshold" toml:"threshold"`
	TradeSize   float64 `json:"trade_size" toml:"trade_size"`
	MaxPosition float64 `json:"max_position" toml:"max_position"`
	Lookback    int     `json:"lookback" toml:"lookback"`
}

// DefaultMomentumConfig returns the stock momentum parameters.
func DefaultMomentumConfig() MomentumConfig {
	return MomentumConfig{
		Threshold:   5.0,
		TradeSize:   0.1,
		MaxPosition: 2.0,
		Lookback:    100,
	}
}

// Validate checks the parameters.
func (c MomentumConfig) Validate() error {
	if !(c.MaxPosition > 0) {
		return fmt.Errorf("%w: %v", ErrInvalidMaxPosition, c.MaxPosition)
	}
	if !(c.TradeSize > 0) {
		return fmt.Errorf("%w: %v", ErrInvalidTradeSize, c.TradeSize)
	}
	if c.Lookback < 1 {
		return fmt.Errorf("%w: %d", ErrInvalidLookback, c.Lookback)
	}
	if c.Threshold < 0 || math.IsNaN(c.Threshold) {
		return fmt.Errorf("%w: threshold=%v", ErrInvalidParameter, c.Threshold)
	}
	return nil
}

// Config selects and parameterizes one strategy. A nil parameter block
// means the defaults for that type.
type Config struct {
	Type        Type               `json:"type" toml:"type"`
	MarketMaker *MarketMakerConfig `json:"market_maker,omitempty" toml:"market_maker"`
	Momentum    *MomentumConfig    `json:"momentum,omitempty" toml:"momentum"`
}

// Resolved returns a copy of c with the parameter block for its type filled
// in and the other block cleared.
func (c Config) Resolved() Config {
	out := Config{Type: c.Type}
	switch c.Type {
	case TypeMarketMaker:
		mm := DefaultMarketMakerConfig()
		if c.MarketMaker != nil {
			mm = *c.MarketMaker
		}
		out.MarketMaker = &mm
	case TypeMomentum:
		mo := DefaultMomentumConfig()
		if c.Momentum != nil {
			mo = *c.Momentum
		}
		out.Momentum = &mo
	}
	return out
}

// Params returns the JSON encoding of the resolved parameter block, the form
// stored with each run.
func (c Config) Params() (string, error) {
	c = c.Resolved()

	var block any
	switch c.Type {
	case TypeMarketMaker:
		block = c.MarketMaker
	case TypeMomentum:
		block = c.Momentum
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownStrategyType, c.Type)
	}

	data, err := json.Marshal(block)
	if err != nil {
		return "", fmt.Errorf("encode %s params: %w", c.Type, err)
	}
	return string(data), nil
}

// ParseConfig rebuilds a config from a stored type and parameter block.
// Fields missing from params keep their defaults; an empty params string
// means all defaults.
func ParseConfig(t Type, params string) (Config, error) {
	cfg := Config{Type: t}.Resolved()

	var target any
	switch t {
	case TypeMarketMaker:
		target = cfg.MarketMaker
	case TypeMomentum:
		target = cfg.Momentum
	default:
		return Config{}, fmt.Errorf("%w: %q", ErrUnknownStrategyType, t)
	}

	if params != "" && params != "{}" {
		if err := json.Unmarshal([]byte(params), target); err != nil {
			return Config{}, fmt.Errorf("decode %s params: %w", t, err)
		}
	}
	return cfg, nil
}
