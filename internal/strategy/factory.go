package strategy

import (
	"errors"
	"fmt"
	"strings"
)

// Factory errors
var (
	ErrUnknownStrategyType = errors.New("unknown strategy type")
	ErrInvalidMaxPosition  = errors.New("max_position must be positive")
	ErrInvalidTickSize     = errors.New("tick_size must be positive")
	ErrInvalidQuoteSize    = errors.New("quote_size must be positive")
	ErrInvalidTradeSize    = errors.New("trade_size must be positive")
	ErrInvalidLookback     = errors.New("lookback must be at least 1")
	ErrInvalidParameter    = errors.New("invalid strategy parameter")
)

// FromConfig creates a Strategy from a Config.
// Missing parameter blocks fall back to the defaults of the type.
func FromConfig(cfg Config) (Strategy, error) {
	cfg = cfg.Resolved()

	switch cfg.Type {
	case TypeMarketMaker:
		return NewMarketMaker(*cfg.MarketMaker)
	case TypeMomentum:
		return NewMomentum(*cfg.Momentum)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownStrategyType, cfg.Type)
	}
}

// ParseTypes parses a comma-separated list of strategy types, e.g.
// "market_maker,momentum", into configs with default parameters.
func ParseTypes(list string) ([]Config, error) {
	var cfgs []Config
	for _, part := range strings.Split(list, ",") {
		name := strings.TrimSpace(part)
		if name == "" {
			continue
		}
		t := Type(name)
		if t != TypeMarketMaker && t != TypeMomentum {
			return nil, fmt.Errorf("%w: %q", ErrUnknownStrategyType, name)
		}
		cfgs = append(cfgs, Config{Type: t}.Resolved())
	}
	return cfgs, nil
}
