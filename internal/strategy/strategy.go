// Package strategy holds the trading policies driven by the backtest engine.
package strategy

import "github.com/iminoaru/zaphft/internal/domain"

// Position is the read-only view of the ledger a strategy sees.
type Position interface {
	Quantity() float64
}

// Strategy turns depth snapshots into trade intents.
// Strategies are single-threaded and driven sequentially by the engine.
type Strategy interface {
	// OnMarketData is called once per accepted snapshot with the position as
	// of before any trade from this call. Returned trades are executed by the
	// caller in order.
	OnMarketData(snap *domain.Snapshot, pos Position) []domain.Trade

	// Name returns the display name.
	Name() string

	// Stats returns the strategy's counters.
	Stats() Stats
}

// Stats are the per-strategy counters.
type Stats struct {
	Name             string
	UpdatesProcessed int
	TradesGenerated  int
	QuotesPlaced     int // momentum reports signals here
	SignalsGenerated int // momentum only
}
