package domain

// RunRecord is the persisted summary of one strategy pass over a dataset.
// Corresponds to the backtest_runs table.
type RunRecord struct {
	RunID          string // uuid
	DatasetID      string // snapshot dataset the run replayed
	StrategyName   string // display name, e.g. "Market Maker"
	StrategyType   string // factory type, e.g. "market_maker"
	StrategyParams string // JSON-encoded strategy config
	SnapshotPolicy string // skip | abort

	StartedAtMs int64 // wall clock, unix ms
	DurationNs  int64 // replay duration

	// Counters
	SnapshotsProcessed int
	SnapshotsSkipped   int
	UpdatesProcessed   int
	TradesGenerated    int
	QuotesPlaced       int

	// Final ledger state
	FinalQuantity float64
	AvgEntryPrice float64
	RealizedPnL   float64
	UnrealizedPnL float64 // marked at FinalMidPrice
	FinalMidPrice float64
	TradeCount    int
	TotalBought   float64
	TotalSold     float64
}

// TradeRecord is one entry of a run's trade log.
// Corresponds to the run_trades table.
type TradeRecord struct {
	TradeID       string // deterministic hash of (run_id, seq, side, timestamp)
	RunID         string
	Seq           int // 0-based position in the trade log
	Side          Side
	Price         float64
	Quantity      float64
	TimestampUs   int64
	RealizedPnL   float64 // realized contribution of this trade
	PositionAfter float64 // ledger quantity after the trade
}

// Trade converts the record back to a plain trade.
func (r *TradeRecord) Trade() Trade {
	return NewTrade(r.Side, r.Price, r.Quantity, r.TimestampUs)
}
