package reporting

import (
	"time"

	"github.com/iminoaru/zaphft/internal/backtest"
	"github.com/iminoaru/zaphft/internal/metrics"
)

// DefaultStartingCapital is the notional account size used for capital and
// return figures when none is configured.
const DefaultStartingCapital = 10_000.0

// DefaultRecentTrades is the number of trades listed per run.
const DefaultRecentTrades = 20

// Report covers every run over one dataset.
type Report struct {
	// Metadata
	GeneratedAt     time.Time
	DatasetID       string
	StartingCapital float64

	// Dataset statistics; nil when the snapshots were not available
	Dataset *metrics.SnapshotStats

	// One section per run, in execution order
	Runs []RunSection
}

// RunSection is the full breakdown of one strategy pass.
type RunSection struct {
	RunID          string
	StrategyName   string
	StrategyType   string
	StrategyParams string
	Policy         string

	Performance metrics.Performance
	Timing      metrics.Timing
	Risk        metrics.Risk

	SnapshotsSkipped int
	FinalMid         float64
	AvgEntryPrice    float64

	// Capital
	StartingCapital float64
	FinalCapital    float64
	ReturnPct       float64

	// Duration relative to the first run of the report; 0 when unknown
	Speedup float64

	// Trades
	Trades       []TradeRow
	BestTrade    *TradeRow // highest realized impact; nil without trades
	WorstTrade   *TradeRow // lowest realized impact; nil without trades
	RecentTrades []TradeRow

	// Sampled series; nil when built from stored records
	Curves *backtest.Curves
}

// TradeRow is one line of the trade history.
type TradeRow struct {
	ID          string
	Seq         int
	TimestampUs int64
	Side        string // "buy" or "sell"
	Price       float64
	Size        float64
	PnL         float64 // realized contribution
	Position    float64 // position after the trade
}
