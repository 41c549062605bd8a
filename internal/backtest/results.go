package backtest

import (
	"time"

	"github.com/iminoaru/zaphft/internal/domain"
	"github.com/iminoaru/zaphft/internal/strategy"
)

// Curves are the sampled time series of one run.
type Curves struct {
	PnL      []domain.CurvePoint // total PnL marked at mid
	Position []domain.CurvePoint // signed quantity
	Volume   []domain.CurvePoint // cumulative traded quantity
	Drawdown []domain.CurvePoint // running peak PnL minus PnL
}

// Results holds the output of one strategy pass.
type Results struct {
	RunID        string
	StrategyName string
	Stats        strategy.Stats

	// Final ledger state
	Quantity      float64
	AvgEntryPrice float64
	RealizedPnL   float64
	UnrealizedPnL float64 // marked at LastMid
	TradeCount    int
	TotalBought   float64
	TotalSold     float64

	// Trade log, with the realized contribution and resulting position of each trade
	Trades        []domain.Trade
	Impacts       []float64
	PositionAfter []float64

	Curves Curves

	SnapshotsProcessed int
	SnapshotsSkipped   int

	FirstMid         float64
	LastMid          float64
	FirstTimestampUs int64
	LastTimestampUs  int64

	Duration time.Duration
}

// TotalPnL returns realized plus unrealized PnL.
func (r *Results) TotalPnL() float64 {
	return r.RealizedPnL + r.UnrealizedPnL
}

// Volume returns total traded quantity.
func (r *Results) Volume() float64 {
	return r.TotalBought + r.TotalSold
}
