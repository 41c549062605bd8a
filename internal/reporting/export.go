package reporting

import (
	"encoding/json"
	"math"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iminoaru/zaphft/internal/domain"
)

// ExportDocument is the machine-readable form of one run.
type ExportDocument struct {
	Metadata   ExportMetadata   `json:"metadata"`
	Summary    ExportSummary    `json:"summary"`
	Timeseries ExportTimeseries `json:"timeseries"`
	Trades     ExportTrades     `json:"trades"`
	Risk       ExportRisk       `json:"risk"`
}

// ExportMetadata describes the run and its capital outcome.
type ExportMetadata struct {
	RunID            string          `json:"run_id"`
	Strategy         string          `json:"strategy"`
	StrategyType     string          `json:"strategy_type,omitempty"`
	Parameters       json.RawMessage `json:"parameters,omitempty"`
	DatasetID        string          `json:"dataset_id,omitempty"`
	DatasetSize      int             `json:"dataset_size"`
	SnapshotsSkipped int             `json:"snapshots_skipped"`
	GeneratedAt      time.Time       `json:"generated_at"`
	DurationMs       int64           `json:"duration_ms"`
	Throughput       decimal.Decimal `json:"throughput"`
	StartingCapital  decimal.Decimal `json:"starting_capital"`
	FinalCapital     decimal.Decimal `json:"final_capital"`
	ReturnPct        decimal.Decimal `json:"return_pct"`
}

// ExportSummary holds the headline performance numbers.
type ExportSummary struct {
	TotalPnL         decimal.Decimal `json:"total_pnl"`
	RealizedPnL      decimal.Decimal `json:"realized_pnl"`
	UnrealizedPnL    decimal.Decimal `json:"unrealized_pnl"`
	FinalPosition    decimal.Decimal `json:"final_position"`
	AvgEntryPrice    decimal.Decimal `json:"avg_entry_price"`
	FinalMid         decimal.Decimal `json:"final_mid"`
	MaxPositionLong  decimal.Decimal `json:"max_position_long"`
	MaxPositionShort decimal.Decimal `json:"max_position_short"`
	TotalTrades      int             `json:"total_trades"`
	WinningTrades    int             `json:"winning_trades"`
	LosingTrades     int             `json:"losing_trades"`
	WinRate          decimal.Decimal `json:"win_rate"`
	BuyVolume        decimal.Decimal `json:"buy_volume"`
	SellVolume       decimal.Decimal `json:"sell_volume"`
	UpdatesProcessed int             `json:"updates_processed"`
	QuotesPlaced     int             `json:"quotes_placed"`
}

// ExportPoint is one curve sample.
type ExportPoint struct {
	Index       int             `json:"index"`
	TimestampUs int64           `json:"timestamp_us"`
	Value       decimal.Decimal `json:"value"`
}

// ExportTimeseries holds the sampled curves; empty for runs rebuilt from storage.
type ExportTimeseries struct {
	PnL      []ExportPoint `json:"pnl"`
	Position []ExportPoint `json:"position"`
	Volume   []ExportPoint `json:"volume"`
	Drawdown []ExportPoint `json:"drawdown"`
}

// ExportTrade is one trade of the history.
type ExportTrade struct {
	ID          string          `json:"id"`
	TimestampUs int64           `json:"timestamp_us"`
	Side        string          `json:"side"`
	Price       decimal.Decimal `json:"price"`
	Size        decimal.Decimal `json:"size"`
	PnL         decimal.Decimal `json:"pnl"`
}

// ExportTrades holds the trade history with its extremes.
type ExportTrades struct {
	All    []ExportTrade `json:"all"`
	Best   *ExportTrade  `json:"best,omitempty"`
	Worst  *ExportTrade  `json:"worst,omitempty"`
	Recent []ExportTrade `json:"recent"`
}

// ExportRisk holds the risk metrics. ProfitFactor is omitted and
// ProfitFactorInfinite set when there were wins and no losses.
type ExportRisk struct {
	MaxDrawdown          decimal.Decimal  `json:"max_drawdown"`
	MaxDrawdownPct       decimal.Decimal  `json:"max_drawdown_pct"`
	SharpeRatio          decimal.Decimal  `json:"sharpe_ratio"`
	ProfitFactor         *decimal.Decimal `json:"profit_factor,omitempty"`
	ProfitFactorInfinite bool             `json:"profit_factor_infinite,omitempty"`
	AvgWin               decimal.Decimal  `json:"avg_win"`
	AvgLoss              decimal.Decimal  `json:"avg_loss"`
	LargestWin           decimal.Decimal  `json:"largest_win"`
	LargestLoss          decimal.Decimal  `json:"largest_loss"`
	MaxConsecutiveLosses int              `json:"max_consecutive_losses"`
}

// BuildExport converts a run section of r into an export document.
func BuildExport(r *Report, run *RunSection) ExportDocument {
	p := run.Performance
	k := run.Risk

	doc := ExportDocument{
		Metadata: ExportMetadata{
			RunID:            run.RunID,
			Strategy:         run.StrategyName,
			StrategyType:     run.StrategyType,
			DatasetID:        r.DatasetID,
			DatasetSize:      run.Timing.SnapshotsProcessed + run.SnapshotsSkipped,
			SnapshotsSkipped: run.SnapshotsSkipped,
			GeneratedAt:      r.GeneratedAt,
			DurationMs:       run.Timing.TotalDuration.Milliseconds(),
			Throughput:       toDecimal(run.Timing.Throughput, 2),
			StartingCapital:  toDecimal(run.StartingCapital, 2),
			FinalCapital:     toDecimal(run.FinalCapital, 2),
			ReturnPct:        toDecimal(run.ReturnPct, 4),
		},
		Summary: ExportSummary{
			TotalPnL:         toDecimal(p.TotalPnL, 8),
			RealizedPnL:      toDecimal(p.RealizedPnL, 8),
			UnrealizedPnL:    toDecimal(p.UnrealizedPnL, 8),
			FinalPosition:    toDecimal(p.FinalPosition, 8),
			AvgEntryPrice:    toDecimal(run.AvgEntryPrice, 8),
			FinalMid:         toDecimal(run.FinalMid, 8),
			MaxPositionLong:  toDecimal(p.MaxPositionLong, 8),
			MaxPositionShort: toDecimal(p.MaxPositionShort, 8),
			TotalTrades:      p.TotalTrades,
			WinningTrades:    p.WinningTrades,
			LosingTrades:     p.LosingTrades,
			WinRate:          toDecimal(p.WinRate, 6),
			BuyVolume:        toDecimal(p.BuyVolume, 8),
			SellVolume:       toDecimal(p.SellVolume, 8),
			UpdatesProcessed: p.UpdatesProcessed,
			QuotesPlaced:     p.QuotesPlaced,
		},
		Risk: ExportRisk{
			MaxDrawdown:          toDecimal(k.MaxDrawdown, 8),
			MaxDrawdownPct:       toDecimal(k.MaxDrawdownPct, 4),
			SharpeRatio:          toDecimal(k.SharpeRatio, 6),
			AvgWin:               toDecimal(k.AvgWin, 8),
			AvgLoss:              toDecimal(k.AvgLoss, 8),
			LargestWin:           toDecimal(k.LargestWin, 8),
			LargestLoss:          toDecimal(k.LargestLoss, 8),
			MaxConsecutiveLosses: k.MaxConsecutiveLosses,
		},
	}

	if json.Valid([]byte(run.StrategyParams)) {
		doc.Metadata.Parameters = json.RawMessage(run.StrategyParams)
	}

	if math.IsInf(k.ProfitFactor, 1) {
		doc.Risk.ProfitFactorInfinite = true
	} else {
		pf := toDecimal(k.ProfitFactor, 6)
		doc.Risk.ProfitFactor = &pf
	}

	if c := run.Curves; c != nil {
		doc.Timeseries = ExportTimeseries{
			PnL:      exportPoints(c.PnL),
			Position: exportPoints(c.Position),
			Volume:   exportPoints(c.Volume),
			Drawdown: exportPoints(c.Drawdown),
		}
	}

	doc.Trades.All = exportTrades(run.Trades)
	doc.Trades.Recent = exportTrades(run.RecentTrades)
	if run.BestTrade != nil {
		best := exportTrade(*run.BestTrade)
		worst := exportTrade(*run.WorstTrade)
		doc.Trades.Best, doc.Trades.Worst = &best, &worst
	}

	return doc
}

// RenderJSON renders an export document as indented JSON.
func RenderJSON(doc ExportDocument) ([]byte, error) {
	return json.MarshalIndent(doc, "", "  ")
}

func exportPoints(points []domain.CurvePoint) []ExportPoint {
	out := make([]ExportPoint, len(points))
	for i, p := range points {
		out[i] = ExportPoint{Index: p.Index, TimestampUs: p.TimestampUs, Value: toDecimal(p.Value, 8)}
	}
	return out
}

func exportTrade(t TradeRow) ExportTrade {
	return ExportTrade{
		ID:          t.ID,
		TimestampUs: t.TimestampUs,
		Side:        t.Side,
		Price:       toDecimal(t.Price, 8),
		Size:        toDecimal(t.Size, 8),
		PnL:         toDecimal(t.PnL, 8),
	}
}

func exportTrades(rows []TradeRow) []ExportTrade {
	out := make([]ExportTrade, len(rows))
	for i, t := range rows {
		out[i] = exportTrade(t)
	}
	return out
}
