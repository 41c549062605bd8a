package reporting

import (
	"github.com/shopspring/decimal"

	"github.com/iminoaru/zaphft/internal/backtest"
	"github.com/iminoaru/zaphft/internal/domain"
	"github.com/iminoaru/zaphft/internal/idhash"
	"github.com/iminoaru/zaphft/internal/metrics"
)

// SectionOptions carries the run attributes that Results does not hold.
type SectionOptions struct {
	StrategyType    string
	StrategyParams  string
	Policy          string
	StartingCapital float64 // <= 0 means DefaultStartingCapital
	RecentTrades    int     // < 0 means none, 0 means DefaultRecentTrades
}

// SectionFromResults builds a run section from a finished backtest.
func SectionFromResults(res *backtest.Results, opts SectionOptions) RunSection {
	summary := metrics.RunSummary{
		Quantity:         res.Quantity,
		RealizedPnL:      res.RealizedPnL,
		UnrealizedPnL:    res.UnrealizedPnL,
		TotalBought:      res.TotalBought,
		TotalSold:        res.TotalSold,
		UpdatesProcessed: res.Stats.UpdatesProcessed,
		QuotesPlaced:     res.Stats.QuotesPlaced,
		Trades:           res.Trades,
		Impacts:          res.Impacts,
	}

	curve := curveValues(res.Curves.PnL)
	if len(curve) == 0 {
		curve = metrics.RealizedCurve(res.Impacts)
	}

	rows := make([]TradeRow, len(res.Trades))
	for i, t := range res.Trades {
		rows[i] = tradeRow(res.RunID, i, t, at(res.Impacts, i), at(res.PositionAfter, i))
	}

	curves := res.Curves
	section := RunSection{
		RunID:            res.RunID,
		StrategyName:     res.StrategyName,
		StrategyType:     opts.StrategyType,
		StrategyParams:   opts.StrategyParams,
		Policy:           opts.Policy,
		Performance:      metrics.ComputePerformance(summary),
		Timing:           metrics.ComputeTiming(res.Duration, res.SnapshotsProcessed),
		Risk:             metrics.ComputeRisk(curve, res.Impacts),
		SnapshotsSkipped: res.SnapshotsSkipped,
		FinalMid:         res.LastMid,
		AvgEntryPrice:    res.AvgEntryPrice,
		Trades:           rows,
		Curves:           &curves,
	}
	finish(&section, opts)
	return section
}

// SectionFromRecords rebuilds a run section from stored records. Without
// sampled curves, drawdown and Sharpe use the cumulative realized PnL per trade.
func SectionFromRecords(run *domain.RunRecord, trades []*domain.TradeRecord, opts SectionOptions) RunSection {
	plain := make([]domain.Trade, len(trades))
	impacts := make([]float64, len(trades))
	rows := make([]TradeRow, len(trades))
	for i, tr := range trades {
		plain[i] = tr.Trade()
		impacts[i] = tr.RealizedPnL
		rows[i] = TradeRow{
			ID:          tr.TradeID,
			Seq:         tr.Seq,
			TimestampUs: tr.TimestampUs,
			Side:        sideLabel(tr.Side),
			Price:       tr.Price,
			Size:        tr.Quantity,
			PnL:         tr.RealizedPnL,
			Position:    tr.PositionAfter,
		}
	}

	summary := metrics.RunSummary{
		Quantity:         run.FinalQuantity,
		RealizedPnL:      run.RealizedPnL,
		UnrealizedPnL:    run.UnrealizedPnL,
		TotalBought:      run.TotalBought,
		TotalSold:        run.TotalSold,
		UpdatesProcessed: run.UpdatesProcessed,
		QuotesPlaced:     run.QuotesPlaced,
		Trades:           plain,
		Impacts:          impacts,
	}

	if opts.StrategyType == "" {
		opts.StrategyType = run.StrategyType
	}
	if opts.StrategyParams == "" {
		opts.StrategyParams = run.StrategyParams
	}
	if opts.Policy == "" {
		opts.Policy = run.SnapshotPolicy
	}

	section := RunSection{
		RunID:            run.RunID,
		StrategyName:     run.StrategyName,
		Performance:      metrics.ComputePerformance(summary),
		Timing:           metrics.ComputeTiming(durationOf(run.DurationNs), run.SnapshotsProcessed),
		Risk:             metrics.ComputeRisk(metrics.RealizedCurve(impacts), impacts),
		SnapshotsSkipped: run.SnapshotsSkipped,
		FinalMid:         run.FinalMidPrice,
		AvgEntryPrice:    run.AvgEntryPrice,
		Trades:           rows,
	}
	finish(&section, opts)
	return section
}

// ApplySpeedups sets each section's duration relative to the first one.
func ApplySpeedups(sections []RunSection) {
	if len(sections) == 0 || sections[0].Timing.TotalDuration <= 0 {
		return
	}
	base := sections[0].Timing.TotalDuration.Seconds()
	for i := range sections {
		sections[i].Speedup = sections[i].Timing.TotalDuration.Seconds() / base
	}
}

func finish(s *RunSection, opts SectionOptions) {
	s.StrategyType = opts.StrategyType
	s.StrategyParams = opts.StrategyParams
	s.Policy = opts.Policy

	capital := opts.StartingCapital
	if capital <= 0 {
		capital = DefaultStartingCapital
	}
	start := decimal.NewFromFloat(capital)
	pnl := decimal.NewFromFloat(finiteOrZero(s.Performance.TotalPnL))
	s.StartingCapital = capital
	s.FinalCapital = start.Add(pnl).InexactFloat64()
	s.ReturnPct = pnl.Div(start).Mul(decimal.NewFromInt(100)).InexactFloat64()

	if len(s.Trades) > 0 {
		best, worst := 0, 0
		for i, t := range s.Trades {
			if t.PnL > s.Trades[best].PnL {
				best = i
			}
			if t.PnL < s.Trades[worst].PnL {
				worst = i
			}
		}
		b, w := s.Trades[best], s.Trades[worst]
		s.BestTrade, s.WorstTrade = &b, &w
	}

	n := opts.RecentTrades
	if n == 0 {
		n = DefaultRecentTrades
	}
	if n > 0 {
		from := max(len(s.Trades)-n, 0)
		s.RecentTrades = s.Trades[from:]
	}
}

func tradeRow(runID string, seq int, t domain.Trade, impact, position float64) TradeRow {
	return TradeRow{
		ID:          idhash.ComputeTradeID(runID, seq, t.Side, t.TimestampUs),
		Seq:         seq,
		TimestampUs: t.TimestampUs,
		Side:        sideLabel(t.Side),
		Price:       t.Price,
		Size:        t.Quantity,
		PnL:         impact,
		Position:    position,
	}
}

func sideLabel(s domain.Side) string {
	if s == domain.SideBid {
		return "buy"
	}
	return "sell"
}

func curveValues(points []domain.CurvePoint) []float64 {
	out := make([]float64, len(points))
	for i, p := range points {
		out[i] = p.Value
	}
	return out
}

func at(values []float64, i int) float64 {
	if i < len(values) {
		return values[i]
	}
	return 0
}
