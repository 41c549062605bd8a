package reporting

import (
	"fmt"
	"strings"
	"time"
)

// RenderMarkdown renders report as Markdown string.
func RenderMarkdown(r *Report) string {
	var sb strings.Builder

	// Header
	sb.WriteString("# Backtest Report\n\n")
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", r.GeneratedAt.Format(time.RFC3339)))
	if r.DatasetID != "" {
		sb.WriteString(fmt.Sprintf("Dataset: `%s` | Runs: %d\n\n", r.DatasetID, len(r.Runs)))
	} else {
		sb.WriteString(fmt.Sprintf("Runs: %d\n\n", len(r.Runs)))
	}

	// Dataset
	sb.WriteString("## Dataset\n\n")
	if d := r.Dataset; d != nil && d.Count > 0 {
		sb.WriteString("| Metric | Value |\n")
		sb.WriteString("|--------|-------|\n")
		sb.WriteString(fmt.Sprintf("| Snapshots | %d |\n", d.Count))
		sb.WriteString(fmt.Sprintf("| Start | %s |\n", formatTimestampUs(d.StartUs)))
		sb.WriteString(fmt.Sprintf("| End | %s |\n", formatTimestampUs(d.EndUs)))
		sb.WriteString(fmt.Sprintf("| Duration (ms) | %d |\n", d.DurationMs))
		sb.WriteString(fmt.Sprintf("| Spread min / avg / max | %s / %s / %s |\n",
			fixed(d.MinSpread, 6), fixed(d.AvgSpread, 6), fixed(d.MaxSpread, 6)))
		sb.WriteString(fmt.Sprintf("| Spread median / stddev | %s / %s |\n",
			fixed(d.MedianSpread, 6), fixed(d.SpreadStddev, 6)))
		sb.WriteString(fmt.Sprintf("| Price range | %s - %s |\n", fixed(d.MinPrice, 4), fixed(d.MaxPrice, 4)))
	} else {
		sb.WriteString("No dataset statistics available.\n")
	}
	sb.WriteString("\n")

	// Comparison
	sb.WriteString("## Strategy Comparison\n\n")
	if len(r.Runs) > 0 {
		sb.WriteString("| Strategy | Total PnL | Realized | Unrealized | Trades | WinRate | MaxDD | Sharpe | Return | Duration | Snapshots/s | Relative |\n")
		sb.WriteString("|----------|-----------|----------|------------|--------|---------|-------|--------|--------|----------|-------------|----------|\n")
		for _, run := range r.Runs {
			p := run.Performance
			sb.WriteString(fmt.Sprintf("| %s | %s | %s | %s | %d | %s | %s | %s | %s%% | %s | %s | %s |\n",
				run.StrategyName,
				fixed(p.TotalPnL, 4), fixed(p.RealizedPnL, 4), fixed(p.UnrealizedPnL, 4),
				p.TotalTrades, percent(p.WinRate),
				fixed(run.Risk.MaxDrawdown, 4), fixed(run.Risk.SharpeRatio, 2),
				fixed(run.ReturnPct, 2),
				run.Timing.TotalDuration.Round(time.Microsecond), fixed(run.Timing.Throughput, 0),
				speedup(run.Speedup)))
		}
	} else {
		sb.WriteString("No runs available.\n")
	}
	sb.WriteString("\n")

	for _, run := range r.Runs {
		renderRun(&sb, &run)
	}

	return sb.String()
}

func renderRun(sb *strings.Builder, run *RunSection) {
	p := run.Performance
	k := run.Risk

	sb.WriteString(fmt.Sprintf("## %s\n\n", run.StrategyName))
	sb.WriteString(fmt.Sprintf("Run: `%s`", run.RunID))
	if run.Policy != "" {
		sb.WriteString(fmt.Sprintf(" | Invalid snapshots: %s (%d skipped)", run.Policy, run.SnapshotsSkipped))
	}
	sb.WriteString("\n\n")
	if run.StrategyParams != "" {
		sb.WriteString(fmt.Sprintf("Parameters: `%s`\n\n", run.StrategyParams))
	}

	// Performance
	sb.WriteString("### Performance\n\n")
	sb.WriteString("| Metric | Value |\n")
	sb.WriteString("|--------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Total PnL | %s |\n", fixed(p.TotalPnL, 6)))
	sb.WriteString(fmt.Sprintf("| Realized PnL | %s |\n", fixed(p.RealizedPnL, 6)))
	sb.WriteString(fmt.Sprintf("| Unrealized PnL | %s (mid %s) |\n", fixed(p.UnrealizedPnL, 6), fixed(run.FinalMid, 4)))
	sb.WriteString(fmt.Sprintf("| Capital | %s -> %s (%s%%) |\n",
		fixed(run.StartingCapital, 2), fixed(run.FinalCapital, 2), fixed(run.ReturnPct, 4)))
	sb.WriteString(fmt.Sprintf("| Final Position | %s @ %s |\n", fixed(p.FinalPosition, 6), fixed(run.AvgEntryPrice, 4)))
	sb.WriteString(fmt.Sprintf("| Max Long / Max Short | %s / %s |\n", fixed(p.MaxPositionLong, 6), fixed(p.MaxPositionShort, 6)))
	sb.WriteString(fmt.Sprintf("| Avg Position | %s |\n", fixed(p.AvgPosition, 6)))
	sb.WriteString(fmt.Sprintf("| Trades (W/L) | %d (%d/%d) |\n", p.TotalTrades, p.WinningTrades, p.LosingTrades))
	sb.WriteString(fmt.Sprintf("| Win Rate | %s |\n", percent(p.WinRate)))
	sb.WriteString(fmt.Sprintf("| Volume (buy/sell) | %s (%s/%s) |\n",
		fixed(p.TotalVolume, 6), fixed(p.BuyVolume, 6), fixed(p.SellVolume, 6)))
	sb.WriteString(fmt.Sprintf("| Updates / Quotes | %d / %d (rate %s) |\n", p.UpdatesProcessed, p.QuotesPlaced, fixed(p.QuoteRate, 4)))
	sb.WriteString("\n")

	// Timing
	sb.WriteString("### Timing\n\n")
	sb.WriteString("| Metric | Value |\n")
	sb.WriteString("|--------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Duration | %s |\n", run.Timing.TotalDuration))
	sb.WriteString(fmt.Sprintf("| Snapshots | %d |\n", run.Timing.SnapshotsProcessed))
	sb.WriteString(fmt.Sprintf("| Per Snapshot | %s |\n", run.Timing.TimePerSnapshot))
	sb.WriteString(fmt.Sprintf("| Throughput | %s snapshots/s |\n", fixed(run.Timing.Throughput, 0)))
	sb.WriteString("\n")

	// Risk
	sb.WriteString("### Risk\n\n")
	sb.WriteString("| Metric | Value |\n")
	sb.WriteString("|--------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Max Drawdown | %s (%s%%) |\n", fixed(k.MaxDrawdown, 6), fixed(k.MaxDrawdownPct, 2)))
	sb.WriteString(fmt.Sprintf("| Sharpe Ratio | %s |\n", fixed(k.SharpeRatio, 4)))
	sb.WriteString(fmt.Sprintf("| Profit Factor | %s |\n", fixed(k.ProfitFactor, 4)))
	sb.WriteString(fmt.Sprintf("| Avg Win / Avg Loss | %s / %s |\n", fixed(k.AvgWin, 6), fixed(k.AvgLoss, 6)))
	sb.WriteString(fmt.Sprintf("| Largest Win / Loss | %s / %s |\n", fixed(k.LargestWin, 6), fixed(k.LargestLoss, 6)))
	sb.WriteString(fmt.Sprintf("| Max Consecutive Losses | %d |\n", k.MaxConsecutiveLosses))
	sb.WriteString("\n")

	// Trades
	sb.WriteString("### Trades\n\n")
	if run.BestTrade == nil {
		sb.WriteString("No trades executed.\n\n")
		return
	}
	sb.WriteString(fmt.Sprintf("Best: #%d %s %s @ %s (PnL %s)\n\n",
		run.BestTrade.Seq, run.BestTrade.Side, fixed(run.BestTrade.Size, 6), fixed(run.BestTrade.Price, 4), fixed(run.BestTrade.PnL, 6)))
	sb.WriteString(fmt.Sprintf("Worst: #%d %s %s @ %s (PnL %s)\n\n",
		run.WorstTrade.Seq, run.WorstTrade.Side, fixed(run.WorstTrade.Size, 6), fixed(run.WorstTrade.Price, 4), fixed(run.WorstTrade.PnL, 6)))

	if len(run.RecentTrades) > 0 {
		sb.WriteString(fmt.Sprintf("Last %d trades:\n\n", len(run.RecentTrades)))
		sb.WriteString("| # | Time | Side | Price | Size | PnL | Position |\n")
		sb.WriteString("|---|------|------|-------|------|-----|----------|\n")
		for _, t := range run.RecentTrades {
			sb.WriteString(fmt.Sprintf("| %d | %s | %s | %s | %s | %s | %s |\n",
				t.Seq, formatTimestampUs(t.TimestampUs), t.Side,
				fixed(t.Price, 4), fixed(t.Size, 6), fixed(t.PnL, 6), fixed(t.Position, 6)))
		}
		sb.WriteString("\n")
	}
}

func speedup(v float64) string {
	if v <= 0 {
		return "-"
	}
	return fixed(v, 2) + "x"
}
