package reporting

import (
	"fmt"
	"strings"
)

// RenderTradesCSV renders a trade history as CSV string.
func RenderTradesCSV(trades []TradeRow) string {
	var sb strings.Builder

	sb.WriteString("trade_id,seq,timestamp_us,side,price,size,pnl,position\n")
	for _, t := range trades {
		sb.WriteString(fmt.Sprintf("%s,%d,%d,%s,%s,%s,%s,%s\n",
			t.ID,
			t.Seq,
			t.TimestampUs,
			t.Side,
			fixed(t.Price, 8),
			fixed(t.Size, 8),
			fixed(t.PnL, 8),
			fixed(t.Position, 8),
		))
	}

	return sb.String()
}

// RenderSummaryCSV renders one row per run.
func RenderSummaryCSV(runs []RunSection) string {
	var sb strings.Builder

	sb.WriteString("run_id,strategy,total_pnl,realized_pnl,unrealized_pnl,final_position,")
	sb.WriteString("trades,winning_trades,losing_trades,win_rate,volume,")
	sb.WriteString("max_drawdown,sharpe_ratio,profit_factor,duration_ms,throughput,return_pct\n")

	for _, r := range runs {
		p := r.Performance
		sb.WriteString(fmt.Sprintf("%s,%s,%s,%s,%s,%s,%d,%d,%d,%s,%s,%s,%s,%s,%d,%s,%s\n",
			r.RunID,
			csvField(r.StrategyName),
			fixed(p.TotalPnL, 6),
			fixed(p.RealizedPnL, 6),
			fixed(p.UnrealizedPnL, 6),
			fixed(p.FinalPosition, 6),
			p.TotalTrades,
			p.WinningTrades,
			p.LosingTrades,
			fixed(p.WinRate, 6),
			fixed(p.TotalVolume, 6),
			fixed(r.Risk.MaxDrawdown, 6),
			fixed(r.Risk.SharpeRatio, 6),
			fixed(r.Risk.ProfitFactor, 6),
			r.Timing.TotalDuration.Milliseconds(),
			fixed(r.Timing.Throughput, 2),
			fixed(r.ReturnPct, 6),
		))
	}

	return sb.String()
}

// csvField quotes s when it contains a separator, quote or newline.
func csvField(s string) string {
	if !strings.ContainsAny(s, ",\"\n") {
		return s
	}
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
