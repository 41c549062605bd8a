package metrics

import "math"

// annualizationFactor scales per-sample Sharpe ratios.
var annualizationFactor = math.Sqrt(252)

// Risk holds drawdown, risk-adjusted return and win/loss shape metrics.
type Risk struct {
	MaxDrawdown          float64
	MaxDrawdownPct       float64 // of the running peak, only when the peak is positive
	SharpeRatio          float64
	ProfitFactor         float64 // gross wins / gross losses; +Inf with wins and no losses
	AvgWin               float64
	AvgLoss              float64 // <= 0
	LargestWin           float64
	LargestLoss          float64 // <= 0
	MaxConsecutiveLosses int
}

// ComputeRisk calculates risk metrics. pnlCurve is the sampled total-PnL
// series in chronological order; impacts are the realized contributions of
// each trade in execution order.
func ComputeRisk(pnlCurve []float64, impacts []float64) Risk {
	var r Risk

	r.MaxDrawdown, r.MaxDrawdownPct = computeMaxDrawdown(pnlCurve)
	r.SharpeRatio = computeSharpe(pnlCurve)
	r.MaxConsecutiveLosses = computeMaxConsecutiveLosses(impacts)

	var (
		grossWin, grossLoss float64
		wins, losses        int
	)
	for _, v := range impacts {
		switch {
		case v > 0:
			grossWin += v
			wins++
			r.LargestWin = math.Max(r.LargestWin, v)
		case v < 0:
			grossLoss += -v
			losses++
			r.LargestLoss = math.Min(r.LargestLoss, v)
		}
	}

	if wins > 0 {
		r.AvgWin = grossWin / float64(wins)
	}
	if losses > 0 {
		r.AvgLoss = -grossLoss / float64(losses)
	}

	switch {
	case grossLoss > 0:
		r.ProfitFactor = grossWin / grossLoss
	case grossWin > 0:
		r.ProfitFactor = math.Inf(1)
	}

	return r
}

// computeSharpe returns the annualized mean/stddev of successive curve
// differences, or 0 when there are fewer than two points or no variance.
func computeSharpe(curve []float64) float64 {
	if len(curve) < 2 {
		return 0
	}

	diffs := make([]float64, len(curve)-1)
	for i := 1; i < len(curve); i++ {
		diffs[i-1] = curve[i] - curve[i-1]
	}

	mean := computeMean(diffs)
	std := computePopulationStddev(diffs, mean)
	if std < 1e-10 {
		return 0
	}
	return mean / std * annualizationFactor
}

// RealizedCurve returns the cumulative realized PnL after each trade.
// Used as the drawdown series when no sampled curve is available.
func RealizedCurve(impacts []float64) []float64 {
	return computeCumulative(impacts)
}
