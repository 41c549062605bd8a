package metrics

import "math"

// computeWinRate calculates win rate as wins / total.
func computeWinRate(wins, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(wins) / float64(total)
}

// computeMean calculates the arithmetic mean.
func computeMean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// computeStddev calculates sample standard deviation (n-1 denominator).
func computeStddev(values []float64, mean float64) float64 {
	n := len(values)
	if n < 2 {
		return 0 // Need at least 2 samples for sample stddev
	}
	return math.Sqrt(sumSquares(values, mean) / float64(n-1))
}

// computePopulationStddev calculates population standard deviation (n denominator).
func computePopulationStddev(values []float64, mean float64) float64 {
	if len(values) == 0 {
		return 0
	}
	return math.Sqrt(sumSquares(values, mean) / float64(len(values)))
}

func sumSquares(values []float64, mean float64) float64 {
	sumSq := 0.0
	for _, v := range values {
		diff := v - mean
		sumSq += diff * diff
	}
	return sumSq
}

// computePercentile uses linear interpolation.
// sorted must be pre-sorted ASC.
// p is percentile (0.10 = 10th percentile).
func computePercentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if n == 1 {
		return sorted[0]
	}

	// Index for percentile (0-based, continuous)
	idx := p * float64(n-1)
	lower := int(idx)
	upper := lower + 1
	if upper >= n {
		return sorted[n-1]
	}

	// Linear interpolation
	frac := idx - float64(lower)
	return sorted[lower] + frac*(sorted[upper]-sorted[lower])
}

// computeMaxDrawdown calculates the worst peak-to-trough drop of a value
// series. The running peak starts at the first value. pct is the drop as a
// percentage of the peak it fell from, and is only tracked while that peak is
// positive.
func computeMaxDrawdown(values []float64) (abs, pct float64) {
	if len(values) == 0 {
		return 0, 0
	}

	peak := values[0]
	for _, v := range values {
		if v > peak {
			peak = v
		}
		drawdown := peak - v
		if drawdown > abs {
			abs = drawdown
			if peak > 0 {
				pct = drawdown / peak * 100
			}
		}
	}
	return abs, pct
}

// computeCumulative returns the running sum of values.
func computeCumulative(values []float64) []float64 {
	out := make([]float64, len(values))
	sum := 0.0
	for i, v := range values {
		sum += v
		out[i] = sum
	}
	return out
}

// computeMaxConsecutiveLosses finds the longest streak of negative values.
// Zero values neither extend nor break a streak.
func computeMaxConsecutiveLosses(values []float64) int {
	maxStreak := 0
	currentStreak := 0

	for _, v := range values {
		switch {
		case v < 0:
			currentStreak++
			if currentStreak > maxStreak {
				maxStreak = currentStreak
			}
		case v > 0:
			currentStreak = 0
		}
	}
	return maxStreak
}
