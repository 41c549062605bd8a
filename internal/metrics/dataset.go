package metrics

import (
	"math"
	"sort"

	"github.com/iminoaru/zaphft/internal/domain"
	"github.com/iminoaru/zaphft/internal/orderbook"
)

// SnapshotStats describes a snapshot dataset.
type SnapshotStats struct {
	Count        int
	StartUs      int64
	EndUs        int64
	DurationMs   int64
	MinSpread    float64
	MaxSpread    float64
	AvgSpread    float64
	MedianSpread float64
	SpreadStddev float64
	MinPrice     float64 // lowest best bid
	MaxPrice     float64 // highest best ask
}

// ComputeSnapshotStats calculates dataset statistics over snaps in the given
// order. Start and end are the first and last snapshot timestamps.
func ComputeSnapshotStats(snaps []*domain.Snapshot) SnapshotStats {
	n := len(snaps)
	if n == 0 {
		return SnapshotStats{}
	}

	s := SnapshotStats{
		Count:     n,
		StartUs:   snaps[0].TimestampUs,
		EndUs:     snaps[n-1].TimestampUs,
		MinSpread: math.Inf(1),
		MaxSpread: math.Inf(-1),
		MinPrice:  math.Inf(1),
		MaxPrice:  math.Inf(-1),
	}
	s.DurationMs = (s.EndUs - s.StartUs) / 1000

	spreads := make([]float64, n)
	for i, snap := range snaps {
		v := orderbook.NewView(snap)
		spread := v.Spread()
		spreads[i] = spread

		s.MinSpread = math.Min(s.MinSpread, spread)
		s.MaxSpread = math.Max(s.MaxSpread, spread)
		s.MinPrice = math.Min(s.MinPrice, v.BestBid())
		s.MaxPrice = math.Max(s.MaxPrice, v.BestAsk())
	}

	s.AvgSpread = computeMean(spreads)
	s.SpreadStddev = computeStddev(spreads, s.AvgSpread)

	sort.Float64s(spreads)
	s.MedianSpread = computePercentile(spreads, 0.50)

	return s
}
