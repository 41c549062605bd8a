package backtest

import (
	"time"

	"github.com/iminoaru/zaphft/internal/domain"
	"github.com/iminoaru/zaphft/internal/idhash"
	"github.com/iminoaru/zaphft/internal/strategy"
)

// RunRecord converts the results of a pass over datasetID into its stored summary.
func (r *Results) RunRecord(datasetID string, cfg strategy.Config, policy Policy, startedAt time.Time) (*domain.RunRecord, error) {
	params, err := cfg.Params()
	if err != nil {
		return nil, err
	}

	return &domain.RunRecord{
		RunID:              r.RunID,
		DatasetID:          datasetID,
		StrategyName:       r.StrategyName,
		StrategyType:       string(cfg.Type),
		StrategyParams:     params,
		SnapshotPolicy:     string(policy),
		StartedAtMs:        startedAt.UnixMilli(),
		DurationNs:         r.Duration.Nanoseconds(),
		SnapshotsProcessed: r.SnapshotsProcessed,
		SnapshotsSkipped:   r.SnapshotsSkipped,
		UpdatesProcessed:   r.Stats.UpdatesProcessed,
		TradesGenerated:    r.Stats.TradesGenerated,
		QuotesPlaced:       r.Stats.QuotesPlaced,
		FinalQuantity:      r.Quantity,
		AvgEntryPrice:      r.AvgEntryPrice,
		RealizedPnL:        r.RealizedPnL,
		UnrealizedPnL:      r.UnrealizedPnL,
		FinalMidPrice:      r.LastMid,
		TradeCount:         r.TradeCount,
		TotalBought:        r.TotalBought,
		TotalSold:          r.TotalSold,
	}, nil
}

// TradeRecords converts the trade log into stored records keyed by run and sequence.
func (r *Results) TradeRecords() []*domain.TradeRecord {
	out := make([]*domain.TradeRecord, len(r.Trades))
	for i, t := range r.Trades {
		rec := &domain.TradeRecord{
			TradeID:     idhash.ComputeTradeID(r.RunID, i, t.Side, t.TimestampUs),
			RunID:       r.RunID,
			Seq:         i,
			Side:        t.Side,
			Price:       t.Price,
			Quantity:    t.Quantity,
			TimestampUs: t.TimestampUs,
		}
		if i < len(r.Impacts) {
			rec.RealizedPnL = r.Impacts[i]
		}
		if i < len(r.PositionAfter) {
			rec.PositionAfter = r.PositionAfter[i]
		}
		out[i] = rec
	}
	return out
}
