package backtest

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iminoaru/zaphft/internal/domain"
	"github.com/iminoaru/zaphft/internal/replay"
	"github.com/iminoaru/zaphft/internal/storage/memory"
	"github.com/iminoaru/zaphft/internal/strategy"
)

// snapAt builds a valid snapshot with the given top of book.
func snapAt(row, ts int64, bestBid, bestAsk float64) *domain.Snapshot {
	s := &domain.Snapshot{RowIndex: row, TimestampUs: ts}
	for i := 0; i < domain.BookDepth; i++ {
		s.Bids[i] = domain.PriceLevel{Price: bestBid - float64(i), Quantity: 1}
		s.Asks[i] = domain.PriceLevel{Price: bestAsk + float64(i), Quantity: 1}
	}
	return s
}

func crossed(row, ts int64) *domain.Snapshot {
	return snapAt(row, ts, 101, 100)
}

func TestRunner_CallsStrategyInOrder(t *testing.T) {
	store := memory.NewSnapshotStore()
	ctx := context.Background()

	// Insert unordered snapshots
	err := store.InsertBulk(ctx, "ds1", []*domain.Snapshot{
		snapAt(2, 3000, 100, 101),
		snapAt(0, 1000, 100, 101),
		snapAt(1, 2000, 100, 101),
	})
	require.NoError(t, err)

	runner := NewRunner(replay.NewRunner(store), Options{})
	s := newStubStrategy(nil)

	res, err := runner.RunAll(ctx, "run-1", "ds1", s)
	require.NoError(t, err)

	assert.Equal(t, []int64{0, 1, 2}, s.rows)
	assert.Equal(t, 3, res.SnapshotsProcessed)
	assert.Equal(t, "stub", res.StrategyName)
	assert.Equal(t, "run-1", res.RunID)
	assert.Equal(t, int64(1000), res.FirstTimestampUs)
	assert.Equal(t, int64(3000), res.LastTimestampUs)
}

func TestRunner_TimeWindow(t *testing.T) {
	store := memory.NewSnapshotStore()
	ctx := context.Background()
	_ = store.InsertBulk(ctx, "ds1", []*domain.Snapshot{
		snapAt(0, 1000, 100, 101),
		snapAt(1, 2000, 100, 101),
		snapAt(2, 3000, 100, 101),
	})

	runner := NewRunner(replay.NewRunner(store), Options{})
	res, err := runner.Run(ctx, "run-1", "ds1", 1500, 3000, newStubStrategy(nil))
	require.NoError(t, err)
	assert.Equal(t, 2, res.SnapshotsProcessed)

	_, err = runner.Run(ctx, "run-2", "ds1", 5000, 6000, newStubStrategy(nil))
	assert.ErrorIs(t, err, replay.ErrEmptyDataset)
}

func TestEngine_AppliesTradesToLedger(t *testing.T) {
	snaps := []*domain.Snapshot{
		snapAt(0, 1, 100, 101),
		snapAt(1, 2, 105, 106),
		snapAt(2, 3, 110, 111),
	}
	s := newStubStrategy(map[int64][]domain.Trade{
		0: {domain.NewTrade(domain.SideBid, 101, 1, 1)},
		1: {domain.NewTrade(domain.SideAsk, 105, 0.5, 2)},
	})

	res, err := RunSnapshots(context.Background(), snaps, s, Options{})
	require.NoError(t, err)

	// Position seen by the strategy is as of before its own trades.
	assert.Equal(t, []float64{0, 1, 0.5}, s.positions)

	assert.Equal(t, 0.5, res.Quantity)
	assert.Equal(t, 101.0, res.AvgEntryPrice)
	assert.InDelta(t, 2.0, res.RealizedPnL, 1e-9)
	// Marked at the last mid (110.5)
	assert.InDelta(t, 0.5*(110.5-101), res.UnrealizedPnL, 1e-9)
	assert.Equal(t, 2, res.TradeCount)
	assert.Len(t, res.Trades, 2)
	assert.Equal(t, []float64{0, 2}, res.Impacts)
	assert.Equal(t, 100.5, res.FirstMid)
	assert.Equal(t, 110.5, res.LastMid)
	assert.InDelta(t, 1.5, res.Volume(), 1e-12)
}

func TestEngine_SkipPolicy(t *testing.T) {
	snaps := []*domain.Snapshot{
		snapAt(0, 1, 100, 101),
		crossed(1, 2),
		snapAt(2, 1, 100, 101), // same timestamp as row 0
		snapAt(3, 4, 100, 101),
	}
	s := newStubStrategy(nil)

	res, err := RunSnapshots(context.Background(), snaps, s, Options{Policy: PolicySkip})
	require.NoError(t, err)

	assert.Equal(t, []int64{0, 2, 3}, s.rows)
	assert.Equal(t, 3, res.SnapshotsProcessed)
	assert.Equal(t, 1, res.SnapshotsSkipped)
}

func TestEngine_SkipsOutOfOrder(t *testing.T) {
	snaps := []*domain.Snapshot{
		snapAt(0, 10, 100, 101),
		snapAt(1, 5, 100, 101),
		snapAt(2, 10, 100, 101),
	}
	s := newStubStrategy(nil)

	res, err := RunSnapshots(context.Background(), snaps, s, Options{})
	require.NoError(t, err)

	assert.Equal(t, []int64{0, 2}, s.rows)
	assert.Equal(t, 1, res.SnapshotsSkipped)
}

func TestEngine_AbortPolicy(t *testing.T) {
	snaps := []*domain.Snapshot{snapAt(0, 1, 100, 101), crossed(1, 2), snapAt(2, 3, 100, 101)}

	_, err := RunSnapshots(context.Background(), snaps, newStubStrategy(nil), Options{Policy: PolicyAbort})
	if !errors.Is(err, ErrInvalidSnapshot) {
		t.Fatalf("expected ErrInvalidSnapshot, got %v", err)
	}

	snaps = []*domain.Snapshot{snapAt(0, 10, 100, 101), snapAt(1, 5, 100, 101)}
	_, err = RunSnapshots(context.Background(), snaps, newStubStrategy(nil), Options{Policy: PolicyAbort})
	if !errors.Is(err, ErrOutOfOrder) {
		t.Fatalf("expected ErrOutOfOrder, got %v", err)
	}
}

func TestEngine_InvalidTradeAbortsRun(t *testing.T) {
	snaps := []*domain.Snapshot{snapAt(0, 1, 100, 101)}
	s := newStubStrategy(map[int64][]domain.Trade{
		0: {domain.NewTrade(domain.SideBid, 0, 1, 1)},
	})

	_, err := RunSnapshots(context.Background(), snaps, s, Options{})
	assert.ErrorIs(t, err, domain.ErrInvalidTrade)
}

func TestEngine_CurveSampling(t *testing.T) {
	var snaps []*domain.Snapshot
	for i := 0; i < 25; i++ {
		snaps = append(snaps, snapAt(int64(i), int64(i), 100+float64(i), 101+float64(i)))
	}
	s := newStubStrategy(map[int64][]domain.Trade{
		0:  {domain.NewTrade(domain.SideBid, 101, 1, 0)},
		12: {domain.NewTrade(domain.SideAsk, 112, 1, 12)},
	})

	res, err := RunSnapshots(context.Background(), snaps, s, Options{CurveInterval: 10})
	require.NoError(t, err)

	require.Len(t, res.Curves.PnL, 3)
	assert.Equal(t, []int{0, 10, 20}, []int{res.Curves.PnL[0].Index, res.Curves.PnL[1].Index, res.Curves.PnL[2].Index})

	// Sample 0: long 1 @ 101 marked at 100.5
	assert.InDelta(t, -0.5, res.Curves.PnL[0].Value, 1e-9)
	assert.Equal(t, 1.0, res.Curves.Position[0].Value)
	// Peak starts at 0, so the first sample already shows drawdown
	assert.InDelta(t, 0.5, res.Curves.Drawdown[0].Value, 1e-9)

	// Sample 10: mid 110.5
	assert.InDelta(t, 9.5, res.Curves.PnL[1].Value, 1e-9)
	assert.Equal(t, 0.0, res.Curves.Drawdown[1].Value)

	// Sample 20: flat after the close at 112, realized 11
	assert.InDelta(t, 11.0, res.Curves.PnL[2].Value, 1e-9)
	assert.Equal(t, 2.0, res.Curves.Volume[2].Value)
}

func TestParsePolicy(t *testing.T) {
	p, err := ParsePolicy("")
	require.NoError(t, err)
	assert.Equal(t, PolicySkip, p)

	p, err = ParsePolicy("abort")
	require.NoError(t, err)
	assert.Equal(t, PolicyAbort, p)

	_, err = ParsePolicy("ignore")
	assert.ErrorIs(t, err, ErrUnknownPolicy)
}

func TestCompare_IndependentPasses(t *testing.T) {
	var snaps []*domain.Snapshot
	for i := 0; i < 300; i++ {
		mid := 100 + float64(i%20)*0.5
		snaps = append(snaps, snapAt(int64(i), int64(i), mid-0.05, mid+0.05))
	}

	cfgs := []strategy.Config{
		{Type: strategy.TypeMarketMaker},
		{Type: strategy.TypeMomentum, Momentum: &strategy.MomentumConfig{
			Threshold: 1, TradeSize: 0.1, MaxPosition: 2, Lookback: 5,
		}},
		{Type: strategy.TypeMarketMaker},
	}

	out, err := Compare(context.Background(), snaps, cfgs, []string{"a", "b", "c"}, Options{})
	require.NoError(t, err)
	require.Len(t, out, 3)

	assert.Equal(t, "Market Maker", out[0].Results.StrategyName)
	assert.Equal(t, "Momentum Strategy", out[1].Results.StrategyName)
	assert.Equal(t, "b", out[1].Results.RunID)

	// Identical configs over the same input produce identical runs.
	assert.Equal(t, out[0].Results.Trades, out[2].Results.Trades)
	assert.Equal(t, out[0].Results.RealizedPnL, out[2].Results.RealizedPnL)
	assert.Equal(t, 300, out[1].Results.Stats.UpdatesProcessed)
	assert.NotNil(t, out[0].Config.MarketMaker)
}

func TestCompare_InvalidConfig(t *testing.T) {
	snaps := []*domain.Snapshot{snapAt(0, 1, 100, 101)}

	_, err := Compare(context.Background(), snaps, []strategy.Config{{Type: "nope"}}, nil, Options{})
	assert.ErrorIs(t, err, strategy.ErrUnknownStrategyType)

	_, err = Compare(context.Background(), snaps, []strategy.Config{{Type: strategy.TypeMomentum}}, []string{}, Options{})
	assert.Error(t, err)
}
