package reporting

import (
	"context"
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/iminoaru/zaphft/internal/backtest"
	"github.com/iminoaru/zaphft/internal/domain"
	"github.com/iminoaru/zaphft/internal/idhash"
	"github.com/iminoaru/zaphft/internal/strategy"
	"github.com/iminoaru/zaphft/internal/storage/memory"
)

var fixedClock = func() time.Time { return time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC) }

// roundTripResults is a flat-ending run: one winning and one losing round trip.
func roundTripResults() *backtest.Results {
	trades := []domain.Trade{
		domain.NewTrade(domain.SideBid, 100, 1, 1000),
		domain.NewTrade(domain.SideAsk, 102, 1, 2000),
		domain.NewTrade(domain.SideAsk, 101, 1, 3000),
		domain.NewTrade(domain.SideBid, 103, 1, 4000),
	}
	return &backtest.Results{
		RunID:        "run-1",
		StrategyName: "Market Maker",
		Stats: strategy.Stats{
			Name:             "Market Maker",
			UpdatesProcessed: 10,
			TradesGenerated:  4,
			QuotesPlaced:     5,
		},
		TradeCount:    4,
		TotalBought:   2,
		TotalSold:     2,
		Trades:        trades,
		Impacts:       []float64{0, 2, 0, -2},
		PositionAfter: []float64{1, 0, -1, 0},
		Curves: backtest.Curves{
			PnL: []domain.CurvePoint{
				{Index: 0, TimestampUs: 1000, Value: 0},
				{Index: 1, TimestampUs: 2000, Value: 2},
				{Index: 2, TimestampUs: 4000, Value: 0},
			},
		},
		SnapshotsProcessed: 10,
		SnapshotsSkipped:   1,
		FirstMid:           100.5,
		LastMid:            102.5,
		Duration:           20 * time.Millisecond,
	}
}

func TestSectionFromResults(t *testing.T) {
	s := SectionFromResults(roundTripResults(), SectionOptions{
		StrategyType: "market_maker",
		Policy:       "skip",
		RecentTrades: 2,
	})

	if s.Performance.TotalTrades != 4 {
		t.Errorf("expected 4 trades, got %d", s.Performance.TotalTrades)
	}
	if s.Performance.WinningTrades != 1 || s.Performance.LosingTrades != 1 {
		t.Errorf("expected 1 win / 1 loss, got %d / %d", s.Performance.WinningTrades, s.Performance.LosingTrades)
	}
	if s.Risk.MaxDrawdown != 2 {
		t.Errorf("expected max drawdown 2 from the sampled curve, got %v", s.Risk.MaxDrawdown)
	}
	if s.Timing.SnapshotsProcessed != 10 {
		t.Errorf("expected 10 snapshots, got %d", s.Timing.SnapshotsProcessed)
	}

	if s.BestTrade == nil || s.BestTrade.Seq != 1 {
		t.Errorf("expected best trade #1, got %+v", s.BestTrade)
	}
	if s.WorstTrade == nil || s.WorstTrade.Seq != 3 {
		t.Errorf("expected worst trade #3, got %+v", s.WorstTrade)
	}

	if len(s.RecentTrades) != 2 || s.RecentTrades[0].Seq != 2 || s.RecentTrades[1].Seq != 3 {
		t.Errorf("expected the last two trades, got %+v", s.RecentTrades)
	}

	first := s.Trades[0]
	if first.Side != "buy" || s.Trades[1].Side != "sell" {
		t.Errorf("expected buy/sell labels, got %s/%s", first.Side, s.Trades[1].Side)
	}
	if want := idhash.ComputeTradeID("run-1", 0, domain.SideBid, 1000); first.ID != want {
		t.Errorf("expected trade id %s, got %s", want, first.ID)
	}
	if s.Trades[2].Position != -1 {
		t.Errorf("expected position -1 after trade #2, got %v", s.Trades[2].Position)
	}

	if s.StartingCapital != DefaultStartingCapital || s.FinalCapital != DefaultStartingCapital || s.ReturnPct != 0 {
		t.Errorf("flat run should keep capital, got %v -> %v (%v%%)", s.StartingCapital, s.FinalCapital, s.ReturnPct)
	}
	if s.Curves == nil || len(s.Curves.PnL) != 3 {
		t.Errorf("expected curves to be carried over")
	}
}

func TestSectionFromResults_Capital(t *testing.T) {
	res := roundTripResults()
	res.RealizedPnL = 25
	res.UnrealizedPnL = -5

	s := SectionFromResults(res, SectionOptions{StartingCapital: 1000})

	if math.Abs(s.FinalCapital-1020) > 1e-9 {
		t.Errorf("expected final capital 1020, got %v", s.FinalCapital)
	}
	if math.Abs(s.ReturnPct-2) > 1e-9 {
		t.Errorf("expected return 2%%, got %v", s.ReturnPct)
	}
	if len(s.RecentTrades) != 4 {
		t.Errorf("default recent-trade window should cover all 4 trades, got %d", len(s.RecentTrades))
	}
}

func TestSectionFromResults_NoTrades(t *testing.T) {
	res := &backtest.Results{RunID: "run-0", StrategyName: "Momentum Strategy", SnapshotsProcessed: 5}

	s := SectionFromResults(res, SectionOptions{})
	if s.BestTrade != nil || s.WorstTrade != nil {
		t.Error("expected no best/worst trade")
	}
	if len(s.RecentTrades) != 0 {
		t.Errorf("expected no recent trades, got %d", len(s.RecentTrades))
	}
	if s.Risk.ProfitFactor != 0 {
		t.Errorf("expected profit factor 0, got %v", s.Risk.ProfitFactor)
	}
}

func storedRun() (*domain.RunRecord, []*domain.TradeRecord) {
	run := &domain.RunRecord{
		RunID:              "run-9",
		DatasetID:          "ds-1",
		StrategyName:       "Momentum Strategy",
		StrategyType:       "momentum",
		StrategyParams:     `{"lookback":100}`,
		SnapshotPolicy:     "abort",
		StartedAtMs:        1000,
		DurationNs:         int64(5 * time.Millisecond),
		SnapshotsProcessed: 50,
		UpdatesProcessed:   50,
		TradesGenerated:    2,
		QuotesPlaced:       2,
		RealizedPnL:        3,
		FinalMidPrice:      104,
		TradeCount:         2,
		TotalBought:        1,
		TotalSold:          1,
	}
	trades := []*domain.TradeRecord{
		{TradeID: "a", RunID: "run-9", Seq: 0, Side: domain.SideBid, Price: 100, Quantity: 1, TimestampUs: 10, PositionAfter: 1},
		{TradeID: "b", RunID: "run-9", Seq: 1, Side: domain.SideAsk, Price: 103, Quantity: 1, TimestampUs: 20, RealizedPnL: 3},
	}
	return run, trades
}

func TestSectionFromRecords(t *testing.T) {
	run, trades := storedRun()

	s := SectionFromRecords(run, trades, SectionOptions{})

	if s.StrategyType != "momentum" || s.Policy != "abort" || s.StrategyParams != `{"lookback":100}` {
		t.Errorf("expected stored attributes, got %q %q %q", s.StrategyType, s.Policy, s.StrategyParams)
	}
	if s.Performance.TotalPnL != 3 || s.Performance.WinningTrades != 1 {
		t.Errorf("unexpected performance: %+v", s.Performance)
	}
	if s.Timing.TotalDuration != 5*time.Millisecond {
		t.Errorf("expected 5ms duration, got %v", s.Timing.TotalDuration)
	}
	if !math.IsInf(s.Risk.ProfitFactor, 1) {
		t.Errorf("expected infinite profit factor, got %v", s.Risk.ProfitFactor)
	}
	if s.Trades[1].ID != "b" || s.Trades[1].Side != "sell" {
		t.Errorf("expected stored trade ids and labels, got %+v", s.Trades[1])
	}
	if s.Curves != nil {
		t.Error("stored runs carry no curves")
	}
}

func TestGenerator_Generate(t *testing.T) {
	ctx := context.Background()
	runs := memory.NewRunStore()
	trades := memory.NewTradeStore()
	snaps := memory.NewSnapshotStore()

	run, log := storedRun()
	if err := runs.Insert(ctx, run); err != nil {
		t.Fatalf("Insert run failed: %v", err)
	}
	if err := trades.InsertBulk(ctx, log); err != nil {
		t.Fatalf("Insert trades failed: %v", err)
	}

	s := &domain.Snapshot{RowIndex: 0, TimestampUs: 10}
	s.Bids[0] = domain.PriceLevel{Price: 100, Quantity: 1}
	s.Asks[0] = domain.PriceLevel{Price: 101, Quantity: 1}
	if err := snaps.InsertBulk(ctx, "ds-1", []*domain.Snapshot{s}); err != nil {
		t.Fatalf("Insert snapshots failed: %v", err)
	}

	gen := NewGenerator(runs, trades, snaps).WithClock(fixedClock)
	report, err := gen.Generate(ctx, "ds-1")
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	if !report.GeneratedAt.Equal(fixedClock()) {
		t.Errorf("expected injected clock, got %v", report.GeneratedAt)
	}
	if report.Dataset == nil || report.Dataset.Count != 1 {
		t.Fatalf("expected dataset stats for 1 snapshot, got %+v", report.Dataset)
	}
	if len(report.Runs) != 1 || report.Runs[0].RunID != "run-9" {
		t.Fatalf("expected run-9, got %+v", report.Runs)
	}
	if report.Runs[0].Speedup != 1 {
		t.Errorf("single run should have relative duration 1, got %v", report.Runs[0].Speedup)
	}

	// Unknown dataset yields an empty report
	empty, err := gen.Generate(ctx, "ds-unknown")
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if len(empty.Runs) != 0 || empty.Dataset != nil {
		t.Errorf("expected empty report, got %+v", empty)
	}

	single, err := gen.GenerateRun(ctx, "run-9")
	if err != nil {
		t.Fatalf("GenerateRun failed: %v", err)
	}
	if single.DatasetID != "ds-1" || len(single.Runs) != 1 {
		t.Errorf("unexpected single-run report: %+v", single)
	}

	if _, err := gen.GenerateRun(ctx, "missing"); err == nil {
		t.Error("expected error for unknown run")
	}
}

func TestGenerator_FromRuns(t *testing.T) {
	slow := roundTripResults()
	fast := roundTripResults()
	fast.RunID = "run-2"
	fast.Duration = 10 * time.Millisecond

	gen := NewGenerator(nil, nil, nil).WithClock(fixedClock)
	report := gen.FromRuns("ds-1", nil, []Run{
		{Results: slow, StrategyType: "market_maker"},
		{Results: fast, StrategyType: "market_maker"},
	})

	if len(report.Runs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(report.Runs))
	}
	if report.Runs[0].Speedup != 1 || report.Runs[1].Speedup != 0.5 {
		t.Errorf("expected relative durations 1 and 0.5, got %v and %v", report.Runs[0].Speedup, report.Runs[1].Speedup)
	}
	if report.Dataset != nil {
		t.Error("expected no dataset stats without snapshots")
	}
}

func TestRenderMarkdown(t *testing.T) {
	gen := NewGenerator(nil, nil, nil).WithClock(fixedClock)
	report := gen.FromRuns("ds-1", nil, []Run{{Results: roundTripResults(), Policy: "skip"}})

	md := RenderMarkdown(report)

	for _, want := range []string{
		"# Backtest Report",
		"Generated: 2024-01-02T03:04:05Z",
		"Dataset: `ds-1` | Runs: 1",
		"No dataset statistics available.",
		"## Strategy Comparison",
		"## Market Maker",
		"Invalid snapshots: skip (1 skipped)",
		"| Trades (W/L) | 4 (1/1) |",
		"| Win Rate | 25.00% |",
		"Best: #1 sell",
		"Worst: #3 buy",
		"| Max Consecutive Losses | 1 |",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("markdown missing %q", want)
		}
	}
}

func TestRenderMarkdown_Empty(t *testing.T) {
	md := RenderMarkdown(&Report{GeneratedAt: fixedClock()})
	if !strings.Contains(md, "No runs available.") {
		t.Error("expected empty-runs placeholder")
	}
}

func TestRenderTradesCSV(t *testing.T) {
	rows := []TradeRow{
		{ID: "abc", Seq: 0, TimestampUs: 1000, Side: "buy", Price: 100.5, Size: 0.1, PnL: 0, Position: 0.1},
	}
	csv := RenderTradesCSV(rows)

	lines := strings.Split(strings.TrimSpace(csv), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected header + 1 row, got %d lines", len(lines))
	}
	if lines[0] != "trade_id,seq,timestamp_us,side,price,size,pnl,position" {
		t.Errorf("unexpected header: %s", lines[0])
	}
	if lines[1] != "abc,0,1000,buy,100.50000000,0.10000000,0.00000000,0.10000000" {
		t.Errorf("unexpected row: %s", lines[1])
	}
}

func TestRenderSummaryCSV(t *testing.T) {
	section := SectionFromResults(roundTripResults(), SectionOptions{})
	section.StrategyName = `Maker, "v2"`

	csv := RenderSummaryCSV([]RunSection{section})
	lines := strings.Split(strings.TrimSpace(csv), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected header + 1 row, got %d lines", len(lines))
	}
	if !strings.HasPrefix(lines[1], `run-1,"Maker, ""v2""",`) {
		t.Errorf("expected quoted strategy name, got %s", lines[1])
	}
}

func TestBuildExport(t *testing.T) {
	gen := NewGenerator(nil, nil, nil).WithClock(fixedClock)
	report := gen.FromRuns("ds-1", nil, []Run{{
		Results:        roundTripResults(),
		StrategyType:   "market_maker",
		StrategyParams: `{"quote_size":0.1}`,
	}})

	doc := BuildExport(report, &report.Runs[0])

	if doc.Metadata.DatasetSize != 11 {
		t.Errorf("expected dataset size 11 (10 processed + 1 skipped), got %d", doc.Metadata.DatasetSize)
	}
	if doc.Metadata.StartingCapital.String() != "10000" {
		t.Errorf("expected starting capital 10000, got %s", doc.Metadata.StartingCapital)
	}
	if doc.Risk.ProfitFactor == nil || doc.Risk.ProfitFactor.String() != "1" {
		t.Errorf("expected profit factor 1, got %v", doc.Risk.ProfitFactor)
	}
	if len(doc.Timeseries.PnL) != 3 {
		t.Errorf("expected 3 pnl points, got %d", len(doc.Timeseries.PnL))
	}
	if doc.Trades.Best == nil || doc.Trades.Best.PnL.String() != "2" {
		t.Errorf("expected best trade pnl 2, got %+v", doc.Trades.Best)
	}

	data, err := RenderJSON(doc)
	if err != nil {
		t.Fatalf("RenderJSON failed: %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	meta := decoded["metadata"].(map[string]any)
	if meta["strategy"] != "Market Maker" {
		t.Errorf("expected strategy name in metadata, got %v", meta["strategy"])
	}
	params := meta["parameters"].(map[string]any)
	if params["quote_size"] != 0.1 {
		t.Errorf("expected embedded parameters, got %v", params)
	}
}

func TestBuildExport_InfiniteProfitFactor(t *testing.T) {
	run, trades := storedRun()
	report := &Report{GeneratedAt: fixedClock(), DatasetID: "ds-1"}
	report.Runs = []RunSection{SectionFromRecords(run, trades, SectionOptions{})}

	doc := BuildExport(report, &report.Runs[0])
	if !doc.Risk.ProfitFactorInfinite || doc.Risk.ProfitFactor != nil {
		t.Errorf("expected infinite profit factor flag, got %+v", doc.Risk)
	}

	if _, err := RenderJSON(doc); err != nil {
		t.Fatalf("RenderJSON failed: %v", err)
	}
}

func TestWriteDir(t *testing.T) {
	gen := NewGenerator(nil, nil, nil).WithClock(fixedClock)
	report := gen.FromRuns("ds-1", nil, []Run{{Results: roundTripResults()}})

	dir := filepath.Join(t.TempDir(), "out")
	paths, err := WriteDir(dir, report)
	if err != nil {
		t.Fatalf("WriteDir failed: %v", err)
	}

	want := []string{"export_run-1.json", "report.md", "summary.csv", "trades_run-1.csv"}
	if len(paths) != len(want) {
		t.Fatalf("expected %d files, got %v", len(want), paths)
	}
	for i, name := range want {
		if filepath.Base(paths[i]) != name {
			t.Errorf("file %d: expected %s, got %s", i, name, paths[i])
		}
	}

	data, err := os.ReadFile(filepath.Join(dir, "trades_run-1.csv"))
	if err != nil {
		t.Fatalf("read trades: %v", err)
	}
	if got := strings.Count(string(data), "\n"); got != 5 {
		t.Errorf("expected header + 4 trade lines, got %d", got)
	}
}
