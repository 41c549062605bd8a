package reporting

import (
	"context"
	"fmt"
	"time"

	"github.com/iminoaru/zaphft/internal/backtest"
	"github.com/iminoaru/zaphft/internal/domain"
	"github.com/iminoaru/zaphft/internal/metrics"
	"github.com/iminoaru/zaphft/internal/storage"
)

// Generator produces reports from live results or stored runs.
type Generator struct {
	runStore        storage.RunStore
	tradeStore      storage.TradeStore
	snapshotStore   storage.SnapshotStore // optional, for dataset statistics
	startingCapital float64
	recentTrades    int
	now             func() time.Time // Injectable clock for deterministic output
}

// NewGenerator creates a new report generator. The stores are only needed
// by Generate and GenerateRun; FromRuns works with all of them nil.
func NewGenerator(runStore storage.RunStore, tradeStore storage.TradeStore, snapshotStore storage.SnapshotStore) *Generator {
	return &Generator{
		runStore:        runStore,
		tradeStore:      tradeStore,
		snapshotStore:   snapshotStore,
		startingCapital: DefaultStartingCapital,
		recentTrades:    DefaultRecentTrades,
		now:             func() time.Time { return time.Now().UTC() },
	}
}

// WithClock sets a custom clock function for deterministic output.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	g.now = now
	return g
}

// WithCapital sets the starting capital and the number of recent trades listed per run.
func (g *Generator) WithCapital(startingCapital float64, recentTrades int) *Generator {
	if startingCapital > 0 {
		g.startingCapital = startingCapital
	}
	g.recentTrades = recentTrades
	return g
}

func (g *Generator) sectionOptions() SectionOptions {
	n := g.recentTrades
	if n == 0 {
		n = -1
	}
	return SectionOptions{StartingCapital: g.startingCapital, RecentTrades: n}
}

// Run carries one finished pass together with the attributes stored alongside it.
type Run struct {
	Results        *backtest.Results
	StrategyType   string
	StrategyParams string
	Policy         string
}

// FromRuns builds a report from finished passes over snaps.
func (g *Generator) FromRuns(datasetID string, snaps []*domain.Snapshot, runs []Run) *Report {
	r := g.newReport(datasetID)
	if len(snaps) > 0 {
		stats := metrics.ComputeSnapshotStats(snaps)
		r.Dataset = &stats
	}

	for _, run := range runs {
		opts := g.sectionOptions()
		opts.StrategyType = run.StrategyType
		opts.StrategyParams = run.StrategyParams
		opts.Policy = run.Policy
		r.Runs = append(r.Runs, SectionFromResults(run.Results, opts))
	}
	ApplySpeedups(r.Runs)
	return r
}

// Generate builds a report from the stored runs of datasetID, or of every
// dataset when datasetID is empty.
func (g *Generator) Generate(ctx context.Context, datasetID string) (*Report, error) {
	var (
		runs []*domain.RunRecord
		err  error
	)
	if datasetID == "" {
		runs, err = g.runStore.GetAll(ctx)
	} else {
		runs, err = g.runStore.GetByDataset(ctx, datasetID)
	}
	if err != nil {
		return nil, fmt.Errorf("load runs: %w", err)
	}

	return g.generate(ctx, datasetID, runs)
}

// GenerateRun builds a single-run report from storage.
func (g *Generator) GenerateRun(ctx context.Context, runID string) (*Report, error) {
	run, err := g.runStore.GetByID(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("load run %s: %w", runID, err)
	}
	return g.generate(ctx, run.DatasetID, []*domain.RunRecord{run})
}

func (g *Generator) generate(ctx context.Context, datasetID string, runs []*domain.RunRecord) (*Report, error) {
	r := g.newReport(datasetID)

	if g.snapshotStore != nil && datasetID != "" {
		snaps, err := g.snapshotStore.GetByDataset(ctx, datasetID)
		if err != nil {
			return nil, fmt.Errorf("load snapshots: %w", err)
		}
		if len(snaps) > 0 {
			stats := metrics.ComputeSnapshotStats(snaps)
			r.Dataset = &stats
		}
	}

	for _, run := range runs {
		trades, err := g.tradeStore.GetByRunID(ctx, run.RunID)
		if err != nil {
			return nil, fmt.Errorf("load trades of run %s: %w", run.RunID, err)
		}
		r.Runs = append(r.Runs, SectionFromRecords(run, trades, g.sectionOptions()))
	}
	ApplySpeedups(r.Runs)

	return r, nil
}

func (g *Generator) newReport(datasetID string) *Report {
	return &Report{
		GeneratedAt:     g.now(),
		DatasetID:       datasetID,
		StartingCapital: g.startingCapital,
	}
}
