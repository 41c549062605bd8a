// Package orchestrator provides end-to-end backtest orchestration.
// It coordinates: dataset load → strategy passes → persistence → reporting
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/iminoaru/zaphft/internal/archive"
	"github.com/iminoaru/zaphft/internal/backtest"
	"github.com/iminoaru/zaphft/internal/domain"
	"github.com/iminoaru/zaphft/internal/observability"
	"github.com/iminoaru/zaphft/internal/replay"
	"github.com/iminoaru/zaphft/internal/reporting"
	"github.com/iminoaru/zaphft/internal/storage"
	"github.com/iminoaru/zaphft/internal/strategy"
)

// ErrNoStrategies is returned when no strategy is configured.
var ErrNoStrategies = errors.New("no strategies configured")

// Orchestrator coordinates the end-to-end backtest execution.
// Flow: load snapshots → one sequential pass per strategy → persist + archive → report
type Orchestrator struct {
	// Stores
	snapshotStore storage.SnapshotStore
	runStore      storage.RunStore
	tradeStore    storage.TradeStore

	// Outputs
	uploader *archive.Uploader
	metrics  *observability.Metrics

	strategies []strategy.Config
	policy     backtest.Policy

	curveInterval   int
	startingCapital float64
	recentTrades    int

	logger   *slog.Logger
	now      func() time.Time
	newRunID func() string
}

// Options for creating Orchestrator.
type Options struct {
	// SnapshotStore is required by RunDataset only.
	SnapshotStore storage.SnapshotStore
	// RunStore and TradeStore persist finished runs; both nil disables persistence.
	RunStore   storage.RunStore
	TradeStore storage.TradeStore

	Uploader *archive.Uploader      // optional artifact archive
	Metrics  *observability.Metrics // optional

	Strategies []strategy.Config
	Policy     backtest.Policy

	CurveInterval   int     // <= 0 means backtest.DefaultCurveInterval
	StartingCapital float64 // <= 0 means reporting.DefaultStartingCapital
	RecentTrades    int     // 0 means none listed in the report

	Logger   *slog.Logger
	Clock    func() time.Time // nil means time.Now
	NewRunID func() string    // nil means random UUIDs
}

// New creates a new Orchestrator.
func New(opts Options) *Orchestrator {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := opts.Clock
	if now == nil {
		now = time.Now
	}
	newRunID := opts.NewRunID
	if newRunID == nil {
		newRunID = func() string { return uuid.Must(uuid.NewRandom()).String() }
	}
	policy := opts.Policy
	if policy == "" {
		policy = backtest.PolicySkip
	}

	return &Orchestrator{
		snapshotStore:   opts.SnapshotStore,
		runStore:        opts.RunStore,
		tradeStore:      opts.TradeStore,
		uploader:        opts.Uploader,
		metrics:         opts.Metrics,
		strategies:      opts.Strategies,
		policy:          policy,
		curveInterval:   opts.CurveInterval,
		startingCapital: opts.StartingCapital,
		recentTrades:    opts.RecentTrades,
		logger:          logger.With(slog.String("component", "orchestrator")),
		now:             now,
		newRunID:        newRunID,
	}
}

// Pass is one finished strategy pass.
type Pass struct {
	Config    strategy.Config // resolved
	Results   *backtest.Results
	StartedAt time.Time
}

// RunResult contains results from orchestrator execution.
type RunResult struct {
	DatasetID    string
	Snapshots    int
	Passes       []Pass
	Report       *reporting.Report
	ArchivedKeys []string
}

// RunDataset loads a stored dataset and runs every configured strategy over it.
func (o *Orchestrator) RunDataset(ctx context.Context, datasetID string) (*RunResult, error) {
	if o.snapshotStore == nil {
		return nil, fmt.Errorf("run dataset %s: no snapshot store", datasetID)
	}

	o.logger.Info("loading dataset", slog.String("dataset_id", datasetID))
	snaps, err := o.snapshotStore.GetByDataset(ctx, datasetID)
	if err != nil {
		return nil, fmt.Errorf("load dataset %s: %w", datasetID, err)
	}
	replay.SortSnapshots(snaps)

	return o.RunSnapshots(ctx, datasetID, snaps)
}

// RunSnapshots executes the full pipeline over snaps, which must already be
// in replay order. Phases:
//  1. One sequential pass per strategy, each with its own ledger
//  2. Report over all passes
//  3. Persist runs and trade logs, archive artifacts
func (o *Orchestrator) RunSnapshots(ctx context.Context, datasetID string, snaps []*domain.Snapshot) (*RunResult, error) {
	if len(o.strategies) == 0 {
		return nil, ErrNoStrategies
	}

	result := &RunResult{DatasetID: datasetID, Snapshots: len(snaps)}

	// Phase 1: strategy passes
	o.logger.Info("running strategies",
		slog.String("dataset_id", datasetID),
		slog.Int("snapshots", len(snaps)),
		slog.Int("strategies", len(o.strategies)),
	)
	for _, cfg := range o.strategies {
		pass, err := o.runPass(ctx, snaps, cfg)
		if err != nil {
			return nil, err
		}
		result.Passes = append(result.Passes, pass)
	}

	// Phase 2: report
	report, err := o.buildReport(datasetID, snaps, result.Passes)
	if err != nil {
		return nil, err
	}
	result.Report = report
	o.metrics.RecordReport()

	// Phase 3: persistence and archive
	keys, err := o.publish(ctx, datasetID, result)
	if err != nil {
		return nil, err
	}
	result.ArchivedKeys = keys

	o.logger.Info("pipeline completed",
		slog.String("dataset_id", datasetID),
		slog.Int("runs", len(result.Passes)),
		slog.Int("archived", len(keys)),
	)
	return result, nil
}

func (o *Orchestrator) runPass(ctx context.Context, snaps []*domain.Snapshot, cfg strategy.Config) (Pass, error) {
	cfg = cfg.Resolved()
	s, err := strategy.FromConfig(cfg)
	if err != nil {
		return Pass{}, fmt.Errorf("build strategy %s: %w", cfg.Type, err)
	}

	runID := o.newRunID()
	started := o.now()

	res, err := backtest.RunSnapshots(ctx, snaps, s, backtest.Options{
		RunID:         runID,
		Policy:        o.policy,
		CurveInterval: o.curveInterval,
		Logger:        o.logger,
	})
	o.metrics.RecordRun(outcome(s.Name(), res, err))
	if err != nil {
		return Pass{}, fmt.Errorf("run %s (%s): %w", runID, s.Name(), err)
	}

	o.logger.Info("strategy pass finished",
		slog.String("run_id", runID),
		slog.String("strategy", res.StrategyName),
		slog.Int("processed", res.SnapshotsProcessed),
		slog.Int("skipped", res.SnapshotsSkipped),
		slog.Int("trades", res.TradeCount),
		slog.Float64("total_pnl", res.TotalPnL()),
		slog.Duration("duration", res.Duration),
	)
	return Pass{Config: cfg, Results: res, StartedAt: started}, nil
}

func (o *Orchestrator) buildReport(datasetID string, snaps []*domain.Snapshot, passes []Pass) (*reporting.Report, error) {
	runs := make([]reporting.Run, 0, len(passes))
	for _, p := range passes {
		params, err := p.Config.Params()
		if err != nil {
			return nil, fmt.Errorf("report run %s: %w", p.Results.RunID, err)
		}
		runs = append(runs, reporting.Run{
			Results:        p.Results,
			StrategyType:   string(p.Config.Type),
			StrategyParams: params,
			Policy:         string(o.policy),
		})
	}

	gen := reporting.NewGenerator(nil, nil, nil).
		WithClock(func() time.Time { return o.now().UTC() }).
		WithCapital(o.startingCapital, o.recentTrades)
	return gen.FromRuns(datasetID, snaps, runs), nil
}

// publish persists every run (run row first, then its trades) and uploads the
// report artifacts concurrently. Returns the archived object keys.
func (o *Orchestrator) publish(ctx context.Context, datasetID string, result *RunResult) ([]string, error) {
	g, gctx := errgroup.WithContext(ctx)

	if o.runStore != nil && o.tradeStore != nil {
		for _, p := range result.Passes {
			p := p
			g.Go(func() error {
				return o.persist(gctx, datasetID, p)
			})
		}
	}

	var keys []string
	if o.uploader != nil {
		g.Go(func() error {
			var err error
			keys, err = o.archive(gctx, result.Report)
			return err
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return keys, nil
}

func (o *Orchestrator) persist(ctx context.Context, datasetID string, p Pass) error {
	rec, err := p.Results.RunRecord(datasetID, p.Config, o.policy, p.StartedAt)
	if err != nil {
		return fmt.Errorf("build run record %s: %w", p.Results.RunID, err)
	}
	if err := o.runStore.Insert(ctx, rec); err != nil {
		return fmt.Errorf("insert run %s: %w", rec.RunID, err)
	}

	trades := p.Results.TradeRecords()
	if len(trades) > 0 {
		if err := o.tradeStore.InsertBulk(ctx, trades); err != nil {
			return fmt.Errorf("insert trades of run %s: %w", rec.RunID, err)
		}
	}

	o.logger.Debug("run persisted",
		slog.String("run_id", rec.RunID),
		slog.Int("trades", len(trades)),
	)
	return nil
}

func (o *Orchestrator) archive(ctx context.Context, report *reporting.Report) ([]string, error) {
	markdown := []byte(reporting.RenderMarkdown(report))
	summary := []byte(reporting.RenderSummaryCSV(report.Runs))

	var keys []string
	for i := range report.Runs {
		run := &report.Runs[i]
		export, err := reporting.RenderJSON(reporting.BuildExport(report, run))
		if err != nil {
			return keys, fmt.Errorf("render export of run %s: %w", run.RunID, err)
		}

		written, err := o.uploader.UploadRun(ctx, run.RunID, []archive.Artifact{
			{Name: "report.md", ContentType: "text/markdown", Data: markdown},
			{Name: "summary.csv", ContentType: "text/csv", Data: summary},
			{Name: "trades.csv", ContentType: "text/csv", Data: []byte(reporting.RenderTradesCSV(run.Trades))},
			{Name: "export.json", ContentType: "application/json", Data: export},
		})
		keys = append(keys, written...)
		if err != nil {
			return keys, fmt.Errorf("archive run %s: %w", run.RunID, err)
		}
	}
	return keys, nil
}

func outcome(name string, res *backtest.Results, err error) observability.RunOutcome {
	o := observability.RunOutcome{Strategy: name, Err: err}
	if res == nil {
		return o
	}

	o.Duration = res.Duration
	o.Processed = res.SnapshotsProcessed
	o.Skipped = res.SnapshotsSkipped
	o.Realized = res.RealizedPnL
	o.Position = res.Quantity
	for _, t := range res.Trades {
		if t.Side == domain.SideBid {
			o.Buys++
		} else {
			o.Sells++
		}
	}
	return o
}
