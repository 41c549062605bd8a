package backtest

import (
	"context"
	"time"

	"github.com/iminoaru/zaphft/internal/domain"
	"github.com/iminoaru/zaphft/internal/replay"
	"github.com/iminoaru/zaphft/internal/strategy"
)

// Runner executes backtests over stored datasets.
type Runner struct {
	replayRunner *replay.Runner
	opts         Options
}

// NewRunner creates a new backtest runner. opts.RunID is ignored; each call
// takes its own run ID.
func NewRunner(replayRunner *replay.Runner, opts Options) *Runner {
	return &Runner{
		replayRunner: replayRunner,
		opts:         opts,
	}
}

// Run executes a backtest over a dataset's snapshots within [from, to] microseconds.
func (r *Runner) Run(ctx context.Context, runID, datasetID string, from, to int64, s strategy.Strategy) (*Results, error) {
	engine := NewEngine(s, r.withRunID(runID))

	start := time.Now()
	if err := r.replayRunner.Run(ctx, datasetID, from, to, engine); err != nil {
		return nil, err
	}

	res := engine.Results()
	res.Duration = time.Since(start)
	return res, nil
}

// RunAll executes a backtest over all snapshots of a dataset.
func (r *Runner) RunAll(ctx context.Context, runID, datasetID string, s strategy.Strategy) (*Results, error) {
	engine := NewEngine(s, r.withRunID(runID))

	start := time.Now()
	if err := r.replayRunner.RunAll(ctx, datasetID, engine); err != nil {
		return nil, err
	}

	res := engine.Results()
	res.Duration = time.Since(start)
	return res, nil
}

func (r *Runner) withRunID(runID string) Options {
	opts := r.opts
	opts.RunID = runID
	return opts
}

// RunSnapshots executes a backtest over an in-memory snapshot slice in slice order.
func RunSnapshots(ctx context.Context, snaps []*domain.Snapshot, s strategy.Strategy, opts Options) (*Results, error) {
	engine := NewEngine(s, opts)

	start := time.Now()
	if err := replay.Replay(ctx, snaps, engine); err != nil {
		return nil, err
	}

	res := engine.Results()
	res.Duration = time.Since(start)
	return res, nil
}
