package verification

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/iminoaru/zaphft/internal/backtest"
	"github.com/iminoaru/zaphft/internal/domain"
	"github.com/iminoaru/zaphft/internal/replay"
	"github.com/iminoaru/zaphft/internal/storage"
	"github.com/iminoaru/zaphft/internal/strategy"
)

var (
	// ErrRunNotFound is returned when run ID doesn't exist.
	ErrRunNotFound = errors.New("run not found")

	// ErrDatasetNotFound is returned when a run's dataset has no snapshots.
	ErrDatasetNotFound = errors.New("dataset not found")
)

// ReplayVerifier implements Verifier interface.
type ReplayVerifier struct {
	runStore      storage.RunStore
	tradeStore    storage.TradeStore
	snapshotStore storage.SnapshotStore
	logger        *slog.Logger
}

// ReplayVerifierOptions contains configuration for creating a ReplayVerifier.
type ReplayVerifierOptions struct {
	RunStore      storage.RunStore
	TradeStore    storage.TradeStore
	SnapshotStore storage.SnapshotStore
	Logger        *slog.Logger
}

// NewReplayVerifier creates a new ReplayVerifier.
func NewReplayVerifier(opts ReplayVerifierOptions) *ReplayVerifier {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &ReplayVerifier{
		runStore:      opts.RunStore,
		tradeStore:    opts.TradeStore,
		snapshotStore: opts.SnapshotStore,
		logger:        logger.With(slog.String("component", "verification")),
	}
}

// VerifyRun verifies a single run by replaying its strategy.
func (v *ReplayVerifier) VerifyRun(ctx context.Context, runID string) (*VerificationResult, error) {
	// 1. Load stored run and trade log
	stored, err := v.runStore.GetByID(ctx, runID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return nil, err
	}

	storedTrades, err := v.tradeStore.GetByRunID(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("load trades of run %s: %w", runID, err)
	}

	// 2. Replay with the stored parameters and policy
	replayed, replayedTrades, err := v.replayRun(ctx, stored)
	if err != nil {
		return nil, err
	}

	// 3. Compare results
	divergences := CompareRunRecords(stored, replayed)
	divergences = append(divergences, CompareTradeLogs(storedTrades, replayedTrades)...)

	result := &VerificationResult{
		RunID:          runID,
		Match:          len(divergences) == 0,
		Divergences:    divergences,
		StoredTrades:   len(storedTrades),
		ReplayedTrades: len(replayedTrades),
		StoredPnL:      stored.RealizedPnL,
		ReplayedPnL:    replayed.RealizedPnL,
	}

	v.logger.Info("run verified",
		slog.String("run_id", runID),
		slog.Bool("match", result.Match),
		slog.Int("divergences", len(divergences)),
	)
	return result, nil
}

// VerifyAll verifies all stored runs of a dataset, or every run when
// datasetID is empty.
func (v *ReplayVerifier) VerifyAll(ctx context.Context, datasetID string) (*VerificationReport, error) {
	// Load runs
	var (
		runs []*domain.RunRecord
		err  error
	)
	if datasetID == "" {
		runs, err = v.runStore.GetAll(ctx)
	} else {
		runs, err = v.runStore.GetByDataset(ctx, datasetID)
	}
	if err != nil {
		return nil, err
	}

	report := &VerificationReport{
		TotalRuns: len(runs),
		Results:   make([]VerificationResult, 0, len(runs)),
	}

	for _, run := range runs {
		result, err := v.VerifyRun(ctx, run.RunID)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			// Record error as divergence
			report.Results = append(report.Results, VerificationResult{
				RunID:        run.RunID,
				Match:        false,
				StoredTrades: run.TradeCount,
				StoredPnL:    run.RealizedPnL,
				Divergences: []FieldDivergence{
					{Seq: RunLevel, Field: "Error", Expected: nil, Actual: err.Error()},
				},
			})
			report.DivergentRuns++
			continue
		}

		report.Results = append(report.Results, *result)
		if result.Match {
			report.MatchedRuns++
		} else {
			report.DivergentRuns++
		}
	}

	return report, nil
}

// replayRun re-executes a stored run over its dataset.
func (v *ReplayVerifier) replayRun(ctx context.Context, stored *domain.RunRecord) (*domain.RunRecord, []*domain.TradeRecord, error) {
	// 1. Rebuild strategy and policy
	cfg, err := strategy.ParseConfig(strategy.Type(stored.StrategyType), stored.StrategyParams)
	if err != nil {
		return nil, nil, fmt.Errorf("run %s: %w", stored.RunID, err)
	}
	strat, err := strategy.FromConfig(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("run %s: %w", stored.RunID, err)
	}
	policy, err := backtest.ParsePolicy(stored.SnapshotPolicy)
	if err != nil {
		return nil, nil, fmt.Errorf("run %s: %w", stored.RunID, err)
	}

	// 2. Load snapshots in replay order
	snaps, err := v.snapshotStore.GetByDataset(ctx, stored.DatasetID)
	if err != nil {
		return nil, nil, fmt.Errorf("load dataset %s: %w", stored.DatasetID, err)
	}
	if len(snaps) == 0 {
		return nil, nil, fmt.Errorf("%w: %s", ErrDatasetNotFound, stored.DatasetID)
	}
	replay.SortSnapshots(snaps)

	// 3. Execute under the stored run id so trade ids line up
	res, err := backtest.RunSnapshots(ctx, snaps, strat, backtest.Options{
		RunID:  stored.RunID,
		Policy: policy,
		Logger: v.logger,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("replay run %s: %w", stored.RunID, err)
	}

	rec, err := res.RunRecord(stored.DatasetID, cfg, policy, time.UnixMilli(stored.StartedAtMs))
	if err != nil {
		return nil, nil, err
	}
	return rec, res.TradeRecords(), nil
}
