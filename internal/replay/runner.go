package replay

import (
	"context"

	"github.com/iminoaru/zaphft/internal/domain"
	"github.com/iminoaru/zaphft/internal/storage"
)

// Runner loads snapshots from storage and replays them in deterministic order.
type Runner struct {
	snapshotStore storage.SnapshotStore
}

// NewRunner creates a new replay runner.
func NewRunner(snapshotStore storage.SnapshotStore) *Runner {
	return &Runner{
		snapshotStore: snapshotStore,
	}
}

// Run loads a dataset's snapshots within [from, to] microseconds and replays
// them through the engine. Returns ErrEmptyDataset if the window is empty.
func (r *Runner) Run(ctx context.Context, datasetID string, from, to int64, engine ReplayEngine) error {
	// Load snapshots
	snaps, err := r.snapshotStore.GetByTimeRange(ctx, datasetID, from, to)
	if err != nil {
		return err
	}

	SortSnapshots(snaps)
	return Replay(ctx, snaps, engine)
}

// RunAll loads all snapshots of a dataset and replays them through the engine.
func (r *Runner) RunAll(ctx context.Context, datasetID string, engine ReplayEngine) error {
	// Load snapshots
	snaps, err := r.snapshotStore.GetByDataset(ctx, datasetID)
	if err != nil {
		return err
	}

	SortSnapshots(snaps)
	return Replay(ctx, snaps, engine)
}

// Replay feeds snaps through the engine in slice order.
// Stops at the first engine error or when ctx is cancelled.
func Replay(ctx context.Context, snaps []*domain.Snapshot, engine ReplayEngine) error {
	if len(snaps) == 0 {
		return ErrEmptyDataset
	}

	for _, snap := range snaps {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := engine.OnSnapshot(ctx, snap); err != nil {
			return err
		}
	}

	return nil
}
