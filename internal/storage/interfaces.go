package storage

import (
	"context"

	"github.com/iminoaru/zaphft/internal/domain"
)

// SnapshotStore provides access to depth_snapshots storage.
// Snapshots are grouped into datasets; a dataset is one ingested source file.
type SnapshotStore interface {
	// InsertBulk appends snapshots to a dataset atomically.
	// Returns ErrDuplicateKey if any (dataset_id, row_index) exists or repeats within the batch.
	InsertBulk(ctx context.Context, datasetID string, snaps []*domain.Snapshot) error

	// GetByDataset retrieves all snapshots of a dataset, ordered by (timestamp_us, row_index) ASC.
	GetByDataset(ctx context.Context, datasetID string) ([]*domain.Snapshot, error)

	// GetByTimeRange retrieves snapshots of a dataset within [start, end] microseconds (inclusive).
	GetByTimeRange(ctx context.Context, datasetID string, start, end int64) ([]*domain.Snapshot, error)

	// ListDatasets returns the known dataset IDs in ascending order.
	ListDatasets(ctx context.Context) ([]string, error)
}

// RunStore provides access to backtest_runs storage.
type RunStore interface {
	// Insert adds a run summary. Returns ErrDuplicateKey if run_id exists.
	Insert(ctx context.Context, r *domain.RunRecord) error

	// GetByID retrieves a run by its ID. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, runID string) (*domain.RunRecord, error)

	// GetByDataset retrieves all runs over a dataset, ordered by started_at ASC.
	GetByDataset(ctx context.Context, datasetID string) ([]*domain.RunRecord, error)

	// GetAll retrieves all runs, ordered by started_at ASC.
	GetAll(ctx context.Context) ([]*domain.RunRecord, error)
}

// TradeStore provides access to run_trades storage.
type TradeStore interface {
	// InsertBulk adds a run's trade log atomically.
	// Returns ErrDuplicateKey if any trade_id or (run_id, seq) exists.
	InsertBulk(ctx context.Context, trades []*domain.TradeRecord) error

	// GetByRunID retrieves a run's trade log ordered by seq ASC.
	GetByRunID(ctx context.Context, runID string) ([]*domain.TradeRecord, error)
}
