package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/iminoaru/zaphft/internal/domain"
	"github.com/iminoaru/zaphft/internal/storage"
)

// RunStore implements storage.RunStore using PostgreSQL.
type RunStore struct {
	pool *Pool
}

// NewRunStore creates a new RunStore.
func NewRunStore(pool *Pool) *RunStore {
	return &RunStore{pool: pool}
}

// Compile-time interface check.
var _ storage.RunStore = (*RunStore)(nil)

const runColumns = `
	run_id, dataset_id, strategy_name, strategy_type, strategy_params, snapshot_policy,
	started_at_ms, duration_ns,
	snapshots_processed, snapshots_skipped, updates_processed, trades_generated, quotes_placed,
	final_quantity, avg_entry_price, realized_pnl, unrealized_pnl, final_mid_price,
	trade_count, total_bought, total_sold
`

// Insert adds a run summary. Returns ErrDuplicateKey if run_id exists.
func (s *RunStore) Insert(ctx context.Context, r *domain.RunRecord) error {
	if r == nil || r.RunID == "" {
		return storage.ErrInvalidInput
	}

	query := `INSERT INTO backtest_runs (` + runColumns + `) VALUES (
		$1, $2, $3, $4, $5, $6,
		$7, $8,
		$9, $10, $11, $12, $13,
		$14, $15, $16, $17, $18,
		$19, $20, $21
	)`

	params := r.StrategyParams
	if params == "" {
		params = "{}"
	}

	_, err := s.pool.Exec(ctx, query,
		r.RunID, r.DatasetID, r.StrategyName, r.StrategyType, params, r.SnapshotPolicy,
		r.StartedAtMs, r.DurationNs,
		r.SnapshotsProcessed, r.SnapshotsSkipped, r.UpdatesProcessed, r.TradesGenerated, r.QuotesPlaced,
		r.FinalQuantity, r.AvgEntryPrice, r.RealizedPnL, r.UnrealizedPnL, r.FinalMidPrice,
		r.TradeCount, r.TotalBought, r.TotalSold,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// GetByID retrieves a run by its ID. Returns ErrNotFound if not exists.
func (s *RunStore) GetByID(ctx context.Context, runID string) (*domain.RunRecord, error) {
	query := `SELECT ` + runColumns + ` FROM backtest_runs WHERE run_id = $1`

	r, err := scanRun(s.pool.QueryRow(ctx, query, runID))
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get run by id: %w", err)
	}
	return r, nil
}

// GetByDataset retrieves all runs over a dataset.
func (s *RunStore) GetByDataset(ctx context.Context, datasetID string) ([]*domain.RunRecord, error) {
	query := `SELECT ` + runColumns + `
		FROM backtest_runs
		WHERE dataset_id = $1
		ORDER BY started_at_ms ASC, run_id ASC
	`

	rows, err := s.pool.Query(ctx, query, datasetID)
	if err != nil {
		return nil, fmt.Errorf("get runs by dataset: %w", err)
	}
	defer rows.Close()

	return scanRuns(rows)
}

// GetAll retrieves all runs.
func (s *RunStore) GetAll(ctx context.Context) ([]*domain.RunRecord, error) {
	query := `SELECT ` + runColumns + ` FROM backtest_runs ORDER BY started_at_ms ASC, run_id ASC`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("get all runs: %w", err)
	}
	defer rows.Close()

	return scanRuns(rows)
}

func scanRun(row pgx.Row) (*domain.RunRecord, error) {
	var r domain.RunRecord

	err := row.Scan(
		&r.RunID, &r.DatasetID, &r.StrategyName, &r.StrategyType, &r.StrategyParams, &r.SnapshotPolicy,
		&r.StartedAtMs, &r.DurationNs,
		&r.SnapshotsProcessed, &r.SnapshotsSkipped, &r.UpdatesProcessed, &r.TradesGenerated, &r.QuotesPlaced,
		&r.FinalQuantity, &r.AvgEntryPrice, &r.RealizedPnL, &r.UnrealizedPnL, &r.FinalMidPrice,
		&r.TradeCount, &r.TotalBought, &r.TotalSold,
	)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func scanRuns(rows pgx.Rows) ([]*domain.RunRecord, error) {
	var runs []*domain.RunRecord

	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run row: %w", err)
		}
		runs = append(runs, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate run rows: %w", err)
	}

	return runs, nil
}
