package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/iminoaru/zaphft/internal/domain"
	"github.com/iminoaru/zaphft/internal/storage"
)

// TradeStore implements storage.TradeStore using PostgreSQL.
type TradeStore struct {
	pool *Pool
}

// NewTradeStore creates a new TradeStore.
func NewTradeStore(pool *Pool) *TradeStore {
	return &TradeStore{pool: pool}
}

// Compile-time interface check.
var _ storage.TradeStore = (*TradeStore)(nil)

// InsertBulk adds a run's trade log in one transaction, queued as a single batch.
// Fails entire batch on any duplicate. Trades of an unknown run are rejected
// with ErrInvalidInput.
func (s *TradeStore) InsertBulk(ctx context.Context, trades []*domain.TradeRecord) error {
	if len(trades) == 0 {
		return nil
	}

	query := `
		INSERT INTO run_trades (
			trade_id, run_id, seq, side, price, quantity,
			timestamp_us, realized_pnl, position_after
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	batch := &pgx.Batch{}
	for _, t := range trades {
		if t == nil || !t.Side.Valid() {
			return storage.ErrInvalidInput
		}
		batch.Queue(query,
			t.TradeID, t.RunID, t.Seq, string(t.Side), t.Price, t.Quantity,
			t.TimestampUs, t.RealizedPnL, t.PositionAfter,
		)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	results := tx.SendBatch(ctx, batch)
	for range trades {
		if _, err := results.Exec(); err != nil {
			results.Close()
			switch {
			case isDuplicateKeyError(err):
				return storage.ErrDuplicateKey
			case isForeignKeyError(err):
				return fmt.Errorf("%w: trade references unknown run", storage.ErrInvalidInput)
			}
			return fmt.Errorf("insert trade in bulk: %w", err)
		}
	}
	if err := results.Close(); err != nil {
		return fmt.Errorf("close batch: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}

	return nil
}

// GetByRunID retrieves a run's trade log ordered by seq ASC.
func (s *TradeStore) GetByRunID(ctx context.Context, runID string) ([]*domain.TradeRecord, error) {
	query := `
		SELECT
			trade_id, run_id, seq, side, price, quantity,
			timestamp_us, realized_pnl, position_after
		FROM run_trades
		WHERE run_id = $1
		ORDER BY seq ASC
	`

	rows, err := s.pool.Query(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("get trades by run id: %w", err)
	}
	defer rows.Close()

	var trades []*domain.TradeRecord
	for rows.Next() {
		var (
			t    domain.TradeRecord
			side string
		)
		err := rows.Scan(
			&t.TradeID, &t.RunID, &t.Seq, &side, &t.Price, &t.Quantity,
			&t.TimestampUs, &t.RealizedPnL, &t.PositionAfter,
		)
		if err != nil {
			return nil, fmt.Errorf("scan trade row: %w", err)
		}
		t.Side = domain.Side(side)
		trades = append(trades, &t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate trade rows: %w", err)
	}

	return trades, nil
}
