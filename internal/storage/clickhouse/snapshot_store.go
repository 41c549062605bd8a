package clickhouse

import (
	"context"
	"fmt"

	"github.com/iminoaru/zaphft/internal/domain"
	"github.com/iminoaru/zaphft/internal/storage"
)

// SnapshotStore implements storage.SnapshotStore using ClickHouse.
// Each side of the book is stored as parallel Array(Float64) columns.
type SnapshotStore struct {
	conn *Conn
}

// NewSnapshotStore creates a new SnapshotStore.
func NewSnapshotStore(conn *Conn) *SnapshotStore {
	return &SnapshotStore{conn: conn}
}

// Compile-time interface check.
var _ storage.SnapshotStore = (*SnapshotStore)(nil)

const snapshotColumns = `
	row_index, timestamp_us, datetime,
	bid_prices, bid_quantities, ask_prices, ask_quantities
`

// InsertBulk appends snapshots to a dataset. Fails entire batch on duplicate (dataset_id, row_index).
func (s *SnapshotStore) InsertBulk(ctx context.Context, datasetID string, snaps []*domain.Snapshot) error {
	if datasetID == "" {
		return storage.ErrInvalidInput
	}
	if len(snaps) == 0 {
		return nil
	}

	// Check for intra-batch duplicates
	seen := make(map[int64]struct{}, len(snaps))
	minRow, maxRow := snaps[0].RowIndex, snaps[0].RowIndex
	for _, snap := range snaps {
		if snap == nil || snap.RowIndex < 0 {
			return storage.ErrInvalidInput
		}
		if _, exists := seen[snap.RowIndex]; exists {
			return storage.ErrDuplicateKey
		}
		seen[snap.RowIndex] = struct{}{}
		minRow = min(minRow, snap.RowIndex)
		maxRow = max(maxRow, snap.RowIndex)
	}

	// Check for duplicates against existing DB rows
	existing, err := s.existingRows(ctx, datasetID, minRow, maxRow)
	if err != nil {
		return fmt.Errorf("check exists: %w", err)
	}
	for _, row := range existing {
		if _, clash := seen[row]; clash {
			return storage.ErrDuplicateKey
		}
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO depth_snapshots (
			dataset_id, row_index, timestamp_us, datetime,
			bid_prices, bid_quantities, ask_prices, ask_quantities
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, snap := range snaps {
		bidPrices, bidQtys := splitLevels(snap.Bids)
		askPrices, askQtys := splitLevels(snap.Asks)

		err = batch.Append(
			datasetID, uint64(snap.RowIndex), snap.TimestampUs, snap.Datetime,
			bidPrices, bidQtys, askPrices, askQtys,
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	return nil
}

// GetByDataset retrieves all snapshots of a dataset, ordered by (timestamp_us, row_index) ASC.
func (s *SnapshotStore) GetByDataset(ctx context.Context, datasetID string) ([]*domain.Snapshot, error) {
	query := `SELECT ` + snapshotColumns + `
		FROM depth_snapshots
		WHERE dataset_id = ?
		ORDER BY timestamp_us ASC, row_index ASC
	`

	rows, err := s.conn.Query(ctx, query, datasetID)
	if err != nil {
		return nil, fmt.Errorf("query by dataset: %w", err)
	}
	defer rows.Close()

	return scanSnapshots(rows)
}

// GetByTimeRange retrieves snapshots of a dataset within [start, end] (inclusive).
func (s *SnapshotStore) GetByTimeRange(ctx context.Context, datasetID string, start, end int64) ([]*domain.Snapshot, error) {
	query := `SELECT ` + snapshotColumns + `
		FROM depth_snapshots
		WHERE dataset_id = ? AND timestamp_us >= ? AND timestamp_us <= ?
		ORDER BY timestamp_us ASC, row_index ASC
	`

	rows, err := s.conn.Query(ctx, query, datasetID, start, end)
	if err != nil {
		return nil, fmt.Errorf("query by time range: %w", err)
	}
	defer rows.Close()

	return scanSnapshots(rows)
}

// ListDatasets returns the known dataset IDs in ascending order.
func (s *SnapshotStore) ListDatasets(ctx context.Context) ([]string, error) {
	rows, err := s.conn.Query(ctx, `SELECT DISTINCT dataset_id FROM depth_snapshots ORDER BY dataset_id`)
	if err != nil {
		return nil, fmt.Errorf("list datasets: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan dataset id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// existingRows returns the stored row indexes of a dataset within [from, to].
func (s *SnapshotStore) existingRows(ctx context.Context, datasetID string, from, to int64) ([]int64, error) {
	query := `
		SELECT row_index FROM depth_snapshots
		WHERE dataset_id = ? AND row_index >= ? AND row_index <= ?
	`

	rows, err := s.conn.Query(ctx, query, datasetID, uint64(from), uint64(to))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []int64
	for rows.Next() {
		var row uint64
		if err := rows.Scan(&row); err != nil {
			return nil, err
		}
		out = append(out, int64(row))
	}
	return out, rows.Err()
}

func splitLevels(levels [domain.BookDepth]domain.PriceLevel) (prices, qtys []float64) {
	prices = make([]float64, domain.BookDepth)
	qtys = make([]float64, domain.BookDepth)
	for i, l := range levels {
		prices[i] = l.Price
		qtys[i] = l.Quantity
	}
	return prices, qtys
}

func joinLevels(prices, qtys []float64) ([domain.BookDepth]domain.PriceLevel, error) {
	var levels [domain.BookDepth]domain.PriceLevel
	if len(prices) != domain.BookDepth || len(qtys) != domain.BookDepth {
		return levels, fmt.Errorf("expected %d levels, got %d prices and %d quantities",
			domain.BookDepth, len(prices), len(qtys))
	}
	for i := range levels {
		levels[i] = domain.PriceLevel{Price: prices[i], Quantity: qtys[i]}
	}
	return levels, nil
}

// scanSnapshots scans multiple rows.
func scanSnapshots(rows chRows) ([]*domain.Snapshot, error) {
	var snaps []*domain.Snapshot

	for rows.Next() {
		var (
			snap               domain.Snapshot
			rowIndex           uint64
			bidPrices, bidQtys []float64
			askPrices, askQtys []float64
		)

		err := rows.Scan(
			&rowIndex, &snap.TimestampUs, &snap.Datetime,
			&bidPrices, &bidQtys, &askPrices, &askQtys,
		)
		if err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		snap.RowIndex = int64(rowIndex)

		if snap.Bids, err = joinLevels(bidPrices, bidQtys); err != nil {
			return nil, fmt.Errorf("row %d bids: %w", snap.RowIndex, err)
		}
		if snap.Asks, err = joinLevels(askPrices, askQtys); err != nil {
			return nil, fmt.Errorf("row %d asks: %w", snap.RowIndex, err)
		}

		snaps = append(snaps, &snap)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}

	return snaps, nil
}
