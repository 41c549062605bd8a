package app

import (
	"context"
	"time"

	"github.com/iminoaru/zaphft/internal/domain"
	"github.com/iminoaru/zaphft/internal/observability"
	"github.com/iminoaru/zaphft/internal/storage"
)

// Store decorators recording query duration and errors per operation.

type instrumentedSnapshotStore struct {
	next storage.SnapshotStore
	m    *observability.Metrics
	db   string
}

func (s *instrumentedSnapshotStore) InsertBulk(ctx context.Context, datasetID string, snaps []*domain.Snapshot) error {
	start := time.Now()
	err := s.next.InsertBulk(ctx, datasetID, snaps)
	s.m.RecordDBQuery(s.db, "snapshots_insert", time.Since(start), err)
	return err
}

func (s *instrumentedSnapshotStore) GetByDataset(ctx context.Context, datasetID string) ([]*domain.Snapshot, error) {
	start := time.Now()
	out, err := s.next.GetByDataset(ctx, datasetID)
	s.m.RecordDBQuery(s.db, "snapshots_get_by_dataset", time.Since(start), err)
	return out, err
}

func (s *instrumentedSnapshotStore) GetByTimeRange(ctx context.Context, datasetID string, from, to int64) ([]*domain.Snapshot, error) {
	start := time.Now()
	out, err := s.next.GetByTimeRange(ctx, datasetID, from, to)
	s.m.RecordDBQuery(s.db, "snapshots_get_by_time_range", time.Since(start), err)
	return out, err
}

func (s *instrumentedSnapshotStore) ListDatasets(ctx context.Context) ([]string, error) {
	start := time.Now()
	out, err := s.next.ListDatasets(ctx)
	s.m.RecordDBQuery(s.db, "snapshots_list_datasets", time.Since(start), err)
	return out, err
}

type instrumentedRunStore struct {
	next storage.RunStore
	m    *observability.Metrics
	db   string
}

func (s *instrumentedRunStore) Insert(ctx context.Context, r *domain.RunRecord) error {
	start := time.Now()
	err := s.next.Insert(ctx, r)
	s.m.RecordDBQuery(s.db, "runs_insert", time.Since(start), err)
	return err
}

func (s *instrumentedRunStore) GetByID(ctx context.Context, runID string) (*domain.RunRecord, error) {
	start := time.Now()
	out, err := s.next.GetByID(ctx, runID)
	s.m.RecordDBQuery(s.db, "runs_get_by_id", time.Since(start), err)
	return out, err
}

func (s *instrumentedRunStore) GetByDataset(ctx context.Context, datasetID string) ([]*domain.RunRecord, error) {
	start := time.Now()
	out, err := s.next.GetByDataset(ctx, datasetID)
	s.m.RecordDBQuery(s.db, "runs_get_by_dataset", time.Since(start), err)
	return out, err
}

func (s *instrumentedRunStore) GetAll(ctx context.Context) ([]*domain.RunRecord, error) {
	start := time.Now()
	out, err := s.next.GetAll(ctx)
	s.m.RecordDBQuery(s.db, "runs_get_all", time.Since(start), err)
	return out, err
}

type instrumentedTradeStore struct {
	next storage.TradeStore
	m    *observability.Metrics
	db   string
}

func (s *instrumentedTradeStore) InsertBulk(ctx context.Context, trades []*domain.TradeRecord) error {
	start := time.Now()
	err := s.next.InsertBulk(ctx, trades)
	s.m.RecordDBQuery(s.db, "trades_insert", time.Since(start), err)
	return err
}

func (s *instrumentedTradeStore) GetByRunID(ctx context.Context, runID string) ([]*domain.TradeRecord, error) {
	start := time.Now()
	out, err := s.next.GetByRunID(ctx, runID)
	s.m.RecordDBQuery(s.db, "trades_get_by_run", time.Since(start), err)
	return out, err
}

var (
	_ storage.SnapshotStore = (*instrumentedSnapshotStore)(nil)
	_ storage.RunStore      = (*instrumentedRunStore)(nil)
	_ storage.TradeStore    = (*instrumentedTradeStore)(nil)
)
