package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/iminoaru/zaphft/internal/domain"
	"github.com/iminoaru/zaphft/internal/storage"
)

// SnapshotStore is an in-memory implementation of storage.SnapshotStore.
type SnapshotStore struct {
	mu       sync.RWMutex
	datasets map[string][]*domain.Snapshot // sorted by (timestamp_us, row_index)
	rows     map[string]map[int64]struct{} // dataset_id -> row_index set
}

// NewSnapshotStore creates a new in-memory snapshot store.
func NewSnapshotStore() *SnapshotStore {
	return &SnapshotStore{
		datasets: make(map[string][]*domain.Snapshot),
		rows:     make(map[string]map[int64]struct{}),
	}
}

// InsertBulk appends snapshots to a dataset atomically. Fails entire batch on any duplicate.
func (s *SnapshotStore) InsertBulk(_ context.Context, datasetID string, snaps []*domain.Snapshot) error {
	if datasetID == "" {
		return storage.ErrInvalidInput
	}
	if len(snaps) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing := s.rows[datasetID]
	batchKeys := make(map[int64]struct{}, len(snaps))

	// First pass: check for duplicates (existing + intra-batch)
	for _, snap := range snaps {
		if snap == nil {
			return storage.ErrInvalidInput
		}
		if _, exists := existing[snap.RowIndex]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batchKeys[snap.RowIndex]; exists {
			return storage.ErrDuplicateKey
		}
		batchKeys[snap.RowIndex] = struct{}{}
	}

	// Second pass: insert all
	if existing == nil {
		existing = make(map[int64]struct{}, len(snaps))
		s.rows[datasetID] = existing
	}
	data := s.datasets[datasetID]
	for _, snap := range snaps {
		copy := *snap
		data = append(data, &copy)
		existing[snap.RowIndex] = struct{}{}
	}

	sort.SliceStable(data, func(i, j int) bool {
		if data[i].TimestampUs != data[j].TimestampUs {
			return data[i].TimestampUs < data[j].TimestampUs
		}
		return data[i].RowIndex < data[j].RowIndex
	})
	s.datasets[datasetID] = data

	return nil
}

// GetByDataset retrieves all snapshots of a dataset, ordered by (timestamp_us, row_index) ASC.
func (s *SnapshotStore) GetByDataset(_ context.Context, datasetID string) ([]*domain.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data := s.datasets[datasetID]
	result := make([]*domain.Snapshot, 0, len(data))
	for _, snap := range data {
		copy := *snap
		result = append(result, &copy)
	}

	return result, nil
}

// GetByTimeRange retrieves snapshots of a dataset within [start, end] (inclusive).
func (s *SnapshotStore) GetByTimeRange(_ context.Context, datasetID string, start, end int64) ([]*domain.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.Snapshot
	for _, snap := range s.datasets[datasetID] {
		if snap.TimestampUs >= start && snap.TimestampUs <= end {
			copy := *snap
			result = append(result, &copy)
		}
	}

	return result, nil
}

// ListDatasets returns the known dataset IDs in ascending order.
func (s *SnapshotStore) ListDatasets(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.datasets))
	for id := range s.datasets {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	return ids, nil
}

var _ storage.SnapshotStore = (*SnapshotStore)(nil)
