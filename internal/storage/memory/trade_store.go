package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/iminoaru/zaphft/internal/domain"
	"github.com/iminoaru/zaphft/internal/storage"
)

type runSeq struct {
	runID string
	seq   int
}

// TradeStore is an in-memory implementation of storage.TradeStore.
type TradeStore struct {
	mu    sync.RWMutex
	data  map[string]*domain.TradeRecord // keyed by trade_id
	bySeq map[runSeq]struct{}
}

// NewTradeStore creates a new in-memory trade store.
func NewTradeStore() *TradeStore {
	return &TradeStore{
		data:  make(map[string]*domain.TradeRecord),
		bySeq: make(map[runSeq]struct{}),
	}
}

// InsertBulk adds a run's trade log atomically. Fails entire batch on any duplicate.
func (s *TradeStore) InsertBulk(_ context.Context, trades []*domain.TradeRecord) error {
	if len(trades) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	batchIDs := make(map[string]struct{}, len(trades))
	batchSeqs := make(map[runSeq]struct{}, len(trades))

	// First pass: check for duplicates (existing + intra-batch)
	for _, t := range trades {
		if t == nil || t.TradeID == "" || t.RunID == "" {
			return storage.ErrInvalidInput
		}

		key := runSeq{t.RunID, t.Seq}
		if _, exists := s.data[t.TradeID]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := s.bySeq[key]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batchIDs[t.TradeID]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batchSeqs[key]; exists {
			return storage.ErrDuplicateKey
		}
		batchIDs[t.TradeID] = struct{}{}
		batchSeqs[key] = struct{}{}
	}

	// Second pass: insert all
	for _, t := range trades {
		copy := *t
		s.data[t.TradeID] = &copy
		s.bySeq[runSeq{t.RunID, t.Seq}] = struct{}{}
	}

	return nil
}

// GetByRunID retrieves a run's trade log ordered by seq ASC.
func (s *TradeStore) GetByRunID(_ context.Context, runID string) ([]*domain.TradeRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.TradeRecord
	for _, t := range s.data {
		if t.RunID == runID {
			copy := *t
			result = append(result, &copy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Seq < result[j].Seq
	})

	return result, nil
}

var _ storage.TradeStore = (*TradeStore)(nil)
