package backtest

import (
	"github.com/iminoaru/zaphft/internal/domain"
	"github.com/iminoaru/zaphft/internal/strategy"
)

// stubStrategy records the snapshots and positions it sees and replays
// scripted trades keyed by row index.
type stubStrategy struct {
	script    map[int64][]domain.Trade
	rows      []int64
	positions []float64
}

func newStubStrategy(script map[int64][]domain.Trade) *stubStrategy {
	return &stubStrategy{script: script}
}

func (s *stubStrategy) OnMarketData(snap *domain.Snapshot, pos strategy.Position) []domain.Trade {
	s.rows = append(s.rows, snap.RowIndex)
	s.positions = append(s.positions, pos.Quantity())
	return s.script[snap.RowIndex]
}

func (s *stubStrategy) Name() string { return "stub" }

func (s *stubStrategy) Stats() strategy.Stats {
	return strategy.Stats{Name: "stub", UpdatesProcessed: len(s.rows)}
}

var _ strategy.Strategy = (*stubStrategy)(nil)
