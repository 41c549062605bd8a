package strategy

import (
	"github.com/iminoaru/zaphft/internal/domain"
	"github.com/iminoaru/zaphft/internal/orderbook"
)

// historySlack is how many mids beyond the lookback are retained.
const historySlack = 100

// Momentum trades in the direction of the mid-price change over a fixed
// lookback, crossing the spread when the change exceeds the threshold.
type Momentum struct {
	cfg     MomentumConfig
	history []float64

	updates int
	trades  int
	signals int
}

var _ Strategy = (*Momentum)(nil)

// NewMomentum creates a momentum strategy. Returns an error if cfg is invalid.
func NewMomentum(cfg MomentumConfig) (*Momentum, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Momentum{
		cfg:     cfg,
		history: make([]float64, 0, cfg.Lookback+historySlack),
	}, nil
}

// Name implements Strategy.
func (m *Momentum) Name() string {
	return "Momentum Strategy"
}

// Config returns the parameters.
func (m *Momentum) Config() MomentumConfig {
	return m.cfg
}

// Stats implements Strategy. Signals are reported as quotes placed.
func (m *Momentum) Stats() Stats {
	return Stats{
		Name:             m.Name(),
		UpdatesProcessed: m.updates,
		TradesGenerated:  m.trades,
		QuotesPlaced:     m.signals,
		SignalsGenerated: m.signals,
	}
}

// OnMarketData implements Strategy.
func (m *Momentum) OnMarketData(snap *domain.Snapshot, pos Position) []domain.Trade {
	m.updates++

	view := orderbook.NewView(snap)
	m.push(view.Mid())

	if len(m.history) < m.cfg.Lookback {
		return nil
	}

	last := m.history[len(m.history)-1]
	momentum := last - m.history[len(m.history)-m.cfg.Lookback]
	qty := pos.Quantity()

	var trade domain.Trade
	switch {
	case momentum > m.cfg.Threshold && qty < m.cfg.MaxPosition:
		trade = domain.NewTrade(domain.SideBid, view.BestAsk(), m.cfg.TradeSize, snap.TimestampUs)
	case momentum < -m.cfg.Threshold && qty > -m.cfg.MaxPosition:
		trade = domain.NewTrade(domain.SideAsk, view.BestBid(), m.cfg.TradeSize, snap.TimestampUs)
	default:
		return nil
	}

	m.trades++
	m.signals++
	return []domain.Trade{trade}
}

// push appends mid, dropping the oldest entry past the retention cap.
func (m *Momentum) push(mid float64) {
	if len(m.history) == m.cfg.Lookback+historySlack {
		copy(m.history, m.history[1:])
		m.history = m.history[:len(m.history)-1]
	}
	m.history = append(m.history, mid)
}

// HistoryLen returns the number of retained mids.
func (m *Momentum) HistoryLen() int {
	return len(m.history)
}
