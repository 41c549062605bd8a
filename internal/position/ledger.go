// Package position tracks a single-instrument signed position with
// average-cost accounting.
package position

import (
	"math"

	"github.com/iminoaru/zaphft/internal/domain"
)

// flatEpsilon is the magnitude below which a position is treated as flat.
const flatEpsilon = 1e-10

// Ledger is the signed position of one instrument plus its trade log.
// Not safe for concurrent use; a ledger belongs to a single run.
type Ledger struct {
	quantity      float64
	avgEntryPrice float64
	realizedPnL   float64

	tradeCount  int
	totalBought float64
	totalSold   float64

	trades  []domain.Trade
	impacts []float64 // realized contribution of each trade
	after   []float64 // quantity after each trade
}

// NewLedger creates a flat ledger.
func NewLedger() *Ledger {
	return &Ledger{}
}

// ExecuteTrade applies a trade to the ledger. Trades with a non-positive
// price or quantity are rejected with domain.ErrInvalidTrade and leave the
// ledger untouched.
func (l *Ledger) ExecuteTrade(t domain.Trade) error {
	if err := t.Validate(); err != nil {
		return err
	}

	delta := t.SignedQuantity()
	old := l.quantity

	// Realized PnL is computed against the pre-trade position.
	realized := l.closingPnL(t)
	l.realizedPnL += realized

	l.quantity = old + delta
	l.avgEntryPrice = l.nextAvgEntry(old, t)

	l.tradeCount++
	if t.IsBuy() {
		l.totalBought += t.Quantity
	} else {
		l.totalSold += t.Quantity
	}

	l.trades = append(l.trades, t)
	l.impacts = append(l.impacts, realized)
	l.after = append(l.after, l.quantity)

	return nil
}

// closingPnL returns the PnL realized by the part of t that reduces the
// current position.
func (l *Ledger) closingPnL(t domain.Trade) float64 {
	if l.quantity == 0 {
		return 0
	}

	closing := math.Min(t.Quantity, math.Abs(l.quantity))

	switch {
	case l.quantity > 0 && t.IsSell():
		return closing * (t.Price - l.avgEntryPrice)
	case l.quantity < 0 && t.IsBuy():
		return closing * (l.avgEntryPrice - t.Price)
	default:
		return 0
	}
}

// nextAvgEntry computes the average entry price after t moved the position
// from old to l.quantity.
func (l *Ledger) nextAvgEntry(old float64, t domain.Trade) float64 {
	next := l.quantity

	switch {
	case math.Abs(next) < flatEpsilon:
		return 0
	case math.Abs(old) > flatEpsilon && (old > 0) != (next > 0):
		// Flipped through zero: the residual opened at this price.
		return t.Price
	case math.Abs(old) > flatEpsilon && isAdding(old, t):
		return (math.Abs(old)*l.avgEntryPrice + t.Quantity*t.Price) / math.Abs(next)
	case math.Abs(old) < flatEpsilon:
		return t.Price
	default:
		// Partial reduction keeps the cost basis.
		return l.avgEntryPrice
	}
}

func isAdding(old float64, t domain.Trade) bool {
	return (old > 0 && t.IsBuy()) || (old <= 0 && t.IsSell())
}

// Quantity returns the signed position.
func (l *Ledger) Quantity() float64 {
	return l.quantity
}

// AvgEntryPrice returns the volume-weighted entry price of the open position.
func (l *Ledger) AvgEntryPrice() float64 {
	return l.avgEntryPrice
}

// RealizedPnL returns the PnL locked in by closing trades.
func (l *Ledger) RealizedPnL() float64 {
	return l.realizedPnL
}

// UnrealizedPnL marks the open position at mark.
func (l *Ledger) UnrealizedPnL(mark float64) float64 {
	if math.Abs(l.quantity) < flatEpsilon {
		return 0
	}
	return l.quantity * (mark - l.avgEntryPrice)
}

// TotalPnL returns realized plus unrealized PnL at mark.
func (l *Ledger) TotalPnL(mark float64) float64 {
	return l.realizedPnL + l.UnrealizedPnL(mark)
}

// IsLong reports whether the position is long beyond epsilon.
func (l *Ledger) IsLong() bool {
	return l.quantity > flatEpsilon
}

// IsShort reports whether the position is short beyond epsilon.
func (l *Ledger) IsShort() bool {
	return l.quantity < -flatEpsilon
}

// IsFlat reports whether the position is within epsilon of zero.
func (l *Ledger) IsFlat() bool {
	return math.Abs(l.quantity) < flatEpsilon
}

// TradeCount returns the number of executed trades.
func (l *Ledger) TradeCount() int {
	return l.tradeCount
}

// TotalBought returns cumulative bought quantity.
func (l *Ledger) TotalBought() float64 {
	return l.totalBought
}

// TotalSold returns cumulative sold quantity.
func (l *Ledger) TotalSold() float64 {
	return l.totalSold
}

// Trades returns a copy of the trade log in execution order.
func (l *Ledger) Trades() []domain.Trade {
	out := make([]domain.Trade, len(l.trades))
	copy(out, l.trades)
	return out
}

// RealizedImpacts returns the realized PnL contribution of each trade,
// aligned with Trades.
func (l *Ledger) RealizedImpacts() []float64 {
	out := make([]float64, len(l.impacts))
	copy(out, l.impacts)
	return out
}

// PositionPath returns the position after each trade, aligned with Trades.
func (l *Ledger) PositionPath() []float64 {
	out := make([]float64, len(l.after))
	copy(out, l.after)
	return out
}

// Reset returns the ledger to its initial flat state.
func (l *Ledger) Reset() {
	*l = Ledger{}
}
