// Package orderbook provides read-only analytics over depth snapshots.
package orderbook

import (
	"fmt"
	"math"

	"github.com/iminoaru/zaphft/internal/domain"
)

// View is a read-only depth view over one snapshot.
type View struct {
	snap *domain.Snapshot
}

// NewView wraps a snapshot. The snapshot must not be modified while the view is in use.
func NewView(snap *domain.Snapshot) View {
	return View{snap: snap}
}

// Snapshot returns the underlying snapshot.
func (v View) Snapshot() *domain.Snapshot {
	return v.snap
}

// BestBid returns the top bid price.
func (v View) BestBid() float64 {
	return v.snap.Bids[0].Price
}

// BestAsk returns the top ask price.
func (v View) BestAsk() float64 {
	return v.snap.Asks[0].Price
}

// Spread returns best ask minus best bid.
func (v View) Spread() float64 {
	return v.BestAsk() - v.BestBid()
}

// Mid returns the midpoint of the best bid and best ask.
func (v View) Mid() float64 {
	return (v.BestBid() + v.BestAsk()) / 2
}

// Levels returns the levels of one side, best first.
func (v View) Levels(side domain.Side) []domain.PriceLevel {
	if side == domain.SideBid {
		return v.snap.Bids[:]
	}
	return v.snap.Asks[:]
}

// TotalQuantity sums the quantity across all levels of a side.
func (v View) TotalQuantity(side domain.Side) float64 {
	var total float64
	for _, l := range v.Levels(side) {
		total += l.Quantity
	}
	return total
}

// TotalNotional sums price * quantity across all levels of a side.
func (v View) TotalNotional(side domain.Side) float64 {
	var total float64
	for _, l := range v.Levels(side) {
		total += l.Notional()
	}
	return total
}

// Imbalance returns (bidQty - askQty) / (bidQty + askQty) over the full depth,
// or 0 when both sides are empty.
func (v View) Imbalance() float64 {
	bq := v.TotalQuantity(domain.SideBid)
	aq := v.TotalQuantity(domain.SideAsk)
	if bq+aq == 0 {
		return 0
	}
	return (bq - aq) / (bq + aq)
}

// Validate checks the structural invariants of the snapshot: finite levels,
// a positive spread, ordered prices on both sides and no negative quantities.
func (v View) Validate() error {
	for i := 0; i < domain.BookDepth; i++ {
		if !finite(v.snap.Bids[i]) || !finite(v.snap.Asks[i]) {
			return fmt.Errorf("%w: level %d", ErrNonFiniteLevel, i)
		}
	}

	if spread := v.Spread(); !(spread > 0) {
		return fmt.Errorf("%w: bid=%v ask=%v", ErrCrossedBook, v.BestBid(), v.BestAsk())
	}

	for i := 0; i < domain.BookDepth-1; i++ {
		if v.snap.Bids[i].Price < v.snap.Bids[i+1].Price {
			return fmt.Errorf("%w: level %d", ErrBidsUnordered, i)
		}
		if v.snap.Asks[i].Price > v.snap.Asks[i+1].Price {
			return fmt.Errorf("%w: level %d", ErrAsksUnordered, i)
		}
	}

	for i := 0; i < domain.BookDepth; i++ {
		if v.snap.Bids[i].Quantity < 0 || v.snap.Asks[i].Quantity < 0 {
			return fmt.Errorf("%w: level %d", ErrNegativeQuantity, i)
		}
	}

	return nil
}

func finite(l domain.PriceLevel) bool {
	return !math.IsNaN(l.Price) && !math.IsInf(l.Price, 0) &&
		!math.IsNaN(l.Quantity) && !math.IsInf(l.Quantity, 0)
}

// IsValid reports whether Validate passes.
func (v View) IsValid() bool {
	return v.Validate() == nil
}
