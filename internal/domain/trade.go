package domain

import (
	"fmt"
	"math"
)

// Trade is an executed fill. Trades are values and are never mutated after
// creation.
type Trade struct {
	Side        Side
	Price       float64
	Quantity    float64
	TimestampUs int64 // snapshot timestamp, microseconds
}

// NewTrade creates a trade.
func NewTrade(side Side, price, quantity float64, timestampUs int64) Trade {
	return Trade{
		Side:        side,
		Price:       price,
		Quantity:    quantity,
		TimestampUs: timestampUs,
	}
}

// Notional returns price * quantity.
func (t Trade) Notional() float64 {
	return t.Price * t.Quantity
}

// IsBuy reports whether the trade is on the bid side.
func (t Trade) IsBuy() bool {
	return t.Side == SideBid
}

// IsSell reports whether the trade is on the ask side.
func (t Trade) IsSell() bool {
	return t.Side == SideAsk
}

// SignedQuantity returns +quantity for buys and -quantity for sells.
func (t Trade) SignedQuantity() float64 {
	return t.Side.Sign() * t.Quantity
}

// Validate checks that the trade can be applied to a ledger.
func (t Trade) Validate() error {
	if !t.Side.Valid() {
		return fmt.Errorf("%w: unknown side %q", ErrInvalidTrade, t.Side)
	}
	if !(t.Price > 0) || math.IsInf(t.Price, 0) {
		return fmt.Errorf("%w: price %v", ErrInvalidTrade, t.Price)
	}
	if !(t.Quantity > 0) || math.IsInf(t.Quantity, 0) {
		return fmt.Errorf("%w: quantity %v", ErrInvalidTrade, t.Quantity)
	}
	return nil
}
