package orderbook

import (
	"fmt"
	"math"

	"github.com/iminoaru/zaphft/internal/domain"
)

// residualEpsilon absorbs float residue when a walk consumes the requested quantity exactly.
const residualEpsilon = 1e-12

// Liquidity is the result of walking one side of the book for a notional target.
type Liquidity struct {
	Quantity float64 // units obtainable
	AvgPrice float64 // notional / quantity, 0 when nothing is obtainable
	Levels   int     // levels touched
}

// LiquidityForNotional walks the levels of side, best first, accumulating
// whole levels while they fit under notional and prorating the level that
// crosses it. The walk stops once the target is reached.
func (v View) LiquidityForNotional(side domain.Side, notional float64) Liquidity {
	var (
		total  float64
		qty    float64
		levels int
	)

	if !(notional > 0) {
		return Liquidity{}
	}

	for _, l := range v.Levels(side) {
		if total >= notional || l.Price <= 0 {
			break
		}

		levelNotional := l.Notional()
		if total+levelNotional <= notional {
			total += levelNotional
			qty += l.Quantity
			levels++
			continue
		}

		// Partial fill of the crossing level
		qty += (notional - total) / l.Price
		total = notional
		levels++
		break
	}

	var avg float64
	if qty > 0 {
		avg = total / qty
	}

	return Liquidity{
		Quantity: qty,
		AvgPrice: avg,
		Levels:   levels,
	}
}

// Slippage is the cost estimate of consuming a quantity from one side.
type Slippage struct {
	AvgPrice float64 // volume-weighted fill price
	Bps      float64 // |avg - best| / best * 10000
	Levels   int     // levels touched
}

// Slippage estimates the cost of consuming quantity from side: SideAsk walks
// the asks (an aggressive buy), SideBid walks the bids (an aggressive sell).
// Returns ErrInsufficientLiquidity when the full depth cannot fill quantity.
func (v View) Slippage(side domain.Side, quantity float64) (Slippage, error) {
	if !(quantity > 0) || math.IsInf(quantity, 0) {
		return Slippage{}, fmt.Errorf("%w: %v", ErrInvalidQuantity, quantity)
	}

	levels := v.Levels(side)

	var (
		remaining = quantity
		notional  float64
		touched   int
	)

	for _, l := range levels {
		if remaining <= residualEpsilon {
			break
		}
		fill := math.Min(remaining, l.Quantity)
		notional += fill * l.Price
		remaining -= fill
		touched++
	}

	if remaining > residualEpsilon {
		return Slippage{}, fmt.Errorf("%w: %v of %v unfilled on %s side",
			ErrInsufficientLiquidity, remaining, quantity, side)
	}

	avg := notional / quantity
	best := levels[0].Price

	var bps float64
	if best > 0 {
		bps = math.Abs(avg-best) / best * 10000
	}

	return Slippage{
		AvgPrice: avg,
		Bps:      bps,
		Levels:   touched,
	}, nil
}
