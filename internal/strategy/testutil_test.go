package strategy

import "github.com/iminoaru/zaphft/internal/domain"

type fixedPosition float64

func (p fixedPosition) Quantity() float64 { return float64(p) }

// book builds a snapshot with the given top of book and one-tick ladders behind it.
func book(ts int64, bestBid, bestAsk float64) *domain.Snapshot {
	snap := &domain.Snapshot{TimestampUs: ts}
	for i := 0; i < domain.BookDepth; i++ {
		snap.Bids[i] = domain.PriceLevel{Price: bestBid - float64(i)*0.05, Quantity: 1}
		snap.Asks[i] = domain.PriceLevel{Price: bestAsk + float64(i)*0.05, Quantity: 1}
	}
	return snap
}

// midBook builds a snapshot centered on mid with a 0.1 spread.
func midBook(ts int64, mid float64) *domain.Snapshot {
	return book(ts, mid-0.05, mid+0.05)
}
