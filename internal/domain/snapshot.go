package domain

// BookDepth is the number of price levels carried per side of a snapshot.
const BookDepth = 10

// PriceLevel is one aggregated level of the book.
type PriceLevel struct {
	Price    float64
	Quantity float64
}

// Notional returns price * quantity.
func (l PriceLevel) Notional() float64 {
	return l.Price * l.Quantity
}

// Snapshot is a fixed-depth order book picture at one point in time.
// Bids[0] and Asks[0] are the top of book.
type Snapshot struct {
	RowIndex    int64  // position in the source dataset
	TimestampUs int64  // exchange timestamp, microseconds
	Datetime    string // human-readable timestamp as supplied by the source

	Bids [BookDepth]PriceLevel
	Asks [BookDepth]PriceLevel
}
