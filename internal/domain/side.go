package domain

// Side identifies the book side a trade executes on.
// A bid trade buys (increases position), an ask trade sells (decreases it).
type Side string

// Side constants.
const (
	SideBid Side = "bid"
	SideAsk Side = "ask"
)

// Opposite returns the other side of the book.
func (s Side) Opposite() Side {
	if s == SideBid {
		return SideAsk
	}
	return SideBid
}

// Sign returns +1 for bid and -1 for ask.
func (s Side) Sign() float64 {
	if s == SideBid {
		return 1
	}
	return -1
}

// Valid reports whether s is one of the known sides.
func (s Side) Valid() bool {
	return s == SideBid || s == SideAsk
}
