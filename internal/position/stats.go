package position

// Stats is a point-in-time summary of a ledger.
type Stats struct {
	Quantity      float64
	AvgEntryPrice float64
	RealizedPnL   float64
	UnrealizedPnL float64
	TotalPnL      float64
	TradeCount    int
	TotalBought   float64
	TotalSold     float64
	WinningTrades int // trades with a positive realized contribution
	LosingTrades  int // trades with a negative realized contribution
}

// Stats summarizes the ledger, marking the open position at mark.
func (l *Ledger) Stats(mark float64) Stats {
	s := Stats{
		Quantity:      l.quantity,
		AvgEntryPrice: l.avgEntryPrice,
		RealizedPnL:   l.realizedPnL,
		UnrealizedPnL: l.UnrealizedPnL(mark),
		TotalPnL:      l.TotalPnL(mark),
		TradeCount:    l.tradeCount,
		TotalBought:   l.totalBought,
		TotalSold:     l.totalSold,
	}

	for _, impact := range l.impacts {
		switch {
		case impact > 0:
			s.WinningTrades++
		case impact < 0:
			s.LosingTrades++
		}
	}

	return s
}
