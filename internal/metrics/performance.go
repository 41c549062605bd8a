// Package metrics derives performance, timing, risk and dataset statistics
// from finished backtest runs.
package metrics

import (
	"math"

	"github.com/iminoaru/zaphft/internal/domain"
)

// RunSummary is the input to the run metrics: final ledger state plus the
// trade log. It can be built from a live backtest or from stored records.
type RunSummary struct {
	Quantity      float64
	RealizedPnL   float64
	UnrealizedPnL float64
	TotalBought   float64
	TotalSold     float64

	UpdatesProcessed int
	QuotesPlaced     int

	Trades  []domain.Trade
	Impacts []float64 // realized contribution per trade, aligned with Trades
}

// Performance holds the PnL, position, trade and volume metrics of a run.
type Performance struct {
	// PnL
	TotalPnL      float64
	RealizedPnL   float64
	UnrealizedPnL float64

	// Position
	FinalPosition    float64
	MaxPositionLong  float64
	MaxPositionShort float64 // most negative position reached, <= 0
	AvgPosition      float64 // mean position after each trade

	// Trades
	TotalTrades   int
	WinningTrades int
	LosingTrades  int
	WinRate       float64 // winning / total trades

	// Volume
	TotalVolume float64
	BuyVolume   float64
	SellVolume  float64

	// Activity
	UpdatesProcessed int
	QuotesPlaced     int
	QuoteRate        float64 // quotes / updates
}

// ComputePerformance calculates run performance metrics.
func ComputePerformance(s RunSummary) Performance {
	p := Performance{
		TotalPnL:         s.RealizedPnL + s.UnrealizedPnL,
		RealizedPnL:      s.RealizedPnL,
		UnrealizedPnL:    s.UnrealizedPnL,
		FinalPosition:    s.Quantity,
		TotalTrades:      len(s.Trades),
		TotalVolume:      s.TotalBought + s.TotalSold,
		BuyVolume:        s.TotalBought,
		SellVolume:       s.TotalSold,
		UpdatesProcessed: s.UpdatesProcessed,
		QuotesPlaced:     s.QuotesPlaced,
	}

	// Replay the signed quantities for the position path
	var current, sum float64
	for _, t := range s.Trades {
		current += t.SignedQuantity()
		p.MaxPositionLong = math.Max(p.MaxPositionLong, current)
		p.MaxPositionShort = math.Min(p.MaxPositionShort, current)
		sum += current
	}
	if len(s.Trades) > 0 {
		p.AvgPosition = sum / float64(len(s.Trades))
	}

	for _, impact := range s.Impacts {
		switch {
		case impact > 0:
			p.WinningTrades++
		case impact < 0:
			p.LosingTrades++
		}
	}
	p.WinRate = computeWinRate(p.WinningTrades, p.TotalTrades)

	if s.UpdatesProcessed > 0 {
		p.QuoteRate = float64(s.QuotesPlaced) / float64(s.UpdatesProcessed)
	}

	return p
}
