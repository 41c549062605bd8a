package metrics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/iminoaru/zaphft/internal/domain"
)

func TestComputePerformance(t *testing.T) {
	s := RunSummary{
		Quantity:         -0.5,
		RealizedPnL:      3,
		UnrealizedPnL:    -1,
		TotalBought:      1,
		TotalSold:        1.5,
		UpdatesProcessed: 10,
		QuotesPlaced:     4,
		Trades: []domain.Trade{
			domain.NewTrade(domain.SideBid, 100, 1, 1),
			domain.NewTrade(domain.SideAsk, 103, 1, 2),
			domain.NewTrade(domain.SideAsk, 104, 0.5, 3),
		},
		Impacts: []float64{0, 3, 0},
	}

	p := ComputePerformance(s)

	assert.Equal(t, 2.0, p.TotalPnL)
	assert.Equal(t, -0.5, p.FinalPosition)
	assert.Equal(t, 1.0, p.MaxPositionLong)
	assert.Equal(t, -0.5, p.MaxPositionShort)
	// positions after each trade: 1, 0, -0.5
	assert.InDelta(t, 0.5/3, p.AvgPosition, 1e-12)
	assert.Equal(t, 3, p.TotalTrades)
	assert.Equal(t, 1, p.WinningTrades)
	assert.Equal(t, 0, p.LosingTrades)
	assert.InDelta(t, 1.0/3, p.WinRate, 1e-12)
	assert.Equal(t, 2.5, p.TotalVolume)
	assert.Equal(t, 0.4, p.QuoteRate)
}

func TestComputePerformance_Empty(t *testing.T) {
	p := ComputePerformance(RunSummary{})

	assert.Equal(t, Performance{}, p)
}

func TestComputeTiming(t *testing.T) {
	tm := ComputeTiming(2*time.Second, 1000)

	assert.Equal(t, 2*time.Millisecond, tm.TimePerSnapshot)
	assert.InDelta(t, 500.0, tm.Throughput, 1e-9)

	zero := ComputeTiming(0, 0)
	assert.Equal(t, 0.0, zero.Throughput)
	assert.Equal(t, time.Duration(0), zero.TimePerSnapshot)
}
