// Package verification re-runs stored backtests and checks that they
// reproduce the stored trade log and run summary.
package verification

import (
	"context"
	"math"

	"github.com/iminoaru/zaphft/internal/domain"
)

// FloatTolerance is the tolerance for float64 comparisons.
const FloatTolerance = 1e-7

// RunLevel is the Seq of divergences that concern the run summary rather
// than a single trade.
const RunLevel = -1

// FieldDivergence represents a mismatch between stored and replayed values.
type FieldDivergence struct {
	Seq      int    // trade sequence, or RunLevel
	Field    string // field name
	Expected any    // stored value
	Actual   any    // replayed value
}

// VerificationResult contains the result of verifying a single run.
type VerificationResult struct {
	RunID          string            // verified run ID
	Match          bool              // true if all fields match
	Divergences    []FieldDivergence // list of divergent fields
	StoredTrades   int
	ReplayedTrades int
	StoredPnL      float64 // realized PnL from the stored run
	ReplayedPnL    float64 // realized PnL from the replay
}

// VerificationReport contains results for batch verification.
type VerificationReport struct {
	TotalRuns     int                  // total runs verified
	MatchedRuns   int                  // runs that matched exactly
	DivergentRuns int                  // runs with divergences or errors
	Results       []VerificationResult // individual results
}

// Verifier interface for run replay verification.
type Verifier interface {
	// VerifyRun verifies a single run by ID.
	// It loads the stored run, re-executes the strategy over the same dataset
	// with the same parameters and policy, and compares every trade.
	VerifyRun(ctx context.Context, runID string) (*VerificationResult, error)

	// VerifyAll verifies all stored runs of a dataset, or every run when
	// datasetID is empty.
	VerifyAll(ctx context.Context, datasetID string) (*VerificationReport, error)
}

// CompareRunRecords compares the outcome fields of two run summaries.
// Identity and timing fields (run id, start time, duration) are ignored.
func CompareRunRecords(stored, replayed *domain.RunRecord) []FieldDivergence {
	var divergences []FieldDivergence

	ints := []struct {
		field    string
		expected int
		actual   int
	}{
		{"SnapshotsProcessed", stored.SnapshotsProcessed, replayed.SnapshotsProcessed},
		{"SnapshotsSkipped", stored.SnapshotsSkipped, replayed.SnapshotsSkipped},
		{"UpdatesProcessed", stored.UpdatesProcessed, replayed.UpdatesProcessed},
		{"TradesGenerated", stored.TradesGenerated, replayed.TradesGenerated},
		{"QuotesPlaced", stored.QuotesPlaced, replayed.QuotesPlaced},
		{"TradeCount", stored.TradeCount, replayed.TradeCount},
	}
	for _, f := range ints {
		if f.expected != f.actual {
			divergences = append(divergences, FieldDivergence{
				Seq:      RunLevel,
				Field:    f.field,
				Expected: f.expected,
				Actual:   f.actual,
			})
		}
	}

	floats := []struct {
		field    string
		expected float64
		actual   float64
	}{
		{"FinalQuantity", stored.FinalQuantity, replayed.FinalQuantity},
		{"AvgEntryPrice", stored.AvgEntryPrice, replayed.AvgEntryPrice},
		{"RealizedPnL", stored.RealizedPnL, replayed.RealizedPnL},
		{"UnrealizedPnL", stored.UnrealizedPnL, replayed.UnrealizedPnL},
		{"FinalMidPrice", stored.FinalMidPrice, replayed.FinalMidPrice},
		{"TotalBought", stored.TotalBought, replayed.TotalBought},
		{"TotalSold", stored.TotalSold, replayed.TotalSold},
	}
	for _, f := range floats {
		if !floatEquals(f.expected, f.actual) {
			divergences = append(divergences, FieldDivergence{
				Seq:      RunLevel,
				Field:    f.field,
				Expected: f.expected,
				Actual:   f.actual,
			})
		}
	}

	return divergences
}

// CompareTradeLogs compares two trade logs entry by entry. A length mismatch
// is reported once; the common prefix is still compared.
func CompareTradeLogs(stored, replayed []*domain.TradeRecord) []FieldDivergence {
	var divergences []FieldDivergence

	if len(stored) != len(replayed) {
		divergences = append(divergences, FieldDivergence{
			Seq:      RunLevel,
			Field:    "TradeLogLength",
			Expected: len(stored),
			Actual:   len(replayed),
		})
	}

	n := min(len(stored), len(replayed))
	for i := 0; i < n; i++ {
		divergences = append(divergences, CompareTradeRecords(stored[i], replayed[i])...)
	}
	return divergences
}

// CompareTradeRecords compares two trade records and returns divergences.
// Uses FloatTolerance for float64 comparisons.
func CompareTradeRecords(stored, replayed *domain.TradeRecord) []FieldDivergence {
	var divergences []FieldDivergence
	seq := stored.Seq

	// TradeID must match exactly
	if stored.TradeID != replayed.TradeID {
		divergences = append(divergences, FieldDivergence{
			Seq:      seq,
			Field:    "TradeID",
			Expected: stored.TradeID,
			Actual:   replayed.TradeID,
		})
	}

	if stored.Seq != replayed.Seq {
		divergences = append(divergences, FieldDivergence{
			Seq:      seq,
			Field:    "Seq",
			Expected: stored.Seq,
			Actual:   replayed.Seq,
		})
	}

	if stored.Side != replayed.Side {
		divergences = append(divergences, FieldDivergence{
			Seq:      seq,
			Field:    "Side",
			Expected: stored.Side,
			Actual:   replayed.Side,
		})
	}

	if stored.TimestampUs != replayed.TimestampUs {
		divergences = append(divergences, FieldDivergence{
			Seq:      seq,
			Field:    "TimestampUs",
			Expected: stored.TimestampUs,
			Actual:   replayed.TimestampUs,
		})
	}

	// Execution values
	if !floatEquals(stored.Price, replayed.Price) {
		divergences = append(divergences, FieldDivergence{
			Seq:      seq,
			Field:    "Price",
			Expected: stored.Price,
			Actual:   replayed.Price,
		})
	}

	if !floatEquals(stored.Quantity, replayed.Quantity) {
		divergences = append(divergences, FieldDivergence{
			Seq:      seq,
			Field:    "Quantity",
			Expected: stored.Quantity,
			Actual:   replayed.Quantity,
		})
	}

	// Ledger effects
	if !floatEquals(stored.RealizedPnL, replayed.RealizedPnL) {
		divergences = append(divergences, FieldDivergence{
			Seq:      seq,
			Field:    "RealizedPnL",
			Expected: stored.RealizedPnL,
			Actual:   replayed.RealizedPnL,
		})
	}

	if !floatEquals(stored.PositionAfter, replayed.PositionAfter) {
		divergences = append(divergences, FieldDivergence{
			Seq:      seq,
			Field:    "PositionAfter",
			Expected: stored.PositionAfter,
			Actual:   replayed.PositionAfter,
		})
	}

	return divergences
}

// floatEquals compares two float64 values within FloatTolerance.
func floatEquals(a, b float64) bool {
	return math.Abs(a-b) <= FloatTolerance
}
