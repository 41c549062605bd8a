package reporting

import (
	"fmt"
	"math"
	"time"

	"github.com/shopspring/decimal"
)

// fixed renders v with the given number of decimals. Non-finite values,
// which decimal cannot represent, are printed as "inf", "-inf" or "nan".
func fixed(v float64, places int32) string {
	switch {
	case math.IsNaN(v):
		return "nan"
	case math.IsInf(v, 1):
		return "inf"
	case math.IsInf(v, -1):
		return "-inf"
	}
	return decimal.NewFromFloat(v).StringFixed(places)
}

func finiteOrZero(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// toDecimal converts a finite float; non-finite values become zero.
func toDecimal(v float64, places int32) decimal.Decimal {
	return decimal.NewFromFloat(finiteOrZero(v)).Round(places)
}

func durationOf(ns int64) time.Duration {
	return time.Duration(ns)
}

func formatTimestampUs(us int64) string {
	return time.UnixMicro(us).UTC().Format("2006-01-02 15:04:05.000000")
}

func percent(v float64) string {
	return fmt.Sprintf("%s%%", fixed(v*100, 2))
}
