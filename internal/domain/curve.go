package domain

// CurvePoint is one sample of a per-run time series.
type CurvePoint struct {
	Index       int   // accepted snapshot index
	TimestampUs int64 // snapshot timestamp
	Value       float64
}
