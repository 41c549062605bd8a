package metrics

import "time"

// Timing holds the replay speed of a run.
type Timing struct {
	TotalDuration      time.Duration
	SnapshotsProcessed int
	TimePerSnapshot    time.Duration
	Throughput         float64 // snapshots per second
}

// ComputeTiming calculates timing metrics for a run.
func ComputeTiming(duration time.Duration, snapshots int) Timing {
	t := Timing{
		TotalDuration:      duration,
		SnapshotsProcessed: snapshots,
	}
	if snapshots > 0 {
		t.TimePerSnapshot = duration / time.Duration(snapshots)
	}
	if secs := duration.Seconds(); secs > 0 {
		t.Throughput = float64(snapshots) / secs
	}
	return t
}
