package idhash

import (
	"testing"

	"github.com/iminoaru/zaphft/internal/domain"
)

func TestComputeTradeID(t *testing.T) {
	tests := []struct {
		name        string
		runID       string
		seq         int
		side        domain.Side
		timestampUs int64
	}{
		{name: "first bid", runID: "run-1", seq: 0, side: domain.SideBid, timestampUs: 1000},
		{name: "later ask", runID: "3f0c9a6e-run", seq: 41, side: domain.SideAsk, timestampUs: 1704067300000000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeTradeID(tt.runID, tt.seq, tt.side, tt.timestampUs)

			if len(got) != 64 {
				t.Errorf("ComputeTradeID() length = %d, want 64", len(got))
			}

			// Same inputs, same output
			got2 := ComputeTradeID(tt.runID, tt.seq, tt.side, tt.timestampUs)
			if got != got2 {
				t.Errorf("ComputeTradeID() not deterministic: %s != %s", got, got2)
			}
		})
	}
}

func TestComputeTradeID_KnownValue(t *testing.T) {
	// SHA256("run-1|0|bid|1000")
	want := "bea6eeeee4d4ef5e613e966f25f0bb587a441d8a38a0665e45b5a24f074274a1"
	if got := ComputeTradeID("run-1", 0, domain.SideBid, 1000); got != want {
		t.Errorf("ComputeTradeID() = %s, want %s", got, want)
	}
}

func TestComputeTradeID_DifferentInputs(t *testing.T) {
	base := ComputeTradeID("run-1", 0, domain.SideBid, 1000)

	variants := map[string]string{
		"run":       ComputeTradeID("run-2", 0, domain.SideBid, 1000),
		"seq":       ComputeTradeID("run-1", 1, domain.SideBid, 1000),
		"side":      ComputeTradeID("run-1", 0, domain.SideAsk, 1000),
		"timestamp": ComputeTradeID("run-1", 0, domain.SideBid, 1001),
	}
	for field, id := range variants {
		if id == base {
			t.Errorf("changing %s did not change the id", field)
		}
	}
}
