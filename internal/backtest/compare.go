package backtest

import (
	"context"
	"fmt"

	"github.com/iminoaru/zaphft/internal/domain"
	"github.com/iminoaru/zaphft/internal/strategy"
)

// Comparison pairs one configuration with its results.
type Comparison struct {
	Config  strategy.Config
	Results *Results
	Speedup float64 // duration relative to the first pass; 1 for the first
}

// Compare runs every config over the same snapshots, one pass at a time.
// Each pass builds a fresh strategy and ledger. runIDs, when non-nil, must be
// aligned with cfgs.
func Compare(ctx context.Context, snaps []*domain.Snapshot, cfgs []strategy.Config, runIDs []string, opts Options) ([]Comparison, error) {
	if runIDs != nil && len(runIDs) != len(cfgs) {
		return nil, fmt.Errorf("compare: %d run ids for %d configs", len(runIDs), len(cfgs))
	}

	out := make([]Comparison, 0, len(cfgs))
	for i, cfg := range cfgs {
		s, err := strategy.FromConfig(cfg)
		if err != nil {
			return nil, err
		}

		passOpts := opts
		if runIDs != nil {
			passOpts.RunID = runIDs[i]
		}

		res, err := RunSnapshots(ctx, snaps, s, passOpts)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", s.Name(), err)
		}

		out = append(out, Comparison{Config: cfg.Resolved(), Results: res})
	}

	if len(out) > 0 && out[0].Results.Duration > 0 {
		base := out[0].Results.Duration.Seconds()
		for i := range out {
			out[i].Speedup = out[i].Results.Duration.Seconds() / base
		}
	}

	return out, nil
}
