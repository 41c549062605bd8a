package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"math"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"

	"github.com/iminoaru/zaphft/internal/app"
	"github.com/iminoaru/zaphft/internal/backtest"
	"github.com/iminoaru/zaphft/internal/config"
	"github.com/iminoaru/zaphft/internal/replay"
	"github.com/iminoaru/zaphft/internal/strategy"
	"github.com/iminoaru/zaphft/internal/verification"
)

func main() {
	// Parse flags
	configPath := flag.String("config", "", "Path to TOML config file")
	runID := flag.String("run", "", "Verify a single stored run")
	datasetID := flag.String("dataset", "", "Dataset to verify (all runs) or to replay a window of")
	verifyAll := flag.Bool("verify", false, "Verify every stored run of -dataset (or of all datasets)")
	strategyType := flag.String("strategy", "", "Replay a window of -dataset with this strategy instead of verifying")
	fromUs := flag.Int64("from-us", 0, "Window start, microseconds (inclusive)")
	toUs := flag.Int64("to-us", math.MaxInt64, "Window end, microseconds (inclusive)")
	outputJSON := flag.Bool("json", false, "Output as JSON")

	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	if *datasetID != "" {
		cfg.Data.DatasetID = *datasetID
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	logger := cfg.NewLogger(os.Stderr)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	deps, cleanup, err := app.Wire(ctx, cfg, logger)
	if err != nil {
		logger.Error("wire dependencies", slog.Any("error", err))
		os.Exit(1)
	}
	defer cleanup()

	var out any
	switch {
	case *runID != "":
		out, err = verifier(deps, logger).VerifyRun(ctx, *runID)
	case *verifyAll:
		out, err = verifier(deps, logger).VerifyAll(ctx, cfg.Data.DatasetID)
	case *strategyType != "":
		out, err = replayWindow(ctx, deps, cfg, strategy.Type(*strategyType), *fromUs, *toUs, logger)
	default:
		err = fmt.Errorf("one of -run, -verify or -strategy is required")
	}
	if err != nil {
		logger.Error("replay failed", slog.Any("error", err))
		cleanup()
		os.Exit(1)
	}

	if *outputJSON {
		data, _ := json.MarshalIndent(out, "", "  ")
		fmt.Println(string(data))
		return
	}
	printResult(out)

	if !matched(out) {
		cleanup()
		os.Exit(2)
	}
}

func verifier(deps *app.Dependencies, logger *slog.Logger) *verification.ReplayVerifier {
	return verification.NewReplayVerifier(verification.ReplayVerifierOptions{
		RunStore:      deps.RunStore,
		TradeStore:    deps.TradeStore,
		SnapshotStore: deps.SnapshotStore,
		Logger:        logger,
	})
}

// windowSummary is the outcome of a window replay.
type windowSummary struct {
	RunID         string  `json:"run_id"`
	Strategy      string  `json:"strategy"`
	Processed     int     `json:"snapshots_processed"`
	Skipped       int     `json:"snapshots_skipped"`
	Trades        int     `json:"trades"`
	FinalPosition float64 `json:"final_position"`
	RealizedPnL   float64 `json:"realized_pnl"`
	UnrealizedPnL float64 `json:"unrealized_pnl"`
	DurationMs    int64   `json:"duration_ms"`
}

func replayWindow(ctx context.Context, deps *app.Dependencies, cfg *config.Config, t strategy.Type, from, to int64, logger *slog.Logger) (*windowSummary, error) {
	if cfg.Data.DatasetID == "" {
		return nil, fmt.Errorf("-dataset is required with -strategy")
	}

	var sc strategy.Config
	switch t {
	case strategy.TypeMarketMaker:
		mm := cfg.MarketMaker
		sc = strategy.Config{Type: t, MarketMaker: &mm}
	case strategy.TypeMomentum:
		mo := cfg.Momentum
		sc = strategy.Config{Type: t, Momentum: &mo}
	default:
		return nil, fmt.Errorf("%w: %q", strategy.ErrUnknownStrategyType, t)
	}
	s, err := strategy.FromConfig(sc)
	if err != nil {
		return nil, err
	}

	runner := backtest.NewRunner(replay.NewRunner(deps.SnapshotStore), backtest.Options{
		Policy:        cfg.Policy(),
		CurveInterval: cfg.Backtest.CurveInterval,
		Logger:        logger,
	})
	res, err := runner.Run(ctx, uuid.Must(uuid.NewRandom()).String(), cfg.Data.DatasetID, from, to, s)
	if err != nil {
		return nil, err
	}

	return &windowSummary{
		RunID:         res.RunID,
		Strategy:      res.StrategyName,
		Processed:     res.SnapshotsProcessed,
		Skipped:       res.SnapshotsSkipped,
		Trades:        res.TradeCount,
		FinalPosition: res.Quantity,
		RealizedPnL:   res.RealizedPnL,
		UnrealizedPnL: res.UnrealizedPnL,
		DurationMs:    res.Duration.Milliseconds(),
	}, nil
}

func printResult(out any) {
	switch v := out.(type) {
	case *verification.VerificationResult:
		printVerification(v)
	case *verification.VerificationReport:
		fmt.Printf("Runs: %d  matched: %d  divergent: %d\n", v.TotalRuns, v.MatchedRuns, v.DivergentRuns)
		for i := range v.Results {
			printVerification(&v.Results[i])
		}
	case *windowSummary:
		fmt.Printf("Run:        %s (%s)\n", v.RunID, v.Strategy)
		fmt.Printf("Snapshots:  %d processed, %d skipped\n", v.Processed, v.Skipped)
		fmt.Printf("Trades:     %d\n", v.Trades)
		fmt.Printf("Position:   %.6f\n", v.FinalPosition)
		fmt.Printf("PnL:        realized %.6f  unrealized %.6f\n", v.RealizedPnL, v.UnrealizedPnL)
		fmt.Printf("Duration:   %d ms\n", v.DurationMs)
	}
}

func printVerification(r *verification.VerificationResult) {
	status := "MATCH"
	if !r.Match {
		status = "DIVERGED"
	}
	fmt.Printf("%s  %s  trades %d/%d  realized %.6f/%.6f\n",
		status, r.RunID, r.StoredTrades, r.ReplayedTrades, r.StoredPnL, r.ReplayedPnL)
	for _, d := range r.Divergences {
		where := "run"
		if d.Seq != verification.RunLevel {
			where = fmt.Sprintf("trade #%d", d.Seq)
		}
		fmt.Printf("    %s %s: stored=%v replayed=%v\n", where, d.Field, d.Expected, d.Actual)
	}
}

func matched(out any) bool {
	switch v := out.(type) {
	case *verification.VerificationResult:
		return v.Match
	case *verification.VerificationReport:
		return v.DivergentRuns == 0
	default:
		return true
	}
}
