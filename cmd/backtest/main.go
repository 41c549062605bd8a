package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/iminoaru/zaphft/internal/app"
	"github.com/iminoaru/zaphft/internal/config"
	"github.com/iminoaru/zaphft/internal/orchestrator"
	"github.com/iminoaru/zaphft/internal/reporting"
)

func main() {
	// Parse flags
	configPath := flag.String("config", "", "Path to TOML config file")
	dataPath := flag.String("data", "", "Snapshot CSV file (overrides data.path)")
	datasetID := flag.String("dataset", "", "Stored dataset ID to replay when no CSV is given")
	limit := flag.Int("limit", -1, "Read at most this many snapshots (0 = all)")
	strategies := flag.String("strategies", "", "Comma-separated strategies: market_maker,momentum")
	policy := flag.String("policy", "", "Invalid-snapshot policy: skip or abort")
	useMemory := flag.Bool("use-memory", false, "Use in-memory storage")
	outDir := flag.String("out", "", "Directory for report.md, summary.csv and per-run trades/export files")
	metricsAddr := flag.String("metrics-addr", "", "Prometheus metrics HTTP address while running (overrides metrics.listen_addr)")

	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	// Flags override the config file
	if *dataPath != "" {
		cfg.Data.Path = *dataPath
	}
	if *datasetID != "" {
		cfg.Data.DatasetID = *datasetID
	}
	if *limit >= 0 {
		cfg.Data.Limit = *limit
	}
	if *strategies != "" {
		cfg.Backtest.Strategies = splitList(*strategies)
	}
	if *policy != "" {
		cfg.Backtest.InvalidSnapshotPolicy = *policy
	}
	if *useMemory {
		cfg.Storage.UseMemory = true
	}
	if *metricsAddr != "" {
		cfg.Metrics.ListenAddr = *metricsAddr
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	logger := cfg.NewLogger(os.Stderr)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, *outDir, logger); err != nil {
		logger.Error("backtest failed", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, outDir string, logger *slog.Logger) error {
	deps, cleanup, err := app.Wire(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	metricsCtx, stopMetrics := context.WithCancel(ctx)
	defer stopMetrics()
	go func() {
		if err := deps.ServeMetrics(metricsCtx, cfg.Metrics.ListenAddr, logger); err != nil {
			logger.Warn("metrics server stopped", slog.Any("error", err))
		}
	}()

	ds, err := deps.LoadDataset(ctx, cfg.Data.Path, cfg.Data.DatasetID, cfg.Data.Limit, logger)
	if err != nil {
		return err
	}

	strategyConfigs, err := cfg.StrategyConfigs()
	if err != nil {
		return err
	}

	orch := orchestrator.New(orchestrator.Options{
		RunStore:        deps.RunStore,
		TradeStore:      deps.TradeStore,
		Uploader:        deps.Uploader,
		Metrics:         deps.Metrics,
		Strategies:      strategyConfigs,
		Policy:          cfg.Policy(),
		CurveInterval:   cfg.Backtest.CurveInterval,
		StartingCapital: cfg.Backtest.StartingCapital,
		RecentTrades:    cfg.Backtest.RecentTrades,
		Logger:          logger,
	})

	result, err := orch.RunSnapshots(ctx, ds.ID, ds.Snapshots)
	if err != nil {
		return err
	}

	if outDir == "" {
		fmt.Print(reporting.RenderMarkdown(result.Report))
		return nil
	}
	paths, err := reporting.WriteDir(outDir, result.Report)
	if err != nil {
		return err
	}
	for _, p := range paths {
		logger.Info("wrote output", slog.String("path", p))
	}
	return nil
}
