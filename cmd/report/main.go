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
	"github.com/iminoaru/zaphft/internal/reporting"
)

func main() {
	// Parse flags
	configPath := flag.String("config", "", "Path to TOML config file")
	datasetID := flag.String("dataset", "", "Report every run of this dataset (empty = all runs)")
	runID := flag.String("run", "", "Report a single run")
	outputDir := flag.String("output-dir", "reports", "Output directory for generated files")
	stdout := flag.Bool("stdout", false, "Print the Markdown report instead of writing files")
	archived := flag.Bool("archived", false, "Print the archived report.md of -run instead of rebuilding it")

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

	if cfg.Storage.UseMemory && !*archived {
		logger.Warn("in-memory storage holds no runs from earlier invocations; the report will be empty")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, *runID, *outputDir, *stdout, *archived, logger); err != nil {
		logger.Error("report failed", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, runID, outputDir string, stdout, archived bool, logger *slog.Logger) error {
	deps, cleanup, err := app.Wire(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	if archived {
		if runID == "" || deps.Archive == nil {
			return fmt.Errorf("-archived needs -run and a configured [archive] section")
		}
		data, err := deps.Archive.Get(ctx, deps.Uploader.Key(runID, "report.md"))
		if err != nil {
			return err
		}
		fmt.Print(string(data))
		return nil
	}

	gen := reporting.NewGenerator(deps.RunStore, deps.TradeStore, deps.SnapshotStore).
		WithCapital(cfg.Backtest.StartingCapital, cfg.Backtest.RecentTrades)

	var report *reporting.Report
	if runID != "" {
		report, err = gen.GenerateRun(ctx, runID)
	} else {
		report, err = gen.Generate(ctx, cfg.Data.DatasetID)
	}
	if err != nil {
		return err
	}
	deps.Metrics.RecordReport()

	if stdout {
		fmt.Print(reporting.RenderMarkdown(report))
		return nil
	}

	paths, err := reporting.WriteDir(outputDir, report)
	if err != nil {
		return err
	}

	fmt.Printf("Report generated for %d run(s):\n", len(report.Runs))
	for _, p := range paths {
		fmt.Printf("  - %s\n", p)
	}
	return nil
}
