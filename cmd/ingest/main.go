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
	"github.com/iminoaru/zaphft/internal/marketdata"
)

func main() {
	// Parse flags
	configPath := flag.String("config", "", "Path to TOML config file")
	dataPath := flag.String("data", "", "Snapshot CSV file to ingest (overrides data.path)")
	limit := flag.Int("limit", -1, "Ingest at most this many snapshots (0 = all)")
	rawPath := flag.String("add-headers", "", "Raw snapshot file whose first line is replaced by the generated header; the result is written to -data and ingested")
	list := flag.Bool("list", false, "List stored datasets and exit")
	useMemory := flag.Bool("use-memory", false, "Use in-memory storage (dry run)")

	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	if *dataPath != "" {
		cfg.Data.Path = *dataPath
	}
	if *limit >= 0 {
		cfg.Data.Limit = *limit
	}
	if *useMemory {
		cfg.Storage.UseMemory = true
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	logger := cfg.NewLogger(os.Stderr)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, *rawPath, *list, logger); err != nil {
		logger.Error("ingest failed", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, rawPath string, list bool, logger *slog.Logger) error {
	deps, cleanup, err := app.Wire(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	if list {
		ids, err := deps.SnapshotStore.ListDatasets(ctx)
		if err != nil {
			return fmt.Errorf("list datasets: %w", err)
		}
		for _, id := range ids {
			fmt.Println(id)
		}
		return nil
	}

	if cfg.Data.Path == "" {
		return fmt.Errorf("-data (or data.path) is required")
	}

	if rawPath != "" {
		rows, err := marketdata.AddHeaders(rawPath, cfg.Data.Path)
		if err != nil {
			return fmt.Errorf("add headers: %w", err)
		}
		logger.Info("headers added",
			slog.String("input", rawPath),
			slog.String("output", cfg.Data.Path),
			slog.Int("rows", rows),
		)
	}

	ds, err := deps.IngestCSV(ctx, cfg.Data.Path, cfg.Data.Limit, logger)
	if err != nil {
		return err
	}

	first, last := ds.Snapshots[0], ds.Snapshots[len(ds.Snapshots)-1]
	fmt.Printf("dataset_id=%s snapshots=%d from_us=%d to_us=%d new=%t\n",
		ds.ID, len(ds.Snapshots), first.TimestampUs, last.TimestampUs, ds.Ingested)
	return nil
}
