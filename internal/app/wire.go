// Package app wires configuration into the stores, metrics and archive used
// by the zaphft commands.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/iminoaru/zaphft/internal/archive"
	"github.com/iminoaru/zaphft/internal/config"
	"github.com/iminoaru/zaphft/internal/observability"
	"github.com/iminoaru/zaphft/internal/storage"
	chstore "github.com/iminoaru/zaphft/internal/storage/clickhouse"
	"github.com/iminoaru/zaphft/internal/storage/memory"
	"github.com/iminoaru/zaphft/internal/storage/migrations"
	pgstore "github.com/iminoaru/zaphft/internal/storage/postgres"
)

// Dependencies bundles everything a command needs. It is constructed by Wire
// and torn down by the returned cleanup function.
type Dependencies struct {
	// Stores
	SnapshotStore storage.SnapshotStore
	RunStore      storage.RunStore
	TradeStore    storage.TradeStore

	// Observability
	Registry *prometheus.Registry
	Metrics  *observability.Metrics

	// Archive and Uploader are nil when archiving is disabled.
	Archive  *archive.Client
	Uploader *archive.Uploader
}

// Wire connects the configured stores (running migrations when asked),
// registers metrics and sets up the artifact archive.
func Wire(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, func(), error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("component", "wire"))
	logger.Debug("configuration", slog.Any("config", config.RedactedConfig(cfg)))

	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	reg := prometheus.NewRegistry()
	deps := &Dependencies{
		Registry: reg,
		Metrics:  observability.NewMetrics(cfg.Metrics.Namespace, reg),
	}

	if cfg.Storage.UseMemory {
		logger.Info("using in-memory storage")
		deps.SnapshotStore = memory.NewSnapshotStore()
		deps.RunStore = memory.NewRunStore()
		deps.TradeStore = memory.NewTradeStore()
	} else {
		// PostgreSQL for runs and trade logs
		pool, err := pgstore.NewPool(ctx, cfg.Storage.PostgresDSN)
		if err != nil {
			return nil, cleanup, fmt.Errorf("connect to postgres: %w", err)
		}
		closers = append(closers, pool.Close)

		if cfg.Storage.RunMigrations {
			if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
				cleanup()
				return nil, func() {}, fmt.Errorf("postgres migrations: %w", err)
			}
			logger.Info("postgres migrations applied")
		}

		// ClickHouse for snapshots
		var conn *chstore.Conn
		if cfg.Storage.RunMigrations {
			conn, err = migrations.RunClickhouseMigrations(ctx, cfg.Storage.ClickhouseDSN)
		} else {
			conn, err = chstore.NewConn(ctx, cfg.Storage.ClickhouseDSN)
		}
		if err != nil {
			cleanup()
			return nil, func() {}, fmt.Errorf("connect to clickhouse: %w", err)
		}
		closers = append(closers, func() { _ = conn.Close() })

		deps.SnapshotStore = chstore.NewSnapshotStore(conn)
		deps.RunStore = pgstore.NewRunStore(pool)
		deps.TradeStore = pgstore.NewTradeStore(pool)
		logger.Info("connected to postgres and clickhouse")
	}

	deps.SnapshotStore = &instrumentedSnapshotStore{next: deps.SnapshotStore, m: deps.Metrics, db: dbName(cfg, "clickhouse")}
	deps.RunStore = &instrumentedRunStore{next: deps.RunStore, m: deps.Metrics, db: dbName(cfg, "postgres")}
	deps.TradeStore = &instrumentedTradeStore{next: deps.TradeStore, m: deps.Metrics, db: dbName(cfg, "postgres")}

	if cfg.Archive.Enabled() {
		client, err := archive.New(ctx, archive.ClientConfig{
			Endpoint:       cfg.Archive.Endpoint,
			Region:         cfg.Archive.Region,
			Bucket:         cfg.Archive.Bucket,
			AccessKey:      cfg.Archive.AccessKey,
			SecretKey:      cfg.Archive.SecretKey,
			UseSSL:         cfg.Archive.UseSSL,
			ForcePathStyle: cfg.Archive.ForcePathStyle,
		})
		if err != nil {
			cleanup()
			return nil, func() {}, err
		}
		if err := client.Health(ctx); err != nil {
			cleanup()
			return nil, func() {}, fmt.Errorf("archive health check: %w", err)
		}
		deps.Archive = client
		deps.Uploader = archive.NewUploader(client, cfg.Archive.Prefix, logger).WithRecorder(deps.Metrics)
		logger.Info("archive enabled", slog.String("bucket", client.Bucket()))
	}

	return deps, cleanup, nil
}

func dbName(cfg *config.Config, backend string) string {
	if cfg.Storage.UseMemory {
		return "memory"
	}
	return backend
}
