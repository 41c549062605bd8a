// Package config defines the configuration shared by the zaphft commands
// and provides validation helpers.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/iminoaru/zaphft/internal/backtest"
	"github.com/iminoaru/zaphft/internal/strategy"
)

// Config is the root configuration structure. Fields are populated from a TOML
// file and then optionally overridden by ZAPHFT_* environment variables.
type Config struct {
	LogLevel    string                     `toml:"log_level"`
	LogFormat   string                     `toml:"log_format"`
	Data        DataConfig                 `toml:"data"`
	Storage     StorageConfig              `toml:"storage"`
	Backtest    BacktestConfig             `toml:"backtest"`
	MarketMaker strategy.MarketMakerConfig `toml:"market_maker"`
	Momentum    strategy.MomentumConfig    `toml:"momentum"`
	Metrics     MetricsConfig              `toml:"metrics"`
	Archive     ArchiveConfig              `toml:"archive"`
}

// DataConfig names the input snapshot file or stored dataset.
type DataConfig struct {
	Path      string `toml:"path"`
	Limit     int    `toml:"limit"` // 0 reads every row
	DatasetID string `toml:"dataset_id"`
}

// StorageConfig holds store connection parameters. With UseMemory set, the
// DSNs are ignored and everything lives in process memory.
type StorageConfig struct {
	PostgresDSN   string `toml:"postgres_dsn"`
	ClickhouseDSN string `toml:"clickhouse_dsn"`
	UseMemory     bool   `toml:"use_memory"`
	RunMigrations bool   `toml:"run_migrations"`
}

// BacktestConfig holds run-level options.
type BacktestConfig struct {
	Strategies            []string `toml:"strategies"`
	InvalidSnapshotPolicy string   `toml:"invalid_snapshot_policy"`
	CurveInterval         int      `toml:"curve_interval"`
	StartingCapital       float64  `toml:"starting_capital"`
	RecentTrades          int      `toml:"recent_trades"`
}

// MetricsConfig holds Prometheus settings. An empty ListenAddr disables the endpoint.
type MetricsConfig struct {
	Namespace  string `toml:"namespace"`
	ListenAddr string `toml:"listen_addr"`
}

// ArchiveConfig holds S3-compatible object storage parameters.
// An empty Bucket disables archiving.
type ArchiveConfig struct {
	Endpoint       string `toml:"endpoint"`
	Region         string `toml:"region"`
	Bucket         string `toml:"bucket"`
	AccessKey      string `toml:"access_key"`
	SecretKey      string `toml:"secret_key"`
	Prefix         string `toml:"prefix"`
	UseSSL         bool   `toml:"use_ssl"`
	ForcePathStyle bool   `toml:"force_path_style"`
}

// Enabled reports whether artifacts should be uploaded.
func (a ArchiveConfig) Enabled() bool {
	return a.Bucket != ""
}

// Defaults returns a Config populated with reasonable default values.
func Defaults() Config {
	return Config{
		LogLevel:  "info",
		LogFormat: "text",
		Storage: StorageConfig{
			UseMemory:     true,
			RunMigrations: true,
		},
		Backtest: BacktestConfig{
			Strategies:            []string{string(strategy.TypeMarketMaker), string(strategy.TypeMomentum)},
			InvalidSnapshotPolicy: string(backtest.PolicySkip),
			CurveInterval:         backtest.DefaultCurveInterval,
			StartingCapital:       10_000,
			RecentTrades:          20,
		},
		MarketMaker: strategy.DefaultMarketMakerConfig(),
		Momentum:    strategy.DefaultMomentumConfig(),
		Metrics: MetricsConfig{
			Namespace: "zaphft",
		},
		Archive: ArchiveConfig{
			Region:         "us-east-1",
			Prefix:         "reports",
			ForcePathStyle: true,
		},
	}
}

// validLogLevels enumerates the accepted values for Config.LogLevel.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// validLogFormats enumerates the accepted values for Config.LogFormat.
var validLogFormats = map[string]bool{
	"json": true,
	"text": true,
}

// Validate checks Config for invalid or missing values and returns a
// combined error describing every problem found.
func (c *Config) Validate() error {
	var errs []string

	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Sprintf("unknown log_level %q (valid: debug, info, warn, error)", c.LogLevel))
	}
	if !validLogFormats[strings.ToLower(c.LogFormat)] {
		errs = append(errs, fmt.Sprintf("unknown log_format %q (valid: json, text)", c.LogFormat))
	}

	// Data
	if c.Data.Limit < 0 {
		errs = append(errs, "data: limit must be >= 0")
	}

	// Storage
	if !c.Storage.UseMemory {
		if strings.TrimSpace(c.Storage.PostgresDSN) == "" {
			errs = append(errs, "storage: postgres_dsn must be set when use_memory is false")
		}
		if strings.TrimSpace(c.Storage.ClickhouseDSN) == "" {
			errs = append(errs, "storage: clickhouse_dsn must be set when use_memory is false")
		}
	}

	// Backtest
	if len(c.Backtest.Strategies) == 0 {
		errs = append(errs, "backtest: strategies must name at least one strategy")
	}
	if _, err := c.StrategyConfigs(); err != nil {
		errs = append(errs, "backtest: "+err.Error())
	}
	if _, err := backtest.ParsePolicy(c.Backtest.InvalidSnapshotPolicy); err != nil {
		errs = append(errs, "backtest: "+err.Error())
	}
	if c.Backtest.CurveInterval < 1 {
		errs = append(errs, "backtest: curve_interval must be >= 1")
	}
	if c.Backtest.StartingCapital <= 0 {
		errs = append(errs, "backtest: starting_capital must be > 0")
	}
	if c.Backtest.RecentTrades < 0 {
		errs = append(errs, "backtest: recent_trades must be >= 0")
	}

	// Strategy parameters
	if err := c.MarketMaker.Validate(); err != nil {
		errs = append(errs, "market_maker: "+err.Error())
	}
	if err := c.Momentum.Validate(); err != nil {
		errs = append(errs, "momentum: "+err.Error())
	}

	// Archive
	if c.Archive.Enabled() && c.Archive.Region == "" {
		errs = append(errs, "archive: region must be set when bucket is set")
	}

	if len(errs) > 0 {
		return errors.New("config validation failed:\n  - " + strings.Join(errs, "\n  - "))
	}
	return nil
}

// StrategyConfigs builds one strategy config per entry of Backtest.Strategies,
// in order, carrying the [market_maker] and [momentum] parameter blocks.
func (c *Config) StrategyConfigs() ([]strategy.Config, error) {
	cfgs := make([]strategy.Config, 0, len(c.Backtest.Strategies))
	for _, name := range c.Backtest.Strategies {
		switch t := strategy.Type(strings.TrimSpace(name)); t {
		case strategy.TypeMarketMaker:
			mm := c.MarketMaker
			cfgs = append(cfgs, strategy.Config{Type: t, MarketMaker: &mm})
		case strategy.TypeMomentum:
			mo := c.Momentum
			cfgs = append(cfgs, strategy.Config{Type: t, Momentum: &mo})
		default:
			return nil, fmt.Errorf("%w: %q", strategy.ErrUnknownStrategyType, name)
		}
	}
	return cfgs, nil
}

// Policy returns the parsed invalid-snapshot policy.
func (c *Config) Policy() backtest.Policy {
	p, err := backtest.ParsePolicy(c.Backtest.InvalidSnapshotPolicy)
	if err != nil {
		return backtest.PolicySkip
	}
	return p
}
