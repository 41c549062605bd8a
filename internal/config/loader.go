package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load builds a Config from the defaults, the TOML file at path (skipped when
// path is empty), a .env file in the working directory if one exists, and
// ZAPHFT_* environment variables, in that order. The result is not validated;
// callers invoke Config.Validate() after applying their flags.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return nil, err
		}
	}

	// Missing .env is fine.
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides overwrites Config fields from well-known ZAPHFT_*
// environment variables that are set and non-empty.
func applyEnvOverrides(cfg *Config) {
	setStr(&cfg.LogLevel, "ZAPHFT_LOG_LEVEL")
	setStr(&cfg.LogFormat, "ZAPHFT_LOG_FORMAT")

	// Data
	setStr(&cfg.Data.Path, "ZAPHFT_DATA_PATH")
	setInt(&cfg.Data.Limit, "ZAPHFT_DATA_LIMIT")
	setStr(&cfg.Data.DatasetID, "ZAPHFT_DATA_DATASET_ID")

	// Storage
	setStr(&cfg.Storage.PostgresDSN, "ZAPHFT_STORAGE_POSTGRES_DSN")
	setStr(&cfg.Storage.ClickhouseDSN, "ZAPHFT_STORAGE_CLICKHOUSE_DSN")
	setBool(&cfg.Storage.UseMemory, "ZAPHFT_STORAGE_USE_MEMORY")
	setBool(&cfg.Storage.RunMigrations, "ZAPHFT_STORAGE_RUN_MIGRATIONS")

	// Backtest
	setStringSlice(&cfg.Backtest.Strategies, "ZAPHFT_BACKTEST_STRATEGIES")
	setStr(&cfg.Backtest.InvalidSnapshotPolicy, "ZAPHFT_BACKTEST_INVALID_SNAPSHOT_POLICY")
	setInt(&cfg.Backtest.CurveInterval, "ZAPHFT_BACKTEST_CURVE_INTERVAL")
	setFloat64(&cfg.Backtest.StartingCapital, "ZAPHFT_BACKTEST_STARTING_CAPITAL")
	setInt(&cfg.Backtest.RecentTrades, "ZAPHFT_BACKTEST_RECENT_TRADES")

	// Market maker
	setFloat64(&cfg.MarketMaker.SpreadTicks, "ZAPHFT_MARKET_MAKER_SPREAD_TICKS")
	setFloat64(&cfg.MarketMaker.QuoteSize, "ZAPHFT_MARKET_MAKER_QUOTE_SIZE")
	setFloat64(&cfg.MarketMaker.MaxPosition, "ZAPHFT_MARKET_MAKER_MAX_POSITION")
	setFloat64(&cfg.MarketMaker.TickSize, "ZAPHFT_MARKET_MAKER_TICK_SIZE")
	setFloat64(&cfg.MarketMaker.InventoryThreshold, "ZAPHFT_MARKET_MAKER_INVENTORY_THRESHOLD")
	setFloat64(&cfg.MarketMaker.InventorySkewTicks, "ZAPHFT_MARKET_MAKER_INVENTORY_SKEW_TICKS")
	setFloat64(&cfg.MarketMaker.TrendFilterTicks, "ZAPHFT_MARKET_MAKER_TREND_FILTER_TICKS")
	setFloat64(&cfg.MarketMaker.HedgeInventoryRatio, "ZAPHFT_MARKET_MAKER_HEDGE_INVENTORY_RATIO")

	// Momentum
	setFloat64(&cfg.Momentum.Threshold, "ZAPHFT_MOMENTUM_THRESHOLD")
	setFloat64(&cfg.Momentum.TradeSize, "ZAPHFT_MOMENTUM_TRADE_SIZE")
	setFloat64(&cfg.Momentum.MaxPosition, "ZAPHFT_MOMENTUM_MAX_POSITION")
	setInt(&cfg.Momentum.Lookback, "ZAPHFT_MOMENTUM_LOOKBACK")

	// Metrics
	setStr(&cfg.Metrics.Namespace, "ZAPHFT_METRICS_NAMESPACE")
	setStr(&cfg.Metrics.ListenAddr, "ZAPHFT_METRICS_LISTEN_ADDR")

	// Archive
	setStr(&cfg.Archive.Endpoint, "ZAPHFT_ARCHIVE_ENDPOINT")
	setStr(&cfg.Archive.Region, "ZAPHFT_ARCHIVE_REGION")
	setStr(&cfg.Archive.Bucket, "ZAPHFT_ARCHIVE_BUCKET")
	setStr(&cfg.Archive.AccessKey, "ZAPHFT_ARCHIVE_ACCESS_KEY")
	setStr(&cfg.Archive.SecretKey, "ZAPHFT_ARCHIVE_SECRET_KEY")
	setStr(&cfg.Archive.Prefix, "ZAPHFT_ARCHIVE_PREFIX")
	setBool(&cfg.Archive.UseSSL, "ZAPHFT_ARCHIVE_USE_SSL")
	setBool(&cfg.Archive.ForcePathStyle, "ZAPHFT_ARCHIVE_FORCE_PATH_STYLE")
}

// Typed env-var helpers. Each only mutates the target when the variable is
// present, non-empty and parses.

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setFloat64(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setStringSlice(dst *[]string, key string) {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		cleaned := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				cleaned = append(cleaned, p)
			}
		}
		if len(cleaned) > 0 {
			*dst = cleaned
		}
	}
}
