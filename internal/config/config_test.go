package config

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iminoaru/zaphft/internal/backtest"
	"github.com/iminoaru/zaphft/internal/strategy"
)

func TestDefaultsValidate(t *testing.T) {
	cfg := Defaults()
	require.NoError(t, cfg.Validate())

	cfgs, err := cfg.StrategyConfigs()
	require.NoError(t, err)
	require.Len(t, cfgs, 2)
	assert.Equal(t, strategy.TypeMarketMaker, cfgs[0].Type)
	assert.Equal(t, strategy.DefaultMarketMakerConfig(), *cfgs[0].MarketMaker)
	assert.Equal(t, strategy.TypeMomentum, cfgs[1].Type)
	assert.Equal(t, backtest.PolicySkip, cfg.Policy())
}

func TestLoad_FileThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "zaphft.toml")
	content := `
log_level = "debug"

[data]
path = "book.csv"
limit = 500

[backtest]
strategies = ["momentum"]
invalid_snapshot_policy = "abort"
curve_interval = 10

[momentum]
threshold = 2.5
trade_size = 0.2
max_position = 1.0
lookback = 20
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	t.Setenv("ZAPHFT_DATA_LIMIT", "50")
	t.Setenv("ZAPHFT_MOMENTUM_LOOKBACK", "not-a-number")
	t.Setenv("ZAPHFT_ARCHIVE_SECRET_KEY", "s3cret")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "book.csv", cfg.Data.Path)
	assert.Equal(t, 50, cfg.Data.Limit, "env overrides file")
	assert.Equal(t, 20, cfg.Momentum.Lookback, "unparseable env value is ignored")
	assert.Equal(t, 2.5, cfg.Momentum.Threshold)
	assert.Equal(t, backtest.PolicyAbort, cfg.Policy())
	assert.Equal(t, "s3cret", cfg.Archive.SecretKey)

	// Untouched sections keep their defaults
	assert.Equal(t, strategy.DefaultMarketMakerConfig(), cfg.MarketMaker)

	cfgs, err := cfg.StrategyConfigs()
	require.NoError(t, err)
	require.Len(t, cfgs, 1)
	assert.Equal(t, 20, cfgs[0].Momentum.Lookback)
}

func TestLoad_NoFile(t *testing.T) {
	t.Setenv("ZAPHFT_BACKTEST_STRATEGIES", " market_maker , ")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, []string{"market_maker"}, cfg.Backtest.Strategies)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	assert.Error(t, err)
}

func TestValidate_CollectsAllProblems(t *testing.T) {
	cfg := Defaults()
	cfg.LogLevel = "loud"
	cfg.Storage.UseMemory = false
	cfg.Backtest.Strategies = []string{"arbitrage"}
	cfg.Backtest.InvalidSnapshotPolicy = "ignore"
	cfg.Backtest.CurveInterval = 0
	cfg.MarketMaker.MaxPosition = 0
	cfg.Momentum.Lookback = 0

	err := cfg.Validate()
	require.Error(t, err)

	msg := err.Error()
	for _, want := range []string{
		"log_level",
		"postgres_dsn",
		"clickhouse_dsn",
		"unknown strategy type",
		"invalid-snapshot policy",
		"curve_interval",
		"market_maker: max_position",
		"momentum: lookback",
	} {
		assert.True(t, strings.Contains(msg, want), "missing %q in:\n%s", want, msg)
	}
}

func TestRedactedConfig(t *testing.T) {
	cfg := Defaults()
	cfg.Storage.PostgresDSN = "postgres://user:pw@db/zaphft"
	cfg.Archive.SecretKey = "secret"

	out := RedactedConfig(&cfg)
	assert.Equal(t, "***", out.Storage.PostgresDSN)
	assert.Equal(t, "***", out.Archive.SecretKey)
	assert.Equal(t, "", out.Archive.AccessKey)
	assert.Equal(t, "postgres://user:pw@db/zaphft", cfg.Storage.PostgresDSN, "original untouched")
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	cfg := Defaults()
	cfg.LogLevel = "warn"
	cfg.LogFormat = "json"

	logger := cfg.NewLogger(&buf)
	logger.Info("hidden")
	logger.Warn("shown", slog.String("k", "v"))

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, `"msg":"shown"`)
	assert.Contains(t, out, `"k":"v"`)
}
