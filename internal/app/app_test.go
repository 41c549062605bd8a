package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iminoaru/zaphft/internal/config"
	"github.com/iminoaru/zaphft/internal/marketdata"
	"github.com/iminoaru/zaphft/internal/replay"
)

func writeCSV(t *testing.T, rows int) string {
	t.Helper()

	lines := []string{strings.Join(marketdata.Headers(), ",")}
	for r := 0; r < rows; r++ {
		bid := 100 + float64(r%5)*0.5
		fields := []string{fmt.Sprint(r), fmt.Sprint(int64(r+1) * 1000), "2024-01-01 00:00:00.000"}
		for i := 0; i < 10; i++ {
			fields = append(fields, fmt.Sprint(bid-float64(i)), "1")
		}
		for i := 0; i < 10; i++ {
			fields = append(fields, fmt.Sprint(bid+1+float64(i)), "1")
		}
		lines = append(lines, strings.Join(fields, ","))
	}

	path := filepath.Join(t.TempDir(), "book.csv")
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o644))
	return path
}

func wireMemory(t *testing.T) *Dependencies {
	t.Helper()

	cfg := config.Defaults()
	cfg.Storage.UseMemory = true

	deps, cleanup, err := Wire(context.Background(), &cfg, nil)
	require.NoError(t, err)
	t.Cleanup(cleanup)
	return deps
}

func TestWire_Memory(t *testing.T) {
	deps := wireMemory(t)

	assert.NotNil(t, deps.SnapshotStore)
	assert.NotNil(t, deps.RunStore)
	assert.NotNil(t, deps.TradeStore)
	assert.NotNil(t, deps.Metrics)
	assert.Nil(t, deps.Archive, "archive is disabled without a bucket")
	assert.Nil(t, deps.Uploader)
}

func TestIngestCSV(t *testing.T) {
	ctx := context.Background()
	deps := wireMemory(t)
	path := writeCSV(t, 12)

	ds, err := deps.IngestCSV(ctx, path, 0, nil)
	require.NoError(t, err)
	assert.True(t, ds.Ingested)
	assert.Len(t, ds.Snapshots, 12)
	assert.Len(t, ds.ID, 16)

	again, err := deps.IngestCSV(ctx, path, 0, nil)
	require.NoError(t, err)
	assert.False(t, again.Ingested)
	assert.Equal(t, ds.ID, again.ID)

	ids, err := deps.SnapshotStore.ListDatasets(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{ds.ID}, ids)

	assert.Equal(t, 12.0, testutil.ToFloat64(deps.Metrics.SnapshotsIngested))
	assert.Positive(t, testutil.CollectAndCount(deps.Metrics.DBQueryDuration))
}

func TestIngestCSV_LimitChangesID(t *testing.T) {
	ctx := context.Background()
	deps := wireMemory(t)
	path := writeCSV(t, 12)

	full, err := deps.IngestCSV(ctx, path, 0, nil)
	require.NoError(t, err)
	head, err := deps.IngestCSV(ctx, path, 5, nil)
	require.NoError(t, err)

	assert.NotEqual(t, full.ID, head.ID)
	assert.Len(t, head.Snapshots, 5)
}

func TestLoadDataset(t *testing.T) {
	ctx := context.Background()
	deps := wireMemory(t)

	_, err := deps.LoadDataset(ctx, "", "", 0, nil)
	assert.ErrorIs(t, err, ErrNoDataset)

	_, err = deps.LoadDataset(ctx, "", "unknown", 0, nil)
	assert.ErrorIs(t, err, replay.ErrEmptyDataset)

	ingested, err := deps.LoadDataset(ctx, writeCSV(t, 8), "", 0, nil)
	require.NoError(t, err)

	stored, err := deps.LoadDataset(ctx, "", ingested.ID, 3, nil)
	require.NoError(t, err)
	assert.Equal(t, ingested.ID, stored.ID)
	require.Len(t, stored.Snapshots, 3)
	assert.Equal(t, int64(0), stored.Snapshots[0].RowIndex)
}

func TestServeMetrics_Disabled(t *testing.T) {
	deps := wireMemory(t)

	assert.NoError(t, deps.ServeMetrics(context.Background(), "", nil))
}
