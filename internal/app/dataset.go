package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/iminoaru/zaphft/internal/domain"
	"github.com/iminoaru/zaphft/internal/idhash"
	"github.com/iminoaru/zaphft/internal/marketdata"
	"github.com/iminoaru/zaphft/internal/replay"
	"github.com/iminoaru/zaphft/internal/storage"
)

// ErrNoDataset is returned when neither a CSV path nor a dataset id is given.
var ErrNoDataset = errors.New("either a data path or a dataset id is required")

// Dataset is a snapshot set ready for replay.
type Dataset struct {
	ID        string
	Snapshots []*domain.Snapshot
	Ingested  bool // false when the store already held the dataset
}

// IngestCSV reads up to limit rows of the CSV at path and stores them under
// a dataset id derived from the file name, row count and time span.
// Re-ingesting the same file is a no-op.
func (d *Dependencies) IngestCSV(ctx context.Context, path string, limit int, logger *slog.Logger) (*Dataset, error) {
	if logger == nil {
		logger = slog.Default()
	}

	snaps, err := marketdata.ReadAll(path, limit)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if len(snaps) == 0 {
		return nil, fmt.Errorf("read %s: %w", path, replay.ErrEmptyDataset)
	}
	replay.SortSnapshots(snaps)

	id := idhash.ComputeDatasetID(filepath.Base(path), len(snaps), snaps[0].TimestampUs, snaps[len(snaps)-1].TimestampUs)
	ds := &Dataset{ID: id, Snapshots: snaps, Ingested: true}

	err = d.SnapshotStore.InsertBulk(ctx, id, snaps)
	switch {
	case errors.Is(err, storage.ErrDuplicateKey):
		ds.Ingested = false
		logger.Info("dataset already stored", slog.String("dataset_id", id))
	case err != nil:
		return nil, fmt.Errorf("store dataset %s: %w", id, err)
	default:
		d.Metrics.RecordIngest(len(snaps))
		logger.Info("dataset ingested",
			slog.String("dataset_id", id),
			slog.String("source", path),
			slog.Int("snapshots", len(snaps)),
		)
	}
	return ds, nil
}

// LoadDataset returns the snapshots named by path (ingesting them first) or,
// when path is empty, the stored dataset datasetID.
func (d *Dependencies) LoadDataset(ctx context.Context, path, datasetID string, limit int, logger *slog.Logger) (*Dataset, error) {
	if path != "" {
		return d.IngestCSV(ctx, path, limit, logger)
	}
	if datasetID == "" {
		return nil, ErrNoDataset
	}

	snaps, err := d.SnapshotStore.GetByDataset(ctx, datasetID)
	if err != nil {
		return nil, fmt.Errorf("load dataset %s: %w", datasetID, err)
	}
	if len(snaps) == 0 {
		return nil, fmt.Errorf("dataset %s: %w", datasetID, replay.ErrEmptyDataset)
	}
	replay.SortSnapshots(snaps)
	if limit > 0 && len(snaps) > limit {
		snaps = snaps[:limit]
	}

	return &Dataset{ID: datasetID, Snapshots: snaps}, nil
}
