package replay

import "errors"

var (
	// ErrInvalidOrdering is returned when snapshots are not properly ordered.
	ErrInvalidOrdering = errors.New("snapshots are not in deterministic order")

	// ErrEmptyDataset is returned when a replay window contains no snapshots.
	ErrEmptyDataset = errors.New("no snapshots to replay")
)
