package replay

import (
	"fmt"
	"sort"

	"github.com/iminoaru/zaphft/internal/domain"
)

// SortSnapshots orders snapshots by (timestamp_us ASC, row_index ASC).
// Stable, so exact duplicates keep their input order.
func SortSnapshots(snaps []*domain.Snapshot) {
	sort.SliceStable(snaps, func(i, j int) bool {
		return compareSnapshots(snaps[i], snaps[j]) < 0
	})
}

// ValidateOrdering checks that timestamps never decrease.
// Returns ErrInvalidOrdering naming the first offending row.
func ValidateOrdering(snaps []*domain.Snapshot) error {
	for i := 1; i < len(snaps); i++ {
		if snaps[i].TimestampUs < snaps[i-1].TimestampUs {
			return fmt.Errorf("%w: row %d at %d after %d",
				ErrInvalidOrdering, snaps[i].RowIndex, snaps[i].TimestampUs, snaps[i-1].TimestampUs)
		}
	}
	return nil
}

// compareSnapshots returns:
//   - negative if a < b
//   - zero if a == b
//   - positive if a > b
//
// Order: (timestamp_us ASC, row_index ASC)
func compareSnapshots(a, b *domain.Snapshot) int {
	if a.TimestampUs != b.TimestampUs {
		if a.TimestampUs < b.TimestampUs {
			return -1
		}
		return 1
	}
	if a.RowIndex != b.RowIndex {
		if a.RowIndex < b.RowIndex {
			return -1
		}
		return 1
	}
	return 0
}
