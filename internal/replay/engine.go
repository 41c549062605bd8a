// Package replay feeds stored depth snapshots through an engine in
// deterministic order.
package replay

import (
	"context"

	"github.com/iminoaru/zaphft/internal/domain"
)

// ReplayEngine processes snapshots in order.
type ReplayEngine interface {
	// OnSnapshot is called for each snapshot in order.
	// Returning an error stops the replay.
	OnSnapshot(ctx context.Context, snap *domain.Snapshot) error
}

// EngineFunc adapts a function to ReplayEngine.
type EngineFunc func(ctx context.Context, snap *domain.Snapshot) error

// OnSnapshot implements ReplayEngine.
func (f EngineFunc) OnSnapshot(ctx context.Context, snap *domain.Snapshot) error {
	return f(ctx, snap)
}
