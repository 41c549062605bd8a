package backtest

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/iminoaru/zaphft/internal/domain"
	"github.com/iminoaru/zaphft/internal/orderbook"
	"github.com/iminoaru/zaphft/internal/position"
	"github.com/iminoaru/zaphft/internal/replay"
	"github.com/iminoaru/zaphft/internal/strategy"
)

// DefaultCurveInterval is the number of accepted snapshots between curve samples.
const DefaultCurveInterval = 100

// Options configures an engine.
type Options struct {
	RunID         string
	Policy        Policy
	CurveInterval int          // <= 0 means DefaultCurveInterval
	Logger        *slog.Logger // nil means slog.Default()
}

// Engine drives one strategy over a snapshot stream with its own ledger.
// Implements replay.ReplayEngine.
type Engine struct {
	strategy strategy.Strategy
	ledger   *position.Ledger
	book     *orderbook.Book
	opts     Options
	logger   *slog.Logger

	processed int
	skipped   int

	lastTs   int64
	firstTs  int64
	firstMid float64
	lastMid  float64
	volume   float64
	peakPnL  float64
	curves   Curves
}

// NewEngine creates a new backtest engine for s.
func NewEngine(s strategy.Strategy, opts Options) *Engine {
	if opts.CurveInterval <= 0 {
		opts.CurveInterval = DefaultCurveInterval
	}
	if opts.Policy == "" {
		opts.Policy = PolicySkip
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Engine{
		strategy: s,
		ledger:   position.NewLedger(),
		book:     orderbook.NewBook(),
		opts:     opts,
		logger: logger.With(
			slog.String("run_id", opts.RunID),
			slog.String("strategy", s.Name()),
		),
	}
}

// OnSnapshot validates snap, hands it to the strategy and applies the
// resulting trades to the ledger in order.
// Implements replay.ReplayEngine.
func (e *Engine) OnSnapshot(_ context.Context, snap *domain.Snapshot) error {
	view := orderbook.NewView(snap)

	if err := view.Validate(); err != nil {
		return e.reject(snap, fmt.Errorf("%w: row %d: %v", ErrInvalidSnapshot, snap.RowIndex, err))
	}
	if e.processed > 0 && snap.TimestampUs < e.lastTs {
		return e.reject(snap, fmt.Errorf("%w: row %d at %d after %d",
			ErrOutOfOrder, snap.RowIndex, snap.TimestampUs, e.lastTs))
	}

	e.book.Update(snap)
	mid := view.Mid()
	if e.processed == 0 {
		e.firstMid = mid
		e.firstTs = snap.TimestampUs
	}
	e.lastMid = mid
	e.lastTs = snap.TimestampUs

	for _, t := range e.strategy.OnMarketData(snap, e.ledger) {
		if err := e.ledger.ExecuteTrade(t); err != nil {
			return fmt.Errorf("%s at row %d: %w", e.strategy.Name(), snap.RowIndex, err)
		}
		e.volume += t.Quantity
	}

	if e.processed%e.opts.CurveInterval == 0 {
		e.sample(snap, mid)
	}
	e.processed++

	return nil
}

// reject applies the invalid-snapshot policy.
func (e *Engine) reject(snap *domain.Snapshot, err error) error {
	if e.opts.Policy == PolicyAbort {
		return err
	}
	e.skipped++
	e.logger.Debug("skipping snapshot",
		slog.Int64("row", snap.RowIndex),
		slog.String("reason", err.Error()),
	)
	return nil
}

func (e *Engine) sample(snap *domain.Snapshot, mid float64) {
	pnl := e.ledger.TotalPnL(mid)
	if pnl > e.peakPnL {
		e.peakPnL = pnl
	}

	point := func(v float64) domain.CurvePoint {
		return domain.CurvePoint{Index: e.processed, TimestampUs: snap.TimestampUs, Value: v}
	}

	e.curves.PnL = append(e.curves.PnL, point(pnl))
	e.curves.Position = append(e.curves.Position, point(e.ledger.Quantity()))
	e.curves.Volume = append(e.curves.Volume, point(e.volume))
	e.curves.Drawdown = append(e.curves.Drawdown, point(e.peakPnL-pnl))
}

// Ledger returns the engine's ledger.
func (e *Engine) Ledger() *position.Ledger {
	return e.ledger
}

// Results returns the backtest results so far. Duration is filled in by the runner.
func (e *Engine) Results() *Results {
	l := e.ledger
	return &Results{
		RunID:              e.opts.RunID,
		StrategyName:       e.strategy.Name(),
		Stats:              e.strategy.Stats(),
		Quantity:           l.Quantity(),
		AvgEntryPrice:      l.AvgEntryPrice(),
		RealizedPnL:        l.RealizedPnL(),
		UnrealizedPnL:      l.UnrealizedPnL(e.lastMid),
		TradeCount:         l.TradeCount(),
		TotalBought:        l.TotalBought(),
		TotalSold:          l.TotalSold(),
		Trades:             l.Trades(),
		Impacts:            l.RealizedImpacts(),
		PositionAfter:      l.PositionPath(),
		Curves:             e.curves,
		SnapshotsProcessed: e.processed,
		SnapshotsSkipped:   e.skipped,
		FirstMid:           e.firstMid,
		LastMid:            e.lastMid,
		FirstTimestampUs:   e.firstTs,
		LastTimestampUs:    e.lastTs,
	}
}

// Ensure Engine implements replay.ReplayEngine
var _ replay.ReplayEngine = (*Engine)(nil)
