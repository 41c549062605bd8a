package strategy

import (
	"math"

	"github.com/iminoaru/zaphft/internal/domain"
	"github.com/iminoaru/zaphft/internal/orderbook"
)

// hedgeEpsilon is the smallest hedge quantity worth sending.
const hedgeEpsilon = 1e-9

// quote is a resting passive order.
type quote struct {
	price    float64
	quantity float64
}

// MarketMaker quotes both sides around the top of book with inventory skew,
// an inventory hedge and a short-term trend filter. Resting quotes fill when
// the opposite best price crosses them.
type MarketMaker struct {
	cfg MarketMakerConfig

	bid *quote
	ask *quote

	lastMid float64
	hasMid  bool

	updates int
	trades  int
	quotes  int
}

var _ Strategy = (*MarketMaker)(nil)

// NewMarketMaker creates a market maker. Returns an error if cfg is invalid.
func NewMarketMaker(cfg MarketMakerConfig) (*MarketMaker, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &MarketMaker{cfg: cfg}, nil
}

// Name implements Strategy.
func (m *MarketMaker) Name() string {
	return "Market Maker"
}

// Config returns the parameters.
func (m *MarketMaker) Config() MarketMakerConfig {
	return m.cfg
}

// Stats implements Strategy.
func (m *MarketMaker) Stats() Stats {
	return Stats{
		Name:             m.Name(),
		UpdatesProcessed: m.updates,
		TradesGenerated:  m.trades,
		QuotesPlaced:     m.quotes,
	}
}

// OnMarketData implements Strategy.
func (m *MarketMaker) OnMarketData(snap *domain.Snapshot, pos Position) []domain.Trade {
	m.updates++

	// Position is sampled once; fills within this call do not move it.
	qty := pos.Quantity()

	view := orderbook.NewView(snap)
	bestBid := view.BestBid()
	bestAsk := view.BestAsk()
	mid := view.Mid()

	var trend float64
	if m.hasMid {
		trend = mid - m.lastMid
	}
	m.lastMid = mid
	m.hasMid = true

	trades := m.checkFills(snap, bestBid, bestAsk)

	// A hedge pulls both quotes; they are re-evaluated below.
	if hedge, ok := m.hedge(snap, qty, bestBid, bestAsk); ok {
		trades = append(trades, hedge)
	}

	tick := m.cfg.TickSize
	skew := clamp(qty/m.cfg.MaxPosition, -1, 1) * m.cfg.InventorySkewTicks * tick
	bidPrice := bestBid - m.cfg.SpreadTicks*tick - skew
	askPrice := bestAsk + m.cfg.SpreadTicks*tick - skew

	ratio := qty / m.cfg.MaxPosition
	quoteBid := qty < m.cfg.MaxPosition && ratio < m.cfg.InventoryThreshold
	quoteAsk := qty > -m.cfg.MaxPosition && ratio > -m.cfg.InventoryThreshold

	if thr := m.cfg.TrendFilterTicks * tick; thr > 0 {
		if trend > thr && qty <= 0 {
			quoteAsk = false
		}
		if trend < -thr && qty >= 0 {
			quoteBid = false
		}
	}

	var placed bool
	if quoteBid {
		placed = m.place(&m.bid, bidPrice) || placed
	} else {
		m.bid = nil
	}
	if quoteAsk {
		placed = m.place(&m.ask, askPrice) || placed
	} else {
		m.ask = nil
	}

	if placed {
		trades = append(trades, m.checkFills(snap, bestBid, bestAsk)...)
	}

	return trades
}

// checkFills fills resting quotes crossed by the opposite best price.
// A filled quote is cleared.
func (m *MarketMaker) checkFills(snap *domain.Snapshot, bestBid, bestAsk float64) []domain.Trade {
	var trades []domain.Trade

	if m.bid != nil && bestAsk <= m.bid.price {
		trades = append(trades, domain.NewTrade(domain.SideBid, m.bid.price, m.bid.quantity, snap.TimestampUs))
		m.trades++
		m.bid = nil
	}
	if m.ask != nil && bestBid >= m.ask.price {
		trades = append(trades, domain.NewTrade(domain.SideAsk, m.ask.price, m.ask.quantity, snap.TimestampUs))
		m.trades++
		m.ask = nil
	}

	return trades
}

// hedge emits an aggressive trade that walks inventory back toward
// MaxPosition * HedgeInventoryRatio. Both quotes are pulled when it fires.
func (m *MarketMaker) hedge(snap *domain.Snapshot, qty, bestBid, bestAsk float64) (domain.Trade, bool) {
	thr := m.cfg.MaxPosition * m.cfg.HedgeInventoryRatio

	var (
		side  domain.Side
		price float64
		size  float64
	)

	switch {
	case qty > thr:
		side, price = domain.SideAsk, bestBid
		size = math.Min(qty-thr, m.cfg.QuoteSize)
	case qty < -thr:
		side, price = domain.SideBid, bestAsk
		size = math.Min(math.Abs(qty)-thr, m.cfg.QuoteSize)
	default:
		return domain.Trade{}, false
	}

	if size < hedgeEpsilon {
		return domain.Trade{}, false
	}

	m.trades++
	m.bid = nil
	m.ask = nil

	return domain.NewTrade(side, price, size, snap.TimestampUs), true
}

// place replaces the quote in slot when it is missing or has drifted at
// least half a tick from price. Reports whether a new quote was placed.
func (m *MarketMaker) place(slot **quote, price float64) bool {
	if *slot != nil && math.Abs((*slot).price-price) < m.cfg.TickSize*0.5 {
		return false
	}
	*slot = &quote{price: price, quantity: m.cfg.QuoteSize}
	m.quotes++
	return true
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
