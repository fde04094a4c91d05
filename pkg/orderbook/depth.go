package orderbook

import "github.com/shopspring/decimal"

// LevelSnapshot aggregates one price level.
type LevelSnapshot struct {
	Price  decimal.Decimal `json:"price"`
	Qty    decimal.Decimal `json:"qty"`
	Orders int             `json:"orders"`
}

// Snapshot is a read-only copy of the top of both sides, best price first.
type Snapshot struct {
	Instrument string          `json:"instrument"`
	Bids       []LevelSnapshot `json:"bids"`
	Asks       []LevelSnapshot `json:"asks"`
}

func (ob *OrderBook) BestBid() (decimal.Decimal, bool) {
	return bestPrice(ob.bids)
}

func (ob *OrderBook) BestAsk() (decimal.Decimal, bool) {
	return bestPrice(ob.asks)
}

func bestPrice(s *bookSide) (decimal.Decimal, bool) {
	lvl, ok := s.best()
	if !ok {
		return decimal.Zero, false
	}
	return lvl.price, true
}

// Depth returns up to levels price levels per side; levels <= 0 means all.
func (ob *OrderBook) Depth(levels int) Snapshot {
	return Snapshot{
		Instrument: ob.instrument,
		Bids:       sideDepth(ob.bids, levels),
		Asks:       sideDepth(ob.asks, levels),
	}
}

func sideDepth(s *bookSide, levels int) []LevelSnapshot {
	out := make([]LevelSnapshot, 0, s.len())
	s.scan(func(lvl *priceLevel) bool {
		out = append(out, LevelSnapshot{Price: lvl.price, Qty: lvl.qty, Orders: lvl.len()})
		return levels <= 0 || len(out) < levels
	})
	return out
}

// Order returns a copy of a live order.
func (ob *OrderBook) Order(id uint64) (Order, error) {
	o, err := ob.orders.lookup(id)
	if err != nil {
		return Order{}, err
	}
	return *o, nil
}

// Len is the number of resting orders.
func (ob *OrderBook) Len() int {
	return ob.orders.len()
}
