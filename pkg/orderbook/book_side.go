package orderbook

import (
	"github.com/shopspring/decimal"
	"github.com/tidwall/btree"
)

// bookSide keeps the price levels of one side ordered best first: highest
// price for bids, lowest for asks.
type bookSide struct {
	side   Side
	levels *btree.BTreeG[*priceLevel]
}

func newBookSide(side Side) *bookSide {
	less := func(a, b *priceLevel) bool { return a.price.LessThan(b.price) } // asks ascending
	if side == BUY {
		less = func(a, b *priceLevel) bool { return a.price.GreaterThan(b.price) } // bids descending
	}

	return &bookSide{
		side:   side,
		levels: btree.NewBTreeGOptions(less, btree.Options{NoLocks: true}),
	}
}

func (s *bookSide) best() (*priceLevel, bool) {
	return s.levels.Min()
}

func (s *bookSide) level(price decimal.Decimal) (*priceLevel, bool) {
	return s.levels.Get(&priceLevel{price: price})
}

func (s *bookSide) getOrCreate(price decimal.Decimal) *priceLevel {
	if lvl, ok := s.level(price); ok {
		return lvl
	}
	lvl := newPriceLevel(price)
	s.levels.Set(lvl)
	return lvl
}

func (s *bookSide) removeLevel(lvl *priceLevel) {
	s.levels.Delete(lvl)
}

// scan walks levels best first until fn returns false.
func (s *bookSide) scan(fn func(lvl *priceLevel) bool) {
	s.levels.Scan(fn)
}

func (s *bookSide) len() int {
	return s.levels.Len()
}
