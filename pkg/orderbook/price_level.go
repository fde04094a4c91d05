package orderbook

import (
	"github.com/gammazero/deque"
	"github.com/shopspring/decimal"
)

// priceLevel is the FIFO queue of resting orders at one price on one side.
type priceLevel struct {
	price  decimal.Decimal
	orders deque.Deque[*Order]
	qty    decimal.Decimal // sum of leaves
}

func newPriceLevel(price decimal.Decimal) *priceLevel {
	return &priceLevel{price: price, qty: decimal.Zero}
}

func (l *priceLevel) push(o *Order) {
	l.orders.PushBack(o)
	l.qty = l.qty.Add(o.LeavesQty)
}

func (l *priceLevel) front() *Order {
	if l.orders.Len() == 0 {
		return nil
	}
	return l.orders.Front()
}

func (l *priceLevel) popFront() *Order {
	if l.orders.Len() == 0 {
		return nil
	}
	o := l.orders.PopFront()
	l.qty = l.qty.Sub(o.LeavesQty)
	return o
}

// reduce keeps the level total in step after a resting order's leaves
// shrank in place (a fill or an amend down).
func (l *priceLevel) reduce(qty decimal.Decimal) {
	l.qty = l.qty.Sub(qty)
}

func (l *priceLevel) remove(id uint64) (*Order, bool) {
	idx := l.orders.Index(func(o *Order) bool { return o.ID == id })
	if idx < 0 {
		return nil, false
	}
	o := l.orders.Remove(idx)
	l.qty = l.qty.Sub(o.LeavesQty)
	return o, true
}

func (l *priceLevel) len() int {
	return l.orders.Len()
}

func (l *priceLevel) empty() bool {
	return l.orders.Len() == 0
}

func (l *priceLevel) each(fn func(o *Order)) {
	for i := 0; i < l.orders.Len(); i++ {
		fn(l.orders.At(i))
	}
}
