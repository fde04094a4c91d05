package orderbook

import "github.com/shopspring/decimal"

type Side string

const (
	BUY  Side = "BUY"
	SELL Side = "SELL"
)

func (s Side) valid() bool {
	return s == BUY || s == SELL
}

// Opposite returns the contra side.
func (s Side) Opposite() Side {
	if s == BUY {
		return SELL
	}
	return BUY
}

type OrderStatus string

const (
	StatusNew             OrderStatus = "NEW"
	StatusPartiallyFilled OrderStatus = "PARTIALLY_FILLED"
	StatusFilled          OrderStatus = "FILLED"
	StatusCancelled       OrderStatus = "CANCELLED"
)

// Order is the engine's view of one limit order. Orders reachable from a book
// are owned by it; callers only ever get copies.
type Order struct {
	ID         uint64
	Instrument string
	Side       Side
	Price      decimal.Decimal
	Qty        decimal.Decimal
	CumQty     decimal.Decimal
	LeavesQty  decimal.Decimal
	Status     OrderStatus
	Sequence   uint64 // arrival sequence, time priority inside a level
}

func (o *Order) fill(qty decimal.Decimal) {
	o.CumQty = o.CumQty.Add(qty)
	o.LeavesQty = o.LeavesQty.Sub(qty)
	if o.LeavesQty.IsZero() {
		o.Status = StatusFilled
	} else {
		o.Status = StatusPartiallyFilled
	}
}

// IsTerminal reports whether the order can no longer trade.
func (o *Order) IsTerminal() bool {
	return o.Status == StatusFilled || o.Status == StatusCancelled
}

// marketable reports whether a contra level at price can trade with o.
func (o *Order) marketable(price decimal.Decimal) bool {
	if o.Side == BUY {
		return price.LessThanOrEqual(o.Price)
	}
	return price.GreaterThanOrEqual(o.Price)
}

func (o *Order) info() OrderInfo {
	return OrderInfo{
		OrderID:   o.ID,
		Side:      o.Side,
		Price:     o.Price,
		Qty:       o.Qty,
		CumQty:    o.CumQty,
		LeavesQty: o.LeavesQty,
	}
}
