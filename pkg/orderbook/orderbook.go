// file: pkg/orderbook/orderbook.go

package orderbook

import (
	"fmt"
	"math"

	"github.com/joripage/lightengine/pkg/sequence"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// IDGenerator hands out order ids. The default is a per-book sequencer
// starting at 1; share one between books for ids unique across instruments.
type IDGenerator interface {
	Next() uint64
}

type Option func(*OrderBook)

func WithIDGenerator(gen IDGenerator) Option {
	return func(ob *OrderBook) {
		ob.ids = gen
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(ob *OrderBook) {
		ob.logger = logger
	}
}

// OrderBook is a price-time priority limit order book for one instrument.
// It does no locking: callers must serialize access to one instance.
type OrderBook struct {
	instrument string
	tickSize   decimal.Decimal

	bids *bookSide
	asks *bookSide

	orders *registry
	ids    IDGenerator

	lastID uint64
	seq    uint64 // arrival sequence
	execID uint64

	logger *zap.Logger
}

// New creates an empty book. tickSize must be strictly positive.
func New(instrument string, tickSize decimal.Decimal, opts ...Option) (*OrderBook, error) {
	if !tickSize.IsPositive() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidTickSize, tickSize)
	}

	ob := &OrderBook{
		instrument: instrument,
		tickSize:   tickSize,
		bids:       newBookSide(BUY),
		asks:       newBookSide(SELL),
		orders:     newRegistry(),
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(ob)
	}
	if ob.ids == nil {
		ob.ids = sequence.New(0)
	}

	return ob, nil
}

func (ob *OrderBook) Instrument() string {
	return ob.instrument
}

func (ob *OrderBook) TickSize() decimal.Decimal {
	return ob.tickSize
}

// LastOrderID is the id given to the last accepted order, 0 if none.
func (ob *OrderBook) LastOrderID() uint64 {
	return ob.lastID
}

// AddOrder submits a new limit order and returns the NEW acknowledgement
// followed by every trade report it produced.
func (ob *OrderBook) AddOrder(price, qty float64, side Side) ([]ExecutionReport, error) {
	p, err := finite("price", price)
	if err != nil {
		return nil, ob.reject(err)
	}
	q, err := finite("qty", qty)
	if err != nil {
		return nil, ob.reject(err)
	}

	return ob.AddOrderDecimal(p, q, side)
}

// AddOrderDecimal is AddOrder for callers already holding decimals.
func (ob *OrderBook) AddOrderDecimal(price, qty decimal.Decimal, side Side) ([]ExecutionReport, error) {
	if !side.valid() {
		return nil, ob.reject(fmt.Errorf("%w: side %q", ErrInvalidOrder, side))
	}
	if !qty.IsPositive() {
		return nil, ob.reject(fmt.Errorf("%w: qty %s must be positive", ErrInvalidOrder, qty))
	}

	o := &Order{
		ID:         ob.ids.Next(),
		Instrument: ob.instrument,
		Side:       side,
		Price:      quantize(price, ob.tickSize),
		Qty:        qty,
		CumQty:     decimal.Zero,
		LeavesQty:  qty,
		Status:     StatusNew,
		Sequence:   ob.nextSeq(),
	}
	ob.lastID = o.ID
	ob.orders.register(o)

	reports := []ExecutionReport{ob.newReport(ExecTypeNew, o)}
	reports = ob.cross(o, reports)
	ob.restOrRetire(o)

	ob.assertInvariants()
	return reports, nil
}

// CancelOrder removes a resting order from the book.
func (ob *OrderBook) CancelOrder(id uint64) (ExecutionReport, error) {
	o, err := ob.orders.lookup(id)
	if err != nil {
		return ExecutionReport{}, err
	}

	ob.unlink(o)
	ob.orders.remove(id)
	o.Status = StatusCancelled

	ob.logger.Debug("order cancelled",
		zap.String("instrument", ob.instrument),
		zap.Uint64("order_id", id),
		zap.String("leaves_qty", o.LeavesQty.String()),
	)

	ob.assertInvariants()
	return ob.newReport(ExecTypeCanceled, o), nil
}

// AmendOrder replaces price and total quantity of a resting order. qty is the
// new original quantity and must exceed what already traded. The order keeps
// its time priority only when the price is unchanged and qty does not grow;
// otherwise it is re-crossed at the new price and queued last.
func (ob *OrderBook) AmendOrder(id uint64, price, qty float64) ([]ExecutionReport, error) {
	p, err := finite("price", price)
	if err != nil {
		return nil, ob.reject(err)
	}
	q, err := finite("qty", qty)
	if err != nil {
		return nil, ob.reject(err)
	}

	return ob.AmendOrderDecimal(id, p, q)
}

func (ob *OrderBook) AmendOrderDecimal(id uint64, price, qty decimal.Decimal) ([]ExecutionReport, error) {
	o, err := ob.orders.lookup(id)
	if err != nil {
		return nil, err
	}
	if !qty.GreaterThan(o.CumQty) {
		return nil, ob.reject(fmt.Errorf("%w: qty %s must exceed cum qty %s", ErrInvalidOrder, qty, o.CumQty))
	}

	price = quantize(price, ob.tickSize)
	leaves := qty.Sub(o.CumQty)

	if price.Equal(o.Price) && leaves.LessThanOrEqual(o.LeavesQty) {
		if lvl, ok := ob.sideOf(o.Side).level(o.Price); ok {
			lvl.reduce(o.LeavesQty.Sub(leaves))
		}
		o.Qty = qty
		o.LeavesQty = leaves

		ob.assertInvariants()
		return []ExecutionReport{ob.newReport(ExecTypeReplaced, o)}, nil
	}

	ob.unlink(o)
	o.Price = price
	o.Qty = qty
	o.LeavesQty = leaves
	o.Sequence = ob.nextSeq()

	reports := []ExecutionReport{ob.newReport(ExecTypeReplaced, o)}
	reports = ob.cross(o, reports)
	ob.restOrRetire(o)

	ob.assertInvariants()
	return reports, nil
}

// cross matches o against the contra side until o is filled or the best
// contra level is no longer marketable. Each crossed level yields one report
// per passive fill followed by one aggregated report for o.
func (ob *OrderBook) cross(o *Order, reports []ExecutionReport) []ExecutionReport {
	contra := ob.sideOf(o.Side.Opposite())

	for o.LeavesQty.IsPositive() {
		lvl, ok := contra.best()
		if !ok || !o.marketable(lvl.price) {
			break
		}

		levelQty := decimal.Zero
		var counterIDs []uint64

		for o.LeavesQty.IsPositive() && !lvl.empty() {
			resting := lvl.front()
			fill := decimal.Min(o.LeavesQty, resting.LeavesQty)

			resting.fill(fill)
			lvl.reduce(fill)
			o.fill(fill)

			levelQty = levelQty.Add(fill)
			counterIDs = append(counterIDs, resting.ID)
			reports = append(reports, ob.tradeReport(resting, lvl.price, fill, false, []uint64{o.ID}))

			if resting.LeavesQty.IsZero() {
				lvl.popFront()
				ob.orders.remove(resting.ID)
			}
		}

		if lvl.empty() {
			contra.removeLevel(lvl)
		}

		reports = append(reports, ob.tradeReport(o, lvl.price, levelQty, true, counterIDs))
	}

	return reports
}

func (ob *OrderBook) restOrRetire(o *Order) {
	if o.LeavesQty.IsPositive() {
		ob.sideOf(o.Side).getOrCreate(o.Price).push(o)
		return
	}
	ob.orders.remove(o.ID)
}

func (ob *OrderBook) unlink(o *Order) {
	side := ob.sideOf(o.Side)
	lvl, ok := side.level(o.Price)
	if !ok {
		return
	}
	lvl.remove(o.ID)
	if lvl.empty() {
		side.removeLevel(lvl)
	}
}

func (ob *OrderBook) sideOf(s Side) *bookSide {
	if s == BUY {
		return ob.bids
	}
	return ob.asks
}

func (ob *OrderBook) nextSeq() uint64 {
	ob.seq++
	return ob.seq
}

func (ob *OrderBook) reject(err error) error {
	ob.logger.Debug("order rejected", zap.String("instrument", ob.instrument), zap.Error(err))
	return err
}

func finite(name string, v float64) (decimal.Decimal, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return decimal.Zero, fmt.Errorf("%w: %s %v is not finite", ErrInvalidOrder, name, v)
	}
	return decimal.NewFromFloat(v), nil
}
