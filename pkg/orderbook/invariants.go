package orderbook

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// checkInvariants walks the whole book. A non-nil result means a bug in the
// book, never bad input.
func (ob *OrderBook) checkInvariants() error {
	resting := 0
	for _, side := range []*bookSide{ob.bids, ob.asks} {
		var prev *priceLevel
		var err error
		side.scan(func(lvl *priceLevel) bool {
			if prev != nil {
				better := prev.price.GreaterThan(lvl.price)
				if side.side == SELL {
					better = prev.price.LessThan(lvl.price)
				}
				if !better {
					err = fmt.Errorf("%s levels out of order: %s before %s", side.side, prev.price, lvl.price)
					return false
				}
			}
			prev = lvl

			if lvl.empty() {
				err = fmt.Errorf("%s level %s is empty", side.side, lvl.price)
				return false
			}

			total := decimal.Zero
			var lastSeq uint64
			lvl.each(func(o *Order) {
				if err != nil {
					return
				}
				switch {
				case o.Side != side.side || !o.Price.Equal(lvl.price):
					err = fmt.Errorf("order %d (%s %s) queued at %s %s", o.ID, o.Side, o.Price, side.side, lvl.price)
				case !o.LeavesQty.IsPositive():
					err = fmt.Errorf("order %d rests with leaves %s", o.ID, o.LeavesQty)
				case !o.CumQty.Add(o.LeavesQty).Equal(o.Qty):
					err = fmt.Errorf("order %d: cum %s + leaves %s != qty %s", o.ID, o.CumQty, o.LeavesQty, o.Qty)
				case o.Sequence <= lastSeq:
					err = fmt.Errorf("order %d breaks time priority at %s", o.ID, lvl.price)
				}
				if reg, lookupErr := ob.orders.lookup(o.ID); lookupErr != nil || reg != o {
					err = fmt.Errorf("order %d resting but not registered", o.ID)
				}
				lastSeq = o.Sequence
				total = total.Add(o.LeavesQty)
				resting++
			})
			if err == nil && !total.Equal(lvl.qty) {
				err = fmt.Errorf("%s level %s total %s != sum of leaves %s", side.side, lvl.price, lvl.qty, total)
			}
			return err == nil
		})
		if err != nil {
			return err
		}
	}

	if resting != ob.orders.len() {
		return fmt.Errorf("%d resting orders but %d registered", resting, ob.orders.len())
	}

	bid, hasBid := ob.BestBid()
	ask, hasAsk := ob.BestAsk()
	if hasBid && hasAsk && !bid.LessThan(ask) {
		return fmt.Errorf("book crossed: bid %s >= ask %s", bid, ask)
	}
	return nil
}

func (ob *OrderBook) assertInvariants() {
	if !debugInvariants {
		return
	}
	if err := ob.checkInvariants(); err != nil {
		panic(fmt.Sprintf("orderbook %s: %v", ob.instrument, err))
	}
}
