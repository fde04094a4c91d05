package orderbook

import (
	"errors"
	"math"
	"testing"

	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func newTestBook(t testing.TB) *OrderBook {
	t.Helper()
	ob, err := New("GCH9M9", dec("0.01"))
	if err != nil {
		t.Fatalf("new book: %v", err)
	}
	return ob
}

func assertDec(t testing.TB, name string, got decimal.Decimal, want string) {
	t.Helper()
	if !got.Equal(dec(want)) {
		t.Errorf("%s: expected %s, got %s", name, want, got)
	}
}

// addAndCheck submits an order and verifies the NEW acknowledgement that must
// lead every accepted submission.
func addAndCheck(t testing.TB, ob *OrderBook, price, qty float64, side Side) []ExecutionReport {
	t.Helper()
	reports, err := ob.AddOrder(price, qty, side)
	if err != nil {
		t.Fatalf("add order %v@%v %s: %v", qty, price, side, err)
	}
	if len(reports) == 0 {
		t.Fatalf("expected at least the NEW report")
	}

	ack := reports[0]
	if ack.ExecType != ExecTypeNew || ack.OrderStatus != StatusNew {
		t.Fatalf("expected NEW ack first, got %s/%s", ack.ExecType, ack.OrderStatus)
	}
	if ack.Instrument != ob.Instrument() {
		t.Errorf("expected instrument %s, got %s", ob.Instrument(), ack.Instrument)
	}
	if ack.TradeInfo != nil {
		t.Errorf("NEW ack must not carry trade info")
	}
	info := ack.OrderInfo
	if !info.Price.Equal(decimal.NewFromFloat(price)) {
		t.Errorf("ack price: expected %v, got %s", price, info.Price)
	}
	if !info.Qty.Equal(decimal.NewFromFloat(qty)) || !info.LeavesQty.Equal(info.Qty) {
		t.Errorf("ack qty/leaves: expected %v, got %s/%s", qty, info.Qty, info.LeavesQty)
	}
	if !info.CumQty.IsZero() {
		t.Errorf("ack cum qty: expected 0, got %s", info.CumQty)
	}
	if info.Side != side {
		t.Errorf("ack side: expected %s, got %s", side, info.Side)
	}
	return reports
}

// checkTrades verifies that the reports at passive all traded at price and
// that the aggressor report at active aggregates them.
func checkTrades(t testing.TB, reports []ExecutionReport, passive []int, active int, price string) {
	t.Helper()
	total := decimal.Zero
	for _, idx := range passive {
		r := reports[idx]
		if !r.IsTrade() || r.TradeInfo.Aggressor {
			t.Fatalf("report %d: expected passive trade, got %+v", idx, r)
		}
		assertDec(t, "passive trade price", r.TradeInfo.TradePrice, price)
		total = total.Add(r.TradeInfo.TradeQty)
	}

	a := reports[active]
	if !a.IsTrade() || !a.TradeInfo.Aggressor {
		t.Fatalf("report %d: expected aggressor trade, got %+v", active, a)
	}
	assertDec(t, "aggressor trade price", a.TradeInfo.TradePrice, price)
	assertDec(t, "aggressor trade qty", a.TradeInfo.TradeQty, total.String())
	if len(a.TradeInfo.CounterOrderIDs) != len(passive) {
		t.Errorf("expected %d counter orders, got %v", len(passive), a.TradeInfo.CounterOrderIDs)
	}
}

func TestNewBookRejectsBadTickSize(t *testing.T) {
	for _, tick := range []string{"0", "-0.01"} {
		if _, err := New("X", dec(tick)); !errors.Is(err, ErrInvalidTickSize) {
			t.Errorf("tick %s: expected ErrInvalidTickSize, got %v", tick, err)
		}
	}
}

func TestAddOrderSimple(t *testing.T) {
	ob := newTestBook(t)

	reports := addAndCheck(t, ob, 1.0, 1.0, BUY)
	if len(reports) != 1 {
		t.Fatalf("expected 1 report, got %d", len(reports))
	}
	if reports[0].OrderInfo.OrderID != 1 {
		t.Errorf("expected order id 1, got %d", reports[0].OrderInfo.OrderID)
	}

	bid, ok := ob.BestBid()
	if !ok {
		t.Fatalf("expected a best bid")
	}
	assertDec(t, "best bid", bid, "1")
	if _, ok := ob.BestAsk(); ok {
		t.Errorf("expected no ask")
	}
}

func TestAddAndExecuteOrder(t *testing.T) {
	ob := newTestBook(t)

	reports := addAndCheck(t, ob, 1.0, 1.0, BUY)
	if len(reports) != 1 || reports[0].OrderInfo.OrderID != 1 {
		t.Fatalf("unexpected reports for first order: %+v", reports)
	}

	// a negative limit is valid and crosses any bid
	reports = addAndCheck(t, ob, -1.0, 1.0, SELL)
	if len(reports) != 3 {
		t.Fatalf("expected 3 reports, got %d", len(reports))
	}
	if reports[0].OrderInfo.OrderID != 2 {
		t.Errorf("expected order id 2, got %d", reports[0].OrderInfo.OrderID)
	}
	checkTrades(t, reports, []int{1}, 2, "1")

	passive, active := reports[1], reports[2]
	if passive.OrderInfo.OrderID != 1 || active.OrderInfo.OrderID != 2 {
		t.Errorf("expected passive 1 then active 2, got %d then %d", passive.OrderInfo.OrderID, active.OrderInfo.OrderID)
	}
	if passive.OrderStatus != StatusFilled || active.OrderStatus != StatusFilled {
		t.Errorf("expected both filled, got %s and %s", passive.OrderStatus, active.OrderStatus)
	}
	assertDec(t, "passive leaves", passive.OrderInfo.LeavesQty, "0")
	assertDec(t, "active leaves", active.OrderInfo.LeavesQty, "0")
	if passive.TradeInfo.CounterOrderIDs[0] != 2 || active.TradeInfo.CounterOrderIDs[0] != 1 {
		t.Errorf("counterparties not linked: %+v / %+v", passive.TradeInfo, active.TradeInfo)
	}

	if _, ok := ob.BestBid(); ok {
		t.Errorf("expected empty bid side")
	}
	if _, ok := ob.BestAsk(); ok {
		t.Errorf("expected empty ask side")
	}
	if ob.Len() != 0 {
		t.Errorf("expected no resting orders, got %d", ob.Len())
	}
}

func TestNoMatchDueToPrice(t *testing.T) {
	ob := newTestBook(t)

	addAndCheck(t, ob, 100.0, 10, SELL)
	reports := addAndCheck(t, ob, 98.0, 10, BUY)
	if len(reports) != 1 {
		t.Fatalf("expected only the NEW ack, got %d reports", len(reports))
	}

	depth := ob.Depth(0)
	if len(depth.Bids) != 1 || len(depth.Asks) != 1 {
		t.Fatalf("expected one level per side, got %+v", depth)
	}
	assertDec(t, "bid", depth.Bids[0].Price, "98")
	assertDec(t, "ask", depth.Asks[0].Price, "100")
}

func TestPartialMatchPassiveRemains(t *testing.T) {
	ob := newTestBook(t)

	addAndCheck(t, ob, 1.0, 2.0, BUY)
	reports := addAndCheck(t, ob, 1.0, 1.0, SELL)
	if len(reports) != 3 {
		t.Fatalf("expected 3 reports, got %d", len(reports))
	}
	checkTrades(t, reports, []int{1}, 2, "1")
	if reports[1].OrderStatus != StatusPartiallyFilled {
		t.Errorf("expected passive partially filled, got %s", reports[1].OrderStatus)
	}
	if reports[2].OrderStatus != StatusFilled {
		t.Errorf("expected active filled, got %s", reports[2].OrderStatus)
	}

	passive, err := ob.Order(1)
	if err != nil {
		t.Fatalf("passive order should still rest: %v", err)
	}
	assertDec(t, "passive leaves", passive.LeavesQty, "1")
	assertDec(t, "passive cum", passive.CumQty, "1")

	if _, err := ob.Order(2); !errors.Is(err, ErrOrderNotFound) {
		t.Errorf("active order must not rest, got %v", err)
	}
	if _, ok := ob.BestAsk(); ok {
		t.Errorf("expected no ask")
	}
	bid, _ := ob.BestBid()
	assertDec(t, "best bid", bid, "1")
}

func TestPartialMatchAggressorRests(t *testing.T) {
	ob := newTestBook(t)

	addAndCheck(t, ob, 100.0, 5, SELL)
	reports := addAndCheck(t, ob, 101.0, 10, BUY)
	checkTrades(t, reports, []int{1}, 2, "100")
	if reports[2].OrderStatus != StatusPartiallyFilled {
		t.Errorf("expected aggressor partially filled, got %s", reports[2].OrderStatus)
	}

	bid, ok := ob.BestBid()
	if !ok {
		t.Fatalf("expected remainder to rest")
	}
	assertDec(t, "best bid", bid, "101")
	o, _ := ob.Order(2)
	assertDec(t, "resting leaves", o.LeavesQty, "5")
}

func TestFIFOMatchSamePrice(t *testing.T) {
	ob := newTestBook(t)

	addAndCheck(t, ob, 1.0, 1.0, BUY)
	addAndCheck(t, ob, 1.0, 1.0, BUY)

	reports := addAndCheck(t, ob, 1.0, 1.5, SELL)
	if len(reports) != 4 {
		t.Fatalf("expected 4 reports, got %d", len(reports))
	}
	checkTrades(t, reports, []int{1, 2}, 3, "1")

	if reports[1].OrderInfo.OrderID != 1 || reports[2].OrderInfo.OrderID != 2 {
		t.Fatalf("expected FIFO fills 1 then 2, got %d then %d", reports[1].OrderInfo.OrderID, reports[2].OrderInfo.OrderID)
	}
	assertDec(t, "first fill", reports[1].TradeInfo.TradeQty, "1")
	assertDec(t, "second fill", reports[2].TradeInfo.TradeQty, "0.5")
	assertDec(t, "aggregated", reports[3].TradeInfo.TradeQty, "1.5")

	o, err := ob.Order(2)
	if err != nil {
		t.Fatalf("order 2 should rest: %v", err)
	}
	assertDec(t, "order 2 leaves", o.LeavesQty, "0.5")
	if _, err := ob.Order(1); !errors.Is(err, ErrOrderNotFound) {
		t.Errorf("order 1 should be gone, got %v", err)
	}
}

func TestMultiLevelMatch(t *testing.T) {
	ob := newTestBook(t)

	addAndCheck(t, ob, 101.0, 5, SELL)
	addAndCheck(t, ob, 103.0, 5, SELL)
	addAndCheck(t, ob, 102.0, 5, SELL)

	reports := addAndCheck(t, ob, 105.0, 15, BUY)
	if len(reports) != 7 {
		t.Fatalf("expected 7 reports, got %d", len(reports))
	}

	// one aggregated aggressor report per crossed level, best price first
	checkTrades(t, reports, []int{1}, 2, "101")
	checkTrades(t, reports, []int{3}, 4, "102")
	checkTrades(t, reports, []int{5}, 6, "103")
	if reports[3].OrderInfo.OrderID != 3 || reports[5].OrderInfo.OrderID != 2 {
		t.Errorf("expected price priority over arrival order")
	}
	assertDec(t, "aggressor cum after first level", reports[2].OrderInfo.CumQty, "5")
	assertDec(t, "aggressor cum at the end", reports[6].OrderInfo.CumQty, "15")
	if reports[6].OrderStatus != StatusFilled {
		t.Errorf("expected aggressor filled, got %s", reports[6].OrderStatus)
	}
	if ob.Len() != 0 {
		t.Errorf("expected empty book, got %d orders", ob.Len())
	}
}

func TestOrderIDsAreGapFree(t *testing.T) {
	ob := newTestBook(t)

	want := uint64(1)
	check := func(reports []ExecutionReport) {
		t.Helper()
		if got := reports[0].OrderInfo.OrderID; got != want {
			t.Fatalf("expected id %d, got %d", want, got)
		}
		want++
	}

	check(addAndCheck(t, ob, 10, 1, BUY))
	check(addAndCheck(t, ob, 10, 1, SELL)) // fills immediately
	check(addAndCheck(t, ob, 11, 3, SELL))
	if _, err := ob.AddOrder(11, 0, BUY); err == nil {
		t.Fatalf("expected reject")
	}
	check(addAndCheck(t, ob, 12, 1, BUY))
	if ob.LastOrderID() != 4 {
		t.Errorf("expected last id 4, got %d", ob.LastOrderID())
	}
}

func TestRejectedOrderIsNoOp(t *testing.T) {
	ob := newTestBook(t)
	addAndCheck(t, ob, 10, 1, BUY)
	addAndCheck(t, ob, 11, 2, SELL)
	before := ob.Depth(0)

	cases := []struct {
		name  string
		price float64
		qty   float64
		side  Side
	}{
		{"zero qty", 10, 0, BUY},
		{"negative qty", 10, -1, SELL},
		{"nan price", math.NaN(), 1, BUY},
		{"inf price", math.Inf(1), 1, SELL},
		{"inf qty", 10, math.Inf(1), BUY},
		{"bad side", 10, 1, Side("HOLD")},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			reports, err := ob.AddOrder(tc.price, tc.qty, tc.side)
			if !errors.Is(err, ErrInvalidOrder) {
				t.Fatalf("expected ErrInvalidOrder, got %v", err)
			}
			if reports != nil {
				t.Errorf("expected no reports, got %+v", reports)
			}
			if ob.LastOrderID() != 2 {
				t.Errorf("id counter moved to %d", ob.LastOrderID())
			}
		})
	}

	after := ob.Depth(0)
	if len(after.Bids) != len(before.Bids) || len(after.Asks) != len(before.Asks) {
		t.Fatalf("depth changed: %+v -> %+v", before, after)
	}
	assertDec(t, "bid qty", after.Bids[0].Qty, before.Bids[0].Qty.String())
	assertDec(t, "ask qty", after.Asks[0].Qty, before.Asks[0].Qty.String())

	reports := addAndCheck(t, ob, 9, 1, BUY)
	if reports[0].OrderInfo.OrderID != 3 {
		t.Errorf("expected next id 3, got %d", reports[0].OrderInfo.OrderID)
	}
}

func TestPriceIsQuantizedBeforeMatching(t *testing.T) {
	ob := newTestBook(t)

	addAndCheck(t, ob, 1.01, 1, SELL)
	reports, err := ob.AddOrder(1.005, 1, BUY) // rounds up to 1.01 and crosses
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	assertDec(t, "quantized price", reports[0].OrderInfo.Price, "1.01")
	if len(reports) != 3 {
		t.Fatalf("expected a trade after quantization, got %d reports", len(reports))
	}
	checkTrades(t, reports, []int{1}, 2, "1.01")
}

func TestExecIDsIncrease(t *testing.T) {
	ob := newTestBook(t)
	addAndCheck(t, ob, 1, 1, BUY)
	addAndCheck(t, ob, 1, 1, BUY)
	reports := addAndCheck(t, ob, 1, 2, SELL)

	last := uint64(2)
	for _, r := range reports {
		if r.ExecID != last+1 {
			t.Fatalf("expected exec id %d, got %d", last+1, r.ExecID)
		}
		last = r.ExecID
	}
}

func TestDepthAggregatesLevels(t *testing.T) {
	ob := newTestBook(t)
	addAndCheck(t, ob, 99, 1, BUY)
	addAndCheck(t, ob, 100, 2, BUY)
	addAndCheck(t, ob, 100, 3, BUY)
	addAndCheck(t, ob, 98, 4, BUY)
	addAndCheck(t, ob, 101, 5, SELL)

	depth := ob.Depth(2)
	if len(depth.Bids) != 2 || len(depth.Asks) != 1 {
		t.Fatalf("unexpected depth %+v", depth)
	}
	assertDec(t, "top bid", depth.Bids[0].Price, "100")
	assertDec(t, "top bid qty", depth.Bids[0].Qty, "5")
	if depth.Bids[0].Orders != 2 {
		t.Errorf("expected 2 orders at top bid, got %d", depth.Bids[0].Orders)
	}
	assertDec(t, "second bid", depth.Bids[1].Price, "99")

	if all := ob.Depth(0); len(all.Bids) != 3 {
		t.Errorf("expected 3 bid levels, got %d", len(all.Bids))
	}
	if err := ob.checkInvariants(); err != nil {
		t.Fatal(err)
	}
}

func BenchmarkOrderBookMatch(b *testing.B) {
	ob := newTestBook(b)

	for i := 0; i < 10_000; i++ {
		if _, err := ob.AddOrder(100.0+float64(i%5), 10, SELL); err != nil {
			b.Fatal(err)
		}
	}

	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		if _, err := ob.AddOrder(101.0, 10, BUY); err != nil {
			b.Fatal(err)
		}
		if _, err := ob.AddOrder(101.0, 10, SELL); err != nil {
			b.Fatal(err)
		}
	}
}
