package orderbook

import (
	"errors"
	"testing"
)

func TestCancelOrder(t *testing.T) {
	ob := newTestBook(t)
	addAndCheck(t, ob, 100, 10, BUY)

	report, err := ob.CancelOrder(1)
	if err != nil {
		t.Fatalf("expected cancel success: %v", err)
	}
	if report.ExecType != ExecTypeCanceled || report.OrderStatus != StatusCancelled {
		t.Errorf("expected CANCELED/CANCELLED, got %s/%s", report.ExecType, report.OrderStatus)
	}
	if report.TradeInfo != nil {
		t.Errorf("cancel report must not carry trade info")
	}
	assertDec(t, "cum+leaves", report.OrderInfo.CumQty.Add(report.OrderInfo.LeavesQty), "10")

	if _, err := ob.Order(1); !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("order should be removed, got %v", err)
	}
	if _, ok := ob.BestBid(); ok {
		t.Errorf("level should be removed with its last order")
	}

	if _, err := ob.CancelOrder(1); !errors.Is(err, ErrOrderNotFound) {
		t.Errorf("second cancel: expected ErrOrderNotFound, got %v", err)
	}
}

func TestCancelUnknownOrFilledOrder(t *testing.T) {
	ob := newTestBook(t)

	if _, err := ob.CancelOrder(42); !errors.Is(err, ErrOrderNotFound) {
		t.Errorf("expected ErrOrderNotFound, got %v", err)
	}

	addAndCheck(t, ob, 100, 1, BUY)
	addAndCheck(t, ob, 100, 1, SELL)
	for _, id := range []uint64{1, 2} {
		if _, err := ob.CancelOrder(id); !errors.Is(err, ErrOrderNotFound) {
			t.Errorf("filled order %d: expected ErrOrderNotFound, got %v", id, err)
		}
	}
}

func TestCancelKeepsQueuePriority(t *testing.T) {
	ob := newTestBook(t)
	addAndCheck(t, ob, 100, 1, SELL)
	addAndCheck(t, ob, 100, 1, SELL)
	addAndCheck(t, ob, 100, 1, SELL)

	if _, err := ob.CancelOrder(2); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	reports := addAndCheck(t, ob, 100, 2, BUY)
	checkTrades(t, reports, []int{1, 2}, 3, "100")
	if reports[1].OrderInfo.OrderID != 1 || reports[2].OrderInfo.OrderID != 3 {
		t.Errorf("expected fills on 1 then 3, got %d then %d", reports[1].OrderInfo.OrderID, reports[2].OrderInfo.OrderID)
	}
}

func TestCancelPartiallyFilled(t *testing.T) {
	ob := newTestBook(t)
	addAndCheck(t, ob, 100, 10, BUY)
	addAndCheck(t, ob, 100, 4, SELL)

	report, err := ob.CancelOrder(1)
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	assertDec(t, "cum", report.OrderInfo.CumQty, "4")
	assertDec(t, "leaves", report.OrderInfo.LeavesQty, "6")
	if err := ob.checkInvariants(); err != nil {
		t.Fatal(err)
	}
}

func TestModifyOrder_DecreaseQty(t *testing.T) {
	ob := newTestBook(t)
	addAndCheck(t, ob, 100, 10, BUY)
	addAndCheck(t, ob, 100, 10, BUY)

	reports, err := ob.AmendOrder(1, 100, 5)
	if err != nil {
		t.Fatalf("expected modify success: %v", err)
	}
	if len(reports) != 1 || reports[0].ExecType != ExecTypeReplaced {
		t.Fatalf("expected a single REPLACED report, got %+v", reports)
	}

	modified, _ := ob.Order(1)
	assertDec(t, "qty", modified.Qty, "5")
	assertDec(t, "leaves", modified.LeavesQty, "5")
	assertDec(t, "price", modified.Price, "100")

	depth := ob.Depth(1)
	assertDec(t, "level qty", depth.Bids[0].Qty, "15")

	// order 1 keeps its place ahead of order 2
	fills := addAndCheck(t, ob, 100, 5, SELL)
	if fills[1].OrderInfo.OrderID != 1 {
		t.Errorf("expected order 1 to keep priority, got fill on %d", fills[1].OrderInfo.OrderID)
	}
}

func TestModifyOrder_IncreaseQtyLosesPriority(t *testing.T) {
	ob := newTestBook(t)
	addAndCheck(t, ob, 100, 10, BUY)
	addAndCheck(t, ob, 100, 10, BUY)

	if _, err := ob.AmendOrder(1, 100, 20); err != nil {
		t.Fatalf("modify: %v", err)
	}

	fills := addAndCheck(t, ob, 100, 5, SELL)
	if fills[1].OrderInfo.OrderID != 2 {
		t.Errorf("expected order 2 to be first now, got fill on %d", fills[1].OrderInfo.OrderID)
	}
	depth := ob.Depth(1)
	assertDec(t, "level qty", depth.Bids[0].Qty, "25")
}

func TestModifyOrder_PriceChangeCrosses(t *testing.T) {
	ob := newTestBook(t)
	addAndCheck(t, ob, 101, 3, SELL)
	addAndCheck(t, ob, 99, 5, BUY)

	reports, err := ob.AmendOrder(2, 101, 5)
	if err != nil {
		t.Fatalf("modify: %v", err)
	}
	if len(reports) != 3 {
		t.Fatalf("expected REPLACED plus one trade pair, got %d reports", len(reports))
	}
	if reports[0].ExecType != ExecTypeReplaced {
		t.Errorf("expected REPLACED first, got %s", reports[0].ExecType)
	}
	assertDec(t, "replaced price", reports[0].OrderInfo.Price, "101")
	checkTrades(t, reports, []int{1}, 2, "101")

	o, err := ob.Order(2)
	if err != nil {
		t.Fatalf("remainder should rest: %v", err)
	}
	assertDec(t, "leaves", o.LeavesQty, "2")
	if _, ok := ob.BestAsk(); ok {
		t.Errorf("ask should be consumed")
	}
}

func TestModifyOrder_PartiallyFilled(t *testing.T) {
	ob := newTestBook(t)
	addAndCheck(t, ob, 100, 10, BUY)
	addAndCheck(t, ob, 100, 4, SELL)

	if _, err := ob.AmendOrder(1, 100, 4); !errors.Is(err, ErrInvalidOrder) {
		t.Errorf("qty equal to cum: expected ErrInvalidOrder, got %v", err)
	}
	if _, err := ob.AmendOrder(1, 100, 3); !errors.Is(err, ErrInvalidOrder) {
		t.Errorf("qty below cum: expected ErrInvalidOrder, got %v", err)
	}

	reports, err := ob.AmendOrder(1, 100, 6)
	if err != nil {
		t.Fatalf("modify: %v", err)
	}
	info := reports[0].OrderInfo
	assertDec(t, "qty", info.Qty, "6")
	assertDec(t, "cum", info.CumQty, "4")
	assertDec(t, "leaves", info.LeavesQty, "2")
	if reports[0].OrderStatus != StatusPartiallyFilled {
		t.Errorf("expected PARTIALLY_FILLED, got %s", reports[0].OrderStatus)
	}
	if err := ob.checkInvariants(); err != nil {
		t.Fatal(err)
	}
}

func TestModifyUnknownOrder(t *testing.T) {
	ob := newTestBook(t)
	if _, err := ob.AmendOrder(7, 100, 1); !errors.Is(err, ErrOrderNotFound) {
		t.Errorf("expected ErrOrderNotFound, got %v", err)
	}
}
