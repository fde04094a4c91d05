package model

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/joripage/lightengine/pkg/orderbook"
	"github.com/shopspring/decimal"
)

// OrderEvent is one execution report as it is journaled, published and
// persisted. EventID is unique per report and makes inserts idempotent.
type OrderEvent struct {
	ID              int64               `json:"-" gorm:"primaryKey;autoIncrement"`
	EventID         string              `json:"event_id" gorm:"column:event_id"`
	Instrument      string              `json:"instrument"`
	OrderID         uint64              `json:"order_id"`
	ExecID          uint64              `json:"exec_id"`
	ClOrdID         string              `json:"cl_ord_id"`
	OrigClOrdID     string              `json:"orig_cl_ord_id,omitempty"`
	ExecType        OrderExecType       `json:"exec_type"`
	OrderStatus     OrderStatus         `json:"order_status"`
	Side            OrderSide           `json:"side"`
	Price           decimal.Decimal     `json:"price" gorm:"type:numeric"`
	Qty             decimal.Decimal     `json:"qty" gorm:"type:numeric"`
	CumQty          decimal.Decimal     `json:"cum_qty" gorm:"type:numeric"`
	LeavesQty       decimal.Decimal     `json:"leaves_qty" gorm:"type:numeric"`
	TradePrice      decimal.NullDecimal `json:"trade_price" gorm:"type:numeric"`
	TradeQty        decimal.NullDecimal `json:"trade_qty" gorm:"type:numeric"`
	Aggressor       bool                `json:"aggressor"`
	CounterOrderIDs string              `json:"counter_order_ids"`
	EventTime       time.Time           `json:"event_time"`
	CreatedAt       time.Time           `json:"-" gorm:"autoCreateTime"`
}

func (OrderEvent) TableName() string {
	return "order_events"
}

// OrderKey is the key of the order the event belongs to.
func (ev *OrderEvent) OrderKey() string {
	return OrderKey(ev.Instrument, ev.OrderID)
}

func NewOrderEvent(r orderbook.ExecutionReport, clOrdID, origClOrdID string, ts time.Time) *OrderEvent {
	info := r.OrderInfo
	ev := &OrderEvent{
		EventID:     NewEventID(r.Instrument, r.ExecID),
		Instrument:  r.Instrument,
		OrderID:     info.OrderID,
		ExecID:      r.ExecID,
		ClOrdID:     clOrdID,
		OrigClOrdID: origClOrdID,
		ExecType:    execTypeMapping[r.ExecType],
		OrderStatus: statusMapping[r.OrderStatus],
		Side:        OrderSide(info.Side),
		Price:       info.Price,
		Qty:         info.Qty,
		CumQty:      info.CumQty,
		LeavesQty:   info.LeavesQty,
		EventTime:   ts,
	}

	if r.IsTrade() {
		ev.TradePrice = decimal.NewNullDecimal(r.TradeInfo.TradePrice)
		ev.TradeQty = decimal.NewNullDecimal(r.TradeInfo.TradeQty)
		ev.Aggressor = r.TradeInfo.Aggressor
		ev.CounterOrderIDs = joinIDs(r.TradeInfo.CounterOrderIDs)
	}
	return ev
}

// NewEventID is unique per report: exec ids never repeat within a book.
func NewEventID(instrument string, execID uint64) string {
	return fmt.Sprintf("%s-%d", instrument, execID)
}

func joinIDs(ids []uint64) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatUint(id, 10)
	}
	return strings.Join(parts, ",")
}
