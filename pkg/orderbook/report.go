package orderbook

import "github.com/shopspring/decimal"

type ExecType string

const (
	ExecTypeNew      ExecType = "NEW"
	ExecTypeTrade    ExecType = "TRADE"
	ExecTypeCanceled ExecType = "CANCELED"
	ExecTypeReplaced ExecType = "REPLACED"
)

// OrderInfo is the state of the order right after the event that produced the
// report.
type OrderInfo struct {
	OrderID   uint64          `json:"order_id"`
	Side      Side            `json:"side"`
	Price     decimal.Decimal `json:"price"`
	Qty       decimal.Decimal `json:"qty"`
	CumQty    decimal.Decimal `json:"cum_qty"`
	LeavesQty decimal.Decimal `json:"leaves_qty"`
}

// TradeInfo describes one fill from the point of view of OrderInfo.OrderID.
// A passive report has exactly one counter order (the aggressor); the
// aggressor's report lists every passive order it filled at TradePrice.
type TradeInfo struct {
	TradePrice      decimal.Decimal `json:"trade_price"`
	TradeQty        decimal.Decimal `json:"trade_qty"`
	Aggressor       bool            `json:"aggressor"`
	CounterOrderIDs []uint64        `json:"counter_order_ids"`
}

// ExecutionReport is an immutable output record. TradeInfo is set only when
// ExecType is ExecTypeTrade.
type ExecutionReport struct {
	ExecID      uint64      `json:"exec_id"`
	ExecType    ExecType    `json:"exec_type"`
	OrderStatus OrderStatus `json:"order_status"`
	Instrument  string      `json:"instrument"`
	OrderInfo   OrderInfo   `json:"order_info"`
	TradeInfo   *TradeInfo  `json:"trade_info,omitempty"`
}

// IsTrade reports whether r carries a fill.
func (r ExecutionReport) IsTrade() bool {
	return r.ExecType == ExecTypeTrade && r.TradeInfo != nil
}

func (ob *OrderBook) newReport(execType ExecType, o *Order) ExecutionReport {
	ob.execID++
	return ExecutionReport{
		ExecID:      ob.execID,
		ExecType:    execType,
		OrderStatus: o.Status,
		Instrument:  ob.instrument,
		OrderInfo:   o.info(),
	}
}

func (ob *OrderBook) tradeReport(o *Order, price, qty decimal.Decimal, aggressor bool, counterIDs []uint64) ExecutionReport {
	r := ob.newReport(ExecTypeTrade, o)
	r.TradeInfo = &TradeInfo{
		TradePrice:      price,
		TradeQty:        qty,
		Aggressor:       aggressor,
		CounterOrderIDs: counterIDs,
	}
	return r
}
