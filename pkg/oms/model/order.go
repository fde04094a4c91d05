package model

import (
	"fmt"
	"time"

	"github.com/joripage/lightengine/pkg/orderbook"
	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusNew             OrderStatus = "New"
	OrderStatusPartiallyFilled OrderStatus = "PartiallyFilled"
	OrderStatusFilled          OrderStatus = "Filled"
	OrderStatusCanceled        OrderStatus = "Canceled"
	OrderStatusRejected        OrderStatus = "Rejected"
)

type OrderExecType string

const (
	ExecTypeNew      OrderExecType = "New"
	ExecTypeCanceled OrderExecType = "Canceled"
	ExecTypeReplaced OrderExecType = "Replaced"
	ExecTypeRejected OrderExecType = "Rejected"
	ExecTypeTrade    OrderExecType = "Trade"
)

type OrderSide string

const (
	OrderSideBuy  OrderSide = "BUY"
	OrderSideSell OrderSide = "SELL"
)

type OrderType string

const (
	OrderTypeLimit OrderType = "LIMIT"
)

var (
	statusMapping = map[orderbook.OrderStatus]OrderStatus{
		orderbook.StatusNew:             OrderStatusNew,
		orderbook.StatusPartiallyFilled: OrderStatusPartiallyFilled,
		orderbook.StatusFilled:          OrderStatusFilled,
		orderbook.StatusCancelled:       OrderStatusCanceled,
	}

	execTypeMapping = map[orderbook.ExecType]OrderExecType{
		orderbook.ExecTypeNew:      ExecTypeNew,
		orderbook.ExecTypeTrade:    ExecTypeTrade,
		orderbook.ExecTypeCanceled: ExecTypeCanceled,
		orderbook.ExecTypeReplaced: ExecTypeReplaced,
	}
)

// OrderKey names an engine order across instruments.
func OrderKey(instrument string, orderID uint64) string {
	return fmt.Sprintf("%s-%d", instrument, orderID)
}

// Order is the OMS view of one client order: what the client sent plus the
// state carried by the last execution report.
type Order struct {
	Key     string
	OrderID uint64

	// init info
	GatewayID     string
	OrigGatewayID string
	Account       string
	Symbol        string
	Side          OrderSide
	Type          OrderType
	Price         decimal.Decimal
	Quantity      decimal.Decimal
	TransactTime  time.Time

	// calculated info
	ExecID         string
	Status         OrderStatus
	ExecType       OrderExecType
	CumQuantity    decimal.Decimal
	LeavesQuantity decimal.Decimal
	LastQuantity   decimal.Decimal
	LastPrice      decimal.Decimal
	AvgPrice       decimal.Decimal
	Text           string
}

func NewOrder(addOrder *AddOrder, orderID uint64) *Order {
	return &Order{
		Key:            OrderKey(addOrder.Symbol, orderID),
		OrderID:        orderID,
		GatewayID:      addOrder.GatewayID,
		Account:        addOrder.Account,
		Symbol:         addOrder.Symbol,
		Side:           addOrder.Side,
		Type:           OrderTypeLimit,
		Price:          addOrder.Price,
		Quantity:       addOrder.Quantity,
		TransactTime:   addOrder.TransactTime,
		Status:         OrderStatusNew,
		CumQuantity:    decimal.Zero,
		LeavesQuantity: addOrder.Quantity,
	}
}

// UpdateReport applies one engine report to the order.
func (o *Order) UpdateReport(r orderbook.ExecutionReport, ts time.Time) {
	info := r.OrderInfo

	o.ExecID = NewEventID(r.Instrument, r.ExecID)
	o.ExecType = execTypeMapping[r.ExecType]
	o.Status = statusMapping[r.OrderStatus]
	o.Price = info.Price
	o.Quantity = info.Qty
	o.LeavesQuantity = info.LeavesQty
	o.TransactTime = ts
	o.LastQuantity = decimal.Zero
	o.LastPrice = decimal.Zero

	if r.IsTrade() {
		px, qty := r.TradeInfo.TradePrice, r.TradeInfo.TradeQty
		notional := o.AvgPrice.Mul(o.CumQuantity).Add(px.Mul(qty))
		o.AvgPrice = notional.Div(info.CumQty)
		o.LastQuantity = qty
		o.LastPrice = px
	}
	o.CumQuantity = info.CumQty

	// a canceled order has nothing left open
	if o.Status == OrderStatusCanceled {
		o.LeavesQuantity = decimal.Zero
	}
}

func (o *Order) UpdateCancelOrder(cancelOrder *CancelOrder) {
	o.OrigGatewayID = cancelOrder.OrigGatewayID
	o.GatewayID = cancelOrder.GatewayID
}

func (o *Order) UpdateModifyOrder(modifyOrder *ModifyOrder) {
	o.OrigGatewayID = modifyOrder.OrigGatewayID
	o.GatewayID = modifyOrder.GatewayID
}

func (o *Order) IsEnd() bool {
	return o.Status == OrderStatusFilled || o.Status == OrderStatusCanceled || o.Status == OrderStatusRejected
}

func (o *Order) CanCancel() bool {
	return !o.IsEnd()
}

func (o *Order) CanModify() bool {
	return !o.IsEnd()
}
