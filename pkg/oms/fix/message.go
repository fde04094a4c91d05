package fixgateway

import (
	"time"

	"github.com/joripage/lightengine/pkg/oms/model"
	"github.com/quickfixgo/enum"
	"github.com/quickfixgo/field"
	fix42er "github.com/quickfixgo/fix42/executionreport"
	fix42ocj "github.com/quickfixgo/fix42/ordercancelreject"
	fix44er "github.com/quickfixgo/fix44/executionreport"
	fix44ocj "github.com/quickfixgo/fix44/ordercancelreject"
	"github.com/quickfixgo/quickfix"
	"github.com/shopspring/decimal"
)

// orderToExecutionReport renders the order state after one report in the
// dialect of the session it goes to. FIX 4.2 has no TRADE exec type, fills
// are reported as PARTIAL_FILL or FILL.
func orderToExecutionReport(beginString string, order model.Order) quickfix.Messagable {
	execType := execTypeMapping[order.ExecType]
	ordStatus := ordStatusMapping[order.Status]
	side := sideToFix[order.Side]

	if beginString == quickfix.BeginStringFIX42 {
		if execType == enum.ExecType_TRADE {
			execType = enum.ExecType_FILL
			if order.Status == model.OrderStatusPartiallyFilled {
				execType = enum.ExecType_PARTIAL_FILL
			}
		}
		msg := fix42er.New(
			field.NewOrderID(formatOrderID(order.OrderID)),
			field.NewExecID(order.ExecID),
			field.NewExecTransType(enum.ExecTransType_NEW),
			field.NewExecType(execType),
			field.NewOrdStatus(ordStatus),
			field.NewSymbol(order.Symbol),
			field.NewSide(side),
			field.NewLeavesQty(order.LeavesQuantity, scale(order.LeavesQuantity)),
			field.NewCumQty(order.CumQuantity, scale(order.CumQuantity)),
			field.NewAvgPx(order.AvgPrice, scale(order.AvgPrice)),
		)
		msg.SetClOrdID(order.GatewayID)
		if order.OrigGatewayID != "" {
			msg.SetOrigClOrdID(order.OrigGatewayID)
		}
		if order.Account != "" {
			msg.SetAccount(order.Account)
		}
		msg.SetOrdType(enum.OrdType_LIMIT)
		msg.SetPrice(order.Price, scale(order.Price))
		msg.SetOrderQty(order.Quantity, scale(order.Quantity))
		msg.SetTransactTime(order.TransactTime)
		if execType == enum.ExecType_PARTIAL_FILL || execType == enum.ExecType_FILL {
			msg.SetLastShares(order.LastQuantity, scale(order.LastQuantity))
			msg.SetLastPx(order.LastPrice, scale(order.LastPrice))
		}
		if order.Text != "" {
			msg.SetText(order.Text)
		}
		return msg
	}

	msg := fix44er.New(
		field.NewOrderID(formatOrderID(order.OrderID)),
		field.NewExecID(order.ExecID),
		field.NewExecType(execType),
		field.NewOrdStatus(ordStatus),
		field.NewSide(side),
		field.NewLeavesQty(order.LeavesQuantity, scale(order.LeavesQuantity)),
		field.NewCumQty(order.CumQuantity, scale(order.CumQuantity)),
		field.NewAvgPx(order.AvgPrice, scale(order.AvgPrice)),
	)
	msg.SetClOrdID(order.GatewayID)
	if order.OrigGatewayID != "" {
		msg.SetOrigClOrdID(order.OrigGatewayID)
	}
	if order.Account != "" {
		msg.SetAccount(order.Account)
	}
	msg.SetSymbol(order.Symbol)
	msg.SetOrdType(enum.OrdType_LIMIT)
	msg.SetPrice(order.Price, scale(order.Price))
	msg.SetOrderQty(order.Quantity, scale(order.Quantity))
	msg.SetTransactTime(order.TransactTime)
	if execType == enum.ExecType_TRADE {
		msg.SetLastQty(order.LastQuantity, scale(order.LastQuantity))
		msg.SetLastPx(order.LastPrice, scale(order.LastPrice))
	}
	if order.Text != "" {
		msg.SetText(order.Text)
	}
	return msg
}

// newOrderReject answers a NewOrderSingle that never reached the book.
func newOrderReject(beginString string, req *NewOrderSingle, reason enum.OrdRejReason, text string) quickfix.Messagable {
	order := model.Order{
		GatewayID:      req.ClOrdID,
		Account:        req.Account,
		Symbol:         req.Symbol,
		Side:           sideToModel[req.Side],
		Price:          req.Price,
		Quantity:       req.OrderQty,
		TransactTime:   time.Now(),
		ExecID:         "REJ-" + req.ClOrdID,
		Status:         model.OrderStatusRejected,
		ExecType:       model.ExecTypeRejected,
		CumQuantity:    decimal.Zero,
		LeavesQuantity: decimal.Zero,
		AvgPrice:       decimal.Zero,
		Text:           text,
	}

	msg := orderToExecutionReport(beginString, order)
	// the request side is echoed back even when it did not parse
	msg.ToMessage().Body.Set(field.NewSide(req.Side))
	msg.ToMessage().Body.Set(field.NewOrdRejReason(reason))
	return msg
}

// newCancelReject answers a cancel (responseTo ORDER_CANCEL_REQUEST) or a
// replace (ORDER_CANCEL_REPLACE_REQUEST) that changed nothing.
func newCancelReject(
	beginString string,
	orderID string,
	clOrdID string,
	origClOrdID string,
	ordStatus enum.OrdStatus,
	responseTo enum.CxlRejResponseTo,
	reason enum.CxlRejReason,
	text string,
) quickfix.Messagable {
	if beginString == quickfix.BeginStringFIX42 {
		msg := fix42ocj.New(
			field.NewOrderID(orderID),
			field.NewClOrdID(clOrdID),
			field.NewOrigClOrdID(origClOrdID),
			field.NewOrdStatus(ordStatus),
			field.NewCxlRejResponseTo(responseTo),
		)
		msg.SetCxlRejReason(reason)
		msg.SetText(text)
		return msg
	}

	msg := fix44ocj.New(
		field.NewOrderID(orderID),
		field.NewClOrdID(clOrdID),
		field.NewOrigClOrdID(origClOrdID),
		field.NewOrdStatus(ordStatus),
		field.NewCxlRejResponseTo(responseTo),
	)
	msg.SetCxlRejReason(reason)
	msg.SetText(text)
	return msg
}
