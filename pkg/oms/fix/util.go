package fixgateway

import (
	"strconv"
	"strings"

	"github.com/joripage/lightengine/pkg/oms/model"
	"github.com/quickfixgo/enum"
	"github.com/shopspring/decimal"
)

var (
	sideToModel = map[enum.Side]model.OrderSide{
		enum.Side_BUY:  model.OrderSideBuy,
		enum.Side_SELL: model.OrderSideSell,
	}

	sideToFix = map[model.OrderSide]enum.Side{
		model.OrderSideBuy:  enum.Side_BUY,
		model.OrderSideSell: enum.Side_SELL,
	}

	ordStatusMapping = map[model.OrderStatus]enum.OrdStatus{
		model.OrderStatusNew:             enum.OrdStatus_NEW,
		model.OrderStatusPartiallyFilled: enum.OrdStatus_PARTIALLY_FILLED,
		model.OrderStatusFilled:          enum.OrdStatus_FILLED,
		model.OrderStatusCanceled:        enum.OrdStatus_CANCELED,
		model.OrderStatusRejected:        enum.OrdStatus_REJECTED,
	}

	execTypeMapping = map[model.OrderExecType]enum.ExecType{
		model.ExecTypeNew:      enum.ExecType_NEW,
		model.ExecTypeCanceled: enum.ExecType_CANCELED,
		model.ExecTypeReplaced: enum.ExecType_REPLACED,
		model.ExecTypeRejected: enum.ExecType_REJECTED,
		model.ExecTypeTrade:    enum.ExecType_TRADE,
	}
)

// scale keeps every significant digit of d, and no trailing zeros, when it
// is written to the wire.
func scale(d decimal.Decimal) int32 {
	s := d.String()
	if i := strings.IndexByte(s, '.'); i >= 0 {
		return int32(len(s) - i - 1)
	}
	return 0
}

func formatOrderID(id uint64) string {
	if id == 0 {
		return "NONE"
	}
	return strconv.FormatUint(id, 10)
}
