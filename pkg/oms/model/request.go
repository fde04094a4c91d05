package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// AddOrder is a new limit order request. GatewayID is the client order id
// the gateway will use to address reports for it.
type AddOrder struct {
	GatewayID    string
	Account      string
	Symbol       string
	Price        decimal.Decimal
	Side         OrderSide
	TransactTime time.Time
	Quantity     decimal.Decimal
}

type CancelOrder struct {
	GatewayID     string
	OrigGatewayID string
}

type ModifyOrder struct {
	NewPrice      decimal.Decimal
	NewQuantity   decimal.Decimal
	GatewayID     string
	OrigGatewayID string
}
