package oms

import (
	"context"

	"github.com/joripage/lightengine/pkg/oms/model"
)

// IOMS is what a gateway drives. A non-nil error means the request was
// rejected and produced no report.
type IOMS interface {
	AddOrder(ctx context.Context, addOrder *model.AddOrder) error
	CancelOrder(ctx context.Context, cancelOrder *model.CancelOrder) error
	ModifyOrder(ctx context.Context, modifyOrder *model.ModifyOrder) error

	GetOrderByGatewayID(gatewayID string) (model.Order, error)
}
