package repo

import (
	"context"

	"github.com/joripage/lightengine/pkg/oms/model"
)

type IOrderEvent interface {
	Create(ctx context.Context, record *model.OrderEvent) (*model.OrderEvent, error)
	// BulkCreate skips records whose event id is already stored.
	BulkCreate(ctx context.Context, records []*model.OrderEvent) ([]*model.OrderEvent, error)
	ListByOrder(ctx context.Context, instrument string, orderID uint64) ([]*model.OrderEvent, error)
}
