package oms

import (
	"context"

	"github.com/joripage/lightengine/pkg/oms/model"
	"github.com/joripage/lightengine/pkg/orderbook"
)

type OrderGateway interface {
	Start(ctx context.Context) error

	// oms to client
	OnOrderReport(ctx context.Context, order model.Order)
}

// ReportPublisher ships every order event downstream, for persistence.
type ReportPublisher interface {
	PublishReport(ctx context.Context, ev *model.OrderEvent) error
}

// DepthPublisher exposes the book after each change.
type DepthPublisher interface {
	PublishDepth(ctx context.Context, snapshot orderbook.Snapshot) error
}
