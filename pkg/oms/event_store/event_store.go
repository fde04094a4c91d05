package eventstore

import "github.com/joripage/lightengine/pkg/oms/model"

// EventStore journals order events and the ClOrdID history of each order.
// Orders are addressed by model.OrderKey.
type EventStore interface {
	AddEvent(ev *model.OrderEvent)
	Events(orderKey string) []*model.OrderEvent
	TrackClOrdChain(orderKey, clOrdID, origClOrdID string)
	GetLatestClOrdID(orderKey string) string
	GetOrigClOrdID(clOrdID string) string
	GetOrderKey(clOrdID string) string
	ReconstructChain(clOrdID string) []string
	DeleteChainByOrderKey(orderKey string)
}
