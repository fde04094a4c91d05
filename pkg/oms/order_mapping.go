package oms

import (
	"context"
	"fmt"
	"time"

	"github.com/joripage/lightengine/pkg/oms/model"
	"go.uber.org/zap"
)

func (s *OMS) AddOrderToMap(order *model.Order) {
	s.orderMapping.Store(order.Key, order)
}

func (s *OMS) GetOrderByKey(key string) (*model.Order, error) {
	order, ok := s.orderMapping.Load(key)
	if !ok {
		return nil, fmt.Errorf("%w: %s", errOrderIDNotFound, key)
	}

	return order.(*model.Order), nil
}

// GetOrderByGatewayID returns a copy of the order named by any ClOrdID it
// has carried.
func (s *OMS) GetOrderByGatewayID(gatewayID string) (model.Order, error) {
	key := s.eventstore.GetOrderKey(gatewayID)
	if key == "" {
		return model.Order{}, fmt.Errorf("%w: %s", errGatewayIDNotFound, gatewayID)
	}
	order, err := s.GetOrderByKey(key)
	if err != nil {
		return model.Order{}, err
	}

	unlock := s.lockInstrument(order.Symbol)
	defer unlock()
	return *order, nil
}

func (s *OMS) DeleteOrderByKey(key string) {
	s.orderMapping.Delete(key)
}

func (s *OMS) startCleaner(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.cleanup(ctx)
		case <-s.stopCh:
			return
		case <-ctx.Done():
			return
		}
	}
}

// cleanup forgets terminal orders together with their ClOrdID history.
func (s *OMS) cleanup(ctx context.Context) int {
	removed := 0
	s.orderMapping.Range(func(k, v any) bool {
		order := v.(*model.Order)

		unlock := s.lockInstrument(order.Symbol)
		if order.IsEnd() {
			for _, id := range s.eventstore.ReconstructChain(s.eventstore.GetLatestClOrdID(order.Key)) {
				s.gatewayIDs.Delete(id)
			}
			s.eventstore.DeleteChainByOrderKey(order.Key)
			s.DeleteOrderByKey(order.Key)
			removed++
		}
		unlock()
		return true
	})

	if removed > 0 {
		s.logger.Debug(ctx, "cleaned terminal orders", zap.Int("count", removed))
	}
	return removed
}
