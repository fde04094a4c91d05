package oms

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/joripage/lightengine/pkg/logging"
	"github.com/joripage/lightengine/pkg/metrics"
	eventstore "github.com/joripage/lightengine/pkg/oms/event_store"
	"github.com/joripage/lightengine/pkg/oms/model"
	"github.com/joripage/lightengine/pkg/orderbook"
	"go.uber.org/zap"
)

const defaultDepthLevels = 10

var sideMapping = map[model.OrderSide]orderbook.Side{
	model.OrderSideBuy:  orderbook.BUY,
	model.OrderSideSell: orderbook.SELL,
}

type Option func(*OMS)

func WithEventStore(es eventstore.EventStore) Option {
	return func(s *OMS) { s.eventstore = es }
}

func WithReportPublisher(p ReportPublisher) Option {
	return func(s *OMS) { s.publisher = p }
}

// WithDepthPublisher publishes the top levels of the book after every
// accepted request.
func WithDepthPublisher(p DepthPublisher, levels int) Option {
	return func(s *OMS) {
		s.depthPublisher = p
		if levels > 0 {
			s.depthLevels = levels
		}
	}
}

func WithLogger(l *logging.Logger) Option {
	return func(s *OMS) { s.logger = l }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *OMS) { s.metrics = m }
}

// WithCleanInterval sets how often terminal orders are forgotten; 0 keeps
// them for the life of the process.
func WithCleanInterval(d time.Duration) Option {
	return func(s *OMS) { s.cleanInterval = d }
}

// OMS keys engine orders by client order id, keeps their state and fans
// every execution report out to the gateway, the event store and the
// publishers.
type OMS struct {
	orderGateway     OrderGateway
	orderbookManager *orderbook.OrderBookManager
	eventstore       eventstore.EventStore
	publisher        ReportPublisher
	depthPublisher   DepthPublisher
	depthLevels      int
	metrics          *metrics.Metrics
	logger           *logging.Logger

	orderMapping   sync.Map // order key -> *model.Order
	gatewayIDs     sync.Map // every ClOrdID ever accepted
	instrumentLock sync.Map // instrument -> *sync.Mutex

	cleanInterval time.Duration
	stopOnce      sync.Once
	stopCh        chan struct{}
}

func NewOMS(orderGateway OrderGateway, manager *orderbook.OrderBookManager, opts ...Option) *OMS {
	s := &OMS{
		orderGateway:     orderGateway,
		orderbookManager: manager,
		eventstore:       eventstore.NewInMemoryEventStore(),
		depthLevels:      defaultDepthLevels,
		logger:           logging.NewNop(),
		stopCh:           make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.metrics != nil {
		manager.RegisterReportCallback(s.metrics.ObserveReports)
	}
	return s
}

func (s *OMS) Start(ctx context.Context) error {
	if s.orderGateway != nil {
		if err := s.orderGateway.Start(ctx); err != nil {
			return err
		}
	}
	if s.cleanInterval > 0 {
		go s.startCleaner(ctx, s.cleanInterval)
	}
	return nil
}

func (s *OMS) Stop() {
	s.stopOnce.Do(func() { close(s.stopCh) })
}

func (s *OMS) AddOrder(ctx context.Context, addOrder *model.AddOrder) error {
	side, ok := sideMapping[addOrder.Side]
	if !ok {
		return s.reject(ctx, "new_order", fmt.Errorf("%w: %q", errInvalidSide, addOrder.Side))
	}
	if !s.claimGatewayID(addOrder.GatewayID) {
		return s.reject(ctx, "new_order", fmt.Errorf("%w: %s", errDuplicateOrder, addOrder.GatewayID))
	}

	unlock := s.lockInstrument(addOrder.Symbol)
	defer unlock()

	reports, err := s.orderbookManager.AddOrder(addOrder.Symbol, addOrder.Price, addOrder.Quantity, side)
	if err != nil {
		return s.reject(ctx, "new_order", err)
	}

	order := model.NewOrder(addOrder, reports[0].OrderInfo.OrderID)
	s.AddOrderToMap(order)
	s.eventstore.TrackClOrdChain(order.Key, order.GatewayID, "")

	s.processReports(ctx, addOrder.Symbol, reports)
	return nil
}

func (s *OMS) CancelOrder(ctx context.Context, cancelOrder *model.CancelOrder) error {
	order, unlock, err := s.lockOrigOrder(cancelOrder.OrigGatewayID)
	if err != nil {
		return s.reject(ctx, "cancel", err)
	}
	defer unlock()

	if !order.CanCancel() {
		return s.reject(ctx, "cancel", fmt.Errorf("%w: %s is %s", errInvalidOrderStatus, order.GatewayID, order.Status))
	}
	if !s.claimGatewayID(cancelOrder.GatewayID) {
		return s.reject(ctx, "cancel", fmt.Errorf("%w: %s", errDuplicateOrder, cancelOrder.GatewayID))
	}

	report, err := s.orderbookManager.CancelOrder(order.Symbol, order.OrderID)
	if err != nil {
		return s.reject(ctx, "cancel", err)
	}

	order.UpdateCancelOrder(cancelOrder)
	s.processReports(ctx, order.Symbol, []orderbook.ExecutionReport{report})
	return nil
}

func (s *OMS) ModifyOrder(ctx context.Context, modifyOrder *model.ModifyOrder) error {
	order, unlock, err := s.lockOrigOrder(modifyOrder.OrigGatewayID)
	if err != nil {
		return s.reject(ctx, "replace", err)
	}
	defer unlock()

	if !order.CanModify() {
		return s.reject(ctx, "replace", fmt.Errorf("%w: %s is %s", errInvalidOrderStatus, order.GatewayID, order.Status))
	}
	if !s.claimGatewayID(modifyOrder.GatewayID) {
		return s.reject(ctx, "replace", fmt.Errorf("%w: %s", errDuplicateOrder, modifyOrder.GatewayID))
	}

	reports, err := s.orderbookManager.AmendOrder(order.Symbol, order.OrderID, modifyOrder.NewPrice, modifyOrder.NewQuantity)
	if err != nil {
		return s.reject(ctx, "replace", err)
	}

	order.UpdateModifyOrder(modifyOrder)
	s.processReports(ctx, order.Symbol, reports)
	return nil
}

// Events returns the journal of the order currently or formerly named by
// gatewayID.
func (s *OMS) Events(gatewayID string) []*model.OrderEvent {
	key := s.eventstore.GetOrderKey(gatewayID)
	if key == "" {
		return nil
	}
	return s.eventstore.Events(key)
}

// processReports applies reports in book order. Caller holds the instrument
// lock.
func (s *OMS) processReports(ctx context.Context, instrument string, reports []orderbook.ExecutionReport) {
	now := time.Now()

	for _, r := range reports {
		key := model.OrderKey(r.Instrument, r.OrderInfo.OrderID)
		order, err := s.GetOrderByKey(key)
		if err != nil {
			s.logger.Warn(ctx, "report for unknown order", zap.String("order_key", key), zap.Uint64("exec_id", r.ExecID))
			continue
		}

		order.UpdateReport(r, now)
		ev := model.NewOrderEvent(r, order.GatewayID, order.OrigGatewayID, now)
		s.eventstore.AddEvent(ev)

		if s.orderGateway != nil {
			s.orderGateway.OnOrderReport(ctx, *order)
		}
		if s.publisher != nil {
			if err := s.publisher.PublishReport(ctx, ev); err != nil {
				s.logger.Warn(ctx, "publish report failed", zap.String("event_id", ev.EventID), zap.Error(err))
			}
		}
	}

	s.publishDepth(ctx, instrument)
}

func (s *OMS) publishDepth(ctx context.Context, instrument string) {
	if s.depthPublisher == nil {
		return
	}

	snapshot, err := s.orderbookManager.Depth(instrument, s.depthLevels)
	if err != nil {
		s.logger.Warn(ctx, "read depth failed", zap.String("instrument", instrument), zap.Error(err))
		return
	}
	if err := s.depthPublisher.PublishDepth(ctx, snapshot); err != nil {
		s.logger.Warn(ctx, "publish depth failed", zap.String("instrument", instrument), zap.Error(err))
	}
}

func (s *OMS) reject(ctx context.Context, request string, err error) error {
	s.logger.Info(ctx, "request rejected", zap.String("request", request), zap.Error(err))
	if s.metrics != nil {
		s.metrics.Reject(request)
	}
	return err
}

func (s *OMS) claimGatewayID(gatewayID string) bool {
	_, loaded := s.gatewayIDs.LoadOrStore(gatewayID, struct{}{})
	return !loaded
}

func (s *OMS) lockInstrument(instrument string) func() {
	v, _ := s.instrumentLock.LoadOrStore(instrument, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

// lockOrigOrder resolves a ClOrdID to its order and locks the order's
// instrument.
func (s *OMS) lockOrigOrder(origGatewayID string) (*model.Order, func(), error) {
	key := s.eventstore.GetOrderKey(origGatewayID)
	if key == "" {
		return nil, nil, fmt.Errorf("%w: %s", errGatewayIDNotFound, origGatewayID)
	}
	order, err := s.GetOrderByKey(key)
	if err != nil {
		return nil, nil, err
	}

	unlock := s.lockInstrument(order.Symbol)
	return order, unlock, nil
}
