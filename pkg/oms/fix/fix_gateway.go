package fixgateway

import (
	"context"
	"errors"
	"sync"

	"github.com/joripage/lightengine/pkg/logging"
	"github.com/joripage/lightengine/pkg/oms"
	"github.com/joripage/lightengine/pkg/oms/model"
	"github.com/joripage/lightengine/pkg/orderbook"
	"github.com/quickfixgo/enum"
	"github.com/quickfixgo/quickfix"
	"go.uber.org/zap"
)

type sendFunc func(msg quickfix.Messagable, sessionID quickfix.SessionID) error

type FixGateway struct {
	cfg         *FixGatewayConfig
	app         *Application
	omsInstance oms.IOMS
	logger      *logging.Logger
	send        sendFunc

	// TODO: drop bindings of orders once the OMS cleaner forgets them.
	requestMapping sync.Map // ClOrdID -> quickfix.SessionID
}

type FixGatewayConfig struct {
	SettingsFile string `yaml:"settings_file"`
	// NumShards > 0 dispatches inbound messages to a shard per symbol;
	// otherwise a single dispatcher keeps arrival order.
	NumShards int `yaml:"num_shards"`
	QueueSize int `yaml:"queue_size"`
}

func NewFixGateway(cfg *FixGatewayConfig, logger *logging.Logger) *FixGateway {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &FixGateway{
		cfg:    cfg,
		logger: logger,
		send:   quickfix.SendToTarget,
	}
}

func (s *FixGateway) AddOmsInstance(o oms.IOMS) {
	s.omsInstance = o
}

func (s *FixGateway) Start(ctx context.Context) error {
	app, err := startApp(s.cfg, s)
	if err != nil {
		s.logger.Error(ctx, "start fix acceptor failed", zap.Error(err))
		return err
	}
	s.app = app
	return nil
}

func (s *FixGateway) Stop() {
	if s.app != nil {
		stopApp(s.app)
	}
}

func (s *FixGateway) AddOrder(ctx context.Context, req *NewOrderSingle) {
	bound := s.bindRequest(req.ClOrdID, req.SessionID)

	side, ok := sideToModel[req.Side]
	if !ok {
		s.rejectOrder(ctx, req, bound, enum.OrdRejReason_OTHER, "unsupported side")
		return
	}
	if req.OrdType != enum.OrdType_LIMIT {
		s.rejectOrder(ctx, req, bound, enum.OrdRejReason_UNSUPPORTED_ORDER_CHARACTERISTIC, "only limit orders are accepted")
		return
	}

	err := s.omsInstance.AddOrder(ctx, &model.AddOrder{
		GatewayID:    req.ClOrdID,
		Account:      req.Account,
		Symbol:       req.Symbol,
		Price:        req.Price,
		Side:         side,
		TransactTime: req.TransactTime,
		Quantity:     req.OrderQty,
	})
	if err != nil {
		reason := enum.OrdRejReason_OTHER
		switch {
		case oms.IsDuplicateOrder(err):
			reason = enum.OrdRejReason_DUPLICATE_ORDER
		case errors.Is(err, orderbook.ErrUnknownInstrument):
			reason = enum.OrdRejReason_UNKNOWN_SYMBOL
		}
		s.rejectOrder(ctx, req, bound, reason, err.Error())
	}
}

func (s *FixGateway) CancelOrder(ctx context.Context, req *OrderCancelRequest) {
	bound := s.bindRequest(req.ClOrdID, req.SessionID)

	err := s.omsInstance.CancelOrder(ctx, &model.CancelOrder{
		GatewayID:     req.ClOrdID,
		OrigGatewayID: req.OrigClOrdID,
	})
	if err != nil {
		s.rejectCancel(ctx, req.SessionID, req.ClOrdID, req.OrigClOrdID, bound,
			enum.CxlRejResponseTo_ORDER_CANCEL_REQUEST, err)
	}
}

func (s *FixGateway) ModifyOrder(ctx context.Context, req *OrderCancelReplaceRequest) {
	bound := s.bindRequest(req.ClOrdID, req.SessionID)

	if req.OrdType != "" && req.OrdType != enum.OrdType_LIMIT {
		s.rejectCancel(ctx, req.SessionID, req.ClOrdID, req.OrigClOrdID, bound,
			enum.CxlRejResponseTo_ORDER_CANCEL_REPLACE_REQUEST, errors.New("only limit orders are accepted"))
		return
	}

	err := s.omsInstance.ModifyOrder(ctx, &model.ModifyOrder{
		NewPrice:      req.Price,
		NewQuantity:   req.OrderQty,
		GatewayID:     req.ClOrdID,
		OrigGatewayID: req.OrigClOrdID,
	})
	if err != nil {
		s.rejectCancel(ctx, req.SessionID, req.ClOrdID, req.OrigClOrdID, bound,
			enum.CxlRejResponseTo_ORDER_CANCEL_REPLACE_REQUEST, err)
	}
}

// OnOrderReport runs under the OMS instrument lock, so reports of one book
// are sent in book order.
func (s *FixGateway) OnOrderReport(ctx context.Context, order model.Order) {
	sessionID, err := s.GetRequestByClOrdID(order.GatewayID)
	if err != nil {
		s.logger.Warn(ctx, "no session for report", zap.String("cl_ord_id", order.GatewayID), zap.Uint64("order_id", order.OrderID))
		return
	}

	if err := s.send(orderToExecutionReport(sessionID.BeginString, order), sessionID); err != nil {
		s.logger.Warn(ctx, "send execution report failed", zap.String("cl_ord_id", order.GatewayID), zap.Error(err))
	}
}

// bindRequest remembers which session a ClOrdID came from and reports
// whether this call made the binding.
func (s *FixGateway) bindRequest(clOrdID string, sessionID quickfix.SessionID) bool {
	_, loaded := s.requestMapping.LoadOrStore(clOrdID, sessionID)
	return !loaded
}

func (s *FixGateway) GetRequestByClOrdID(clOrdID string) (quickfix.SessionID, error) {
	v, ok := s.requestMapping.Load(clOrdID)
	if !ok {
		return quickfix.SessionID{}, errors.New("clOrdID not found")
	}
	return v.(quickfix.SessionID), nil
}

func (s *FixGateway) rejectOrder(ctx context.Context, req *NewOrderSingle, bound bool, reason enum.OrdRejReason, text string) {
	if bound {
		s.requestMapping.Delete(req.ClOrdID)
	}
	s.logger.Info(ctx, "new order rejected", zap.String("cl_ord_id", req.ClOrdID), zap.String("reason", text))

	if err := s.send(newOrderReject(req.SessionID.BeginString, req, reason, text), req.SessionID); err != nil {
		s.logger.Warn(ctx, "send order reject failed", zap.String("cl_ord_id", req.ClOrdID), zap.Error(err))
	}
}

func (s *FixGateway) rejectCancel(
	ctx context.Context,
	sessionID quickfix.SessionID,
	clOrdID, origClOrdID string,
	bound bool,
	responseTo enum.CxlRejResponseTo,
	cause error,
) {
	if bound {
		s.requestMapping.Delete(clOrdID)
	}

	orderID := "NONE"
	ordStatus := enum.OrdStatus_REJECTED
	reason := enum.CxlRejReason_OTHER
	switch {
	case oms.IsUnknownOrder(cause):
		reason = enum.CxlRejReason_UNKNOWN_ORDER
	case oms.IsTooLate(cause):
		reason = enum.CxlRejReason_TOO_LATE_TO_CANCEL
	}
	if order, err := s.omsInstance.GetOrderByGatewayID(origClOrdID); err == nil {
		orderID = formatOrderID(order.OrderID)
		ordStatus = ordStatusMapping[order.Status]
	}

	s.logger.Info(ctx, "cancel/replace rejected",
		zap.String("cl_ord_id", clOrdID),
		zap.String("orig_cl_ord_id", origClOrdID),
		zap.Error(cause),
	)

	msg := newCancelReject(sessionID.BeginString, orderID, clOrdID, origClOrdID, ordStatus, responseTo, reason, cause.Error())
	if err := s.send(msg, sessionID); err != nil {
		s.logger.Warn(ctx, "send cancel reject failed", zap.String("cl_ord_id", clOrdID), zap.Error(err))
	}
}
