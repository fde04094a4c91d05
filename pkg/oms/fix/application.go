package fixgateway

import (
	"context"
	"fmt"
	"os"

	"github.com/joripage/go_util/pkg/shardqueue"
	"github.com/quickfixgo/field"
	fix42nos "github.com/quickfixgo/fix42/newordersingle"
	fix42ocrr "github.com/quickfixgo/fix42/ordercancelreplacerequest"
	fix42ocr "github.com/quickfixgo/fix42/ordercancelrequest"
	fix44nos "github.com/quickfixgo/fix44/newordersingle"
	fix44ocrr "github.com/quickfixgo/fix44/ordercancelreplacerequest"
	fix44ocr "github.com/quickfixgo/fix44/ordercancelrequest"
	"github.com/quickfixgo/quickfix"
	"github.com/quickfixgo/quickfix/log/file"
	"github.com/quickfixgo/tag"
	"go.uber.org/zap"
)

const defaultQueueSize = 100_000

// Application implements the quickfix.Application interface
type Application struct {
	*quickfix.MessageRouter
	quitEvent  chan bool
	dispatcher chan *inboundMsg
	shardQueue *shardqueue.Shardqueue

	fixGateway *FixGateway
}

type inboundMsg struct {
	msg       *quickfix.Message
	sessionID quickfix.SessionID
}

func newApplication(cfg *FixGatewayConfig, fixGateway *FixGateway) *Application {
	app := &Application{
		MessageRouter: quickfix.NewMessageRouter(),
		quitEvent:     make(chan bool, 1),
		fixGateway:    fixGateway,
	}

	app.AddRoute(fix42nos.Route(func(msg fix42nos.NewOrderSingle, sessionID quickfix.SessionID) quickfix.MessageRejectError {
		return app.onNewOrderSingle(msg.ToMessage(), sessionID)
	}))
	app.AddRoute(fix44nos.Route(func(msg fix44nos.NewOrderSingle, sessionID quickfix.SessionID) quickfix.MessageRejectError {
		return app.onNewOrderSingle(msg.ToMessage(), sessionID)
	}))
	app.AddRoute(fix42ocr.Route(func(msg fix42ocr.OrderCancelRequest, sessionID quickfix.SessionID) quickfix.MessageRejectError {
		return app.onOrderCancelRequest(msg.ToMessage(), sessionID)
	}))
	app.AddRoute(fix44ocr.Route(func(msg fix44ocr.OrderCancelRequest, sessionID quickfix.SessionID) quickfix.MessageRejectError {
		return app.onOrderCancelRequest(msg.ToMessage(), sessionID)
	}))
	app.AddRoute(fix42ocrr.Route(func(msg fix42ocrr.OrderCancelReplaceRequest, sessionID quickfix.SessionID) quickfix.MessageRejectError {
		return app.onOrderCancelReplaceRequest(msg.ToMessage(), sessionID)
	}))
	app.AddRoute(fix44ocrr.Route(func(msg fix44ocrr.OrderCancelReplaceRequest, sessionID quickfix.SessionID) quickfix.MessageRejectError {
		return app.onOrderCancelReplaceRequest(msg.ToMessage(), sessionID)
	}))

	queueSize := cfg.QueueSize
	if queueSize <= 0 {
		queueSize = defaultQueueSize
	}
	if cfg.NumShards > 0 {
		app.shardQueue = shardqueue.NewShardQueue(cfg.NumShards, queueSize)
		app.shardQueue.Start(func(msg interface{}) error {
			if v, ok := msg.(*inboundMsg); ok {
				app.route(v)
			}
			return nil
		})
	} else {
		app.dispatcher = make(chan *inboundMsg, queueSize)
		go app.runDispatcher()
	}

	return app
}

func startApp(cfg *FixGatewayConfig, fixGateway *FixGateway) (*Application, error) {
	f, err := os.Open(cfg.SettingsFile)
	if err != nil {
		return nil, fmt.Errorf("error opening %v, %v", cfg.SettingsFile, err)
	}
	defer f.Close() // nolint

	appSettings, err := quickfix.ParseSettings(f)
	if err != nil {
		return nil, fmt.Errorf("error reading cfg: %s,", err)
	}

	app := newApplication(cfg, fixGateway)

	logFactory, err := file.NewLogFactory(appSettings)
	if err != nil {
		return nil, fmt.Errorf("unable to create log factory: %s", err)
	}
	acceptor, err := quickfix.NewAcceptor(app, quickfix.NewMemoryStoreFactory(), appSettings, logFactory)
	if err != nil {
		return nil, fmt.Errorf("unable to create acceptor: %s", err)
	}

	err = acceptor.Start()
	if err != nil {
		return nil, fmt.Errorf("unable to start FIX acceptor: %s", err)
	}

	go func() {
		<-app.quitEvent
		acceptor.Stop()
	}()

	return app, nil
}

func stopApp(a *Application) {
	select {
	case a.quitEvent <- true:
	default:
	}
}

// OnCreate implemented as part of Application interface
func (a *Application) OnCreate(sessionID quickfix.SessionID) {}

// OnLogon implemented as part of Application interface
func (a *Application) OnLogon(sessionID quickfix.SessionID) {
	a.fixGateway.logger.Info(context.Background(), "fix logon", zap.String("session", sessionID.String()))
}

// OnLogout implemented as part of Application interface
func (a *Application) OnLogout(sessionID quickfix.SessionID) {
	a.fixGateway.logger.Info(context.Background(), "fix logout", zap.String("session", sessionID.String()))
}

// ToAdmin implemented as part of Application interface
func (a *Application) ToAdmin(msg *quickfix.Message, sessionID quickfix.SessionID) {}

// ToApp implemented as part of Application interface
func (a *Application) ToApp(msg *quickfix.Message, sessionID quickfix.SessionID) error {
	return nil
}

// FromAdmin implemented as part of Application interface
func (a *Application) FromAdmin(msg *quickfix.Message, sessionID quickfix.SessionID) quickfix.MessageRejectError {
	return nil
}

// FromApp queues application messages. Messages of one symbol share a
// shard, so they reach the OMS in arrival order.
func (a *Application) FromApp(msg *quickfix.Message, sessionID quickfix.SessionID) quickfix.MessageRejectError {
	in := &inboundMsg{msg, sessionID}
	if a.shardQueue != nil {
		a.shardQueue.Shard(getRoutingKey(msg, sessionID), in)
		return nil
	}
	a.dispatcher <- in
	return nil
}

func getRoutingKey(msg *quickfix.Message, sessionID quickfix.SessionID) string {
	if symbol, err := msg.Body.GetString(tag.Symbol); err == nil && symbol != "" {
		return symbol
	}
	return sessionID.String()
}

func (a *Application) runDispatcher() {
	for msg := range a.dispatcher {
		a.route(msg)
	}
}

// route runs after FromApp returned, so a reject can only be logged.
func (a *Application) route(in *inboundMsg) {
	if err := a.Route(in.msg, in.sessionID); err != nil {
		a.fixGateway.logger.Warn(context.Background(), "route fix message failed",
			zap.String("session", in.sessionID.String()),
			zap.Error(err),
		)
	}
}

func (a *Application) onNewOrderSingle(msg *quickfix.Message, sessionID quickfix.SessionID) quickfix.MessageRejectError {
	req, rej := parseNewOrderSingle(msg, sessionID)
	if rej != nil {
		return rej
	}
	a.fixGateway.AddOrder(context.Background(), req)
	return nil
}

func (a *Application) onOrderCancelRequest(msg *quickfix.Message, sessionID quickfix.SessionID) quickfix.MessageRejectError {
	req, rej := parseOrderCancelRequest(msg, sessionID)
	if rej != nil {
		return rej
	}
	a.fixGateway.CancelOrder(context.Background(), req)
	return nil
}

func (a *Application) onOrderCancelReplaceRequest(msg *quickfix.Message, sessionID quickfix.SessionID) quickfix.MessageRejectError {
	req, rej := parseOrderCancelReplaceRequest(msg, sessionID)
	if rej != nil {
		return rej
	}
	a.fixGateway.ModifyOrder(context.Background(), req)
	return nil
}

// The parsers read tags shared by FIX 4.2 and 4.4, so both dialects decode
// into the same request.

func parseNewOrderSingle(msg *quickfix.Message, sessionID quickfix.SessionID) (*NewOrderSingle, quickfix.MessageRejectError) {
	var (
		clOrdID  field.ClOrdIDField
		symbol   field.SymbolField
		side     field.SideField
		ordType  field.OrdTypeField
		price    field.PriceField
		orderQty field.OrderQtyField
	)
	for _, f := range []quickfix.Field{&clOrdID, &symbol, &side, &ordType, &orderQty} {
		if err := msg.Body.Get(f); err != nil {
			return nil, err
		}
	}

	req := &NewOrderSingle{
		SessionID: sessionID,
		ClOrdID:   clOrdID.Value(),
		Symbol:    symbol.Value(),
		Side:      side.Value(),
		OrdType:   ordType.Value(),
		OrderQty:  orderQty.Value(),
	}
	if msg.Body.Has(tag.Price) {
		if err := msg.Body.Get(&price); err != nil {
			return nil, err
		}
		req.Price = price.Value()
	}
	if account, err := msg.Body.GetString(tag.Account); err == nil {
		req.Account = account
	}
	var transactTime field.TransactTimeField
	if err := msg.Body.Get(&transactTime); err == nil {
		req.TransactTime = transactTime.Value()
	}
	return req, nil
}

func parseOrderCancelRequest(msg *quickfix.Message, sessionID quickfix.SessionID) (*OrderCancelRequest, quickfix.MessageRejectError) {
	var (
		clOrdID     field.ClOrdIDField
		origClOrdID field.OrigClOrdIDField
	)
	for _, f := range []quickfix.Field{&clOrdID, &origClOrdID} {
		if err := msg.Body.Get(f); err != nil {
			return nil, err
		}
	}

	req := &OrderCancelRequest{
		SessionID:   sessionID,
		ClOrdID:     clOrdID.Value(),
		OrigClOrdID: origClOrdID.Value(),
	}
	if symbol, err := msg.Body.GetString(tag.Symbol); err == nil {
		req.Symbol = symbol
	}
	var side field.SideField
	if err := msg.Body.Get(&side); err == nil {
		req.Side = side.Value()
	}
	return req, nil
}

func parseOrderCancelReplaceRequest(msg *quickfix.Message, sessionID quickfix.SessionID) (*OrderCancelReplaceRequest, quickfix.MessageRejectError) {
	var (
		clOrdID     field.ClOrdIDField
		origClOrdID field.OrigClOrdIDField
		price       field.PriceField
		orderQty    field.OrderQtyField
	)
	for _, f := range []quickfix.Field{&clOrdID, &origClOrdID, &price, &orderQty} {
		if err := msg.Body.Get(f); err != nil {
			return nil, err
		}
	}

	req := &OrderCancelReplaceRequest{
		SessionID:   sessionID,
		ClOrdID:     clOrdID.Value(),
		OrigClOrdID: origClOrdID.Value(),
		Price:       price.Value(),
		OrderQty:    orderQty.Value(),
	}
	if symbol, err := msg.Body.GetString(tag.Symbol); err == nil {
		req.Symbol = symbol
	}
	var side field.SideField
	if err := msg.Body.Get(&side); err == nil {
		req.Side = side.Value()
	}
	var ordType field.OrdTypeField
	if err := msg.Body.Get(&ordType); err == nil {
		req.OrdType = ordType.Value()
	}
	return req, nil
}
