package main

import (
	"context"
	"flag"
	"math/rand"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/joripage/lightengine/pkg/logging"
	"github.com/quickfixgo/enum"
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
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type loadConfig struct {
	symbol   string
	account  string
	orders   int
	midPrice int64
	spread   int64
	maxQty   int64
}

// InitiatorApp sends a burst of orders on logon and counts what comes back.
type InitiatorApp struct {
	cfg    loadConfig
	logger *logging.Logger
	rng    *rand.Rand

	mu       sync.Mutex
	received map[string]int
	start    time.Time
}

func (a *InitiatorApp) OnCreate(sessionID quickfix.SessionID) {}

func (a *InitiatorApp) OnLogon(sessionID quickfix.SessionID) {
	a.logger.Info(context.Background(), "logon success", zap.String("session", sessionID.String()))
	go a.sendBurst(sessionID)
}

func (a *InitiatorApp) OnLogout(sessionID quickfix.SessionID)                       {}
func (a *InitiatorApp) ToAdmin(msg *quickfix.Message, sessionID quickfix.SessionID) {}
func (a *InitiatorApp) ToApp(msg *quickfix.Message, sessionID quickfix.SessionID) error {
	return nil
}
func (a *InitiatorApp) FromAdmin(msg *quickfix.Message, sessionID quickfix.SessionID) quickfix.MessageRejectError {
	return nil
}

func (a *InitiatorApp) FromApp(msg *quickfix.Message, sessionID quickfix.SessionID) quickfix.MessageRejectError {
	msgType, err := msg.Header.GetString(tag.MsgType)
	if err != nil {
		return err
	}
	key := msgType
	if msgType == string(enum.MsgType_EXECUTION_REPORT) {
		if execType, err := msg.Body.GetString(tag.ExecType); err == nil {
			key = "8/" + execType
		}
	}

	a.mu.Lock()
	a.received[key]++
	a.mu.Unlock()
	return nil
}

func (a *InitiatorApp) summary() {
	a.mu.Lock()
	defer a.mu.Unlock()

	fields := []zap.Field{zap.Duration("elapsed", time.Since(a.start))}
	for k, v := range a.received {
		fields = append(fields, zap.Int(k, v))
	}
	a.logger.Info(context.Background(), "received", fields...)
}

// sendBurst sends cfg.orders limit orders around the mid price. Every 7th
// order is replaced and every 10th cancelled right after it is sent.
func (a *InitiatorApp) sendBurst(sessionID quickfix.SessionID) {
	ctx := context.Background()
	a.mu.Lock()
	a.start = time.Now()
	a.mu.Unlock()

	for i := 1; i <= a.cfg.orders; i++ {
		side := enum.Side_BUY
		offset := -a.rng.Int63n(a.cfg.spread + 1)
		if a.rng.Intn(2) == 0 {
			side = enum.Side_SELL
			offset = -offset
		}
		price := decimal.NewFromInt(a.cfg.midPrice + offset)
		qty := decimal.NewFromInt(a.rng.Int63n(a.cfg.maxQty) + 1)

		clOrdID := randSeq(a.rng, 17)
		if err := quickfix.SendToTarget(a.newOrder(sessionID, clOrdID, side, price, qty), sessionID); err != nil {
			a.logger.Warn(ctx, "send new order failed", zap.Error(err))
			continue
		}

		switch {
		case i%10 == 0:
			msg := a.cancel(sessionID, clOrdID, randSeq(a.rng, 17), side)
			if err := quickfix.SendToTarget(msg, sessionID); err != nil {
				a.logger.Warn(ctx, "send cancel failed", zap.Error(err))
			}
		case i%7 == 0:
			msg := a.replace(sessionID, clOrdID, randSeq(a.rng, 17), side, price, qty.Add(decimal.NewFromInt(1)))
			if err := quickfix.SendToTarget(msg, sessionID); err != nil {
				a.logger.Warn(ctx, "send replace failed", zap.Error(err))
			}
		}
	}
	a.logger.Info(ctx, "burst sent", zap.Int("orders", a.cfg.orders))
}

func (a *InitiatorApp) newOrder(sessionID quickfix.SessionID, clOrdID string, side enum.Side, price, qty decimal.Decimal) quickfix.Messagable {
	if sessionID.BeginString == quickfix.BeginStringFIX42 {
		m := fix42nos.New(
			field.NewClOrdID(clOrdID),
			field.NewHandlInst("1"),
			field.NewSymbol(a.cfg.symbol),
			field.NewSide(side),
			field.NewTransactTime(time.Now()),
			field.NewOrdType(enum.OrdType_LIMIT))
		m.SetAccount(a.cfg.account)
		m.SetPrice(price, 0)
		m.SetOrderQty(qty, 0)
		return m
	}

	m := fix44nos.New(
		field.NewClOrdID(clOrdID),
		field.NewSide(side),
		field.NewTransactTime(time.Now()),
		field.NewOrdType(enum.OrdType_LIMIT))
	m.SetSymbol(a.cfg.symbol)
	m.SetAccount(a.cfg.account)
	m.SetPrice(price, 0)
	m.SetOrderQty(qty, 0)
	return m
}

func (a *InitiatorApp) cancel(sessionID quickfix.SessionID, origClOrdID, clOrdID string, side enum.Side) quickfix.Messagable {
	if sessionID.BeginString == quickfix.BeginStringFIX42 {
		return fix42ocr.New(
			field.NewOrigClOrdID(origClOrdID),
			field.NewClOrdID(clOrdID),
			field.NewSymbol(a.cfg.symbol),
			field.NewSide(side),
			field.NewTransactTime(time.Now()))
	}

	m := fix44ocr.New(
		field.NewOrigClOrdID(origClOrdID),
		field.NewClOrdID(clOrdID),
		field.NewSide(side),
		field.NewTransactTime(time.Now()))
	m.SetSymbol(a.cfg.symbol)
	return m
}

func (a *InitiatorApp) replace(sessionID quickfix.SessionID, origClOrdID, clOrdID string, side enum.Side, price, qty decimal.Decimal) quickfix.Messagable {
	if sessionID.BeginString == quickfix.BeginStringFIX42 {
		m := fix42ocrr.New(
			field.NewOrigClOrdID(origClOrdID),
			field.NewClOrdID(clOrdID),
			field.NewHandlInst("1"),
			field.NewSymbol(a.cfg.symbol),
			field.NewSide(side),
			field.NewTransactTime(time.Now()),
			field.NewOrdType(enum.OrdType_LIMIT))
		m.SetPrice(price, 0)
		m.SetOrderQty(qty, 0)
		return m
	}

	m := fix44ocrr.New(
		field.NewOrigClOrdID(origClOrdID),
		field.NewClOrdID(clOrdID),
		field.NewSide(side),
		field.NewTransactTime(time.Now()),
		field.NewOrdType(enum.OrdType_LIMIT))
	m.SetSymbol(a.cfg.symbol)
	m.SetPrice(price, 0)
	m.SetOrderQty(qty, 0)
	return m
}

func main() {
	var (
		cfgPath string
		cfg     loadConfig
	)
	flag.StringVar(&cfgPath, "config", "./config/fixclient.cfg", "quickfix initiator settings")
	flag.StringVar(&cfg.symbol, "symbol", "ABC", "instrument to trade")
	flag.StringVar(&cfg.account, "account", "TMT", "account sent on every order")
	flag.IntVar(&cfg.orders, "orders", 1000, "orders per logon")
	flag.Int64Var(&cfg.midPrice, "mid", 14700, "mid price")
	flag.Int64Var(&cfg.spread, "spread", 5, "max distance from mid, in price units")
	flag.Int64Var(&cfg.maxQty, "max-qty", 100, "max order quantity")
	flag.Parse()

	logger := logging.NewLogger(logging.INFO)
	defer logger.Sync()
	ctx := context.Background()

	app := &InitiatorApp{
		cfg:      cfg,
		logger:   logger,
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
		received: make(map[string]int),
	}

	f, err := os.Open(cfgPath)
	if err != nil {
		logger.Fatal(ctx, "open settings", zap.Error(err))
	}
	defer f.Close() // nolint

	settings, err := quickfix.ParseSettings(f)
	if err != nil {
		logger.Fatal(ctx, "parse settings", zap.Error(err))
	}

	logFactory, err := file.NewLogFactory(settings)
	if err != nil {
		logger.Fatal(ctx, "create log factory", zap.Error(err))
	}
	initiator, err := quickfix.NewInitiator(app, quickfix.NewMemoryStoreFactory(), settings, logFactory)
	if err != nil {
		logger.Fatal(ctx, "create initiator", zap.Error(err))
	}
	if err := initiator.Start(); err != nil {
		logger.Fatal(ctx, "start initiator", zap.Error(err))
	}
	logger.Info(ctx, "initiator started", zap.String("settings", cfgPath))

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	<-sigs

	initiator.Stop()
	app.summary()
}

var letters = []rune("abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ")

func randSeq(rng *rand.Rand, n int) string {
	b := make([]rune, n)
	for i := range b {
		b[i] = letters[rng.Intn(len(letters))]
	}
	return string(b)
}
