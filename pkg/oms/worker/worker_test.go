package worker

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/joripage/lightengine/pkg/kafka_wrapper"
	"github.com/joripage/lightengine/pkg/oms/model"
	"github.com/joripage/lightengine/pkg/oms/repo"
	"github.com/joripage/lightengine/pkg/orderbook"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeOrderEventRepo struct {
	stored []*model.OrderEvent
	err    error
}

func (r *fakeOrderEventRepo) Create(ctx context.Context, record *model.OrderEvent) (*model.OrderEvent, error) {
	_, err := r.BulkCreate(ctx, []*model.OrderEvent{record})
	return record, err
}

func (r *fakeOrderEventRepo) BulkCreate(ctx context.Context, records []*model.OrderEvent) ([]*model.OrderEvent, error) {
	if r.err != nil {
		return nil, r.err
	}
	r.stored = append(r.stored, records...)
	return records, nil
}

func (r *fakeOrderEventRepo) ListByOrder(ctx context.Context, instrument string, orderID uint64) ([]*model.OrderEvent, error) {
	return nil, nil
}

type fakeRepo struct{ events *fakeOrderEventRepo }

func (r fakeRepo) OrderEvent() repo.IOrderEvent { return r.events }

type fakeConsumer struct{ batches [][]kafkawrapper.Message }

func (c *fakeConsumer) Run(ctx context.Context, handler func(context.Context, []kafkawrapper.Message) error) error {
	for _, b := range c.batches {
		if err := handler(ctx, b); err != nil {
			return err
		}
	}
	return nil
}

func encode(t *testing.T, ev *model.OrderEvent) kafkawrapper.Message {
	t.Helper()
	b, err := json.Marshal(ev)
	require.NoError(t, err)
	return kafkawrapper.Message{Topic: "order-events", Key: []byte(ev.Instrument), Value: b}
}

func tradeEvent() *model.OrderEvent {
	r := orderbook.ExecutionReport{
		ExecID:      3,
		ExecType:    orderbook.ExecTypeTrade,
		OrderStatus: orderbook.StatusFilled,
		Instrument:  "AAPL",
		OrderInfo: orderbook.OrderInfo{
			OrderID: 2, Side: orderbook.SELL,
			Price: decimal.RequireFromString("99.5"), Qty: decimal.NewFromInt(4),
			CumQty: decimal.NewFromInt(4), LeavesQty: decimal.Zero,
		},
		TradeInfo: &orderbook.TradeInfo{
			TradePrice: decimal.NewFromInt(100), TradeQty: decimal.NewFromInt(4),
			Aggressor: true, CounterOrderIDs: []uint64{1},
		},
	}
	return model.NewOrderEvent(r, "S1", "", time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))
}

func TestHandleBatchDecodesAndStores(t *testing.T) {
	events := &fakeOrderEventRepo{}
	w := NewWorker(fakeRepo{events}, nil)

	consumer := &fakeConsumer{batches: [][]kafkawrapper.Message{{
		encode(t, tradeEvent()),
		{Topic: "order-events", Value: []byte("{not json")},
	}}}
	require.NoError(t, w.Start(context.Background(), consumer))

	require.Len(t, events.stored, 1)
	got := events.stored[0]
	assert.Equal(t, "AAPL-3", got.EventID)
	assert.Equal(t, "S1", got.ClOrdID)
	assert.Equal(t, model.ExecTypeTrade, got.ExecType)
	assert.True(t, got.Price.Equal(decimal.RequireFromString("99.5")))
	require.True(t, got.TradeQty.Valid)
	assert.True(t, got.TradeQty.Decimal.Equal(decimal.NewFromInt(4)))
	assert.Equal(t, "1", got.CounterOrderIDs)
}

func TestHandleBatchFillsMissingEventID(t *testing.T) {
	events := &fakeOrderEventRepo{}
	w := NewWorker(fakeRepo{events}, nil)

	ev := tradeEvent()
	ev.EventID = ""
	require.NoError(t, w.HandleBatch(context.Background(), []kafkawrapper.Message{encode(t, ev)}))
	assert.Equal(t, "AAPL-3", events.stored[0].EventID)
}

func TestHandleBatchPropagatesStoreError(t *testing.T) {
	events := &fakeOrderEventRepo{err: errors.New("db down")}
	w := NewWorker(fakeRepo{events}, nil)

	err := w.HandleBatch(context.Background(), []kafkawrapper.Message{encode(t, tradeEvent())})
	assert.EqualError(t, err, "db down")

	// nothing decodable means nothing to store
	assert.NoError(t, w.HandleBatch(context.Background(), []kafkawrapper.Message{{Value: []byte("x")}}))
}
