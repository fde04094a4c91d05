package worker

import (
	"context"
	"encoding/json"

	"github.com/joripage/lightengine/pkg/kafka_wrapper"
	"github.com/joripage/lightengine/pkg/logging"
	"github.com/joripage/lightengine/pkg/oms/model"
	"github.com/joripage/lightengine/pkg/oms/repo"
	"go.uber.org/zap"
)

// Consumer delivers batches of messages to a handler until ctx ends.
type Consumer interface {
	Run(ctx context.Context, handler func(context.Context, []kafkawrapper.Message) error) error
}

// Worker persists order events read from Kafka.
type Worker struct {
	orderEvent repo.IOrderEvent
	logger     *logging.Logger
}

func NewWorker(r repo.IRepo, logger *logging.Logger) *Worker {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Worker{
		orderEvent: r.OrderEvent(),
		logger:     logger,
	}
}

func (w *Worker) Start(ctx context.Context, consumer Consumer) error {
	return consumer.Run(ctx, w.HandleBatch)
}

// HandleBatch stores one batch. Undecodable messages are logged and dropped
// so one bad payload cannot stall the partition; a store error fails the
// whole batch for redelivery.
func (w *Worker) HandleBatch(ctx context.Context, msgs []kafkawrapper.Message) error {
	records := make([]*model.OrderEvent, 0, len(msgs))
	for _, msg := range msgs {
		var ev model.OrderEvent
		if err := json.Unmarshal(msg.Value, &ev); err != nil {
			w.logger.Error(ctx, "decode order event failed",
				zap.String("topic", msg.Topic),
				zap.Int("partition", msg.Partition),
				zap.Int64("offset", msg.Offset),
				zap.Error(err),
			)
			continue
		}
		if ev.EventID == "" {
			ev.EventID = model.NewEventID(ev.Instrument, ev.ExecID)
		}
		records = append(records, &ev)
	}

	if len(records) == 0 {
		return nil
	}

	if _, err := w.orderEvent.BulkCreate(ctx, records); err != nil {
		w.logger.Warn(ctx, "store order events failed", zap.Int("count", len(records)), zap.Error(err))
		return err
	}

	w.logger.Debug(ctx, "stored order events", zap.Int("count", len(records)))
	return nil
}
