package publisher

import (
	"context"
	"errors"

	"github.com/joripage/lightengine/pkg/oms/model"
)

const headerExecType = "exec_type"

type jsonPublisher interface {
	PublishJSON(ctx context.Context, topic string, key string, v any, headers map[string]string) error
}

// KafkaReportPublisher writes order events to one topic keyed by instrument,
// so every event of a book lands on the same partition in order.
type KafkaReportPublisher struct {
	producer jsonPublisher
	topic    string
}

func NewKafkaReportPublisher(producer jsonPublisher, topic string) *KafkaReportPublisher {
	return &KafkaReportPublisher{
		producer: producer,
		topic:    topic,
	}
}

func (p *KafkaReportPublisher) PublishReport(ctx context.Context, ev *model.OrderEvent) error {
	if ev == nil {
		return errors.New("nil order event")
	}
	return p.producer.PublishJSON(ctx, p.topic, ev.Instrument, ev, map[string]string{
		headerExecType: string(ev.ExecType),
	})
}
