package kafkawrapper

import (
	"context"
	"testing"
	"time"

	kafka "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBackoffDurationBounds(t *testing.T) {
	min, max := 10*time.Millisecond, 200*time.Millisecond
	for attempt := 0; attempt < 12; attempt++ {
		for i := 0; i < 50; i++ {
			d := backoffDuration(min, max, attempt)
			assert.GreaterOrEqual(t, d, time.Duration(0))
			assert.Less(t, d, max)
		}
	}
	assert.Equal(t, time.Duration(0), backoffDuration(0, 0, 3))
}

func TestHashKeyIsStable(t *testing.T) {
	a := HashKey("AAPL")
	assert.Len(t, a, 8)
	assert.Equal(t, a, HashKey("AAPL"))
	assert.NotEqual(t, a, HashKey("MSFT"))
}

func TestWrapMessageCopiesHeaders(t *testing.T) {
	raw := kafka.Message{
		Topic:     "order-events",
		Partition: 2,
		Offset:    41,
		Key:       []byte("AAPL"),
		Value:     []byte(`{}`),
		Headers:   []kafka.Header{{Key: "exec_type", Value: []byte("TRADE")}},
	}
	m := wrapMessage(raw)
	assert.Equal(t, "order-events", m.Topic)
	assert.Equal(t, 2, m.Partition)
	assert.Equal(t, int64(41), m.Offset)
	assert.Equal(t, []byte("AAPL"), m.Key)
	assert.Equal(t, map[string]string{"exec_type": "TRADE"}, m.Headers)

	assert.Empty(t, headersToMap(nil))
	assert.Nil(t, mapToHeaders(nil))
	assert.Equal(t, []kafka.Header{{Key: "k", Value: []byte("v")}}, mapToHeaders(map[string]string{"k": "v"}))
}

func TestConsumerConfigDefaults(t *testing.T) {
	cfg := ConsumerConfig{MaxRetries: -3}.withDefaults()
	assert.Equal(t, 4, cfg.WorkerCount)
	assert.Equal(t, 0, cfg.MaxRetries)
	assert.Equal(t, 100*time.Millisecond, cfg.BackoffMin)
	assert.Equal(t, 10*time.Second, cfg.BackoffMax)
	assert.Equal(t, 50, cfg.BatchSize)
	assert.Equal(t, 200*time.Millisecond, cfg.BatchTimeout)

	kept := ConsumerConfig{WorkerCount: 1, BatchSize: 7}.withDefaults()
	assert.Equal(t, 1, kept.WorkerCount)
	assert.Equal(t, 7, kept.BatchSize)
}

func TestProducerConfigDefaults(t *testing.T) {
	cfg := ProducerConfig{}.withDefaults()
	assert.IsType(t, &kafka.Hash{}, cfg.Balancer)
	assert.Equal(t, kafka.RequireOne, cfg.RequiredAcks)

	all := ProducerConfig{RequiredAcks: kafka.RequireAll}.withDefaults()
	assert.Equal(t, kafka.RequireAll, all.RequiredAcks)
}

func TestNewConsumerGroupValidates(t *testing.T) {
	_, err := NewConsumerGroup(ConsumerConfig{Topic: "t", GroupID: "g"})
	require.Error(t, err)
}

func TestNilProducer(t *testing.T) {
	var p *Producer
	assert.Error(t, p.Publish(context.Background(), "t", nil, nil, nil))
	assert.NoError(t, p.Close(context.Background()))
}
