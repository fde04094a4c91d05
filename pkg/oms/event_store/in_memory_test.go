package eventstore

import (
	"testing"

	"github.com/joripage/lightengine/pkg/oms/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func event(execID uint64, clOrdID, origClOrdID string) *model.OrderEvent {
	return &model.OrderEvent{
		EventID:     model.NewEventID("AAPL", execID),
		Instrument:  "AAPL",
		OrderID:     1,
		ExecID:      execID,
		ClOrdID:     clOrdID,
		OrigClOrdID: origClOrdID,
	}
}

func TestInMemoryEventStoreChain(t *testing.T) {
	s := NewInMemoryEventStore()
	key := model.OrderKey("AAPL", 1)

	s.AddEvent(event(1, "A", ""))
	s.AddEvent(event(2, "B", "A"))
	s.AddEvent(event(3, "C", "B"))

	assert.Equal(t, "C", s.GetLatestClOrdID(key))
	assert.Equal(t, "B", s.GetOrigClOrdID("C"))
	assert.Equal(t, []string{"C", "B", "A"}, s.ReconstructChain("C"))
	for _, id := range []string{"A", "B", "C"} {
		assert.Equal(t, key, s.GetOrderKey(id))
	}

	evs := s.Events(key)
	require.Len(t, evs, 3)
	assert.Equal(t, uint64(1), evs[0].ExecID)
	assert.Equal(t, uint64(3), evs[2].ExecID)
}

func TestInMemoryEventStoreDelete(t *testing.T) {
	s := NewInMemoryEventStore()
	key := model.OrderKey("AAPL", 1)

	s.TrackClOrdChain(key, "A", "")
	s.AddEvent(event(1, "A", ""))
	s.AddEvent(event(2, "B", "A"))
	s.TrackClOrdChain(model.OrderKey("AAPL", 2), "X", "")

	s.DeleteChainByOrderKey(key)

	assert.Empty(t, s.GetOrderKey("A"))
	assert.Empty(t, s.GetOrderKey("B"))
	assert.Empty(t, s.GetLatestClOrdID(key))
	assert.Empty(t, s.Events(key))
	assert.Equal(t, model.OrderKey("AAPL", 2), s.GetOrderKey("X"))
}

func TestEventsReturnsCopy(t *testing.T) {
	s := NewInMemoryEventStore()
	s.AddEvent(event(1, "A", ""))

	evs := s.Events(model.OrderKey("AAPL", 1))
	evs[0] = nil
	assert.NotNil(t, s.Events(model.OrderKey("AAPL", 1))[0])
}
