package eventstore

import (
	"sync"

	"github.com/joripage/lightengine/pkg/oms/model"
)

type InMemoryEventStore struct {
	mu            sync.RWMutex
	orders        map[string][]*model.OrderEvent
	latestClOrdID map[string]string // order key -> current ClOrdID
	clOrdChain    map[string]string // ClOrdID -> OrigClOrdID
	orderKeys     map[string]string // ClOrdID -> order key
}

func NewInMemoryEventStore() *InMemoryEventStore {
	return &InMemoryEventStore{
		orders:        make(map[string][]*model.OrderEvent),
		latestClOrdID: make(map[string]string),
		clOrdChain:    make(map[string]string),
		orderKeys:     make(map[string]string),
	}
}

func (s *InMemoryEventStore) AddEvent(ev *model.OrderEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := ev.OrderKey()
	s.orders[key] = append(s.orders[key], ev)
	if ev.ClOrdID != "" {
		s.trackClOrdChain(key, ev.ClOrdID, ev.OrigClOrdID)
	}
}

// Events returns the journal of one order, oldest first.
func (s *InMemoryEventStore) Events(orderKey string) []*model.OrderEvent {
	s.mu.RLock()
	defer s.mu.RUnlock()

	evs := s.orders[orderKey]
	out := make([]*model.OrderEvent, len(evs))
	copy(out, evs)
	return out
}

// TrackClOrdChain records that clOrdID now names the order, replacing
// origClOrdID when set.
func (s *InMemoryEventStore) TrackClOrdChain(orderKey, clOrdID, origClOrdID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.trackClOrdChain(orderKey, clOrdID, origClOrdID)
}

func (s *InMemoryEventStore) trackClOrdChain(orderKey, clOrdID, origClOrdID string) {
	s.latestClOrdID[orderKey] = clOrdID
	s.orderKeys[clOrdID] = orderKey

	if origClOrdID != "" {
		s.clOrdChain[clOrdID] = origClOrdID
	}
}

func (s *InMemoryEventStore) GetLatestClOrdID(orderKey string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.latestClOrdID[orderKey]
}

// GetOrigClOrdID returns the immediate OrigClOrdID for a given ClOrdID
func (s *InMemoryEventStore) GetOrigClOrdID(clOrdID string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.clOrdChain[clOrdID]
}

// GetOrderKey resolves any ClOrdID ever used for an order, "" if unknown.
func (s *InMemoryEventStore) GetOrderKey(clOrdID string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.orderKeys[clOrdID]
}

// ReconstructChain walks backward to get full chain of ClOrdIDs
func (s *InMemoryEventStore) ReconstructChain(clOrdID string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var chain []string
	seen := make(map[string]struct{})
	curr := clOrdID
	for curr != "" {
		if _, ok := seen[curr]; ok {
			break
		}
		seen[curr] = struct{}{}
		chain = append(chain, curr)
		curr = s.clOrdChain[curr]
	}
	return chain
}

// DeleteChainByOrderKey forgets an order: its journal and every ClOrdID that
// pointed at it.
func (s *InMemoryEventStore) DeleteChainByOrderKey(orderKey string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	curr := s.latestClOrdID[orderKey]
	for curr != "" {
		if s.orderKeys[curr] == orderKey {
			delete(s.orderKeys, curr)
		}
		next := s.clOrdChain[curr]
		delete(s.clOrdChain, curr)
		curr = next
	}

	delete(s.latestClOrdID, orderKey)
	delete(s.orders, orderKey)
}
