package eventstore

import (
	"sync"

	"github.com/joripage/matching-engine/pkg/oms/model"
)

type InMemoryEventStore struct {
	mu              sync.RWMutex
	orders          map[string][]*model.OrderEvent
	latestGatewayID map[string]string   // OrderID -> current GatewayID
	gatewayChain    map[string]string   // GatewayID -> OrigGatewayID
	gatewayOrder    map[string]string   // GatewayID -> OrderID
	gatewayIDs      map[string][]string // OrderID -> every GatewayID seen
}

func NewInMemoryEventStore() *InMemoryEventStore {
	return &InMemoryEventStore{
		orders:          make(map[string][]*model.OrderEvent),
		latestGatewayID: make(map[string]string),
		gatewayChain:    make(map[string]string),
		gatewayOrder:    make(map[string]string),
		gatewayIDs:      make(map[string][]string),
	}
}

func (s *InMemoryEventStore) AddEvent(ev *model.OrderEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.orders[ev.OrderID] = append(s.orders[ev.OrderID], ev)
	s.trackGatewayChain(ev.OrderID, ev.GatewayID, ev.OrigGatewayID)
}

// Events returns copies of the events of orderID, oldest first.
func (s *InMemoryEventStore) Events(orderID string) []model.OrderEvent {
	s.mu.RLock()
	defer s.mu.RUnlock()

	evs := s.orders[orderID]
	out := make([]model.OrderEvent, len(evs))
	for i, ev := range evs {
		out[i] = *ev
	}
	return out
}

// ClaimGatewayID binds gatewayID to orderID unless another order already uses it.
func (s *InMemoryEventStore) ClaimGatewayID(orderID, gatewayID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.gatewayOrder[gatewayID]; taken {
		return false
	}
	s.trackGatewayChain(orderID, gatewayID, "")
	return true
}

func (s *InMemoryEventStore) trackGatewayChain(orderID, gatewayID, origGatewayID string) {
	if gatewayID == "" {
		return
	}

	s.latestGatewayID[orderID] = gatewayID
	if _, ok := s.gatewayOrder[gatewayID]; !ok {
		s.gatewayOrder[gatewayID] = orderID
		s.gatewayIDs[orderID] = append(s.gatewayIDs[orderID], gatewayID)
	}

	if origGatewayID != "" {
		s.gatewayChain[gatewayID] = origGatewayID
	}
}

func (s *InMemoryEventStore) GetLatestGatewayID(orderID string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.latestGatewayID[orderID]
}

func (s *InMemoryEventStore) GetOrderID(gatewayID string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.gatewayOrder[gatewayID]
}

// ReconstructChain walks from gatewayID back to the id the order was placed
// with, newest first.
func (s *InMemoryEventStore) ReconstructChain(gatewayID string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var chain []string
	seen := make(map[string]bool)
	for curr := gatewayID; curr != "" && !seen[curr]; curr = s.gatewayChain[curr] {
		seen[curr] = true
		chain = append(chain, curr)
	}
	return chain
}

// DeleteChainByOrderID forgets the events and gateway ids of orderID.
func (s *InMemoryEventStore) DeleteChainByOrderID(orderID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, gid := range s.gatewayIDs[orderID] {
		delete(s.gatewayOrder, gid)
		delete(s.gatewayChain, gid)
	}
	delete(s.gatewayIDs, orderID)
	delete(s.latestGatewayID, orderID)
	delete(s.orders, orderID)
}
