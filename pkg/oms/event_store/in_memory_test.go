package eventstore

import (
	"testing"
	"time"

	"github.com/joripage/matching-engine/pkg/oms/model"
	"github.com/stretchr/testify/assert"
)

func TestInMemoryEventStore_Chain(t *testing.T) {
	s := NewInMemoryEventStore()
	now := time.Now()

	s.AddEvent(&model.OrderEvent{EventID: "e1", OrderID: "O1", GatewayID: "C1", ExecType: model.ExecTypeNew, Timestamp: now})
	s.AddEvent(&model.OrderEvent{EventID: "e2", OrderID: "O1", GatewayID: "C1", ExecType: model.ExecTypeTrade, Timestamp: now})
	s.AddEvent(&model.OrderEvent{EventID: "e3", OrderID: "O1", GatewayID: "C2", OrigGatewayID: "C1", ExecType: model.ExecTypeCanceled, Timestamp: now})

	assert.Equal(t, "O1", s.GetOrderID("C1"))
	assert.Equal(t, "O1", s.GetOrderID("C2"))
	assert.Equal(t, "C2", s.GetLatestGatewayID("O1"))
	assert.Equal(t, []string{"C2", "C1"}, s.ReconstructChain("C2"))
	assert.Equal(t, []string{"C1"}, s.ReconstructChain("C1"))

	evs := s.Events("O1")
	assert.Len(t, evs, 3)
	assert.Equal(t, "e1", evs[0].EventID)
	assert.Equal(t, model.ExecTypeCanceled, evs[2].ExecType)

	evs[0].EventID = "changed"
	assert.Equal(t, "e1", s.Events("O1")[0].EventID)
}

func TestInMemoryEventStore_EmptyGatewayIDIsNotTracked(t *testing.T) {
	s := NewInMemoryEventStore()
	s.AddEvent(&model.OrderEvent{EventID: "e1", OrderID: "O1"})

	assert.Equal(t, "", s.GetOrderID(""))
	assert.Equal(t, "", s.GetLatestGatewayID("O1"))
	assert.Len(t, s.Events("O1"), 1)
}

func TestInMemoryEventStore_Delete(t *testing.T) {
	s := NewInMemoryEventStore()
	s.AddEvent(&model.OrderEvent{EventID: "e1", OrderID: "O1", GatewayID: "C1"})
	s.AddEvent(&model.OrderEvent{EventID: "e1c", OrderID: "O1", GatewayID: "C2", OrigGatewayID: "C1"})
	s.AddEvent(&model.OrderEvent{EventID: "e2", OrderID: "O2", GatewayID: "C3"})

	s.DeleteChainByOrderID("O1")

	assert.Empty(t, s.Events("O1"))
	assert.Equal(t, "", s.GetOrderID("C1"))
	assert.Equal(t, "", s.GetOrderID("C2"))
	assert.Equal(t, []string{"C2"}, s.ReconstructChain("C2"), "link to C1 is gone")
	assert.Equal(t, "O2", s.GetOrderID("C3"))
}

func TestInMemoryEventStore_ClaimGatewayID(t *testing.T) {
	s := NewInMemoryEventStore()

	assert.True(t, s.ClaimGatewayID("O1", "C1"))
	assert.False(t, s.ClaimGatewayID("O2", "C1"))
	assert.Equal(t, "O1", s.GetOrderID("C1"))
	assert.True(t, s.ClaimGatewayID("O2", "C2"))
}
