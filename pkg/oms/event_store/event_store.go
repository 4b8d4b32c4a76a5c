package eventstore

import "github.com/joripage/matching-engine/pkg/oms/model"

type EventStore interface {
	AddEvent(ev *model.OrderEvent)
	Events(orderID string) []model.OrderEvent
	ClaimGatewayID(orderID, gatewayID string) bool
	GetLatestGatewayID(orderID string) string
	GetOrderID(gatewayID string) string
	ReconstructChain(gatewayID string) []string
	DeleteChainByOrderID(orderID string)
}
