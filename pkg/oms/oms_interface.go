package oms

import (
	"context"

	"github.com/joripage/matching-engine/pkg/oms/model"
	"github.com/joripage/matching-engine/pkg/orderbook"
)

// IOMS is the order entry surface used by inbound gateways.
type IOMS interface {
	AddOrder(ctx context.Context, addOrder *model.AddOrder) (orderbook.SubmitResult, error)
	CancelOrder(ctx context.Context, cancelOrder *model.CancelOrder) (orderbook.Order, error)
}

var _ IOMS = (*OMS)(nil)
