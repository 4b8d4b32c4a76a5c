package repo

import (
	"context"

	"github.com/joripage/matching-engine/pkg/oms/model"
)

type IOrderEvent interface {
	Create(ctx context.Context, record *model.OrderEvent) (*model.OrderEvent, error)
	// BulkCreate skips records whose event id is already stored.
	BulkCreate(ctx context.Context, records []*model.OrderEvent) ([]*model.OrderEvent, error)
	ListByOrderID(ctx context.Context, orderID string) ([]*model.OrderEvent, error)
}

type ITrade interface {
	BulkCreate(ctx context.Context, records []*model.TradeEvent) ([]*model.TradeEvent, error)
	ListBySymbol(ctx context.Context, symbol string, limit int) ([]*model.TradeEvent, error)
}
