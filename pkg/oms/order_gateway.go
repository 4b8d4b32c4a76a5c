package oms

import (
	"context"

	"github.com/joripage/matching-engine/pkg/oms/model"
)

// OrderGateway receives everything the OMS reports. Trade and fill reports
// are delivered while the symbol is locked, in execution order, so
// implementations must not call back into the OMS for the same symbol from
// these methods.
type OrderGateway interface {
	Start(ctx context.Context) error

	// oms to client
	OnOrderReport(ctx context.Context, ev model.OrderEvent)
	OnTrade(ctx context.Context, trade model.TradeEvent)
}
